package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"stuffmd/application/engine"
	"stuffmd/application/export"
	"stuffmd/pkg/auth"
	"stuffmd/pkg/common"
	pkgerrors "stuffmd/pkg/errors"
)

// ExportHandler serves the collection as a downloadable file
type ExportHandler struct {
	engine *engine.Engine
	logger *zap.Logger
}

// NewExportHandler creates a new export handler
func NewExportHandler(engine *engine.Engine, logger *zap.Logger) *ExportHandler {
	return &ExportHandler{
		engine: engine,
		logger: logger,
	}
}

// Export handles GET /export?format=txt|json
func (h *ExportHandler) Export(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "txt"
	}

	token := auth.GetTokenFromContext(r.Context())
	if err := h.engine.Refresh(r.Context(), token); err != nil {
		common.RespondAppError(w, err)
		return
	}
	notes := h.engine.Notes()

	var (
		body        []byte
		err         error
		contentType string
		filename    string
	)
	switch format {
	case "txt":
		body, err = export.AsText(notes)
		contentType = "text/plain; charset=utf-8"
		filename = export.TextFilename
	case "json":
		body, err = export.AsJSON(notes)
		contentType = "application/json; charset=utf-8"
		filename = export.JSONFilename
	default:
		common.RespondAppError(w, pkgerrors.NewValidationError("format must be txt or json"))
		return
	}
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	h.logger.Info("Collection exported",
		zap.String("format", format),
		zap.Int("notes", len(notes)),
	)

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}
