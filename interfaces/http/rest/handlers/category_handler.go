package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"stuffmd/application/engine"
	"stuffmd/domain/note"
	"stuffmd/pkg/auth"
	"stuffmd/pkg/common"
	pkgerrors "stuffmd/pkg/errors"
	"stuffmd/pkg/utils"
)

// CategoryHandler handles category-level operations, which fan out to
// every note under the target path
type CategoryHandler struct {
	engine *engine.Engine
	logger *zap.Logger
}

// NewCategoryHandler creates a new category handler
func NewCategoryHandler(engine *engine.Engine, logger *zap.Logger) *CategoryHandler {
	return &CategoryHandler{
		engine: engine,
		logger: logger,
	}
}

// RenameCategoryRequest carries the old path and its replacement. The
// new path may arrive as a single "A / B / C" string, matching the
// inline editor in the original client, or as a pre-split list.
type RenameCategoryRequest struct {
	OldPath []string `json:"old_path" validate:"required,min=1"`
	NewPath string   `json:"new_path" validate:"required"`
}

// DeleteCategoryRequest names the path whose notes are removed
type DeleteCategoryRequest struct {
	Path []string `json:"path" validate:"required,min=1"`
}

// Rename handles POST /categories/rename
func (h *CategoryHandler) Rename(w http.ResponseWriter, r *http.Request) {
	var req RenameCategoryRequest
	if err := common.ParseJSONBody(r, &req, maxRequestBody); err != nil {
		common.RespondAppError(w, pkgerrors.NewValidationError("invalid request body: "+err.Error()))
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondAppError(w, pkgerrors.NewValidationError(err.Error()))
		return
	}

	oldPath := note.NewCategoryPath(req.OldPath)
	newPath := note.ParseCategoryPath(req.NewPath)

	token := auth.GetTokenFromContext(r.Context())
	if err := h.engine.RenameCategoryPath(r.Context(), token, oldPath, newPath); err != nil {
		h.logger.Error("Failed to rename category",
			zap.String("oldPath", oldPath.Key()),
			zap.Error(err),
		)
		common.RespondAppError(w, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"message":  "Category renamed successfully",
		"new_path": []string(newPath),
	})
}

// Delete handles POST /categories/delete
func (h *CategoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	var req DeleteCategoryRequest
	if err := common.ParseJSONBody(r, &req, maxRequestBody); err != nil {
		common.RespondAppError(w, pkgerrors.NewValidationError("invalid request body: "+err.Error()))
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondAppError(w, pkgerrors.NewValidationError(err.Error()))
		return
	}

	path := note.NewCategoryPath(req.Path)
	if !path.IsValid() {
		common.RespondAppError(w, pkgerrors.NewValidationError("category path cannot be empty"))
		return
	}

	token := auth.GetTokenFromContext(r.Context())
	if err := h.engine.DeleteCategory(r.Context(), token, path); err != nil {
		h.logger.Error("Failed to delete category",
			zap.String("path", path.Key()),
			zap.Error(err),
		)
		common.RespondAppError(w, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, map[string]string{
		"message": "Category " + path.Display() + " deleted",
	})
}
