package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"stuffmd/application/engine"
	"stuffmd/application/views"
	"stuffmd/domain/note"
	"stuffmd/pkg/auth"
	"stuffmd/pkg/common"
	pkgerrors "stuffmd/pkg/errors"
	"stuffmd/pkg/utils"
)

const maxRequestBody = 1 << 20

// NoteHandler handles note-related HTTP requests
type NoteHandler struct {
	engine *engine.Engine
	logger *zap.Logger
}

// NewNoteHandler creates a new note handler
func NewNoteHandler(engine *engine.Engine, logger *zap.Logger) *NoteHandler {
	return &NoteHandler{
		engine: engine,
		logger: logger,
	}
}

// CreateNoteRequest represents the request body for capturing a note
type CreateNoteRequest struct {
	Content      string `json:"content" validate:"required"`
	Instructions string `json:"instructions,omitempty" validate:"omitempty,max=2000"`
}

// UpdateNoteRequest represents the request body for patching a note
type UpdateNoteRequest struct {
	Title        *string   `json:"title,omitempty" validate:"omitempty,min=1,max=200"`
	Content      *string   `json:"content,omitempty"`
	Summary      *string   `json:"summary,omitempty"`
	CategoryPath []string  `json:"categoryPath,omitempty" validate:"omitempty,min=1,dive,min=1,max=100"`
	Tags         *[]string `json:"tags,omitempty" validate:"omitempty,max=20,dive,max=50"`
}

// RegenerateNoteRequest carries optional instructions for re-classification
type RegenerateNoteRequest struct {
	Instructions string `json:"instructions,omitempty" validate:"omitempty,max=2000"`
}

// BulkDeleteRequest represents the request body for bulk deletion
type BulkDeleteRequest struct {
	NoteIDs []string `json:"note_ids" validate:"required,min=1,dive,required"`
}

// ListNotes handles GET /notes. Optional query params: tags (comma
// separated, AND semantics) and grouped=true for the category
// projection.
func (h *NoteHandler) ListNotes(w http.ResponseWriter, r *http.Request) {
	token := auth.GetTokenFromContext(r.Context())
	if err := h.engine.Refresh(r.Context(), token); err != nil {
		h.logger.Error("Failed to refresh notes", zap.Error(err))
		common.RespondAppError(w, err)
		return
	}

	notes := h.engine.Notes()
	if raw := r.URL.Query().Get("tags"); raw != "" {
		notes = views.FilterByTags(notes, splitTags(raw))
	}

	if r.URL.Query().Get("grouped") == "true" {
		common.RespondJSON(w, http.StatusOK, views.GroupByCategory(notes))
		return
	}
	common.RespondJSON(w, http.StatusOK, notes)
}

// CreateNote handles POST /notes
func (h *NoteHandler) CreateNote(w http.ResponseWriter, r *http.Request) {
	var req CreateNoteRequest
	if err := common.ParseJSONBody(r, &req, maxRequestBody); err != nil {
		common.RespondAppError(w, pkgerrors.NewValidationError("invalid request body: "+err.Error()))
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondAppError(w, pkgerrors.NewValidationError(err.Error()))
		return
	}

	token := auth.GetTokenFromContext(r.Context())
	created, err := h.engine.Create(r.Context(), token, req.Content, req.Instructions)
	if err != nil {
		h.logger.Error("Failed to create note", zap.Error(err))
		common.RespondAppError(w, err)
		return
	}

	common.RespondJSON(w, http.StatusCreated, created)
}

// UpdateNote handles PATCH /notes/{noteID}
func (h *NoteHandler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	noteID := chi.URLParam(r, "noteID")
	if noteID == "" {
		common.RespondAppError(w, pkgerrors.NewValidationError("note ID is required"))
		return
	}

	var req UpdateNoteRequest
	if err := common.ParseJSONBody(r, &req, maxRequestBody); err != nil {
		common.RespondAppError(w, pkgerrors.NewValidationError("invalid request body: "+err.Error()))
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondAppError(w, pkgerrors.NewValidationError(err.Error()))
		return
	}

	patch := note.Patch{
		Title:   req.Title,
		Content: req.Content,
		Summary: req.Summary,
		Tags:    req.Tags,
	}
	if req.CategoryPath != nil {
		patch.CategoryPath = note.NewCategoryPath(req.CategoryPath)
		if !patch.CategoryPath.IsValid() {
			common.RespondAppError(w, pkgerrors.NewValidationError("category path cannot be empty"))
			return
		}
	}
	if patch.IsEmpty() {
		common.RespondAppError(w, pkgerrors.NewValidationError("update carries no changes"))
		return
	}

	token := auth.GetTokenFromContext(r.Context())
	if err := h.engine.Update(r.Context(), token, noteID, patch); err != nil {
		h.logger.Error("Failed to update note",
			zap.String("noteID", noteID),
			zap.Error(err),
		)
		common.RespondAppError(w, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, h.engine.Get(noteID))
}

// RegenerateNote handles POST /notes/{noteID}/regenerate
func (h *NoteHandler) RegenerateNote(w http.ResponseWriter, r *http.Request) {
	noteID := chi.URLParam(r, "noteID")
	if noteID == "" {
		common.RespondAppError(w, pkgerrors.NewValidationError("note ID is required"))
		return
	}

	var req RegenerateNoteRequest
	if r.ContentLength > 0 {
		if err := common.ParseJSONBody(r, &req, maxRequestBody); err != nil {
			common.RespondAppError(w, pkgerrors.NewValidationError("invalid request body: "+err.Error()))
			return
		}
	}

	token := auth.GetTokenFromContext(r.Context())
	if err := h.engine.Refresh(r.Context(), token); err != nil {
		common.RespondAppError(w, err)
		return
	}

	current := h.engine.Get(noteID)
	if current == nil {
		common.RespondAppError(w, pkgerrors.NewNotFoundError("note"))
		return
	}

	if err := h.engine.Regenerate(r.Context(), token, current, req.Instructions); err != nil {
		h.logger.Warn("Regeneration failed",
			zap.String("noteID", noteID),
			zap.Error(err),
		)
		common.RespondAppError(w, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, h.engine.Get(noteID))
}

// DeleteNote handles DELETE /notes/{noteID}
func (h *NoteHandler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	noteID := chi.URLParam(r, "noteID")
	if noteID == "" {
		common.RespondAppError(w, pkgerrors.NewValidationError("note ID is required"))
		return
	}

	token := auth.GetTokenFromContext(r.Context())
	if err := h.engine.Delete(r.Context(), token, noteID); err != nil {
		h.logger.Error("Failed to delete note",
			zap.String("noteID", noteID),
			zap.Error(err),
		)
		common.RespondAppError(w, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, map[string]string{"message": "Note deleted successfully"})
}

// DeleteTag handles DELETE /notes/{noteID}/tags/{tag}
func (h *NoteHandler) DeleteTag(w http.ResponseWriter, r *http.Request) {
	noteID := chi.URLParam(r, "noteID")
	tag := chi.URLParam(r, "tag")
	if noteID == "" || tag == "" {
		common.RespondAppError(w, pkgerrors.NewValidationError("note ID and tag are required"))
		return
	}

	token := auth.GetTokenFromContext(r.Context())
	if err := h.engine.DeleteTag(r.Context(), token, noteID, tag); err != nil {
		common.RespondAppError(w, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, h.engine.Get(noteID))
}

// BulkDelete handles POST /notes/bulk-delete
func (h *NoteHandler) BulkDelete(w http.ResponseWriter, r *http.Request) {
	var req BulkDeleteRequest
	if err := common.ParseJSONBody(r, &req, maxRequestBody); err != nil {
		common.RespondAppError(w, pkgerrors.NewValidationError("invalid request body: "+err.Error()))
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondAppError(w, pkgerrors.NewValidationError(err.Error()))
		return
	}

	token := auth.GetTokenFromContext(r.Context())
	if err := h.engine.DeleteMany(r.Context(), token, req.NoteIDs); err != nil {
		// deletions are best effort: some ids may be gone already
		h.logger.Warn("Bulk delete finished with failures",
			zap.Int("requested", len(req.NoteIDs)),
			zap.Error(err),
		)
		common.RespondAppError(w, pkgerrors.NewStoreError("bulk-delete", err))
		return
	}

	common.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Notes deleted successfully",
		"deleted": len(req.NoteIDs),
	})
}

// ListTags handles GET /tags
func (h *NoteHandler) ListTags(w http.ResponseWriter, r *http.Request) {
	token := auth.GetTokenFromContext(r.Context())
	if err := h.engine.Refresh(r.Context(), token); err != nil {
		common.RespondAppError(w, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, views.TagIndex(h.engine.Notes()))
}

func splitTags(raw string) []string {
	parts := strings.Split(raw, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
