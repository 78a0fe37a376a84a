package handlers

import (
	"errors"
	"io"
	"net/http"
	"strings"

	apperrors "github.com/backlot-hq/backlot-backend/errors"
	"github.com/backlot-hq/backlot-backend/internal/cache"
	istore "github.com/backlot-hq/backlot-backend/internal/store"
	"github.com/backlot-hq/backlot-backend/middleware"
	"github.com/backlot-hq/backlot-backend/types"
	"github.com/gin-gonic/gin"
)

// maxDraftBytes bounds an autosaved form snapshot.
const maxDraftBytes = 64 << 10

// DraftHandler persists in-progress create-form field values so a closed
// form can be reopened where the user left off. Drafts are ephemeral and
// per-user; successful entry creation clears them.
type DraftHandler struct {
	drafts istore.DraftStore
}

func NewDraftHandler(drafts istore.DraftStore) *DraftHandler {
	return &DraftHandler{drafts: drafts}
}

func draftKeyFor(userID string, kind types.EntryKind) string {
	return cache.DraftKey(userID, "backlot-expenses", strings.ToLower(string(kind)))
}

// SaveDraftHandler stores the posted form snapshot verbatim.
func (h *DraftHandler) SaveDraftHandler(c *gin.Context) {
	userID := c.GetString(string(middleware.UserIDKey))
	kind := types.EntryKind(strings.ToUpper(c.Param("kind")))
	if !kind.IsValid() {
		_ = c.Error(apperrors.ValidationFailed("invalid kind", c.Param("kind")))
		return
	}

	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxDraftBytes+1))
	if err != nil {
		_ = c.Error(apperrors.ValidationFailed("unreadable draft payload", err.Error()))
		return
	}
	if len(payload) == 0 || len(payload) > maxDraftBytes {
		_ = c.Error(apperrors.ValidationFailed("invalid draft payload",
			"payload must be non-empty and at most 64KiB"))
		return
	}

	if err := h.drafts.SaveDraft(c.Request.Context(), draftKeyFor(userID, kind), payload); err != nil {
		_ = c.Error(apperrors.InternalServerError("Failed to save draft"))
		return
	}
	c.Status(http.StatusNoContent)
}

// GetDraftHandler returns the stored snapshot, or 404 when the form should
// start blank.
func (h *DraftHandler) GetDraftHandler(c *gin.Context) {
	userID := c.GetString(string(middleware.UserIDKey))
	kind := types.EntryKind(strings.ToUpper(c.Param("kind")))
	if !kind.IsValid() {
		_ = c.Error(apperrors.ValidationFailed("invalid kind", c.Param("kind")))
		return
	}

	payload, err := h.drafts.GetDraft(c.Request.Context(), draftKeyFor(userID, kind))
	if err != nil {
		if errors.Is(err, istore.ErrNotFound) {
			_ = c.Error(apperrors.NotFound("Draft", draftKeyFor(userID, kind)))
			return
		}
		_ = c.Error(apperrors.InternalServerError("Failed to load draft"))
		return
	}

	c.Data(http.StatusOK, "application/json", payload)
}

// DeleteDraftHandler discards the stored snapshot.
func (h *DraftHandler) DeleteDraftHandler(c *gin.Context) {
	userID := c.GetString(string(middleware.UserIDKey))
	kind := types.EntryKind(strings.ToUpper(c.Param("kind")))
	if !kind.IsValid() {
		_ = c.Error(apperrors.ValidationFailed("invalid kind", c.Param("kind")))
		return
	}

	if err := h.drafts.DeleteDraft(c.Request.Context(), draftKeyFor(userID, kind)); err != nil {
		_ = c.Error(apperrors.InternalServerError("Failed to delete draft"))
		return
	}
	c.Status(http.StatusNoContent)
}
