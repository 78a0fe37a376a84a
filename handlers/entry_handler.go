package handlers

import (
	"net/http"

	"github.com/backlot-hq/backlot-backend/errors"
	istore "github.com/backlot-hq/backlot-backend/internal/store"
	"github.com/backlot-hq/backlot-backend/logger"
	"github.com/backlot-hq/backlot-backend/middleware"
	entryservice "github.com/backlot-hq/backlot-backend/models/entry/service"
	"github.com/backlot-hq/backlot-backend/types"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// EntryView decorates an entry with the actions the calling user may take
// on it right now. The same transition table that validates requests decides
// what is advertised here.
type EntryView struct {
	*types.ExpenseEntry
	AllowedActions []types.Action `json:"allowedActions"`
}

// EntryListResponse is the payload for project entry lists: the collection
// plus the summary derived from that same collection.
type EntryListResponse struct {
	Entries []EntryView        `json:"entries"`
	Summary types.EntrySummary `json:"summary"`
}

type BulkSubmitRequest struct {
	Kind types.EntryKind `json:"kind" binding:"required"`
	IDs  []string        `json:"ids" binding:"required"`
}

type BulkSubmitResponse struct {
	SubmittedCount int `json:"submittedCount"`
}

type RejectRequest struct {
	Reason string `json:"reason"`
}

type EntryHandler struct {
	entryService *entryservice.EntryService
	memberships  istore.MembershipStore
	drafts       istore.DraftStore
	logger       *zap.SugaredLogger
}

func NewEntryHandler(
	entryService *entryservice.EntryService,
	memberships istore.MembershipStore,
	drafts istore.DraftStore,
) *EntryHandler {
	return &EntryHandler{
		entryService: entryService,
		memberships:  memberships,
		drafts:       drafts,
		logger:       logger.GetLogger(),
	}
}

// ListEntriesHandler returns all entries in the project scope, optionally
// narrowed by kind and status, plus the derived summary and per-entry
// capabilities for the caller.
func (h *EntryHandler) ListEntriesHandler(c *gin.Context) {
	projectID := c.Param("id")
	userID := c.GetString(string(middleware.UserIDKey))
	role := middleware.RoleFromContext(c)

	filter := types.EntryFilter{
		Kind:   types.EntryKind(c.Query("kind")),
		Status: types.EntryStatus(c.Query("status")),
	}
	if filter.Kind != "" && !filter.Kind.IsValid() {
		_ = c.Error(errors.ValidationFailed("invalid kind filter", string(filter.Kind)))
		return
	}
	if filter.Status != "" && !filter.Status.IsValid() {
		_ = c.Error(errors.ValidationFailed("invalid status filter", string(filter.Status)))
		return
	}

	entries, summary, err := h.entryService.ListEntries(c.Request.Context(), projectID, filter)
	if err != nil {
		_ = c.Error(err)
		return
	}

	views := make([]EntryView, 0, len(entries))
	for _, entry := range entries {
		views = append(views, EntryView{
			ExpenseEntry:   entry,
			AllowedActions: types.AllowedActions(entry.Kind, entry.Status, role, entry.OwnerUserID == userID),
		})
	}

	c.JSON(http.StatusOK, EntryListResponse{Entries: views, Summary: summary})
}

// PendingCountHandler returns the project-wide pending-approval counter
// shown on approver dashboards.
func (h *EntryHandler) PendingCountHandler(c *gin.Context) {
	count, err := h.entryService.PendingApprovalCount(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"pendingCount": count})
}

// CreateEntryHandler declares a new entry. The owning user, project scope,
// initial status and total are all assigned server-side; a saved create-form
// draft for this kind is cleared on success.
func (h *EntryHandler) CreateEntryHandler(c *gin.Context) {
	var params types.CreateEntryParams
	if err := c.ShouldBindJSON(&params); err != nil {
		_ = c.Error(errors.ValidationFailed("Invalid request body", err.Error()))
		return
	}

	userID := c.GetString(string(middleware.UserIDKey))
	params.ProjectID = c.Param("id")
	params.OwnerUserID = userID

	entry, err := h.entryService.CreateEntry(c.Request.Context(), params)
	if err != nil {
		_ = c.Error(err)
		return
	}

	// Successful submission clears the autosaved form draft so a reopened
	// form starts blank.
	draftKey := draftKeyFor(userID, entry.Kind)
	if err := h.drafts.DeleteDraft(c.Request.Context(), draftKey); err != nil {
		h.logger.Warnw("Failed to clear form draft after create",
			"key", draftKey, "error", err)
	}

	role := middleware.RoleFromContext(c)
	c.JSON(http.StatusCreated, EntryView{
		ExpenseEntry:   entry,
		AllowedActions: types.AllowedActions(entry.Kind, entry.Status, role, true),
	})
}

// UpdateEntryHandler applies a partial edit to an entry still in the
// pre-approval phase.
func (h *EntryHandler) UpdateEntryHandler(c *gin.Context) {
	entryID := c.Param("entryID")
	var params types.UpdateEntryParams
	if err := c.ShouldBindJSON(&params); err != nil {
		_ = c.Error(errors.ValidationFailed("Invalid request body", err.Error()))
		return
	}

	userID, role, err := h.resolveCaller(c, entryID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	entry, err := h.entryService.UpdateEntry(c.Request.Context(), entryID, userID, role, params)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, EntryView{
		ExpenseEntry:   entry,
		AllowedActions: types.AllowedActions(entry.Kind, entry.Status, role, entry.OwnerUserID == userID),
	})
}

// DeleteEntryHandler removes an entry, owner-only and pre-approval only.
func (h *EntryHandler) DeleteEntryHandler(c *gin.Context) {
	entryID := c.Param("entryID")

	userID, role, err := h.resolveCaller(c, entryID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	if err := h.entryService.DeleteEntry(c.Request.Context(), entryID, userID, role); err != nil {
		_ = c.Error(err)
		return
	}

	c.Status(http.StatusNoContent)
}

// SubmitEntryHandler moves a draft to pending.
func (h *EntryHandler) SubmitEntryHandler(c *gin.Context) {
	h.applyLifecycleAction(c, types.ActionSubmit)
}

// ApproveEntryHandler approves a pending entry (mileage) or activates a
// pending rental.
func (h *EntryHandler) ApproveEntryHandler(c *gin.Context) {
	h.applyLifecycleAction(c, types.ActionApprove)
}

// RejectEntryHandler rejects a pending entry with an optional reason.
func (h *EntryHandler) RejectEntryHandler(c *gin.Context) {
	h.applyLifecycleAction(c, types.ActionReject)
}

// CompleteEntryHandler marks an active kit rental as returned.
func (h *EntryHandler) CompleteEntryHandler(c *gin.Context) {
	h.applyLifecycleAction(c, types.ActionComplete)
}

// MarkReimbursedHandler closes out an approved or completed entry.
func (h *EntryHandler) MarkReimbursedHandler(c *gin.Context) {
	h.applyLifecycleAction(c, types.ActionMarkReimbursed)
}

func (h *EntryHandler) applyLifecycleAction(c *gin.Context, action types.Action) {
	entryID := c.Param("entryID")

	var reason string
	if action == types.ActionReject {
		var req RejectRequest
		// An empty body is legal; the reason is advisory.
		if err := c.ShouldBindJSON(&req); err == nil {
			reason = req.Reason
		}
	}

	userID, role, err := h.resolveCaller(c, entryID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	var entry *types.ExpenseEntry
	if action == types.ActionSubmit {
		entry, err = h.entryService.SubmitEntry(c.Request.Context(), entryID, userID, role)
	} else {
		entry, err = h.entryService.ApplyAction(c.Request.Context(), types.ApprovalAction{
			EntryID: entryID,
			Action:  action,
			Reason:  reason,
		}, userID, role)
	}
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, EntryView{
		ExpenseEntry:   entry,
		AllowedActions: types.AllowedActions(entry.Kind, entry.Status, role, entry.OwnerUserID == userID),
	})
}

// BulkSubmitHandler submits every listed draft as one request, giving the
// store a single atomicity boundary.
func (h *EntryHandler) BulkSubmitHandler(c *gin.Context) {
	projectID := c.Param("id")
	userID := c.GetString(string(middleware.UserIDKey))

	var req BulkSubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(errors.ValidationFailed("Invalid request body", err.Error()))
		return
	}
	if !req.Kind.IsValid() {
		_ = c.Error(errors.ValidationFailed("invalid kind", string(req.Kind)))
		return
	}

	count, err := h.entryService.BulkSubmitEntries(c.Request.Context(), projectID, req.Kind, req.IDs, userID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, BulkSubmitResponse{SubmittedCount: count})
}

// resolveCaller loads the caller's role in the project owning the entry.
// Entry-level routes are not project-scoped, so the role cannot come from
// the route middleware.
func (h *EntryHandler) resolveCaller(c *gin.Context, entryID string) (string, types.ProjectRole, error) {
	userID := c.GetString(string(middleware.UserIDKey))
	if userID == "" {
		return "", types.ProjectRoleNone, errors.AuthenticationFailed("User not authenticated")
	}

	entry, err := h.entryService.GetEntry(c.Request.Context(), entryID)
	if err != nil {
		return "", types.ProjectRoleNone, err
	}

	membership, err := h.memberships.GetProjectMembership(c.Request.Context(), entry.ProjectID, userID)
	if err != nil {
		return "", types.ProjectRoleNone, errors.Forbidden("Not a project member",
			"user has no role in this project")
	}
	return userID, membership.Role, nil
}
