// Package service implements the expense-entry lifecycle: which transitions
// are legal for whom, how totals are derived, and which cache scopes each
// mutation invalidates.
package service

import (
	"context"
	"errors"
	"strings"

	apperrors "github.com/backlot-hq/backlot-backend/errors"
	"github.com/backlot-hq/backlot-backend/internal/cache"
	"github.com/backlot-hq/backlot-backend/internal/events"
	istore "github.com/backlot-hq/backlot-backend/internal/store"
	"github.com/backlot-hq/backlot-backend/logger"
	"github.com/backlot-hq/backlot-backend/pkg/valueobjects"
	"github.com/backlot-hq/backlot-backend/types"
	"github.com/shopspring/decimal"
)

// RejectionNotifier tells an entry's owner their entry was rejected.
// Best-effort; failures are logged, never surfaced to the approver.
type RejectionNotifier interface {
	NotifyRejection(ctx context.Context, ownerUserID string, entry *types.ExpenseEntry) error
}

// EntryService is the lifecycle controller for expense entries. Every
// user-initiated action is validated against the transition table and the
// caller's role before exactly one store request is issued; every successful
// mutation invalidates exactly the scopes it can affect.
type EntryService struct {
	store          istore.EntryStore
	queryCache     *cache.QueryCache
	eventPublisher types.EventPublisher
	notifier       RejectionNotifier
}

// NewEntryService creates a new entry lifecycle service. notifier may be nil
// when rejection emails are not configured.
func NewEntryService(
	store istore.EntryStore,
	queryCache *cache.QueryCache,
	eventPublisher types.EventPublisher,
	notifier RejectionNotifier,
) *EntryService {
	return &EntryService{
		store:          store,
		queryCache:     queryCache,
		eventPublisher: eventPublisher,
		notifier:       notifier,
	}
}

// ListEntries returns the project's entries for a kind plus the summary
// derived from that same collection. Unfiltered per-kind lists are served
// from the query cache; status-filtered reads always hit the store.
func (s *EntryService) ListEntries(ctx context.Context, projectID string, filter types.EntryFilter) ([]*types.ExpenseEntry, types.EntrySummary, error) {
	cacheable := filter.Kind != "" && filter.Status == ""

	if cacheable {
		scope := cache.EntryListScope(projectID, filter.Kind)
		if entries, ok := s.queryCache.GetEntryList(ctx, scope); ok {
			return entries, Summarize(entries), nil
		}
	}

	entries, err := s.store.ListEntries(ctx, projectID, filter)
	if err != nil {
		return nil, types.EntrySummary{}, apperrors.NewDatabaseError(err)
	}

	if cacheable {
		s.queryCache.SetEntryList(ctx, cache.EntryListScope(projectID, filter.Kind), entries)
	}

	return entries, Summarize(entries), nil
}

// PendingApprovalCount returns the project-wide number of entries awaiting
// adjudication, for the approver dashboard badge. Served from the pending
// scope, which every mutation in the project invalidates.
func (s *EntryService) PendingApprovalCount(ctx context.Context, projectID string) (int, error) {
	scope := cache.PendingCountScope(projectID)
	if count, ok := s.queryCache.GetPendingCount(ctx, scope); ok {
		return count, nil
	}

	count, err := s.store.CountPendingEntries(ctx, projectID)
	if err != nil {
		return 0, apperrors.NewDatabaseError(err)
	}

	s.queryCache.SetPendingCount(ctx, scope, count)
	return count, nil
}

// GetEntry fetches a single entry.
func (s *EntryService) GetEntry(ctx context.Context, entryID string) (*types.ExpenseEntry, error) {
	entry, err := s.store.GetEntry(ctx, entryID)
	if err != nil {
		return nil, translateStoreError(err, entryID, "")
	}
	return entry, nil
}

// CreateEntry validates the declared fields, derives the total and initial
// status server-side, and persists the entry.
func (s *EntryService) CreateEntry(ctx context.Context, params types.CreateEntryParams) (*types.ExpenseEntry, error) {
	if err := validateCreate(&params); err != nil {
		return nil, err
	}

	entry := entryFromParams(params)
	entry.Status = params.Kind.InitialStatus()
	entry.TotalAmount = ComputeTotal(entry)

	id, err := s.store.CreateEntry(ctx, entry)
	if err != nil {
		return nil, apperrors.NewDatabaseError(err)
	}
	entry.ID = id

	s.afterMutation(ctx, entry, types.EventTypeEntryCreated, entry.OwnerUserID)
	return entry, nil
}

// UpdateEntry applies a partial edit. Only the owner may edit, and only
// while the entry is in the pre-approval phase; the store re-enforces the
// phase constraint. The total is recomputed from the merged fields.
func (s *EntryService) UpdateEntry(ctx context.Context, entryID, userID string, role types.ProjectRole, params types.UpdateEntryParams) (*types.ExpenseEntry, error) {
	entry, err := s.GetEntry(ctx, entryID)
	if err != nil {
		return nil, err
	}

	if !types.CanPerform(types.ActionEdit, entry.Kind, entry.Status, role, entry.OwnerUserID == userID) {
		return nil, editDenied(entry, userID)
	}

	applyUpdate(entry, params)
	entry.TotalAmount = ComputeTotal(entry)

	updated, err := s.store.UpdateEntry(ctx, entryID, entry)
	if err != nil {
		return nil, translateStoreError(err, entryID, entry.Status.String())
	}

	s.afterMutation(ctx, updated, types.EventTypeEntryUpdated, userID)
	return updated, nil
}

// DeleteEntry removes an entry, owner-only and pre-approval only. The
// confirmation step is a client gate; the server only checks legality.
func (s *EntryService) DeleteEntry(ctx context.Context, entryID, userID string, role types.ProjectRole) error {
	entry, err := s.GetEntry(ctx, entryID)
	if err != nil {
		return err
	}

	if !types.CanPerform(types.ActionDelete, entry.Kind, entry.Status, role, entry.OwnerUserID == userID) {
		return editDenied(entry, userID)
	}

	if err := s.store.DeleteEntry(ctx, entryID); err != nil {
		return translateStoreError(err, entryID, entry.Status.String())
	}

	s.afterMutation(ctx, entry, types.EventTypeEntryDeleted, userID)
	return nil
}

// SubmitEntry moves the caller's draft to pending.
func (s *EntryService) SubmitEntry(ctx context.Context, entryID, userID string, role types.ProjectRole) (*types.ExpenseEntry, error) {
	entry, err := s.GetEntry(ctx, entryID)
	if err != nil {
		return nil, err
	}

	if !types.CanPerform(types.ActionSubmit, entry.Kind, entry.Status, role, entry.OwnerUserID == userID) {
		return nil, apperrors.InvalidStatusTransition(entry.Status.String(), types.EntryStatusPending.String())
	}

	submitted, err := s.store.SubmitEntry(ctx, entryID)
	if err != nil {
		return nil, translateStoreError(err, entryID, entry.Status.String())
	}

	s.afterMutation(ctx, submitted, types.EventTypeEntryStatusChanged, userID)
	return submitted, nil
}

// BulkSubmitEntries submits every listed draft in one request, giving the
// store a single atomicity boundary. All-or-nothing: an ineligible id fails
// the whole batch. Ownership is enforced in the store the same way single
// submit enforces it through the action table: only the caller's own drafts
// are eligible.
func (s *EntryService) BulkSubmitEntries(ctx context.Context, projectID string, kind types.EntryKind, ids []string, userID string) (int, error) {
	if len(ids) == 0 {
		return 0, apperrors.ValidationFailed("no entries to submit", "ids list is empty")
	}

	count, err := s.store.BulkSubmitEntries(ctx, projectID, userID, ids)
	if err != nil {
		if errors.Is(err, istore.ErrStatusConflict) {
			return 0, apperrors.New(apperrors.InvalidStatusTransitionError,
				"Bulk submit rejected", err.Error())
		}
		return 0, apperrors.NewDatabaseError(err)
	}

	s.queryCache.Invalidate(ctx, cache.MutationScopes(projectID, kind)...)
	s.publish(ctx, types.EventTypeEntryStatusChanged, projectID, userID, map[string]interface{}{
		"action":         "bulk_submit",
		"submittedCount": count,
	})
	return count, nil
}

// ApplyAction adjudicates a pending-phase entry: approve, reject, complete
// or mark reimbursed. Approver role is re-checked here regardless of what
// the client advertised.
func (s *EntryService) ApplyAction(ctx context.Context, action types.ApprovalAction, userID string, role types.ProjectRole) (*types.ExpenseEntry, error) {
	entry, err := s.GetEntry(ctx, action.EntryID)
	if err != nil {
		return nil, err
	}

	if action.Action.RequiresApprover() && !role.CanApprove() {
		return nil, apperrors.EntryAccessDenied(userID, action.EntryID)
	}

	if !types.CanPerform(action.Action, entry.Kind, entry.Status, role, entry.OwnerUserID == userID) {
		target, _ := action.Action.TargetStatus(entry.Kind)
		return nil, apperrors.InvalidStatusTransition(entry.Status.String(), target.String())
	}

	target, ok := action.Action.TargetStatus(entry.Kind)
	if !ok {
		return nil, apperrors.ValidationFailed("invalid action",
			"action "+string(action.Action)+" does not change entry status")
	}
	if !entry.Status.IsValidTransition(entry.Kind, target) {
		return nil, apperrors.InvalidStatusTransition(entry.Status.String(), target.String())
	}

	reason := strings.TrimSpace(action.Reason)
	updated, err := s.store.TransitionEntry(ctx, action.EntryID, entry.Status, target, reason)
	if err != nil {
		return nil, translateStoreError(err, action.EntryID, entry.Status.String())
	}

	s.afterMutation(ctx, updated, types.EventTypeEntryStatusChanged, userID)

	if action.Action == types.ActionReject && s.notifier != nil {
		if err := s.notifier.NotifyRejection(ctx, updated.OwnerUserID, updated); err != nil {
			logger.GetLogger().Warnw("Failed to send rejection notification",
				"entry_id", updated.ID, "error", err)
		}
	}

	return updated, nil
}

// afterMutation runs the post-mutation consistency steps: invalidate the
// declared scope set and publish the change event. Only reached on success;
// a failed mutation leaves cache and subscribers untouched.
func (s *EntryService) afterMutation(ctx context.Context, entry *types.ExpenseEntry, eventType types.EventType, userID string) {
	s.queryCache.Invalidate(ctx, cache.MutationScopes(entry.ProjectID, entry.Kind)...)
	s.publish(ctx, eventType, entry.ProjectID, userID, map[string]interface{}{
		"entryId": entry.ID,
		"kind":    entry.Kind,
		"status":  entry.Status,
	})
}

func (s *EntryService) publish(ctx context.Context, eventType types.EventType, projectID, userID string, data map[string]interface{}) {
	if s.eventPublisher == nil {
		return
	}
	if err := events.PublishEntryEvent(ctx, s.eventPublisher, eventType, projectID, userID, data); err != nil {
		// Event delivery is non-critical; subscribers converge on refetch.
		logger.GetLogger().Warnw("Failed to publish entry event",
			"type", eventType, "project_id", projectID, "error", err)
	}
}

func editDenied(entry *types.ExpenseEntry, userID string) error {
	if !entry.Status.IsEditable() {
		return apperrors.EntryLocked(entry.ID, entry.Status.String())
	}
	return apperrors.EntryAccessDenied(userID, entry.ID)
}

func translateStoreError(err error, entryID, currentStatus string) error {
	switch {
	case errors.Is(err, istore.ErrNotFound):
		return apperrors.EntryNotFound(entryID)
	case errors.Is(err, istore.ErrLocked):
		return apperrors.EntryLocked(entryID, currentStatus)
	case errors.Is(err, istore.ErrStatusConflict):
		return apperrors.New(apperrors.InvalidStatusTransitionError,
			"Entry state changed", err.Error())
	default:
		return apperrors.NewDatabaseError(err)
	}
}

func entryFromParams(p types.CreateEntryParams) *types.ExpenseEntry {
	return &types.ExpenseEntry{
		ProjectID:    p.ProjectID,
		OwnerUserID:  p.OwnerUserID,
		Kind:         p.Kind,
		Description:  strings.TrimSpace(p.Description),
		Currency:     p.Currency,
		TravelDate:   p.TravelDate,
		StartAddress: strings.TrimSpace(p.StartAddress),
		EndAddress:   strings.TrimSpace(p.EndAddress),
		Miles:        p.Miles,
		RatePerMile:  p.RatePerMile,
		IsRoundTrip:  p.IsRoundTrip,
		KitName:      strings.TrimSpace(p.KitName),
		RentalType:   p.RentalType,
		FlatAmount:   p.FlatAmount,
		DailyRate:    p.DailyRate,
		WeeklyRate:   p.WeeklyRate,
		RentalStart:  p.RentalStart,
		RentalEnd:    p.RentalEnd,
	}
}

func applyUpdate(e *types.ExpenseEntry, p types.UpdateEntryParams) {
	if p.Description != nil {
		e.Description = strings.TrimSpace(*p.Description)
	}
	if p.TravelDate != nil {
		e.TravelDate = p.TravelDate
	}
	if p.StartAddress != nil {
		e.StartAddress = strings.TrimSpace(*p.StartAddress)
	}
	if p.EndAddress != nil {
		e.EndAddress = strings.TrimSpace(*p.EndAddress)
	}
	if p.Miles != nil {
		e.Miles = *p.Miles
	}
	if p.RatePerMile != nil {
		e.RatePerMile = *p.RatePerMile
	}
	if p.IsRoundTrip != nil {
		e.IsRoundTrip = *p.IsRoundTrip
	}
	if p.KitName != nil {
		e.KitName = strings.TrimSpace(*p.KitName)
	}
	if p.RentalType != nil {
		e.RentalType = *p.RentalType
	}
	if p.FlatAmount != nil {
		e.FlatAmount = *p.FlatAmount
	}
	if p.DailyRate != nil {
		e.DailyRate = *p.DailyRate
	}
	if p.WeeklyRate != nil {
		e.WeeklyRate = *p.WeeklyRate
	}
	if p.RentalStart != nil {
		e.RentalStart = p.RentalStart
	}
	if p.RentalEnd != nil {
		e.RentalEnd = p.RentalEnd
	}
}

func validateCreate(p *types.CreateEntryParams) error {
	if !p.Kind.IsValid() {
		return apperrors.ValidationFailed("invalid entry kind", string(p.Kind))
	}
	if p.ProjectID == "" {
		return apperrors.ValidationFailed("missing project", "project id is required")
	}

	currency, err := valueobjects.ParseCurrency(p.Currency)
	if err != nil {
		return err
	}
	p.Currency = string(currency)

	switch p.Kind {
	case types.EntryKindMileage:
		if p.Miles.LessThanOrEqual(decimal.Zero) {
			return apperrors.ValidationFailed("invalid miles", "miles must be greater than zero")
		}
		if p.RatePerMile.LessThanOrEqual(decimal.Zero) {
			return apperrors.ValidationFailed("invalid rate", "rate per mile must be greater than zero")
		}
		if p.TravelDate == nil {
			return apperrors.ValidationFailed("missing travel date", "travel date is required")
		}
	case types.EntryKindKitRental:
		if strings.TrimSpace(p.KitName) == "" {
			return apperrors.ValidationFailed("missing kit name", "kit name is required")
		}
		if !p.RentalType.IsValid() {
			return apperrors.ValidationFailed("invalid rental type", string(p.RentalType))
		}
		if p.RentalType == types.RentalRateFlat {
			if p.FlatAmount.LessThanOrEqual(decimal.Zero) {
				return apperrors.ValidationFailed("invalid amount", "flat amount must be greater than zero")
			}
		} else {
			if p.DailyRate.LessThanOrEqual(decimal.Zero) {
				return apperrors.ValidationFailed("invalid rate", "daily rate must be greater than zero")
			}
			if p.RentalStart == nil || p.RentalEnd == nil {
				return apperrors.ValidationFailed("missing rental period", "rental start and end dates are required")
			}
			if p.RentalEnd.Before(*p.RentalStart) {
				return apperrors.ValidationFailed("invalid rental period", "rental end must not precede rental start")
			}
		}
	}
	return nil
}
