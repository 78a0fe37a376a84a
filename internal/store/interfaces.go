package store

import (
	"context"

	"github.com/backlot-hq/backlot-backend/types"
)

// EntryStore is the service of record for expense entries. It owns persisted
// rows and is the final arbiter of every status transition: each transition
// method enforces its status precondition in the database so that concurrent
// actors cannot double-apply an action.
type EntryStore interface {
	ListEntries(ctx context.Context, projectID string, filter types.EntryFilter) ([]*types.ExpenseEntry, error)
	GetEntry(ctx context.Context, id string) (*types.ExpenseEntry, error)
	CreateEntry(ctx context.Context, entry *types.ExpenseEntry) (string, error)
	UpdateEntry(ctx context.Context, id string, entry *types.ExpenseEntry) (*types.ExpenseEntry, error)
	DeleteEntry(ctx context.Context, id string) error
	CountPendingEntries(ctx context.Context, projectID string) (int, error)

	// Transition operations. Each fails with ErrStatusConflict when the entry
	// is not in the expected source status. Bulk submit only matches drafts
	// owned by ownerUserID; anyone else's ids fail the batch.
	SubmitEntry(ctx context.Context, id string) (*types.ExpenseEntry, error)
	BulkSubmitEntries(ctx context.Context, projectID, ownerUserID string, ids []string) (int, error)
	TransitionEntry(ctx context.Context, id string, from, to types.EntryStatus, rejectionReason string) (*types.ExpenseEntry, error)
}

// MembershipStore resolves a user's role within a project.
type MembershipStore interface {
	GetProjectMembership(ctx context.Context, projectID, userID string) (*types.ProjectMembership, error)
}

// UserStore resolves the account details notifications need.
type UserStore interface {
	GetUserEmail(ctx context.Context, userID string) (string, error)
}

// DraftStore holds ephemeral create-form drafts: unsent snapshots of
// in-progress field values, keyed by user, feature and entry kind. Distinct
// from entries in DRAFT status.
type DraftStore interface {
	SaveDraft(ctx context.Context, key string, payload []byte) error
	GetDraft(ctx context.Context, key string) ([]byte, error)
	DeleteDraft(ctx context.Context, key string) error
}
