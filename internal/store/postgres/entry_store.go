package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/backlot-hq/backlot-backend/internal/store"
	"github.com/backlot-hq/backlot-backend/types"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the subset of pgxpool.Pool the stores use. Satisfied by
// *pgxpool.Pool in production and pgxmock in tests.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

const entryColumns = `id, project_id, owner_user_id, kind, status, description,
		rejection_reason, currency, total_amount,
		travel_date, start_address, end_address, miles, rate_per_mile, is_round_trip,
		kit_name, rental_type, flat_amount, daily_rate, weekly_rate, rental_start, rental_end,
		created_at, updated_at`

// EntryStore implements store.EntryStore using PostgreSQL. Every transition
// carries its status precondition in the UPDATE's WHERE clause, so a row
// that raced past the expected status is never transitioned twice.
type EntryStore struct {
	db DB
}

// NewEntryStore creates a new EntryStore instance
func NewEntryStore(db DB) *EntryStore {
	return &EntryStore{db: db}
}

func scanEntry(row pgx.Row) (*types.ExpenseEntry, error) {
	e := &types.ExpenseEntry{}
	var rejectionReason, startAddress, endAddress, kitName, rentalType *string
	err := row.Scan(
		&e.ID,
		&e.ProjectID,
		&e.OwnerUserID,
		&e.Kind,
		&e.Status,
		&e.Description,
		&rejectionReason,
		&e.Currency,
		&e.TotalAmount,
		&e.TravelDate,
		&startAddress,
		&endAddress,
		&e.Miles,
		&e.RatePerMile,
		&e.IsRoundTrip,
		&kitName,
		&rentalType,
		&e.FlatAmount,
		&e.DailyRate,
		&e.WeeklyRate,
		&e.RentalStart,
		&e.RentalEnd,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if rejectionReason != nil {
		e.RejectionReason = *rejectionReason
	}
	if startAddress != nil {
		e.StartAddress = *startAddress
	}
	if endAddress != nil {
		e.EndAddress = *endAddress
	}
	if kitName != nil {
		e.KitName = *kitName
	}
	if rentalType != nil {
		e.RentalType = types.RentalRateType(*rentalType)
	}
	return e, nil
}

// ListEntries returns every non-deleted entry in the project scope, newest
// first. Zero-valued filter fields mean "all".
func (s *EntryStore) ListEntries(ctx context.Context, projectID string, filter types.EntryFilter) ([]*types.ExpenseEntry, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM expense_entries
		WHERE project_id = $1 AND deleted_at IS NULL
		  AND ($2 = '' OR kind = $2)
		  AND ($3 = '' OR status = $3)
		ORDER BY created_at DESC`, entryColumns)

	rows, err := s.db.Query(ctx, query, projectID, string(filter.Kind), string(filter.Status))
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	var entries []*types.ExpenseEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// GetEntry retrieves an entry by its ID
func (s *EntryStore) GetEntry(ctx context.Context, id string) (*types.ExpenseEntry, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM expense_entries
		WHERE id = $1 AND deleted_at IS NULL`, entryColumns)

	entry, err := scanEntry(s.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return entry, nil
}

// CreateEntry inserts a new entry and returns its assigned ID. Status and
// total are taken from the entry as prepared by the service layer.
func (s *EntryStore) CreateEntry(ctx context.Context, entry *types.ExpenseEntry) (string, error) {
	query := `
		INSERT INTO expense_entries (
			project_id, owner_user_id, kind, status, description, currency, total_amount,
			travel_date, start_address, end_address, miles, rate_per_mile, is_round_trip,
			kit_name, rental_type, flat_amount, daily_rate, weekly_rate, rental_start, rental_end
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
		RETURNING id`

	var id string
	err := s.db.QueryRow(ctx, query,
		entry.ProjectID,
		entry.OwnerUserID,
		entry.Kind,
		entry.Status,
		entry.Description,
		entry.Currency,
		entry.TotalAmount,
		entry.TravelDate,
		nullable(entry.StartAddress),
		nullable(entry.EndAddress),
		entry.Miles,
		entry.RatePerMile,
		entry.IsRoundTrip,
		nullable(entry.KitName),
		nullable(string(entry.RentalType)),
		entry.FlatAmount,
		entry.DailyRate,
		entry.WeeklyRate,
		entry.RentalStart,
		entry.RentalEnd,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("create entry: %w", err)
	}
	return id, nil
}

// UpdateEntry replaces the mutable fields of an entry that is still in the
// pre-approval phase. Edits to locked entries fail with ErrLocked rather
// than silently succeeding.
func (s *EntryStore) UpdateEntry(ctx context.Context, id string, entry *types.ExpenseEntry) (*types.ExpenseEntry, error) {
	query := fmt.Sprintf(`
		UPDATE expense_entries
		SET description = $2, currency = $3, total_amount = $4,
		    travel_date = $5, start_address = $6, end_address = $7,
		    miles = $8, rate_per_mile = $9, is_round_trip = $10,
		    kit_name = $11, rental_type = $12, flat_amount = $13,
		    daily_rate = $14, weekly_rate = $15, rental_start = $16, rental_end = $17,
		    updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL AND status IN ('DRAFT', 'PENDING')
		RETURNING %s`, entryColumns)

	updated, err := scanEntry(s.db.QueryRow(ctx, query,
		id,
		entry.Description,
		entry.Currency,
		entry.TotalAmount,
		entry.TravelDate,
		nullable(entry.StartAddress),
		nullable(entry.EndAddress),
		entry.Miles,
		entry.RatePerMile,
		entry.IsRoundTrip,
		nullable(entry.KitName),
		nullable(string(entry.RentalType)),
		entry.FlatAmount,
		entry.DailyRate,
		entry.WeeklyRate,
		entry.RentalStart,
		entry.RentalEnd,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, s.classifyMiss(ctx, id)
		}
		return nil, fmt.Errorf("update entry: %w", err)
	}
	return updated, nil
}

// DeleteEntry soft-deletes an entry, pre-approval only.
func (s *EntryStore) DeleteEntry(ctx context.Context, id string) error {
	query := `
		UPDATE expense_entries
		SET deleted_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL AND status IN ('DRAFT', 'PENDING')`

	tag, err := s.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return s.classifyMiss(ctx, id)
	}
	return nil
}

// CountPendingEntries returns the project-wide number of entries awaiting
// adjudication, across kinds.
func (s *EntryStore) CountPendingEntries(ctx context.Context, projectID string) (int, error) {
	var count int
	err := s.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM expense_entries
		 WHERE project_id = $1 AND deleted_at IS NULL AND status = 'PENDING'`,
		projectID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count pending entries: %w", err)
	}
	return count, nil
}

// SubmitEntry moves a single draft to pending.
func (s *EntryStore) SubmitEntry(ctx context.Context, id string) (*types.ExpenseEntry, error) {
	return s.TransitionEntry(ctx, id, types.EntryStatusDraft, types.EntryStatusPending, "")
}

// BulkSubmitEntries submits a set of the caller's own drafts in one
// transaction. The batch is all-or-nothing: if any id is not an eligible
// draft owned by ownerUserID in the project, the whole batch rolls back
// with ErrStatusConflict.
func (s *EntryStore) BulkSubmitEntries(ctx context.Context, projectID, ownerUserID string, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin bulk submit: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	query := `
		UPDATE expense_entries
		SET status = 'PENDING', updated_at = NOW()
		WHERE project_id = $1 AND owner_user_id = $2 AND id = ANY($3)
		  AND deleted_at IS NULL AND status = 'DRAFT'`

	tag, err := tx.Exec(ctx, query, projectID, ownerUserID, ids)
	if err != nil {
		return 0, fmt.Errorf("bulk submit: %w", err)
	}

	submitted := int(tag.RowsAffected())
	if submitted != len(ids) {
		return 0, fmt.Errorf("bulk submit: %d of %d entries eligible: %w",
			submitted, len(ids), store.ErrStatusConflict)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit bulk submit: %w", err)
	}
	return submitted, nil
}

// TransitionEntry applies a single status transition with its precondition
// in the WHERE clause. The rejection reason is only persisted when moving to
// REJECTED; it is cleared otherwise.
func (s *EntryStore) TransitionEntry(ctx context.Context, id string, from, to types.EntryStatus, rejectionReason string) (*types.ExpenseEntry, error) {
	query := fmt.Sprintf(`
		UPDATE expense_entries
		SET status = $3, rejection_reason = $4, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL AND status = $2
		RETURNING %s`, entryColumns)

	var reason *string
	if to == types.EntryStatusRejected && rejectionReason != "" {
		reason = &rejectionReason
	}

	entry, err := scanEntry(s.db.QueryRow(ctx, query, id, from, to, reason))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, s.classifyTransitionMiss(ctx, id)
		}
		return nil, fmt.Errorf("transition entry: %w", err)
	}
	return entry, nil
}

// classifyMiss distinguishes a missing entry from a locked one after a
// guarded write matched no rows.
func (s *EntryStore) classifyMiss(ctx context.Context, id string) error {
	var status string
	err := s.db.QueryRow(ctx,
		`SELECT status FROM expense_entries WHERE id = $1 AND deleted_at IS NULL`, id,
	).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return store.ErrNotFound
		}
		return err
	}
	return fmt.Errorf("entry is %s: %w", status, store.ErrLocked)
}

func (s *EntryStore) classifyTransitionMiss(ctx context.Context, id string) error {
	var status string
	err := s.db.QueryRow(ctx,
		`SELECT status FROM expense_entries WHERE id = $1 AND deleted_at IS NULL`, id,
	).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return store.ErrNotFound
		}
		return err
	}
	return fmt.Errorf("entry is %s: %w", status, store.ErrStatusConflict)
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
