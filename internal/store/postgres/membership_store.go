package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/backlot-hq/backlot-backend/internal/store"
	"github.com/backlot-hq/backlot-backend/types"
	"github.com/jackc/pgx/v5"
)

// MembershipStore implements store.MembershipStore using PostgreSQL.
type MembershipStore struct {
	db DB
}

func NewMembershipStore(db DB) *MembershipStore {
	return &MembershipStore{db: db}
}

// GetProjectMembership returns the caller's membership row for a project, or
// ErrNotFound when the user is not on the crew.
func (s *MembershipStore) GetProjectMembership(ctx context.Context, projectID, userID string) (*types.ProjectMembership, error) {
	query := `
		SELECT id, project_id, user_id, role, created_at, updated_at
		FROM project_memberships
		WHERE project_id = $1 AND user_id = $2 AND deleted_at IS NULL`

	m := &types.ProjectMembership{}
	err := s.db.QueryRow(ctx, query, projectID, userID).Scan(
		&m.ID,
		&m.ProjectID,
		&m.UserID,
		&m.Role,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("get project membership: %w", err)
	}
	return m, nil
}
