package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/backlot-hq/backlot-backend/internal/store"
	"github.com/jackc/pgx/v5"
)

// UserStore resolves user account details from the users table.
type UserStore struct {
	db DB
}

func NewUserStore(db DB) *UserStore {
	return &UserStore{db: db}
}

func (s *UserStore) GetUserEmail(ctx context.Context, userID string) (string, error) {
	var email string
	err := s.db.QueryRow(ctx,
		`SELECT email FROM users WHERE id = $1`,
		userID,
	).Scan(&email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", store.ErrNotFound
		}
		return "", fmt.Errorf("get user email: %w", err)
	}
	return email, nil
}
