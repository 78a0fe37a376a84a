package store

import "errors"

// Error Handling Guidelines:
// - Stores: return these sentinels (or wrap with fmt.Errorf("context: %w", err))
// - Services translate them into apperrors.* for HTTP surfaces

var (
	// ErrNotFound indicates that a requested resource was not found.
	ErrNotFound = errors.New("resource not found")

	// ErrLocked indicates an edit or delete against an entry that has left
	// the pre-approval phase.
	ErrLocked = errors.New("entry locked")

	// ErrStatusConflict indicates the entry was not in a state compatible
	// with the requested transition.
	ErrStatusConflict = errors.New("status conflict")
)
