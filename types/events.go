package types

import (
	"context"
	"encoding/json"
	"time"

	"github.com/backlot-hq/backlot-backend/errors"
)

type EventType string

const (
	CategoryEntry = "ENTRY"
)

const (
	EventTypeEntryCreated       EventType = CategoryEntry + "_CREATED"
	EventTypeEntryUpdated       EventType = CategoryEntry + "_UPDATED"
	EventTypeEntryDeleted       EventType = CategoryEntry + "_DELETED"
	EventTypeEntryStatusChanged EventType = CategoryEntry + "_STATUS_CHANGED"
)

// BaseEvent carries the fields every published event shares.
type BaseEvent struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	ProjectID string    `json:"projectId"`
	UserID    string    `json:"userId,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Version   int       `json:"version"`
}

// EventMetadata for tracking and debugging.
type EventMetadata struct {
	CorrelationID string            `json:"correlationId,omitempty"`
	Source        string            `json:"source"`
	Tags          map[string]string `json:"tags,omitempty"`
}

type Event struct {
	BaseEvent
	Metadata EventMetadata   `json:"metadata"`
	Payload  json.RawMessage `json:"payload"`
}

func (e Event) Validate() error {
	if e.ID == "" {
		return errors.ValidationFailed("invalid event", "event ID is required")
	}
	if e.Type == "" {
		return errors.ValidationFailed("invalid event", "event type is required")
	}
	if e.ProjectID == "" {
		return errors.ValidationFailed("invalid event", "project ID is required")
	}
	if e.Timestamp.IsZero() {
		return errors.ValidationFailed("invalid event", "timestamp is required")
	}
	return nil
}

// EventPublisher delivers events to every subscriber of a project channel.
type EventPublisher interface {
	Publish(ctx context.Context, projectID string, event Event) error
}
