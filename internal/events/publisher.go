package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/backlot-hq/backlot-backend/types"
	"github.com/google/uuid"
)

// PublishEntryEvent constructs a standard types.Event around an entry change
// and publishes it to the project's channel. Mutations treat publish
// failures as non-fatal; callers log and continue.
func PublishEntryEvent(ctx context.Context, publisher types.EventPublisher, eventType types.EventType, projectID, userID string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal event payload: %w", err)
	}

	event := types.Event{
		BaseEvent: types.BaseEvent{
			ID:        uuid.NewString(),
			Type:      eventType,
			ProjectID: projectID,
			UserID:    userID,
			Timestamp: time.Now(),
			Version:   1,
		},
		Metadata: types.EventMetadata{
			Source: "expense-service",
		},
		Payload: payload,
	}

	if err := publisher.Publish(ctx, projectID, event); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}
