package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/backlot-hq/backlot-backend/internal/store"
	"github.com/redis/go-redis/v9"
)

// draftTTL bounds how long an abandoned create-form draft survives.
const draftTTL = 7 * 24 * time.Hour

// DraftKey builds the composite key for a user's in-progress create form.
// The trailing "new" mirrors the fact that only unsaved entries have drafts.
func DraftKey(userID, feature, kind string) string {
	return fmt.Sprintf("draft:%s:%s:%s:new", userID, feature, kind)
}

// DraftStore keeps ephemeral create-form snapshots in Redis. Implements
// store.DraftStore.
type DraftStore struct {
	client redis.UniversalClient
}

func NewDraftStore(client redis.UniversalClient) *DraftStore {
	return &DraftStore{client: client}
}

// SaveDraft overwrites the draft for a key, refreshing its TTL.
func (s *DraftStore) SaveDraft(ctx context.Context, key string, payload []byte) error {
	if err := s.client.Set(ctx, key, payload, draftTTL).Err(); err != nil {
		return fmt.Errorf("save draft: %w", err)
	}
	return nil
}

// GetDraft returns the stored draft payload or store.ErrNotFound.
func (s *DraftStore) GetDraft(ctx context.Context, key string) ([]byte, error) {
	payload, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("get draft: %w", err)
	}
	return payload, nil
}

// DeleteDraft clears a draft. Deleting an absent draft is not an error;
// successful submission always calls this.
func (s *DraftStore) DeleteDraft(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("delete draft: %w", err)
	}
	return nil
}
