package service

import (
	"context"

	"github.com/backlot-hq/backlot-backend/types"
	"github.com/stretchr/testify/mock"
)

// MockEntryStore implements store.EntryStore for service tests.
type MockEntryStore struct {
	mock.Mock
}

func (m *MockEntryStore) ListEntries(ctx context.Context, projectID string, filter types.EntryFilter) ([]*types.ExpenseEntry, error) {
	args := m.Called(ctx, projectID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*types.ExpenseEntry), args.Error(1)
}

func (m *MockEntryStore) GetEntry(ctx context.Context, id string) (*types.ExpenseEntry, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.ExpenseEntry), args.Error(1)
}

func (m *MockEntryStore) CreateEntry(ctx context.Context, entry *types.ExpenseEntry) (string, error) {
	args := m.Called(ctx, entry)
	return args.String(0), args.Error(1)
}

func (m *MockEntryStore) UpdateEntry(ctx context.Context, id string, entry *types.ExpenseEntry) (*types.ExpenseEntry, error) {
	args := m.Called(ctx, id, entry)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.ExpenseEntry), args.Error(1)
}

func (m *MockEntryStore) DeleteEntry(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockEntryStore) SubmitEntry(ctx context.Context, id string) (*types.ExpenseEntry, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.ExpenseEntry), args.Error(1)
}

func (m *MockEntryStore) BulkSubmitEntries(ctx context.Context, projectID, ownerUserID string, ids []string) (int, error) {
	args := m.Called(ctx, projectID, ownerUserID, ids)
	return args.Int(0), args.Error(1)
}

func (m *MockEntryStore) CountPendingEntries(ctx context.Context, projectID string) (int, error) {
	args := m.Called(ctx, projectID)
	return args.Int(0), args.Error(1)
}

func (m *MockEntryStore) TransitionEntry(ctx context.Context, id string, from, to types.EntryStatus, rejectionReason string) (*types.ExpenseEntry, error) {
	args := m.Called(ctx, id, from, to, rejectionReason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.ExpenseEntry), args.Error(1)
}

// MockEventPublisher implements types.EventPublisher.
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, projectID string, event types.Event) error {
	args := m.Called(ctx, projectID, event)
	return args.Error(0)
}

// MockNotifier implements RejectionNotifier.
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) NotifyRejection(ctx context.Context, ownerUserID string, entry *types.ExpenseEntry) error {
	args := m.Called(ctx, ownerUserID, entry)
	return args.Error(0)
}
