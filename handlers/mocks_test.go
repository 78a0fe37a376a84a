package handlers

import (
	"context"

	"github.com/backlot-hq/backlot-backend/pkg/geocode"
	"github.com/backlot-hq/backlot-backend/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// MockEntryStore backs a real entry service in handler tests.
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

// MockMembershipStore implements store.MembershipStore.
type MockMembershipStore struct {
	mock.Mock
}

func (m *MockMembershipStore) GetProjectMembership(ctx context.Context, projectID, userID string) (*types.ProjectMembership, error) {
	args := m.Called(ctx, projectID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.ProjectMembership), args.Error(1)
}

// MockDraftStore implements store.DraftStore.
type MockDraftStore struct {
	mock.Mock
}

func (m *MockDraftStore) SaveDraft(ctx context.Context, key string, payload []byte) error {
	args := m.Called(ctx, key, payload)
	return args.Error(0)
}

func (m *MockDraftStore) GetDraft(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockDraftStore) DeleteDraft(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

// MockGeocoder implements geocode.ClientInterface.
type MockGeocoder struct {
	mock.Mock
}

func (m *MockGeocoder) CalculateRouteDistance(ctx context.Context, startAddress, endAddress string) (decimal.Decimal, error) {
	args := m.Called(ctx, startAddress, endAddress)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockGeocoder) SearchPlaces(ctx context.Context, query string) ([]geocode.PlaceSuggestion, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]geocode.PlaceSuggestion), args.Error(1)
}
