package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/backlot-hq/backlot-backend/internal/cache"
	istore "github.com/backlot-hq/backlot-backend/internal/store"
	"github.com/backlot-hq/backlot-backend/middleware"
	entryservice "github.com/backlot-hq/backlot-backend/models/entry/service"
	"github.com/backlot-hq/backlot-backend/types"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redismock/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	testProjectID = "p1"
	testOwnerID   = "owner-1"
)

type handlerFixture struct {
	store       *MockEntryStore
	memberships *MockMembershipStore
	drafts      *MockDraftStore
	router      *gin.Engine
}

// injectCaller stands in for the auth and rbac middleware.
func injectCaller(userID string, role types.ProjectRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(string(middleware.UserIDKey), userID)
		if role != types.ProjectRoleNone {
			c.Set(string(middleware.ProjectRoleKey), role)
		}
		c.Next()
	}
}

func newHandlerFixture(t *testing.T, userID string, role types.ProjectRole) *handlerFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := &MockEntryStore{}
	memberships := &MockMembershipStore{}
	drafts := &MockDraftStore{}

	redisClient, _ := redismock.NewClientMock()
	svc := entryservice.NewEntryService(store,
		cache.NewQueryCache(redisClient, time.Minute), nil, nil)
	h := NewEntryHandler(svc, memberships, drafts)

	r := gin.New()
	r.Use(middleware.ErrorHandler())
	r.Use(injectCaller(userID, role))
	r.GET("/projects/:id/entries", h.ListEntriesHandler)
	r.GET("/projects/:id/entries/pending-count", h.PendingCountHandler)
	r.POST("/projects/:id/entries", h.CreateEntryHandler)
	r.POST("/projects/:id/entries/bulk-submit", h.BulkSubmitHandler)
	r.POST("/entries/:entryID/submit", h.SubmitEntryHandler)
	r.POST("/entries/:entryID/approve", h.ApproveEntryHandler)
	r.POST("/entries/:entryID/reject", h.RejectEntryHandler)
	r.DELETE("/entries/:entryID", h.DeleteEntryHandler)

	return &handlerFixture{store: store, memberships: memberships, drafts: drafts, router: r}
}

func (f *handlerFixture) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func draftEntry(id string) *types.ExpenseEntry {
	travel := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	return &types.ExpenseEntry{
		ID:          id,
		ProjectID:   testProjectID,
		OwnerUserID: testOwnerID,
		Kind:        types.EntryKindMileage,
		Status:      types.EntryStatusDraft,
		Miles:       decimal.RequireFromString("6.7"),
		RatePerMile: decimal.RequireFromString("0.60"),
		IsRoundTrip: true,
		TravelDate:  &travel,
		TotalAmount: decimal.RequireFromString("8.04"),
		Currency:    "USD",
	}
}

func TestListEntriesAdvertisesCapabilities(t *testing.T) {
	f := newHandlerFixture(t, testOwnerID, types.ProjectRoleCrew)

	pending := draftEntry("e2")
	pending.Status = types.EntryStatusPending
	pending.OwnerUserID = "someone-else"

	f.store.On("ListEntries", mock.Anything, testProjectID,
		types.EntryFilter{Kind: types.EntryKindMileage}).
		Return([]*types.ExpenseEntry{draftEntry("e1"), pending}, nil)

	w := f.do(t, http.MethodGet, "/projects/p1/entries?kind=MILEAGE", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp EntryListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Entries, 2)

	// The caller owns the draft: edit, delete, submit.
	assert.Equal(t, []types.Action{types.ActionEdit, types.ActionDelete, types.ActionSubmit},
		resp.Entries[0].AllowedActions)
	// Someone else's pending entry offers a crew caller nothing.
	assert.Empty(t, resp.Entries[1].AllowedActions)

	assert.Equal(t, 1, resp.Summary.DraftReadyCount)
}

func TestListEntriesRejectsUnknownKind(t *testing.T) {
	f := newHandlerFixture(t, testOwnerID, types.ProjectRoleCrew)

	w := f.do(t, http.MethodGet, "/projects/p1/entries?kind=PER_DIEM", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateEntryAssignsOwnershipServerSide(t *testing.T) {
	f := newHandlerFixture(t, testOwnerID, types.ProjectRoleCrew)

	f.store.On("CreateEntry", mock.Anything, mock.MatchedBy(func(e *types.ExpenseEntry) bool {
		// Project and owner come from route and token, never the body.
		return e.ProjectID == testProjectID && e.OwnerUserID == testOwnerID
	})).Return("new-id", nil)
	f.drafts.On("DeleteDraft", mock.Anything,
		cache.DraftKey(testOwnerID, "backlot-expenses", "mileage")).Return(nil)

	body := map[string]interface{}{
		"kind":        "MILEAGE",
		"projectId":   "spoofed-project",
		"ownerUserId": "spoofed-user",
		"miles":       "6.7",
		"ratePerMile": "0.60",
		"isRoundTrip": true,
		"travelDate":  "2026-03-02T00:00:00Z",
	}
	w := f.do(t, http.MethodPost, "/projects/p1/entries", body)
	require.Equal(t, http.StatusCreated, w.Code)

	var view EntryView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.Equal(t, "new-id", view.ID)
	assert.Equal(t, types.EntryStatusDraft, view.Status)

	f.drafts.AssertExpectations(t)
}

func TestCreateEntryValidationFailureKeepsDraft(t *testing.T) {
	f := newHandlerFixture(t, testOwnerID, types.ProjectRoleCrew)

	body := map[string]interface{}{
		"kind":  "MILEAGE",
		"miles": "0",
	}
	w := f.do(t, http.MethodPost, "/projects/p1/entries", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	f.drafts.AssertNotCalled(t, "DeleteDraft", mock.Anything, mock.Anything)
}

func TestSubmitEntryHandler(t *testing.T) {
	f := newHandlerFixture(t, testOwnerID, types.ProjectRoleNone)

	entry := draftEntry("e1")
	submitted := *entry
	submitted.Status = types.EntryStatusPending

	f.store.On("GetEntry", mock.Anything, "e1").Return(entry, nil)
	f.memberships.On("GetProjectMembership", mock.Anything, testProjectID, testOwnerID).
		Return(&types.ProjectMembership{Role: types.ProjectRoleCrew}, nil)
	f.store.On("SubmitEntry", mock.Anything, "e1").Return(&submitted, nil)

	w := f.do(t, http.MethodPost, "/entries/e1/submit", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var view EntryView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.Equal(t, types.EntryStatusPending, view.Status)
	// A freshly pending entry is still editable by its owner.
	assert.Equal(t, []types.Action{types.ActionEdit, types.ActionDelete}, view.AllowedActions)
}

func TestApproveByCrewForbidden(t *testing.T) {
	f := newHandlerFixture(t, "crew-user", types.ProjectRoleNone)

	entry := draftEntry("e1")
	entry.Status = types.EntryStatusPending

	f.store.On("GetEntry", mock.Anything, "e1").Return(entry, nil)
	f.memberships.On("GetProjectMembership", mock.Anything, testProjectID, "crew-user").
		Return(&types.ProjectMembership{Role: types.ProjectRoleCrew}, nil)

	w := f.do(t, http.MethodPost, "/entries/e1/approve", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRejectWithReason(t *testing.T) {
	f := newHandlerFixture(t, "supervisor-1", types.ProjectRoleNone)

	entry := draftEntry("e1")
	entry.Status = types.EntryStatusPending
	rejected := *entry
	rejected.Status = types.EntryStatusRejected
	rejected.RejectionReason = "No receipt"

	f.store.On("GetEntry", mock.Anything, "e1").Return(entry, nil)
	f.memberships.On("GetProjectMembership", mock.Anything, testProjectID, "supervisor-1").
		Return(&types.ProjectMembership{Role: types.ProjectRoleSupervisor}, nil)
	f.store.On("TransitionEntry", mock.Anything, "e1",
		types.EntryStatusPending, types.EntryStatusRejected, "No receipt").
		Return(&rejected, nil)

	w := f.do(t, http.MethodPost, "/entries/e1/reject", RejectRequest{Reason: "No receipt"})
	require.Equal(t, http.StatusOK, w.Code)

	var view EntryView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.Equal(t, types.EntryStatusRejected, view.Status)
	assert.Empty(t, view.AllowedActions, "rejected entries are terminal")
}

func TestApproveRacedEntryConflicts(t *testing.T) {
	f := newHandlerFixture(t, "supervisor-1", types.ProjectRoleNone)

	entry := draftEntry("e1")
	entry.Status = types.EntryStatusPending

	f.store.On("GetEntry", mock.Anything, "e1").Return(entry, nil)
	f.memberships.On("GetProjectMembership", mock.Anything, testProjectID, "supervisor-1").
		Return(&types.ProjectMembership{Role: types.ProjectRoleSupervisor}, nil)
	f.store.On("TransitionEntry", mock.Anything, "e1",
		types.EntryStatusPending, types.EntryStatusApproved, "").
		Return(nil, istore.ErrStatusConflict)

	w := f.do(t, http.MethodPost, "/entries/e1/approve", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestDeleteLockedEntryConflicts(t *testing.T) {
	f := newHandlerFixture(t, testOwnerID, types.ProjectRoleNone)

	entry := draftEntry("e1")
	entry.Status = types.EntryStatusApproved

	f.store.On("GetEntry", mock.Anything, "e1").Return(entry, nil)
	f.memberships.On("GetProjectMembership", mock.Anything, testProjectID, testOwnerID).
		Return(&types.ProjectMembership{Role: types.ProjectRoleCrew}, nil)

	w := f.do(t, http.MethodDelete, "/entries/e1", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestBulkSubmitHandler(t *testing.T) {
	f := newHandlerFixture(t, testOwnerID, types.ProjectRoleCrew)

	f.store.On("BulkSubmitEntries", mock.Anything, testProjectID, testOwnerID,
		[]string{"e1", "e2"}).Return(2, nil).Once()

	w := f.do(t, http.MethodPost, "/projects/p1/entries/bulk-submit",
		BulkSubmitRequest{Kind: types.EntryKindMileage, IDs: []string{"e1", "e2"}})
	require.Equal(t, http.StatusOK, w.Code)

	var resp BulkSubmitResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.SubmittedCount)
	f.store.AssertExpectations(t)
}

func TestPendingCountHandler(t *testing.T) {
	f := newHandlerFixture(t, testOwnerID, types.ProjectRoleSupervisor)

	f.store.On("CountPendingEntries", mock.Anything, testProjectID).Return(6, nil).Once()

	w := f.do(t, http.MethodGet, "/projects/p1/entries/pending-count", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]int
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 6, resp["pendingCount"])
	f.store.AssertExpectations(t)
}

func TestBulkSubmitRejectsEmptyBody(t *testing.T) {
	f := newHandlerFixture(t, testOwnerID, types.ProjectRoleCrew)

	w := f.do(t, http.MethodPost, "/projects/p1/entries/bulk-submit",
		map[string]interface{}{"kind": "MILEAGE"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEntryRouteNonMemberForbidden(t *testing.T) {
	f := newHandlerFixture(t, "outsider", types.ProjectRoleNone)

	entry := draftEntry("e1")
	f.store.On("GetEntry", mock.Anything, "e1").Return(entry, nil)
	f.memberships.On("GetProjectMembership", mock.Anything, testProjectID, "outsider").
		Return(nil, istore.ErrNotFound)

	w := f.do(t, http.MethodPost, "/entries/e1/submit", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
