package assignment

import (
	"context"
	"errors"
	"time"

	"github.com/fairgrid/stand-assignment/internal/model"
)

// Function-field mocks for the core's collaborator interfaces. Tests
// assign only the fields they need; calling an unassigned field panics,
// which surfaces unexpected interactions immediately.

type mockStore struct {
	GetRequestFn         func(ctx context.Context, id uint64) (*model.AssignmentRequest, error)
	HasActiveRequestFn   func(ctx context.Context, exhibitorID, eventID uint64) (bool, error)
	CreateRequestFn      func(ctx context.Context, req *model.AssignmentRequest) error
	TransitionRequestFn  func(ctx context.Context, id uint64, from, to string, tr RequestTransition) error
	AssignBoothFn        func(ctx context.Context, p AssignBoothParams) (*model.AssignmentRequest, error)
	ListActiveRequestsFn func(ctx context.Context, eventID uint64, boothID *uint64) ([]model.AssignmentRequest, error)

	GetConflictFn         func(ctx context.Context, id uint64) (*model.Conflict, error)
	GetConflictRequestsFn func(ctx context.Context, conflictID uint64) ([]model.ConflictRequest, error)
	HasActiveConflictFn   func(ctx context.Context, eventID, boothID uint64) (bool, error)
	CreateConflictFn      func(ctx context.Context, c *model.Conflict, competitors []model.ConflictRequest) error
	TransitionConflictFn  func(ctx context.Context, id uint64, from, to string, tr ConflictTransition) error
	ResolveConflictFn     func(ctx context.Context, p ResolveConflictParams) error
	AddCommunicationFn    func(ctx context.Context, entry *model.ConflictCommunication) error
}

func (m *mockStore) GetRequest(ctx context.Context, id uint64) (*model.AssignmentRequest, error) {
	return m.GetRequestFn(ctx, id)
}

func (m *mockStore) HasActiveRequest(ctx context.Context, exhibitorID, eventID uint64) (bool, error) {
	return m.HasActiveRequestFn(ctx, exhibitorID, eventID)
}

func (m *mockStore) CreateRequest(ctx context.Context, req *model.AssignmentRequest) error {
	return m.CreateRequestFn(ctx, req)
}

func (m *mockStore) TransitionRequest(ctx context.Context, id uint64, from, to string, tr RequestTransition) error {
	return m.TransitionRequestFn(ctx, id, from, to, tr)
}

func (m *mockStore) AssignBooth(ctx context.Context, p AssignBoothParams) (*model.AssignmentRequest, error) {
	return m.AssignBoothFn(ctx, p)
}

func (m *mockStore) ListActiveRequests(ctx context.Context, eventID uint64, boothID *uint64) ([]model.AssignmentRequest, error) {
	return m.ListActiveRequestsFn(ctx, eventID, boothID)
}

func (m *mockStore) GetConflict(ctx context.Context, id uint64) (*model.Conflict, error) {
	return m.GetConflictFn(ctx, id)
}

func (m *mockStore) GetConflictRequests(ctx context.Context, conflictID uint64) ([]model.ConflictRequest, error) {
	return m.GetConflictRequestsFn(ctx, conflictID)
}

func (m *mockStore) HasActiveConflict(ctx context.Context, eventID, boothID uint64) (bool, error) {
	return m.HasActiveConflictFn(ctx, eventID, boothID)
}

func (m *mockStore) CreateConflict(ctx context.Context, c *model.Conflict, competitors []model.ConflictRequest) error {
	return m.CreateConflictFn(ctx, c, competitors)
}

func (m *mockStore) TransitionConflict(ctx context.Context, id uint64, from, to string, tr ConflictTransition) error {
	return m.TransitionConflictFn(ctx, id, from, to, tr)
}

func (m *mockStore) ResolveConflict(ctx context.Context, p ResolveConflictParams) error {
	return m.ResolveConflictFn(ctx, p)
}

func (m *mockStore) AddCommunication(ctx context.Context, entry *model.ConflictCommunication) error {
	return m.AddCommunicationFn(ctx, entry)
}

type mockExhibitors struct {
	GetExhibitorFn func(ctx context.Context, id uint64) (*model.Exhibitor, error)
}

func (m *mockExhibitors) GetExhibitor(ctx context.Context, id uint64) (*model.Exhibitor, error) {
	return m.GetExhibitorFn(ctx, id)
}

type mockEvents struct {
	EventExistsFn func(ctx context.Context, id uint64) (bool, error)
}

func (m *mockEvents) EventExists(ctx context.Context, id uint64) (bool, error) {
	return m.EventExistsFn(ctx, id)
}

type mockBooths struct {
	GetBoothFn    func(ctx context.Context, id uint64) (*model.Booth, error)
	DispositionFn func(ctx context.Context, eventID, boothID uint64) (string, error)
}

func (m *mockBooths) GetBooth(ctx context.Context, id uint64) (*model.Booth, error) {
	return m.GetBoothFn(ctx, id)
}

func (m *mockBooths) Disposition(ctx context.Context, eventID, boothID uint64) (string, error) {
	return m.DispositionFn(ctx, eventID, boothID)
}

// recordingHistory collects appended entries and never fails unless
// told to.
type recordingHistory struct {
	entries []model.HistoryEntry
	err     error
}

func (h *recordingHistory) Append(ctx context.Context, entry model.HistoryEntry) error {
	if h.err != nil {
		return h.err
	}
	h.entries = append(h.entries, entry)
	return nil
}

type mockPublisher struct {
	RequestAssignedFn  func(ctx context.Context, req *model.AssignmentRequest) error
	ConflictResolvedFn func(ctx context.Context, c *model.Conflict, winners, losers []uint64) error
}

func (m *mockPublisher) RequestAssigned(ctx context.Context, req *model.AssignmentRequest) error {
	if m.RequestAssignedFn == nil {
		return nil
	}
	return m.RequestAssignedFn(ctx, req)
}

func (m *mockPublisher) ConflictResolved(ctx context.Context, c *model.Conflict, winners, losers []uint64) error {
	if m.ConflictResolvedFn == nil {
		return nil
	}
	return m.ConflictResolvedFn(ctx, c, winners, losers)
}

type mockRecorder struct {
	RecordForBoothFn func(ctx context.Context, eventID, boothID uint64) error
}

func (m *mockRecorder) RecordForBooth(ctx context.Context, eventID, boothID uint64) error {
	return m.RecordForBoothFn(ctx, eventID, boothID)
}

var errBoom = errors.New("boom")

// fixedClock pins manager and scorer time for deterministic assertions.
func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func uptr(v uint64) *uint64   { return &v }
func u32ptr(v uint32) *uint32 { return &v }
func sptr(v string) *string   { return &v }
