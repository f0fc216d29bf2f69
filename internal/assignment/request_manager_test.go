package assignment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fairgrid/stand-assignment/internal/model"
)

var testNow = time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

func approvedExhibitor(id uint64) *model.Exhibitor {
	return &model.Exhibitor{
		ID:                 id,
		Name:               "Acme",
		Status:             model.ExhibitorApproved,
		ParticipationCount: 3,
		AvgRating:          4.0,
		CreatedAt:          testNow.AddDate(-2, 0, 0),
	}
}

func availableBooths() *mockBooths {
	return &mockBooths{
		GetBoothFn: func(ctx context.Context, id uint64) (*model.Booth, error) {
			return &model.Booth{ID: id, Code: "A-01", Active: true}, nil
		},
		DispositionFn: func(ctx context.Context, eventID, boothID uint64) (string, error) {
			return model.DispositionAvailable, nil
		},
	}
}

func newTestRequestManager(store *mockStore, exhibitors *mockExhibitors, events *mockEvents, booths *mockBooths, history *recordingHistory) *RequestManager {
	scorer := NewScorer(DefaultScoreConfig())
	scorer.now = fixedClock(testNow)
	m := NewRequestManager(store, exhibitors, events, NewAvailabilityGate(booths), scorer, history)
	m.now = fixedClock(testNow)
	return m
}

func existingEvents() *mockEvents {
	return &mockEvents{EventExistsFn: func(ctx context.Context, id uint64) (bool, error) { return true, nil }}
}

func TestCreateRequest(t *testing.T) {
	var inserted *model.AssignmentRequest
	store := &mockStore{
		HasActiveRequestFn: func(ctx context.Context, exhibitorID, eventID uint64) (bool, error) { return false, nil },
		CreateRequestFn: func(ctx context.Context, req *model.AssignmentRequest) error {
			req.ID = 77
			inserted = req
			return nil
		},
	}
	exhibitors := &mockExhibitors{
		GetExhibitorFn: func(ctx context.Context, id uint64) (*model.Exhibitor, error) { return approvedExhibitor(id), nil },
	}
	history := &recordingHistory{}
	m := newTestRequestManager(store, exhibitors, existingEvents(), availableBooths(), history)

	var recordedEvent, recordedBooth uint64
	m.SetConflictRecorder(&mockRecorder{
		RecordForBoothFn: func(ctx context.Context, eventID, boothID uint64) error {
			recordedEvent, recordedBooth = eventID, boothID
			return nil
		},
	})

	req, err := m.Create(context.Background(), CreateRequestInput{
		ExhibitorID:   1,
		EventID:       5,
		TargetBoothID: uptr(100),
		Modality:      model.ModalityDirectSelection,
		Reason:        "  corner spot near entrance  ",
	})
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if inserted == nil || req.ID != 77 {
		t.Fatalf("request not inserted: %+v", req)
	}
	if req.State != model.RequestRequested {
		t.Fatalf("state = %s, want %s", req.State, model.RequestRequested)
	}
	// 15 participation + 40 rating + 4 age + 5 approved.
	if req.PriorityScore != 64 {
		t.Fatalf("priority score = %d, want 64", req.PriorityScore)
	}
	if req.Reason != "corner spot near entrance" {
		t.Fatalf("reason not trimmed: %q", req.Reason)
	}
	if req.RequestedAt != testNow {
		t.Fatalf("requested_at = %v, want %v", req.RequestedAt, testNow)
	}
	if recordedEvent != 5 || recordedBooth != 100 {
		t.Fatalf("conflict detection not triggered for (event=5, booth=100): got (%d, %d)", recordedEvent, recordedBooth)
	}
	if len(history.entries) != 1 {
		t.Fatalf("history entries = %d, want 1", len(history.entries))
	}
	h := history.entries[0]
	if h.EntityType != model.HistoryEntityRequest || h.EntityID != 77 || h.NewState != model.RequestRequested || h.PreviousState != "" {
		t.Fatalf("unexpected history entry: %+v", h)
	}
}

func TestCreateRequestValidation(t *testing.T) {
	suspended := &mockExhibitors{
		GetExhibitorFn: func(ctx context.Context, id uint64) (*model.Exhibitor, error) {
			ex := approvedExhibitor(id)
			ex.Status = model.ExhibitorSuspended
			return ex, nil
		},
	}
	approved := &mockExhibitors{
		GetExhibitorFn: func(ctx context.Context, id uint64) (*model.Exhibitor, error) { return approvedExhibitor(id), nil },
	}

	tests := []struct {
		name       string
		in         CreateRequestInput
		exhibitors *mockExhibitors
		events     *mockEvents
		store      *mockStore
		booths     *mockBooths
		wantErr    error
	}{
		{
			name:       "unknown modality",
			in:         CreateRequestInput{ExhibitorID: 1, EventID: 5, Modality: "RANDOM"},
			exhibitors: approved,
			events:     existingEvents(),
			store:      &mockStore{},
			booths:     availableBooths(),
			wantErr:    ErrValidation,
		},
		{
			name:       "missing event",
			in:         CreateRequestInput{ExhibitorID: 1, EventID: 5, Modality: model.ModalityManual},
			exhibitors: approved,
			events:     &mockEvents{EventExistsFn: func(ctx context.Context, id uint64) (bool, error) { return false, nil }},
			store:      &mockStore{},
			booths:     availableBooths(),
			wantErr:    ErrNotFound,
		},
		{
			name:       "suspended exhibitor",
			in:         CreateRequestInput{ExhibitorID: 1, EventID: 5, Modality: model.ModalityManual},
			exhibitors: suspended,
			events:     existingEvents(),
			store:      &mockStore{},
			booths:     availableBooths(),
			wantErr:    ErrNotApproved,
		},
		{
			name:       "duplicate active request",
			in:         CreateRequestInput{ExhibitorID: 1, EventID: 5, Modality: model.ModalityManual},
			exhibitors: approved,
			events:     existingEvents(),
			store: &mockStore{
				HasActiveRequestFn: func(ctx context.Context, exhibitorID, eventID uint64) (bool, error) { return true, nil },
			},
			booths:  availableBooths(),
			wantErr: ErrDuplicateRequest,
		},
		{
			name:       "reserved booth fails the gate",
			in:         CreateRequestInput{ExhibitorID: 1, EventID: 5, TargetBoothID: uptr(100), Modality: model.ModalityDirectSelection},
			exhibitors: approved,
			events:     existingEvents(),
			store: &mockStore{
				HasActiveRequestFn: func(ctx context.Context, exhibitorID, eventID uint64) (bool, error) { return false, nil },
			},
			booths: &mockBooths{
				GetBoothFn: func(ctx context.Context, id uint64) (*model.Booth, error) {
					return &model.Booth{ID: id, Active: true}, nil
				},
				DispositionFn: func(ctx context.Context, eventID, boothID uint64) (string, error) {
					return model.DispositionReserved, nil
				},
			},
			wantErr: ErrBoothUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestRequestManager(tt.store, tt.exhibitors, tt.events, tt.booths, &recordingHistory{})
			if _, err := m.Create(context.Background(), tt.in); !errors.Is(err, tt.wantErr) {
				t.Fatalf("Create() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestCreateRequestSurvivesDetectionFailure(t *testing.T) {
	store := &mockStore{
		HasActiveRequestFn: func(ctx context.Context, exhibitorID, eventID uint64) (bool, error) { return false, nil },
		CreateRequestFn: func(ctx context.Context, req *model.AssignmentRequest) error {
			req.ID = 9
			return nil
		},
	}
	exhibitors := &mockExhibitors{
		GetExhibitorFn: func(ctx context.Context, id uint64) (*model.Exhibitor, error) { return approvedExhibitor(id), nil },
	}
	m := newTestRequestManager(store, exhibitors, existingEvents(), availableBooths(), &recordingHistory{})
	m.SetConflictRecorder(&mockRecorder{
		RecordForBoothFn: func(ctx context.Context, eventID, boothID uint64) error { return errBoom },
	})

	req, err := m.Create(context.Background(), CreateRequestInput{
		ExhibitorID:   1,
		EventID:       5,
		TargetBoothID: uptr(100),
		Modality:      model.ModalityDirectSelection,
	})
	if err != nil {
		t.Fatalf("Create() should not fail on detection errors: %v", err)
	}
	if req.ID != 9 {
		t.Fatalf("request not created: %+v", req)
	}
}

func TestStartReview(t *testing.T) {
	var gotFrom, gotTo string
	store := &mockStore{
		GetRequestFn: func(ctx context.Context, id uint64) (*model.AssignmentRequest, error) {
			return &model.AssignmentRequest{ID: id, State: model.RequestRequested}, nil
		},
		TransitionRequestFn: func(ctx context.Context, id uint64, from, to string, tr RequestTransition) error {
			gotFrom, gotTo = from, to
			if tr.ActorUserID != 42 {
				t.Fatalf("actor = %d, want 42", tr.ActorUserID)
			}
			return nil
		},
	}
	history := &recordingHistory{}
	m := newTestRequestManager(store, &mockExhibitors{}, existingEvents(), availableBooths(), history)

	if err := m.StartReview(context.Background(), 7, 42); err != nil {
		t.Fatalf("StartReview() error: %v", err)
	}
	if gotFrom != model.RequestRequested || gotTo != model.RequestInReview {
		t.Fatalf("transition %s -> %s, want REQUESTED -> IN_REVIEW", gotFrom, gotTo)
	}
	if len(history.entries) != 1 {
		t.Fatalf("history entries = %d, want 1", len(history.entries))
	}
}

func TestApproveSkipsReview(t *testing.T) {
	store := &mockStore{
		GetRequestFn: func(ctx context.Context, id uint64) (*model.AssignmentRequest, error) {
			return &model.AssignmentRequest{ID: id, State: model.RequestRequested}, nil
		},
		TransitionRequestFn: func(ctx context.Context, id uint64, from, to string, tr RequestTransition) error {
			if to != model.RequestApproved {
				t.Fatalf("to = %s, want APPROVED", to)
			}
			if tr.ReviewedAt == nil || !tr.ReviewedAt.Equal(testNow) {
				t.Fatalf("reviewed_at = %v, want %v", tr.ReviewedAt, testNow)
			}
			return nil
		},
	}
	m := newTestRequestManager(store, &mockExhibitors{}, existingEvents(), availableBooths(), &recordingHistory{})
	if err := m.Approve(context.Background(), 7, 42, "fine"); err != nil {
		t.Fatalf("Approve() error: %v", err)
	}
}

func TestRejectRequiresReason(t *testing.T) {
	m := newTestRequestManager(&mockStore{}, &mockExhibitors{}, existingEvents(), availableBooths(), &recordingHistory{})
	if err := m.Reject(context.Background(), 7, 42, "   "); !errors.Is(err, ErrValidation) {
		t.Fatalf("Reject() error = %v, want %v", err, ErrValidation)
	}
}

func TestRejectFromTerminalState(t *testing.T) {
	store := &mockStore{
		GetRequestFn: func(ctx context.Context, id uint64) (*model.AssignmentRequest, error) {
			return &model.AssignmentRequest{ID: id, State: model.RequestCancelled}, nil
		},
	}
	m := newTestRequestManager(store, &mockExhibitors{}, existingEvents(), availableBooths(), &recordingHistory{})
	if err := m.Reject(context.Background(), 7, 42, "late"); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("Reject() error = %v, want %v", err, ErrInvalidState)
	}
}

func TestAssignBooth(t *testing.T) {
	assigned := &model.AssignmentRequest{
		ID:              7,
		ExhibitorID:     1,
		EventID:         5,
		AssignedBoothID: uptr(100),
		State:           model.RequestAssigned,
		PriceCents:      u32ptr(250000),
		AssignedAt:      &testNow,
	}
	store := &mockStore{
		GetRequestFn: func(ctx context.Context, id uint64) (*model.AssignmentRequest, error) {
			return &model.AssignmentRequest{ID: id, EventID: 5, State: model.RequestApproved}, nil
		},
		AssignBoothFn: func(ctx context.Context, p AssignBoothParams) (*model.AssignmentRequest, error) {
			if p.RequestID != 7 || p.EventID != 5 || p.BoothID != 100 || p.AssignerUserID != 42 {
				t.Fatalf("unexpected params: %+v", p)
			}
			if !p.AssignedAt.Equal(testNow) {
				t.Fatalf("assigned_at = %v, want %v", p.AssignedAt, testNow)
			}
			return assigned, nil
		},
	}
	history := &recordingHistory{}
	m := newTestRequestManager(store, &mockExhibitors{}, existingEvents(), availableBooths(), history)

	published := false
	m.SetPublisher(&mockPublisher{
		RequestAssignedFn: func(ctx context.Context, req *model.AssignmentRequest) error {
			published = true
			if req != assigned {
				t.Fatalf("published the wrong request: %+v", req)
			}
			return nil
		},
	})

	got, err := m.AssignBooth(context.Background(), 7, 100, 42, u32ptr(250000), nil)
	if err != nil {
		t.Fatalf("AssignBooth() error: %v", err)
	}
	if got != assigned {
		t.Fatalf("returned request mismatch: %+v", got)
	}
	if !published {
		t.Fatal("assigned event not published")
	}
	if len(history.entries) != 1 || history.entries[0].NewState != model.RequestAssigned {
		t.Fatalf("unexpected history: %+v", history.entries)
	}
}

func TestAssignBoothRequiresApproval(t *testing.T) {
	store := &mockStore{
		GetRequestFn: func(ctx context.Context, id uint64) (*model.AssignmentRequest, error) {
			return &model.AssignmentRequest{ID: id, EventID: 5, State: model.RequestRequested}, nil
		},
	}
	m := newTestRequestManager(store, &mockExhibitors{}, existingEvents(), availableBooths(), &recordingHistory{})
	if _, err := m.AssignBooth(context.Background(), 7, 100, 42, nil, nil); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("AssignBooth() error = %v, want %v", err, ErrInvalidState)
	}
}

func TestCancel(t *testing.T) {
	tests := []struct {
		name    string
		state   string
		reason  string
		wantErr error
	}{
		{"requested cancels", model.RequestRequested, "changed plans", nil},
		{"approved cancels", model.RequestApproved, "changed plans", nil},
		{"assigned does not cancel", model.RequestAssigned, "changed plans", ErrInvalidState},
		{"rejected does not cancel", model.RequestRejected, "changed plans", ErrInvalidState},
		{"missing reason", model.RequestRequested, "", ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &mockStore{
				GetRequestFn: func(ctx context.Context, id uint64) (*model.AssignmentRequest, error) {
					return &model.AssignmentRequest{ID: id, State: tt.state}, nil
				},
				TransitionRequestFn: func(ctx context.Context, id uint64, from, to string, tr RequestTransition) error {
					if tr.CancelReason == nil || *tr.CancelReason != tt.reason {
						t.Fatalf("cancel reason = %v, want %q", tr.CancelReason, tt.reason)
					}
					return nil
				},
			}
			m := newTestRequestManager(store, &mockExhibitors{}, existingEvents(), availableBooths(), &recordingHistory{})
			err := m.Cancel(context.Background(), 7, 42, tt.reason)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Cancel() error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Cancel() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestHistoryFailureDoesNotFailOperation(t *testing.T) {
	store := &mockStore{
		GetRequestFn: func(ctx context.Context, id uint64) (*model.AssignmentRequest, error) {
			return &model.AssignmentRequest{ID: id, State: model.RequestRequested}, nil
		},
		TransitionRequestFn: func(ctx context.Context, id uint64, from, to string, tr RequestTransition) error {
			return nil
		},
	}
	history := &recordingHistory{err: errBoom}
	m := newTestRequestManager(store, &mockExhibitors{}, existingEvents(), availableBooths(), history)
	if err := m.StartReview(context.Background(), 7, 42); err != nil {
		t.Fatalf("StartReview() should survive history failures: %v", err)
	}
}
