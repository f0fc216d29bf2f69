package assignment

import (
	"context"
	"reflect"
	"testing"

	"github.com/fairgrid/stand-assignment/internal/model"
)

func activeRequest(id, exhibitorID, boothID uint64, score int) model.AssignmentRequest {
	return model.AssignmentRequest{
		ID:               id,
		ExhibitorID:      exhibitorID,
		EventID:          1,
		RequestedBoothID: uptr(boothID),
		PriorityScore:    score,
		State:            model.RequestRequested,
	}
}

func namedExhibitors(t *testing.T) *mockExhibitors {
	t.Helper()
	return &mockExhibitors{
		GetExhibitorFn: func(ctx context.Context, id uint64) (*model.Exhibitor, error) {
			names := map[uint64]string{1: "Acme", 2: "Globex", 3: "Initech", 4: "Umbrella", 5: "Stark", 6: "Wayne", 7: "Hooli"}
			return &model.Exhibitor{ID: id, Name: names[id], Status: model.ExhibitorApproved}, nil
		},
	}
}

func TestDetectGroupsByBooth(t *testing.T) {
	store := &mockStore{
		ListActiveRequestsFn: func(ctx context.Context, eventID uint64, boothID *uint64) ([]model.AssignmentRequest, error) {
			return []model.AssignmentRequest{
				activeRequest(10, 1, 100, 40),
				activeRequest(11, 2, 100, 55),
				activeRequest(12, 3, 200, 70), // alone on booth 200
				{ID: 13, ExhibitorID: 4, EventID: 1, State: model.RequestRequested}, // no target booth
			}, nil
		},
	}
	d := NewDetector(DefaultDetectorConfig(), store, namedExhibitors(t))

	candidates, err := d.Detect(context.Background(), 1, nil)
	if err != nil {
		t.Fatalf("Detect() error: %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("got %d candidates, want 1", len(candidates))
	}
	c := candidates[0]
	if c.BoothID != 100 || c.EventID != 1 {
		t.Fatalf("unexpected candidate target: booth=%d event=%d", c.BoothID, c.EventID)
	}
	if len(c.Competitors) != 2 {
		t.Fatalf("got %d competitors, want 2", len(c.Competitors))
	}
	if c.Competitors[0].ExhibitorName != "Acme" || c.Competitors[1].ExhibitorName != "Globex" {
		t.Fatalf("competitor names not snapshotted: %+v", c.Competitors)
	}
	if c.Severity != model.SeverityMedium {
		t.Fatalf("severity = %s, want %s", c.Severity, model.SeverityMedium)
	}
}

func TestDetectIsIdempotent(t *testing.T) {
	store := &mockStore{
		ListActiveRequestsFn: func(ctx context.Context, eventID uint64, boothID *uint64) ([]model.AssignmentRequest, error) {
			// Deliberately unordered input.
			return []model.AssignmentRequest{
				activeRequest(22, 2, 300, 50),
				activeRequest(20, 1, 100, 40),
				activeRequest(23, 3, 300, 60),
				activeRequest(21, 2, 100, 55),
			}, nil
		},
	}
	d := NewDetector(DefaultDetectorConfig(), store, namedExhibitors(t))

	first, err := d.Detect(context.Background(), 1, nil)
	if err != nil {
		t.Fatalf("Detect() error: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := d.Detect(context.Background(), 1, nil)
		if err != nil {
			t.Fatalf("Detect() run %d error: %v", i, err)
		}
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("run %d differs:\nfirst: %+v\nagain: %+v", i, first, again)
		}
	}
	if first[0].BoothID != 100 || first[1].BoothID != 300 {
		t.Fatalf("candidates not in stable booth order: %+v", first)
	}
}

func TestClassifySeverity(t *testing.T) {
	d := NewDetector(DefaultDetectorConfig(), &mockStore{}, &mockExhibitors{})

	comp := func(scores ...int) []Competitor {
		out := make([]Competitor, len(scores))
		for i, s := range scores {
			out[i] = Competitor{RequestID: uint64(i + 1), PriorityScore: s}
		}
		return out
	}

	tests := []struct {
		name string
		in   []Competitor
		want string
	}{
		{"six competitors is critical", comp(10, 20, 30, 40, 50, 60), model.SeverityCritical},
		{"four competitors is high", comp(10, 20, 30, 40), model.SeverityHigh},
		{"three competitors with a VIP is high", comp(85, 20, 30), model.SeverityHigh},
		{"three competitors without a VIP is medium", comp(80, 20, 30), model.SeverityMedium},
		{"two competitors is medium", comp(10, 20), model.SeverityMedium},
		{"two competitors with a VIP is still medium", comp(90, 20), model.SeverityMedium},
		{"single competitor is low", comp(99), model.SeverityLow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := d.Classify(tt.in); got != tt.want {
				t.Fatalf("Classify() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestClassifyImpact(t *testing.T) {
	d := NewDetector(DefaultDetectorConfig(), &mockStore{}, &mockExhibitors{})

	tests := []struct {
		name     string
		count    int
		topScore int
		want     string
	}{
		{"many competitors", 6, 40, model.SeverityCritical},
		{"vip crowd", 4, 90, model.SeverityCritical},
		{"four competitors", 4, 40, model.SeverityHigh},
		{"vip pair", 2, 90, model.SeverityHigh},
		{"plain pair", 2, 40, model.SeverityMedium},
		{"single", 1, 40, model.SeverityLow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := d.ClassifyImpact(tt.count, tt.topScore); got != tt.want {
				t.Fatalf("ClassifyImpact(%d, %d) = %s, want %s", tt.count, tt.topScore, got, tt.want)
			}
		})
	}
}
