package assignment

import (
	"context"
	"fmt"
	"sort"

	"github.com/fairgrid/stand-assignment/internal/model"
)

// DetectorConfig holds the severity thresholds. The defaults mirror
// the established classification; they are configurable rather than
// hard-coded because the cutoffs are empirically chosen.
type DetectorConfig struct {
	CriticalAbove int // competitor count above which severity is CRITICAL
	HighAbove     int // competitor count above which severity is HIGH
	HighVIPAbove  int // competitor count above which one VIP competitor makes it HIGH
	MediumAbove   int // competitor count above which severity is MEDIUM
	VIPScore      int // priority score above which a competitor counts as VIP
}

// DefaultDetectorConfig returns the standard thresholds: critical
// above 5 competitors, high above 3 (or above 2 with a VIP competitor
// scoring over 80), medium above 1.
func DefaultDetectorConfig() DetectorConfig {
	return DetectorConfig{
		CriticalAbove: 5,
		HighAbove:     3,
		HighVIPAbove:  2,
		MediumAbove:   1,
		VIPScore:      80,
	}
}

// Competitor is the snapshot of one request participating in a
// candidate, frozen at detection time.
type Competitor struct {
	RequestID     uint64
	ExhibitorID   uint64
	ExhibitorName string
	PriorityScore int
}

// ConflictCandidate groups the active requests competing for one
// booth. Candidates are a read-only product of detection; recording a
// Conflict for a candidate is the caller's decision.
type ConflictCandidate struct {
	EventID     uint64
	BoothID     uint64
	Competitors []Competitor
	Severity    string
}

// Detector scans active requests for an event and groups those
// targeting the same booth. Detection is read-only and idempotent:
// with no intervening state change, repeated runs yield the same
// candidates in the same order.
type Detector struct {
	cfg        DetectorConfig
	store      Store
	exhibitors ExhibitorDirectory
}

// NewDetector returns a detector using the provided thresholds.
func NewDetector(cfg DetectorConfig, store Store, exhibitors ExhibitorDirectory) *Detector {
	return &Detector{cfg: cfg, store: store, exhibitors: exhibitors}
}

// Detect returns the conflict candidates for the event, optionally
// scoped to a single booth. Requests without a target booth never
// participate. Callers are responsible for skipping candidates whose
// booth already has a non-terminal conflict recorded.
func (d *Detector) Detect(ctx context.Context, eventID uint64, boothID *uint64) ([]ConflictCandidate, error) {
	requests, err := d.store.ListActiveRequests(ctx, eventID, boothID)
	if err != nil {
		return nil, err
	}

	byBooth := make(map[uint64][]model.AssignmentRequest)
	for _, req := range requests {
		if req.RequestedBoothID == nil {
			continue
		}
		b := *req.RequestedBoothID
		byBooth[b] = append(byBooth[b], req)
	}

	// Stable booth order keeps detection idempotent for callers that
	// compare successive runs.
	booths := make([]uint64, 0, len(byBooth))
	for b, group := range byBooth {
		if len(group) >= 2 {
			booths = append(booths, b)
		}
	}
	sort.Slice(booths, func(i, j int) bool { return booths[i] < booths[j] })

	names := make(map[uint64]string)
	candidates := make([]ConflictCandidate, 0, len(booths))
	for _, b := range booths {
		group := byBooth[b]
		competitors := make([]Competitor, 0, len(group))
		for _, req := range group {
			name, ok := names[req.ExhibitorID]
			if !ok {
				ex, err := d.exhibitors.GetExhibitor(ctx, req.ExhibitorID)
				if err != nil {
					return nil, fmt.Errorf("exhibitor %d: %w", req.ExhibitorID, err)
				}
				name = ex.Name
				names[req.ExhibitorID] = name
			}
			competitors = append(competitors, Competitor{
				RequestID:     req.ID,
				ExhibitorID:   req.ExhibitorID,
				ExhibitorName: name,
				PriorityScore: req.PriorityScore,
			})
		}
		sort.Slice(competitors, func(i, j int) bool { return competitors[i].RequestID < competitors[j].RequestID })
		candidates = append(candidates, ConflictCandidate{
			EventID:     eventID,
			BoothID:     b,
			Competitors: competitors,
			Severity:    d.Classify(competitors),
		})
	}
	return candidates, nil
}

// Classify derives the severity grade from the competitor count and
// whether any competitor exceeds the VIP score threshold.
func (d *Detector) Classify(competitors []Competitor) string {
	n := len(competitors)
	vip := false
	for _, c := range competitors {
		if c.PriorityScore > d.cfg.VIPScore {
			vip = true
			break
		}
	}
	switch {
	case n > d.cfg.CriticalAbove:
		return model.SeverityCritical
	case n > d.cfg.HighAbove:
		return model.SeverityHigh
	case n > d.cfg.HighVIPAbove && vip:
		return model.SeverityHigh
	case n > d.cfg.MediumAbove:
		return model.SeverityMedium
	default:
		return model.SeverityLow
	}
}

// ClassifyImpact grades the estimated impact of a conflict from its
// competitor count and the highest priority score among them. Manual
// conflict creation stamps this alongside severity.
func (d *Detector) ClassifyImpact(competitorCount, topScore int) string {
	switch {
	case competitorCount > d.cfg.CriticalAbove || (topScore > d.cfg.VIPScore && competitorCount > d.cfg.HighAbove):
		return model.SeverityCritical
	case competitorCount > d.cfg.HighAbove || topScore > d.cfg.VIPScore:
		return model.SeverityHigh
	case competitorCount > d.cfg.MediumAbove:
		return model.SeverityMedium
	default:
		return model.SeverityLow
	}
}
