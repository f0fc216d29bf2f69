package assignment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/fairgrid/stand-assignment/internal/model"
)

// CreateConflictInput carries the inputs of ConflictManager.CreateManual.
type CreateConflictInput struct {
	EventID    uint64
	BoothID    uint64
	RequestIDs []uint64
	Deadline   *time.Time
}

// DetectionResult summarizes one DetectAndCreateForEvent run.
type DetectionResult struct {
	Detected int `json:"detected"`
	Created  int `json:"created"`
}

// ConflictManager owns the lifecycle of conflicts: manual and
// automatic creation, assignment to a handler, resolution, escalation,
// cancellation and the communication log. Resolution propagates its
// outcome back onto the competing requests inside a single store
// transaction: partial resolution is never observable.
type ConflictManager struct {
	store      Store
	detector   *Detector
	events     EventDirectory
	booths     BoothDirectory
	exhibitors ExhibitorDirectory
	history    HistorySink
	publisher  Publisher
	now        func() time.Time
}

// NewConflictManager constructs a ConflictManager. The publisher may
// be nil, in which case post-commit events are skipped.
func NewConflictManager(store Store, detector *Detector, events EventDirectory, booths BoothDirectory, exhibitors ExhibitorDirectory, history HistorySink) *ConflictManager {
	if store == nil || detector == nil || events == nil || booths == nil || exhibitors == nil || history == nil {
		panic("nil dependency passed to NewConflictManager")
	}
	return &ConflictManager{
		store:      store,
		detector:   detector,
		events:     events,
		booths:     booths,
		exhibitors: exhibitors,
		history:    history,
		now:        time.Now,
	}
}

// SetPublisher wires the post-commit event publisher.
func (m *ConflictManager) SetPublisher(p Publisher) { m.publisher = p }

// CreateManual records a conflict reported by an organizer rather than
// found by detection. Every referenced request must exist, belong to
// the given event, target the given booth and still be active. At
// least one competing request is required.
func (m *ConflictManager) CreateManual(ctx context.Context, in CreateConflictInput, creatorUserID uint64) (*model.Conflict, error) {
	if len(in.RequestIDs) == 0 {
		return nil, fmt.Errorf("at least one competing request is required: %w", ErrValidation)
	}
	exists, err := m.events.EventExists(ctx, in.EventID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("event %d: %w", in.EventID, ErrNotFound)
	}
	if _, err := m.booths.GetBooth(ctx, in.BoothID); err != nil {
		return nil, err
	}

	competitors := make([]Competitor, 0, len(in.RequestIDs))
	for _, id := range in.RequestIDs {
		req, err := m.store.GetRequest(ctx, id)
		if err != nil {
			return nil, err
		}
		if req.EventID != in.EventID {
			return nil, fmt.Errorf("request %d belongs to event %d: %w", id, req.EventID, ErrValidation)
		}
		if !req.Active() {
			return nil, fmt.Errorf("request %d is %s: %w", id, req.State, ErrValidation)
		}
		if req.RequestedBoothID == nil || *req.RequestedBoothID != in.BoothID {
			return nil, fmt.Errorf("request %d does not target booth %d: %w", id, in.BoothID, ErrValidation)
		}
		ex, err := m.exhibitors.GetExhibitor(ctx, req.ExhibitorID)
		if err != nil {
			return nil, err
		}
		competitors = append(competitors, Competitor{
			RequestID:     req.ID,
			ExhibitorID:   req.ExhibitorID,
			ExhibitorName: ex.Name,
			PriorityScore: req.PriorityScore,
		})
	}

	conflict, err := m.persistConflict(ctx, in.EventID, in.BoothID, model.DetectionManual, in.Deadline, competitors, &creatorUserID)
	if err != nil {
		return nil, err
	}
	return conflict, nil
}

// persistConflict builds the conflict and its competitor snapshots and
// writes them in one store transaction. The store repeats the "no
// active conflict for this booth" check inside that transaction, which
// closes the race between two near-simultaneous detections.
func (m *ConflictManager) persistConflict(ctx context.Context, eventID, boothID uint64, method string, deadline *time.Time, competitors []Competitor, actor *uint64) (*model.Conflict, error) {
	topScore := 0
	for _, c := range competitors {
		if c.PriorityScore > topScore {
			topScore = c.PriorityScore
		}
	}
	conflict := &model.Conflict{
		EventID:         eventID,
		BoothID:         boothID,
		DetectionMethod: method,
		Severity:        m.detector.Classify(competitors),
		EstimatedImpact: m.detector.ClassifyImpact(len(competitors), topScore),
		State:           model.ConflictDetected,
		Deadline:        deadline,
		DetectedAt:      m.now().UTC(),
	}
	snapshots := make([]model.ConflictRequest, 0, len(competitors))
	for _, c := range competitors {
		snapshots = append(snapshots, model.ConflictRequest{
			RequestID:     c.RequestID,
			ExhibitorID:   c.ExhibitorID,
			ExhibitorName: c.ExhibitorName,
			PriorityScore: c.PriorityScore,
		})
	}
	if err := m.store.CreateConflict(ctx, conflict, snapshots); err != nil {
		return nil, err
	}
	m.recordHistory(ctx, conflict.ID, "", model.ConflictDetected, "", actor, map[string]any{
		"booth_id":    boothID,
		"severity":    conflict.Severity,
		"competitors": len(competitors),
		"method":      method,
	})
	return conflict, nil
}

// AssignForResolution hands the conflict to a user and moves it into
// IN_RESOLUTION. Escalated conflicts re-enter resolution this way; the
// optional deadline is advisory and only feeds the overdue computation.
func (m *ConflictManager) AssignForResolution(ctx context.Context, conflictID, handlerUserID uint64, deadline *time.Time) error {
	c, err := m.store.GetConflict(ctx, conflictID)
	if err != nil {
		return err
	}
	if !ConflictTransitionAllowed(c.State, model.ConflictInResolution) {
		return fmt.Errorf("conflict %d is %s: %w", conflictID, c.State, ErrInvalidState)
	}
	tr := ConflictTransition{HandlerUserID: &handlerUserID, Deadline: deadline}
	if err := m.store.TransitionConflict(ctx, conflictID, c.State, model.ConflictInResolution, tr); err != nil {
		return err
	}
	m.recordHistory(ctx, conflictID, c.State, model.ConflictInResolution, "", &handlerUserID, nil)
	return nil
}

// Resolve closes the conflict by naming a winning exhibitor. The
// winner's competing requests are approved (those already approved or
// assigned are left alone), every other competing request is rejected
// with a standardized reason referencing the criterion, the losers are
// recorded as compensated exhibitors, and the conflict moves to
// RESOLVED — all inside one transaction. A single history entry
// summarizes the full outcome.
func (m *ConflictManager) Resolve(ctx context.Context, conflictID, winnerExhibitorID uint64, criterion string, notes *string, offer *string, resolverUserID uint64) error {
	criterion = strings.TrimSpace(criterion)
	if criterion == "" {
		return fmt.Errorf("resolution criterion is required: %w", ErrValidation)
	}
	c, err := m.store.GetConflict(ctx, conflictID)
	if err != nil {
		return err
	}
	if c.State == model.ConflictResolved {
		return fmt.Errorf("conflict %d: %w", conflictID, ErrAlreadyResolved)
	}
	if !ConflictTransitionAllowed(c.State, model.ConflictResolved) {
		return fmt.Errorf("conflict %d is %s: %w", conflictID, c.State, ErrInvalidState)
	}

	competitors, err := m.store.GetConflictRequests(ctx, conflictID)
	if err != nil {
		return err
	}
	var winners, losers []uint64
	var loserExhibitors []uint64
	for _, cr := range competitors {
		if cr.ExhibitorID == winnerExhibitorID {
			winners = append(winners, cr.RequestID)
		} else {
			losers = append(losers, cr.RequestID)
			loserExhibitors = append(loserExhibitors, cr.ExhibitorID)
		}
	}
	if len(winners) == 0 {
		return fmt.Errorf("exhibitor %d is not competing in conflict %d: %w", winnerExhibitorID, conflictID, ErrInvalidWinner)
	}

	rejection := fmt.Sprintf("booth conflict %d resolved in favor of another exhibitor (criterion: %s)", conflictID, criterion)
	err = m.store.ResolveConflict(ctx, ResolveConflictParams{
		ConflictID:        conflictID,
		WinnerExhibitorID: winnerExhibitorID,
		WinnerRequestIDs:  winners,
		LoserRequestIDs:   losers,
		Criterion:         criterion,
		Notes:             notes,
		RejectionReason:   rejection,
		CompensationOffer: offer,
		ResolvedAt:        m.now().UTC(),
	})
	if err != nil {
		return err
	}

	m.recordHistory(ctx, conflictID, c.State, model.ConflictResolved, criterion, &resolverUserID, map[string]any{
		"winner_exhibitor_id":   winnerExhibitorID,
		"approved_requests":     winners,
		"rejected_requests":     losers,
		"compensated_exhibitors": loserExhibitors,
	})

	if m.publisher != nil {
		resolvedAt := m.now().UTC()
		c.State = model.ConflictResolved
		c.WinnerExhibitorID = &winnerExhibitorID
		c.Criterion = &criterion
		c.ResolvedAt = &resolvedAt
		if err := m.publisher.ConflictResolved(ctx, c, winners, losers); err != nil {
			log.Printf("conflict-manager: publish resolved event for conflict %d failed: %v", conflictID, err)
		}
	}
	return nil
}

// Escalate moves an active conflict to ESCALATED and hands it to a
// higher-level user. The reason is mandatory.
func (m *ConflictManager) Escalate(ctx context.Context, conflictID, escalateToUserID uint64, reason string, escalatorUserID uint64) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return fmt.Errorf("escalation reason is required: %w", ErrValidation)
	}
	c, err := m.store.GetConflict(ctx, conflictID)
	if err != nil {
		return err
	}
	if !ConflictActive(c.State) {
		return fmt.Errorf("conflict %d is %s: %w", conflictID, c.State, ErrInvalidState)
	}
	tr := ConflictTransition{HandlerUserID: &escalateToUserID}
	if err := m.store.TransitionConflict(ctx, conflictID, c.State, model.ConflictEscalated, tr); err != nil {
		return err
	}
	m.recordHistory(ctx, conflictID, c.State, model.ConflictEscalated, reason, &escalatorUserID, map[string]any{
		"escalated_to": escalateToUserID,
	})
	return nil
}

// CancelConflict abandons an active conflict. The reason is mandatory
// and is recorded as the resolution notes.
func (m *ConflictManager) CancelConflict(ctx context.Context, conflictID uint64, reason string, actorUserID uint64) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return fmt.Errorf("cancellation reason is required: %w", ErrValidation)
	}
	c, err := m.store.GetConflict(ctx, conflictID)
	if err != nil {
		return err
	}
	if !ConflictActive(c.State) {
		return fmt.Errorf("conflict %d is %s: %w", conflictID, c.State, ErrInvalidState)
	}
	tr := ConflictTransition{ResolutionNotes: &reason}
	if err := m.store.TransitionConflict(ctx, conflictID, c.State, model.ConflictCancelled, tr); err != nil {
		return err
	}
	m.recordHistory(ctx, conflictID, c.State, model.ConflictCancelled, reason, &actorUserID, nil)
	return nil
}

// AddCommunication appends an entry to the conflict's communication
// log. It is allowed in any state and never transitions the conflict.
func (m *ConflictManager) AddCommunication(ctx context.Context, conflictID uint64, entryType, participant, message, channel string) (*model.ConflictCommunication, error) {
	if strings.TrimSpace(entryType) == "" || strings.TrimSpace(message) == "" {
		return nil, fmt.Errorf("communication type and message are required: %w", ErrValidation)
	}
	if _, err := m.store.GetConflict(ctx, conflictID); err != nil {
		return nil, err
	}
	entry := &model.ConflictCommunication{
		ConflictID:  conflictID,
		Type:        entryType,
		Participant: participant,
		Message:     message,
		Channel:     channel,
		CreatedAt:   m.now().UTC(),
	}
	if err := m.store.AddCommunication(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// DetectAndCreateForEvent runs detection across the whole event and,
// when autoCreate is set, records a DETECTED conflict for every
// candidate whose booth has no active conflict yet. It returns how
// many candidates were detected and how many conflicts were created.
func (m *ConflictManager) DetectAndCreateForEvent(ctx context.Context, eventID uint64, autoCreate bool, actorUserID uint64) (DetectionResult, error) {
	var res DetectionResult
	candidates, err := m.detector.Detect(ctx, eventID, nil)
	if err != nil {
		return res, err
	}
	res.Detected = len(candidates)
	if !autoCreate {
		return res, nil
	}
	for _, cand := range candidates {
		created, err := m.createFromCandidate(ctx, cand, &actorUserID)
		if err != nil {
			return res, err
		}
		if created {
			res.Created++
		}
	}
	return res, nil
}

// RecordForBooth runs detection scoped to one booth and records a
// conflict when a candidate emerges. It implements ConflictRecorder
// for the request manager's post-create hook.
func (m *ConflictManager) RecordForBooth(ctx context.Context, eventID, boothID uint64) error {
	candidates, err := m.detector.Detect(ctx, eventID, &boothID)
	if err != nil {
		return err
	}
	for _, cand := range candidates {
		if cand.BoothID != boothID {
			continue
		}
		if _, err := m.createFromCandidate(ctx, cand, nil); err != nil {
			return err
		}
	}
	return nil
}

// createFromCandidate persists one detected candidate unless its booth
// already carries an active conflict. The pre-check avoids pointless
// transactions; the store repeats it inside the insert transaction and
// reports ErrConflictExists, which is treated as a benign skip.
func (m *ConflictManager) createFromCandidate(ctx context.Context, cand ConflictCandidate, actor *uint64) (bool, error) {
	exists, err := m.store.HasActiveConflict(ctx, cand.EventID, cand.BoothID)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}
	_, err = m.persistConflict(ctx, cand.EventID, cand.BoothID, model.DetectionAutomatic, nil, cand.Competitors, actor)
	if err != nil {
		if errors.Is(err, ErrConflictExists) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// recordHistory appends one ledger entry for a conflict transition.
// Failures are logged and never fail the primary operation.
func (m *ConflictManager) recordHistory(ctx context.Context, conflictID uint64, prev, next, reason string, actor *uint64, payload map[string]any) {
	var raw []byte
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			log.Printf("conflict-manager: marshal history payload for conflict %d: %v", conflictID, err)
		} else {
			raw = b
		}
	}
	entry := model.HistoryEntry{
		EntityType:    model.HistoryEntityConflict,
		EntityID:      conflictID,
		PreviousState: prev,
		NewState:      next,
		Reason:        reason,
		ActorUserID:   actor,
		Payload:       raw,
		CreatedAt:     m.now().UTC(),
	}
	if err := m.history.Append(ctx, entry); err != nil {
		log.Printf("conflict-manager: history append for conflict %d (%s -> %s) failed: %v", conflictID, prev, next, err)
	}
}
