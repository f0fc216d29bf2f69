package assignment

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/fairgrid/stand-assignment/internal/model"
)

// ConflictRecorder is the narrow slice of the conflict manager used by
// request creation: after a request naming a target booth is
// persisted, detection runs for that booth and records a conflict when
// two or more active requests now compete for it.
type ConflictRecorder interface {
	RecordForBooth(ctx context.Context, eventID, boothID uint64) error
}

// CreateRequestInput carries the inputs of RequestManager.Create.
type CreateRequestInput struct {
	ExhibitorID   uint64
	EventID       uint64
	TargetBoothID *uint64
	Modality      string
	Reason        string
}

// RequestManager owns the lifecycle of assignment requests: creation
// with priority scoring, the review decisions, booth assignment and
// cancellation. All validation failures are detected before any write;
// multi-entity writes run inside a single store transaction.
type RequestManager struct {
	store      Store
	exhibitors ExhibitorDirectory
	events     EventDirectory
	gate       *AvailabilityGate
	scorer     *Scorer
	history    HistorySink
	publisher  Publisher
	conflicts  ConflictRecorder
	now        func() time.Time
}

// NewRequestManager constructs a RequestManager. The publisher and
// conflict recorder may be nil; the corresponding side effects are
// then skipped.
func NewRequestManager(store Store, exhibitors ExhibitorDirectory, events EventDirectory, gate *AvailabilityGate, scorer *Scorer, history HistorySink) *RequestManager {
	if store == nil || exhibitors == nil || events == nil || gate == nil || scorer == nil || history == nil {
		panic("nil dependency passed to NewRequestManager")
	}
	return &RequestManager{
		store:      store,
		exhibitors: exhibitors,
		events:     events,
		gate:       gate,
		scorer:     scorer,
		history:    history,
		now:        time.Now,
	}
}

// SetPublisher wires the post-commit event publisher.
func (m *RequestManager) SetPublisher(p Publisher) { m.publisher = p }

// SetConflictRecorder wires automatic conflict detection after request
// creation.
func (m *RequestManager) SetConflictRecorder(r ConflictRecorder) { m.conflicts = r }

func validModality(s string) bool {
	switch s {
	case model.ModalityDirectSelection, model.ModalityManual, model.ModalityAutomatic:
		return true
	}
	return false
}

// Create validates and persists a new assignment request in state
// REQUESTED. The priority score is computed here, once, from the
// exhibitor's current attributes. When a target booth is named,
// conflict detection runs for that booth after the insert commits;
// detection failures are logged and never undo the creation.
func (m *RequestManager) Create(ctx context.Context, in CreateRequestInput) (*model.AssignmentRequest, error) {
	if !validModality(in.Modality) {
		return nil, fmt.Errorf("modality %q: %w", in.Modality, ErrValidation)
	}

	exists, err := m.events.EventExists(ctx, in.EventID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("event %d: %w", in.EventID, ErrNotFound)
	}

	ex, err := m.exhibitors.GetExhibitor(ctx, in.ExhibitorID)
	if err != nil {
		return nil, err
	}
	if ex.Status != model.ExhibitorApproved {
		return nil, fmt.Errorf("exhibitor %d is %s: %w", in.ExhibitorID, ex.Status, ErrNotApproved)
	}

	dup, err := m.store.HasActiveRequest(ctx, in.ExhibitorID, in.EventID)
	if err != nil {
		return nil, err
	}
	if dup {
		return nil, fmt.Errorf("exhibitor %d, event %d: %w", in.ExhibitorID, in.EventID, ErrDuplicateRequest)
	}

	if in.TargetBoothID != nil {
		if err := m.gate.Check(ctx, in.EventID, *in.TargetBoothID); err != nil {
			return nil, err
		}
	}

	req := &model.AssignmentRequest{
		ExhibitorID:      in.ExhibitorID,
		EventID:          in.EventID,
		RequestedBoothID: in.TargetBoothID,
		Modality:         in.Modality,
		PriorityScore:    m.scorer.Score(*ex),
		State:            model.RequestRequested,
		Reason:           strings.TrimSpace(in.Reason),
		RequestedAt:      m.now().UTC(),
	}
	// CreateRequest repeats the duplicate check inside its transaction
	// so two racing creates for the same pair cannot both land.
	if err := m.store.CreateRequest(ctx, req); err != nil {
		return nil, err
	}

	m.recordHistory(ctx, model.HistoryEntityRequest, req.ID, "", model.RequestRequested, req.Reason, &in.ExhibitorID, map[string]any{
		"priority_score": req.PriorityScore,
		"modality":       req.Modality,
	})

	if in.TargetBoothID != nil && m.conflicts != nil {
		if err := m.conflicts.RecordForBooth(ctx, in.EventID, *in.TargetBoothID); err != nil {
			log.Printf("request-manager: conflict detection after create of request %d failed: %v", req.ID, err)
		}
	}
	return req, nil
}

// StartReview moves a REQUESTED request into IN_REVIEW. Review is an
// optional intermediate step; Approve and Reject also accept requests
// directly from REQUESTED.
func (m *RequestManager) StartReview(ctx context.Context, requestID, reviewerUserID uint64) error {
	req, err := m.store.GetRequest(ctx, requestID)
	if err != nil {
		return err
	}
	if !RequestTransitionAllowed(req.State, model.RequestInReview) {
		return fmt.Errorf("request %d is %s: %w", requestID, req.State, ErrInvalidState)
	}
	if err := m.store.TransitionRequest(ctx, requestID, req.State, model.RequestInReview, RequestTransition{ActorUserID: reviewerUserID}); err != nil {
		return err
	}
	m.recordHistory(ctx, model.HistoryEntityRequest, requestID, req.State, model.RequestInReview, "", &reviewerUserID, nil)
	return nil
}

// Approve moves a REQUESTED or IN_REVIEW request into APPROVED and
// records the reviewer. Notes are optional and land in the history
// ledger only.
func (m *RequestManager) Approve(ctx context.Context, requestID, reviewerUserID uint64, notes string) error {
	req, err := m.store.GetRequest(ctx, requestID)
	if err != nil {
		return err
	}
	if !RequestTransitionAllowed(req.State, model.RequestApproved) {
		return fmt.Errorf("request %d is %s: %w", requestID, req.State, ErrInvalidState)
	}
	at := m.now().UTC()
	tr := RequestTransition{ActorUserID: reviewerUserID, ReviewedAt: &at}
	if err := m.store.TransitionRequest(ctx, requestID, req.State, model.RequestApproved, tr); err != nil {
		return err
	}
	m.recordHistory(ctx, model.HistoryEntityRequest, requestID, req.State, model.RequestApproved, notes, &reviewerUserID, nil)
	return nil
}

// Reject moves a REQUESTED or IN_REVIEW request into REJECTED. The
// reason is mandatory.
func (m *RequestManager) Reject(ctx context.Context, requestID, reviewerUserID uint64, reason string) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return fmt.Errorf("rejection reason is required: %w", ErrValidation)
	}
	req, err := m.store.GetRequest(ctx, requestID)
	if err != nil {
		return err
	}
	if !RequestTransitionAllowed(req.State, model.RequestRejected) {
		return fmt.Errorf("request %d is %s: %w", requestID, req.State, ErrInvalidState)
	}
	at := m.now().UTC()
	tr := RequestTransition{ActorUserID: reviewerUserID, ReviewedAt: &at, RejectionReason: &reason}
	if err := m.store.TransitionRequest(ctx, requestID, req.State, model.RequestRejected, tr); err != nil {
		return err
	}
	m.recordHistory(ctx, model.HistoryEntityRequest, requestID, req.State, model.RequestRejected, reason, &reviewerUserID, nil)
	return nil
}

// AssignBooth grants a booth to an APPROVED request. The availability
// gate runs twice: once here as a synchronous pre-check and once more
// inside the store transaction that writes the ASSIGNED state and
// flips the booth disposition to RESERVED, so two concurrent assigns
// for the same booth cannot both succeed.
func (m *RequestManager) AssignBooth(ctx context.Context, requestID, boothID, assignerUserID uint64, priceCents, discountPercent *uint32) (*model.AssignmentRequest, error) {
	req, err := m.store.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if !RequestTransitionAllowed(req.State, model.RequestAssigned) {
		return nil, fmt.Errorf("request %d is %s: %w", requestID, req.State, ErrInvalidState)
	}
	if err := m.gate.Check(ctx, req.EventID, boothID); err != nil {
		return nil, err
	}

	updated, err := m.store.AssignBooth(ctx, AssignBoothParams{
		RequestID:       requestID,
		EventID:         req.EventID,
		BoothID:         boothID,
		AssignerUserID:  assignerUserID,
		PriceCents:      priceCents,
		DiscountPercent: discountPercent,
		AssignedAt:      m.now().UTC(),
	})
	if err != nil {
		return nil, err
	}

	payload := map[string]any{"booth_id": boothID}
	if priceCents != nil {
		payload["price_cents"] = *priceCents
	}
	if discountPercent != nil {
		payload["discount_percent"] = *discountPercent
	}
	m.recordHistory(ctx, model.HistoryEntityRequest, requestID, req.State, model.RequestAssigned, "", &assignerUserID, payload)

	if m.publisher != nil {
		if err := m.publisher.RequestAssigned(ctx, updated); err != nil {
			log.Printf("request-manager: publish assigned event for request %d failed: %v", requestID, err)
		}
	}
	return updated, nil
}

// Cancel withdraws a request that has not yet been assigned. Assigned
// requests must go through reassignment instead; terminal requests
// cannot be cancelled again. The reason is mandatory.
func (m *RequestManager) Cancel(ctx context.Context, requestID, actorUserID uint64, reason string) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return fmt.Errorf("cancellation reason is required: %w", ErrValidation)
	}
	req, err := m.store.GetRequest(ctx, requestID)
	if err != nil {
		return err
	}
	if !RequestTransitionAllowed(req.State, model.RequestCancelled) {
		return fmt.Errorf("request %d is %s: %w", requestID, req.State, ErrInvalidState)
	}
	tr := RequestTransition{ActorUserID: actorUserID, CancelReason: &reason}
	if err := m.store.TransitionRequest(ctx, requestID, req.State, model.RequestCancelled, tr); err != nil {
		return err
	}
	m.recordHistory(ctx, model.HistoryEntityRequest, requestID, req.State, model.RequestCancelled, reason, &actorUserID, nil)
	return nil
}

// recordHistory appends one ledger entry. Failures are logged as
// warnings and never fail the primary operation.
func (m *RequestManager) recordHistory(ctx context.Context, entityType string, entityID uint64, prev, next, reason string, actor *uint64, payload map[string]any) {
	var raw []byte
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			log.Printf("request-manager: marshal history payload for %s %d: %v", entityType, entityID, err)
		} else {
			raw = b
		}
	}
	entry := model.HistoryEntry{
		EntityType:    entityType,
		EntityID:      entityID,
		PreviousState: prev,
		NewState:      next,
		Reason:        reason,
		ActorUserID:   actor,
		Payload:       raw,
		CreatedAt:     m.now().UTC(),
	}
	if err := m.history.Append(ctx, entry); err != nil {
		log.Printf("request-manager: history append for %s %d (%s -> %s) failed: %v", entityType, entityID, prev, next, err)
	}
}
