package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/fairgrid/stand-assignment/internal/assignment"
	"github.com/fairgrid/stand-assignment/internal/model"
	"github.com/fairgrid/stand-assignment/internal/repository"
)

// ConflictHandler exposes the booth conflict lifecycle over HTTP.
type ConflictHandler struct {
	Manager      *assignment.ConflictManager
	ConflictRepo *repository.ConflictRepo
}

// NewConflictHandler constructs a ConflictHandler. All dependencies
// must be non-nil.
func NewConflictHandler(manager *assignment.ConflictManager, conflictRepo *repository.ConflictRepo) *ConflictHandler {
	if manager == nil || conflictRepo == nil {
		panic("nil dependency passed to NewConflictHandler")
	}
	return &ConflictHandler{Manager: manager, ConflictRepo: conflictRepo}
}

// conflictView is the wire shape of a conflict.
type conflictView struct {
	ID                uint64     `json:"id"`
	EventID           uint64     `json:"event_id"`
	BoothID           uint64     `json:"booth_id"`
	DetectionMethod   string     `json:"detection_method"`
	Severity          string     `json:"severity"`
	EstimatedImpact   string     `json:"estimated_impact"`
	State             string     `json:"state"`
	HandlerUserID     *uint64    `json:"handler_user_id,omitempty"`
	Deadline          *time.Time `json:"deadline,omitempty"`
	Overdue           bool       `json:"overdue"`
	WinnerExhibitorID *uint64    `json:"winner_exhibitor_id,omitempty"`
	Criterion         *string    `json:"criterion,omitempty"`
	ResolutionNotes   *string    `json:"resolution_notes,omitempty"`
	DetectedAt        time.Time  `json:"detected_at"`
	ResolvedAt        *time.Time `json:"resolved_at,omitempty"`
}

// competitorView is the wire shape of one competing request snapshot.
type competitorView struct {
	RequestID     uint64  `json:"request_id"`
	ExhibitorID   uint64  `json:"exhibitor_id"`
	ExhibitorName string  `json:"exhibitor_name"`
	PriorityScore int     `json:"priority_score"`
	Compensated   bool    `json:"compensated"`
	Offer         *string `json:"offer,omitempty"`
}

// communicationView is the wire shape of one communication log entry.
type communicationView struct {
	ID          uint64    `json:"id"`
	Type        string    `json:"type"`
	Participant string    `json:"participant,omitempty"`
	Message     string    `json:"message"`
	Channel     string    `json:"channel,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func toConflictView(c model.Conflict, now time.Time) conflictView {
	return conflictView{
		ID:                c.ID,
		EventID:           c.EventID,
		BoothID:           c.BoothID,
		DetectionMethod:   c.DetectionMethod,
		Severity:          c.Severity,
		EstimatedImpact:   c.EstimatedImpact,
		State:             c.State,
		HandlerUserID:     c.HandlerUserID,
		Deadline:          c.Deadline,
		Overdue:           c.Overdue(now),
		WinnerExhibitorID: c.WinnerExhibitorID,
		Criterion:         c.Criterion,
		ResolutionNotes:   c.ResolutionNotes,
		DetectedAt:        c.DetectedAt,
		ResolvedAt:        c.ResolvedAt,
	}
}

// Create handles POST /v1/conflicts: an organizer reporting contention
// manually.
func (h *ConflictHandler) Create(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body struct {
		EventID    uint64     `json:"event_id"`
		BoothID    uint64     `json:"booth_id"`
		RequestIDs []uint64   `json:"request_ids"`
		Deadline   *time.Time `json:"deadline"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.EventID == 0 || body.BoothID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "event_id and booth_id are required"})
	}
	conflict, err := h.Manager.CreateManual(c.Request().Context(), assignment.CreateConflictInput{
		EventID:    body.EventID,
		BoothID:    body.BoothID,
		RequestIDs: body.RequestIDs,
		Deadline:   body.Deadline,
	}, userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"item": toConflictView(*conflict, time.Now().UTC())})
}

// List handles GET /v1/conflicts?event_id=N, newest first.
func (h *ConflictHandler) List(c echo.Context) error {
	eventID, err := strconv.ParseUint(c.QueryParam("event_id"), 10, 64)
	if err != nil || eventID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "event_id query parameter is required"})
	}
	conflicts, err := h.ConflictRepo.ListByEvent(c.Request().Context(), eventID)
	if err != nil {
		return respondError(c, err)
	}
	now := time.Now().UTC()
	items := make([]conflictView, 0, len(conflicts))
	for _, cf := range conflicts {
		items = append(items, toConflictView(cf, now))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Get handles GET /v1/conflicts/:id and returns the conflict together
// with its competitor snapshots.
func (h *ConflictHandler) Get(c echo.Context) error {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid conflict id"})
	}
	conflict, err := h.ConflictRepo.GetByID(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	snapshots, err := h.ConflictRepo.ListRequests(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	competitors := make([]competitorView, 0, len(snapshots))
	for _, s := range snapshots {
		competitors = append(competitors, competitorView{
			RequestID:     s.RequestID,
			ExhibitorID:   s.ExhibitorID,
			ExhibitorName: s.ExhibitorName,
			PriorityScore: s.PriorityScore,
			Compensated:   s.Compensated,
			Offer:         s.Offer,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"item":        toConflictView(*conflict, time.Now().UTC()),
		"competitors": competitors,
	})
}

// Assign handles POST /v1/conflicts/:id/assign: hand the conflict to a
// user for resolution, optionally with a deadline.
func (h *ConflictHandler) Assign(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid conflict id"})
	}
	var body struct {
		HandlerUserID uint64     `json:"handler_user_id"`
		Deadline      *time.Time `json:"deadline"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.HandlerUserID == 0 {
		body.HandlerUserID = userID
	}
	if err := h.Manager.AssignForResolution(c.Request().Context(), id, body.HandlerUserID, body.Deadline); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"state": model.ConflictInResolution})
}

// Resolve handles POST /v1/conflicts/:id/resolve: names the winning
// exhibitor and the criterion; losers are rejected and compensated in
// the same transaction.
func (h *ConflictHandler) Resolve(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid conflict id"})
	}
	var body struct {
		WinnerExhibitorID uint64  `json:"winner_exhibitor_id"`
		Criterion         string  `json:"criterion"`
		Notes             *string `json:"notes"`
		CompensationOffer *string `json:"compensation_offer"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.WinnerExhibitorID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "winner_exhibitor_id is required"})
	}
	if err := h.Manager.Resolve(c.Request().Context(), id, body.WinnerExhibitorID, body.Criterion, body.Notes, body.CompensationOffer, userID); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"state": model.ConflictResolved})
}

// Escalate handles POST /v1/conflicts/:id/escalate. The reason is
// mandatory.
func (h *ConflictHandler) Escalate(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid conflict id"})
	}
	var body struct {
		EscalateToUserID uint64 `json:"escalate_to_user_id"`
		Reason           string `json:"reason"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.EscalateToUserID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "escalate_to_user_id is required"})
	}
	if err := h.Manager.Escalate(c.Request().Context(), id, body.EscalateToUserID, body.Reason, userID); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"state": model.ConflictEscalated})
}

// Cancel handles POST /v1/conflicts/:id/cancel. The reason is
// mandatory.
func (h *ConflictHandler) Cancel(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid conflict id"})
	}
	var body struct {
		Reason string `json:"reason"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if err := h.Manager.CancelConflict(c.Request().Context(), id, body.Reason, userID); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"state": model.ConflictCancelled})
}

// AddCommunication handles POST /v1/conflicts/:id/communications.
func (h *ConflictHandler) AddCommunication(c echo.Context) error {
	if _, err := getUserID(c); err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid conflict id"})
	}
	var body struct {
		Type        string `json:"type"`
		Participant string `json:"participant"`
		Message     string `json:"message"`
		Channel     string `json:"channel"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	entry, err := h.Manager.AddCommunication(c.Request().Context(), id, body.Type, body.Participant, body.Message, body.Channel)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"item": communicationView{
		ID:          entry.ID,
		Type:        entry.Type,
		Participant: entry.Participant,
		Message:     entry.Message,
		Channel:     entry.Channel,
		CreatedAt:   entry.CreatedAt,
	}})
}

// ListCommunications handles GET /v1/conflicts/:id/communications,
// oldest first.
func (h *ConflictHandler) ListCommunications(c echo.Context) error {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid conflict id"})
	}
	if _, err := h.ConflictRepo.GetByID(c.Request().Context(), id); err != nil {
		return respondError(c, err)
	}
	entries, err := h.ConflictRepo.ListCommunications(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	items := make([]communicationView, 0, len(entries))
	for _, e := range entries {
		items = append(items, communicationView{
			ID:          e.ID,
			Type:        e.Type,
			Participant: e.Participant,
			Message:     e.Message,
			Channel:     e.Channel,
			CreatedAt:   e.CreatedAt,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Detect handles POST /v1/conflicts/detect: run detection across an
// event. With "create": true every new candidate is persisted as a
// DETECTED conflict; otherwise the run is a dry count.
func (h *ConflictHandler) Detect(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body struct {
		EventID uint64 `json:"event_id"`
		Create  bool   `json:"create"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.EventID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "event_id is required"})
	}
	res, err := h.Manager.DetectAndCreateForEvent(c.Request().Context(), body.EventID, body.Create, userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}
