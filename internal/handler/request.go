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

// RequestHandler exposes the assignment request lifecycle over HTTP.
// Lifecycle mutations go through the RequestManager; listings read the
// repository directly.
type RequestHandler struct {
	Manager     *assignment.RequestManager
	RequestRepo *repository.RequestRepo
}

// NewRequestHandler constructs a RequestHandler. All dependencies must
// be non-nil.
func NewRequestHandler(manager *assignment.RequestManager, requestRepo *repository.RequestRepo) *RequestHandler {
	if manager == nil || requestRepo == nil {
		panic("nil dependency passed to NewRequestHandler")
	}
	return &RequestHandler{Manager: manager, RequestRepo: requestRepo}
}

// requestView is the wire shape of an assignment request.
type requestView struct {
	ID               uint64     `json:"id"`
	ExhibitorID      uint64     `json:"exhibitor_id"`
	EventID          uint64     `json:"event_id"`
	RequestedBoothID *uint64    `json:"requested_booth_id,omitempty"`
	AssignedBoothID  *uint64    `json:"assigned_booth_id,omitempty"`
	Modality         string     `json:"modality"`
	PriorityScore    int        `json:"priority_score"`
	State            string     `json:"state"`
	Reason           string     `json:"reason,omitempty"`
	RejectionReason  *string    `json:"rejection_reason,omitempty"`
	CancelReason     *string    `json:"cancel_reason,omitempty"`
	PriceCents       *uint32    `json:"price_cents,omitempty"`
	DiscountPercent  *uint32    `json:"discount_percent,omitempty"`
	RequestedAt      time.Time  `json:"requested_at"`
	ReviewedAt       *time.Time `json:"reviewed_at,omitempty"`
	AssignedAt       *time.Time `json:"assigned_at,omitempty"`
}

func toRequestView(r model.AssignmentRequest) requestView {
	return requestView{
		ID:               r.ID,
		ExhibitorID:      r.ExhibitorID,
		EventID:          r.EventID,
		RequestedBoothID: r.RequestedBoothID,
		AssignedBoothID:  r.AssignedBoothID,
		Modality:         r.Modality,
		PriorityScore:    r.PriorityScore,
		State:            r.State,
		Reason:           r.Reason,
		RejectionReason:  r.RejectionReason,
		CancelReason:     r.CancelReason,
		PriceCents:       r.PriceCents,
		DiscountPercent:  r.DiscountPercent,
		RequestedAt:      r.RequestedAt,
		ReviewedAt:       r.ReviewedAt,
		AssignedAt:       r.AssignedAt,
	}
}

// Create handles POST /v1/requests. The exhibitor id is taken from the
// request body so organizers can file on behalf of exhibitors; when
// absent it defaults to the authenticated user.
func (h *RequestHandler) Create(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body struct {
		ExhibitorID   uint64  `json:"exhibitor_id"`
		EventID       uint64  `json:"event_id"`
		TargetBoothID *uint64 `json:"target_booth_id"`
		Modality      string  `json:"modality"`
		Reason        string  `json:"reason"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.EventID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "event_id is required"})
	}
	if body.ExhibitorID == 0 {
		body.ExhibitorID = userID
	}
	req, err := h.Manager.Create(c.Request().Context(), assignment.CreateRequestInput{
		ExhibitorID:   body.ExhibitorID,
		EventID:       body.EventID,
		TargetBoothID: body.TargetBoothID,
		Modality:      body.Modality,
		Reason:        body.Reason,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"item": toRequestView(*req)})
}

// List handles GET /v1/requests?event_id=N. It returns every request
// for the event, newest first.
func (h *RequestHandler) List(c echo.Context) error {
	eventID, err := strconv.ParseUint(c.QueryParam("event_id"), 10, 64)
	if err != nil || eventID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "event_id query parameter is required"})
	}
	requests, err := h.RequestRepo.ListByEvent(c.Request().Context(), eventID)
	if err != nil {
		return respondError(c, err)
	}
	items := make([]requestView, 0, len(requests))
	for _, r := range requests {
		items = append(items, toRequestView(r))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Get handles GET /v1/requests/:id.
func (h *RequestHandler) Get(c echo.Context) error {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request id"})
	}
	req, err := h.RequestRepo.GetByID(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"item": toRequestView(*req)})
}

// StartReview handles POST /v1/requests/:id/review.
func (h *RequestHandler) StartReview(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request id"})
	}
	if err := h.Manager.StartReview(c.Request().Context(), id, userID); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"state": model.RequestInReview})
}

// Approve handles POST /v1/requests/:id/approve.
func (h *RequestHandler) Approve(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request id"})
	}
	var body struct {
		Notes string `json:"notes"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if err := h.Manager.Approve(c.Request().Context(), id, userID, body.Notes); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"state": model.RequestApproved})
}

// Reject handles POST /v1/requests/:id/reject. The reason is
// mandatory.
func (h *RequestHandler) Reject(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request id"})
	}
	var body struct {
		Reason string `json:"reason"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if err := h.Manager.Reject(c.Request().Context(), id, userID, body.Reason); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"state": model.RequestRejected})
}

// Assign handles POST /v1/requests/:id/assign. It grants the booth,
// flips its disposition to reserved and records the economic terms.
func (h *RequestHandler) Assign(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request id"})
	}
	var body struct {
		BoothID         uint64  `json:"booth_id"`
		PriceCents      *uint32 `json:"price_cents"`
		DiscountPercent *uint32 `json:"discount_percent"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.BoothID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "booth_id is required"})
	}
	req, err := h.Manager.AssignBooth(c.Request().Context(), id, body.BoothID, userID, body.PriceCents, body.DiscountPercent)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"item": toRequestView(*req)})
}

// Cancel handles POST /v1/requests/:id/cancel. The reason is
// mandatory; assigned requests cannot be cancelled.
func (h *RequestHandler) Cancel(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request id"})
	}
	var body struct {
		Reason string `json:"reason"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if err := h.Manager.Cancel(c.Request().Context(), id, userID, body.Reason); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"state": model.RequestCancelled})
}
