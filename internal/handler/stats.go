package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/fairgrid/stand-assignment/internal/repository"
)

// StatsHandler serves the per-event dashboard figures. The routes are
// wrapped by the response cache middleware, so repeated reads within
// the cache TTL never hit the database.
type StatsHandler struct {
	RequestRepo  *repository.RequestRepo
	ConflictRepo *repository.ConflictRepo
	BoothRepo    *repository.BoothRepo
	EventRepo    *repository.EventRepo
}

// NewStatsHandler constructs a StatsHandler. All dependencies must be
// non-nil.
func NewStatsHandler(requests *repository.RequestRepo, conflicts *repository.ConflictRepo, booths *repository.BoothRepo, events *repository.EventRepo) *StatsHandler {
	if requests == nil || conflicts == nil || booths == nil || events == nil {
		panic("nil dependency passed to NewStatsHandler")
	}
	return &StatsHandler{RequestRepo: requests, ConflictRepo: conflicts, BoothRepo: booths, EventRepo: events}
}

func parseEventIDQuery(c echo.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.QueryParam("event_id"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}

// EventStats handles GET /v1/stats?event_id=N. It aggregates request
// and conflict counts by state, the overdue conflict count and the
// average resolution time in seconds.
func (h *StatsHandler) EventStats(c echo.Context) error {
	eventID, ok := parseEventIDQuery(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "event_id query parameter is required"})
	}
	ctx := c.Request().Context()
	if _, err := h.EventRepo.GetByID(ctx, eventID); err != nil {
		return respondError(c, err)
	}
	requestCounts, err := h.RequestRepo.CountByState(ctx, eventID)
	if err != nil {
		return respondError(c, err)
	}
	conflictCounts, err := h.ConflictRepo.CountByState(ctx, eventID)
	if err != nil {
		return respondError(c, err)
	}
	overdue, err := h.ConflictRepo.OverdueCount(ctx, eventID, time.Now().UTC())
	if err != nil {
		return respondError(c, err)
	}
	avgSeconds, err := h.ConflictRepo.AvgResolutionSeconds(ctx, eventID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"event_id":               eventID,
		"requests_by_state":      requestCounts,
		"conflicts_by_state":     conflictCounts,
		"overdue_conflicts":      overdue,
		"avg_resolution_seconds": avgSeconds,
	})
}

// ListBooths handles GET /v1/booths?event_id=N: every booth allocated
// to the event with its current disposition.
func (h *StatsHandler) ListBooths(c echo.Context) error {
	eventID, ok := parseEventIDQuery(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "event_id query parameter is required"})
	}
	ctx := c.Request().Context()
	if _, err := h.EventRepo.GetByID(ctx, eventID); err != nil {
		return respondError(c, err)
	}
	booths, err := h.BoothRepo.ListByEvent(ctx, eventID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": booths})
}
