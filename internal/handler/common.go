// Package handler contains the Echo HTTP handlers. Handlers stay
// thin: they bind and validate the wire shape, call into the
// assignment managers or repositories, and translate the core's error
// taxonomy into HTTP status codes. JWT authentication and role
// enforcement run in middleware before any handler executes.
package handler

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/fairgrid/stand-assignment/internal/assignment"
)

// getUserID extracts the authenticated user id placed into the context
// by the JWT middleware.
func getUserID(c echo.Context) (uint64, error) {
	v := c.Get("user_id")
	switch t := v.(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// parseIDParam parses a positive uint64 path parameter.
func parseIDParam(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}

// respondError maps the core's error taxonomy onto HTTP status codes.
// Taxonomy errors surface their wrapped detail (offending id and
// state) so callers can present an actionable message; anything
// unclassified is logged and hidden behind a generic 500.
func respondError(c echo.Context, err error) error {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, assignment.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, assignment.ErrNotApproved):
		status = http.StatusForbidden
	case errors.Is(err, assignment.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, assignment.ErrInvalidWinner):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, assignment.ErrDuplicateRequest),
		errors.Is(err, assignment.ErrBoothUnavailable),
		errors.Is(err, assignment.ErrInvalidState),
		errors.Is(err, assignment.ErrAlreadyResolved),
		errors.Is(err, assignment.ErrConflictExists):
		status = http.StatusConflict
	}
	if status == http.StatusInternalServerError {
		log.Printf("handler: %s %s failed: %v", c.Request().Method, c.Path(), err)
		return c.JSON(status, echo.Map{"error": "internal error"})
	}
	return c.JSON(status, echo.Map{"error": err.Error()})
}
