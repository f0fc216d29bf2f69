package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Platform roles carried in the JWT "role" claim.
const (
	RoleOrganizer = "ORGANIZER"
	RoleExhibitor = "EXHIBITOR"
	RoleAdmin     = "ADMIN"
)

// RequireRole rejects with 403 any request whose authenticated role is
// not in the allowed set. It assumes JWTAuth already stored the role in
// the context.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, ok := c.Get("role").(string)
			if !ok || !allowed[role] {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
			}
			return next(c)
		}
	}
}
