package middleware

import (
	"fmt"

	"github.com/labstack/echo/v4"
)

// identityKey renders the authenticated user id stored by JWTAuth into
// a stable string for use in rate-limit keys. Unauthenticated requests
// share the "anon" bucket.
func identityKey(c echo.Context) string {
	v := c.Get("user_id")
	if v == nil {
		return "anon"
	}
	if s, ok := v.(string); ok {
		if s == "" {
			return "anon"
		}
		return s
	}
	return fmt.Sprint(v)
}
