// Package router wires HTTP routes to their handlers and middleware.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/fairgrid/stand-assignment/internal/config"
	"github.com/fairgrid/stand-assignment/internal/handler"
	"github.com/fairgrid/stand-assignment/internal/middleware"
)

// Handlers bundles the handler set registered on the API.
type Handlers struct {
	Requests  *handler.RequestHandler
	Conflicts *handler.ConflictHandler
	Stats     *handler.StatsHandler
}

// RegisterRoutes registers the unauthenticated routes. Only the health
// check lives outside the protected group.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAPI registers the protected /v1 surface. Every route runs
// through JWT authentication and the Redis token-bucket limiter; read
// routes additionally pass the response cache and every mutation
// purges it. Exhibitors may file, inspect and cancel their requests;
// the review, assignment and conflict lifecycles are restricted to
// organizers and admins.
func RegisterAPI(e *echo.Echo, h Handlers, jwtSecret string, rdb *redis.Client) {
	rateCfg := config.LoadRateLimitConfig()
	cacheCfg := config.LoadCacheConfig()

	v1 := e.Group("/v1")
	v1.Use(middleware.JWTAuth(jwtSecret))
	v1.Use(middleware.RequireRole(middleware.RoleOrganizer, middleware.RoleExhibitor, middleware.RoleAdmin))
	v1.Use(middleware.NewTokenBucket(rateCfg, rdb))
	v1.Use(middleware.NewCacheInvalidator(cacheCfg, rdb))

	cached := middleware.NewRedisCache(cacheCfg, rdb)
	staff := middleware.RequireRole(middleware.RoleOrganizer, middleware.RoleAdmin)

	// Assignment requests.
	v1.POST("/requests", h.Requests.Create)
	v1.GET("/requests", h.Requests.List)
	v1.GET("/requests/:id", h.Requests.Get)
	v1.POST("/requests/:id/review", h.Requests.StartReview, staff)
	v1.POST("/requests/:id/approve", h.Requests.Approve, staff)
	v1.POST("/requests/:id/reject", h.Requests.Reject, staff)
	v1.POST("/requests/:id/assign", h.Requests.Assign, staff)
	v1.POST("/requests/:id/cancel", h.Requests.Cancel)

	// Booth conflicts.
	v1.POST("/conflicts", h.Conflicts.Create, staff)
	v1.GET("/conflicts", h.Conflicts.List, staff)
	v1.GET("/conflicts/:id", h.Conflicts.Get, staff)
	v1.POST("/conflicts/detect", h.Conflicts.Detect, staff)
	v1.POST("/conflicts/:id/assign", h.Conflicts.Assign, staff)
	v1.POST("/conflicts/:id/resolve", h.Conflicts.Resolve, staff)
	v1.POST("/conflicts/:id/escalate", h.Conflicts.Escalate, staff)
	v1.POST("/conflicts/:id/cancel", h.Conflicts.Cancel, staff)
	v1.POST("/conflicts/:id/communications", h.Conflicts.AddCommunication, staff)
	v1.GET("/conflicts/:id/communications", h.Conflicts.ListCommunications, staff)

	// Read-heavy dashboard routes behind the response cache.
	v1.GET("/stats", h.Stats.EventStats, cached)
	v1.GET("/booths", h.Stats.ListBooths, cached)
}
