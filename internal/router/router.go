// Package router defines how HTTP routes are registered for the API.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/volunteerhub/backend/internal/config"
	"github.com/volunteerhub/backend/internal/handler"
	"github.com/volunteerhub/backend/internal/middleware"
	"github.com/volunteerhub/backend/internal/model"
	"github.com/volunteerhub/backend/internal/repository"
)

// RegisterRoutes registers unauthenticated infrastructure routes: the
// health check and the static file tree backing media attachments.
// Served uploads are public and immutable, so they go through the
// response cache.
func RegisterRoutes(e *echo.Echo, uploadsDir string, rdb *redis.Client) {
	e.GET("/healthz", handler.Health)

	files := e.Group("/uploads", middleware.NewRedisCache(config.LoadCacheConfig(), rdb))
	files.Static("/", uploadsDir)
}

// RegisterAuth registers the credential endpoints.  Register and Login
// are the only write paths reachable without a token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler) {
	g := e.Group("/api/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
}

// API bundles the handlers mounted under /api.
type API struct {
	Cfg           config.Config
	Users         *repository.UserRepo
	Auth          *handler.AuthHandler
	Events        *handler.EventHandler
	AdminEvents   *handler.AdminEventHandler
	Registrations *handler.RegistrationHandler
	Posts         *handler.PostHandler
	Uploads       *handler.UploadHandler
	WebPush       *handler.WebPushHandler
}

// RegisterAPI mounts every authenticated route.  The middleware order
// matters: the rate limiter runs first so unauthenticated floods are
// cut before token parsing, then JWTAuth validates the bearer token and
// Identity resolves it to a stored user.
func RegisterAPI(e *echo.Echo, api API, rdb *redis.Client) {
	g := e.Group("/api")
	g.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
	g.Use(middleware.JWTAuth(api.Cfg.JWTSecret))
	g.Use(middleware.Identity(api.Users))

	g.GET("/me", api.Auth.Me)

	// Event lifecycle.
	g.POST("/events", api.Events.Create)
	g.GET("/events", api.Events.List)
	g.GET("/events/:id", api.Events.Get)
	g.PATCH("/events/:id", api.Events.Update)
	g.DELETE("/events/:id", api.Events.Delete)
	g.POST("/events/:id/submit", api.Events.Submit)

	// Volunteer side of registrations.
	g.POST("/registrations/:eventId/join", api.Registrations.Join)
	g.POST("/registrations/:eventId/cancel-join", api.Registrations.CancelJoin)

	// Event wall.
	g.GET("/events/:id/posts", api.Posts.ListByEvent)
	g.POST("/events/:id/posts", api.Posts.Create)
	g.GET("/posts/:id", api.Posts.Get)
	g.PATCH("/posts/:id", api.Posts.Update)
	g.DELETE("/posts/:id", api.Posts.Delete)
	g.POST("/posts/:id/react", api.Posts.React)
	g.GET("/posts/:id/reaction", api.Posts.GetReaction)

	// Owner side of registrations.
	g.GET("/registrations", api.Registrations.List)
	g.GET("/registrations/:id", api.Registrations.Get)
	g.DELETE("/registrations/:id", api.Registrations.Delete)
	g.POST("/registrations/:id/approve", api.Registrations.Approve)
	g.POST("/registrations/:id/reject", api.Registrations.Reject)
	g.POST("/registrations/:id/complete", api.Registrations.Complete)

	// Upload staging.
	g.POST("/uploads", api.Uploads.Stage)

	// Web push.  The VAPID key is identical for every caller, so that
	// one read goes through the response cache.
	wp := g.Group("/webpush")
	wp.GET("/public-key", api.WebPush.PublicKey, middleware.NewRedisCache(config.LoadCacheConfig(), rdb))
	wp.POST("/subscribe", api.WebPush.Subscribe)
	wp.POST("/verify-subscription", api.WebPush.VerifySubscription)
	wp.GET("/test", api.WebPush.Test)

	// Moderation, admins only.
	admin := g.Group("/admin")
	admin.Use(middleware.RequireRole(model.RoleAdmin))
	admin.POST("/events/:id/approve", api.AdminEvents.Approve)
	admin.POST("/events/:id/reject", api.AdminEvents.Reject)
}
