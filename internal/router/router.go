package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/exitboard/exitboard/internal/config"
	"github.com/exitboard/exitboard/internal/handler"
	"github.com/exitboard/exitboard/internal/middleware"
	"github.com/exitboard/exitboard/internal/model"
	"github.com/exitboard/exitboard/internal/repository"
)

// Deps bundles everything route registration needs.
type Deps struct {
	Cfg   config.Config
	Auth  *handler.AuthHandler
	Admin *handler.AdminHandler
	Jobs  *handler.JobHandler
	Users *repository.UserRepo
	Redis *redis.Client
}

// Register wires up every route.  The layout mirrors the trust levels:
//
//   /healthz                  – unauthenticated probe
//   /v1/auth/*                – sign-up/sign-in, rate limited
//   /v1/jobs (GET)            – public browse, cached
//   /v1/* (rest)              – behind SessionGate
//   /v1/admin/*               – behind SessionGate + RequireRole(ADMIN)
func Register(e *echo.Echo, d Deps) {
	e.GET("/healthz", handler.Health)

	// Public auth endpoints.  The token bucket sits only here: these are
	// the routes where request volume translates into guessing attempts.
	authGroup := e.Group("/v1/auth")
	authGroup.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), d.Redis))
	authGroup.POST("/signup", d.Auth.Signup)
	authGroup.POST("/signin", d.Auth.Signin)

	// Public job browsing, served through the response cache.
	browse := e.Group("/v1/jobs")
	browse.Use(middleware.CachePublic(config.LoadCacheConfig(), d.Redis))
	browse.GET("", d.Jobs.List)
	browse.GET("/:id", d.Jobs.Get)
	e.POST("/v1/jobs/:id/view", d.Jobs.View)

	// Everything below re-runs the full session check on each request.
	gate := middleware.SessionGate(d.Cfg.JWTSecret, d.Users)

	protected := e.Group("/v1", gate)
	protected.GET("/auth/session", d.Auth.Session)
	protected.GET("/me", d.Auth.Me)
	protected.PUT("/users/profile", d.Auth.UpdateProfile)
	protected.DELETE("/auth/account", d.Auth.DeleteAccount)

	protected.POST("/jobs", d.Jobs.Create)
	protected.GET("/jobs/my-listings", d.Jobs.MyListings)
	protected.PUT("/jobs/:id", d.Jobs.Update)
	protected.PATCH("/jobs/:id/status", d.Jobs.UpdateStatus)
	protected.DELETE("/jobs/:id", d.Jobs.Delete)
	protected.POST("/jobs/:id/apply", d.Jobs.Apply)

	admin := e.Group("/v1/admin", gate, middleware.RequireRole(model.RoleAdmin))
	admin.GET("/users", d.Admin.ListUsers)
	admin.GET("/users/:id", d.Admin.GetUser)
	admin.PATCH("/users/:id", d.Admin.UpdateUser)
	admin.POST("/force-logout", d.Admin.ForceLogout)
}
