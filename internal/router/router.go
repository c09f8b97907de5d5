// Package router defines how HTTP routes are registered for the API.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/agrolink/marketplace/internal/config"
	"github.com/agrolink/marketplace/internal/handler"
	"github.com/agrolink/marketplace/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication on
// the provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	// Used by load balancers and monitoring to verify the service is up.
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the register and login endpoints plus the
// authenticated /v1/me profile route.  A Redis-backed token bucket in
// front of the credential endpoints slows brute-force attempts; with no
// Redis client the limiter is a no-op and requests pass through.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string, rdb *redis.Client, rl config.RateLimitConfig) {
	g := e.Group("/v1/user", middleware.NewTokenBucket(rl, rdb))
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)

	auth := e.Group("/v1", middleware.JWTAuth(jwtSecret))
	auth.GET("/me", a.Me)
}
