package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/agrolink/marketplace/internal/config"
	"github.com/agrolink/marketplace/internal/handler"
	"github.com/agrolink/marketplace/internal/middleware"
	"github.com/agrolink/marketplace/internal/model"
)

// RegisterProducts registers the product catalog.  Browsing is public
// and served through the Redis response cache; mutations require a JWT
// with the seller role, and ownership is enforced in the handlers.
func RegisterProducts(e *echo.Echo, p *handler.ProductHandler, jwtSecret string, rdb *redis.Client, cc config.CacheConfig) {
	cache := middleware.NewRedisCache(cc, rdb)

	pub := e.Group("/v1/product", cache)
	pub.GET("", p.List)
	pub.GET("/category", p.Categories)

	seller := e.Group(
		"/v1/product",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleSeller),
	)
	seller.GET("/user-products", p.UserProducts)
	seller.POST("", p.Create)
	seller.PATCH("/:id", p.Patch)
	seller.DELETE("/:id", p.Delete)
}
