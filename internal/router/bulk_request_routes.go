package router

import (
	"github.com/labstack/echo/v4"

	"github.com/agrolink/marketplace/internal/handler"
	"github.com/agrolink/marketplace/internal/middleware"
	"github.com/agrolink/marketplace/internal/model"
)

// RegisterBulkRequests registers the demand board and the pledge
// lifecycle under /v1/bulk-request.  Every route requires a JWT; role
// gates split buyer-side and farmer-side operations, and ownership is
// re-checked inside the handlers.
func RegisterBulkRequests(e *echo.Echo, br *handler.BulkRequestHandler, pl *handler.PledgeHandler, jwtSecret string) {
	g := e.Group("/v1/bulk-request", middleware.JWTAuth(jwtSecret))

	// visible to every authenticated role; business callers are pinned
	// to their own requests inside the handler
	g.GET("", br.List)
	g.GET("/:id", br.Get)
	g.GET("/:id/pledge", pl.List)

	// buyer side
	buyer := g.Group("", middleware.RequireRole(model.RoleBusiness))
	buyer.POST("", br.Create)
	buyer.POST("/:id/close", br.Close)
	buyer.POST("/:id/pledge/:pledgeID/accept", pl.Accept)
	buyer.POST("/:id/pledge/:pledgeID/reject", pl.Reject)
	buyer.POST("/:id/pledge/:pledgeID/fulfill", pl.Fulfill)

	// farmer side
	farmer := g.Group("", middleware.RequireRole(model.RoleSeller))
	farmer.POST("/:id/pledge", pl.Create)
	farmer.POST("/:id/pledge/:pledgeID/cancel", pl.Cancel)
}
