package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/agrolink/marketplace/internal/utils"
)

// Health answers liveness probes.
func Health(c echo.Context) error {
	return utils.Respond(c, http.StatusOK, "ok", map[string]string{"status": "up"})
}
