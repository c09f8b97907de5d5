package middleware

import (
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/agrolink/marketplace/internal/utils"
)

// RequireRole enforces that the authenticated user has one of the given
// roles, as stored in the JWT's "role" claim.  It assumes JWTAuth has
// already put the role into the context; missing or unknown roles are
// rejected with 403.
func RequireRole(roles ...string) echo.MiddlewareFunc {
    allowed := make(map[string]bool, len(roles))
    for _, r := range roles {
        allowed[r] = true
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            role, ok := c.Get("role").(string)
            if !ok || !allowed[role] {
                return utils.Fail(c, http.StatusForbidden, "forbidden")
            }
            return next(c)
        }
    }
}
