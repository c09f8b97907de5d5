package middleware // middleware provides shared request processing for handlers

import (
    "net/http"
    "strings"

    "github.com/golang-jwt/jwt/v5"
    "github.com/labstack/echo/v4"

    "github.com/agrolink/marketplace/internal/utils"
)

// JWTAuth returns an Echo middleware that validates a Bearer access
// token and injects the subject, username and role claims into the
// request context.  The secret must match the one used when issuing
// tokens.  Handlers behind this middleware read the authenticated user
// via c.Get("user_id"), c.Get("username") and c.Get("role").  Failed
// authentication answers 401 with a WWW-Authenticate: Bearer challenge.
func JWTAuth(secret string) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            auth := c.Request().Header.Get("Authorization")
            if !strings.HasPrefix(auth, "Bearer ") {
                return unauthorized(c, "missing bearer token")
            }
            raw := strings.TrimPrefix(auth, "Bearer ")

            tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
                // reject tokens signed with anything but HMAC
                if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
                    return nil, echo.ErrUnauthorized
                }
                return []byte(secret), nil
            })
            if err != nil || !tok.Valid {
                return unauthorized(c, "invalid token")
            }

            claims, ok := tok.Claims.(jwt.MapClaims)
            if !ok {
                return unauthorized(c, "invalid claims")
            }

            c.Set("user_id", claims["sub"])
            c.Set("username", claims["username"])
            c.Set("role", claims["role"])
            return next(c)
        }
    }
}

func unauthorized(c echo.Context, msg string) error {
    c.Response().Header().Set(echo.HeaderWWWAuthenticate, "Bearer")
    return utils.Fail(c, http.StatusUnauthorized, msg)
}
