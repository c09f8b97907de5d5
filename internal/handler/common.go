package handler // handler defines http handlers

import (
	"errors"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
)

// getUserID extracts the user_id claim from echo.Context as uint64.
// JWT numeric claims arrive as float64; tests may set native ints.
func getUserID(c echo.Context) (uint64, error) {
	switch t := c.Get("user_id").(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// getRole extracts the role claim from echo.Context.
func getRole(c echo.Context) string {
	if s, ok := c.Get("role").(string); ok {
		return s
	}
	return ""
}

// pageParams parses 1-indexed page and limit query parameters with
// defaults, rejecting non-positive values by falling back.
func pageParams(c echo.Context) (page, limit int) {
	page, limit = 1, 10
	if n, err := strconv.Atoi(c.QueryParam("page")); err == nil && n > 0 {
		page = n
	}
	if n, err := strconv.Atoi(c.QueryParam("limit")); err == nil && n > 0 {
		limit = n
	}
	return page, limit
}

// queryFloat returns the named query parameter as *float64, nil when
// absent or malformed.
func queryFloat(c echo.Context, name string) *float64 {
	s := strings.TrimSpace(c.QueryParam(name))
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &f
}

// queryUint returns the named query parameter as *uint64, nil when
// absent or malformed.
func queryUint(c echo.Context, name string) *uint64 {
	s := strings.TrimSpace(c.QueryParam(name))
	if s == "" {
		return nil
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return nil
	}
	return &n
}

// queryBool returns the named query parameter as *bool, nil when absent
// or malformed.
func queryBool(c echo.Context, name string) *bool {
	switch strings.ToLower(strings.TrimSpace(c.QueryParam(name))) {
	case "true", "1":
		b := true
		return &b
	case "false", "0":
		b := false
		return &b
	}
	return nil
}
