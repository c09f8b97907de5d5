package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/agrolink/marketplace/internal/model"
)

// newTestContext builds an echo context around a JSON request, returning
// the recorder for response assertions.
func newTestContext(t *testing.T, method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

// asUser injects the claims the JWT middleware would have set.
func asUser(c echo.Context, userID uint64, role string) {
	c.Set("user_id", userID)
	c.Set("username", "testuser")
	c.Set("role", role)
}

// errDuplicate fakes the MySQL 1062 duplicate-key error for a column.
func errDuplicate(key string) error {
	return fmt.Errorf("Error 1062 (23000): Duplicate entry 'x' for key 'users.%s'", key)
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

// mockBulkRequestRows mirrors the bulk_requests column list used by the
// repository scans.
func mockBulkRequestRows(id, buyerID uint64, needed, pledged float64, status model.RequestStatus, deadline time.Time) *sqlmock.Rows {
	now := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	return sqlmock.NewRows([]string{
		"id", "title", "description", "product_name", "category_id", "quantity_needed", "unit",
		"max_price_per_unit", "total_budget", "delivery_deadline", "delivery_location", "delivery_instructions",
		"status", "quantity_pledged", "buyer_id", "created_at", "updated_at",
	}).AddRow(id, "Potatoes for restaurant chain", nil, "potatoes", nil, needed, "kg",
		nil, nil, deadline, "Berlin", nil, string(status), pledged, buyerID, now, now)
}

// mockPledgeRows mirrors the bulk_request_pledges column list.
func mockPledgeRows(id, requestID, farmerID uint64, qty float64, status model.PledgeStatus) *sqlmock.Rows {
	now := time.Date(2026, 4, 2, 8, 0, 0, 0, time.UTC)
	eta := time.Date(2026, 5, 15, 0, 0, 0, 0, time.UTC)
	return sqlmock.NewRows([]string{
		"id", "bulk_request_id", "farmer_id", "quantity_pledged", "price_per_unit",
		"estimated_delivery_date", "delivery_notes", "status", "created_at", "updated_at",
	}).AddRow(id, requestID, farmerID, qty, 2.5, eta, nil, string(status), now, now)
}
