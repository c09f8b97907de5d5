package handler

import (
	"net/http"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrolink/marketplace/internal/model"
	"github.com/agrolink/marketplace/internal/repository"
)

func newBulkRequestHandler(t *testing.T) (*BulkRequestHandler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewBulkRequestHandler(repository.NewBulkRequestRepo(db)), mock
}

func TestBulkRequestCreateValidation(t *testing.T) {
	h, _ := newBulkRequestHandler(t)
	cases := []struct {
		name string
		body string
	}{
		{"missing title", `{"product_name":"apples","quantity_needed":10,"unit":"kg","delivery_location":"Berlin","delivery_deadline":"2026-11-01T00:00:00Z"}`},
		{"zero quantity", `{"title":"Apples","product_name":"apples","quantity_needed":0,"unit":"kg","delivery_location":"Berlin","delivery_deadline":"2026-11-01T00:00:00Z"}`},
		{"bad deadline", `{"title":"Apples","product_name":"apples","quantity_needed":10,"unit":"kg","delivery_location":"Berlin","delivery_deadline":"tomorrow"}`},
		{"negative budget", `{"title":"Apples","product_name":"apples","quantity_needed":10,"unit":"kg","delivery_location":"Berlin","delivery_deadline":"2026-11-01T00:00:00Z","total_budget":-5}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, rec := newTestContext(t, http.MethodPost, "/v1/bulk-request", tc.body)
			asUser(c, 4, model.RoleBusiness)
			require.NoError(t, h.Create(c))
			assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		})
	}
}

func TestBulkRequestCreateDuplicateTitle(t *testing.T) {
	h, mock := newBulkRequestHandler(t)
	mock.ExpectQuery("SELECT 1 FROM bulk_requests").
		WithArgs(uint64(4), "Winter apples").
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

	c, rec := newTestContext(t, http.MethodPost, "/v1/bulk-request",
		`{"title":"Winter apples","product_name":"apples","quantity_needed":500,"unit":"kg","delivery_location":"Hamburg","delivery_deadline":"2026-11-01T00:00:00Z"}`)
	asUser(c, 4, model.RoleBusiness)
	require.NoError(t, h.Create(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBulkRequestListPinsBusinessToOwnRequests(t *testing.T) {
	h, mock := newBulkRequestHandler(t)
	deadline := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	// the buyer_id filter must be present even though the caller sent none
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM bulk_requests WHERE buyer_id = \\?").
		WithArgs(uint64(4)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery("SELECT .+ FROM bulk_requests WHERE buyer_id = \\?").
		WithArgs(uint64(4), 10, 0).
		WillReturnRows(mockBulkRequestRows(1, 4, 100, 0, model.RequestOpen, deadline))

	c, rec := newTestContext(t, http.MethodGet, "/v1/bulk-request", "")
	asUser(c, 4, model.RoleBusiness)
	require.NoError(t, h.List(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBulkRequestListSellerSeesWholeBoard(t *testing.T) {
	h, mock := newBulkRequestHandler(t)
	deadline := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM bulk_requests WHERE 1=1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery("SELECT .+ FROM bulk_requests WHERE 1=1").
		WithArgs(10, 0).
		WillReturnRows(mockBulkRequestRows(1, 4, 100, 0, model.RequestOpen, deadline))

	c, rec := newTestContext(t, http.MethodGet, "/v1/bulk-request", "")
	asUser(c, 8, model.RoleSeller)
	require.NoError(t, h.List(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBulkRequestListRejectsUnknownStatus(t *testing.T) {
	h, _ := newBulkRequestHandler(t)
	c, rec := newTestContext(t, http.MethodGet, "/v1/bulk-request?status=bogus", "")
	asUser(c, 8, model.RoleSeller)
	require.NoError(t, h.List(c))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestBulkRequestGetDerivesExpiry(t *testing.T) {
	h, mock := newBulkRequestHandler(t)
	past := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT .+ FROM bulk_requests WHERE id=").
		WithArgs(uint64(1)).
		WillReturnRows(mockBulkRequestRows(1, 4, 100, 0, model.RequestOpen, past))

	c, rec := newTestContext(t, http.MethodGet, "/v1/bulk-request/1", "")
	c.SetParamNames("id")
	c.SetParamValues("1")
	asUser(c, 8, model.RoleSeller)
	require.NoError(t, h.Get(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.Contains(t, string(env.Data), `"status":"expired"`)
}

func TestBulkRequestCloseOwnerOnly(t *testing.T) {
	h, mock := newBulkRequestHandler(t)
	deadline := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT .+ FROM bulk_requests WHERE id=").
		WithArgs(uint64(1)).
		WillReturnRows(mockBulkRequestRows(1, 4, 100, 0, model.RequestOpen, deadline))

	c, rec := newTestContext(t, http.MethodPost, "/v1/bulk-request/1/close", "")
	c.SetParamNames("id")
	c.SetParamValues("1")
	asUser(c, 99, model.RoleBusiness) // not the owner
	require.NoError(t, h.Close(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestBulkRequestCloseAlreadyClosed(t *testing.T) {
	h, mock := newBulkRequestHandler(t)
	deadline := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT .+ FROM bulk_requests WHERE id=").
		WithArgs(uint64(1)).
		WillReturnRows(mockBulkRequestRows(1, 4, 100, 0, model.RequestClosed, deadline))

	c, rec := newTestContext(t, http.MethodPost, "/v1/bulk-request/1/close", "")
	c.SetParamNames("id")
	c.SetParamValues("1")
	asUser(c, 4, model.RoleBusiness)
	require.NoError(t, h.Close(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestBulkRequestClose(t *testing.T) {
	h, mock := newBulkRequestHandler(t)
	deadline := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT .+ FROM bulk_requests WHERE id=").
		WithArgs(uint64(1)).
		WillReturnRows(mockBulkRequestRows(1, 4, 100, 40, model.RequestPartiallyFilled, deadline))
	mock.ExpectExec("UPDATE bulk_requests SET status = ").
		WithArgs(string(model.RequestClosed), uint64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	c, rec := newTestContext(t, http.MethodPost, "/v1/bulk-request/1/close", "")
	c.SetParamNames("id")
	c.SetParamValues("1")
	asUser(c, 4, model.RoleBusiness)
	require.NoError(t, h.Close(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.Contains(t, string(env.Data), `"status":"closed"`)
	assert.NoError(t, mock.ExpectationsWereMet())
}
