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

func newProductHandler(t *testing.T) (*ProductHandler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewProductHandler(repository.NewProductRepo(db), repository.NewCategoryRepo(db)), mock
}

func mockProductRows(id, ownerID uint64, name string, price float64) *sqlmock.Rows {
	now := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	return sqlmock.NewRows([]string{
		"id", "name", "description", "price", "photo_url", "is_active", "category_id", "owner_id", "created_at", "updated_at",
	}).AddRow(id, name, nil, price, nil, true, nil, ownerID, now, now)
}

func TestProductCreate(t *testing.T) {
	h, mock := newProductHandler(t)
	mock.ExpectQuery("SELECT 1 FROM products").
		WithArgs(uint64(8), "Organic carrots").
		WillReturnRows(sqlmock.NewRows([]string{"1"}))
	mock.ExpectExec("INSERT INTO products").
		WillReturnResult(sqlmock.NewResult(12, 1))
	mock.ExpectQuery("SELECT .+ FROM products WHERE id=").
		WithArgs(uint64(12)).
		WillReturnRows(mockProductRows(12, 8, "Organic carrots", 1.8))

	c, rec := newTestContext(t, http.MethodPost, "/v1/product",
		`{"name":"Organic carrots","price":1.8}`)
	asUser(c, 8, model.RoleSeller)
	require.NoError(t, h.Create(c))

	assert.Equal(t, http.StatusCreated, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.True(t, env.Success)
	assert.Contains(t, string(env.Data), `"owner_id":8`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductCreateRejectsNonPositivePrice(t *testing.T) {
	h, _ := newProductHandler(t)
	c, rec := newTestContext(t, http.MethodPost, "/v1/product",
		`{"name":"Carrots","price":0}`)
	asUser(c, 8, model.RoleSeller)
	require.NoError(t, h.Create(c))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestProductCreateDuplicateNamePerSeller(t *testing.T) {
	h, mock := newProductHandler(t)
	mock.ExpectQuery("SELECT 1 FROM products").
		WithArgs(uint64(8), "Organic carrots").
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

	c, rec := newTestContext(t, http.MethodPost, "/v1/product",
		`{"name":"Organic carrots","price":1.8}`)
	asUser(c, 8, model.RoleSeller)
	require.NoError(t, h.Create(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, decodeEnvelope(t, rec).Success)
}

func TestProductPatchForeignProductForbidden(t *testing.T) {
	h, mock := newProductHandler(t)
	mock.ExpectQuery("SELECT .+ FROM products WHERE id=").
		WithArgs(uint64(12)).
		WillReturnRows(mockProductRows(12, 8, "Organic carrots", 1.8))

	c, rec := newTestContext(t, http.MethodPatch, "/v1/product/12", `{"price":2.5}`)
	c.SetParamNames("id")
	c.SetParamValues("12")
	asUser(c, 99, model.RoleSeller) // not the owner
	require.NoError(t, h.Patch(c))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductDeleteMissing(t *testing.T) {
	h, mock := newProductHandler(t)
	mock.ExpectQuery("SELECT .+ FROM products WHERE id=").
		WithArgs(uint64(44)).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "name", "description", "price", "photo_url", "is_active", "category_id", "owner_id", "created_at", "updated_at",
		}))

	c, rec := newTestContext(t, http.MethodDelete, "/v1/product/44", "")
	c.SetParamNames("id")
	c.SetParamValues("44")
	asUser(c, 8, model.RoleSeller)
	require.NoError(t, h.Delete(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
