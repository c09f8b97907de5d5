package handler

import (
	"context"
	"database/sql"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/agrolink/marketplace/internal/model"
	"github.com/agrolink/marketplace/internal/repository"
	"github.com/agrolink/marketplace/internal/utils"
)

// ProductHandler bundles repositories for the product catalog.
type ProductHandler struct {
	Products   *repository.ProductRepo
	CategoryRepo *repository.CategoryRepo
}

func NewProductHandler(products *repository.ProductRepo, categories *repository.CategoryRepo) *ProductHandler {
	if products == nil || categories == nil {
		panic("nil repository passed to NewProductHandler")
	}
	return &ProductHandler{Products: products, CategoryRepo: categories}
}

// ----- DTOs -----

type productView struct {
	ID          uint64   `json:"id"`
	Name        string   `json:"name"`
	Description *string  `json:"description"`
	Price       float64  `json:"price"`
	PhotoURL    *string  `json:"photo_url"`
	IsActive    bool     `json:"is_active"`
	CategoryID  *uint64  `json:"category_id"`
	OwnerID     uint64   `json:"owner_id"`
	CreatedAt   string   `json:"created_at"`
	UpdatedAt   string   `json:"updated_at"`
}

func toProductView(p model.Product) productView {
	return productView{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		PhotoURL:    p.PhotoURL,
		IsActive:    p.IsActive,
		CategoryID:  p.CategoryID,
		OwnerID:     p.OwnerID,
		CreatedAt:   p.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:   p.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

type createProductReq struct {
	Name        string   `json:"name"`
	Description *string  `json:"description"`
	Price       float64  `json:"price"`
	PhotoURL    *string  `json:"photo_url"`
	IsActive    *bool    `json:"is_active"`
	CategoryID  *uint64  `json:"category_id"`
}

type patchProductReq struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price"`
	PhotoURL    *string  `json:"photo_url"`
	IsActive    *bool    `json:"is_active"`
	CategoryID  *uint64  `json:"category_id"`
}

// List handles GET /product.  Public, filtered, sorted and paginated.
func (h *ProductHandler) List(c echo.Context) error {
	page, limit := pageParams(c)
	q := repository.ProductSearchQuery{
		Search:     strings.TrimSpace(c.QueryParam("search")),
		CategoryID: queryUint(c, "category_id"),
		IsActive:   queryBool(c, "is_active"),
		MinPrice:   queryFloat(c, "min_price"),
		MaxPrice:   queryFloat(c, "max_price"),
		SortBy:     c.QueryParam("sort_by"),
		SortOrder:  c.QueryParam("sort_order"),
		Page:       page,
		Limit:      limit,
	}
	items, total, err := h.Products.Search(c.Request().Context(), q)
	if err != nil {
		return utils.Fail(c, http.StatusInternalServerError, "failed to load products")
	}
	views := make([]productView, 0, len(items))
	for _, p := range items {
		views = append(views, toProductView(p))
	}
	return utils.Respond(c, http.StatusOK, "product list", utils.ListPayload{
		Items:      views,
		Pagination: utils.NewPagination(page, limit, total),
	})
}

// Create handles POST /product.  Seller-only; the new product is owned
// by the caller.  A duplicate name per owner is rejected.
func (h *ProductHandler) Create(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return utils.Fail(c, http.StatusUnauthorized, "unauthorized")
	}
	var req createProductReq
	if err := c.Bind(&req); err != nil {
		return utils.Fail(c, http.StatusUnprocessableEntity, "invalid body")
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return utils.Fail(c, http.StatusUnprocessableEntity, "name is required")
	}
	if req.Price <= 0 {
		return utils.Fail(c, http.StatusUnprocessableEntity, "price must be positive")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	exists, err := h.Products.ExistsByOwnerAndName(ctx, userID, req.Name)
	if err != nil {
		return utils.Fail(c, http.StatusInternalServerError, "failed to check product name")
	}
	if exists {
		return utils.Fail(c, http.StatusBadRequest, "a product with this name already exists for this seller")
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	p := model.Product{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		PhotoURL:    req.PhotoURL,
		IsActive:    active,
		CategoryID:  req.CategoryID,
		OwnerID:     userID,
	}
	if err := h.Products.Create(ctx, &p); err != nil {
		return utils.Fail(c, http.StatusInternalServerError, "failed to create product")
	}
	created, err := h.Products.GetByID(ctx, p.ID)
	if err != nil {
		return utils.Fail(c, http.StatusInternalServerError, "failed to load product")
	}
	return utils.Respond(c, http.StatusCreated, "product created successfully", toProductView(created))
}

// Patch handles PATCH /product/:id.  Only the owning seller may mutate.
func (h *ProductHandler) Patch(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return utils.Fail(c, http.StatusUnauthorized, "unauthorized")
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return utils.Fail(c, http.StatusUnprocessableEntity, "invalid product id")
	}
	var req patchProductReq
	if err := c.Bind(&req); err != nil {
		return utils.Fail(c, http.StatusUnprocessableEntity, "invalid body")
	}
	if req.Price != nil && *req.Price <= 0 {
		return utils.Fail(c, http.StatusUnprocessableEntity, "price must be positive")
	}
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		return utils.Fail(c, http.StatusUnprocessableEntity, "name cannot be empty")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	current, err := h.Products.GetByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return utils.Fail(c, http.StatusNotFound, "product not found")
		}
		return utils.Fail(c, http.StatusInternalServerError, "failed to load product")
	}
	if current.OwnerID != userID {
		return utils.Fail(c, http.StatusForbidden, "forbidden")
	}

	upd := repository.ProductUpdate{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		PhotoURL:    req.PhotoURL,
		IsActive:    req.IsActive,
		CategoryID:  req.CategoryID,
	}
	if err := h.Products.Update(ctx, id, upd); err != nil {
		return utils.Fail(c, http.StatusInternalServerError, "failed to update product")
	}
	updated, err := h.Products.GetByID(ctx, id)
	if err != nil {
		return utils.Fail(c, http.StatusInternalServerError, "failed to load product")
	}
	return utils.Respond(c, http.StatusOK, "product updated successfully", toProductView(updated))
}

// Delete handles DELETE /product/:id.  Only the owning seller may
// delete; the category link is severed, never the category.
func (h *ProductHandler) Delete(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return utils.Fail(c, http.StatusUnauthorized, "unauthorized")
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return utils.Fail(c, http.StatusUnprocessableEntity, "invalid product id")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	current, err := h.Products.GetByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return utils.Fail(c, http.StatusNotFound, "product not found")
		}
		return utils.Fail(c, http.StatusInternalServerError, "failed to load product")
	}
	if current.OwnerID != userID {
		return utils.Fail(c, http.StatusForbidden, "forbidden")
	}
	if err := h.Products.Delete(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return utils.Fail(c, http.StatusNotFound, "product not found")
		}
		return utils.Fail(c, http.StatusInternalServerError, "failed to delete product")
	}
	return utils.Respond(c, http.StatusOK, "product deleted successfully", map[string]any{"id": id})
}

// Categories handles GET /product/category: a flat read of all
// categories, active and inactive.
func (h *ProductHandler) Categories(c echo.Context) error {
	cats, err := h.CategoryRepo.List(c.Request().Context())
	if err != nil {
		return utils.Fail(c, http.StatusInternalServerError, "failed to load categories")
	}
	type categoryView struct {
		ID          uint64  `json:"id"`
		Name        string  `json:"name"`
		Description *string `json:"description"`
		IsActive    bool    `json:"is_active"`
	}
	views := make([]categoryView, 0, len(cats))
	for _, cat := range cats {
		views = append(views, categoryView{ID: cat.ID, Name: cat.Name, Description: cat.Description, IsActive: cat.IsActive})
	}
	return utils.Respond(c, http.StatusOK, "category list", views)
}

// UserProducts handles GET /product/user-products: the calling seller's
// own listings.  The role gate in front of this route rejects other
// roles with 403.
func (h *ProductHandler) UserProducts(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return utils.Fail(c, http.StatusUnauthorized, "unauthorized")
	}
	page, limit := pageParams(c)
	q := repository.ProductSearchQuery{
		OwnerID:   &userID,
		SortBy:    c.QueryParam("sort_by"),
		SortOrder: c.QueryParam("sort_order"),
		Page:      page,
		Limit:     limit,
	}
	items, total, err := h.Products.Search(c.Request().Context(), q)
	if err != nil {
		return utils.Fail(c, http.StatusInternalServerError, "failed to load products")
	}
	views := make([]productView, 0, len(items))
	for _, p := range items {
		views = append(views, toProductView(p))
	}
	return utils.Respond(c, http.StatusOK, "user product list", utils.ListPayload{
		Items:      views,
		Pagination: utils.NewPagination(page, limit, total),
	})
}
