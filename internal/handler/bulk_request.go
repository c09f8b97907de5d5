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

// BulkRequestHandler serves the buyer demand board: creating requests,
// role-scoped listing, and the buyer's manual close.
type BulkRequestHandler struct {
	Requests *repository.BulkRequestRepo
}

func NewBulkRequestHandler(requests *repository.BulkRequestRepo) *BulkRequestHandler {
	if requests == nil {
		panic("nil repository passed to NewBulkRequestHandler")
	}
	return &BulkRequestHandler{Requests: requests}
}

// ----- DTOs -----

type bulkRequestView struct {
	ID                   uint64   `json:"id"`
	Title                string   `json:"title"`
	Description          *string  `json:"description"`
	ProductName          string   `json:"product_name"`
	CategoryID           *uint64  `json:"category_id"`
	QuantityNeeded       float64  `json:"quantity_needed"`
	Unit                 string   `json:"unit"`
	MaxPricePerUnit      *float64 `json:"max_price_per_unit"`
	TotalBudget          *float64 `json:"total_budget"`
	DeliveryDeadline     string   `json:"delivery_deadline"`
	DeliveryLocation     string   `json:"delivery_location"`
	DeliveryInstructions *string  `json:"delivery_instructions"`
	Status               string   `json:"status"`
	QuantityPledged      float64  `json:"quantity_pledged"`
	QuantityRemaining    float64  `json:"quantity_remaining"`
	IsFullyPledged       bool     `json:"is_fully_pledged"`
	BuyerID              uint64   `json:"buyer_id"`
	CreatedAt            string   `json:"created_at"`
	UpdatedAt            string   `json:"updated_at"`
}

// toBulkRequestView renders a request with its status lazily re-derived
// against now, so deadline expiry shows up without a background job.
func toBulkRequestView(br model.BulkRequest, now time.Time) bulkRequestView {
	return bulkRequestView{
		ID:                   br.ID,
		Title:                br.Title,
		Description:          br.Description,
		ProductName:          br.ProductName,
		CategoryID:           br.CategoryID,
		QuantityNeeded:       br.QuantityNeeded,
		Unit:                 br.Unit,
		MaxPricePerUnit:      br.MaxPricePerUnit,
		TotalBudget:          br.TotalBudget,
		DeliveryDeadline:     br.DeliveryDeadline.UTC().Format(time.RFC3339),
		DeliveryLocation:     br.DeliveryLocation,
		DeliveryInstructions: br.DeliveryInstructions,
		Status:               string(br.CurrentStatus(now)),
		QuantityPledged:      br.QuantityPledged,
		QuantityRemaining:    br.QuantityRemaining(),
		IsFullyPledged:       br.IsFullyPledged(),
		BuyerID:              br.BuyerID,
		CreatedAt:            br.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:            br.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

type createBulkRequestReq struct {
	Title                string   `json:"title"`
	Description          *string  `json:"description"`
	ProductName          string   `json:"product_name"`
	CategoryID           *uint64  `json:"category_id"`
	QuantityNeeded       float64  `json:"quantity_needed"`
	Unit                 string   `json:"unit"`
	MaxPricePerUnit      *float64 `json:"max_price_per_unit"`
	TotalBudget          *float64 `json:"total_budget"`
	DeliveryDeadline     string   `json:"delivery_deadline"` // RFC3339
	DeliveryLocation     string   `json:"delivery_location"`
	DeliveryInstructions *string  `json:"delivery_instructions"`
}

// Create handles POST /bulk-request.  Business-only (enforced by the
// role gate); a buyer cannot reuse a title of one of their own requests.
func (h *BulkRequestHandler) Create(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return utils.Fail(c, http.StatusUnauthorized, "unauthorized")
	}
	var req createBulkRequestReq
	if err := c.Bind(&req); err != nil {
		return utils.Fail(c, http.StatusUnprocessableEntity, "invalid body")
	}
	req.Title = strings.TrimSpace(req.Title)
	req.ProductName = strings.TrimSpace(req.ProductName)
	req.Unit = strings.TrimSpace(req.Unit)
	req.DeliveryLocation = strings.TrimSpace(req.DeliveryLocation)
	if req.Title == "" || req.ProductName == "" || req.Unit == "" || req.DeliveryLocation == "" {
		return utils.Fail(c, http.StatusUnprocessableEntity, "title, product_name, unit and delivery_location are required")
	}
	if req.QuantityNeeded <= 0 {
		return utils.Fail(c, http.StatusUnprocessableEntity, "quantity_needed must be positive")
	}
	if req.MaxPricePerUnit != nil && *req.MaxPricePerUnit <= 0 {
		return utils.Fail(c, http.StatusUnprocessableEntity, "max_price_per_unit must be positive")
	}
	if req.TotalBudget != nil && *req.TotalBudget <= 0 {
		return utils.Fail(c, http.StatusUnprocessableEntity, "total_budget must be positive")
	}
	deadline, err := time.Parse(time.RFC3339, req.DeliveryDeadline)
	if err != nil {
		return utils.Fail(c, http.StatusUnprocessableEntity, "delivery_deadline must be RFC3339")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	exists, err := h.Requests.ExistsByBuyerAndTitle(ctx, userID, req.Title)
	if err != nil {
		return utils.Fail(c, http.StatusInternalServerError, "failed to check title")
	}
	if exists {
		return utils.Fail(c, http.StatusBadRequest, "a bulk request with this title already exists for this user")
	}

	br := model.BulkRequest{
		Title:                req.Title,
		Description:          req.Description,
		ProductName:          req.ProductName,
		CategoryID:           req.CategoryID,
		QuantityNeeded:       req.QuantityNeeded,
		Unit:                 req.Unit,
		MaxPricePerUnit:      req.MaxPricePerUnit,
		TotalBudget:          req.TotalBudget,
		DeliveryDeadline:     deadline.UTC(),
		DeliveryLocation:     req.DeliveryLocation,
		DeliveryInstructions: req.DeliveryInstructions,
		BuyerID:              userID,
	}
	if err := h.Requests.Create(ctx, &br); err != nil {
		return utils.Fail(c, http.StatusInternalServerError, "failed to create bulk request")
	}
	created, err := h.Requests.GetByID(ctx, br.ID)
	if err != nil {
		return utils.Fail(c, http.StatusInternalServerError, "failed to load bulk request")
	}
	return utils.Respond(c, http.StatusCreated, "bulk request created successfully", toBulkRequestView(created, time.Now().UTC()))
}

// List handles GET /bulk-request.  Business users are pinned to their
// own requests server-side; other roles see the whole board.  No status
// filter is implied: sellers wanting only open requests pass
// status=open themselves.
func (h *BulkRequestHandler) List(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return utils.Fail(c, http.StatusUnauthorized, "unauthorized")
	}
	page, limit := pageParams(c)

	status := strings.TrimSpace(c.QueryParam("status"))
	if status != "" && !model.ValidRequestStatus(status) {
		return utils.Fail(c, http.StatusUnprocessableEntity, "unknown status")
	}
	sortBy := c.QueryParam("sort_by")
	if sortBy != "" {
		switch sortBy {
		case "title", "quantity_needed", "delivery_deadline", "created_at":
		default:
			return utils.Fail(c, http.StatusUnprocessableEntity, "unknown sort_by")
		}
	}

	q := repository.BulkRequestSearchQuery{
		Search:      strings.TrimSpace(c.QueryParam("search")),
		CategoryID:  queryUint(c, "category_id"),
		Status:      status,
		MinQuantity: queryFloat(c, "min_quantity"),
		MaxQuantity: queryFloat(c, "max_quantity"),
		MinPrice:    queryFloat(c, "min_price"),
		MaxPrice:    queryFloat(c, "max_price"),
		SortBy:      sortBy,
		SortOrder:   c.QueryParam("sort_order"),
		Page:        page,
		Limit:       limit,
	}
	// server-side scoping: the caller cannot widen a business view
	if getRole(c) == model.RoleBusiness {
		q.BuyerID = &userID
	}

	items, total, err := h.Requests.Search(c.Request().Context(), q)
	if err != nil {
		return utils.Fail(c, http.StatusInternalServerError, "failed to load bulk requests")
	}
	now := time.Now().UTC()
	views := make([]bulkRequestView, 0, len(items))
	for _, br := range items {
		views = append(views, toBulkRequestView(br, now))
	}
	return utils.Respond(c, http.StatusOK, "bulk request list", utils.ListPayload{
		Items:      views,
		Pagination: utils.NewPagination(page, limit, total),
	})
}

// Get handles GET /bulk-request/:id.
func (h *BulkRequestHandler) Get(c echo.Context) error {
	if _, err := getUserID(c); err != nil {
		return utils.Fail(c, http.StatusUnauthorized, "unauthorized")
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return utils.Fail(c, http.StatusUnprocessableEntity, "invalid bulk request id")
	}
	br, err := h.Requests.GetByID(c.Request().Context(), id)
	if err != nil {
		if err == sql.ErrNoRows {
			return utils.Fail(c, http.StatusNotFound, "bulk request not found")
		}
		return utils.Fail(c, http.StatusInternalServerError, "failed to load bulk request")
	}
	return utils.Respond(c, http.StatusOK, "bulk request", toBulkRequestView(br, time.Now().UTC()))
}

// Close handles POST /bulk-request/:id/close.  Only the owning buyer
// may close, independent of pledged quantity; closed is terminal.
func (h *BulkRequestHandler) Close(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return utils.Fail(c, http.StatusUnauthorized, "unauthorized")
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return utils.Fail(c, http.StatusUnprocessableEntity, "invalid bulk request id")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	br, err := h.Requests.GetByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return utils.Fail(c, http.StatusNotFound, "bulk request not found")
		}
		return utils.Fail(c, http.StatusInternalServerError, "failed to load bulk request")
	}
	if br.BuyerID != userID {
		return utils.Fail(c, http.StatusForbidden, "forbidden")
	}
	if br.Status == model.RequestClosed {
		return utils.Fail(c, http.StatusConflict, "bulk request already closed")
	}
	if err := h.Requests.UpdateStatus(ctx, id, model.RequestClosed); err != nil {
		return utils.Fail(c, http.StatusInternalServerError, "failed to close bulk request")
	}
	br.Status = model.RequestClosed
	return utils.Respond(c, http.StatusOK, "bulk request closed", toBulkRequestView(br, time.Now().UTC()))
}
