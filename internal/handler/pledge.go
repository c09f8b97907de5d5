package handler

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/agrolink/marketplace/internal/model"
	"github.com/agrolink/marketplace/internal/queue"
	"github.com/agrolink/marketplace/internal/repository"
	queue_publisher "github.com/agrolink/marketplace/internal/service"
	"github.com/agrolink/marketplace/internal/utils"
)

// PledgeHandler drives the pledge lifecycle.  Every status transition
// runs in one transaction that locks the parent bulk request row,
// revalidates the transition, and resyncs the parent's pledged-quantity
// aggregate and derived status before committing.
type PledgeHandler struct {
	Requests *repository.BulkRequestRepo
	Pledges  *repository.PledgeRepo

	// PublishAccepted pushes a pledge.accepted event after a successful
	// accept; failures are logged, never surfaced to the caller.
	// Swappable for tests.
	PublishAccepted func(ctx context.Context, ev queue.PledgeAcceptedEvent) error
}

func NewPledgeHandler(requests *repository.BulkRequestRepo, pledges *repository.PledgeRepo) *PledgeHandler {
	if requests == nil || pledges == nil {
		panic("nil repository passed to NewPledgeHandler")
	}
	return &PledgeHandler{
		Requests:        requests,
		Pledges:         pledges,
		PublishAccepted: queue_publisher.PublishPledgeAccepted,
	}
}

// ----- DTOs -----

type pledgeView struct {
	ID                    uint64  `json:"id"`
	BulkRequestID         uint64  `json:"bulk_request_id"`
	FarmerID              uint64  `json:"farmer_id"`
	QuantityPledged       float64 `json:"quantity_pledged"`
	PricePerUnit          float64 `json:"price_per_unit"`
	TotalAmount           float64 `json:"total_amount"`
	EstimatedDeliveryDate string  `json:"estimated_delivery_date"`
	DeliveryNotes         *string `json:"delivery_notes"`
	Status                string  `json:"status"`
	CreatedAt             string  `json:"created_at"`
	UpdatedAt             string  `json:"updated_at"`
}

func toPledgeView(p model.BulkRequestPledge) pledgeView {
	return pledgeView{
		ID:                    p.ID,
		BulkRequestID:         p.BulkRequestID,
		FarmerID:              p.FarmerID,
		QuantityPledged:       p.QuantityPledged,
		PricePerUnit:          p.PricePerUnit,
		TotalAmount:           p.TotalAmount(),
		EstimatedDeliveryDate: p.EstimatedDeliveryDate.UTC().Format(time.RFC3339),
		DeliveryNotes:         p.DeliveryNotes,
		Status:                string(p.Status),
		CreatedAt:             p.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:             p.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

type createPledgeReq struct {
	QuantityPledged       float64 `json:"quantity_pledged"`
	PricePerUnit          float64 `json:"price_per_unit"`
	EstimatedDeliveryDate string  `json:"estimated_delivery_date"` // RFC3339
	DeliveryNotes         *string `json:"delivery_notes"`
}

// Create handles POST /bulk-request/:id/pledge.  Seller-only (role gate
// in front).  The pledge starts pending; closed and expired requests
// accept no new pledges.
func (h *PledgeHandler) Create(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return utils.Fail(c, http.StatusUnauthorized, "unauthorized")
	}
	requestID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || requestID == 0 {
		return utils.Fail(c, http.StatusUnprocessableEntity, "invalid bulk request id")
	}
	var req createPledgeReq
	if err := c.Bind(&req); err != nil {
		return utils.Fail(c, http.StatusUnprocessableEntity, "invalid body")
	}
	if req.QuantityPledged <= 0 {
		return utils.Fail(c, http.StatusUnprocessableEntity, "quantity_pledged must be positive")
	}
	if req.PricePerUnit <= 0 {
		return utils.Fail(c, http.StatusUnprocessableEntity, "price_per_unit must be positive")
	}
	eta, err := time.Parse(time.RFC3339, strings.TrimSpace(req.EstimatedDeliveryDate))
	if err != nil {
		return utils.Fail(c, http.StatusUnprocessableEntity, "estimated_delivery_date must be RFC3339")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	br, err := h.Requests.GetByID(ctx, requestID)
	if err != nil {
		if err == sql.ErrNoRows {
			return utils.Fail(c, http.StatusNotFound, "bulk request not found")
		}
		return utils.Fail(c, http.StatusInternalServerError, "failed to load bulk request")
	}
	switch br.CurrentStatus(time.Now().UTC()) {
	case model.RequestClosed, model.RequestExpired:
		return utils.Fail(c, http.StatusConflict, "bulk request is no longer accepting pledges")
	}

	p := model.BulkRequestPledge{
		BulkRequestID:         requestID,
		FarmerID:              userID,
		QuantityPledged:       req.QuantityPledged,
		PricePerUnit:          req.PricePerUnit,
		EstimatedDeliveryDate: eta.UTC(),
		DeliveryNotes:         req.DeliveryNotes,
	}
	if err := h.Pledges.Create(ctx, &p); err != nil {
		return utils.Fail(c, http.StatusInternalServerError, "failed to create pledge")
	}
	// the row's DEFAULT CURRENT_TIMESTAMP columns are not read back
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now
	return utils.Respond(c, http.StatusCreated, "pledge created successfully", toPledgeView(p))
}

// List handles GET /bulk-request/:id/pledge.  The owning buyer sees all
// pledges on the request; a seller sees only their own; anyone else is
// rejected.
func (h *PledgeHandler) List(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return utils.Fail(c, http.StatusUnauthorized, "unauthorized")
	}
	requestID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || requestID == 0 {
		return utils.Fail(c, http.StatusUnprocessableEntity, "invalid bulk request id")
	}
	ctx := c.Request().Context()

	br, err := h.Requests.GetByID(ctx, requestID)
	if err != nil {
		if err == sql.ErrNoRows {
			return utils.Fail(c, http.StatusNotFound, "bulk request not found")
		}
		return utils.Fail(c, http.StatusInternalServerError, "failed to load bulk request")
	}

	var pledges []model.BulkRequestPledge
	switch {
	case br.BuyerID == userID:
		pledges, err = h.Pledges.ListByRequest(ctx, requestID)
	case getRole(c) == model.RoleSeller:
		pledges, err = h.Pledges.ListByRequestAndFarmer(ctx, requestID, userID)
	default:
		return utils.Fail(c, http.StatusForbidden, "forbidden")
	}
	if err != nil {
		return utils.Fail(c, http.StatusInternalServerError, "failed to load pledges")
	}
	views := make([]pledgeView, 0, len(pledges))
	for _, p := range pledges {
		views = append(views, toPledgeView(p))
	}
	return utils.Respond(c, http.StatusOK, "pledge list", views)
}

// Accept handles POST /bulk-request/:id/pledge/:pledgeID/accept.
func (h *PledgeHandler) Accept(c echo.Context) error {
	return h.transition(c, model.PledgeAccepted)
}

// Reject handles POST /bulk-request/:id/pledge/:pledgeID/reject.
func (h *PledgeHandler) Reject(c echo.Context) error {
	return h.transition(c, model.PledgeRejected)
}

// Fulfill handles POST /bulk-request/:id/pledge/:pledgeID/fulfill: the
// buyer confirms delivery of an accepted pledge.
func (h *PledgeHandler) Fulfill(c echo.Context) error {
	return h.transition(c, model.PledgeFulfilled)
}

// Cancel handles POST /bulk-request/:id/pledge/:pledgeID/cancel: the
// pledging farmer withdraws from pending or accepted.
func (h *PledgeHandler) Cancel(c echo.Context) error {
	return h.transition(c, model.PledgeCancelled)
}

// transition applies one pledge status change.  Authority: the owning
// buyer decides accept/reject/fulfill, the pledging farmer cancels.
// The parent row lock serializes concurrent transitions so the
// aggregate can never be rebuilt from a stale pledge set.
func (h *PledgeHandler) transition(c echo.Context, target model.PledgeStatus) error {
	userID, err := getUserID(c)
	if err != nil {
		return utils.Fail(c, http.StatusUnauthorized, "unauthorized")
	}
	requestID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || requestID == 0 {
		return utils.Fail(c, http.StatusUnprocessableEntity, "invalid bulk request id")
	}
	pledgeID, err := strconv.ParseUint(c.Param("pledgeID"), 10, 64)
	if err != nil || pledgeID == 0 {
		return utils.Fail(c, http.StatusUnprocessableEntity, "invalid pledge id")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	tx, err := h.Requests.DB().BeginTx(ctx, nil)
	if err != nil {
		return utils.Fail(c, http.StatusInternalServerError, "failed to start transaction")
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	br, err := h.Requests.GetForUpdateTx(ctx, tx, requestID)
	if err != nil {
		if err == sql.ErrNoRows {
			return utils.Fail(c, http.StatusNotFound, "bulk request not found")
		}
		return utils.Fail(c, http.StatusInternalServerError, "failed to load bulk request")
	}
	pledge, err := h.Pledges.GetTx(ctx, tx, pledgeID)
	if err != nil {
		if err == sql.ErrNoRows {
			return utils.Fail(c, http.StatusNotFound, "pledge not found")
		}
		return utils.Fail(c, http.StatusInternalServerError, "failed to load pledge")
	}
	if pledge.BulkRequestID != requestID {
		return utils.Fail(c, http.StatusNotFound, "pledge not found")
	}

	if target == model.PledgeCancelled {
		if pledge.FarmerID != userID {
			return utils.Fail(c, http.StatusForbidden, "only the pledging farmer can cancel")
		}
	} else if br.BuyerID != userID {
		return utils.Fail(c, http.StatusForbidden, "only the request owner can decide pledges")
	}

	if !pledge.Status.CanTransition(target) {
		return utils.Fail(c, http.StatusConflict, "invalid pledge status transition")
	}
	if err := h.Pledges.UpdateStatusTx(ctx, tx, pledgeID, target); err != nil {
		return utils.Fail(c, http.StatusInternalServerError, "failed to update pledge")
	}

	// resync the parent aggregate when the pledge enters or leaves the
	// counted (accepted/fulfilled) set
	if pledge.Status.Counted() != target.Counted() {
		sum, err := h.Pledges.SumCountedTx(ctx, tx, requestID)
		if err != nil {
			return utils.Fail(c, http.StatusInternalServerError, "failed to recompute pledged quantity")
		}
		status := model.DeriveStatus(br.QuantityNeeded, sum, br.DeliveryDeadline, br.Status, time.Now().UTC())
		if err := h.Requests.SyncAggregateTx(ctx, tx, requestID, sum, status); err != nil {
			return utils.Fail(c, http.StatusInternalServerError, "failed to update bulk request")
		}
		br.QuantityPledged = sum
		br.Status = status
	}

	if err := tx.Commit(); err != nil {
		return utils.Fail(c, http.StatusInternalServerError, "failed to commit transaction")
	}
	committed = true
	pledge.Status = target

	if target == model.PledgeAccepted && h.PublishAccepted != nil {
		ev := queue.PledgeAcceptedEvent{
			PledgeID:        pledge.ID,
			BulkRequestID:   br.ID,
			BuyerID:         br.BuyerID,
			FarmerID:        pledge.FarmerID,
			ProductName:     br.ProductName,
			Unit:            br.Unit,
			QuantityPledged: pledge.QuantityPledged,
			PricePerUnit:    pledge.PricePerUnit,
			TotalAmount:     pledge.TotalAmount(),
			RequestStatus:   string(br.Status),
			AcceptedAt:      time.Now().UTC().Format(time.RFC3339),
		}
		if err := h.PublishAccepted(context.Background(), ev); err != nil {
			log.Printf("pledge: publish accepted event failed: %v", err)
		}
	}

	return utils.Respond(c, http.StatusOK, "pledge "+string(target), map[string]any{
		"pledge":       toPledgeView(pledge),
		"bulk_request": toBulkRequestView(br, time.Now().UTC()),
	})
}
