package repository

import (
	"context"
	"database/sql"

	"github.com/agrolink/marketplace/internal/model"
)

// PledgeRepo provides persistence for bulk request pledges.  Status
// transitions happen inside handler-owned transactions so the parent
// request's aggregate can be resynced atomically.
type PledgeRepo struct{ db *sql.DB }

func NewPledgeRepo(db *sql.DB) *PledgeRepo { return &PledgeRepo{db: db} }

const pledgeCols = "id, bulk_request_id, farmer_id, quantity_pledged, price_per_unit, " +
	"estimated_delivery_date, delivery_notes, status, created_at, updated_at"

func scanPledge(s rowScanner) (model.BulkRequestPledge, error) {
	var p model.BulkRequestPledge
	var notes sql.NullString
	var status string
	err := s.Scan(&p.ID, &p.BulkRequestID, &p.FarmerID, &p.QuantityPledged, &p.PricePerUnit,
		&p.EstimatedDeliveryDate, &notes, &status, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return p, err
	}
	p.Status = model.PledgeStatus(status)
	if notes.Valid {
		n := notes.String
		p.DeliveryNotes = &n
	}
	return p, nil
}

// Create inserts a pending pledge and populates the generated ID.
func (r *PledgeRepo) Create(ctx context.Context, p *model.BulkRequestPledge) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO bulk_request_pledges (bulk_request_id, farmer_id, quantity_pledged, price_per_unit, "+
			"estimated_delivery_date, delivery_notes, status) VALUES (?,?,?,?,?,?,?)",
		p.BulkRequestID, p.FarmerID, p.QuantityPledged, p.PricePerUnit,
		p.EstimatedDeliveryDate, p.DeliveryNotes, string(model.PledgePending))
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	p.Status = model.PledgePending
	return nil
}

// ListByRequest returns all pledges of a request, newest first.
func (r *PledgeRepo) ListByRequest(ctx context.Context, requestID uint64) ([]model.BulkRequestPledge, error) {
	return r.list(ctx,
		"SELECT "+pledgeCols+" FROM bulk_request_pledges WHERE bulk_request_id = ? ORDER BY created_at DESC",
		requestID)
}

// ListByRequestAndFarmer returns one farmer's pledges on a request.
func (r *PledgeRepo) ListByRequestAndFarmer(ctx context.Context, requestID, farmerID uint64) ([]model.BulkRequestPledge, error) {
	return r.list(ctx,
		"SELECT "+pledgeCols+" FROM bulk_request_pledges WHERE bulk_request_id = ? AND farmer_id = ? ORDER BY created_at DESC",
		requestID, farmerID)
}

func (r *PledgeRepo) list(ctx context.Context, query string, args ...any) ([]model.BulkRequestPledge, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.BulkRequestPledge, 0)
	for rows.Next() {
		p, err := scanPledge(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// GetTx fetches a pledge inside tx.  The parent request row lock from
// BulkRequestRepo.GetForUpdateTx already serializes writers, so no
// additional lock is taken here.
func (r *PledgeRepo) GetTx(ctx context.Context, tx *sql.Tx, id uint64) (model.BulkRequestPledge, error) {
	row := tx.QueryRowContext(ctx,
		"SELECT "+pledgeCols+" FROM bulk_request_pledges WHERE id=? LIMIT 1", id)
	return scanPledge(row)
}

// UpdateStatusTx rewrites a pledge's status inside tx.
func (r *PledgeRepo) UpdateStatusTx(ctx context.Context, tx *sql.Tx, id uint64, status model.PledgeStatus) error {
	_, err := tx.ExecContext(ctx,
		"UPDATE bulk_request_pledges SET status = ? WHERE id = ?", string(status), id)
	return err
}

// SumCountedTx sums the quantities of accepted and fulfilled pledges of
// a request inside tx.  This is the source of truth the parent's
// quantity_pledged cache is resynced from.
func (r *PledgeRepo) SumCountedTx(ctx context.Context, tx *sql.Tx, requestID uint64) (float64, error) {
	var sum float64
	err := tx.QueryRowContext(ctx,
		"SELECT COALESCE(SUM(quantity_pledged), 0) FROM bulk_request_pledges "+
			"WHERE bulk_request_id = ? AND status IN ('accepted','fulfilled')",
		requestID).Scan(&sum)
	return sum, err
}
