package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/agrolink/marketplace/internal/model"
)

// BulkRequestRepo provides persistence for bulk requests.  The
// quantity_pledged and status columns are caches of the pledge set and
// are only ever rewritten inside the same transaction that mutates a
// pledge, via SyncAggregateTx.
type BulkRequestRepo struct{ db *sql.DB }

func NewBulkRequestRepo(db *sql.DB) *BulkRequestRepo { return &BulkRequestRepo{db: db} }

// DB exposes the pool for handler-driven transactions.
func (r *BulkRequestRepo) DB() *sql.DB { return r.db }

const bulkRequestCols = "id, title, description, product_name, category_id, quantity_needed, unit, " +
	"max_price_per_unit, total_budget, delivery_deadline, delivery_location, delivery_instructions, " +
	"status, quantity_pledged, buyer_id, created_at, updated_at"

// BulkRequestSearchQuery defines filters, sorting and pagination for
// request listings.  All filters are optional and AND-combined.
type BulkRequestSearchQuery struct {
	Search      string   // substring over title/description/product_name, case-insensitive
	BuyerID     *uint64  // server-side role scoping for business users
	CategoryID  *uint64  // exact category
	Status      string   // exact status, empty for no filter
	MinQuantity *float64 // quantity_needed lower bound
	MaxQuantity *float64 // quantity_needed upper bound
	MinPrice    *float64 // max_price_per_unit lower bound
	MaxPrice    *float64 // max_price_per_unit upper bound
	SortBy      string   // title | quantity_needed | delivery_deadline | created_at
	SortOrder   string   // asc | desc
	Page        int      // 1-indexed
	Limit       int
}

var bulkRequestSortColumns = map[string]string{
	"title":             "title",
	"quantity_needed":   "quantity_needed",
	"delivery_deadline": "delivery_deadline",
	"created_at":        "created_at",
}

// Search returns a page of bulk requests plus the unpaginated total.
func (r *BulkRequestRepo) Search(ctx context.Context, q BulkRequestSearchQuery) ([]model.BulkRequest, int64, error) {
	where := []string{}
	args := []any{}

	if q.Search != "" {
		pat := "%" + strings.ToLower(q.Search) + "%"
		where = append(where, "(LOWER(title) LIKE ? OR LOWER(description) LIKE ? OR LOWER(product_name) LIKE ?)")
		args = append(args, pat, pat, pat)
	}
	if q.BuyerID != nil {
		where = append(where, "buyer_id = ?")
		args = append(args, *q.BuyerID)
	}
	if q.CategoryID != nil {
		where = append(where, "category_id = ?")
		args = append(args, *q.CategoryID)
	}
	if q.Status != "" {
		where = append(where, "status = ?")
		args = append(args, q.Status)
	}
	if q.MinQuantity != nil {
		where = append(where, "quantity_needed >= ?")
		args = append(args, *q.MinQuantity)
	}
	if q.MaxQuantity != nil {
		where = append(where, "quantity_needed <= ?")
		args = append(args, *q.MaxQuantity)
	}
	if q.MinPrice != nil {
		where = append(where, "max_price_per_unit >= ?")
		args = append(args, *q.MinPrice)
	}
	if q.MaxPrice != nil {
		where = append(where, "max_price_per_unit <= ?")
		args = append(args, *q.MaxPrice)
	}

	cond := "1=1"
	if len(where) > 0 {
		cond = strings.Join(where, " AND ")
	}

	var total int64
	if err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM bulk_requests WHERE "+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	sortCol, ok := bulkRequestSortColumns[q.SortBy]
	if !ok {
		sortCol = "created_at"
	}
	dir := "DESC"
	if strings.EqualFold(q.SortOrder, "asc") {
		dir = "ASC"
	}

	dataSQL := "SELECT " + bulkRequestCols + " FROM bulk_requests WHERE " + cond +
		" ORDER BY " + sortCol + " " + dir + " LIMIT ? OFFSET ?"
	argsData := append(append([]any{}, args...), q.Limit, (q.Page-1)*q.Limit)

	rows, err := r.db.QueryContext(ctx, dataSQL, argsData...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]model.BulkRequest, 0, q.Limit)
	for rows.Next() {
		br, err := scanBulkRequest(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, br)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func scanBulkRequest(s rowScanner) (model.BulkRequest, error) {
	var br model.BulkRequest
	var desc, instr sql.NullString
	var catID sql.NullInt64
	var maxPrice, budget sql.NullFloat64
	var status string
	err := s.Scan(&br.ID, &br.Title, &desc, &br.ProductName, &catID, &br.QuantityNeeded, &br.Unit,
		&maxPrice, &budget, &br.DeliveryDeadline, &br.DeliveryLocation, &instr,
		&status, &br.QuantityPledged, &br.BuyerID, &br.CreatedAt, &br.UpdatedAt)
	if err != nil {
		return br, err
	}
	br.Status = model.RequestStatus(status)
	if desc.Valid {
		d := desc.String
		br.Description = &d
	}
	if instr.Valid {
		i := instr.String
		br.DeliveryInstructions = &i
	}
	if catID.Valid {
		c := uint64(catID.Int64)
		br.CategoryID = &c
	}
	if maxPrice.Valid {
		m := maxPrice.Float64
		br.MaxPricePerUnit = &m
	}
	if budget.Valid {
		b := budget.Float64
		br.TotalBudget = &b
	}
	return br, nil
}

// Create inserts a new bulk request with status open and zero pledged
// quantity, populating the generated ID.
func (r *BulkRequestRepo) Create(ctx context.Context, br *model.BulkRequest) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO bulk_requests (title, description, product_name, category_id, quantity_needed, unit, "+
			"max_price_per_unit, total_budget, delivery_deadline, delivery_location, delivery_instructions, "+
			"status, quantity_pledged, buyer_id) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)",
		br.Title, br.Description, br.ProductName, br.CategoryID, br.QuantityNeeded, br.Unit,
		br.MaxPricePerUnit, br.TotalBudget, br.DeliveryDeadline, br.DeliveryLocation, br.DeliveryInstructions,
		string(model.RequestOpen), 0, br.BuyerID)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	br.ID = uint64(id)
	br.Status = model.RequestOpen
	br.QuantityPledged = 0
	return nil
}

// ExistsByBuyerAndTitle reports whether the buyer already has a request
// with exactly this title.  BINARY forces a case-sensitive match.
func (r *BulkRequestRepo) ExistsByBuyerAndTitle(ctx context.Context, buyerID uint64, title string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx,
		"SELECT 1 FROM bulk_requests WHERE buyer_id=? AND title = BINARY ? LIMIT 1",
		buyerID, title).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// GetByID fetches a single bulk request.
func (r *BulkRequestRepo) GetByID(ctx context.Context, id uint64) (model.BulkRequest, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+bulkRequestCols+" FROM bulk_requests WHERE id=? LIMIT 1", id)
	return scanBulkRequest(row)
}

// GetForUpdateTx fetches a bulk request inside tx while taking a row
// lock, serializing concurrent pledge transitions on the same parent.
func (r *BulkRequestRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (model.BulkRequest, error) {
	row := tx.QueryRowContext(ctx,
		"SELECT "+bulkRequestCols+" FROM bulk_requests WHERE id=? FOR UPDATE", id)
	return scanBulkRequest(row)
}

// SyncAggregateTx rewrites the cached quantity_pledged and status
// columns inside tx.  Callers must hold the row lock from
// GetForUpdateTx and derive status via model.DeriveStatus.
func (r *BulkRequestRepo) SyncAggregateTx(ctx context.Context, tx *sql.Tx, id uint64, pledged float64, status model.RequestStatus) error {
	_, err := tx.ExecContext(ctx,
		"UPDATE bulk_requests SET quantity_pledged = ?, status = ? WHERE id = ?",
		pledged, string(status), id)
	return err
}

// UpdateStatus rewrites only the status column, used for the buyer's
// manual close.
func (r *BulkRequestRepo) UpdateStatus(ctx context.Context, id uint64, status model.RequestStatus) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE bulk_requests SET status = ? WHERE id = ?", string(status), id)
	return err
}
