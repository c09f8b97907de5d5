package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/agrolink/marketplace/internal/model"
)

type ProductRepo struct{ db *sql.DB }

func NewProductRepo(db *sql.DB) *ProductRepo { return &ProductRepo{db: db} }

// DB exposes the pool for handler-driven transactions.
func (r *ProductRepo) DB() *sql.DB { return r.db }

const productCols = "id, name, description, price, photo_url, is_active, category_id, owner_id, created_at, updated_at"

// ProductSearchQuery defines filters and pagination for product listings.
// All filters are optional and AND-combined.
type ProductSearchQuery struct {
	Search     string   // substring match on name/description, case-insensitive
	CategoryID *uint64  // exact category
	IsActive   *bool    // exact flag
	MinPrice   *float64 // inclusive lower price bound
	MaxPrice   *float64 // inclusive upper price bound
	OwnerID    *uint64  // scope to one seller ("my products")
	SortBy     string   // name | price | created_at
	SortOrder  string   // asc | desc
	Page       int      // 1-indexed
	Limit      int
}

// productSortColumns whitelists sortable columns; anything else falls
// back to created_at.
var productSortColumns = map[string]string{
	"name":       "name",
	"price":      "price",
	"created_at": "created_at",
}

// Search returns a page of products plus the unpaginated total count.
func (r *ProductRepo) Search(ctx context.Context, q ProductSearchQuery) ([]model.Product, int64, error) {
	where := []string{}
	args := []any{}

	if q.Search != "" {
		pat := "%" + strings.ToLower(q.Search) + "%"
		where = append(where, "(LOWER(name) LIKE ? OR LOWER(description) LIKE ?)")
		args = append(args, pat, pat)
	}
	if q.CategoryID != nil {
		where = append(where, "category_id = ?")
		args = append(args, *q.CategoryID)
	}
	if q.IsActive != nil {
		where = append(where, "is_active = ?")
		args = append(args, *q.IsActive)
	}
	if q.MinPrice != nil {
		where = append(where, "price >= ?")
		args = append(args, *q.MinPrice)
	}
	if q.MaxPrice != nil {
		where = append(where, "price <= ?")
		args = append(args, *q.MaxPrice)
	}
	if q.OwnerID != nil {
		where = append(where, "owner_id = ?")
		args = append(args, *q.OwnerID)
	}

	cond := "1=1"
	if len(where) > 0 {
		cond = strings.Join(where, " AND ")
	}

	var total int64
	if err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM products WHERE "+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	sortCol, ok := productSortColumns[q.SortBy]
	if !ok {
		sortCol = "created_at"
	}
	dir := "DESC"
	if strings.EqualFold(q.SortOrder, "asc") {
		dir = "ASC"
	}

	dataSQL := "SELECT " + productCols + " FROM products WHERE " + cond +
		" ORDER BY " + sortCol + " " + dir + " LIMIT ? OFFSET ?"
	argsData := append(append([]any{}, args...), q.Limit, (q.Page-1)*q.Limit)

	rows, err := r.db.QueryContext(ctx, dataSQL, argsData...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]model.Product, 0, q.Limit)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

type rowScanner interface{ Scan(dest ...any) error }

func scanProduct(s rowScanner) (model.Product, error) {
	var p model.Product
	var desc, photo sql.NullString
	var catID sql.NullInt64
	err := s.Scan(&p.ID, &p.Name, &desc, &p.Price, &photo, &p.IsActive, &catID, &p.OwnerID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return p, err
	}
	if desc.Valid {
		d := desc.String
		p.Description = &d
	}
	if photo.Valid {
		ph := photo.String
		p.PhotoURL = &ph
	}
	if catID.Valid {
		c := uint64(catID.Int64)
		p.CategoryID = &c
	}
	return p, nil
}

// Create inserts a product and populates the generated ID.
func (r *ProductRepo) Create(ctx context.Context, p *model.Product) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO products (name, description, price, photo_url, is_active, category_id, owner_id) VALUES (?,?,?,?,?,?,?)",
		p.Name, p.Description, p.Price, p.PhotoURL, p.IsActive, p.CategoryID, p.OwnerID)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	return nil
}

// GetByID fetches a product by id.
func (r *ProductRepo) GetByID(ctx context.Context, id uint64) (model.Product, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+productCols+" FROM products WHERE id=? LIMIT 1", id)
	return scanProduct(row)
}

// ExistsByOwnerAndName reports whether the seller already has a product
// with exactly this name.  BINARY forces a case-sensitive match.
func (r *ProductRepo) ExistsByOwnerAndName(ctx context.Context, ownerID uint64, name string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx,
		"SELECT 1 FROM products WHERE owner_id=? AND name = BINARY ? LIMIT 1",
		ownerID, name).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ProductUpdate carries the mutable product fields for a partial
// update.  Nil pointers leave the column untouched.
type ProductUpdate struct {
	Name        *string
	Description *string
	Price       *float64
	PhotoURL    *string
	IsActive    *bool
	CategoryID  *uint64
}

// Update applies the non-nil fields of u to the product.  Returns
// sql.ErrNoRows when the product does not exist.
func (r *ProductRepo) Update(ctx context.Context, id uint64, u ProductUpdate) error {
	set := []string{}
	args := []any{}
	if u.Name != nil {
		set = append(set, "name = ?")
		args = append(args, *u.Name)
	}
	if u.Description != nil {
		set = append(set, "description = ?")
		args = append(args, *u.Description)
	}
	if u.Price != nil {
		set = append(set, "price = ?")
		args = append(args, *u.Price)
	}
	if u.PhotoURL != nil {
		set = append(set, "photo_url = ?")
		args = append(args, *u.PhotoURL)
	}
	if u.IsActive != nil {
		set = append(set, "is_active = ?")
		args = append(args, *u.IsActive)
	}
	if u.CategoryID != nil {
		set = append(set, "category_id = ?")
		args = append(args, *u.CategoryID)
	}
	if len(set) == 0 {
		return nil
	}
	args = append(args, id)
	res, err := r.db.ExecContext(ctx,
		"UPDATE products SET "+strings.Join(set, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		// distinguish "missing" from "no change": a same-value update
		// still matches the row, so re-check existence
		var one int
		if err := r.db.QueryRowContext(ctx, "SELECT 1 FROM products WHERE id=? LIMIT 1", id).Scan(&one); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes a product.  Returns sql.ErrNoRows when nothing matched.
func (r *ProductRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM products WHERE id = ?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
