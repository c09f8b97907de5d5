package repository

import (
	"context"
	"database/sql"

	"github.com/agrolink/marketplace/internal/model"
)

type CategoryRepo struct{ db *sql.DB }

func NewCategoryRepo(db *sql.DB) *CategoryRepo { return &CategoryRepo{db: db} }

// List returns every category, active and inactive, as a flat unsorted
// read for the public category endpoint.
func (r *CategoryRepo) List(ctx context.Context) ([]model.Category, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, name, description, is_active FROM categories")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Category, 0)
	for rows.Next() {
		var c model.Category
		var desc sql.NullString
		if err := rows.Scan(&c.ID, &c.Name, &desc, &c.IsActive); err != nil {
			return nil, err
		}
		if desc.Valid {
			d := desc.String
			c.Description = &d
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// GetByID fetches a single category.
func (r *CategoryRepo) GetByID(ctx context.Context, id uint64) (model.Category, error) {
	var c model.Category
	var desc sql.NullString
	err := r.db.QueryRowContext(ctx,
		"SELECT id, name, description, is_active FROM categories WHERE id=? LIMIT 1",
		id).Scan(&c.ID, &c.Name, &desc, &c.IsActive)
	if desc.Valid {
		d := desc.String
		c.Description = &d
	}
	return c, err
}
