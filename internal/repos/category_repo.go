package repos

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"mebellar/internal/domain"
)

type CategoryRepo struct{ db *sqlx.DB }

func NewCategoryRepo(db *sqlx.DB) *CategoryRepo { return &CategoryRepo{db: db} }

const categoryColumns = `
    c.id,
    COALESCE(c.parent_id,'') AS parent_id,
    c.name,
    COALESCE(c.icon_url,'') AS icon_url,
    (SELECT COUNT(*) FROM category_attributes a WHERE a.category_id = c.id) AS attribute_count,
    COALESCE(c.created_at,'') AS created_at,
    COALESCE(c.updated_at,'') AS updated_at`

func (r *CategoryRepo) List(ctx context.Context) ([]domain.Category, error) {
	out := []domain.Category{}
	err := r.db.SelectContext(ctx, &out, `SELECT`+categoryColumns+`
  FROM categories c
  ORDER BY c.name
`)
	return out, err
}

func (r *CategoryRepo) Get(ctx context.Context, id string) (domain.Category, error) {
	var c domain.Category
	err := r.db.GetContext(ctx, &c, `SELECT`+categoryColumns+`
  FROM categories c
  WHERE c.id = ?
`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return c, &domain.NotFoundError{Resource: "category", ID: id}
	}
	return c, err
}

func (r *CategoryRepo) Exists(ctx context.Context, id string) (bool, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM categories WHERE id = ?`, id); err != nil {
		return false, err
	}
	return n > 0, nil
}
