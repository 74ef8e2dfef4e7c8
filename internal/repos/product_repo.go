package repos

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"mebellar/internal/domain"
)

type ProductRepo struct{ db *sqlx.DB }

func NewProductRepo(db *sqlx.DB) *ProductRepo { return &ProductRepo{db: db} }

const productColumns = `
    id, COALESCE(category_id,'') AS category_id, name, COALESCE(description,'') AS description,
    price, specs_json, active, COALESCE(created_at,'') AS created_at, COALESCE(updated_at,'') AS updated_at`

func (r *ProductRepo) List(ctx context.Context, categoryID string, limit, offset int) ([]domain.Product, error) {
	where := `active = 1`
	args := []any{}
	if categoryID != "" {
		where += ` AND category_id = ?`
		args = append(args, categoryID)
	}
	args = append(args, limit, offset)

	out := []domain.Product{}
	err := r.db.SelectContext(ctx, &out, `
  SELECT`+productColumns+`
  FROM products
  WHERE `+where+`
  ORDER BY created_at DESC, id
  LIMIT ? OFFSET ?`, args...)
	return out, err
}

func (r *ProductRepo) Get(ctx context.Context, id string) (domain.Product, error) {
	var p domain.Product
	err := r.db.GetContext(ctx, &p, `SELECT`+productColumns+` FROM products WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return p, &domain.NotFoundError{Resource: "product", ID: id}
	}
	return p, err
}

// Create inserts p with a fresh id and returns the stored row.
func (r *ProductRepo) Create(ctx context.Context, p domain.Product) (domain.Product, error) {
	p.ID = uuid.NewString()
	var cat any
	if p.CategoryID != "" {
		cat = p.CategoryID
	}
	if _, err := r.db.ExecContext(ctx, `
		INSERT INTO products(id,category_id,name,description,price,specs_json,active)
		VALUES(?,?,?,?,?,?,1)
	`, p.ID, cat, p.Name, p.Description, p.Price, p.SpecsJSON); err != nil {
		return domain.Product{}, err
	}
	return r.Get(ctx, p.ID)
}

// UpdateSpecs stores the encoded spec map and the category it was validated against.
func (r *ProductRepo) UpdateSpecs(ctx context.Context, id, categoryID, specsJSON string) error {
	var cat any
	if categoryID != "" {
		cat = categoryID
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE products
		SET category_id = ?, specs_json = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, cat, specsJSON, id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return &domain.NotFoundError{Resource: "product", ID: id}
	}
	return nil
}
