package repos

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"mebellar/internal/domain"
)

// AttributeRepo persists category attribute definitions in sqlite.
type AttributeRepo struct{ db *sqlx.DB }

func NewAttributeRepo(db *sqlx.DB) *AttributeRepo { return &AttributeRepo{db: db} }

type attributeRow struct {
	ID          string `db:"id"`
	CategoryID  string `db:"category_id"`
	Key         string `db:"attr_key"`
	InputType   string `db:"input_type"`
	LabelUZ     string `db:"label_uz"`
	LabelRU     string `db:"label_ru"`
	LabelEN     string `db:"label_en"`
	OptionsJSON string `db:"options_json"`
	IsRequired  bool   `db:"is_required"`
	SortOrder   int    `db:"sort_order"`
	CreatedAt   string `db:"created_at"`
	UpdatedAt   string `db:"updated_at"`
}

const attributeColumns = `
    id, category_id, attr_key, input_type, label_uz, label_ru, label_en,
    COALESCE(options_json,'') AS options_json, is_required, sort_order,
    COALESCE(created_at,'') AS created_at, COALESCE(updated_at,'') AS updated_at`

func (row attributeRow) toDomain() (domain.AttributeDefinition, error) {
	a := domain.AttributeDefinition{
		ID:         row.ID,
		CategoryID: row.CategoryID,
		Key:        row.Key,
		InputType:  domain.InputType(row.InputType),
		Label:      domain.Label{UZ: row.LabelUZ, RU: row.LabelRU, EN: row.LabelEN},
		IsRequired: row.IsRequired,
		SortOrder:  row.SortOrder,
		CreatedAt:  row.CreatedAt,
		UpdatedAt:  row.UpdatedAt,
	}
	if row.OptionsJSON != "" {
		if err := json.Unmarshal([]byte(row.OptionsJSON), &a.Options); err != nil {
			return a, fmt.Errorf("attribute %s: decode options: %w", row.ID, err)
		}
	}
	return a, nil
}

func encodeOptions(opts []domain.AttributeOption) (sql.NullString, error) {
	if len(opts) == 0 {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(opts)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

// CategoryAttributes returns the category's attributes by sort order, ties
// in insertion order.
func (r *AttributeRepo) CategoryAttributes(ctx context.Context, categoryID string) ([]domain.AttributeDefinition, error) {
	if err := categoryMustExist(ctx, r.db, categoryID); err != nil {
		return nil, err
	}
	var rows []attributeRow
	err := r.db.SelectContext(ctx, &rows, `
  SELECT`+attributeColumns+`
  FROM category_attributes
  WHERE category_id = ?
  ORDER BY sort_order ASC, rowid ASC
`, categoryID)
	if err != nil {
		return nil, err
	}
	out := make([]domain.AttributeDefinition, 0, len(rows))
	for _, row := range rows {
		a, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

func (r *AttributeRepo) Attribute(ctx context.Context, id string) (domain.AttributeDefinition, error) {
	var row attributeRow
	err := r.db.GetContext(ctx, &row, `SELECT`+attributeColumns+` FROM category_attributes WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.AttributeDefinition{}, &domain.NotFoundError{Resource: "attribute", ID: id}
	}
	if err != nil {
		return domain.AttributeDefinition{}, err
	}
	return row.toDomain()
}

func (r *AttributeRepo) InsertAttribute(ctx context.Context, categoryID string, d domain.AttributeDraft) (domain.AttributeDefinition, error) {
	opts, err := encodeOptions(d.Options)
	if err != nil {
		return domain.AttributeDefinition{}, err
	}
	sortOrder := 0
	if d.SortOrder != nil {
		sortOrder = *d.SortOrder
	}
	id := uuid.NewString()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return domain.AttributeDefinition{}, err
	}
	defer func() { _ = tx.Rollback() }()

	if err := categoryMustExist(ctx, tx, categoryID); err != nil {
		return domain.AttributeDefinition{}, err
	}
	if err := keyMustBeFree(ctx, tx, categoryID, d.Key, ""); err != nil {
		return domain.AttributeDefinition{}, err
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO category_attributes(id,category_id,attr_key,input_type,label_uz,label_ru,label_en,options_json,is_required,sort_order)
		VALUES(?,?,?,?,?,?,?,?,?,?)
	`, id, categoryID, d.Key, string(d.InputType), d.Label.UZ, d.Label.RU, d.Label.EN, opts, d.IsRequired, sortOrder); err != nil {
		return domain.AttributeDefinition{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.AttributeDefinition{}, err
	}
	return r.Attribute(ctx, id)
}

// UpdateAttribute replaces the writable fields of attribute id with a.
func (r *AttributeRepo) UpdateAttribute(ctx context.Context, id string, a domain.AttributeDefinition) (domain.AttributeDefinition, error) {
	opts, err := encodeOptions(a.Options)
	if err != nil {
		return domain.AttributeDefinition{}, err
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return domain.AttributeDefinition{}, err
	}
	defer func() { _ = tx.Rollback() }()

	var categoryID string
	err = tx.GetContext(ctx, &categoryID, `SELECT category_id FROM category_attributes WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.AttributeDefinition{}, &domain.NotFoundError{Resource: "attribute", ID: id}
	}
	if err != nil {
		return domain.AttributeDefinition{}, err
	}
	if err := keyMustBeFree(ctx, tx, categoryID, a.Key, id); err != nil {
		return domain.AttributeDefinition{}, err
	}
	if _, err := tx.ExecContext(ctx, `
		UPDATE category_attributes
		SET attr_key = ?, input_type = ?, label_uz = ?, label_ru = ?, label_en = ?,
		    options_json = ?, is_required = ?, sort_order = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, a.Key, string(a.InputType), a.Label.UZ, a.Label.RU, a.Label.EN, opts, a.IsRequired, a.SortOrder, id); err != nil {
		return domain.AttributeDefinition{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.AttributeDefinition{}, err
	}
	return r.Attribute(ctx, id)
}

// DeleteAttribute removes the definition only; product spec values that
// reference its key stay as they are.
func (r *AttributeRepo) DeleteAttribute(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM category_attributes WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return &domain.NotFoundError{Resource: "attribute", ID: id}
	}
	return nil
}

func categoryMustExist(ctx context.Context, q sqlx.QueryerContext, categoryID string) error {
	var n int
	if err := sqlx.GetContext(ctx, q, &n, `SELECT COUNT(*) FROM categories WHERE id = ?`, categoryID); err != nil {
		return err
	}
	if n == 0 {
		return &domain.NotFoundError{Resource: "category", ID: categoryID}
	}
	return nil
}

func keyMustBeFree(ctx context.Context, q sqlx.QueryerContext, categoryID, key, exceptID string) error {
	var n int
	if err := sqlx.GetContext(ctx, q, &n, `
		SELECT COUNT(*) FROM category_attributes
		WHERE category_id = ? AND attr_key = ? AND id != ?
	`, categoryID, key, exceptID); err != nil {
		return err
	}
	if n > 0 {
		return &domain.ValidationError{Field: "key", Message: fmt.Sprintf("%q already exists in this category", key)}
	}
	return nil
}
