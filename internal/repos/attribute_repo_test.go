package repos_test

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mebellar/internal/domain"
	"mebellar/internal/repos"
)

func memdb(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := repos.OpenDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func keys(attrs []domain.AttributeDefinition) []string {
	out := make([]string, len(attrs))
	for i, a := range attrs {
		out[i] = a.Key
	}
	return out
}

func intp(n int) *int { return &n }

func TestCategoryAttributesSeededOrder(t *testing.T) {
	repo := repos.NewAttributeRepo(memdb(t))
	ctx := context.Background()

	attrs, err := repo.CategoryAttributes(ctx, "sofas")
	require.NoError(t, err)
	assert.Equal(t, []string{"color", "material", "seats", "foldable"}, keys(attrs))

	color := attrs[0]
	assert.Equal(t, domain.InputDropdown, color.InputType)
	assert.True(t, color.IsRequired)
	require.Len(t, color.Options, 3)
	assert.Equal(t, "Серый", color.Options[0].Label.RU)
	assert.Nil(t, attrs[1].Options)
}

func TestCategoryAttributesEmptyAndMissing(t *testing.T) {
	repo := repos.NewAttributeRepo(memdb(t))
	ctx := context.Background()

	attrs, err := repo.CategoryAttributes(ctx, "kitchen")
	require.NoError(t, err)
	assert.NotNil(t, attrs)
	assert.Empty(t, attrs)

	_, err = repo.CategoryAttributes(ctx, "garage")
	assert.True(t, domain.IsNotFound(err))
}

func TestInsertKeepsInsertionOrderOnTies(t *testing.T) {
	repo := repos.NewAttributeRepo(memdb(t))
	ctx := context.Background()

	for _, k := range []string{"zeta", "alpha", "mid"} {
		_, err := repo.InsertAttribute(ctx, "kitchen", domain.AttributeDraft{
			Key: k, InputType: domain.InputText, Label: domain.Label{UZ: k}, SortOrder: intp(5),
		})
		require.NoError(t, err)
	}
	_, err := repo.InsertAttribute(ctx, "kitchen", domain.AttributeDraft{
		Key: "first", InputType: domain.InputSwitch, Label: domain.Label{UZ: "first"}, SortOrder: intp(1),
	})
	require.NoError(t, err)

	attrs, err := repo.CategoryAttributes(ctx, "kitchen")
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "zeta", "alpha", "mid"}, keys(attrs))
}

func TestInsertRejectsDuplicateKeyAndUnknownCategory(t *testing.T) {
	repo := repos.NewAttributeRepo(memdb(t))
	ctx := context.Background()

	_, err := repo.InsertAttribute(ctx, "sofas", domain.AttributeDraft{
		Key: "color", InputType: domain.InputText, Label: domain.Label{UZ: "Rang"},
	})
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "key", ve.Field)

	// the same key in another category is fine
	_, err = repo.InsertAttribute(ctx, "bedroom", domain.AttributeDraft{
		Key: "color", InputType: domain.InputText, Label: domain.Label{UZ: "Rang"},
	})
	require.NoError(t, err)

	_, err = repo.InsertAttribute(ctx, "garage", domain.AttributeDraft{
		Key: "color", InputType: domain.InputText, Label: domain.Label{UZ: "Rang"},
	})
	assert.True(t, domain.IsNotFound(err))
}

func TestUpdateAndDeleteAttribute(t *testing.T) {
	db := memdb(t)
	repo := repos.NewAttributeRepo(db)
	products := repos.NewProductRepo(db)
	ctx := context.Background()

	cur, err := repo.Attribute(ctx, "attr-sofa-material")
	require.NoError(t, err)
	cur.Label.EN = "Upholstery"
	cur.IsRequired = true
	got, err := repo.UpdateAttribute(ctx, cur.ID, cur)
	require.NoError(t, err)
	assert.Equal(t, "Upholstery", got.Label.EN)
	assert.True(t, got.IsRequired)
	assert.NotEmpty(t, got.UpdatedAt)

	// renaming onto an existing key is rejected
	cur.Key = "color"
	_, err = repo.UpdateAttribute(ctx, cur.ID, cur)
	assert.True(t, domain.IsValidation(err))

	_, err = repo.UpdateAttribute(ctx, "nope", cur)
	assert.True(t, domain.IsNotFound(err))

	require.NoError(t, repo.DeleteAttribute(ctx, "attr-sofa-material"))
	err = repo.DeleteAttribute(ctx, "attr-sofa-material")
	assert.True(t, domain.IsNotFound(err))

	// stored spec values are left alone
	p, err := products.Get(ctx, "sofa-001")
	require.NoError(t, err)
	assert.Contains(t, p.SpecsJSON, `"material":"velvet"`)
}
