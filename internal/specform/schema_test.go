package specform_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mebellar/internal/domain"
	"mebellar/internal/specform"
)

func TestBuildJSONSchema(t *testing.T) {
	doc := specform.BuildJSONSchema(sofaSchema(), domain.LangRU)

	assert.Equal(t, "object", doc["type"])
	assert.Equal(t, []string{"color", "seats"}, doc["required"])

	props := doc["properties"].(map[string]any)
	color := props["color"].(map[string]any)
	assert.Equal(t, "Цвет", color["title"])
	assert.Equal(t, []any{"red", "blue"}, color["enum"])
	assert.Equal(t, "number", props["seats"].(map[string]any)["type"])
	assert.Equal(t, "boolean", props["foldable"].(map[string]any)["type"])
	assert.NotContains(t, props["foldable"].(map[string]any), "const")
}

func TestValidateWire(t *testing.T) {
	schema := append(sofaSchema(), domain.AttributeDefinition{
		Key: "brand", InputType: domain.InputText, Label: domain.Label{UZ: "Brend"}, IsRequired: true,
	})
	doc := specform.BuildJSONSchema(schema, domain.LangUZ)

	ok := map[string]any{"color": "red", "seats": float64(3), "brand": "Ikea", "legacy_sku": "LNG-44"}
	require.NoError(t, specform.ValidateWire(doc, ok))

	bad := []map[string]any{
		{"seats": float64(3), "brand": "Ikea"},
		{"color": "green", "seats": float64(3), "brand": "Ikea"},
		{"color": "red", "seats": "three", "brand": "Ikea"},
		{"color": "red", "seats": float64(3), "brand": "  "},
		{"color": "red", "seats": float64(3), "brand": "Ikea", "foldable": "yes"},
		{"color": "red", "seats": float64(3), "brand": "Ikea", "extra": map[string]any{"a": 1}},
	}
	for _, specs := range bad {
		err := specform.ValidateWire(doc, specs)
		require.Error(t, err, "%v", specs)
		assert.Equal(t, "specs", domain.FieldOf(err))
	}
}
