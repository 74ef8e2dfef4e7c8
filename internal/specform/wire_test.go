package specform_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mebellar/internal/domain"
	"mebellar/internal/specform"
)

func TestDecodeSpecs(t *testing.T) {
	m, err := specform.DecodeSpecs([]byte(`{"color":"grey","seats":3,"foldable":true,"gone":null,"ratio":0.5}`))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"color": "grey", "seats": float64(3), "foldable": true, "ratio": 0.5}, m)

	for _, empty := range []string{"", "  ", "null", "{}"} {
		m, err := specform.DecodeSpecs([]byte(empty))
		require.NoError(t, err, empty)
		assert.Empty(t, m)
		assert.NotNil(t, m)
	}
}

func TestDecodeSpecsRejects(t *testing.T) {
	_, err := specform.DecodeSpecs([]byte(`{"dims":{"w":1}}`))
	assert.Equal(t, "dims", domain.FieldOf(err))

	_, err = specform.DecodeSpecs([]byte(`{"tags":["a"]}`))
	assert.Equal(t, "tags", domain.FieldOf(err))

	_, err = specform.DecodeSpecs([]byte(`[1,2]`))
	assert.Equal(t, "specs", domain.FieldOf(err))

	_, err = specform.DecodeSpecs([]byte(`{"a":`))
	assert.Equal(t, "specs", domain.FieldOf(err))

	_, err = specform.DecodeSpecs([]byte(`{"color":"grey","seats":1e400}`))
	assert.True(t, domain.IsValidation(err))
	assert.Equal(t, "seats", domain.FieldOf(err))
}

func TestEncodeSpecsRejectsNonFinite(t *testing.T) {
	_, err := specform.EncodeSpecs(map[string]any{"seats": math.NaN()})
	assert.True(t, domain.IsValidation(err))
	assert.Equal(t, "seats", domain.FieldOf(err))

	_, err = specform.EncodeSpecs(map[string]any{"seats": math.Inf(-1)})
	assert.Equal(t, "seats", domain.FieldOf(err))
}

func TestEncodeSpecs(t *testing.T) {
	b, err := specform.EncodeSpecs(map[string]any{"seats": float64(3), "color": "grey", "foldable": true, "x": nil})
	require.NoError(t, err)
	assert.JSONEq(t, `{"color":"grey","foldable":true,"seats":3}`, string(b))

	b, err = specform.EncodeSpecs(nil)
	require.NoError(t, err)
	assert.Equal(t, `{}`, string(b))

	_, err = specform.EncodeSpecs(map[string]any{"dims": map[string]any{"w": 1}})
	assert.Equal(t, "dims", domain.FieldOf(err))
}

func TestWireRoundTripThroughSession(t *testing.T) {
	in := []byte(`{"color":"red","legacy_sku":"LNG-44","material":"velvet","seats":0}`)
	stored, err := specform.DecodeSpecs(in)
	require.NoError(t, err)

	s := initialized(t, sofaSchema(), stored)
	out, err := s.ValidateAndSerialize()
	require.NoError(t, err)

	b, err := specform.EncodeSpecs(out)
	require.NoError(t, err)
	assert.JSONEq(t, string(in), string(b))
}
