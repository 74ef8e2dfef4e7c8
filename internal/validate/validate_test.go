package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mebellar/internal/domain"
)

func TestAttrKey(t *testing.T) {
	good := []string{"color", "_internal", "seat_count_2", "a"}
	for _, k := range good {
		_, ok := AttrKey(k)
		assert.True(t, ok, k)
	}
	bad := []string{"", "Color", "2seats", "seat-count", "seat count", "цвет", "a.b"}
	for _, k := range bad {
		_, ok := AttrKey(k)
		assert.False(t, ok, k)
	}
}

func TestEmailAndPassword(t *testing.T) {
	_, ok := Email("admin@mebellar.test")
	assert.True(t, ok)
	_, ok = Email("not-an-email")
	assert.False(t, ok)

	assert.True(t, Password("Passw0rd!"))
	assert.False(t, Password("password"))
}

func dropdown(opts ...domain.AttributeOption) domain.AttributeDraft {
	return domain.AttributeDraft{
		Key:       "color",
		InputType: domain.InputDropdown,
		Label:     domain.Label{UZ: "Rang"},
		Options:   opts,
	}
}

func TestAttributeDraft(t *testing.T) {
	red := domain.AttributeOption{Value: "red", Label: domain.Label{UZ: "Qizil"}}
	blue := domain.AttributeOption{Value: "blue", Label: domain.Label{UZ: "Ko'k"}}

	tests := []struct {
		name  string
		draft domain.AttributeDraft
		field string
	}{
		{"valid dropdown", dropdown(red, blue), ""},
		{"valid text", domain.AttributeDraft{Key: "brand", InputType: domain.InputText, Label: domain.Label{UZ: "Brend"}}, ""},
		{"missing key", domain.AttributeDraft{InputType: domain.InputText, Label: domain.Label{UZ: "x"}}, "key"},
		{"bad key", domain.AttributeDraft{Key: "Brand", InputType: domain.InputText, Label: domain.Label{UZ: "x"}}, "key"},
		{"missing type", domain.AttributeDraft{Key: "brand", Label: domain.Label{UZ: "x"}}, "type"},
		{"unknown type", domain.AttributeDraft{Key: "brand", InputType: "slider", Label: domain.Label{UZ: "x"}}, "type"},
		{"missing uz label", domain.AttributeDraft{Key: "brand", InputType: domain.InputText, Label: domain.Label{EN: "Brand"}}, "label.uz"},
		{"dropdown without options", dropdown(), "options"},
		{"option without value", dropdown(red, domain.AttributeOption{Label: domain.Label{UZ: "Bo'sh"}}), "options[1].value"},
		{"option without uz label", dropdown(red, domain.AttributeOption{Value: "blue", Label: domain.Label{EN: "Blue"}}), "options[1].label.uz"},
		{"duplicate option", dropdown(red, red), "options[1].value"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := AttributeDraft(tt.draft)
			if tt.field == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			var ve *domain.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}
