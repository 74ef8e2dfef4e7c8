package specform

import (
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"

	"mebellar/internal/domain"
)

const draft202012 = "https://json-schema.org/draft/2020-12/schema"

// BuildJSONSchema describes the serialized spec map of a category as a
// JSON Schema document. Titles are resolved in lang. Keys outside the
// schema are allowed as long as they hold scalars, so preserved orphans
// still pass.
func BuildJSONSchema(schema []domain.AttributeDefinition, lang domain.Lang) map[string]any {
	defs := append([]domain.AttributeDefinition(nil), schema...)
	domain.SortAttributes(defs)

	props := make(map[string]any, len(defs))
	required := []string{}
	for _, def := range defs {
		p := map[string]any{"title": def.DisplayLabel(lang)}
		switch def.InputType {
		case domain.InputText:
			p["type"] = "string"
			if def.IsRequired {
				p["pattern"] = `\S`
			}
		case domain.InputNumber:
			p["type"] = "number"
		case domain.InputDropdown:
			enum := make([]any, len(def.Options))
			for i, o := range def.Options {
				enum[i] = o.Value
			}
			p["type"] = "string"
			p["enum"] = enum
		case domain.InputSwitch:
			p["type"] = "boolean"
			if def.IsRequired {
				p["const"] = true
			}
		}
		if def.IsRequired {
			required = append(required, def.Key)
		}
		props[def.Key] = p
	}

	return map[string]any{
		"$schema":    draft202012,
		"type":       "object",
		"properties": props,
		"required":   required,
		"additionalProperties": map[string]any{
			"type": []any{"string", "number", "boolean"},
		},
	}
}

// ValidateWire checks a spec map against a document from BuildJSONSchema.
func ValidateWire(doc map[string]any, specs map[string]any) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	var schema jsonschema.Schema
	if err := json.Unmarshal(raw, &schema); err != nil {
		return fmt.Errorf("unmarshal into jsonschema.Schema: %w", err)
	}
	resolved, err := schema.Resolve(&jsonschema.ResolveOptions{})
	if err != nil {
		return fmt.Errorf("resolve schema: %w", err)
	}

	// round trip so numbers and maps have the shapes the validator expects
	data, err := json.Marshal(specs)
	if err != nil {
		return &domain.ValidationError{Field: "specs", Message: err.Error()}
	}
	var instance any
	if err := json.Unmarshal(data, &instance); err != nil {
		return &domain.ValidationError{Field: "specs", Message: err.Error()}
	}
	if instance == nil {
		instance = map[string]any{}
	}
	if err := resolved.Validate(instance); err != nil {
		return &domain.ValidationError{Field: "specs", Message: err.Error()}
	}
	return nil
}
