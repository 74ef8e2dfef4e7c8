package specform

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"

	"mebellar/internal/domain"
)

// DecodeSpecs parses a stored spec object. Nulls are skipped and nested
// values are rejected. Empty input decodes to an empty map.
func DecodeSpecs(data []byte) (map[string]any, error) {
	out := map[string]any{}
	if len(bytes.TrimSpace(data)) == 0 {
		return out, nil
	}
	if !gjson.ValidBytes(data) {
		return nil, &domain.ValidationError{Field: "specs", Message: "malformed JSON"}
	}
	root := gjson.ParseBytes(data)
	if root.Type == gjson.Null {
		return out, nil
	}
	if !root.IsObject() {
		return nil, &domain.ValidationError{Field: "specs", Message: "must be a JSON object"}
	}

	var err error
	root.ForEach(func(k, v gjson.Result) bool {
		switch v.Type {
		case gjson.Null:
		case gjson.String:
			out[k.String()] = v.String()
		case gjson.Number:
			f := v.Float()
			if !finite(f) {
				err = &domain.ValidationError{Field: k.String(), Message: "must be a finite number"}
				return false
			}
			out[k.String()] = f
		case gjson.True, gjson.False:
			out[k.String()] = v.Bool()
		default:
			err = &domain.ValidationError{Field: k.String(), Message: "nested values are not supported"}
			return false
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// EncodeSpecs writes m as a flat JSON object with sorted keys. Nil values
// are dropped.
func EncodeSpecs(m map[string]any) ([]byte, error) {
	flat := make(map[string]any, len(m))
	for k, v := range m {
		switch x := v.(type) {
		case nil:
			continue
		case float64:
			if !finite(x) {
				return nil, &domain.ValidationError{Field: k, Message: "must be a finite number"}
			}
		case float32:
			if !finite(float64(x)) {
				return nil, &domain.ValidationError{Field: k, Message: "must be a finite number"}
			}
		case string, bool, int, int32, int64, json.Number:
		default:
			return nil, &domain.ValidationError{Field: k, Message: fmt.Sprintf("unsupported value type %T", v)}
		}
		flat[k] = v
	}
	data, err := json.Marshal(flat)
	if err != nil {
		return nil, &domain.ValidationError{Field: "specs", Message: err.Error()}
	}
	return data, nil
}
