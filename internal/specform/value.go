package specform

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"mebellar/internal/domain"
)

// Value is the working value of one form field. The concrete variants map
// one to one onto domain.InputType.
type Value interface {
	// Empty reports whether the value is left out of the serialized map.
	Empty() bool
	// Wire is the scalar written to the spec map.
	Wire() any
	isValue()
}

type Text string

type Number struct {
	N   float64
	Set bool
}

type Choice string

type Toggle bool

func (v Text) Empty() bool   { return strings.TrimSpace(string(v)) == "" }
func (v Number) Empty() bool { return !v.Set }
func (v Choice) Empty() bool { return v == "" }
func (v Toggle) Empty() bool { return !bool(v) }

func (v Text) Wire() any   { return string(v) }
func (v Number) Wire() any { return v.N }
func (v Choice) Wire() any { return string(v) }
func (v Toggle) Wire() any { return bool(v) }

func (Text) isValue()   {}
func (Number) isValue() {}
func (Choice) isValue() {}
func (Toggle) isValue() {}

// Display renders v the way an HTML control carries it.
func Display(v Value) string {
	switch x := v.(type) {
	case Text:
		return string(x)
	case Number:
		if !x.Set {
			return ""
		}
		return formatFloat(x.N)
	case Choice:
		return string(x)
	case Toggle:
		if x {
			return "true"
		}
		return ""
	}
	return ""
}

func zero(t domain.InputType) Value {
	switch t {
	case domain.InputText:
		return Text("")
	case domain.InputNumber:
		return Number{}
	case domain.InputDropdown:
		return Choice("")
	case domain.InputSwitch:
		return Toggle(false)
	}
	panic(fmt.Sprintf("specform: unknown input type %q", t))
}

// fromStored coerces a value read from a stored spec map. ok is false when
// the stored value cannot be represented by the field type; the caller
// keeps such values verbatim.
func fromStored(t domain.InputType, raw any) (v Value, ok bool) {
	if raw == nil {
		return zero(t), true
	}
	switch t {
	case domain.InputText:
		s, ok := scalarString(raw)
		return Text(s), ok
	case domain.InputDropdown:
		s, ok := scalarString(raw)
		return Choice(s), ok
	case domain.InputSwitch:
		b, isBool := raw.(bool)
		s, isStr := raw.(string)
		return Toggle((isBool && b) || (isStr && s == "true")), true
	case domain.InputNumber:
		return toNumber(raw)
	}
	return zero(t), false
}

// fromInput coerces a value supplied by an editor. Strings are accepted
// for every type since HTML forms post nothing else.
func fromInput(def domain.AttributeDefinition, raw any) (Value, error) {
	mismatch := func(want string) error {
		return &domain.ValidationError{Field: def.Key, Message: fmt.Sprintf("expected %s, got %T", want, raw)}
	}
	if raw == nil {
		return zero(def.InputType), nil
	}
	switch def.InputType {
	case domain.InputText:
		s, ok := scalarString(raw)
		if !ok {
			return nil, mismatch("text")
		}
		return Text(s), nil
	case domain.InputDropdown:
		s, ok := raw.(string)
		if !ok {
			return nil, mismatch("an option value")
		}
		return Choice(strings.TrimSpace(s)), nil
	case domain.InputSwitch:
		switch x := raw.(type) {
		case bool:
			return Toggle(x), nil
		case string:
			switch strings.TrimSpace(x) {
			case "true":
				return Toggle(true), nil
			case "", "false":
				return Toggle(false), nil
			}
		}
		return nil, mismatch("true or false")
	case domain.InputNumber:
		n, ok := toNumber(raw)
		if !ok {
			return nil, &domain.ValidationError{Field: def.Key, Message: "must be a finite number"}
		}
		return n, nil
	}
	return nil, mismatch(string(def.InputType))
}

// toNumber accepts finite numbers and numeric strings. NaN and the
// infinities have no JSON form and are refused.
func toNumber(raw any) (Number, bool) {
	var f float64
	switch x := raw.(type) {
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int64:
		f = float64(x)
	case json.Number:
		n, err := x.Float64()
		if err != nil {
			return Number{}, false
		}
		f = n
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return Number{}, true
		}
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return Number{}, false
		}
		f = n
	default:
		return Number{}, false
	}
	if !finite(f) {
		return Number{}, false
	}
	return Number{N: f, Set: true}, true
}

func finite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }

func scalarString(raw any) (string, bool) {
	switch x := raw.(type) {
	case string:
		return x, true
	case float64:
		return formatFloat(x), true
	case int:
		return strconv.Itoa(x), true
	case int64:
		return strconv.FormatInt(x, 10), true
	case json.Number:
		return x.String(), true
	case bool:
		return strconv.FormatBool(x), true
	}
	return "", false
}

func formatFloat(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }
