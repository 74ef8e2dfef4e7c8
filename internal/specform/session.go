// Package specform holds the editing session behind a product's dynamic
// spec form: it turns a category's attribute schema and a stored spec map
// into typed field values, applies edits, and validates and serializes the
// result back into the sparse wire map.
//
// A Session is owned by one request and is not safe for concurrent use.
package specform

import (
	"errors"
	"fmt"
	"maps"
	"strings"

	"mebellar/internal/domain"
)

type State int

const (
	Uninitialized State = iota
	Editing
	Valid
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Editing:
		return "editing"
	case Valid:
		return "valid"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// OrphanPolicy decides what happens to stored keys the schema does not
// define.
type OrphanPolicy string

const (
	PreserveOrphans OrphanPolicy = "preserve"
	DropOrphans     OrphanPolicy = "drop"
)

func ParseOrphanPolicy(s string) (OrphanPolicy, error) {
	switch p := OrphanPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case PreserveOrphans, DropOrphans:
		return p, nil
	case "":
		return PreserveOrphans, nil
	}
	return "", fmt.Errorf("unknown orphan policy %q", s)
}

// ErrState is returned when an operation is called in the wrong state.
var ErrState = errors.New("specform: invalid session state")

type Option func(*Session)

func WithOrphanPolicy(p OrphanPolicy) Option {
	return func(s *Session) {
		if p != "" {
			s.policy = p
		}
	}
}

type field struct {
	def    domain.AttributeDefinition
	value  Value
	edited bool
}

// Field is a read-only snapshot of one field.
type Field struct {
	Definition domain.AttributeDefinition
	Value      Value
	Edited     bool
}

type Session struct {
	policy   OrphanPolicy
	state    State
	fields   []*field
	index    map[string]*field
	baseline map[string]any
	orphans  map[string]any
	result   map[string]any
}

func NewSession(opts ...Option) *Session {
	s := &Session{policy: PreserveOrphans}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Session) State() State               { return s.state }
func (s *Session) OrphanPolicy() OrphanPolicy { return s.policy }

// Initialize loads schema and the stored spec map. existing may be nil for
// a product without specs.
func (s *Session) Initialize(schema []domain.AttributeDefinition, existing map[string]any) error {
	if s.state != Uninitialized {
		return fmt.Errorf("%w: initialize while %s", ErrState, s.state)
	}
	s.baseline = maps.Clone(existing)
	s.load(schema, nil)
	s.state = Editing
	return nil
}

// Reinitialize swaps in a new schema mid-edit, e.g. after the product's
// category changed. Edits survive for keys kept with the same type. A nil
// existing reuses the map given to Initialize.
func (s *Session) Reinitialize(schema []domain.AttributeDefinition, existing map[string]any) error {
	if s.state != Editing {
		return fmt.Errorf("%w: reinitialize while %s", ErrState, s.state)
	}
	if existing != nil {
		s.baseline = maps.Clone(existing)
	}
	edits := map[string]*field{}
	for _, f := range s.fields {
		if f.edited {
			edits[f.def.Key] = f
		}
	}
	s.load(schema, edits)
	return nil
}

func (s *Session) load(schema []domain.AttributeDefinition, edits map[string]*field) {
	defs := append([]domain.AttributeDefinition(nil), schema...)
	domain.SortAttributes(defs)

	s.fields = make([]*field, 0, len(defs))
	s.index = make(map[string]*field, len(defs))
	s.orphans = map[string]any{}
	s.result = nil

	for _, def := range defs {
		f := &field{def: def}
		if e, ok := edits[def.Key]; ok && e.def.InputType == def.InputType {
			f.value, f.edited = e.value, true
		} else {
			raw, stored := s.baseline[def.Key]
			v, ok := fromStored(def.InputType, raw)
			if !ok && stored {
				s.keepOrphan(def.Key, raw)
			}
			f.value = v
		}
		s.fields = append(s.fields, f)
		s.index[def.Key] = f
	}
	for k, v := range s.baseline {
		if _, known := s.index[k]; !known && v != nil {
			s.keepOrphan(k, v)
		}
	}
}

// keepOrphan carries v through unchanged. Floats without a JSON form are
// discarded.
func (s *Session) keepOrphan(key string, v any) {
	if f, ok := v.(float64); ok && !finite(f) {
		return
	}
	if s.policy == PreserveOrphans {
		s.orphans[key] = v
	}
}

// SetValue records an edit. Strings are coerced for the field type.
func (s *Session) SetValue(key string, raw any) error {
	if s.state != Editing {
		return fmt.Errorf("%w: set %q while %s", ErrState, key, s.state)
	}
	f, ok := s.index[key]
	if !ok {
		return &domain.ValidationError{Field: key, Message: "not an attribute of this category"}
	}
	v, err := fromInput(f.def, raw)
	if err != nil {
		return err
	}
	f.value, f.edited = v, true
	return nil
}

// ValidateAndSerialize checks every field and returns the sparse spec map.
// On failure the session stays in Editing and the error is a
// domain.FieldErrors holding one error per failing field.
func (s *Session) ValidateAndSerialize() (map[string]any, error) {
	switch s.state {
	case Valid:
		return maps.Clone(s.result), nil
	case Editing:
	default:
		return nil, fmt.Errorf("%w: validate while %s", ErrState, s.state)
	}

	var errs domain.FieldErrors
	for _, f := range s.fields {
		if f.def.IsRequired && f.value.Empty() {
			errs.Add(&domain.RequiredFieldError{Key: f.def.Key})
			continue
		}
		if c, ok := f.value.(Choice); ok && c != "" && !f.def.HasOption(string(c)) {
			errs.Add(&domain.InvalidOptionError{Key: f.def.Key, Value: string(c)})
		}
	}
	if errs.HasErrors() {
		return nil, errs.ToError()
	}

	out := make(map[string]any, len(s.orphans)+len(s.fields))
	maps.Copy(out, s.orphans)
	for _, f := range s.fields {
		if !f.value.Empty() {
			out[f.def.Key] = f.value.Wire()
		}
	}
	s.result = out
	s.state = Valid
	return maps.Clone(out), nil
}

// Fields returns the fields in schema order.
func (s *Session) Fields() []Field {
	out := make([]Field, len(s.fields))
	for i, f := range s.fields {
		out[i] = Field{Definition: f.def, Value: f.value, Edited: f.edited}
	}
	return out
}

// Orphans returns the stored keys carried through unchanged.
func (s *Session) Orphans() map[string]any { return maps.Clone(s.orphans) }
