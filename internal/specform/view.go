package specform

import (
	"errors"

	"mebellar/internal/domain"
)

// Control names the HTML control a field is rendered with.
type Control string

const (
	ControlText     Control = "input-text"
	ControlNumber   Control = "input-number"
	ControlSelect   Control = "select"
	ControlCheckbox Control = "checkbox"
)

func controlFor(t domain.InputType) Control {
	switch t {
	case domain.InputText:
		return ControlText
	case domain.InputNumber:
		return ControlNumber
	case domain.InputDropdown:
		return ControlSelect
	case domain.InputSwitch:
		return ControlCheckbox
	}
	return ControlText
}

type OptionView struct {
	Value    string
	Label    string
	Selected bool
}

// FieldView is everything a template needs to draw one field.
type FieldView struct {
	Key      string
	Label    string
	Control  Control
	Required bool
	Value    string
	Checked  bool
	Options  []OptionView
	Error    string
}

func (s *Session) View(lang domain.Lang) []FieldView {
	out := make([]FieldView, 0, len(s.fields))
	for _, f := range s.fields {
		fv := FieldView{
			Key:      f.def.Key,
			Label:    f.def.DisplayLabel(lang),
			Control:  controlFor(f.def.InputType),
			Required: f.def.IsRequired,
			Value:    Display(f.value),
		}
		switch v := f.value.(type) {
		case Toggle:
			fv.Checked = bool(v)
		case Choice:
			fv.Options = make([]OptionView, len(f.def.Options))
			for i, o := range f.def.Options {
				fv.Options[i] = OptionView{Value: o.Value, Label: o.DisplayLabel(lang), Selected: o.Value == string(v)}
			}
		}
		out = append(out, fv)
	}
	return out
}

// WithErrors attaches the per-field messages of err to the matching views.
func WithErrors(views []FieldView, err error) []FieldView {
	if err == nil {
		return views
	}
	var batch domain.FieldErrors
	if !errors.As(err, &batch) {
		batch = domain.FieldErrors{err}
	}
	msgs := map[string]string{}
	for _, e := range batch {
		if k := domain.FieldOf(e); k != "" {
			if _, seen := msgs[k]; !seen {
				msgs[k] = e.Error()
			}
		}
	}
	for i := range views {
		views[i].Error = msgs[views[i].Key]
	}
	return views
}
