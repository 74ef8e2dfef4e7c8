package validate

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"mebellar/internal/domain"
)

var drafts = newDraftValidator()

func newDraftValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("attrkey", func(fl validator.FieldLevel) bool {
		_, ok := AttrKey(fl.Field().String())
		return ok
	})
	v.RegisterStructValidation(dropdownOptions, domain.AttributeDraft{})
	return v
}

// dropdownOptions checks the rules that span fields: a dropdown needs at
// least one option and option values must be distinct.
func dropdownOptions(sl validator.StructLevel) {
	d := sl.Current().Interface().(domain.AttributeDraft)
	if d.InputType != domain.InputDropdown {
		return
	}
	if len(d.Options) == 0 {
		sl.ReportError(d.Options, "options", "Options", "dropdown_options", "")
		return
	}
	seen := make(map[string]bool, len(d.Options))
	for i, o := range d.Options {
		if o.Value == "" {
			continue
		}
		if seen[o.Value] {
			sl.ReportError(o.Value, fmt.Sprintf("options[%d].value", i), "Value", "unique_option", "")
			continue
		}
		seen[o.Value] = true
	}
}

// AttributeDraft validates a normalized draft and reports the first
// offending field, e.g. "options[1].label.uz".
func AttributeDraft(d domain.AttributeDraft) error {
	err := drafts.Struct(d)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &domain.ValidationError{Message: err.Error()}
	}
	fe := verrs[0]
	return &domain.ValidationError{Field: fieldPath(fe.Namespace()), Message: describe(fe)}
}

func fieldPath(ns string) string {
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "attrkey":
		return fmt.Sprintf("must match [a-z_][a-z0-9_]* and be at most %d characters", maxAttrKey)
	case "oneof":
		return "must be one of " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "dropdown_options":
		return "a dropdown needs at least one option"
	case "unique_option":
		return "duplicate option value"
	}
	return "is invalid"
}
