package domain

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/language"
)

// InputType is the closed set of controls an attribute can be edited with.
type InputType string

const (
	InputText     InputType = "text"
	InputNumber   InputType = "number"
	InputDropdown InputType = "dropdown"
	InputSwitch   InputType = "switch"
)

// InputTypes lists every input type in display order.
var InputTypes = []InputType{InputText, InputNumber, InputDropdown, InputSwitch}

func ParseInputType(s string) (InputType, error) {
	t := InputType(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", &ValidationError{Field: "type", Message: fmt.Sprintf("unsupported input type %q", s)}
	}
	return t, nil
}

func (t InputType) Valid() bool {
	switch t {
	case InputText, InputNumber, InputDropdown, InputSwitch:
		return true
	}
	return false
}

// Title is the admin-facing name of the control.
func (t InputType) Title() string {
	switch t {
	case InputText:
		return "Text Input"
	case InputNumber:
		return "Number Input"
	case InputDropdown:
		return "Dropdown Select"
	case InputSwitch:
		return "Toggle Switch"
	}
	return string(t)
}

func (t *InputType) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return &ValidationError{Field: "type", Message: "must be a string"}
	}
	v, err := ParseInputType(s)
	if err != nil {
		return err
	}
	*t = v
	return nil
}

type Lang string

const (
	LangUZ Lang = "uz"
	LangRU Lang = "ru"
	LangEN Lang = "en"
)

var langMatcher = language.NewMatcher([]language.Tag{language.Uzbek, language.Russian, language.English})

// MatchLang picks the closest supported language for an Accept-Language
// header or a bare code. Unknown input resolves to uz.
func MatchLang(accept string) Lang {
	accept = strings.TrimSpace(accept)
	if accept == "" {
		return LangUZ
	}
	tags, _, err := language.ParseAcceptLanguage(accept)
	if err != nil || len(tags) == 0 {
		return LangUZ
	}
	_, idx, conf := langMatcher.Match(tags...)
	if conf == language.No {
		return LangUZ
	}
	return []Lang{LangUZ, LangRU, LangEN}[idx]
}

// Label holds the display text of an attribute or option per language.
type Label struct {
	UZ string `json:"uz" yaml:"uz" validate:"required"`
	RU string `json:"ru" yaml:"ru"`
	EN string `json:"en" yaml:"en"`
}

func (l Label) Get(lang Lang) string {
	switch lang {
	case LangRU:
		return l.RU
	case LangEN:
		return l.EN
	default:
		return l.UZ
	}
}

// ResolveLabel returns the label in lang, falling back to uz and then to
// fallback (the attribute key or option value).
func ResolveLabel(l Label, lang Lang, fallback string) string {
	if s := strings.TrimSpace(l.Get(lang)); s != "" {
		return s
	}
	if s := strings.TrimSpace(l.UZ); s != "" {
		return s
	}
	return fallback
}

func (l Label) trimmed() Label {
	return Label{UZ: strings.TrimSpace(l.UZ), RU: strings.TrimSpace(l.RU), EN: strings.TrimSpace(l.EN)}
}

type AttributeOption struct {
	Value string `json:"value" yaml:"value" validate:"required"`
	Label Label  `json:"label" yaml:"label"`
}

func (o AttributeOption) DisplayLabel(lang Lang) string {
	return ResolveLabel(o.Label, lang, o.Value)
}

// AttributeDefinition is one field of a category's product spec schema.
type AttributeDefinition struct {
	ID         string            `json:"id"`
	CategoryID string            `json:"category_id"`
	Key        string            `json:"key"`
	InputType  InputType         `json:"type"`
	Label      Label             `json:"label"`
	Options    []AttributeOption `json:"options,omitempty"`
	IsRequired bool              `json:"is_required"`
	SortOrder  int               `json:"sort_order"`
	CreatedAt  string            `json:"created_at,omitempty"`
	UpdatedAt  string            `json:"updated_at,omitempty"`
}

func (a AttributeDefinition) DisplayLabel(lang Lang) string {
	return ResolveLabel(a.Label, lang, a.Key)
}

// HasOption reports whether v is one of the declared option values.
func (a AttributeDefinition) HasOption(v string) bool {
	for _, o := range a.Options {
		if o.Value == v {
			return true
		}
	}
	return false
}

// Draft returns the writable part of the definition.
func (a AttributeDefinition) Draft() AttributeDraft {
	so := a.SortOrder
	return AttributeDraft{
		Key:        a.Key,
		InputType:  a.InputType,
		Label:      a.Label,
		Options:    a.Options,
		IsRequired: a.IsRequired,
		SortOrder:  &so,
	}
}

// Apply merges the fields present in p and returns the result.
func (a AttributeDefinition) Apply(p AttributePatch) AttributeDefinition {
	if p.Key != nil {
		a.Key = *p.Key
	}
	if p.InputType != nil {
		a.InputType = *p.InputType
	}
	if p.Label != nil {
		a.Label = *p.Label
	}
	if p.Options != nil {
		a.Options = *p.Options
	}
	if p.IsRequired != nil {
		a.IsRequired = *p.IsRequired
	}
	if p.SortOrder != nil {
		a.SortOrder = *p.SortOrder
	}
	if a.InputType != InputDropdown {
		a.Options = nil
	}
	return a
}

// AttributeDraft is the create payload. A nil SortOrder appends the
// attribute after the existing ones.
type AttributeDraft struct {
	Key        string            `json:"key" yaml:"key" validate:"required,attrkey"`
	InputType  InputType         `json:"type" yaml:"type" validate:"required,oneof=text number dropdown switch"`
	Label      Label             `json:"label" yaml:"label"`
	Options    []AttributeOption `json:"options,omitempty" yaml:"options" validate:"omitempty,dive"`
	IsRequired bool              `json:"is_required" yaml:"is_required"`
	SortOrder  *int              `json:"sort_order,omitempty" yaml:"sort_order"`
}

// Normalize trims text input and drops options from non-dropdown types.
func (d AttributeDraft) Normalize() AttributeDraft {
	d.Key = strings.TrimSpace(d.Key)
	d.Label = d.Label.trimmed()
	if d.InputType != InputDropdown {
		d.Options = nil
		return d
	}
	opts := make([]AttributeOption, len(d.Options))
	for i, o := range d.Options {
		opts[i] = AttributeOption{Value: strings.TrimSpace(o.Value), Label: o.Label.trimmed()}
	}
	d.Options = opts
	return d
}

// AttributePatch is a partial update; nil fields are left untouched.
type AttributePatch struct {
	Key        *string            `json:"key,omitempty"`
	InputType  *InputType         `json:"type,omitempty"`
	Label      *Label             `json:"label,omitempty"`
	Options    *[]AttributeOption `json:"options,omitempty"`
	IsRequired *bool              `json:"is_required,omitempty"`
	SortOrder  *int               `json:"sort_order,omitempty"`
}

// SortAttributes orders by SortOrder ascending, keeping source order on ties.
func SortAttributes(attrs []AttributeDefinition) {
	sort.SliceStable(attrs, func(i, j int) bool { return attrs[i].SortOrder < attrs[j].SortOrder })
}
