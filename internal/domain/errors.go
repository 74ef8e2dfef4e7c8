package domain

import (
	"errors"
	"fmt"
	"strings"
)

const (
	CodeValidation    = "VALIDATION_FAILED"
	CodeNotFound      = "NOT_FOUND"
	CodeRequiredField = "REQUIRED_FIELD_MISSING"
	CodeInvalidOption = "INVALID_OPTION"
	CodeUpstream      = "UPSTREAM_FAILED"
)

// Coder is implemented by every error in this package.
type Coder interface {
	Code() string
}

// ValidationError reports a malformed schema draft or input value.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Message
	}
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Code() string { return CodeValidation }

// NotFoundError reports a missing category, attribute or product.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Resource, e.ID)
}

func (e *NotFoundError) Code() string { return CodeNotFound }

type RequiredFieldError struct {
	Key string
}

func (e *RequiredFieldError) Error() string { return e.Key + ": value is required" }
func (e *RequiredFieldError) Code() string  { return CodeRequiredField }

type InvalidOptionError struct {
	Key   string
	Value string
}

func (e *InvalidOptionError) Error() string {
	return fmt.Sprintf("%s: %q is not one of the allowed options", e.Key, e.Value)
}

func (e *InvalidOptionError) Code() string { return CodeInvalidOption }

// UpstreamError wraps a failed call to the persistence collaborator.
type UpstreamError struct {
	Op         string
	StatusCode int
	Reason     string
	Err        error
}

func (e *UpstreamError) Error() string {
	var b strings.Builder
	b.WriteString("upstream ")
	b.WriteString(e.Op)
	b.WriteString(" failed")
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (status %d)", e.StatusCode)
	}
	if e.Reason != "" {
		b.WriteString(": ")
		b.WriteString(e.Reason)
	} else if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *UpstreamError) Code() string  { return CodeUpstream }
func (e *UpstreamError) Unwrap() error { return e.Err }

// FieldErrors is a batch of per-field failures reported together.
type FieldErrors []error

func (fe FieldErrors) Error() string {
	msgs := make([]string, len(fe))
	for i, err := range fe {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

func (fe FieldErrors) Unwrap() []error { return fe }
func (fe FieldErrors) Code() string    { return CodeValidation }

// Add appends err, flattening nested batches.
func (fe *FieldErrors) Add(err error) {
	if err == nil {
		return
	}
	var nested FieldErrors
	if errors.As(err, &nested) {
		*fe = append(*fe, nested...)
		return
	}
	*fe = append(*fe, err)
}

func (fe FieldErrors) HasErrors() bool { return len(fe) > 0 }

// ToError returns nil for an empty batch.
func (fe FieldErrors) ToError() error {
	if len(fe) == 0 {
		return nil
	}
	return fe
}

// FieldOf returns the field or key an error refers to.
func FieldOf(err error) string {
	var (
		ve  *ValidationError
		rfe *RequiredFieldError
		ioe *InvalidOptionError
	)
	switch {
	case errors.As(err, &rfe):
		return rfe.Key
	case errors.As(err, &ioe):
		return ioe.Key
	case errors.As(err, &ve):
		return ve.Field
	}
	return ""
}

// CodeOf returns the taxonomy code of err, or "INTERNAL" for foreign errors.
func CodeOf(err error) string {
	var c Coder
	if errors.As(err, &c) {
		return c.Code()
	}
	return "INTERNAL"
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

func IsUpstream(err error) bool {
	var ue *UpstreamError
	return errors.As(err, &ue)
}

func IsFieldErrors(err error) bool {
	var fe FieldErrors
	return errors.As(err, &fe)
}

// IsTaxonomy reports whether err already belongs to this package's taxonomy.
func IsTaxonomy(err error) bool {
	var c Coder
	return errors.As(err, &c)
}
