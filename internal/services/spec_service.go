package services

import (
	"context"
	"errors"
	"maps"
	"slices"
	"strings"

	"mebellar/internal/domain"
	"mebellar/internal/metrics"
	"mebellar/internal/repos"
	"mebellar/internal/specform"
	"mebellar/internal/validate"
)

// SpecService edits the spec maps of stored products against their
// category's attribute schema.
type SpecService struct {
	Schema   *AttributeSchemaStore
	Products *repos.ProductRepo
	Policy   specform.OrphanPolicy
	Metrics  *metrics.Metrics
}

func NewSpecService(schema *AttributeSchemaStore, products *repos.ProductRepo, policy specform.OrphanPolicy, m *metrics.Metrics) *SpecService {
	return &SpecService{Schema: schema, Products: products, Policy: policy, Metrics: m}
}

// SpecEdit is an open editing session for one product.
type SpecEdit struct {
	Product    domain.Product
	CategoryID string
	Session    *specform.Session
}

// SpecUpdate carries posted values. With Complete set every schema field
// is assigned and a missing key clears it; otherwise only the given keys
// change.
type SpecUpdate struct {
	CategoryID string
	Values     map[string]any
	Complete   bool
}

func (s *SpecService) newSession() *specform.Session {
	return specform.NewSession(specform.WithOrphanPolicy(s.Policy))
}

func (s *SpecService) schemaFor(ctx context.Context, categoryID string) ([]domain.AttributeDefinition, error) {
	if categoryID == "" {
		return nil, nil
	}
	return s.Schema.ListForCategory(ctx, categoryID)
}

// Open loads the product and initializes a session from its stored specs.
// A categoryID other than the product's swaps in that category's schema.
func (s *SpecService) Open(ctx context.Context, productID, categoryID string) (*SpecEdit, error) {
	p, err := s.Products.Get(ctx, productID)
	if err != nil {
		return nil, err
	}
	stored, err := specform.DecodeSpecs([]byte(p.SpecsJSON))
	if err != nil {
		return nil, err
	}
	schema, err := s.schemaFor(ctx, p.CategoryID)
	if err != nil {
		return nil, err
	}
	sess := s.newSession()
	if err := sess.Initialize(schema, stored); err != nil {
		return nil, err
	}

	edit := &SpecEdit{Product: p, CategoryID: p.CategoryID, Session: sess}
	if categoryID = strings.TrimSpace(categoryID); categoryID != "" && categoryID != p.CategoryID {
		next, err := s.Schema.ListForCategory(ctx, categoryID)
		if err != nil {
			return nil, err
		}
		if err := sess.Reinitialize(next, nil); err != nil {
			return nil, err
		}
		edit.CategoryID = categoryID
	}
	return edit, nil
}

// apply sets values in key order and runs validation. Errors from SetValue
// and from validation come back as one batch, one entry per key.
func apply(sess *specform.Session, values map[string]any, complete bool) (map[string]any, error) {
	var errs domain.FieldErrors
	failed := map[string]bool{}
	for _, k := range slices.Sorted(maps.Keys(values)) {
		if err := sess.SetValue(k, values[k]); err != nil {
			errs.Add(err)
			failed[k] = true
		}
	}
	if complete {
		for _, f := range sess.Fields() {
			if _, posted := values[f.Definition.Key]; !posted {
				_ = sess.SetValue(f.Definition.Key, nil)
			}
		}
	}

	out, err := sess.ValidateAndSerialize()
	if err != nil {
		var batch domain.FieldErrors
		if !errors.As(err, &batch) {
			return nil, err
		}
		for _, e := range batch {
			if !failed[domain.FieldOf(e)] {
				errs.Add(e)
			}
		}
	}
	if errs.HasErrors() {
		return nil, errs.ToError()
	}
	return out, nil
}

func upstream(op string, err error) error {
	if domain.IsTaxonomy(err) {
		return err
	}
	return &domain.UpstreamError{Op: op, Err: err}
}

func (s *SpecService) recordFailures(err error) {
	var batch domain.FieldErrors
	if errors.As(err, &batch) {
		for _, e := range batch {
			s.Metrics.ValidationFailure(domain.CodeOf(e))
		}
		return
	}
	if domain.IsValidation(err) {
		s.Metrics.ValidationFailure(domain.CodeValidation)
	}
}

// Save validates the update against the product's (or the newly chosen)
// category and stores the sparse map.
func (s *SpecService) Save(ctx context.Context, productID string, u SpecUpdate) (specs map[string]any, err error) {
	defer func() {
		s.recordFailures(err)
		s.Metrics.SpecSave(err)
	}()

	edit, err := s.Open(ctx, productID, u.CategoryID)
	if err != nil {
		return nil, err
	}
	specs, err = apply(edit.Session, u.Values, u.Complete)
	if err != nil {
		return nil, err
	}
	b, err := specform.EncodeSpecs(specs)
	if err != nil {
		return nil, err
	}
	if err := s.Products.UpdateSpecs(ctx, productID, edit.CategoryID, string(b)); err != nil {
		return nil, upstream("save specs", err)
	}
	return specs, nil
}

// Create stores a new product whose specs are validated against its
// category.
func (s *SpecService) Create(ctx context.Context, d domain.ProductDraft) (p domain.Product, err error) {
	defer func() {
		s.recordFailures(err)
		s.Metrics.SpecSave(err)
	}()

	name, ok := validate.Name(d.Name)
	if !ok {
		return p, &domain.ValidationError{Field: "name", Message: "required, at most 120 characters"}
	}
	if d.Price < 0 {
		return p, &domain.ValidationError{Field: "price", Message: "must not be negative"}
	}
	if strings.TrimSpace(d.CategoryID) == "" {
		return p, &domain.ValidationError{Field: "category_id", Message: "required"}
	}
	schema, err := s.Schema.ListForCategory(ctx, d.CategoryID)
	if err != nil {
		return p, err
	}
	sess := s.newSession()
	if err := sess.Initialize(schema, nil); err != nil {
		return p, err
	}
	specs, err := apply(sess, d.Specs, false)
	if err != nil {
		return p, err
	}
	b, err := specform.EncodeSpecs(specs)
	if err != nil {
		return p, err
	}
	p, err = s.Products.Create(ctx, domain.Product{
		CategoryID:  d.CategoryID,
		Name:        name,
		Description: strings.TrimSpace(d.Description),
		Price:       d.Price,
		SpecsJSON:   string(b),
	})
	if err != nil {
		return p, upstream("create product", err)
	}
	return p, nil
}

// Check validates a complete spec map against a category without storing
// anything. Field rules run first; the JSON Schema then catches values of
// the wrong shape that coercion would otherwise absorb.
func (s *SpecService) Check(ctx context.Context, categoryID string, specs map[string]any) (map[string]any, error) {
	schema, err := s.Schema.ListForCategory(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	sess := s.newSession()
	if err := sess.Initialize(schema, specs); err != nil {
		return nil, err
	}
	out, err := sess.ValidateAndSerialize()
	if err != nil {
		s.recordFailures(err)
		return nil, err
	}
	if err := specform.ValidateWire(specform.BuildJSONSchema(schema, domain.LangUZ), specs); err != nil {
		s.recordFailures(err)
		return nil, err
	}
	return out, nil
}
