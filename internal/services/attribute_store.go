package services

import (
	"context"

	"mebellar/internal/domain"
	"mebellar/internal/metrics"
	"mebellar/internal/validate"
)

// AttributeBackend is the persistence collaborator behind the schema
// store. repos.AttributeRepo and upstream.Client implement it.
type AttributeBackend interface {
	CategoryAttributes(ctx context.Context, categoryID string) ([]domain.AttributeDefinition, error)
	Attribute(ctx context.Context, id string) (domain.AttributeDefinition, error)
	InsertAttribute(ctx context.Context, categoryID string, d domain.AttributeDraft) (domain.AttributeDefinition, error)
	UpdateAttribute(ctx context.Context, id string, a domain.AttributeDefinition) (domain.AttributeDefinition, error)
	DeleteAttribute(ctx context.Context, id string) error
}

// AttributeSchemaStore validates and persists per-category attribute
// definitions. Errors are always from the domain taxonomy; anything else
// the backend returns is wrapped in a domain.UpstreamError.
type AttributeSchemaStore struct {
	Backend AttributeBackend
	Metrics *metrics.Metrics
}

func NewAttributeSchemaStore(b AttributeBackend, m *metrics.Metrics) *AttributeSchemaStore {
	return &AttributeSchemaStore{Backend: b, Metrics: m}
}

func (s *AttributeSchemaStore) done(op string, err error) error {
	if err != nil && !domain.IsTaxonomy(err) {
		err = &domain.UpstreamError{Op: op, Err: err}
	}
	s.Metrics.AttributeOp(op, err)
	return err
}

// ListForCategory returns the category's attributes by sort order. A
// category without attributes yields an empty slice.
func (s *AttributeSchemaStore) ListForCategory(ctx context.Context, categoryID string) ([]domain.AttributeDefinition, error) {
	attrs, err := s.Backend.CategoryAttributes(ctx, categoryID)
	if err = s.done("list", err); err != nil {
		return nil, err
	}
	if attrs == nil {
		attrs = []domain.AttributeDefinition{}
	}
	domain.SortAttributes(attrs)
	return attrs, nil
}

func (s *AttributeSchemaStore) Get(ctx context.Context, id string) (domain.AttributeDefinition, error) {
	a, err := s.Backend.Attribute(ctx, id)
	return a, s.done("get", err)
}

// Create validates d and stores it under categoryID. Without a sort order
// the attribute goes after the existing ones.
func (s *AttributeSchemaStore) Create(ctx context.Context, categoryID string, d domain.AttributeDraft) (domain.AttributeDefinition, error) {
	d = d.Normalize()
	if err := validate.AttributeDraft(d); err != nil {
		return domain.AttributeDefinition{}, s.done("create", err)
	}
	if d.SortOrder == nil {
		existing, err := s.Backend.CategoryAttributes(ctx, categoryID)
		if err != nil {
			return domain.AttributeDefinition{}, s.done("create", err)
		}
		n := len(existing)
		d.SortOrder = &n
	}
	a, err := s.Backend.InsertAttribute(ctx, categoryID, d)
	return a, s.done("create", err)
}

// Update merges p into the stored definition and validates the result with
// the create rules.
func (s *AttributeSchemaStore) Update(ctx context.Context, id string, p domain.AttributePatch) (domain.AttributeDefinition, error) {
	cur, err := s.Backend.Attribute(ctx, id)
	if err != nil {
		return domain.AttributeDefinition{}, s.done("update", err)
	}
	merged := cur.Apply(p)
	d := merged.Draft().Normalize()
	if err := validate.AttributeDraft(d); err != nil {
		return domain.AttributeDefinition{}, s.done("update", err)
	}
	merged.Key, merged.Label, merged.Options = d.Key, d.Label, d.Options

	a, err := s.Backend.UpdateAttribute(ctx, id, merged)
	return a, s.done("update", err)
}

// Delete removes the definition. Stored product specs keep their values
// for its key.
func (s *AttributeSchemaStore) Delete(ctx context.Context, id string) error {
	return s.done("delete", s.Backend.DeleteAttribute(ctx, id))
}
