// Package schemafile imports category attribute schemas from YAML:
//
//	categories:
//	  - id: sofas
//	    attributes:
//	      - key: color
//	        type: dropdown
//	        label: {uz: Rang, ru: Цвет}
//	        is_required: true
//	        options:
//	          - value: grey
//	            label: {uz: Kulrang}
package schemafile

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"mebellar/internal/domain"
)

type File struct {
	Categories []Category `yaml:"categories"`
}

type Category struct {
	ID         string                  `yaml:"id"`
	Attributes []domain.AttributeDraft `yaml:"attributes"`
}

// Store is the part of the schema store an import needs.
type Store interface {
	ListForCategory(ctx context.Context, categoryID string) ([]domain.AttributeDefinition, error)
	Create(ctx context.Context, categoryID string, d domain.AttributeDraft) (domain.AttributeDefinition, error)
}

type Result struct {
	Created int
	Skipped int
}

func Parse(r io.Reader) (*File, error) {
	var f File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return &f, nil
		}
		return nil, fmt.Errorf("parse schema file: %w", err)
	}
	for i, c := range f.Categories {
		if c.ID == "" {
			return nil, &domain.ValidationError{Field: fmt.Sprintf("categories[%d].id", i), Message: "is required"}
		}
	}
	return &f, nil
}

// Apply creates every attribute whose key the category does not have yet.
// Each create goes through the store, so drafts are validated as if they
// came from the admin UI. It stops at the first failure.
func Apply(ctx context.Context, store Store, f *File, log *zap.Logger) (Result, error) {
	if log == nil {
		log = zap.NewNop()
	}
	var res Result
	for _, c := range f.Categories {
		existing, err := store.ListForCategory(ctx, c.ID)
		if err != nil {
			return res, err
		}
		have := make(map[string]bool, len(existing))
		for _, a := range existing {
			have[a.Key] = true
		}
		for _, d := range c.Attributes {
			if have[d.Normalize().Key] {
				res.Skipped++
				continue
			}
			a, err := store.Create(ctx, c.ID, d)
			if err != nil {
				return res, fmt.Errorf("category %s, attribute %q: %w", c.ID, d.Key, err)
			}
			have[a.Key] = true
			res.Created++
			log.Info("schema.import", zap.String("category_id", c.ID), zap.String("key", a.Key), zap.String("id", a.ID))
		}
	}
	return res, nil
}
