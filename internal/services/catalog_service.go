package services

import (
	"context"

	"mebellar/internal/domain"
	"mebellar/internal/repos"
	"mebellar/internal/specform"
)

type CatalogService struct {
	Cats  *repos.CategoryRepo
	Prods *repos.ProductRepo
}

func NewCatalogService(cats *repos.CategoryRepo, prods *repos.ProductRepo) *CatalogService {
	return &CatalogService{Cats: cats, Prods: prods}
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]domain.Category, error) {
	return s.Cats.List(ctx)
}

func (s *CatalogService) Category(ctx context.Context, id string) (domain.Category, error) {
	return s.Cats.Get(ctx, id)
}

func (s *CatalogService) ListProducts(ctx context.Context, catID string, page, pageSize int) ([]domain.Product, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize
	return s.Prods.List(ctx, catID, pageSize, offset)
}

// ProductView is a product with its spec map decoded.
type ProductView struct {
	ID          string         `json:"id"`
	CategoryID  string         `json:"category_id"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Price       float64        `json:"price"`
	Specs       map[string]any `json:"specs"`
	CreatedAt   string         `json:"created_at,omitempty"`
	UpdatedAt   string         `json:"updated_at,omitempty"`
}

func NewProductView(p domain.Product) (ProductView, error) {
	specs, err := specform.DecodeSpecs([]byte(p.SpecsJSON))
	if err != nil {
		return ProductView{}, err
	}
	return ProductView{
		ID: p.ID, CategoryID: p.CategoryID, Name: p.Name, Description: p.Description,
		Price: p.Price, Specs: specs, CreatedAt: p.CreatedAt, UpdatedAt: p.UpdatedAt,
	}, nil
}

func (s *CatalogService) Product(ctx context.Context, id string) (ProductView, error) {
	p, err := s.Prods.Get(ctx, id)
	if err != nil {
		return ProductView{}, err
	}
	return NewProductView(p)
}
