package handlers

import (
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"

	"mebellar/internal/config"
	"mebellar/internal/domain"
	"mebellar/internal/metrics"
	"mebellar/internal/repos"
	"mebellar/internal/services"
)

type Deps struct {
	Cfg      config.Config
	Auth     *services.AuthService
	Store    *services.AttributeSchemaStore
	Specs    *services.SpecService
	Catalog  *services.CatalogService
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer

	AuthHandler      *AuthHandler
	CategoryHandler  *CategoryHandler
	AttributeHandler *AttributeHandler
	ProductHandler   *ProductHandler
	AdminHandler     *AdminHandler
}

// NewDeps wires services and handlers over db. A nil backend keeps the
// attribute schema in db as well.
func NewDeps(db *sqlx.DB, cfg config.Config, backend services.AttributeBackend, m *metrics.Metrics, g prometheus.Gatherer) *Deps {
	catRepo := repos.NewCategoryRepo(db)
	prodRepo := repos.NewProductRepo(db)
	if backend == nil {
		backend = repos.NewAttributeRepo(db)
	}
	if g == nil {
		g = prometheus.DefaultGatherer
	}

	authSvc := services.NewAuthService(repos.NewSessionRepo(db))
	store := services.NewAttributeSchemaStore(backend, m)
	specSvc := services.NewSpecService(store, prodRepo, cfg.OrphanPolicy, m)
	catalogSvc := services.NewCatalogService(catRepo, prodRepo)
	defLang := domain.MatchLang(cfg.DefaultLang)

	return &Deps{
		Cfg:      cfg,
		Auth:     authSvc,
		Store:    store,
		Specs:    specSvc,
		Catalog:  catalogSvc,
		Metrics:  m,
		Gatherer: g,

		AuthHandler:      &AuthHandler{Auth: authSvc},
		CategoryHandler:  &CategoryHandler{Catalog: catalogSvc, Store: store, Specs: specSvc, Lang: defLang},
		AttributeHandler: &AttributeHandler{Store: store},
		ProductHandler:   &ProductHandler{Catalog: catalogSvc, Specs: specSvc},
		AdminHandler:     &AdminHandler{Catalog: catalogSvc, Store: store, Specs: specSvc, Lang: defLang},
	}
}
