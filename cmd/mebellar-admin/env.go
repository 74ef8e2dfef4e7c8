package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"mebellar/internal/config"
	"mebellar/internal/http/handlers"
	applog "mebellar/internal/log"
	"mebellar/internal/metrics"
	"mebellar/internal/repos"
	"mebellar/internal/services"
	"mebellar/internal/upstream"
)

// env is what every command needs: settings, a logger and the wired
// services.
type env struct {
	cfg  config.Config
	log  *zap.Logger
	db   *sqlx.DB
	deps *handlers.Deps
}

func (e *env) Close() {
	_ = e.log.Sync()
	if e.db != nil {
		_ = e.db.Close()
	}
}

// backend picks where attribute definitions live.
func backend(cfg config.Config, log *zap.Logger) (services.AttributeBackend, error) {
	if cfg.SchemaBackend != config.BackendRemote {
		return nil, nil
	}
	c, err := upstream.NewClient(cfg.UpstreamURL,
		upstream.WithToken(cfg.UpstreamToken),
		upstream.WithTimeout(cfg.UpstreamTimeout),
		upstream.WithLogger(log),
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func setup(withMetrics bool) (*env, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log, err := applog.Init(cfg.LogLevel, cfg.Env, cfg.LogFile)
	if err != nil {
		return nil, err
	}

	db, err := repos.OpenDB(cfg.DBDSN)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	b, err := backend(cfg, log)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	var (
		m   *metrics.Metrics
		reg *prometheus.Registry
	)
	if withMetrics {
		reg = prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		m = metrics.New(reg)
	}
	var g prometheus.Gatherer
	if reg != nil {
		g = reg
	}
	return &env{cfg: cfg, log: log, db: db, deps: handlers.NewDeps(db, cfg, b, m, g)}, nil
}

func printJSON(w io.Writer, v any) {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
