package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"mebellar/internal/specform"
)

const (
	BackendSQLite = "sqlite"
	BackendRemote = "remote"
)

type Config struct {
	Port     string
	DBDSN    string
	LogFile  string
	LogLevel string
	Env      string

	SchemaBackend   string
	UpstreamURL     string
	UpstreamToken   string
	UpstreamTimeout time.Duration

	OrphanPolicy   specform.OrphanPolicy
	DefaultLang    string
	SeedFile       string
	MetricsEnabled bool
}

// ConfigError names the setting that failed validation.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config %s: %s", e.Field, e.Message)
}

// Load reads the environment, picking up a .env file when one exists.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Port:     getEnv("PORT", "8080"),
		DBDSN:    getEnv("DB_DSN", "mebellar.db"), // sqlite file in project root
		LogFile:  logFile(getEnv("LOG_FILE", "./mebellar-admin.log")),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Env:      getEnv("APP_ENV", "production"),

		SchemaBackend:   strings.ToLower(getEnv("SCHEMA_BACKEND", BackendSQLite)),
		UpstreamURL:     strings.TrimRight(getEnv("UPSTREAM_URL", ""), "/"),
		UpstreamToken:   getEnv("UPSTREAM_TOKEN", ""),
		UpstreamTimeout: getEnvAsDuration("UPSTREAM_TIMEOUT", 10*time.Second),

		OrphanPolicy:   specform.OrphanPolicy(strings.ToLower(getEnv("ORPHAN_POLICY", string(specform.PreserveOrphans)))),
		DefaultLang:    strings.ToLower(getEnv("DEFAULT_LANG", "uz")),
		SeedFile:       getEnv("SEED_FILE", ""),
		MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
	}
}

func (c Config) Validate() error {
	switch c.SchemaBackend {
	case BackendSQLite:
	case BackendRemote:
		if c.UpstreamURL == "" {
			return &ConfigError{Field: "UPSTREAM_URL", Message: "required when SCHEMA_BACKEND=remote"}
		}
	default:
		return &ConfigError{Field: "SCHEMA_BACKEND", Message: fmt.Sprintf("unknown backend %q", c.SchemaBackend)}
	}
	if _, err := specform.ParseOrphanPolicy(string(c.OrphanPolicy)); err != nil {
		return &ConfigError{Field: "ORPHAN_POLICY", Message: fmt.Sprintf("must be %s or %s", specform.PreserveOrphans, specform.DropOrphans)}
	}
	switch c.DefaultLang {
	case "uz", "ru", "en":
	default:
		return &ConfigError{Field: "DEFAULT_LANG", Message: "must be uz, ru or en"}
	}
	if c.UpstreamTimeout <= 0 {
		return &ConfigError{Field: "UPSTREAM_TIMEOUT", Message: "must be positive"}
	}
	return nil
}

// logFile maps "off" to no file sink.
func logFile(v string) string {
	if strings.EqualFold(v, "off") {
		return ""
	}
	return v
}

func (c Config) Development() bool { return c.Env == "development" }

// LogFields returns the settings worth printing at startup. The token is
// reported only as present or absent.
func (c Config) LogFields() []zap.Field {
	return []zap.Field{
		zap.String("port", c.Port),
		zap.String("db_dsn", c.DBDSN),
		zap.String("log_file", c.LogFile),
		zap.String("env", c.Env),
		zap.String("schema_backend", c.SchemaBackend),
		zap.String("upstream_url", c.UpstreamURL),
		zap.Bool("upstream_token_set", c.UpstreamToken != ""),
		zap.Duration("upstream_timeout", c.UpstreamTimeout),
		zap.String("orphan_policy", string(c.OrphanPolicy)),
		zap.String("default_lang", c.DefaultLang),
		zap.String("seed_file", c.SeedFile),
		zap.Bool("metrics_enabled", c.MetricsEnabled),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if v, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return v
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if v, err := strconv.ParseBool(getEnv(key, "")); err == nil {
		return v
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	// bare numbers are seconds
	if n := getEnvAsInt(key, -1); n >= 0 {
		return time.Duration(n) * time.Second
	}
	return fallback
}
