package log

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"mebellar/internal/domain"
)

// Init builds the process logger and installs it as the zap global.
// A non-empty file is written alongside stdout.
func Init(level, env, file string) (*zap.Logger, error) {
	var cfg zap.Config
	if env == "development" {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
		cfg.Sampling = nil
	}
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level %q: %w", level, err)
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if file != "" {
		cfg.OutputPaths = append(cfg.OutputPaths, file)
	}

	l, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	zap.ReplaceGlobals(l)
	return l, nil
}

func L() *zap.Logger { return zap.L() }

// SetLogger swaps the global logger and returns a func restoring the old one.
func SetLogger(l *zap.Logger) func() {
	return zap.ReplaceGlobals(l)
}

func requestFields(c *fiber.Ctx) []zap.Field {
	f := []zap.Field{
		zap.String("ip", c.IP()),
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
		zap.Int("status", c.Response().StatusCode()),
	}
	if rid, ok := c.Locals("requestid").(string); ok && rid != "" {
		f = append(f, zap.String("req_id", rid))
	}
	if u, ok := c.Locals("user").(*domain.User); ok && u != nil {
		f = append(f, zap.String("user_id", u.ID))
	}
	return f
}

func write(level zapcore.Level, kind string, c *fiber.Ctx, action string, err error, fields map[string]any) {
	ce := L().Check(level, action)
	if ce == nil {
		return
	}
	f := []zap.Field{zap.String("kind", kind), zap.String("action", action)}
	if c != nil {
		f = append(f, requestFields(c)...)
	}
	if err != nil {
		f = append(f, zap.Error(err))
	}
	if len(fields) > 0 {
		f = append(f, zap.Any("fields", fields))
	}
	ce.Write(f...)
}

func Info(c *fiber.Ctx, action string, fields map[string]any) {
	write(zapcore.InfoLevel, "info", c, action, nil, fields)
}

func Audit(c *fiber.Ctx, action string, fields map[string]any) {
	write(zapcore.InfoLevel, "audit", c, action, nil, fields)
}

func Security(c *fiber.Ctx, action string, fields map[string]any) {
	write(zapcore.WarnLevel, "security", c, action, nil, fields)
}

func Error(c *fiber.Ctx, action string, err error, fields map[string]any) {
	write(zapcore.ErrorLevel, "error", c, action, err, fields)
}

// Access logs one line per request once the handler chain has run.
func Access() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		f := append(requestFields(c), zap.Int64("latency_ms", time.Since(start).Milliseconds()))
		if err != nil {
			f = append(f, zap.Error(err))
		}
		L().Info("http.access", f...)
		return err
	}
}
