package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"mebellar/internal/config"
	"mebellar/internal/http/handlers"
	applog "mebellar/internal/log"
	"mebellar/internal/metrics"
	"mebellar/internal/repos"
	"mebellar/internal/specform"
)

type testApp struct {
	*fiber.App
	DB   *sqlx.DB
	Deps *handlers.Deps
	Reg  *prometheus.Registry
}

func testConfig() config.Config {
	return config.Config{
		DBDSN:          ":memory:",
		Env:            "test",
		SchemaBackend:  config.BackendSQLite,
		OrphanPolicy:   specform.PreserveOrphans,
		DefaultLang:    "uz",
		MetricsEnabled: true,
	}
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	cfg := testConfig()
	db, err := repos.OpenDB(cfg.DBDSN)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	reg := prometheus.NewRegistry()
	deps := handlers.NewDeps(db, cfg, nil, metrics.New(reg), reg)
	return &testApp{App: handlers.NewApp(deps), DB: db, Deps: deps, Reg: reg}
}

// observe routes the global logger into memory for the test.
func observe(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	t.Cleanup(applog.SetLogger(zap.New(core)))
	return logs
}

func extractCookie(resp *http.Response, name string) string {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c.Value
		}
	}
	return ""
}

// csrfToken fetches the login page and returns the issued token.
func csrfToken(t *testing.T, app *testApp) string {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest("GET", "/login", nil))
	if err != nil {
		t.Fatal(err)
	}
	tok := extractCookie(resp, "csrf_")
	if tok == "" {
		t.Fatal("csrf token missing")
	}
	return tok
}

// bindSession signs userID in under sid without going through the form.
func bindSession(t *testing.T, app *testApp, sid, userID string) {
	t.Helper()
	if err := repos.NewSessionRepo(app.DB).Bind(context.Background(), sid, userID); err != nil {
		t.Fatalf("bind session: %v", err)
	}
}

func postForm(t *testing.T, app *testApp, path, csrf, sid string, form url.Values) *http.Response {
	t.Helper()
	form.Set("csrf", csrf)
	req := httptest.NewRequest("POST", path, bytes.NewBufferString(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(&http.Cookie{Name: "csrf_", Value: csrf})
	if sid != "" {
		req.AddCookie(&http.Cookie{Name: "sid", Value: sid})
	}
	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func getPage(t *testing.T, app *testApp, path, sid string) (*http.Response, string) {
	t.Helper()
	req := httptest.NewRequest("GET", path, nil)
	if sid != "" {
		req.AddCookie(&http.Cookie{Name: "sid", Value: sid})
	}
	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	b, _ := io.ReadAll(resp.Body)
	return resp, string(b)
}

// apiCall sends body as JSON with an optional bearer token and decodes the
// JSON reply.
func apiCall(t *testing.T, app *testApp, method, path, token string, body any) (int, map[string]any) {
	t.Helper()
	var rd io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			rd = bytes.NewBufferString(b)
		default:
			raw, err := json.Marshal(b)
			if err != nil {
				t.Fatal(err)
			}
			rd = bytes.NewReader(raw)
		}
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	out := map[string]any{}
	raw, _ := io.ReadAll(resp.Body)
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &out); err != nil {
			t.Fatalf("%s %s: non-JSON reply %q", method, path, raw)
		}
	}
	return resp.StatusCode, out
}

// adminToken logs in through the API and returns the bearer token.
func adminToken(t *testing.T, app *testApp) string {
	t.Helper()
	status, body := apiCall(t, app, "POST", "/api/v1/auth/login", "", map[string]string{
		"email": "admin@mebellar.test", "password": "Passw0rd!",
	})
	if status != http.StatusOK {
		t.Fatalf("admin login: %d %v", status, body)
	}
	return body["token"].(string)
}
