package handlers

import (
	"errors"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	html "github.com/gofiber/template/html/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	applog "mebellar/internal/log"
	"mebellar/web"
)

const (
	bodyLimit = 1 << 20 // 1 MiB

	loginAttempts = 5
	loginWindow   = 10 * time.Minute

	requestsPerMinute = 120
)

func isAPI(c *fiber.Ctx) bool {
	return strings.HasPrefix(c.Path(), "/api/")
}

// ViewEngine loads the embedded admin templates.
func ViewEngine() *html.Engine {
	sub, err := fs.Sub(web.Templates, "templates")
	if err != nil {
		panic(err)
	}
	return html.NewFileSystem(http.FS(sub), ".html")
}

func statusCode(code int) string {
	return strings.ToUpper(strings.ReplaceAll(http.StatusText(code), " ", "_"))
}

// ErrorHandler answers API paths with the JSON envelope and pages with the
// friendly template. Internal details never reach the client.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	msg := "Something went wrong. Please try again."
	if code >= 500 {
		applog.Error(c, "server.error", err, nil)
	} else {
		msg = fe.Message
	}

	if isAPI(c) {
		return c.Status(code).JSON(fiber.Map{"success": false, "message": msg, "error": errorBody{Code: statusCode(code)}})
	}
	if rerr := c.Status(code).Render("notfound", fiber.Map{"Message": msg}); rerr != nil {
		return c.Status(code).SendString(msg)
	}
	return nil
}

// NewApp builds the fiber app: middleware, the JSON API, the admin pages
// and the operational endpoints.
func NewApp(d *Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		Views:        ViewEngine(),
		ErrorHandler: ErrorHandler,
		BodyLimit:    bodyLimit,
	})

	// ---------- Middlewares ----------
	app.Use(requestid.New())
	app.Use(applog.Access())
	if d.Cfg.Development() {
		app.Use(logger.New())
	}
	app.Use(helmet.New())
	app.Use(limiter.New(limiter.Config{
		Max:        requestsPerMinute,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			p := c.Path()
			return p == "/healthz" || p == "/metrics"
		},
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.global.hit", nil)
			if isAPI(c) {
				return denied(c, fiber.StatusTooManyRequests, "RATE_LIMITED", "rate limit exceeded, retry soon")
			}
			return c.Status(fiber.StatusTooManyRequests).SendString("rate limit exceeded, retry soon")
		},
	}))
	app.Use(CurrentUser(d.Auth))
	app.Use(csrf.New(csrf.Config{
		KeyLookup:      "form:csrf",
		CookieName:     "csrf_",
		CookieSameSite: "Lax",
		ContextKey:     "csrf",
		Next:           isAPI,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			applog.Security(c, "csrf.fail", map[string]any{"error": err.Error()})
			return c.Status(fiber.StatusForbidden).Render("notfound", fiber.Map{"Message": "Security check failed. Please refresh and try again."})
		},
	}))
	app.Use(d.Metrics.Middleware())

	// ---------- JSON API ----------
	api := app.Group("/api/v1")
	api.Post("/auth/login", limiter.New(limiter.Config{
		Max:          loginAttempts,
		Expiration:   loginWindow,
		KeyGenerator: func(c *fiber.Ctx) string { return c.IP() + "|api-login" },
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.login.hit", map[string]any{"api": true})
			return denied(c, fiber.StatusTooManyRequests, "RATE_LIMITED", "too many attempts, try again later")
		},
	}), d.AuthHandler.APILogin)
	api.Post("/auth/logout", d.AuthHandler.APILogout)

	api.Get("/categories", d.CategoryHandler.List)
	api.Get("/categories/:id/attributes", d.CategoryHandler.Attributes)
	api.Get("/categories/:id/attributes/schema", d.CategoryHandler.Schema)
	api.Post("/categories/:id/specs/validate", d.CategoryHandler.ValidateSpecs)
	api.Get("/products/:id", d.ProductHandler.Get)

	adminAPI := api.Group("/admin", RequireAdminAPI(d.Auth))
	adminAPI.Post("/categories/:id/attributes", d.AttributeHandler.Create)
	adminAPI.Get("/category-attributes/:id", d.AttributeHandler.Get)
	adminAPI.Put("/category-attributes/:id", d.AttributeHandler.Update)
	adminAPI.Delete("/category-attributes/:id", d.AttributeHandler.Delete)
	adminAPI.Post("/products", d.ProductHandler.Create)
	adminAPI.Put("/products/:id/specs", d.ProductHandler.SaveSpecs)

	// ---------- Auth pages (login throttled) ----------
	app.Get("/", func(c *fiber.Ctx) error { return c.Redirect("/admin") })
	app.Get("/login", d.AuthHandler.LoginForm)
	app.Post("/login", limiter.New(limiter.Config{
		Max:        loginAttempts,
		Expiration: loginWindow,
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.login.hit", nil)
			return renderStatus(c, fiber.StatusTooManyRequests, "login", fiber.Map{"Err": "Too many attempts. Please try again later.", "Email": ""})
		},
	}), d.AuthHandler.Login)
	app.Post("/logout", d.AuthHandler.Logout)

	// ---------- Admin pages ----------
	admin := app.Group("/admin", RequireAdmin(d.Auth))
	admin.Get("/", d.AdminHandler.Dashboard)
	admin.Get("/categories/:id/attributes", d.AdminHandler.AttributesPage)
	admin.Post("/categories/:id/attributes", d.AdminHandler.CreateAttribute)
	admin.Get("/category-attributes/:id/edit", d.AdminHandler.EditAttributePage)
	admin.Post("/category-attributes/:id", d.AdminHandler.UpdateAttribute)
	admin.Post("/category-attributes/:id/delete", d.AdminHandler.DeleteAttribute)
	admin.Get("/products/:id/specs", d.AdminHandler.SpecsPage)
	admin.Post("/products/:id/specs", d.AdminHandler.SaveSpecs)

	// ---------- Health, metrics & 404 ----------
	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })
	if d.Cfg.MetricsEnabled {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}
	app.Use(func(c *fiber.Ctx) error {
		if isAPI(c) {
			return denied(c, fiber.StatusNotFound, "NOT_FOUND", "route not found")
		}
		return renderStatus(c, fiber.StatusNotFound, "notfound", fiber.Map{"Message": "Page not found"})
	})

	return app
}
