package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"mebellar/internal/domain"
	applog "mebellar/internal/log"
	"mebellar/internal/services"
)

func bearer(c *fiber.Ctx) string {
	h := c.Get(fiber.HeaderAuthorization)
	if tok, ok := strings.CutPrefix(h, "Bearer "); ok {
		return strings.TrimSpace(tok)
	}
	return ""
}

// CurrentUser attaches the signed-in user, if any, for templates and logs.
func CurrentUser(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if sid := c.Cookies("sid"); sid != "" {
			if u, err := auth.CurrentUser(c.UserContext(), sid); err == nil && u != nil {
				c.Locals("user", u)
			}
		}
		return c.Next()
	}
}

func RequireAdmin(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sid := c.Cookies("sid")
		if sid == "" {
			return c.Redirect("/login")
		}
		u, err := auth.CurrentUser(c.UserContext(), sid)
		if err != nil || u == nil {
			applog.Security(c, "access.denied.admin", map[string]any{"reason": "unknown_session"})
			return renderStatus(c, fiber.StatusForbidden, "notfound", fiber.Map{"Message": "Access denied"})
		}
		if u.Role != domain.RoleAdmin {
			applog.Security(c, "access.denied.admin", map[string]any{"reason": "not_admin", "user_id": u.ID})
			return renderStatus(c, fiber.StatusForbidden, "notfound", fiber.Map{"Message": "Access denied"})
		}
		c.Locals("user", u)
		return c.Next()
	}
}

// RequireAdminAPI accepts a bearer token or the sid cookie and answers
// with the JSON envelope instead of redirecting.
func RequireAdminAPI(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tok := bearer(c)
		if tok == "" {
			tok = c.Cookies("sid")
		}
		if tok == "" {
			return denied(c, fiber.StatusUnauthorized, "UNAUTHORIZED", "authentication required")
		}
		u, err := auth.CurrentUser(c.UserContext(), tok)
		if err != nil || u == nil {
			applog.Security(c, "access.denied.api", map[string]any{"reason": "unknown_token"})
			return denied(c, fiber.StatusUnauthorized, "UNAUTHORIZED", "authentication required")
		}
		if u.Role != domain.RoleAdmin {
			applog.Security(c, "access.denied.api", map[string]any{"reason": "not_admin", "user_id": u.ID})
			return denied(c, fiber.StatusForbidden, "FORBIDDEN", "admin role required")
		}
		c.Locals("user", u)
		return c.Next()
	}
}
