package handlers

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"mebellar/internal/log"
	"mebellar/internal/services"
	"mebellar/internal/validate"
)

type AuthHandler struct {
	Auth *services.AuthService
}

func ensureSID(c *fiber.Ctx) string {
	sid := c.Cookies("sid")
	if sid == "" {
		sid = uuid.NewString()
		c.Cookie(&fiber.Cookie{
			Name:     "sid",
			Value:    sid,
			Path:     "/",
			HTTPOnly: true,
			SameSite: fiber.CookieSameSiteLaxMode,
		})
	}
	return sid
}

func (h *AuthHandler) LoginForm(c *fiber.Ctx) error {
	return render(c, "login", fiber.Map{"Err": "", "Email": ""})
}

func (h *AuthHandler) loginFailed(c *fiber.Ctx, email, reason string) error {
	log.Security(c, "auth.login.fail", map[string]any{"email": email, "reason": reason})
	return renderStatus(c, fiber.StatusUnauthorized, "login", fiber.Map{"Err": "Invalid email or password", "Email": email})
}

// POST /login
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	email := c.FormValue("email")
	pass := c.FormValue("password")
	if _, ok := validate.Email(email); !ok {
		return h.loginFailed(c, email, "bad_format")
	}
	if !validate.Password(pass) {
		return h.loginFailed(c, email, "bad_password_format")
	}

	sid := ensureSID(c)
	if _, err := h.Auth.Login(c.UserContext(), sid, email, pass); err != nil {
		reason := "bad_credentials"
		if errors.Is(err, services.ErrNotAdmin) {
			reason = "not_admin"
		}
		return h.loginFailed(c, email, reason)
	}

	log.Audit(c, "auth.login.success", map[string]any{"email": email})
	return c.Redirect("/admin")
}

// POST /logout
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if sid := c.Cookies("sid"); sid != "" {
		_ = h.Auth.Logout(c.UserContext(), sid)
		log.Audit(c, "auth.logout", map[string]any{"sid": sid})
	}
	c.Cookie(&fiber.Cookie{
		Name:     "sid",
		Value:    "",
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Expires:  time.Now().Add(-1 * time.Hour),
	})
	return c.Redirect("/login")
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// POST /api/v1/auth/login. The returned token is a session id to send as
// a bearer token.
func (h *AuthHandler) APILogin(c *fiber.Ctx) error {
	var in loginRequest
	if err := decodeJSON(c, &in); err != nil {
		return fail(c, err)
	}
	token := uuid.NewString()
	u, err := h.Auth.Login(c.UserContext(), token, strings.TrimSpace(in.Email), in.Password)
	switch {
	case errors.Is(err, services.ErrNotAdmin):
		log.Security(c, "auth.login.fail", map[string]any{"email": in.Email, "reason": "not_admin"})
		return denied(c, fiber.StatusForbidden, "FORBIDDEN", "admin role required")
	case errors.Is(err, services.ErrBadCreds):
		log.Security(c, "auth.login.fail", map[string]any{"email": in.Email, "reason": "bad_credentials"})
		return denied(c, fiber.StatusUnauthorized, "UNAUTHORIZED", "invalid email or password")
	case err != nil:
		return fail(c, err)
	}
	log.Audit(c, "auth.login.success", map[string]any{"email": u.Email, "api": true})
	return c.JSON(fiber.Map{"success": true, "token": token, "role": u.Role})
}

// POST /api/v1/auth/logout
func (h *AuthHandler) APILogout(c *fiber.Ctx) error {
	if tok := bearer(c); tok != "" {
		_ = h.Auth.Logout(c.UserContext(), tok)
		log.Audit(c, "auth.logout", map[string]any{"api": true})
	}
	return c.JSON(fiber.Map{"success": true, "message": "logged out"})
}
