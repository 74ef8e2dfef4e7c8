package handlers_test

import (
	"net/http"
	"net/url"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestPasswordsSeededAreHashed(t *testing.T) {
	app := newTestApp(t)
	var hashes []string
	if err := app.DB.Select(&hashes, `SELECT password_hash FROM users`); err != nil {
		t.Fatalf("select hashes: %v", err)
	}
	if len(hashes) == 0 {
		t.Fatal("no users seeded")
	}
	for _, h := range hashes {
		if strings.Contains(h, "Passw0rd!") {
			t.Fatalf("hash contains plaintext password")
		}
		if !strings.HasPrefix(h, "$2") {
			t.Fatalf("unexpected hash format: %s", h)
		}
		if err := bcrypt.CompareHashAndPassword([]byte(h), []byte("Passw0rd!")); err != nil {
			t.Fatalf("seed hash does not validate known password: %v", err)
		}
	}
}

func loginForm(email, password string) url.Values {
	return url.Values{"email": {email}, "password": {password}}
}

func TestLoginSuccessFailAndThrottle(t *testing.T) {
	app := newTestApp(t)
	tok := csrfToken(t, app)

	// bad password -> 401
	resp := postForm(t, app, "/login", tok, "", loginForm("admin@mebellar.test", "wrongpass!"))
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad creds, got %d", resp.StatusCode)
	}

	// good password -> redirect to the dashboard with a session
	resp = postForm(t, app, "/login", tok, "", loginForm("admin@mebellar.test", "Passw0rd!"))
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("expected redirect on success, got %d", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != "/admin" {
		t.Fatalf("expected redirect to /admin, got %q", loc)
	}
	sid := extractCookie(resp, "sid")
	if sid == "" {
		t.Fatal("sid not set after login")
	}
	if r, _ := getPage(t, app, "/admin", sid); r.StatusCode != http.StatusOK {
		t.Fatalf("dashboard after login: %d", r.StatusCode)
	}

	// sellers cannot use the admin panel
	resp = postForm(t, app, "/login", tok, "", loginForm("seller@mebellar.test", "Passw0rd!"))
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 for seller, got %d", resp.StatusCode)
	}

	// two more failures use up the window; the next attempt is throttled
	for i := 0; i < 2; i++ {
		postForm(t, app, "/login", tok, "", loginForm("admin@mebellar.test", "wrongpass!"))
	}
	resp = postForm(t, app, "/login", tok, "", loginForm("admin@mebellar.test", "Passw0rd!"))
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after throttle, got %d", resp.StatusCode)
	}
}

func TestLoginRequiresCSRF(t *testing.T) {
	app := newTestApp(t)
	csrfToken(t, app)

	resp := postForm(t, app, "/login", "forged-token", "", loginForm("admin@mebellar.test", "Passw0rd!"))
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 without a valid csrf token, got %d", resp.StatusCode)
	}
}

func TestLogoutEndsSession(t *testing.T) {
	app := newTestApp(t)
	tok := csrfToken(t, app)
	bindSession(t, app, "sid-admin", "u-admin")

	resp := postForm(t, app, "/logout", tok, "sid-admin", url.Values{})
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("expected redirect after logout, got %d", resp.StatusCode)
	}
	if r, _ := getPage(t, app, "/admin", "sid-admin"); r.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 with an ended session, got %d", r.StatusCode)
	}
}

func TestAPILogin(t *testing.T) {
	app := newTestApp(t)

	status, body := apiCall(t, app, "POST", "/api/v1/auth/login", "", map[string]string{
		"email": "admin@mebellar.test", "password": "Passw0rd!",
	})
	if status != http.StatusOK || body["success"] != true || body["role"] != "ADMIN" {
		t.Fatalf("admin login: %d %v", status, body)
	}
	token, _ := body["token"].(string)
	if token == "" {
		t.Fatal("token missing")
	}

	status, _ = apiCall(t, app, "POST", "/api/v1/auth/login", "", map[string]string{
		"email": "seller@mebellar.test", "password": "Passw0rd!",
	})
	if status != http.StatusForbidden {
		t.Fatalf("seller login: expected 403, got %d", status)
	}

	status, _ = apiCall(t, app, "POST", "/api/v1/auth/login", "", map[string]string{
		"email": "admin@mebellar.test", "password": "nope-nope",
	})
	if status != http.StatusUnauthorized {
		t.Fatalf("bad password: expected 401, got %d", status)
	}

	status, _ = apiCall(t, app, "POST", "/api/v1/auth/logout", token, nil)
	if status != http.StatusOK {
		t.Fatalf("logout: %d", status)
	}
	status, _ = apiCall(t, app, "GET", "/api/v1/admin/category-attributes/attr-sofa-color", token, nil)
	if status != http.StatusUnauthorized {
		t.Fatalf("token after logout: expected 401, got %d", status)
	}
}
