package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/ivey1207/supperapp/internal/config"
)

func mustToken(t *testing.T, secret []byte, subject, role string, method jwt.SigningMethod) string {
	t.Helper()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-time.Minute)),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(method, claims).SignedString(secret)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func newTestApp(cfg *config.Config) *fiber.App {
	app := fiber.New()
	app.Get("/admin", RequireRole(cfg, RoleAdmin), func(c *fiber.Ctx) error {
		return c.SendString(UserID(c))
	})
	app.Get("/app", RequireRole(cfg, RoleUser, RoleAdmin), func(c *fiber.Ctx) error {
		return c.SendString(UserID(c))
	})
	app.Post("/device", AgentAuth(cfg), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})
	return app
}

func TestRequireRole(t *testing.T) {
	secret := []byte("test-secret")
	cfg := &config.Config{Auth: config.AuthConfig{JWTSecret: string(secret)}}
	app := newTestApp(cfg)

	user := mustToken(t, secret, "user-1", RoleUser, jwt.SigningMethodHS256)
	admin := mustToken(t, secret, "op-1", RoleAdmin, jwt.SigningMethodHS256)
	foreign := mustToken(t, []byte("other"), "user-1", RoleUser, jwt.SigningMethodHS256)
	hs512 := mustToken(t, secret, "user-1", RoleUser, jwt.SigningMethodHS512)
	noRole := mustToken(t, secret, "user-1", "guest", jwt.SigningMethodHS256)

	tests := []struct {
		name  string
		path  string
		token string
		want  int
	}{
		{"user on app", "/app", user, http.StatusOK},
		{"admin on app", "/app", admin, http.StatusOK},
		{"user on admin", "/admin", user, http.StatusForbidden},
		{"admin on admin", "/admin", admin, http.StatusOK},
		{"missing token", "/app", "", http.StatusUnauthorized},
		{"wrong secret", "/app", foreign, http.StatusUnauthorized},
		{"wrong algorithm", "/app", hs512, http.StatusUnauthorized},
		{"unknown role", "/app", noRole, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			resp, err := app.Test(req)
			if err != nil {
				t.Fatalf("request: %v", err)
			}
			if resp.StatusCode != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, resp.StatusCode)
			}
		})
	}
}

func TestRequireRoleQueryToken(t *testing.T) {
	secret := []byte("test-secret")
	cfg := &config.Config{Auth: config.AuthConfig{JWTSecret: string(secret)}}
	app := newTestApp(cfg)

	token := mustToken(t, secret, "op-1", RoleAdmin, jwt.SigningMethodHS256)
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/admin?token="+token, nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestAgentAuth(t *testing.T) {
	cfg := &config.Config{Auth: config.AuthConfig{JWTSecret: "s", AgentToken: "device-token"}}
	app := newTestApp(cfg)

	tests := []struct {
		name   string
		header string
		value  string
		want   int
	}{
		{"agent header", "X-Agent-Token", "device-token", http.StatusNoContent},
		{"bearer", "Authorization", "Bearer device-token", http.StatusNoContent},
		{"wrong token", "X-Agent-Token", "nope", http.StatusUnauthorized},
		{"missing", "", "", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/device", nil)
			if tt.header != "" {
				req.Header.Set(tt.header, tt.value)
			}
			resp, err := app.Test(req)
			if err != nil {
				t.Fatalf("request: %v", err)
			}
			if resp.StatusCode != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, resp.StatusCode)
			}
		})
	}
}
