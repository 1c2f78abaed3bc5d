package middleware

import (
	"net/http/httptest"
	"testing"
	"time"

	"go-itam/pkg/utils"

	"github.com/gofiber/fiber/v2"
)

func newTestApp(skipAuth bool) *fiber.App {
	app := fiber.New()
	app.Get("/me", AuthMiddleware(skipAuth), func(c *fiber.Ctx) error {
		claims, _ := c.UserContext().Value(utils.UserClaimsKey).(*utils.UserClaims)
		if claims == nil {
			return c.SendStatus(fiber.StatusInternalServerError)
		}
		return c.SendString(claims.UserID)
	})
	app.Get("/admin", AuthMiddleware(skipAuth), AdminMiddleware(), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})
	return app
}

func TestAuthMiddleware(t *testing.T) {
	utils.SetSecret("test-secret")
	valid, _ := utils.GenerateToken("7", []string{"user"}, time.Hour)
	admin, _ := utils.GenerateToken("1", []string{"admin"}, time.Hour)

	tests := []struct {
		name   string
		path   string
		header string
		want   int
	}{
		{"missing header", "/me", "", fiber.StatusUnauthorized},
		{"wrong scheme", "/me", "Token " + valid, fiber.StatusUnauthorized},
		{"bad token", "/me", "Bearer nope", fiber.StatusUnauthorized},
		{"valid token", "/me", "Bearer " + valid, fiber.StatusOK},
		{"non-admin on admin route", "/admin", "Bearer " + valid, fiber.StatusForbidden},
		{"admin on admin route", "/admin", "Bearer " + admin, fiber.StatusNoContent},
	}

	app := newTestApp(false)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			if err != nil {
				t.Fatalf("app.Test() error = %v", err)
			}
			if resp.StatusCode != tt.want {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.want)
			}
		})
	}
}

func TestAuthMiddlewareSkipAuth(t *testing.T) {
	resp, err := newTestApp(true).Test(httptest.NewRequest("GET", "/admin", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusNoContent {
		t.Errorf("status = %d, want 204", resp.StatusCode)
	}
}
