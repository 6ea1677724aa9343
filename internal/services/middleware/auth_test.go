package middleware

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Egham-7/headshot-studio/internal/services/auth"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubVerifier struct {
	tokens map[string]string
}

func (s stubVerifier) Verify(_ context.Context, token string) (*auth.Identity, error) {
	userID, ok := s.tokens[token]
	if !ok {
		return nil, auth.ErrInvalidToken
	}
	return &auth.Identity{Type: auth.AuthTypeJWT, UserID: userID}, nil
}

func newTestApp() *fiber.App {
	app := fiber.New()
	mw := NewAuthMiddleware(stubVerifier{tokens: map[string]string{"good": "user_1"}}, nil)
	app.Get("/me", mw.RequireAuth(), func(c *fiber.Ctx) error {
		userID, _ := auth.GetUserID(c)
		return c.JSON(fiber.Map{"userId": userID})
	})
	return app
}

func decode(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(body, &out))
	return out
}

func TestRequireAuth(t *testing.T) {
	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantBody   map[string]any
	}{
		{"missing header", "", http.StatusUnauthorized, map[string]any{"error": errMissingAuthorization}},
		{"empty bearer", "Bearer ", http.StatusUnauthorized, map[string]any{"error": errMissingAuthorization}},
		{"invalid token", "Bearer bad", http.StatusUnauthorized, map[string]any{"error": errInvalidToken}},
		{"valid token", "Bearer good", http.StatusOK, map[string]any{"userId": "user_1"}},
	}

	app := newTestApp()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.Equal(t, tt.wantBody, decode(t, resp))
		})
	}
}
