package middleware

import (
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scholaris/scholaris-backend/internal/auth"
)

func protectedApp(cfg AuthConfig) *fiber.App {
	app := fiber.New()
	app.Use(RequireAuth(cfg))
	app.Get("/ping", func(c *fiber.Ctx) error {
		return c.SendString("pong")
	})
	return app
}

func get(t *testing.T, app *fiber.App, authorization string) int {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, "/ping", nil)
	require.NoError(t, err)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	resp.Body.Close()
	return resp.StatusCode
}

func TestRequireAuthJWT(t *testing.T) {
	jwtSvc := auth.NewJWTService("test-secret", "scholaris")
	app := protectedApp(AuthConfig{JWT: jwtSvc})

	token, err := jwtSvc.GenerateToken("researcher")
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, get(t, app, "Bearer "+token))
	assert.Equal(t, http.StatusUnauthorized, get(t, app, ""))
	assert.Equal(t, http.StatusUnauthorized, get(t, app, "Bearer bogus"))
	assert.Equal(t, http.StatusUnauthorized, get(t, app, token)) // missing scheme
}

func TestRequireAuthAPIKey(t *testing.T) {
	hash, err := auth.HashAPIKey("sk-local-dev")
	require.NoError(t, err)
	app := protectedApp(AuthConfig{APIKeyHashes: []string{hash}})

	assert.Equal(t, http.StatusOK, get(t, app, "Bearer sk-local-dev"))
	assert.Equal(t, http.StatusUnauthorized, get(t, app, "Bearer sk-other"))
}
