package http_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/pos-sucursales/internal/domain/auth"
	ifhttp "github.com/jhoicas/pos-sucursales/internal/interfaces/http"
	pkgjwt "github.com/jhoicas/pos-sucursales/pkg/jwt"
)

const testSecret = "secreto-de-pruebas"

// buildTestApp levanta una app mínima con el middleware de auth y una ruta
// protegida que devuelve la identidad resuelta.
func buildTestApp(requiredPerm string) *fiber.App {
	app := fiber.New()
	protected := app.Group("/", ifhttp.AuthMiddleware(testSecret))
	handlers := []fiber.Handler{}
	if requiredPerm != "" {
		handlers = append(handlers, ifhttp.RequirePermission(requiredPerm))
	}
	handlers = append(handlers, func(c *fiber.Ctx) error {
		identity := ifhttp.GetIdentity(c)
		return c.JSON(fiber.Map{
			"user_id": identity.UserID,
			"branch":  identity.Branch,
		})
	})
	protected.Get("/me", handlers...)
	return app
}

func doRequest(t *testing.T, app *fiber.App, authorization string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func signToken(t *testing.T, identity auth.Identity, expMinutes int) string {
	t.Helper()
	token, err := pkgjwt.Generate(testSecret, identity, "pos-sucursales", expMinutes)
	require.NoError(t, err)
	return token
}

func TestAuthMiddleware_SinHeader(t *testing.T) {
	app := buildTestApp("")
	resp := doRequest(t, app, "")
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestAuthMiddleware_FormatoInvalido(t *testing.T) {
	app := buildTestApp("")
	for _, header := range []string{"Token abc", "Bearer", "solo-un-token"} {
		resp := doRequest(t, app, header)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode, "header: %q", header)
	}
}

func TestAuthMiddleware_TokenInvalido(t *testing.T) {
	app := buildTestApp("")

	resp := doRequest(t, app, "Bearer no-es-un-jwt")
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	// Firmado con otro secreto.
	otro, err := pkgjwt.Generate("otro-secreto", auth.Identity{UserID: "u1"}, "pos-sucursales", 60)
	require.NoError(t, err)
	resp = doRequest(t, app, "Bearer "+otro)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestAuthMiddleware_TokenExpirado(t *testing.T) {
	app := buildTestApp("")
	expirado := signToken(t, auth.Identity{UserID: "u1"}, -5)
	resp := doRequest(t, app, "Bearer "+expirado)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestAuthMiddleware_TokenValidoResuelveIdentidad(t *testing.T) {
	app := buildTestApp("")
	token := signToken(t, auth.Identity{
		UserID:      "u1",
		Role:        "user",
		Permissions: []string{auth.PermReadProducts},
		Branch:      "sucursal-norte",
	}, 60)

	resp := doRequest(t, app, "Bearer "+token)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestRequirePermission_SinPermiso(t *testing.T) {
	app := buildTestApp(auth.PermBillingCreate)
	token := signToken(t, auth.Identity{
		UserID:      "u1",
		Role:        "user",
		Permissions: []string{auth.PermReadProducts},
		Branch:      "sucursal-norte",
	}, 60)

	resp := doRequest(t, app, "Bearer "+token)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestRequirePermission_AdminPasaSiempre(t *testing.T) {
	app := buildTestApp(auth.PermBillingCreate)
	token := signToken(t, auth.Identity{UserID: "a1", Role: auth.RoleAdmin}, 60)

	resp := doRequest(t, app, "Bearer "+token)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestRequirePermission_ComodinCubreElRecurso(t *testing.T) {
	app := buildTestApp(auth.PermReadProducts)
	token := signToken(t, auth.Identity{
		UserID:      "u1",
		Role:        "user",
		Permissions: []string{"read:all"},
		Branch:      "sucursal-norte",
	}, 60)

	resp := doRequest(t, app, "Bearer "+token)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
