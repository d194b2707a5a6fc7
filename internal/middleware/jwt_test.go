package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func newJWTApp() *fiber.App {
	app := fiber.New()
	app.Use(JWTProtected(testSecret))
	app.Get("/whoami", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"id":        c.Locals("user_id"),
			"role":      c.Locals("user_role"),
			"superuser": IsSuperuser(c),
		})
	})
	return app
}

func TestJWTProtectedBindsActor(t *testing.T) {
	app := newJWTApp()
	token := signToken(t, jwt.MapClaims{
		"sub":          "42",
		"role":         "Teacher",
		"is_superuser": true,
		"exp":          time.Now().Add(time.Hour).Unix(),
	})

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestJWTProtectedAcceptsQueryToken(t *testing.T) {
	app := newJWTApp()
	token := signToken(t, jwt.MapClaims{"sub": "7", "role": "student"})

	req := httptest.NewRequest(http.MethodGet, "/whoami?access_token="+token, nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestJWTProtectedRejectsBadTokens(t *testing.T) {
	app := newJWTApp()

	cases := map[string]string{
		"missing header": "",
		"wrong scheme":   "Basic abc",
		"garbage":        "Bearer not-a-token",
		"expired": "Bearer " + signToken(t, jwt.MapClaims{
			"sub": "1",
			"exp": time.Now().Add(-time.Hour).Unix(),
		}),
		"no subject": "Bearer " + signToken(t, jwt.MapClaims{"role": "student"}),
	}

	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
		})
	}
}

func TestExtractSuperuserFromClaims(t *testing.T) {
	require.True(t, extractSuperuserFromClaims(jwt.MapClaims{"is_superuser": true}))
	require.True(t, extractSuperuserFromClaims(jwt.MapClaims{"superuser": "true"}))
	require.False(t, extractSuperuserFromClaims(jwt.MapClaims{"is_superuser": false}))
	require.False(t, extractSuperuserFromClaims(jwt.MapClaims{}))
}
