package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

func TestRequireRole(t *testing.T) {
	cases := []struct {
		name      string
		userID    uint
		role      string
		superuser bool
		status    int
	}{
		{name: "matching role is case insensitive", userID: 1, role: "Teacher", status: fiber.StatusOK},
		{name: "other role", userID: 2, role: "student", status: fiber.StatusForbidden},
		{name: "superuser", userID: 3, role: "student", superuser: true, status: fiber.StatusOK},
		{name: "no user", role: "teacher", status: fiber.StatusUnauthorized},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := fiber.New()
			app.Use(func(c *fiber.Ctx) error {
				if tc.userID != 0 {
					c.Locals("user_id", tc.userID)
				}
				c.Locals("user_role", tc.role)
				c.Locals("is_superuser", tc.superuser)
				return c.Next()
			})
			app.Use(RequireRole("teacher"))
			app.Get("/manage", func(c *fiber.Ctx) error {
				return c.SendStatus(fiber.StatusOK)
			})

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/manage", nil))
			require.NoError(t, err)
			require.Equal(t, tc.status, resp.StatusCode)
		})
	}
}
