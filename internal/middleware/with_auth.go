package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/peergrade-api/internal/utils"
)

const codePermissionDenied = "PERMISSION_DENIED"

// Roles understood by WithAuth. They mirror the user roles stored on accounts.
const (
	AuthRoleAny     = "any"
	AuthRoleTeacher = "teacher"
	AuthRoleStudent = "student"
)

// AuthOptions configures WithAuth.
type AuthOptions struct {
	Role string
	// AllowAnonymous lets requests without an authenticated user through. Only honoured for AuthRoleAny.
	AllowAnonymous bool
}

// WithAuth wraps a single handler with an identity and role check.
// Superusers pass every role check.
func WithAuth(handler fiber.Handler, opts AuthOptions) fiber.Handler {
	role := strings.ToLower(strings.TrimSpace(opts.Role))
	if role == "" {
		role = AuthRoleAny
	}
	anonymousOK := opts.AllowAnonymous && role == AuthRoleAny

	return func(c *fiber.Ctx) error {
		if !hasUser(c) {
			if anonymousOK {
				return handler(c)
			}
			return utils.Fail(c, fiber.StatusUnauthorized, codeUnauthorized, "authentication required", nil)
		}

		if role != AuthRoleAny && !IsSuperuser(c) && normalizeRoleValue(c.Locals("user_role")) != role {
			return utils.Fail(c, fiber.StatusForbidden, codePermissionDenied, "insufficient permissions", nil)
		}

		return handler(c)
	}
}

func hasUser(c *fiber.Ctx) bool {
	id, ok := c.Locals("user_id").(uint)
	return ok && id != 0
}
