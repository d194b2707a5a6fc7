package middleware

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/peergrade-api/internal/utils"
)

// RequireRole admits authenticated callers holding one of roles. Superusers always pass.
func RequireRole(roles ...string) fiber.Handler {
	allowed := make(map[string]bool, len(roles))
	for _, role := range roles {
		if normalized := normalizeRoleValue(role); normalized != "" {
			allowed[normalized] = true
		}
	}

	return func(c *fiber.Ctx) error {
		if !hasUser(c) {
			return utils.Fail(c, fiber.StatusUnauthorized, codeUnauthorized, "authentication required", nil)
		}
		if IsSuperuser(c) || allowed[normalizeRoleValue(c.Locals("user_role"))] {
			return c.Next()
		}
		return utils.Fail(c, fiber.StatusForbidden, codePermissionDenied, "insufficient permissions", nil)
	}
}

// IsSuperuser reports whether the authenticated caller holds elevated privileges.
func IsSuperuser(c *fiber.Ctx) bool {
	value, ok := c.Locals("is_superuser").(bool)
	return ok && value
}

func normalizeRoleValue(value interface{}) string {
	var raw string
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		raw = v
	case fmt.Stringer:
		raw = v.String()
	default:
		raw = fmt.Sprintf("%v", v)
	}
	return strings.ToLower(strings.TrimSpace(raw))
}
