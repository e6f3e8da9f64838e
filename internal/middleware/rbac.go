package middleware

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/sima-go-api/internal/authz"
	"github.com/noah-isme/sima-go-api/internal/utils"
)

// RequireRole ensures the authenticated user carries one of the allowed
// roles. This is a coarse route gate; per-record decisions happen in the
// services.
func RequireRole(roles ...authz.Role) fiber.Handler {
	allowed := make(map[authz.Role]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		role, ok := authz.ParseRole(normalizeRoleValue(c.Locals("user_role")))
		if !ok {
			return utils.SendError(c, fiber.StatusForbidden, "insufficient permissions")
		}
		if _, ok := allowed[role]; !ok {
			return utils.SendError(c, fiber.StatusForbidden, "insufficient permissions")
		}
		return c.Next()
	}
}

// RequireAdministrator shortcuts the common SUPER_ADMIN/ADMIN gate.
func RequireAdministrator() fiber.Handler {
	return RequireRole(authz.RoleSuperAdmin, authz.RoleAdmin)
}

func normalizeRoleValue(value interface{}) string {
	switch v := value.(type) {
	case string:
		return strings.ToUpper(strings.TrimSpace(v))
	case fmt.Stringer:
		return strings.ToUpper(strings.TrimSpace(v.String()))
	default:
		if value == nil {
			return ""
		}
		return strings.ToUpper(strings.TrimSpace(fmt.Sprintf("%v", value)))
	}
}
