package middleware

import (
	"strings"

	"flowcrm/models"
	"flowcrm/utils"

	"github.com/gofiber/fiber/v2"
)

// OwnershipCheck marks a request for an ownership check the controller must
// resolve once it has loaded the resource. Admins never get the marker.
type OwnershipCheck struct {
	Field  string
	UserID uint
}

// LocalOwnershipCheck is the locals key RequireOwnershipOrAdmin sets.
const LocalOwnershipCheck = "ownershipCheck"

// RequireRole rejects callers whose role is not in the allowed set.
func RequireRole(roles ...string) fiber.Handler {
	allowed := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *fiber.Ctx) error {
		user, ok := c.Locals(LocalUser).(*models.User)
		if !ok || user.Role == "" {
			return utils.ErrorResponse(c, fiber.StatusForbidden, "User role not found", nil)
		}
		if _, ok := allowed[user.Role]; !ok {
			return utils.ErrorResponse(c, fiber.StatusForbidden,
				"Access denied. Required role: "+strings.Join(roles, " or "), nil)
		}
		return c.Next()
	}
}

// RequirePermission rejects callers holding none of the given permissions.
// The wildcard permission satisfies every check.
func RequirePermission(permissions ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, ok := c.Locals(LocalUser).(*models.User)
		if !ok || len(user.Permissions) == 0 {
			return utils.ErrorResponse(c, fiber.StatusForbidden, "User permissions not found", nil)
		}
		for _, p := range permissions {
			if user.HasPermission(p) {
				return c.Next()
			}
		}
		return utils.ErrorResponse(c, fiber.StatusForbidden,
			"Access denied. Required permission: "+strings.Join(permissions, " or "), nil)
	}
}

// RequireOwnershipOrAdmin lets admins through unconditionally; for everyone
// else it attaches an ownership marker validated by the controller against
// the loaded resource.
func RequireOwnershipOrAdmin(resourceUserIDField string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, ok := c.Locals(LocalUser).(*models.User)
		if !ok {
			return utils.ErrorResponse(c, fiber.StatusUnauthorized, "User not authenticated", nil)
		}
		if user.Role == models.RoleAdmin {
			return c.Next()
		}
		c.Locals(LocalOwnershipCheck, &OwnershipCheck{
			Field:  resourceUserIDField,
			UserID: user.ID,
		})
		return c.Next()
	}
}
