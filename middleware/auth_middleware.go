package middleware

import (
	"strings"

	"flowcrm/store"
	"flowcrm/utils"

	"github.com/gofiber/fiber/v2"
)

// Context keys set by Protected for downstream handlers.
const (
	LocalUser     = "user"
	LocalUserID   = "userID"
	LocalTenantID = "tenantID"
	LocalTenant   = "tenant"
	LocalTenantDB = "tenantDB"
)

// Protected authenticates the bearer token, then resolves and validates the
// tenant. Handlers behind it can rely on a tenant-scoped store handle in
// locals; there is no way to reach data access without it.
func Protected(s *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var token string
		authHeader := c.Get("Authorization")
		if authHeader != "" {
			tokenParts := strings.Split(authHeader, " ")
			if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
				return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Invalid authorization format", nil)
			}
			token = tokenParts[1]
		} else {
			token = c.Cookies("access_token")
			if token == "" {
				return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Authorization required", nil)
			}
		}

		claims, err := utils.ParseAccessToken(token)
		if err != nil {
			return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Invalid or expired token", nil)
		}

		user, err := s.FindUserByID(c.UserContext(), claims.UserID)
		if err != nil {
			return utils.ErrorResponse(c, fiber.StatusUnauthorized, "User not found", nil)
		}
		if !user.IsActive {
			return utils.ErrorResponse(c, fiber.StatusForbidden, "Account is not active", nil)
		}
		// The token's tenant claim must match the user record; a mismatch
		// means a stale or forged token.
		if user.TenantID != claims.TenantID {
			return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Invalid token", nil)
		}

		tenant, err := s.FindCompanyByID(c.UserContext(), user.TenantID)
		if err != nil {
			return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Tenant not found", nil)
		}
		if !tenant.IsActive {
			return utils.ErrorResponse(c, fiber.StatusForbidden, "Tenant is not active", nil)
		}

		c.Locals(LocalUser, user)
		c.Locals(LocalUserID, user.ID)
		c.Locals(LocalTenantID, tenant.ID)
		c.Locals(LocalTenant, tenant)
		c.Locals(LocalTenantDB, s.Tenant(tenant.ID))

		return c.Next()
	}
}
