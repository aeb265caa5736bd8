package controller

import (
	"errors"

	"flowcrm/middleware"
	"flowcrm/models"
	"flowcrm/store"
	"flowcrm/utils"

	"github.com/gofiber/fiber/v2"
)

// tenantDB pulls the tenant-scoped store handle the auth middleware attached.
func tenantDB(c *fiber.Ctx) *store.TenantDB {
	return c.Locals(middleware.LocalTenantDB).(*store.TenantDB)
}

// currentUser pulls the authenticated user.
func currentUser(c *fiber.Ctx) *models.User {
	return c.Locals(middleware.LocalUser).(*models.User)
}

// ownsOrForbidden resolves a deferred ownership check against the loaded
// resource's creator. Returns false after writing the 403 response.
func ownsOrForbidden(c *fiber.Ctx, createdBy uint) bool {
	check, ok := c.Locals(middleware.LocalOwnershipCheck).(*middleware.OwnershipCheck)
	if !ok {
		return true
	}
	if check.UserID != createdBy {
		_ = utils.ErrorResponse(c, fiber.StatusForbidden, "You can only modify records you created", nil)
		return false
	}
	return true
}

// parseListOptions reads pagination, sort and search query parameters.
func parseListOptions(c *fiber.Ctx) store.ListOptions {
	opts := store.ListOptions{
		Page:   c.QueryInt("page", 1),
		Limit:  c.QueryInt("limit", 20),
		Sort:   c.Query("sort"),
		Search: c.Query("search"),
	}
	opts.Normalize()
	return opts
}

// optionalUintQuery returns a pointer to a uint query param, nil if absent.
func optionalUintQuery(c *fiber.Ctx, key string) *uint {
	raw := c.Query(key)
	if raw == "" {
		return nil
	}
	id := utils.ParseUint(raw)
	if id == 0 {
		return nil
	}
	return &id
}

// storeErrResponse maps store sentinel errors onto the HTTP error envelope.
// entity names the resource for the not-found message.
func storeErrResponse(c *fiber.Ctx, err error, entity string) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return utils.ErrorResponse(c, fiber.StatusNotFound, entity+" not found", nil)
	case errors.Is(err, store.ErrDuplicate):
		return utils.ErrorResponse(c, fiber.StatusConflict, entity+" already exists", nil)
	case errors.Is(err, store.ErrLeadAlreadyConverted):
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Lead already converted", nil)
	case errors.Is(err, store.ErrLastAdmin):
		return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, store.ErrDealNameRequired):
		return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error(), nil)
	default:
		utils.LogError("internal_error", err, map[string]interface{}{
			"method": c.Method(),
			"path":   c.Path(),
			"user":   currentUserIDOrZero(c),
		})
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Internal server error", nil)
	}
}

func currentUserIDOrZero(c *fiber.Ctx) uint {
	if id, ok := c.Locals(middleware.LocalUserID).(uint); ok {
		return id
	}
	return 0
}
