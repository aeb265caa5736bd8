package controller

import (
	"flowcrm/middleware"
	"flowcrm/models"
	"flowcrm/store"
	"flowcrm/utils"

	"github.com/gofiber/fiber/v2"
)

// SettingsController reads and writes per-tenant configuration. Writes are
// admin-only (enforced in the route group).
type SettingsController struct {
	Store *store.Store
}

func NewSettingsController(s *store.Store) *SettingsController {
	return &SettingsController{Store: s}
}

// Get returns the tenant's settings.
func (sc *SettingsController) Get(c *fiber.Ctx) error {
	tenant := c.Locals(middleware.LocalTenant).(*models.Company)
	return utils.SuccessResponse(c, fiber.StatusOK, "Settings retrieved", tenant.Settings)
}

type UpdateSettingsInput struct {
	Timezone    *string               `json:"timezone,omitempty"`
	Currency    *string               `json:"currency,omitempty" validate:"omitempty,len=3"`
	DateFormat  *string               `json:"date_format,omitempty"`
	TimeFormat  *string               `json:"time_format,omitempty" validate:"omitempty,oneof=12h 24h"`
	LeadStages  *[]string             `json:"lead_stages,omitempty" validate:"omitempty,min=1"`
	DealStages  *[]string             `json:"deal_stages,omitempty" validate:"omitempty,min=1"`
	LeadSources *[]string             `json:"lead_sources,omitempty" validate:"omitempty,min=1"`
	Email       *models.EmailSettings `json:"email,omitempty"`
}

// Update merges the provided fields into the stored settings.
func (sc *SettingsController) Update(c *fiber.Ctx) error {
	tenant := c.Locals(middleware.LocalTenant).(*models.Company)

	var input UpdateSettingsInput
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", nil)
	}
	if errs := utils.ValidateStruct(input); errs != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", errs)
	}

	settings := tenant.Settings
	if input.Timezone != nil {
		settings.Timezone = *input.Timezone
	}
	if input.Currency != nil {
		settings.Currency = *input.Currency
	}
	if input.DateFormat != nil {
		settings.DateFormat = *input.DateFormat
	}
	if input.TimeFormat != nil {
		settings.TimeFormat = *input.TimeFormat
	}
	if input.LeadStages != nil {
		settings.LeadStages = *input.LeadStages
	}
	if input.DealStages != nil {
		settings.DealStages = *input.DealStages
	}
	if input.LeadSources != nil {
		settings.LeadSources = *input.LeadSources
	}
	if input.Email != nil {
		settings.Email = *input.Email
	}

	updated, err := sc.Store.UpdateCompanySettings(c.UserContext(), tenant.ID, settings)
	if err != nil {
		return storeErrResponse(c, err, "Settings")
	}
	return utils.SuccessResponse(c, fiber.StatusOK, "Settings updated", updated.Settings)
}
