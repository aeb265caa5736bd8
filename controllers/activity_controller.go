package controller

import (
	"flowcrm/models"
	"flowcrm/store"
	"flowcrm/utils"

	"github.com/gofiber/fiber/v2"
)

type ActivityController struct {
	Store *store.Store
}

func NewActivityController(s *store.Store) *ActivityController {
	return &ActivityController{Store: s}
}

type CreateActivityInput struct {
	Type        string `json:"type" validate:"required,oneof=call email meeting note other"`
	Subject     string `json:"subject" validate:"required,min=1,max=200"`
	Description string `json:"description,omitempty"`

	RelatedType string `json:"related_type,omitempty" validate:"omitempty,oneof=Lead Contact Deal Account Task"`
	RelatedID   *uint  `json:"related_id,omitempty"`

	Duration int    `json:"duration,omitempty" validate:"omitempty,gte=0"`
	Outcome  string `json:"outcome,omitempty"`
}

// Create logs a manual activity. System activity types (conversions, stage
// changes) are written by the operations themselves and are not accepted here.
func (ac *ActivityController) Create(c *fiber.Ctx) error {
	t := tenantDB(c)
	user := currentUser(c)

	var input CreateActivityInput
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", nil)
	}
	if errs := utils.ValidateStruct(input); errs != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", errs)
	}
	if (input.RelatedType == "") != (input.RelatedID == nil) {
		return utils.ErrorResponse(c, fiber.StatusBadRequest,
			"related_type and related_id must be provided together", nil)
	}

	activity := models.Activity{
		Type:        input.Type,
		Subject:     input.Subject,
		Description: input.Description,
		RelatedType: input.RelatedType,
		RelatedID:   input.RelatedID,
		Duration:    input.Duration,
		Outcome:     input.Outcome,
		CreatedBy:   user.ID,
	}
	if err := t.CreateActivity(c.UserContext(), &activity); err != nil {
		return storeErrResponse(c, err, "Activity")
	}
	return utils.SuccessResponse(c, fiber.StatusCreated, "Activity logged", activity)
}

func (ac *ActivityController) Get(c *fiber.Ctx) error {
	t := tenantDB(c)
	id := utils.ParseUint(c.Params("id"))
	activity, err := t.FindActivityByID(c.UserContext(), id)
	if err != nil {
		return storeErrResponse(c, err, "Activity")
	}
	return utils.SuccessResponse(c, fiber.StatusOK, "Activity retrieved", activity)
}

func (ac *ActivityController) List(c *fiber.Ctx) error {
	t := tenantDB(c)
	opts := parseListOptions(c)
	filter := store.ActivityFilter{
		Type:        c.Query("type"),
		RelatedType: c.Query("related_type"),
		RelatedID:   optionalUintQuery(c, "related_id"),
		CreatedBy:   optionalUintQuery(c, "created_by"),
	}

	activities, pagination, err := t.FindActivities(c.UserContext(), filter, opts)
	if err != nil {
		return storeErrResponse(c, err, "Activity")
	}
	return utils.PaginatedResponse(c, "Activities retrieved", activities, pagination)
}

func (ac *ActivityController) Delete(c *fiber.Ctx) error {
	t := tenantDB(c)
	id := utils.ParseUint(c.Params("id"))

	existing, err := t.FindActivityByID(c.UserContext(), id)
	if err != nil {
		return storeErrResponse(c, err, "Activity")
	}
	if !ownsOrForbidden(c, existing.CreatedBy) {
		return nil
	}

	if err := t.DeleteActivity(c.UserContext(), id); err != nil {
		return storeErrResponse(c, err, "Activity")
	}
	return utils.SuccessResponse(c, fiber.StatusOK, "Activity deleted", nil)
}
