package controller

import (
	"time"

	"flowcrm/models"
	"flowcrm/store"
	"flowcrm/utils"

	"github.com/gofiber/fiber/v2"
)

type DealController struct {
	Store *store.Store
}

func NewDealController(s *store.Store) *DealController {
	return &DealController{Store: s}
}

type CreateDealInput struct {
	Name        string  `json:"name" validate:"required,min=1,max=150"`
	Value       float64 `json:"value,omitempty" validate:"omitempty,gte=0"`
	Probability int     `json:"probability,omitempty" validate:"omitempty,gte=0,lte=100"`

	Stage    string `json:"stage,omitempty" validate:"omitempty,oneof=prospecting qualification proposal negotiation closed-won closed-lost"`
	Pipeline string `json:"pipeline,omitempty"`

	ExpectedCloseDate *time.Time `json:"expected_close_date,omitempty"`

	AccountID  *uint `json:"account_id,omitempty"`
	ContactID  *uint `json:"contact_id,omitempty"`
	AssignedTo *uint `json:"assigned_to,omitempty"`

	Tags        []string `json:"tags,omitempty"`
	Description string   `json:"description,omitempty"`
}

func (dc *DealController) Create(c *fiber.Ctx) error {
	t := tenantDB(c)
	user := currentUser(c)

	var input CreateDealInput
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", nil)
	}
	if errs := utils.ValidateStruct(input); errs != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", errs)
	}

	if input.AccountID != nil {
		if _, err := t.FindAccountByID(c.UserContext(), *input.AccountID); err != nil {
			return storeErrResponse(c, err, "Account")
		}
	}
	if input.ContactID != nil {
		if _, err := t.FindContactByID(c.UserContext(), *input.ContactID); err != nil {
			return storeErrResponse(c, err, "Contact")
		}
	}

	deal := models.Deal{
		Name:              input.Name,
		Value:             input.Value,
		Probability:       input.Probability,
		Stage:             input.Stage,
		Pipeline:          input.Pipeline,
		ExpectedCloseDate: input.ExpectedCloseDate,
		AccountID:         input.AccountID,
		ContactID:         input.ContactID,
		AssignedTo:        input.AssignedTo,
		Tags:              input.Tags,
		Description:       input.Description,
		CreatedBy:         user.ID,
	}
	if err := t.CreateDeal(c.UserContext(), &deal); err != nil {
		return storeErrResponse(c, err, "Deal")
	}

	dc.fireTrigger(c, models.TriggerDealCreated, dealPayload(&deal))

	return utils.SuccessResponse(c, fiber.StatusCreated, "Deal created", deal)
}

func (dc *DealController) Get(c *fiber.Ctx) error {
	t := tenantDB(c)
	id := utils.ParseUint(c.Params("id"))
	deal, err := t.FindDealByID(c.UserContext(), id)
	if err != nil {
		return storeErrResponse(c, err, "Deal")
	}
	return utils.SuccessResponse(c, fiber.StatusOK, "Deal retrieved", deal)
}

func (dc *DealController) List(c *fiber.Ctx) error {
	t := tenantDB(c)
	opts := parseListOptions(c)
	filter := store.DealFilter{
		Stage:      c.Query("stage"),
		Pipeline:   c.Query("pipeline"),
		AccountID:  optionalUintQuery(c, "account_id"),
		ContactID:  optionalUintQuery(c, "contact_id"),
		AssignedTo: optionalUintQuery(c, "assigned_to"),
	}

	deals, pagination, err := t.FindDeals(c.UserContext(), filter, opts)
	if err != nil {
		return storeErrResponse(c, err, "Deal")
	}
	return utils.PaginatedResponse(c, "Deals retrieved", deals, pagination)
}

type UpdateDealInput struct {
	Name        *string  `json:"name,omitempty" validate:"omitempty,min=1,max=150"`
	Value       *float64 `json:"value,omitempty" validate:"omitempty,gte=0"`
	Probability *int     `json:"probability,omitempty" validate:"omitempty,gte=0,lte=100"`

	Pipeline *string `json:"pipeline,omitempty"`

	ExpectedCloseDate *time.Time `json:"expected_close_date,omitempty"`

	AccountID  *uint `json:"account_id,omitempty"`
	ContactID  *uint `json:"contact_id,omitempty"`
	AssignedTo *uint `json:"assigned_to,omitempty"`

	Tags        *[]string `json:"tags,omitempty"`
	Description *string   `json:"description,omitempty"`
	LostReason  *string   `json:"lost_reason,omitempty"`
}

// Update applies a partial update to everything except the stage, which
// moves through UpdateStage so close-date stamping stays in one place.
func (dc *DealController) Update(c *fiber.Ctx) error {
	t := tenantDB(c)
	user := currentUser(c)
	id := utils.ParseUint(c.Params("id"))

	var input UpdateDealInput
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", nil)
	}
	if errs := utils.ValidateStruct(input); errs != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", errs)
	}

	existing, err := t.FindDealByID(c.UserContext(), id)
	if err != nil {
		return storeErrResponse(c, err, "Deal")
	}
	if !ownsOrForbidden(c, existing.CreatedBy) {
		return nil
	}

	updates := map[string]interface{}{"updated_by": user.ID}
	if input.Name != nil {
		updates["name"] = *input.Name
	}
	if input.Value != nil {
		updates["value"] = *input.Value
	}
	if input.Probability != nil {
		updates["probability"] = *input.Probability
	}
	if input.Pipeline != nil {
		updates["pipeline"] = *input.Pipeline
	}
	if input.ExpectedCloseDate != nil {
		updates["expected_close_date"] = *input.ExpectedCloseDate
	}
	if input.AccountID != nil {
		updates["account_id"] = *input.AccountID
	}
	if input.ContactID != nil {
		updates["contact_id"] = *input.ContactID
	}
	if input.AssignedTo != nil {
		updates["assigned_to"] = *input.AssignedTo
	}
	if input.Tags != nil {
		updates["tags"] = *input.Tags
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.LostReason != nil {
		updates["lost_reason"] = *input.LostReason
	}

	deal, err := t.UpdateDeal(c.UserContext(), id, updates)
	if err != nil {
		return storeErrResponse(c, err, "Deal")
	}
	return utils.SuccessResponse(c, fiber.StatusOK, "Deal updated", deal)
}

type UpdateStageInput struct {
	Stage      string `json:"stage" validate:"required,oneof=prospecting qualification proposal negotiation closed-won closed-lost"`
	LostReason string `json:"lost_reason,omitempty"`
}

// UpdateStage moves a deal through the pipeline. Entering a closed stage
// stamps the actual close date; leaving one clears it.
func (dc *DealController) UpdateStage(c *fiber.Ctx) error {
	t := tenantDB(c)
	user := currentUser(c)
	id := utils.ParseUint(c.Params("id"))

	var input UpdateStageInput
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", nil)
	}
	if errs := utils.ValidateStruct(input); errs != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", errs)
	}

	existing, err := t.FindDealByID(c.UserContext(), id)
	if err != nil {
		return storeErrResponse(c, err, "Deal")
	}
	if existing.Stage == input.Stage {
		return utils.SuccessResponse(c, fiber.StatusOK, "Deal stage unchanged", existing)
	}

	updates := map[string]interface{}{
		"stage":      input.Stage,
		"updated_by": user.ID,
	}
	if input.Stage == models.DealStageClosedLost && input.LostReason != "" {
		updates["lost_reason"] = input.LostReason
	}

	deal, err := t.UpdateDeal(c.UserContext(), id, updates)
	if err != nil {
		return storeErrResponse(c, err, "Deal")
	}

	activityType := models.ActivityStageChange
	switch input.Stage {
	case models.DealStageClosedWon:
		activityType = models.ActivityDealWon
	case models.DealStageClosedLost:
		activityType = models.ActivityDealLost
	}
	activity := models.Activity{
		Type:        activityType,
		Subject:     "Deal stage changed: " + deal.Name,
		Description: existing.Stage + " -> " + deal.Stage,
		RelatedType: models.EntityDeal,
		RelatedID:   &deal.ID,
		CreatedBy:   user.ID,
	}
	if err := t.CreateActivity(c.UserContext(), &activity); err != nil {
		utils.LogError("activity_write_failed", err, map[string]interface{}{
			"deal_id": deal.ID,
		})
	}

	dc.fireTrigger(c, models.TriggerDealStageChange, dealPayload(deal))

	return utils.SuccessResponse(c, fiber.StatusOK, "Deal stage updated", deal)
}

func (dc *DealController) Delete(c *fiber.Ctx) error {
	t := tenantDB(c)
	id := utils.ParseUint(c.Params("id"))

	existing, err := t.FindDealByID(c.UserContext(), id)
	if err != nil {
		return storeErrResponse(c, err, "Deal")
	}
	if !ownsOrForbidden(c, existing.CreatedBy) {
		return nil
	}

	if err := t.DeleteDeal(c.UserContext(), id); err != nil {
		return storeErrResponse(c, err, "Deal")
	}
	return utils.SuccessResponse(c, fiber.StatusOK, "Deal deleted", nil)
}

func (dc *DealController) AddNote(c *fiber.Ctx) error {
	t := tenantDB(c)
	user := currentUser(c)
	id := utils.ParseUint(c.Params("id"))

	var input AddNoteInput
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", nil)
	}
	if errs := utils.ValidateStruct(input); errs != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", errs)
	}

	note, err := t.AddNote(c.UserContext(), models.EntityDeal, id, input.Content, user.ID)
	if err != nil {
		return storeErrResponse(c, err, "Deal")
	}
	return utils.SuccessResponse(c, fiber.StatusCreated, "Note added", note)
}

// PipelineSummary returns deal counts and value totals grouped by stage.
func (dc *DealController) PipelineSummary(c *fiber.Ctx) error {
	t := tenantDB(c)
	summary, err := t.PipelineSummary(c.UserContext())
	if err != nil {
		return storeErrResponse(c, err, "Deal")
	}
	return utils.SuccessResponse(c, fiber.StatusOK, "Pipeline summary retrieved", summary)
}

func (dc *DealController) fireTrigger(c *fiber.Ctx, triggerType string, payload map[string]string) {
	t := tenantDB(c)
	if err := t.TriggerWorkflows(c.UserContext(), triggerType, payload); err != nil {
		utils.LogError("workflow_trigger_failed", err, map[string]interface{}{
			"trigger": triggerType,
		})
	}
}
