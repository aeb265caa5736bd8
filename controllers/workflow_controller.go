package controller

import (
	"fmt"

	"flowcrm/models"
	"flowcrm/store"
	"flowcrm/utils"

	"github.com/gofiber/fiber/v2"
)

// WorkflowController manages automation rules. Execution happens in the
// background worker; these handlers only define and toggle rules.
type WorkflowController struct {
	Store *store.Store
}

func NewWorkflowController(s *store.Store) *WorkflowController {
	return &WorkflowController{Store: s}
}

var validTriggers = map[string]bool{
	models.TriggerLeadCreated:     true,
	models.TriggerLeadUpdated:     true,
	models.TriggerLeadStageChange: true,
	models.TriggerDealCreated:     true,
	models.TriggerDealStageChange: true,
	models.TriggerTaskCreated:     true,
	models.TriggerTaskCompleted:   true,
	models.TriggerContactCreated:  true,
}

var validActions = map[string]bool{
	models.ActionSendEmail:        true,
	models.ActionAssignUser:       true,
	models.ActionCreateTask:       true,
	models.ActionUpdateField:      true,
	models.ActionSendNotification: true,
}

var validOperators = map[string]bool{
	models.OpEquals: true, models.OpNotEquals: true, models.OpContains: true,
	models.OpGreaterThan: true, models.OpLessThan: true,
	models.OpIsEmpty: true, models.OpIsNotEmpty: true,
}

type WorkflowInput struct {
	Name        string                  `json:"name" validate:"required,min=1,max=100"`
	Description string                  `json:"description,omitempty"`
	Trigger     models.WorkflowTrigger  `json:"trigger" validate:"required"`
	Actions     []models.WorkflowAction `json:"actions" validate:"required,min=1"`
	IsActive    *bool                   `json:"is_active,omitempty"`
}

func validateWorkflowDefinition(trigger models.WorkflowTrigger, actions []models.WorkflowAction) []utils.FieldError {
	var errs []utils.FieldError
	if !validTriggers[trigger.Type] {
		errs = append(errs, utils.FieldError{Field: "trigger.type",
			Message: fmt.Sprintf("unknown trigger type %q", trigger.Type)})
	}
	for i, cond := range trigger.Conditions {
		if cond.Field == "" {
			errs = append(errs, utils.FieldError{
				Field:   fmt.Sprintf("trigger.conditions[%d].field", i),
				Message: "field is required"})
		}
		if !validOperators[cond.Operator] {
			errs = append(errs, utils.FieldError{
				Field:   fmt.Sprintf("trigger.conditions[%d].operator", i),
				Message: fmt.Sprintf("unknown operator %q", cond.Operator)})
		}
	}
	for i, action := range actions {
		if !validActions[action.Type] {
			errs = append(errs, utils.FieldError{
				Field:   fmt.Sprintf("actions[%d].type", i),
				Message: fmt.Sprintf("unknown action type %q", action.Type)})
		}
		if action.Delay < 0 {
			errs = append(errs, utils.FieldError{
				Field:   fmt.Sprintf("actions[%d].delay", i),
				Message: "delay must not be negative"})
		}
	}
	return errs
}

func (wc *WorkflowController) Create(c *fiber.Ctx) error {
	t := tenantDB(c)
	user := currentUser(c)

	var input WorkflowInput
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", nil)
	}
	if errs := utils.ValidateStruct(input); errs != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", errs)
	}
	if errs := validateWorkflowDefinition(input.Trigger, input.Actions); errs != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid workflow definition", errs)
	}

	active := true
	if input.IsActive != nil {
		active = *input.IsActive
	}

	workflow := models.Workflow{
		Name:        input.Name,
		Description: input.Description,
		Trigger:     input.Trigger,
		Actions:     input.Actions,
		IsActive:    active,
		CreatedBy:   user.ID,
	}
	if err := t.CreateWorkflow(c.UserContext(), &workflow); err != nil {
		return storeErrResponse(c, err, "Workflow")
	}
	return utils.SuccessResponse(c, fiber.StatusCreated, "Workflow created", workflow)
}

func (wc *WorkflowController) Get(c *fiber.Ctx) error {
	t := tenantDB(c)
	id := utils.ParseUint(c.Params("id"))
	workflow, err := t.FindWorkflowByID(c.UserContext(), id)
	if err != nil {
		return storeErrResponse(c, err, "Workflow")
	}
	return utils.SuccessResponse(c, fiber.StatusOK, "Workflow retrieved", workflow)
}

func (wc *WorkflowController) List(c *fiber.Ctx) error {
	t := tenantDB(c)
	opts := parseListOptions(c)

	workflows, pagination, err := t.FindWorkflows(c.UserContext(), opts)
	if err != nil {
		return storeErrResponse(c, err, "Workflow")
	}
	return utils.PaginatedResponse(c, "Workflows retrieved", workflows, pagination)
}

type UpdateWorkflowInput struct {
	Name        *string                  `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	Description *string                  `json:"description,omitempty"`
	Trigger     *models.WorkflowTrigger  `json:"trigger,omitempty"`
	Actions     *[]models.WorkflowAction `json:"actions,omitempty" validate:"omitempty,min=1"`
}

func (wc *WorkflowController) Update(c *fiber.Ctx) error {
	t := tenantDB(c)
	id := utils.ParseUint(c.Params("id"))

	var input UpdateWorkflowInput
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", nil)
	}
	if errs := utils.ValidateStruct(input); errs != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", errs)
	}

	existing, err := t.FindWorkflowByID(c.UserContext(), id)
	if err != nil {
		return storeErrResponse(c, err, "Workflow")
	}

	trigger := existing.Trigger
	if input.Trigger != nil {
		trigger = *input.Trigger
	}
	actions := existing.Actions
	if input.Actions != nil {
		actions = *input.Actions
	}
	if errs := validateWorkflowDefinition(trigger, actions); errs != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid workflow definition", errs)
	}

	updates := map[string]interface{}{}
	if input.Name != nil {
		updates["name"] = *input.Name
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.Trigger != nil {
		updates["trigger"] = *input.Trigger
	}
	if input.Actions != nil {
		updates["actions"] = *input.Actions
	}
	if len(updates) == 0 {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "No fields to update", nil)
	}

	workflow, err := t.UpdateWorkflow(c.UserContext(), id, updates)
	if err != nil {
		return storeErrResponse(c, err, "Workflow")
	}
	return utils.SuccessResponse(c, fiber.StatusOK, "Workflow updated", workflow)
}

type ToggleWorkflowInput struct {
	IsActive bool `json:"is_active"`
}

func (wc *WorkflowController) Toggle(c *fiber.Ctx) error {
	t := tenantDB(c)
	id := utils.ParseUint(c.Params("id"))

	var input ToggleWorkflowInput
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", nil)
	}

	workflow, err := t.ToggleWorkflow(c.UserContext(), id, input.IsActive)
	if err != nil {
		return storeErrResponse(c, err, "Workflow")
	}
	return utils.SuccessResponse(c, fiber.StatusOK, "Workflow updated", workflow)
}

func (wc *WorkflowController) Delete(c *fiber.Ctx) error {
	t := tenantDB(c)
	id := utils.ParseUint(c.Params("id"))

	if err := t.DeleteWorkflow(c.UserContext(), id); err != nil {
		return storeErrResponse(c, err, "Workflow")
	}
	return utils.SuccessResponse(c, fiber.StatusOK, "Workflow deleted", nil)
}
