package controller

import (
	"time"

	"flowcrm/models"
	"flowcrm/store"
	"flowcrm/utils"

	"github.com/gofiber/fiber/v2"
)

type TaskController struct {
	Store *store.Store
}

func NewTaskController(s *store.Store) *TaskController {
	return &TaskController{Store: s}
}

type CreateTaskInput struct {
	Title       string `json:"title" validate:"required,min=1,max=150"`
	Description string `json:"description,omitempty"`

	Type     string `json:"type,omitempty" validate:"omitempty,oneof=task follow-up meeting call email"`
	Priority string `json:"priority,omitempty" validate:"omitempty,oneof=low medium high urgent"`

	DueDate    *time.Time `json:"due_date,omitempty"`
	AssignedTo uint       `json:"assigned_to" validate:"required"`

	RelatedType string `json:"related_type,omitempty" validate:"omitempty,oneof=Lead Contact Deal Account"`
	RelatedID   *uint  `json:"related_id,omitempty"`
}

func (tc *TaskController) Create(c *fiber.Ctx) error {
	t := tenantDB(c)
	user := currentUser(c)

	var input CreateTaskInput
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

	if _, err := t.FindUserByID(c.UserContext(), input.AssignedTo); err != nil {
		return storeErrResponse(c, err, "User")
	}

	task := models.Task{
		Title:       input.Title,
		Description: input.Description,
		Type:        input.Type,
		Priority:    input.Priority,
		DueDate:     input.DueDate,
		AssignedTo:  input.AssignedTo,
		RelatedType: input.RelatedType,
		RelatedID:   input.RelatedID,
		CreatedBy:   user.ID,
	}
	if err := t.CreateTask(c.UserContext(), &task); err != nil {
		return storeErrResponse(c, err, "Task")
	}

	tc.fireTrigger(c, models.TriggerTaskCreated, taskPayload(&task))

	return utils.SuccessResponse(c, fiber.StatusCreated, "Task created", task)
}

func (tc *TaskController) Get(c *fiber.Ctx) error {
	t := tenantDB(c)
	id := utils.ParseUint(c.Params("id"))
	task, err := t.FindTaskByID(c.UserContext(), id)
	if err != nil {
		return storeErrResponse(c, err, "Task")
	}
	return utils.SuccessResponse(c, fiber.StatusOK, "Task retrieved", task)
}

func (tc *TaskController) List(c *fiber.Ctx) error {
	t := tenantDB(c)
	opts := parseListOptions(c)
	filter := store.TaskFilter{
		Status:      c.Query("status"),
		Priority:    c.Query("priority"),
		Type:        c.Query("type"),
		AssignedTo:  optionalUintQuery(c, "assigned_to"),
		RelatedType: c.Query("related_type"),
		RelatedID:   optionalUintQuery(c, "related_id"),
	}

	tasks, pagination, err := t.FindTasks(c.UserContext(), filter, opts)
	if err != nil {
		return storeErrResponse(c, err, "Task")
	}
	return utils.PaginatedResponse(c, "Tasks retrieved", tasks, pagination)
}

type UpdateTaskInput struct {
	Title       *string `json:"title,omitempty" validate:"omitempty,min=1,max=150"`
	Description *string `json:"description,omitempty"`

	Type     *string `json:"type,omitempty" validate:"omitempty,oneof=task follow-up meeting call email"`
	Status   *string `json:"status,omitempty" validate:"omitempty,oneof=pending in-progress cancelled"`
	Priority *string `json:"priority,omitempty" validate:"omitempty,oneof=low medium high urgent"`

	DueDate    *time.Time `json:"due_date,omitempty"`
	AssignedTo *uint      `json:"assigned_to,omitempty"`
}

// Update applies a partial update. Completion goes through Complete so the
// completed-at/by pair stays consistent.
func (tc *TaskController) Update(c *fiber.Ctx) error {
	t := tenantDB(c)
	id := utils.ParseUint(c.Params("id"))

	var input UpdateTaskInput
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", nil)
	}
	if errs := utils.ValidateStruct(input); errs != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", errs)
	}

	existing, err := t.FindTaskByID(c.UserContext(), id)
	if err != nil {
		return storeErrResponse(c, err, "Task")
	}
	if !ownsOrForbidden(c, existing.CreatedBy) {
		return nil
	}

	updates := map[string]interface{}{}
	if input.Title != nil {
		updates["title"] = *input.Title
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.Type != nil {
		updates["type"] = *input.Type
	}
	if input.Status != nil {
		updates["status"] = *input.Status
	}
	if input.Priority != nil {
		updates["priority"] = *input.Priority
	}
	if input.DueDate != nil {
		updates["due_date"] = *input.DueDate
	}
	if input.AssignedTo != nil {
		if _, err := t.FindUserByID(c.UserContext(), *input.AssignedTo); err != nil {
			return storeErrResponse(c, err, "User")
		}
		updates["assigned_to"] = *input.AssignedTo
	}
	if len(updates) == 0 {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "No fields to update", nil)
	}

	task, err := t.UpdateTask(c.UserContext(), id, updates)
	if err != nil {
		return storeErrResponse(c, err, "Task")
	}
	return utils.SuccessResponse(c, fiber.StatusOK, "Task updated", task)
}

// Complete marks a task done, stamping who finished it and when.
func (tc *TaskController) Complete(c *fiber.Ctx) error {
	t := tenantDB(c)
	user := currentUser(c)
	id := utils.ParseUint(c.Params("id"))

	existing, err := t.FindTaskByID(c.UserContext(), id)
	if err != nil {
		return storeErrResponse(c, err, "Task")
	}
	if existing.Status == models.TaskStatusCompleted {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Task is already completed", nil)
	}
	if existing.Status == models.TaskStatusCancelled {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "A cancelled task cannot be completed", nil)
	}

	task, err := t.CompleteTask(c.UserContext(), id, user.ID)
	if err != nil {
		return storeErrResponse(c, err, "Task")
	}

	activity := models.Activity{
		Type:        models.ActivityTaskCompleted,
		Subject:     "Task completed: " + task.Title,
		RelatedType: models.EntityTask,
		RelatedID:   &task.ID,
		CreatedBy:   user.ID,
	}
	if err := t.CreateActivity(c.UserContext(), &activity); err != nil {
		utils.LogError("activity_write_failed", err, map[string]interface{}{
			"task_id": task.ID,
		})
	}

	tc.fireTrigger(c, models.TriggerTaskCompleted, taskPayload(task))

	return utils.SuccessResponse(c, fiber.StatusOK, "Task completed", task)
}

func (tc *TaskController) Delete(c *fiber.Ctx) error {
	t := tenantDB(c)
	id := utils.ParseUint(c.Params("id"))

	existing, err := t.FindTaskByID(c.UserContext(), id)
	if err != nil {
		return storeErrResponse(c, err, "Task")
	}
	if !ownsOrForbidden(c, existing.CreatedBy) {
		return nil
	}

	if err := t.DeleteTask(c.UserContext(), id); err != nil {
		return storeErrResponse(c, err, "Task")
	}
	return utils.SuccessResponse(c, fiber.StatusOK, "Task deleted", nil)
}

func (tc *TaskController) fireTrigger(c *fiber.Ctx, triggerType string, payload map[string]string) {
	t := tenantDB(c)
	if err := t.TriggerWorkflows(c.UserContext(), triggerType, payload); err != nil {
		utils.LogError("workflow_trigger_failed", err, map[string]interface{}{
			"trigger": triggerType,
		})
	}
}

func taskPayload(task *models.Task) map[string]string {
	return map[string]string{
		"task_id":     utils.FormatUint(task.ID),
		"title":       task.Title,
		"type":        task.Type,
		"status":      task.Status,
		"priority":    task.Priority,
		"assigned_to": utils.FormatUint(task.AssignedTo),
	}
}
