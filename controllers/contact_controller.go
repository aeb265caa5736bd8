package controller

import (
	"strings"
	"time"

	"flowcrm/models"
	"flowcrm/store"
	"flowcrm/utils"

	"github.com/gofiber/fiber/v2"
)

type ContactController struct {
	Store *store.Store
}

func NewContactController(s *store.Store) *ContactController {
	return &ContactController{Store: s}
}

type CreateContactInput struct {
	FirstName  string `json:"first_name" validate:"required,min=1,max=50"`
	LastName   string `json:"last_name" validate:"required,min=1,max=50"`
	Email      string `json:"email" validate:"required,email"`
	Phone      string `json:"phone,omitempty"`
	Mobile     string `json:"mobile,omitempty"`
	Title      string `json:"title,omitempty"`
	Department string `json:"department,omitempty"`

	AccountID  *uint    `json:"account_id,omitempty"`
	AssignedTo *uint    `json:"assigned_to,omitempty"`
	Tags       []string `json:"tags,omitempty"`
}

func (cc *ContactController) Create(c *fiber.Ctx) error {
	t := tenantDB(c)
	user := currentUser(c)

	var input CreateContactInput
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", nil)
	}
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	if errs := utils.ValidateStruct(input); errs != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", errs)
	}

	if input.AccountID != nil {
		if _, err := t.FindAccountByID(c.UserContext(), *input.AccountID); err != nil {
			return storeErrResponse(c, err, "Account")
		}
	}

	contact := models.Contact{
		FirstName:  input.FirstName,
		LastName:   input.LastName,
		Email:      input.Email,
		Phone:      input.Phone,
		Mobile:     input.Mobile,
		Title:      input.Title,
		Department: input.Department,
		AccountID:  input.AccountID,
		AssignedTo: input.AssignedTo,
		Tags:       input.Tags,
		IsActive:   true,
		CreatedBy:  user.ID,
	}
	if err := t.CreateContact(c.UserContext(), &contact); err != nil {
		return storeErrResponse(c, err, "Contact")
	}

	if err := t.TriggerWorkflows(c.UserContext(), models.TriggerContactCreated, map[string]string{
		"contact_id": utils.FormatUint(contact.ID),
		"email":      contact.Email,
	}); err != nil {
		utils.LogError("workflow_trigger_failed", err, map[string]interface{}{
			"trigger": models.TriggerContactCreated,
		})
	}

	return utils.SuccessResponse(c, fiber.StatusCreated, "Contact created", contact)
}

func (cc *ContactController) Get(c *fiber.Ctx) error {
	t := tenantDB(c)
	id := utils.ParseUint(c.Params("id"))
	contact, err := t.FindContactByID(c.UserContext(), id)
	if err != nil {
		return storeErrResponse(c, err, "Contact")
	}
	return utils.SuccessResponse(c, fiber.StatusOK, "Contact retrieved", contact)
}

func (cc *ContactController) List(c *fiber.Ctx) error {
	t := tenantDB(c)
	opts := parseListOptions(c)
	filter := store.ContactFilter{
		AccountID:  optionalUintQuery(c, "account_id"),
		AssignedTo: optionalUintQuery(c, "assigned_to"),
	}
	if raw := c.Query("is_active"); raw != "" {
		filter.IsActive = utils.Pointer(raw == "true")
	}

	contacts, pagination, err := t.FindContacts(c.UserContext(), filter, opts)
	if err != nil {
		return storeErrResponse(c, err, "Contact")
	}
	return utils.PaginatedResponse(c, "Contacts retrieved", contacts, pagination)
}

type UpdateContactInput struct {
	FirstName  *string `json:"first_name,omitempty" validate:"omitempty,min=1,max=50"`
	LastName   *string `json:"last_name,omitempty" validate:"omitempty,min=1,max=50"`
	Email      *string `json:"email,omitempty" validate:"omitempty,email"`
	Phone      *string `json:"phone,omitempty"`
	Mobile     *string `json:"mobile,omitempty"`
	Title      *string `json:"title,omitempty"`
	Department *string `json:"department,omitempty"`

	AccountID       *uint      `json:"account_id,omitempty"`
	AssignedTo      *uint      `json:"assigned_to,omitempty"`
	Tags            *[]string  `json:"tags,omitempty"`
	IsActive        *bool      `json:"is_active,omitempty"`
	LastContactedAt *time.Time `json:"last_contacted_at,omitempty"`
}

func (cc *ContactController) Update(c *fiber.Ctx) error {
	t := tenantDB(c)
	user := currentUser(c)
	id := utils.ParseUint(c.Params("id"))

	var input UpdateContactInput
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", nil)
	}
	if errs := utils.ValidateStruct(input); errs != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", errs)
	}

	existing, err := t.FindContactByID(c.UserContext(), id)
	if err != nil {
		return storeErrResponse(c, err, "Contact")
	}
	if !ownsOrForbidden(c, existing.CreatedBy) {
		return nil
	}

	if input.AccountID != nil {
		if _, err := t.FindAccountByID(c.UserContext(), *input.AccountID); err != nil {
			return storeErrResponse(c, err, "Account")
		}
	}

	updates := map[string]interface{}{"updated_by": user.ID}
	if input.FirstName != nil {
		updates["first_name"] = *input.FirstName
	}
	if input.LastName != nil {
		updates["last_name"] = *input.LastName
	}
	if input.Email != nil {
		updates["email"] = strings.ToLower(strings.TrimSpace(*input.Email))
	}
	if input.Phone != nil {
		updates["phone"] = *input.Phone
	}
	if input.Mobile != nil {
		updates["mobile"] = *input.Mobile
	}
	if input.Title != nil {
		updates["title"] = *input.Title
	}
	if input.Department != nil {
		updates["department"] = *input.Department
	}
	if input.AccountID != nil {
		updates["account_id"] = *input.AccountID
	}
	if input.AssignedTo != nil {
		updates["assigned_to"] = *input.AssignedTo
	}
	if input.Tags != nil {
		updates["tags"] = *input.Tags
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}
	if input.LastContactedAt != nil {
		updates["last_contacted_at"] = *input.LastContactedAt
	}

	contact, err := t.UpdateContact(c.UserContext(), id, updates)
	if err != nil {
		return storeErrResponse(c, err, "Contact")
	}
	return utils.SuccessResponse(c, fiber.StatusOK, "Contact updated", contact)
}

func (cc *ContactController) Delete(c *fiber.Ctx) error {
	t := tenantDB(c)
	id := utils.ParseUint(c.Params("id"))

	existing, err := t.FindContactByID(c.UserContext(), id)
	if err != nil {
		return storeErrResponse(c, err, "Contact")
	}
	if !ownsOrForbidden(c, existing.CreatedBy) {
		return nil
	}

	if err := t.DeleteContact(c.UserContext(), id); err != nil {
		return storeErrResponse(c, err, "Contact")
	}
	return utils.SuccessResponse(c, fiber.StatusOK, "Contact deleted", nil)
}

func (cc *ContactController) AddNote(c *fiber.Ctx) error {
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

	note, err := t.AddNote(c.UserContext(), models.EntityContact, id, input.Content, user.ID)
	if err != nil {
		return storeErrResponse(c, err, "Contact")
	}
	return utils.SuccessResponse(c, fiber.StatusCreated, "Note added", note)
}
