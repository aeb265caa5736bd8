package controller

import (
	"flowcrm/models"
	"flowcrm/store"
	"flowcrm/utils"

	"github.com/gofiber/fiber/v2"
)

type AccountController struct {
	Store *store.Store
}

func NewAccountController(s *store.Store) *AccountController {
	return &AccountController{Store: s}
}

type CreateAccountInput struct {
	Name     string `json:"name" validate:"required,min=1,max=100"`
	Industry string `json:"industry,omitempty"`
	Website  string `json:"website,omitempty"`
	Phone    string `json:"phone,omitempty"`

	AnnualRevenue float64 `json:"annual_revenue,omitempty" validate:"omitempty,gte=0"`
	EmployeeCount int     `json:"employee_count,omitempty" validate:"omitempty,gte=0"`

	AssignedTo  *uint    `json:"assigned_to,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Description string   `json:"description,omitempty"`
}

func (ac *AccountController) Create(c *fiber.Ctx) error {
	t := tenantDB(c)
	user := currentUser(c)

	var input CreateAccountInput
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", nil)
	}
	if errs := utils.ValidateStruct(input); errs != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", errs)
	}

	account := models.Account{
		Name:          input.Name,
		Industry:      input.Industry,
		Website:       input.Website,
		Phone:         input.Phone,
		AnnualRevenue: input.AnnualRevenue,
		EmployeeCount: input.EmployeeCount,
		AssignedTo:    input.AssignedTo,
		Tags:          input.Tags,
		Description:   input.Description,
		CreatedBy:     user.ID,
	}
	if err := t.CreateAccount(c.UserContext(), &account); err != nil {
		return storeErrResponse(c, err, "Account")
	}
	return utils.SuccessResponse(c, fiber.StatusCreated, "Account created", account)
}

func (ac *AccountController) Get(c *fiber.Ctx) error {
	t := tenantDB(c)
	id := utils.ParseUint(c.Params("id"))
	account, err := t.FindAccountByID(c.UserContext(), id)
	if err != nil {
		return storeErrResponse(c, err, "Account")
	}
	return utils.SuccessResponse(c, fiber.StatusOK, "Account retrieved", account)
}

func (ac *AccountController) List(c *fiber.Ctx) error {
	t := tenantDB(c)
	opts := parseListOptions(c)
	filter := store.AccountFilter{
		Industry:   c.Query("industry"),
		AssignedTo: optionalUintQuery(c, "assigned_to"),
	}

	accounts, pagination, err := t.FindAccounts(c.UserContext(), filter, opts)
	if err != nil {
		return storeErrResponse(c, err, "Account")
	}
	return utils.PaginatedResponse(c, "Accounts retrieved", accounts, pagination)
}

// Contacts returns the contacts attached to an account.
func (ac *AccountController) Contacts(c *fiber.Ctx) error {
	t := tenantDB(c)
	id := utils.ParseUint(c.Params("id"))

	if _, err := t.FindAccountByID(c.UserContext(), id); err != nil {
		return storeErrResponse(c, err, "Account")
	}

	opts := parseListOptions(c)
	contacts, pagination, err := t.FindContacts(c.UserContext(), store.ContactFilter{AccountID: &id}, opts)
	if err != nil {
		return storeErrResponse(c, err, "Contact")
	}
	return utils.PaginatedResponse(c, "Account contacts retrieved", contacts, pagination)
}

// Deals returns the deals attached to an account.
func (ac *AccountController) Deals(c *fiber.Ctx) error {
	t := tenantDB(c)
	id := utils.ParseUint(c.Params("id"))

	if _, err := t.FindAccountByID(c.UserContext(), id); err != nil {
		return storeErrResponse(c, err, "Account")
	}

	opts := parseListOptions(c)
	deals, pagination, err := t.FindDeals(c.UserContext(), store.DealFilter{AccountID: &id}, opts)
	if err != nil {
		return storeErrResponse(c, err, "Deal")
	}
	return utils.PaginatedResponse(c, "Account deals retrieved", deals, pagination)
}

type UpdateAccountInput struct {
	Name     *string `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	Industry *string `json:"industry,omitempty"`
	Website  *string `json:"website,omitempty"`
	Phone    *string `json:"phone,omitempty"`

	AnnualRevenue *float64 `json:"annual_revenue,omitempty" validate:"omitempty,gte=0"`
	EmployeeCount *int     `json:"employee_count,omitempty" validate:"omitempty,gte=0"`

	AssignedTo  *uint     `json:"assigned_to,omitempty"`
	Tags        *[]string `json:"tags,omitempty"`
	Description *string   `json:"description,omitempty"`
}

func (ac *AccountController) Update(c *fiber.Ctx) error {
	t := tenantDB(c)
	user := currentUser(c)
	id := utils.ParseUint(c.Params("id"))

	var input UpdateAccountInput
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", nil)
	}
	if errs := utils.ValidateStruct(input); errs != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", errs)
	}

	existing, err := t.FindAccountByID(c.UserContext(), id)
	if err != nil {
		return storeErrResponse(c, err, "Account")
	}
	if !ownsOrForbidden(c, existing.CreatedBy) {
		return nil
	}

	updates := map[string]interface{}{"updated_by": user.ID}
	if input.Name != nil {
		updates["name"] = *input.Name
	}
	if input.Industry != nil {
		updates["industry"] = *input.Industry
	}
	if input.Website != nil {
		updates["website"] = *input.Website
	}
	if input.Phone != nil {
		updates["phone"] = *input.Phone
	}
	if input.AnnualRevenue != nil {
		updates["annual_revenue"] = *input.AnnualRevenue
	}
	if input.EmployeeCount != nil {
		updates["employee_count"] = *input.EmployeeCount
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

	account, err := t.UpdateAccount(c.UserContext(), id, updates)
	if err != nil {
		return storeErrResponse(c, err, "Account")
	}
	return utils.SuccessResponse(c, fiber.StatusOK, "Account updated", account)
}

func (ac *AccountController) Delete(c *fiber.Ctx) error {
	t := tenantDB(c)
	id := utils.ParseUint(c.Params("id"))

	existing, err := t.FindAccountByID(c.UserContext(), id)
	if err != nil {
		return storeErrResponse(c, err, "Account")
	}
	if !ownsOrForbidden(c, existing.CreatedBy) {
		return nil
	}

	if err := t.DeleteAccount(c.UserContext(), id); err != nil {
		return storeErrResponse(c, err, "Account")
	}
	return utils.SuccessResponse(c, fiber.StatusOK, "Account deleted", nil)
}

func (ac *AccountController) AddNote(c *fiber.Ctx) error {
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

	note, err := t.AddNote(c.UserContext(), models.EntityAccount, id, input.Content, user.ID)
	if err != nil {
		return storeErrResponse(c, err, "Account")
	}
	return utils.SuccessResponse(c, fiber.StatusCreated, "Note added", note)
}
