package controller

import (
	"strings"
	"time"

	"flowcrm/models"
	"flowcrm/store"
	"flowcrm/utils"

	"github.com/badoux/checkmail"
	"github.com/gofiber/fiber/v2"
)

// UserController manages the tenant's team. Every route behind it is
// admin-gated except listing and self-profile reads.
type UserController struct {
	Store *store.Store
}

func NewUserController(s *store.Store) *UserController {
	return &UserController{Store: s}
}

// List returns the tenant's users.
func (uc *UserController) List(c *fiber.Ctx) error {
	t := tenantDB(c)
	opts := parseListOptions(c)
	filter := store.UserFilter{
		Role: c.Query("role"),
	}
	if raw := c.Query("is_active"); raw != "" {
		filter.IsActive = utils.Pointer(raw == "true")
	}

	users, pagination, err := t.FindUsers(c.UserContext(), filter, opts)
	if err != nil {
		return storeErrResponse(c, err, "User")
	}
	return utils.PaginatedResponse(c, "Users retrieved", users, pagination)
}

// Get returns a single user inside the tenant.
func (uc *UserController) Get(c *fiber.Ctx) error {
	t := tenantDB(c)
	id := utils.ParseUint(c.Params("id"))
	user, err := t.FindUserByID(c.UserContext(), id)
	if err != nil {
		return storeErrResponse(c, err, "User")
	}
	return utils.SuccessResponse(c, fiber.StatusOK, "User retrieved", user)
}

type InviteUserInput struct {
	Email       string   `json:"email" validate:"required,email"`
	FirstName   string   `json:"first_name" validate:"required,min=1,max=50"`
	LastName    string   `json:"last_name" validate:"required,min=1,max=50"`
	Role        string   `json:"role" validate:"required,oneof=admin manager staff"`
	Permissions []string `json:"permissions,omitempty"`
}

// Invite creates an inactive user and emails an invitation link. The user
// activates by redeeming the token with a password.
func (uc *UserController) Invite(c *fiber.Ctx) error {
	t := tenantDB(c)
	inviter := currentUser(c)

	var input InviteUserInput
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", nil)
	}
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	if errs := utils.ValidateStruct(input); errs != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", errs)
	}
	if err := checkmail.ValidateFormat(input.Email); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid email address", nil)
	}

	tenant, err := uc.Store.FindCompanyByID(c.UserContext(), t.TenantID())
	if err != nil {
		return storeErrResponse(c, err, "Tenant")
	}
	if tenant.TotalUsers >= tenant.MaxUsers {
		return utils.ErrorResponse(c, fiber.StatusForbidden, "User limit reached for this plan", nil)
	}

	token, hashed, err := utils.GenerateRandomToken()
	if err != nil {
		return storeErrResponse(c, err, "User")
	}
	expiry := time.Now().Add(7 * 24 * time.Hour)

	permissions := input.Permissions
	if input.Role == models.RoleAdmin {
		permissions = []string{models.PermissionAll}
	}

	user := models.User{
		Email:            input.Email,
		FirstName:        input.FirstName,
		LastName:         input.LastName,
		Role:             input.Role,
		Permissions:      permissions,
		IsActive:         false,
		InvitationToken:  &hashed,
		InvitationExpiry: &expiry,
		InvitedBy:        &inviter.ID,
	}
	// Placeholder hash; replaced when the invitation is accepted.
	if err := user.SetPassword(token); err != nil {
		return storeErrResponse(c, err, "User")
	}

	if err := t.CreateUser(c.UserContext(), &user); err != nil {
		return storeErrResponse(c, err, "User")
	}

	go func(email, name, token string) {
		if err := utils.SendInvitationEmail(email, name, token); err != nil {
			utils.LogError("invitation_email_failed", err, map[string]interface{}{
				"email": email,
			})
		}
	}(user.Email, user.FirstName, token)

	return utils.SuccessResponse(c, fiber.StatusCreated, "Invitation sent", user)
}

type UpdateUserInput struct {
	FirstName   *string   `json:"first_name,omitempty" validate:"omitempty,min=1,max=50"`
	LastName    *string   `json:"last_name,omitempty" validate:"omitempty,min=1,max=50"`
	Phone       *string   `json:"phone,omitempty"`
	Avatar      *string   `json:"avatar,omitempty"`
	Permissions *[]string `json:"permissions,omitempty"`
}

// Update applies a partial update to profile fields. Email, password and
// role change through their own endpoints.
func (uc *UserController) Update(c *fiber.Ctx) error {
	t := tenantDB(c)
	id := utils.ParseUint(c.Params("id"))

	var input UpdateUserInput
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", nil)
	}
	if errs := utils.ValidateStruct(input); errs != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", errs)
	}

	updates := map[string]interface{}{}
	if input.FirstName != nil {
		updates["first_name"] = *input.FirstName
	}
	if input.LastName != nil {
		updates["last_name"] = *input.LastName
	}
	if input.Phone != nil {
		updates["phone"] = *input.Phone
	}
	if input.Avatar != nil {
		updates["avatar"] = *input.Avatar
	}
	if input.Permissions != nil {
		updates["permissions"] = *input.Permissions
	}
	if len(updates) == 0 {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "No fields to update", nil)
	}

	user, err := t.UpdateUser(c.UserContext(), id, updates)
	if err != nil {
		return storeErrResponse(c, err, "User")
	}
	return utils.SuccessResponse(c, fiber.StatusOK, "User updated", user)
}

type UpdateRoleInput struct {
	Role string `json:"role" validate:"required,oneof=admin manager staff"`
}

// UpdateRole changes a user's role. Demoting the last admin is refused.
func (uc *UserController) UpdateRole(c *fiber.Ctx) error {
	t := tenantDB(c)
	id := utils.ParseUint(c.Params("id"))

	var input UpdateRoleInput
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", nil)
	}
	if errs := utils.ValidateStruct(input); errs != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", errs)
	}

	user, err := t.UpdateUserRole(c.UserContext(), id, input.Role)
	if err != nil {
		return storeErrResponse(c, err, "User")
	}
	return utils.SuccessResponse(c, fiber.StatusOK, "Role updated", user)
}

// ToggleStatus flips a user's active flag. Admins cannot deactivate themselves.
func (uc *UserController) ToggleStatus(c *fiber.Ctx) error {
	t := tenantDB(c)
	id := utils.ParseUint(c.Params("id"))

	if id == currentUser(c).ID {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "You cannot deactivate your own account", nil)
	}

	user, err := t.ToggleUserStatus(c.UserContext(), id)
	if err != nil {
		return storeErrResponse(c, err, "User")
	}
	return utils.SuccessResponse(c, fiber.StatusOK, "User status updated", user)
}

// Delete removes a user from the tenant. Removing the last admin is refused.
func (uc *UserController) Delete(c *fiber.Ctx) error {
	t := tenantDB(c)
	id := utils.ParseUint(c.Params("id"))

	if id == currentUser(c).ID {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "You cannot delete your own account", nil)
	}

	if err := t.DeleteUser(c.UserContext(), id); err != nil {
		return storeErrResponse(c, err, "User")
	}
	return utils.SuccessResponse(c, fiber.StatusOK, "User deleted", nil)
}
