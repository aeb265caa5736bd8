package controller

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"flowcrm/config"
	"flowcrm/models"
	"flowcrm/store"
	"flowcrm/utils"

	"github.com/badoux/checkmail"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// AuthController handles registration, login and the token lifecycle.
type AuthController struct {
	Store *store.Store
}

func NewAuthController(s *store.Store) *AuthController {
	return &AuthController{Store: s}
}

type RegisterInput struct {
	CompanyName string `json:"company_name" validate:"required,min=2,max=100"`
	Subdomain   string `json:"subdomain" validate:"required,min=3,max=50"`
	FirstName   string `json:"first_name" validate:"required,min=1,max=50"`
	LastName    string `json:"last_name" validate:"required,min=1,max=50"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8,max=72"`
}

// Register creates a tenant and its first admin in one transaction.
func (ac *AuthController) Register(c *fiber.Ctx) error {
	var input RegisterInput
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", nil)
	}
	input.Subdomain = normalizeSubdomain(input.Subdomain)
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))

	if errs := utils.ValidateStruct(input); errs != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", errs)
	}
	if err := checkmail.ValidateFormat(input.Email); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid email address", nil)
	}
	if !isValidSubdomain(input.Subdomain) {
		return utils.ErrorResponse(c, fiber.StatusBadRequest,
			"Subdomain may only contain lowercase letters, digits and hyphens", nil)
	}

	company := models.Company{
		Name:      input.CompanyName,
		Subdomain: input.Subdomain,
		Settings:  models.DefaultCompanySettings(),
		IsActive:  true,
	}
	admin := models.User{
		Email:     input.Email,
		FirstName: input.FirstName,
		LastName:  input.LastName,
		IsActive:  true,
	}
	if err := admin.SetPassword(input.Password); err != nil {
		return storeErrResponse(c, err, "User")
	}

	if err := ac.Store.RegisterCompany(c.UserContext(), &company, &admin); err != nil {
		return storeErrResponse(c, err, "Subdomain")
	}

	logrus.WithFields(logrus.Fields{
		"tenant_id": company.ID,
		"subdomain": company.Subdomain,
	}).Info("Company registered")

	access, _, err := ac.issueTokens(c, &admin)
	if err != nil {
		return storeErrResponse(c, err, "User")
	}

	return utils.SuccessResponse(c, fiber.StatusCreated, "Company registered successfully", fiber.Map{
		"company":      company,
		"user":         admin,
		"access_token": access,
		"expires_in":   int(utils.AccessTokenTTL.Seconds()),
	})
}

type LoginInput struct {
	Subdomain string `json:"subdomain" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required"`
}

// Login authenticates within a tenant resolved by subdomain.
func (ac *AuthController) Login(c *fiber.Ctx) error {
	var input LoginInput
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", nil)
	}
	input.Subdomain = normalizeSubdomain(input.Subdomain)
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))

	if errs := utils.ValidateStruct(input); errs != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", errs)
	}

	company, err := ac.Store.FindCompanyBySubdomain(c.UserContext(), input.Subdomain)
	if err != nil {
		// Do not reveal whether the tenant or the credentials were wrong.
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Invalid credentials", nil)
	}
	if !company.IsActive {
		return utils.ErrorResponse(c, fiber.StatusForbidden, "Tenant is not active", nil)
	}

	user, err := ac.Store.Tenant(company.ID).FindUserByEmail(c.UserContext(), input.Email)
	if err != nil || !user.ComparePassword(input.Password) {
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Invalid credentials", nil)
	}
	if !user.IsActive {
		return utils.ErrorResponse(c, fiber.StatusForbidden, "Account is not active", nil)
	}

	now := time.Now()
	user.LastLogin = &now

	access, _, err := ac.issueTokens(c, user)
	if err != nil {
		return storeErrResponse(c, err, "User")
	}

	cacheSession(c.UserContext(), user)

	return utils.SuccessResponse(c, fiber.StatusOK, "Login successful", fiber.Map{
		"user":         user,
		"company":      company,
		"access_token": access,
		"expires_in":   int(utils.AccessTokenTTL.Seconds()),
	})
}

// RefreshToken rotates the refresh token and issues a fresh access token.
// The refresh token is read from the HTTP-only cookie set at login.
func (ac *AuthController) RefreshToken(c *fiber.Ctx) error {
	refresh := c.Cookies("refresh_token")
	if refresh == "" {
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Refresh token required", nil)
	}

	claims, err := utils.ParseRefreshToken(refresh)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Invalid or expired refresh token", nil)
	}

	user, err := ac.Store.FindUserByID(c.UserContext(), claims.UserID)
	if err != nil || !user.IsActive || user.TenantID != claims.TenantID {
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Invalid refresh token", nil)
	}
	// Rotation: the presented token must be the one issued last.
	if user.RefreshToken != utils.HashToken(refresh) {
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Refresh token has been revoked", nil)
	}

	access, _, err := ac.issueTokens(c, user)
	if err != nil {
		return storeErrResponse(c, err, "User")
	}

	return utils.SuccessResponse(c, fiber.StatusOK, "Token refreshed", fiber.Map{
		"access_token": access,
		"expires_in":   int(utils.AccessTokenTTL.Seconds()),
	})
}

// Logout revokes the refresh token and clears the cookie. Requires auth.
func (ac *AuthController) Logout(c *fiber.Ctx) error {
	user := currentUser(c)
	user.RefreshToken = ""
	if err := ac.Store.SaveUser(c.UserContext(), user); err != nil {
		return storeErrResponse(c, err, "User")
	}

	dropSession(c.UserContext(), user.ID)
	clearRefreshCookie(c)

	return utils.SuccessResponse(c, fiber.StatusOK, "Logged out", nil)
}

// Me returns the authenticated user and tenant.
func (ac *AuthController) Me(c *fiber.Ctx) error {
	user := currentUser(c)
	tenant, err := ac.Store.FindCompanyByID(c.UserContext(), user.TenantID)
	if err != nil {
		return storeErrResponse(c, err, "Tenant")
	}
	return utils.SuccessResponse(c, fiber.StatusOK, "Profile retrieved", fiber.Map{
		"user":    user,
		"company": tenant,
	})
}

type AcceptInvitationInput struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// AcceptInvitation redeems an invitation token, sets the password and
// activates the account.
func (ac *AuthController) AcceptInvitation(c *fiber.Ctx) error {
	var input AcceptInvitationInput
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", nil)
	}
	if errs := utils.ValidateStruct(input); errs != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", errs)
	}

	user, err := ac.Store.FindUserByInvitationToken(c.UserContext(), utils.HashToken(input.Token))
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid or expired invitation", nil)
	}
	if user.InvitationExpiry == nil || user.InvitationExpiry.Before(time.Now()) {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid or expired invitation", nil)
	}

	if err := user.SetPassword(input.Password); err != nil {
		return storeErrResponse(c, err, "User")
	}
	user.IsActive = true
	user.InvitationToken = nil
	user.InvitationExpiry = nil

	if err := ac.Store.SaveUser(c.UserContext(), user); err != nil {
		return storeErrResponse(c, err, "User")
	}

	access, _, err := ac.issueTokens(c, user)
	if err != nil {
		return storeErrResponse(c, err, "User")
	}

	return utils.SuccessResponse(c, fiber.StatusOK, "Invitation accepted", fiber.Map{
		"user":         user,
		"access_token": access,
		"expires_in":   int(utils.AccessTokenTTL.Seconds()),
	})
}

type ForgotPasswordInput struct {
	Subdomain string `json:"subdomain" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
}

// ForgotPassword starts a reset flow. The response is identical whether or
// not the account exists.
func (ac *AuthController) ForgotPassword(c *fiber.Ctx) error {
	var input ForgotPasswordInput
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", nil)
	}
	input.Subdomain = normalizeSubdomain(input.Subdomain)
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))

	if errs := utils.ValidateStruct(input); errs != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", errs)
	}

	const neutral = "If an account exists, a reset link has been sent"

	company, err := ac.Store.FindCompanyBySubdomain(c.UserContext(), input.Subdomain)
	if err != nil {
		return utils.SuccessResponse(c, fiber.StatusOK, neutral, nil)
	}
	user, err := ac.Store.Tenant(company.ID).FindUserByEmail(c.UserContext(), input.Email)
	if err != nil {
		return utils.SuccessResponse(c, fiber.StatusOK, neutral, nil)
	}

	token, hashed, err := utils.GenerateRandomToken()
	if err != nil {
		return storeErrResponse(c, err, "User")
	}
	expiry := time.Now().Add(1 * time.Hour)
	user.PasswordResetToken = &hashed
	user.PasswordResetExpires = &expiry
	if err := ac.Store.SaveUser(c.UserContext(), user); err != nil {
		return storeErrResponse(c, err, "User")
	}

	go func(email, token, subdomain string) {
		if err := utils.SendPasswordResetEmail(email, token, subdomain); err != nil {
			utils.LogError("password_reset_email_failed", err, map[string]interface{}{
				"email": email,
			})
		}
	}(user.Email, token, company.Subdomain)

	return utils.SuccessResponse(c, fiber.StatusOK, neutral, nil)
}

type ResetPasswordInput struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// ResetPassword completes the reset flow with the emailed token.
func (ac *AuthController) ResetPassword(c *fiber.Ctx) error {
	var input ResetPasswordInput
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", nil)
	}
	if errs := utils.ValidateStruct(input); errs != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", errs)
	}

	user, err := ac.Store.FindUserByResetToken(c.UserContext(), utils.HashToken(input.Token))
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid or expired reset token", nil)
	}
	if user.PasswordResetExpires == nil || user.PasswordResetExpires.Before(time.Now()) {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid or expired reset token", nil)
	}

	if err := user.SetPassword(input.Password); err != nil {
		return storeErrResponse(c, err, "User")
	}
	user.PasswordResetToken = nil
	user.PasswordResetExpires = nil
	// A password change invalidates any outstanding refresh token.
	user.RefreshToken = ""

	if err := ac.Store.SaveUser(c.UserContext(), user); err != nil {
		return storeErrResponse(c, err, "User")
	}
	dropSession(c.UserContext(), user.ID)

	return utils.SuccessResponse(c, fiber.StatusOK, "Password reset successfully", nil)
}

// issueTokens signs a token pair, persists the refresh token hash for
// rotation checks and sets the refresh cookie.
func (ac *AuthController) issueTokens(c *fiber.Ctx, user *models.User) (string, string, error) {
	access, refresh, err := utils.GenerateTokenPair(user.ID, user.TenantID)
	if err != nil {
		return "", "", err
	}
	user.RefreshToken = utils.HashToken(refresh)
	if err := ac.Store.SaveUser(c.UserContext(), user); err != nil {
		return "", "", err
	}

	c.Cookie(&fiber.Cookie{
		Name:     "refresh_token",
		Value:    refresh,
		Path:     "/api/v1/auth",
		MaxAge:   int(utils.RefreshTokenTTL.Seconds()),
		HTTPOnly: true,
		Secure:   config.AppConfig.Environment == "production",
		SameSite: "Strict",
	})
	return access, refresh, nil
}

func clearRefreshCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     "refresh_token",
		Value:    "",
		Path:     "/api/v1/auth",
		MaxAge:   -1,
		HTTPOnly: true,
	})
}

// cacheSession mirrors the user record into Redis. Purely an optimization;
// failures are logged and ignored.
func cacheSession(ctx context.Context, user *models.User) {
	if config.RDB == nil {
		return
	}
	payload, err := json.Marshal(user)
	if err != nil {
		return
	}
	key := fmt.Sprintf("session:%d", user.ID)
	if err := config.RDB.Set(ctx, key, payload, utils.RefreshTokenTTL).Err(); err != nil {
		logrus.WithError(err).Debug("session cache write failed")
	}
}

func dropSession(ctx context.Context, userID uint) {
	if config.RDB == nil {
		return
	}
	if err := config.RDB.Del(ctx, fmt.Sprintf("session:%d", userID)).Err(); err != nil {
		logrus.WithError(err).Debug("session cache delete failed")
	}
}

func normalizeSubdomain(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func isValidSubdomain(s string) bool {
	if len(s) < 3 || len(s) > 50 {
		return false
	}
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') && r != '-' {
			return false
		}
	}
	return s[0] != '-' && s[len(s)-1] != '-'
}
