package middleware

import (
	"net/http/httptest"
	"testing"

	"flowcrm/models"

	"github.com/gofiber/fiber/v2"
)

func appWithUser(user *models.User, guards ...fiber.Handler) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		if user != nil {
			c.Locals(LocalUser, user)
		}
		return c.Next()
	})
	handlers := append(guards, func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	app.Get("/probe", handlers...)
	return app
}

func probe(t *testing.T, app *fiber.App) int {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest("GET", "/probe", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()
	return resp.StatusCode
}

func TestRequireRole(t *testing.T) {
	cases := []struct {
		name    string
		user    *models.User
		allowed []string
		want    int
	}{
		{"admin allowed", &models.User{Role: models.RoleAdmin}, []string{models.RoleAdmin}, fiber.StatusOK},
		{"staff rejected from admin route", &models.User{Role: models.RoleStaff}, []string{models.RoleAdmin}, fiber.StatusForbidden},
		{"manager allowed on admin-or-manager", &models.User{Role: models.RoleManager}, []string{models.RoleAdmin, models.RoleManager}, fiber.StatusOK},
		{"staff rejected from admin-or-manager", &models.User{Role: models.RoleStaff}, []string{models.RoleAdmin, models.RoleManager}, fiber.StatusForbidden},
		{"missing user rejected", nil, []string{models.RoleAdmin}, fiber.StatusForbidden},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := appWithUser(tc.user, RequireRole(tc.allowed...))
			if got := probe(t, app); got != tc.want {
				t.Errorf("status = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestRequirePermission(t *testing.T) {
	cases := []struct {
		name string
		user *models.User
		perm string
		want int
	}{
		{"wildcard passes", &models.User{Permissions: []string{models.PermissionAll}}, "leads:delete", fiber.StatusOK},
		{"explicit grant passes", &models.User{Permissions: []string{"leads:read"}}, "leads:read", fiber.StatusOK},
		{"missing grant rejected", &models.User{Permissions: []string{"leads:read"}}, "leads:delete", fiber.StatusForbidden},
		{"no permissions rejected", &models.User{}, "leads:read", fiber.StatusForbidden},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := appWithUser(tc.user, RequirePermission(tc.perm))
			if got := probe(t, app); got != tc.want {
				t.Errorf("status = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestRequireOwnershipOrAdmin(t *testing.T) {
	// Admins pass with no marker attached.
	adminApp := fiber.New()
	adminApp.Use(func(c *fiber.Ctx) error {
		c.Locals(LocalUser, &models.User{Role: models.RoleAdmin})
		return c.Next()
	})
	adminApp.Get("/probe", RequireOwnershipOrAdmin("created_by"), func(c *fiber.Ctx) error {
		if _, ok := c.Locals(LocalOwnershipCheck).(*OwnershipCheck); ok {
			t.Error("admin must not receive an ownership marker")
		}
		return c.SendStatus(fiber.StatusOK)
	})
	if got := probe(t, adminApp); got != fiber.StatusOK {
		t.Errorf("admin status = %d, want 200", got)
	}

	// Staff pass through but carry the marker for the controller to resolve.
	staff := &models.User{Role: models.RoleStaff}
	staff.ID = 9
	staffApp := fiber.New()
	staffApp.Use(func(c *fiber.Ctx) error {
		c.Locals(LocalUser, staff)
		return c.Next()
	})
	staffApp.Get("/probe", RequireOwnershipOrAdmin("created_by"), func(c *fiber.Ctx) error {
		check, ok := c.Locals(LocalOwnershipCheck).(*OwnershipCheck)
		if !ok {
			t.Fatal("staff must receive an ownership marker")
		}
		if check.UserID != 9 || check.Field != "created_by" {
			t.Errorf("marker = %+v", check)
		}
		return c.SendStatus(fiber.StatusOK)
	})
	if got := probe(t, staffApp); got != fiber.StatusOK {
		t.Errorf("staff status = %d, want 200", got)
	}
}
