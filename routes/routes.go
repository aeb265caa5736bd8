package routes

import (
	controller "flowcrm/controllers"
	"flowcrm/middleware"
	"flowcrm/models"
	"flowcrm/store"
	"flowcrm/utils"

	"github.com/gofiber/fiber/v2"
)

// SetupRoutes wires every endpoint under /api/v1. Anything past the auth
// group runs behind Protected, which attaches the tenant-scoped store handle.
func SetupRoutes(app *fiber.App, s *store.Store) {
	authController := controller.NewAuthController(s)
	userController := controller.NewUserController(s)
	leadController := controller.NewLeadController(s)
	contactController := controller.NewContactController(s)
	accountController := controller.NewAccountController(s)
	dealController := controller.NewDealController(s)
	taskController := controller.NewTaskController(s)
	activityController := controller.NewActivityController(s)
	dashboardController := controller.NewDashboardController(s)
	workflowController := controller.NewWorkflowController(s)
	settingsController := controller.NewSettingsController(s)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api/v1")

	// Public auth surface, IP rate limited.
	auth := api.Group("/auth", middleware.APIRateLimiter())
	auth.Post("/register", authController.Register)
	auth.Post("/login", authController.Login)
	auth.Post("/refresh-token", authController.RefreshToken)
	auth.Post("/accept-invitation", authController.AcceptInvitation)
	auth.Post("/forgot-password", authController.ForgotPassword)
	auth.Post("/reset-password", authController.ResetPassword)

	// Everything else requires an authenticated, active user inside an
	// active tenant.
	protected := api.Group("", middleware.Protected(s), middleware.APIRateLimiter())

	protected.Post("/auth/logout", authController.Logout)
	protected.Get("/auth/me", authController.Me)

	adminOnly := middleware.RequireRole(models.RoleAdmin)
	adminOrManager := middleware.RequireRole(models.RoleAdmin, models.RoleManager)

	users := protected.Group("/users")
	users.Get("/", userController.List)
	users.Post("/invite", adminOrManager, userController.Invite)
	users.Get("/:id", userController.Get)
	users.Put("/:id", adminOnly, userController.Update)
	users.Patch("/:id/role", adminOnly, userController.UpdateRole)
	users.Patch("/:id/toggle-status", adminOnly, userController.ToggleStatus)
	users.Delete("/:id", adminOnly, userController.Delete)

	leads := protected.Group("/leads")
	leads.Post("/", leadController.Create)
	leads.Get("/", leadController.List)
	leads.Get("/stats", leadController.Statistics)
	leads.Post("/bulk-assign", adminOrManager, leadController.BulkAssign)
	leads.Get("/:id", leadController.Get)
	leads.Put("/:id", middleware.RequireOwnershipOrAdmin("created_by"), leadController.Update)
	leads.Delete("/:id", middleware.RequireOwnershipOrAdmin("created_by"), leadController.Delete)
	leads.Post("/:id/notes", leadController.AddNote)
	leads.Post("/:id/convert", leadController.Convert)

	contacts := protected.Group("/contacts")
	contacts.Post("/", contactController.Create)
	contacts.Get("/", contactController.List)
	contacts.Get("/:id", contactController.Get)
	contacts.Put("/:id", middleware.RequireOwnershipOrAdmin("created_by"), contactController.Update)
	contacts.Delete("/:id", middleware.RequireOwnershipOrAdmin("created_by"), contactController.Delete)
	contacts.Post("/:id/notes", contactController.AddNote)

	accounts := protected.Group("/accounts")
	accounts.Post("/", accountController.Create)
	accounts.Get("/", accountController.List)
	accounts.Get("/:id", accountController.Get)
	accounts.Get("/:id/contacts", accountController.Contacts)
	accounts.Get("/:id/deals", accountController.Deals)
	accounts.Put("/:id", middleware.RequireOwnershipOrAdmin("created_by"), accountController.Update)
	accounts.Delete("/:id", middleware.RequireOwnershipOrAdmin("created_by"), accountController.Delete)
	accounts.Post("/:id/notes", accountController.AddNote)

	deals := protected.Group("/deals")
	deals.Post("/", dealController.Create)
	deals.Get("/", dealController.List)
	deals.Get("/pipeline/summary", dealController.PipelineSummary)
	deals.Get("/:id", dealController.Get)
	deals.Put("/:id", middleware.RequireOwnershipOrAdmin("created_by"), dealController.Update)
	deals.Patch("/:id/stage", dealController.UpdateStage)
	deals.Delete("/:id", middleware.RequireOwnershipOrAdmin("created_by"), dealController.Delete)
	deals.Post("/:id/notes", dealController.AddNote)

	tasks := protected.Group("/tasks")
	tasks.Post("/", taskController.Create)
	tasks.Get("/", taskController.List)
	tasks.Get("/:id", taskController.Get)
	tasks.Put("/:id", middleware.RequireOwnershipOrAdmin("created_by"), taskController.Update)
	tasks.Patch("/:id/complete", taskController.Complete)
	tasks.Delete("/:id", middleware.RequireOwnershipOrAdmin("created_by"), taskController.Delete)

	activities := protected.Group("/activities")
	activities.Post("/", activityController.Create)
	activities.Get("/", activityController.List)
	activities.Get("/:id", activityController.Get)
	activities.Delete("/:id", middleware.RequireOwnershipOrAdmin("created_by"), activityController.Delete)

	dashboard := protected.Group("/dashboard")
	dashboard.Get("/overview", dashboardController.Overview)
	dashboard.Get("/pipeline", dashboardController.Pipeline)
	dashboard.Get("/recent-activity", dashboardController.RecentActivity)

	workflows := protected.Group("/workflows", adminOrManager)
	workflows.Post("/", workflowController.Create)
	workflows.Get("/", workflowController.List)
	workflows.Get("/:id", workflowController.Get)
	workflows.Put("/:id", workflowController.Update)
	workflows.Patch("/:id/toggle", workflowController.Toggle)
	workflows.Delete("/:id", workflowController.Delete)

	settings := protected.Group("/settings")
	settings.Get("/", settingsController.Get)
	settings.Put("/", adminOnly, settingsController.Update)

	app.Use(func(c *fiber.Ctx) error {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Route not found", nil)
	})
}
