package routes

import (
	"volunteerhub/internal/adapters/http/handlers"
	"volunteerhub/internal/adapters/http/middleware"
	"volunteerhub/internal/adapters/persistence/repositories"
	"volunteerhub/internal/config"
	"volunteerhub/internal/core/domain"
	"volunteerhub/internal/core/services"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// Setup configures all routes for the application
func Setup(app *fiber.App, db *gorm.DB, cfg *config.Config) {
	// Initialize repositories
	userRepo := repositories.NewUserRepository(db)
	sessionRepo := repositories.NewSessionRepository(db)
	resetRepo := repositories.NewPasswordResetRepository(db)
	volunteerRepo := repositories.NewVolunteerRepository(db)
	taskRepo := repositories.NewTaskRepository(db)

	// Initialize services
	notifyService := services.NewNotificationService()
	authService := services.NewAuthService(userRepo, sessionRepo, cfg)
	recoveryService := services.NewRecoveryService(userRepo, resetRepo, sessionRepo, notifyService, cfg)
	volunteerService := services.NewVolunteerService(volunteerRepo, userRepo, notifyService)
	taskService := services.NewTaskService(taskRepo, userRepo, notifyService)
	userService := services.NewUserService(userRepo)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler()
	authHandler := handlers.NewAuthHandler(authService, recoveryService, cfg)
	volunteerHandler := handlers.NewVolunteerHandler(volunteerService)
	taskHandler := handlers.NewTaskHandler(taskService)
	userHandler := handlers.NewUserHandler(userService)

	// Health check & root routes
	app.Get("/", healthHandler.Root)
	app.Get("/health", healthHandler.HealthCheck)

	// API v1 group
	apiV1 := app.Group("/api/v1")
	setupAPIV1Routes(apiV1, authHandler, volunteerHandler, taskHandler, userHandler, authService)
}

// setupAPIV1Routes configures API v1 routes
func setupAPIV1Routes(
	router fiber.Router,
	authHandler *handlers.AuthHandler,
	volunteerHandler *handlers.VolunteerHandler,
	taskHandler *handlers.TaskHandler,
	userHandler *handlers.UserHandler,
	authService *services.AuthService,
) {
	requireAuth := middleware.AuthMiddleware(authService)

	// Auth routes
	auth := router.Group("/auth")
	auth.Post("/login", middleware.AuthRateLimiter(), authHandler.Login)
	auth.Get("/logout", authHandler.Logout)
	auth.Get("/me", requireAuth, authHandler.Me)
	auth.Post("/change-password", requireAuth, authHandler.ChangePassword)

	// Password recovery (public, strictly rate limited)
	auth.Post("/forgot-password", middleware.StrictRateLimiter(), authHandler.ForgotPassword)
	auth.Post("/verify-otp", middleware.StrictRateLimiter(), authHandler.VerifyOTP)
	auth.Post("/reset-password", middleware.StrictRateLimiter(), authHandler.ResetPassword)

	// Volunteer application routes
	manageVolunteers := middleware.RequirePermission(domain.PermManageVolunteers)
	volunteers := router.Group("/volunteers")
	volunteers.Post("/apply", middleware.AuthRateLimiter(), volunteerHandler.Apply) // public
	volunteers.Get("/pending", requireAuth, manageVolunteers, volunteerHandler.Pending)
	volunteers.Get("/", requireAuth, manageVolunteers, volunteerHandler.List)
	volunteers.Post("/invite", requireAuth, manageVolunteers, volunteerHandler.Invite)
	volunteers.Post("/:id/approve", requireAuth, manageVolunteers, volunteerHandler.Approve)
	volunteers.Post("/:id/reject", requireAuth, manageVolunteers, volunteerHandler.Reject)
	volunteers.Post("/:id/complete", requireAuth, manageVolunteers, volunteerHandler.Complete)
	volunteers.Delete("/:id", requireAuth, manageVolunteers, volunteerHandler.Delete)

	// Task routes
	tasks := router.Group("/tasks", requireAuth)
	tasks.Get("/", taskHandler.List)
	tasks.Post("/", taskHandler.Create)
	tasks.Get("/:id", taskHandler.Get)
	tasks.Put("/:id", taskHandler.Update)
	tasks.Delete("/:id", taskHandler.Delete)

	// User routes
	router.Get("/user/permissions", requireAuth, userHandler.GetPermissions)
	users := router.Group("/users", requireAuth)
	users.Get("/", userHandler.List)
	users.Put("/profile", userHandler.UpdateProfile)
	users.Put("/:id/permissions", middleware.RequireRole(domain.RoleSuperadmin), userHandler.SetPermissions)
	users.Delete("/:id", middleware.RequireRole(domain.RoleSuperadmin, domain.RoleDeveloper), userHandler.Deactivate)
}
