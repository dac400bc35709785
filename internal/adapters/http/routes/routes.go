package routes

import (
	"time"

	"github.com/Taistois/mims/internal/adapters/http/handlers"
	"github.com/Taistois/mims/internal/adapters/http/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
)

// Setup wires services, handlers and routes onto app and returns the container
func Setup(app *fiber.App, d *Deps) *Container {
	c := NewContainer(d)

	healthHandler := handlers.NewHealthHandler(d.DB, d.Config.AppMode)
	authHandler := handlers.NewAuthHandler(c.Auth, c.Users, d.Config, d.Log)
	userHandler := handlers.NewUserHandler(c.Users, d.Log)
	memberHandler := handlers.NewMemberHandler(c.Members, d.Log)
	policyHandler := handlers.NewPolicyHandler(c.Policies, d.Log)
	claimHandler := handlers.NewClaimHandler(c.Claims, d.Log)
	loanHandler := handlers.NewLoanHandler(c.Loans, d.Log)
	paymentHandler := handlers.NewPaymentHandler(c.Payments, d.Log)
	notificationHandler := handlers.NewNotificationHandler(c.Notifications, d.Registry, d.Log)
	reportHandler := handlers.NewReportHandler(c.Reports, d.Log)

	// Health check & root routes
	app.Get("/", healthHandler.Root)
	app.Get("/health", healthHandler.HealthCheck)

	if d.Config.Metrics.Enabled && d.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(d.Metrics.Handler()))
	}

	auth := middleware.AuthMiddleware(c.Auth)

	apiV1 := app.Group("/api/v1")
	apiV1.Get("/", healthHandler.APIInfo)

	setupAuthRoutes(apiV1.Group("/auth", middleware.NoStore()), authHandler, auth)

	users := apiV1.Group("/users", auth, middleware.AdminOnly())
	users.Post("/", userHandler.Register)
	users.Get("/", userHandler.List)
	users.Delete("/:id", userHandler.Delete)

	members := apiV1.Group("/members", auth)
	members.Post("/", memberHandler.Create)
	members.Get("/", memberHandler.List)
	members.Get("/me", memberHandler.Me)
	members.Get("/:id", memberHandler.Get)
	members.Put("/:id", memberHandler.Update)
	members.Delete("/:id", memberHandler.Delete)

	policies := apiV1.Group("/policies", auth)
	policies.Post("/", policyHandler.Create)
	policies.Get("/", policyHandler.List)
	policies.Get("/:id", policyHandler.Get)
	policies.Put("/:id", policyHandler.Update)
	policies.Delete("/:id", policyHandler.Delete)

	claims := apiV1.Group("/claims", auth)
	claims.Post("/", claimHandler.Create)
	claims.Get("/", claimHandler.List)
	claims.Get("/:id", claimHandler.Get)
	claims.Patch("/:id/status", claimHandler.UpdateStatus)
	claims.Put("/:id/status", claimHandler.UpdateStatus)
	claims.Put("/:id", claimHandler.UpdateStatus)

	loans := apiV1.Group("/loans", auth)
	loans.Post("/", loanHandler.Create)
	loans.Get("/", loanHandler.List)
	loans.Get("/:id", loanHandler.Get)
	loans.Patch("/:id/status", loanHandler.UpdateStatus)
	loans.Put("/:id/status", loanHandler.UpdateStatus)
	loans.Delete("/:id", loanHandler.Delete)
	loans.Post("/:id/repayments", loanHandler.RecordRepayment)
	loans.Get("/:id/repayments", loanHandler.ListRepayments)

	repayments := apiV1.Group("/repayments", auth)
	repayments.Post("/", loanHandler.RecordRepaymentByBody)
	repayments.Get("/:loan_id", loanHandler.ListRepaymentsByLoanID)

	payments := apiV1.Group("/payments", auth)
	payments.Post("/", paymentHandler.Create)
	payments.Get("/", paymentHandler.List)
	payments.Get("/:id", paymentHandler.Get)
	payments.Delete("/:id", paymentHandler.Delete)

	notifications := apiV1.Group("/notifications", auth, middleware.NoStore())
	notifications.Post("/", notificationHandler.Create)
	notifications.Get("/", notificationHandler.List)
	notifications.Get("/unread-count", notificationHandler.UnreadCount)
	notifications.Get("/stream", notificationHandler.Stream)
	notifications.Patch("/:id/read", notificationHandler.MarkRead)
	notifications.Put("/:id/read", notificationHandler.MarkRead)
	notifications.Delete("/:id", notificationHandler.Delete)

	reports := apiV1.Group("/reports", auth, middleware.PrivateCache(30*time.Second))
	reports.Get("/summary", middleware.StaffOnly(), reportHandler.Summary)
	reports.Get("/me", reportHandler.Me)

	return c
}

// setupAuthRoutes configures authentication routes
func setupAuthRoutes(router fiber.Router, handler *handlers.AuthHandler, auth fiber.Handler) {
	// Public routes
	router.Post("/login", middleware.AuthRateLimiter(), handler.Login)
	router.Post("/refresh", middleware.AuthRateLimiter(), handler.Refresh)
	router.Post("/logout", handler.Logout)

	// Protected routes
	router.Get("/me", auth, handler.Me)
	router.Post("/logout-all", auth, handler.LogoutAll)
	router.Post("/change-password", auth, handler.ChangePassword)
}
