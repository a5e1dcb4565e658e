package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/mdmeraj-dev/skillnestx.com-sub001/handlers"
	admin_handlers "github.com/mdmeraj-dev/skillnestx.com-sub001/handlers/admin"
	auth_handlers "github.com/mdmeraj-dev/skillnestx.com-sub001/handlers/auth"
	course_handlers "github.com/mdmeraj-dev/skillnestx.com-sub001/handlers/course"
	learning_handlers "github.com/mdmeraj-dev/skillnestx.com-sub001/handlers/learning"
	payment_handlers "github.com/mdmeraj-dev/skillnestx.com-sub001/handlers/payment"
	subscription_handlers "github.com/mdmeraj-dev/skillnestx.com-sub001/handlers/subscription"
	transaction_handlers "github.com/mdmeraj-dev/skillnestx.com-sub001/handlers/transaction"
	"github.com/mdmeraj-dev/skillnestx.com-sub001/utils/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handlers groups every HTTP handler the router mounts
type Handlers struct {
	Health       *handlers.HealthHandler
	Auth         *auth_handlers.AuthHandler
	Payment      *payment_handlers.PaymentHandler
	Transaction  *transaction_handlers.TransactionHandler
	Course       *course_handlers.CourseHandler
	Subscription *subscription_handlers.PlanHandler
	Learning     *learning_handlers.LearningHandler
	Admin        *admin_handlers.AdminHandler
}

// Middleware holds the shared request guards
type Middleware struct {
	Auth       *middleware.AuthMiddleware
	BruteForce *middleware.BruteForceProtection
	Security   middleware.SecurityConfig
}

func SetupRoutes(app *fiber.App, mw Middleware, h Handlers) {
	middleware.SetupSecurity(app, mw.Security)

	// Health and metrics (public)
	app.Get("/health", h.Health.Check)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := app.Group("/api")
	requireUser := mw.Auth.Required()
	requireAdmin := mw.Auth.RequireAdmin()

	// Auth routes
	authGroup := api.Group("/auth")
	authGroup.Post("/register", h.Auth.Register)
	if mw.BruteForce != nil {
		authGroup.Post("/login", mw.BruteForce.CheckLockout(), h.Auth.Login)
	} else {
		authGroup.Post("/login", h.Auth.Login)
	}
	authGroup.Post("/refresh", h.Auth.RefreshToken)
	authGroup.Post("/forgot-password", h.Auth.ForgotPassword)
	authGroup.Post("/reset-password", h.Auth.ResetPassword)
	authGroup.Post("/logout", requireUser, h.Auth.Logout)
	authGroup.Get("/profile", requireUser, h.Auth.GetProfile)

	// Checkout
	payment := api.Group("/payment", requireUser)
	payment.Post("/create-order", h.Payment.CreateOrder)
	payment.Post("/verify-payment", h.Payment.VerifyPayment)

	// Transactions, refunds and the gateway webhook
	transactions := api.Group("/transactions")
	transactions.Post("/razorpay-refund-webhook", h.Transaction.Webhook) // Gateway: signature checked in service
	transactions.Get("/user", requireUser, h.Transaction.UserTransactions)
	transactions.Post("/refund/request", requireAdmin, h.Transaction.RequestRefund)
	transactions.Post("/revoke", requireAdmin, h.Transaction.Revoke)
	transactions.Get("/details/:paymentId", requireAdmin, h.Transaction.Details)
	transactions.Get("/", requireAdmin, h.Transaction.List)

	// Course catalog
	courses := api.Group("/courses")
	courses.Get("/", h.Course.ListCourses)                      // Public
	courses.Get("/:id", h.Course.GetCourse)                     // Public
	courses.Post("/", requireAdmin, h.Course.CreateCourse)      // Admin only
	courses.Put("/:id", requireAdmin, h.Course.UpdateCourse)    // Admin only
	courses.Delete("/:id", requireAdmin, h.Course.DeleteCourse) // Admin only

	// Subscription plans
	plans := api.Group("/subscriptions")
	plans.Get("/", h.Subscription.ListPlans)                      // Public
	plans.Get("/:id", h.Subscription.GetPlan)                     // Public
	plans.Post("/", requireAdmin, h.Subscription.CreatePlan)      // Admin only
	plans.Put("/:id", requireAdmin, h.Subscription.UpdatePlan)    // Admin only
	plans.Delete("/:id", requireAdmin, h.Subscription.DeletePlan) // Admin only

	// Learning
	saved := api.Group("/saved-courses", requireUser)
	saved.Get("/", h.Learning.ListSaved)
	saved.Post("/:courseId", h.Learning.ToggleSaved)

	progress := api.Group("/progress", requireUser)
	progress.Get("/:courseId", h.Learning.GetProgress)
	progress.Post("/:courseId/lessons", h.Learning.CompleteLesson)

	// Admin panel
	admin := api.Group("/admin", requireAdmin)
	admin.Get("/users", h.Admin.ListUsers)
	admin.Put("/users/:id/ban", h.Admin.SetBanned)
	admin.Get("/audit-logs", h.Admin.ListAuditLogs)
}
