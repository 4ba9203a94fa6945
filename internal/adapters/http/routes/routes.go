package routes

import (
	"library-loanhub/internal/adapters/http/handlers"
	"library-loanhub/internal/adapters/http/middleware"
	"library-loanhub/internal/adapters/persistence/repositories"
	"library-loanhub/internal/config"
	"library-loanhub/internal/core/services"
	"library-loanhub/internal/pkg/clock"
	"library-loanhub/internal/pkg/metrics"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

// Services is the wired service layer shared by the HTTP routes and the
// background scheduler
type Services struct {
	Store     *repositories.Store
	Notify    *services.NotifyService
	Copies    *services.CopyRegistry
	Queue     *services.ReservationQueue
	Ledger    *services.LoanLedger
	Fines     *services.FineService
	Cash      *services.CashSessionService
	Auth      *services.AuthService
	Staff     *services.StaffService
	Dashboard *services.DashboardService
}

// NewServices builds every service over db. Operation metrics are
// registered on reg.
func NewServices(db *gorm.DB, cfg *config.Config, clk clock.Clock, reg prometheus.Registerer) *Services {
	store := repositories.NewStore(db)
	recorder := metrics.NewRecorder(reg)
	policy := cfg.Circulation

	notify := services.NewNotifyService()
	copies := services.NewCopyRegistry(store, recorder)
	queue := services.NewReservationQueue(store, clk, policy, copies, notify, recorder)

	return &Services{
		Store:     store,
		Notify:    notify,
		Copies:    copies,
		Queue:     queue,
		Ledger:    services.NewLoanLedger(store, clk, policy, copies, queue, notify, recorder),
		Fines:     services.NewFineService(store, recorder),
		Cash:      services.NewCashSessionService(store, clk, recorder),
		Auth:      services.NewAuthService(store.Users, cfg),
		Staff:     services.NewStaffService(store.Users),
		Dashboard: services.NewDashboardService(store, clk),
	}
}

// Setup configures all routes for the application
func Setup(app *fiber.App, svc *Services, cfg *config.Config, gatherer prometheus.Gatherer, ping func() error) {
	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(cfg.AppMode, ping)
	authHandler := handlers.NewAuthHandler(svc.Auth, cfg)
	copyHandler := handlers.NewCopyHandler(svc.Copies)
	loanHandler := handlers.NewLoanHandler(svc.Ledger)
	reservationHandler := handlers.NewReservationHandler(svc.Queue)
	fineHandler := handlers.NewFineHandler(svc.Fines)
	cashHandler := handlers.NewCashHandler(svc.Cash)
	eventsHandler := handlers.NewEventsHandler(svc.Notify)
	dashboardHandler := handlers.NewDashboardHandler(svc.Dashboard)
	staffHandler := handlers.NewStaffHandler(svc.Staff)

	// Health check, metrics & docs
	app.Get("/", healthHandler.Root)
	app.Get("/health", healthHandler.HealthCheck)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	app.Get("/swagger/*", swagger.HandlerDefault)

	// API v1 group
	apiV1 := app.Group("/api/v1", middleware.NoCacheHeaders())
	apiV1.Get("/", healthHandler.APIInfo)

	// Auth routes
	authRoutes := apiV1.Group("/auth")
	authRoutes.Post("/login", middleware.AuthRateLimiter(), authHandler.Login)
	authRoutes.Post("/logout", authHandler.Logout)
	authRoutes.Get("/me", middleware.AuthMiddleware(cfg), authHandler.Me)
	authRoutes.Put("/password", middleware.AuthMiddleware(cfg), staffHandler.ChangePassword)

	auth := middleware.AuthMiddleware(cfg)

	// Event streams. Title availability is public; a patron's stream is staff only.
	eventRoutes := apiV1.Group("/events")
	eventRoutes.Get("/books/:id", eventsHandler.BookEvents)
	eventRoutes.Get("/clients/:id", auth, eventsHandler.ClientEvents)

	// Staff routes
	setupCopyRoutes(apiV1.Group("/copies", auth), copyHandler)
	setupBookRoutes(apiV1.Group("/books", auth), copyHandler, reservationHandler)
	setupLoanRoutes(apiV1.Group("/loans", auth), loanHandler)
	setupReservationRoutes(apiV1.Group("/reservations", auth), reservationHandler)
	setupClientRoutes(apiV1.Group("/clients", auth), loanHandler, reservationHandler, fineHandler)
	setupFineRoutes(apiV1.Group("/fines", auth), fineHandler)
	setupCashRoutes(apiV1.Group("/cash", auth, middleware.CashierOrAdmin()), cashHandler)

	setupStaffRoutes(apiV1.Group("/staff", auth, middleware.AdminOnly()), staffHandler)

	dashboardRoutes := apiV1.Group("/dashboard", auth)
	dashboardRoutes.Get("/circulation", middleware.LibrarianOrAdmin(), dashboardHandler.GetCirculationDashboard)
}

// setupCopyRoutes configures copy lookups and condition changes
func setupCopyRoutes(router fiber.Router, handler *handlers.CopyHandler) {
	router.Get("/barcode/:barcode", handler.FindByBarcode)
	router.Put("/:id/condition", middleware.AdminOnly(), handler.SetCondition)
	router.Put("/:id/active", middleware.AdminOnly(), handler.SetActive)
}

// setupBookRoutes configures per-title views
func setupBookRoutes(router fiber.Router, copies *handlers.CopyHandler, reservations *handlers.ReservationHandler) {
	router.Get("/:id/copies/loanable", copies.FindLoanable)
	router.Get("/:id/reservations", reservations.ListPending)
	router.Put("/:id/active", middleware.AdminOnly(), copies.SetBookActive)
}

// setupLoanRoutes configures the lending desk
func setupLoanRoutes(router fiber.Router, handler *handlers.LoanHandler) {
	// Read-only (any staff)
	router.Get("/overdue", handler.ListOverdue)
	router.Get("/:id", handler.GetLoan)

	// Librarian/Admin
	desk := router.Group("", middleware.LibrarianOrAdmin())
	desk.Post("/", handler.CreateLoan)
	desk.Post("/return-by-barcode", handler.ReturnByBarcode)
	desk.Post("/:id/renew", handler.RenewLoan)
	desk.Post("/:id/return", handler.ReturnLoan)
}

// setupReservationRoutes configures the waiting queues
func setupReservationRoutes(router fiber.Router, handler *handlers.ReservationHandler) {
	router.Get("/:id", handler.GetReservation)
	router.Post("/", middleware.LibrarianOrAdmin(), handler.Enqueue)
	router.Delete("/:id", middleware.LibrarianOrAdmin(), handler.Cancel)
}

// setupClientRoutes configures per-patron views
func setupClientRoutes(router fiber.Router, loans *handlers.LoanHandler, reservations *handlers.ReservationHandler, fines *handlers.FineHandler) {
	router.Get("/:id/loans", loans.ListClientLoans)
	router.Get("/:id/reservations", reservations.ListClientReservations)
	router.Get("/:id/fines", fines.ListClientFines)
}

// setupFineRoutes configures fine lookups and exoneration
func setupFineRoutes(router fiber.Router, handler *handlers.FineHandler) {
	router.Get("/:id", handler.GetFine)
	router.Post("/:id/exonerate", middleware.AdminOnly(), handler.Exonerate)
}

// setupCashRoutes configures the fines desk (Cashier/Admin)
func setupCashRoutes(router fiber.Router, handler *handlers.CashHandler) {
	router.Post("/sessions", handler.OpenSession)
	router.Get("/sessions/current", handler.CurrentSession)
	router.Get("/sessions/:id", handler.GetSession)
	router.Post("/sessions/:id/payments", handler.PayFine)
	router.Post("/sessions/:id/close", handler.CloseSession)
}

// setupStaffRoutes configures staff account management (Admin only)
func setupStaffRoutes(router fiber.Router, handler *handlers.StaffHandler) {
	router.Get("/", handler.ListStaff)
	router.Post("/", handler.CreateStaff)
	router.Get("/:id", handler.GetStaff)
	router.Put("/:id", handler.UpdateStaff)
}
