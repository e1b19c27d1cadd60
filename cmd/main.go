package main

import (
	"datapro-service/internal/handler"
	mid "datapro-service/internal/middleware"
	"datapro-service/internal/model"
	"datapro-service/internal/notify"
	"datapro-service/pkg/config"
	"datapro-service/pkg/database"
	"datapro-service/pkg/jwtutil"
	"datapro-service/pkg/logger"
	"datapro-service/prometheus"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	appConfig, err := config.Load()
	if err != nil {
		// Can't use structured logger yet since it's not initialized
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	logger.InitLogger(appConfig)
	log := logger.GetLogger()
	defer log.Sync()

	log.Info("Starting datapro-service",
		zap.String("environment", appConfig.Server.Env),
		zap.String("port", appConfig.Server.Port))

	// Initialize JWT utility
	jwtutil.Initialize(&appConfig.JWT)
	log.Info("JWT utility initialized")

	// Initialize database
	if err := database.InitDB(appConfig); err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	log.Info("Database connection established")

	if err := database.MigrateModels(
		&model.Client{},
		&model.User{},
		&model.Customer{},
		&model.Passport{},
		&model.PassportExtension{},
		&model.Visa{},
		&model.Vehicle{},
		&model.TransportService{},
		&model.Invoice{},
		&model.InvoiceItem{},
		&model.AuditLog{},
	); err != nil {
		log.Fatal("Failed to migrate models", zap.Error(err))
	}
	log.Info("Database schema migrated")

	// Wire the domain event handlers (emails, vehicle status flips)
	mailer := notify.NewMailer(&appConfig.SMTP)
	notify.RegisterHandlers(database.GetDB(), mailer)
	log.Info("Notification handlers registered")

	// Initialize Echo instance
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(mid.RequestIDMiddleware)
	e.Use(logger.Middleware())
	e.Use(prometheus.MetricsMiddleware())

	// Metrics and health endpoints
	e.GET("/metrics", handler.MetricsHandler)
	e.GET("/health", handler.HealthCheck)

	// Auth
	e.POST("/api/auth/login", handler.Login)
	e.POST("/api/auth/register", handler.Users.Create, mid.AuthMiddleware, mid.RequireSuperAdmin)

	// Clients - tenant management; create/delete are superadmin-only
	clientAPI := e.Group("/api/clients", mid.AuthMiddleware)
	clientAPI.GET("", handler.Clients.List)
	clientAPI.GET("/:id", handler.Clients.Get)
	clientAPI.GET("/:id/stats", handler.ClientStats)
	clientAPI.PUT("/:id", handler.Clients.Update, mid.RequireClientAdmin)
	clientAPI.POST("", handler.Clients.Create, mid.RequireSuperAdmin)
	clientAPI.DELETE("/:id", handler.Clients.Delete, mid.RequireSuperAdmin)

	// Users - admins only
	userAPI := e.Group("/api/users", mid.AuthMiddleware)
	userAPI.GET("", handler.Users.List)
	userAPI.GET("/profile", handler.GetProfile)
	userAPI.POST("/change-password", handler.ChangePassword)
	userAPI.GET("/:id", handler.Users.Get)
	userAPI.POST("", handler.Users.Create, mid.RequireClientAdmin)
	userAPI.PUT("/:id", handler.Users.Update, mid.RequireClientAdmin)
	userAPI.DELETE("/:id", handler.Users.Delete, mid.RequireClientAdmin)

	// Customers
	customerAPI := e.Group("/api/customers", mid.AuthMiddleware)
	customerAPI.GET("", handler.Customers.List)
	customerAPI.GET("/export", handler.ExportCustomers)
	customerAPI.POST("/import", handler.ImportCustomers)
	customerAPI.GET("/:id", handler.Customers.Get)
	customerAPI.POST("", handler.Customers.Create)
	customerAPI.PUT("/:id", handler.Customers.Update)
	customerAPI.DELETE("/:id", handler.Customers.Delete)

	// Passports and extensions
	passportAPI := e.Group("/api/passports", mid.AuthMiddleware)
	passportAPI.GET("", handler.Passports.List)
	passportAPI.GET("/:id", handler.Passports.Get)
	passportAPI.POST("", handler.Passports.Create)
	passportAPI.PUT("/:id", handler.Passports.Update)
	passportAPI.DELETE("/:id", handler.Passports.Delete)

	extensionAPI := e.Group("/api/passport-extensions", mid.AuthMiddleware)
	extensionAPI.GET("", handler.PassportExtensions.List)
	extensionAPI.GET("/:id", handler.PassportExtensions.Get)
	extensionAPI.POST("", handler.PassportExtensions.Create)
	extensionAPI.PUT("/:id", handler.PassportExtensions.Update)
	extensionAPI.DELETE("/:id", handler.PassportExtensions.Delete)
	extensionAPI.POST("/:id/complete", handler.CompleteExtension)

	// Visas
	visaAPI := e.Group("/api/visas", mid.AuthMiddleware)
	visaAPI.GET("", handler.Visas.List)
	visaAPI.GET("/export", handler.ExportVisas)
	visaAPI.POST("/import", handler.ImportVisas)
	visaAPI.GET("/:id", handler.Visas.Get)
	visaAPI.POST("", handler.Visas.Create)
	visaAPI.PUT("/:id", handler.Visas.Update)
	visaAPI.DELETE("/:id", handler.Visas.Delete)

	// Vehicles
	vehicleAPI := e.Group("/api/vehicles", mid.AuthMiddleware)
	vehicleAPI.GET("", handler.Vehicles.List)
	vehicleAPI.GET("/export", handler.ExportVehicles)
	vehicleAPI.POST("/import", handler.ImportVehicles)
	vehicleAPI.GET("/:id", handler.Vehicles.Get)
	vehicleAPI.POST("", handler.Vehicles.Create)
	vehicleAPI.PUT("/:id", handler.Vehicles.Update)
	vehicleAPI.DELETE("/:id", handler.Vehicles.Delete)
	vehicleAPI.POST("/:id/maintenance", handler.SetMaintenance)

	// Transport services
	transportAPI := e.Group("/api/transport-services", mid.AuthMiddleware)
	transportAPI.GET("", handler.Transports.List)
	transportAPI.GET("/active", handler.ActiveTransports)
	transportAPI.GET("/completed", handler.CompletedTransports)
	transportAPI.GET("/:id", handler.Transports.Get)
	transportAPI.POST("", handler.Transports.Create)
	transportAPI.PUT("/:id", handler.Transports.Update)
	transportAPI.DELETE("/:id", handler.Transports.Delete)
	transportAPI.POST("/:id/status", handler.TransportTransition)

	// Invoices
	invoiceAPI := e.Group("/api/invoices", mid.AuthMiddleware)
	invoiceAPI.GET("", handler.Invoices.List)
	invoiceAPI.POST("/overdue-sweep", handler.OverdueSweep)
	invoiceAPI.GET("/:id", handler.Invoices.Get)
	invoiceAPI.POST("", handler.Invoices.Create)
	invoiceAPI.PUT("/:id", handler.Invoices.Update)
	invoiceAPI.DELETE("/:id", handler.Invoices.Delete)
	invoiceAPI.POST("/:id/status", handler.InvoiceTransition)
	invoiceAPI.POST("/:id/mark-paid", handler.MarkInvoicePaid)

	// Audit log - superadmin only, read-only
	e.GET("/api/audit-log", handler.ListAuditLog, mid.AuthMiddleware, mid.RequireSuperAdmin)

	// Start server
	port := appConfig.Server.Port
	log.Info("Starting server", zap.String("port", port))
	if err := e.Start(":" + port); err != nil {
		log.Fatal("Server error", zap.Error(err))
	}
}
