package main

import (
	"fmt"
	"os"

	"github.com/labstack/echo/v4"

	"ledger-service/internal/auth"
	"ledger-service/internal/directory"
	"ledger-service/internal/events"
	eventskafka "ledger-service/internal/events/kafka"
	"ledger-service/internal/handler"
	"ledger-service/internal/ledger"
	"ledger-service/internal/middleware"
	"ledger-service/internal/model"
	"ledger-service/internal/valuation"
	"ledger-service/pkg/config"
	"ledger-service/pkg/database"
	"ledger-service/pkg/jwtutil"
	"ledger-service/pkg/logger"
	"ledger-service/prometheus"
)

func main() {
	// Load configuration
	conf, err := config.Load("ledger")
	if err != nil {
		fmt.Printf("Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	err = logger.InitLogger(&logger.LogConfig{
		Level:       conf.Log.Level,
		Environment: conf.Server.Env,
		ServiceName: conf.ServiceName,
	})
	if err != nil {
		fmt.Printf("Error initializing logger: %v\n", err)
		os.Exit(1)
	}
	log := logger.GetLogger()

	// Initialize database connection
	db, err := database.InitDB(&conf.DB)
	if err != nil {
		log.Fatal("Failed to initialize database")
	}

	// Run migrations
	if err := database.MigrateModels(db,
		&model.User{},
		&model.Property{},
		&model.Unit{},
		&model.Tenant{},
		&model.OwnershipCreditTransaction{},
		&model.ValuationSnapshot{},
		&model.ValuationJob{},
	); err != nil {
		log.Fatal("Failed to migrate database models")
	}

	// Initialize JWT utility
	jwt := jwtutil.NewJWTUtil(&jwtutil.JWTConfig{
		SigningKey:      conf.JWT.SigningKey,
		ExpirationHours: conf.JWT.ExpirationHours,
	})

	// Initialize HTTP metrics
	httpMetrics := prometheus.NewHTTPMetrics(conf.ServiceName)

	// Optional transaction event publisher
	var publisher events.Publisher = events.NopPublisher{}
	if conf.Kafka.Enabled() {
		publisher = eventskafka.NewPublisher(conf.Kafka.Brokers, conf.Kafka.Topic)
		log.Info("Kafka transaction event publisher enabled")
	}

	// Wire stores and services
	dir := directory.NewGormDirectory(db)
	ledgerStore := ledger.NewGormStore(db)
	ledgerService := ledger.NewService(ledgerStore, dir, publisher, log)
	jobQueue := valuation.NewGormQueue(db, valuation.QueueConfig{
		MaxAttempts:   conf.Queue.MaxAttempts,
		BackoffBase:   conf.Queue.BackoffBase,
		LeaseTimeout:  conf.Queue.LeaseTimeout,
		KeepCompleted: conf.Queue.KeepCompleted,
		KeepFailed:    conf.Queue.KeepFailed,
	})
	snapshotStore := valuation.NewGormSnapshotStore(db)

	authHandler := handler.NewAuthHandler(db, jwt)
	propertyHandler := handler.NewPropertyHandler(db)
	unitHandler := handler.NewUnitHandler(db)
	tenantHandler := handler.NewTenantHandler(db)
	ledgerHandler := handler.NewLedgerHandler(ledgerService)
	valuationHandler := handler.NewValuationHandler(jobQueue, snapshotStore, dir)

	// Initialize Echo framework
	e := echo.New()
	e.HideBanner = true

	// Apply middleware
	e.Use(middleware.RequestIDMiddleware())
	e.Use(logger.Middleware())
	e.Use(httpMetrics.Middleware())

	// Public routes
	e.GET("/health", handler.Health)
	e.GET("/metrics", echo.WrapHandler(prometheus.GetPrometheusHandler()))
	e.POST("/auth/register", authHandler.Register)
	e.POST("/auth/login", authHandler.Login)

	// Secured routes
	api := e.Group("/api/v1")
	api.Use(middleware.JWTAuthMiddleware(jwt))

	api.GET("/auth/me", authHandler.Me)

	manage := middleware.RequireRole(auth.RoleLandlord, auth.RoleAdmin)

	api.POST("/properties", propertyHandler.Create, manage)
	api.GET("/properties", propertyHandler.List)
	api.GET("/properties/:id", propertyHandler.Get)
	api.PUT("/properties/:id", propertyHandler.Update, manage)
	api.DELETE("/properties/:id", propertyHandler.Delete, manage)

	api.POST("/properties/:id/units", unitHandler.Create, manage)
	api.GET("/properties/:id/units", unitHandler.ListByProperty)
	api.GET("/units/:id", unitHandler.Get)
	api.PUT("/units/:id", unitHandler.Update, manage)
	api.DELETE("/units/:id", unitHandler.Delete, manage)

	api.POST("/units/:id/tenants", tenantHandler.Create, manage)
	api.GET("/tenants", tenantHandler.List, manage)
	api.GET("/tenants/me", tenantHandler.Me)
	api.GET("/tenants/:id", tenantHandler.Get)

	api.POST("/tenants/:id/credits/earn", ledgerHandler.Earn, manage)
	api.POST("/tenants/:id/credits/adjust", ledgerHandler.Adjust, manage)
	api.POST("/tenants/:id/credits/redeem", ledgerHandler.Redeem)
	api.GET("/tenants/:id/ledger", ledgerHandler.GetLedger)
	api.GET("/tenants/:id/balance", ledgerHandler.GetBalance)

	api.POST("/properties/:id/valuation/snapshot", valuationHandler.CreateSnapshot)
	api.GET("/properties/:id/valuation/snapshots", valuationHandler.GetSnapshots)

	// Start server
	log.Info("Starting ledger-service on port " + conf.Server.Port)
	e.Logger.Fatal(e.Start(":" + conf.Server.Port))
}
