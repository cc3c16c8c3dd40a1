package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	costingapp "github.com/kardexhq/backend/internal/application/costing"
	inventoryapp "github.com/kardexhq/backend/internal/application/inventory"
	purchasingapp "github.com/kardexhq/backend/internal/application/purchasing"
	salesapp "github.com/kardexhq/backend/internal/application/sales"
	"github.com/kardexhq/backend/internal/domain/shared"
	"github.com/kardexhq/backend/internal/infrastructure/cache"
	"github.com/kardexhq/backend/internal/infrastructure/config"
	"github.com/kardexhq/backend/internal/infrastructure/event"
	"github.com/kardexhq/backend/internal/infrastructure/logger"
	"github.com/kardexhq/backend/internal/infrastructure/persistence"
	"github.com/kardexhq/backend/internal/infrastructure/scheduler"
	"github.com/kardexhq/backend/internal/infrastructure/storage"
	"github.com/kardexhq/backend/internal/infrastructure/telemetry"
	"github.com/kardexhq/backend/internal/interfaces/http/handler"
	"github.com/kardexhq/backend/internal/interfaces/http/middleware"
	"github.com/kardexhq/backend/internal/interfaces/http/router"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting Kardex Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Initialize telemetry providers (no-op when disabled)
	tracerProvider, err := telemetry.NewTracerProvider(context.Background(), telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracerProvider.Shutdown(ctx); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	meterProvider, err := telemetry.NewMeterProvider(context.Background(), telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := meterProvider.Shutdown(ctx); err != nil {
			log.Error("Error shutting down meter provider", zap.Error(err))
		}
	}()

	// Database query tracing and pool metrics
	if cfg.Telemetry.DBTraceEnabled {
		dbTracing := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
			Enabled:         true,
			LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
			SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
		}, log)
		if err := dbTracing.RegisterOtelGorm(db.DB); err != nil {
			log.Warn("Failed to register database tracing", zap.Error(err))
		}
	}
	if cfg.Telemetry.Enabled {
		if _, err := telemetry.RegisterDBMetrics(db.DB, meterProvider, telemetry.DefaultDBMetricsConfig(), log); err != nil {
			log.Warn("Failed to register database metrics", zap.Error(err))
		}
	}

	// Transaction scope: every workflow transition commits its document
	// change and stock side effects atomically through this
	txScope := persistence.NewGormTransactionScope(db.DB)
	recipeRepo := persistence.NewGormRecipeRepository(db.DB)

	// Document number sequencer: Redis INCR keeps numbers unique across
	// instances; a single-node deployment can run on the in-memory one
	redisClient := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	var sequencer shared.DocumentNumberSequencer
	pingCtx, cancelPing := context.WithTimeout(context.Background(), 3*time.Second)
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		log.Warn("Redis unavailable, falling back to in-memory document numbers", zap.Error(err))
		sequencer = cache.NewInMemoryDocumentNumberSequencer(cfg.Document.Prefixes)
	} else {
		sequencer = cache.NewRedisDocumentNumberSequencer(redisClient, cfg.Document.Prefixes)
		log.Info("Document numbers backed by Redis",
			zap.String("addr", fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port)),
		)
	}
	cancelPing()

	// Attachment storage for adjustment supporting documents
	var attachments inventoryapp.AttachmentStore
	if cfg.Storage.Provider == "s3" {
		s3Store, err := storage.NewS3AttachmentStorage(&cfg.Storage)
		if err != nil {
			log.Fatal("Failed to initialize S3 attachment storage", zap.Error(err))
		}
		attachments = s3Store
		log.Info("Attachment storage ready",
			zap.String("provider", "s3"),
			zap.String("bucket", cfg.Storage.Bucket),
		)
	} else {
		attachments = storage.NewStubAttachmentStorage()
	}

	// Initialize application services
	stockService := inventoryapp.NewStockService(txScope)
	movementService := inventoryapp.NewMovementService(txScope)
	reservationService := inventoryapp.NewReservationService(txScope)
	reservationService.SetDefaultTTL(cfg.Reservation.DefaultTTL)
	adjustmentService := inventoryapp.NewAdjustmentService(txScope, sequencer)
	adjustmentService.SetAttachmentStore(attachments)
	transferService := inventoryapp.NewTransferService(txScope, sequencer)
	saleService := salesapp.NewSaleService(txScope, sequencer)
	creditNoteService := salesapp.NewCreditNoteService(txScope, sequencer)
	purchaseOrderService := purchasingapp.NewPurchaseOrderService(txScope, sequencer)
	goodsReceiptService := purchasingapp.NewGoodsReceiptService(txScope, sequencer)
	recipeService := costingapp.NewRecipeService(recipeRepo, txScope)

	// Initialize event bus and handlers
	eventBus := event.NewInMemoryEventBus(log)

	// Low stock alerts are delivered at most once per event even when a
	// retried transition publishes twice
	idemFactory := cache.NewIdempotencyStoreFactory(cfg.Redis, cache.WithLogger(log))
	idemStore, err := idemFactory.CreateStore()
	if err != nil {
		log.Fatal("Failed to create idempotency store", zap.Error(err))
	}
	lowStockHandler := event.NewIdempotentHandler(event.NewLowStockAlertHandler(log), idemStore, log)
	eventBus.Subscribe(lowStockHandler)

	log.Info("Event handlers registered",
		zap.Strings("low_stock_events", lowStockHandler.EventTypes()),
	)

	if err := eventBus.Start(context.Background()); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	// Inject event bus into services that publish domain events
	stockService.SetEventPublisher(eventBus)
	reservationService.SetEventPublisher(eventBus)
	adjustmentService.SetEventPublisher(eventBus)
	transferService.SetEventPublisher(eventBus)
	saleService.SetEventPublisher(eventBus)
	creditNoteService.SetEventPublisher(eventBus)
	purchaseOrderService.SetEventPublisher(eventBus)
	goodsReceiptService.SetEventPublisher(eventBus)

	// Reservation sweeper: expires overdue holds in the background
	sweeper := scheduler.NewReservationSweeper(reservationService, log, scheduler.ReservationSweeperConfig{
		Enabled:  cfg.Reservation.SweeperEnabled,
		Interval: cfg.Reservation.SweepInterval,
	})
	if err := sweeper.Start(context.Background()); err != nil {
		log.Fatal("Failed to start reservation sweeper", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := sweeper.Stop(ctx); err != nil {
			log.Error("Error stopping reservation sweeper", zap.Error(err))
		}
	}()

	// Periodic business metrics: reserved quantity and low stock gauges
	// per active store
	if cfg.Telemetry.Enabled {
		businessMetrics, err := telemetry.NewBusinessMetrics(telemetry.BusinessMetricsConfig{
			Meter:             meterProvider.Meter(cfg.Telemetry.ServiceName),
			Logger:            log,
			InventoryProvider: telemetry.NewGormInventoryMetricsProvider(db.DB),
		})
		if err != nil {
			log.Warn("Failed to initialize business metrics", zap.Error(err))
		} else {
			businessMetrics.StartPeriodicCollection(
				context.Background(),
				telemetry.NewGormStoreProvider(db.DB),
				5*time.Minute,
			)
			defer businessMetrics.Stop()
		}
	}

	// Initialize HTTP handlers
	stockHandler := handler.NewStockHandler(stockService)
	movementHandler := handler.NewMovementHandler(movementService)
	reservationHandler := handler.NewReservationHandler(reservationService)
	adjustmentHandler := handler.NewAdjustmentHandler(adjustmentService)
	transferHandler := handler.NewTransferHandler(transferService)
	saleHandler := handler.NewSaleHandler(saleService, creditNoteService)
	creditNoteHandler := handler.NewCreditNoteHandler(creditNoteService)
	purchaseOrderHandler := handler.NewPurchaseOrderHandler(purchaseOrderService, goodsReceiptService)
	goodsReceiptHandler := handler.NewGoodsReceiptHandler(goodsReceiptService)
	recipeHandler := handler.NewRecipeHandler(recipeService)
	systemHandler := handler.NewSystemHandler()

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup validation
	middleware.SetupValidator()

	// Initialize router with custom middleware
	engine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())

	// Configure CORS from config
	corsConfig := middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	// Body size limit
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	// Tracing, metrics and profiling labels per request
	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     cfg.Telemetry.Enabled,
	}))
	engine.Use(middleware.TracingAttributeInjector())
	engine.Use(middleware.HTTPMetrics(middleware.HTTPMetricsConfig{
		MeterProvider: meterProvider,
		ServiceName:   cfg.Telemetry.ServiceName,
		Enabled:       cfg.Telemetry.Enabled,
	}))
	engine.Use(middleware.ProfilingWithConfig(middleware.DefaultProfilingConfig()))

	// Rate limiting (if enabled)
	if cfg.HTTP.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		engine.Use(middleware.RateLimit(rateLimiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	// Health check endpoint (outside API versioning)
	engine.GET("/health", healthHandler(db, log))

	// Setup API routes using router
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))

	// Stock lines: per-product quantity, holds and weighted-average cost
	stockRoutes := router.NewDomainGroup("stock-lines", "/stock-lines")
	stockRoutes.POST("", stockHandler.Create)
	stockRoutes.GET("", stockHandler.List)
	stockRoutes.GET("/lookup", stockHandler.GetByRef)
	stockRoutes.GET("/low-stock", stockHandler.ListLowStock)
	stockRoutes.GET("/valuation", stockHandler.Valuation)
	stockRoutes.POST("/initialize", stockHandler.Initialize)
	stockRoutes.GET("/:id", stockHandler.Get)
	stockRoutes.PATCH("/:id/levels", stockHandler.SetLevels)
	stockRoutes.POST("/:id/adjust", stockHandler.Adjust)
	stockRoutes.GET("/:id/movements", movementHandler.ListByStockLine)
	stockRoutes.GET("/:id/ledger", movementHandler.VerifyLedger)

	// Movement ledger queries by source document
	movementRoutes := router.NewDomainGroup("movements", "/movements")
	movementRoutes.GET("", movementHandler.ListByReference)

	// Reservations: TTL holds on stock lines
	reservationRoutes := router.NewDomainGroup("reservations", "/reservations")
	reservationRoutes.POST("", reservationHandler.Create)
	reservationRoutes.GET("/:id", reservationHandler.Get)
	reservationRoutes.POST("/:id/confirm", reservationHandler.Confirm)
	reservationRoutes.POST("/:id/cancel", reservationHandler.Cancel)

	// Stock adjustments: draft -> submitted -> approved -> applied
	adjustmentRoutes := router.NewDomainGroup("adjustments", "/adjustments")
	adjustmentRoutes.POST("", adjustmentHandler.Create)
	adjustmentRoutes.GET("", adjustmentHandler.List)
	adjustmentRoutes.GET("/:id", adjustmentHandler.Get)
	adjustmentRoutes.POST("/:id/lines", adjustmentHandler.AddLine)
	adjustmentRoutes.POST("/:id/attachments", adjustmentHandler.AttachDocument)
	adjustmentRoutes.POST("/:id/submit", adjustmentHandler.Submit)
	adjustmentRoutes.POST("/:id/approve", adjustmentHandler.Approve)
	adjustmentRoutes.POST("/:id/apply", adjustmentHandler.Apply)
	adjustmentRoutes.POST("/:id/reject", adjustmentHandler.Reject)

	// Transfers between stores
	transferRoutes := router.NewDomainGroup("transfers", "/transfers")
	transferRoutes.POST("", transferHandler.Create)
	transferRoutes.GET("", transferHandler.List)
	transferRoutes.GET("/:id", transferHandler.Get)
	transferRoutes.POST("/:id/lines", transferHandler.AddLine)
	transferRoutes.POST("/:id/submit", transferHandler.Submit)
	transferRoutes.POST("/:id/ship", transferHandler.Ship)
	transferRoutes.POST("/:id/receive", transferHandler.Receive)
	transferRoutes.POST("/:id/cancel", transferHandler.Cancel)

	// Sales: draft lines place holds, completion consumes them
	salesRoutes := router.NewDomainGroup("sales", "/sales")
	salesRoutes.POST("", saleHandler.Create)
	salesRoutes.GET("", saleHandler.List)
	salesRoutes.GET("/:id", saleHandler.Get)
	salesRoutes.POST("/:id/lines", saleHandler.AddLine)
	salesRoutes.DELETE("/:id/lines/:line_id", saleHandler.RemoveLine)
	salesRoutes.POST("/:id/complete", saleHandler.Complete)
	salesRoutes.POST("/:id/void", saleHandler.Void)
	salesRoutes.POST("/:id/credit-notes", saleHandler.CreateCreditNote)
	salesRoutes.GET("/:id/credit-notes", saleHandler.ListCreditNotes)

	// Credit notes: returns against completed sales
	creditNoteRoutes := router.NewDomainGroup("credit-notes", "/credit-notes")
	creditNoteRoutes.GET("/:id", creditNoteHandler.Get)
	creditNoteRoutes.POST("/:id/lines", creditNoteHandler.AddLine)
	creditNoteRoutes.POST("/:id/submit", creditNoteHandler.Submit)
	creditNoteRoutes.POST("/:id/approve", creditNoteHandler.Approve)
	creditNoteRoutes.POST("/:id/apply", creditNoteHandler.Apply)
	creditNoteRoutes.POST("/:id/cancel", creditNoteHandler.Cancel)

	// Purchase orders and their goods receipts
	purchaseOrderRoutes := router.NewDomainGroup("purchase-orders", "/purchase-orders")
	purchaseOrderRoutes.POST("", purchaseOrderHandler.Create)
	purchaseOrderRoutes.GET("", purchaseOrderHandler.List)
	purchaseOrderRoutes.GET("/:id", purchaseOrderHandler.Get)
	purchaseOrderRoutes.POST("/:id/lines", purchaseOrderHandler.AddLine)
	purchaseOrderRoutes.DELETE("/:id/lines/:line_id", purchaseOrderHandler.RemoveLine)
	purchaseOrderRoutes.POST("/:id/submit", purchaseOrderHandler.Submit)
	purchaseOrderRoutes.POST("/:id/approve", purchaseOrderHandler.Approve)
	purchaseOrderRoutes.POST("/:id/close", purchaseOrderHandler.Close)
	purchaseOrderRoutes.POST("/:id/reject", purchaseOrderHandler.Reject)
	purchaseOrderRoutes.POST("/:id/cancel", purchaseOrderHandler.Cancel)
	purchaseOrderRoutes.POST("/:id/receipts", purchaseOrderHandler.CreateReceipt)
	purchaseOrderRoutes.GET("/:id/receipts", purchaseOrderHandler.ListReceipts)

	goodsReceiptRoutes := router.NewDomainGroup("goods-receipts", "/goods-receipts")
	goodsReceiptRoutes.GET("/:id", goodsReceiptHandler.Get)
	goodsReceiptRoutes.POST("/:id/lines", goodsReceiptHandler.AddLine)
	goodsReceiptRoutes.POST("/:id/confirm", goodsReceiptHandler.Confirm)
	goodsReceiptRoutes.POST("/:id/cancel", goodsReceiptHandler.Cancel)

	// Recipes and cost rollups
	recipeRoutes := router.NewDomainGroup("recipes", "/recipes")
	recipeRoutes.POST("", recipeHandler.Create)
	recipeRoutes.GET("", recipeHandler.ListByRef)
	recipeRoutes.GET("/cost", recipeHandler.ComputeCostForRef)
	recipeRoutes.GET("/:id", recipeHandler.Get)
	recipeRoutes.POST("/:id/ingredients", recipeHandler.AddIngredient)
	recipeRoutes.DELETE("/:id/ingredients/:line_id", recipeHandler.RemoveIngredient)
	recipeRoutes.POST("/:id/ingredients/:line_id/substitutes", recipeHandler.AddSubstitute)
	recipeRoutes.POST("/:id/activate", recipeHandler.Activate)
	recipeRoutes.POST("/:id/deactivate", recipeHandler.Deactivate)
	recipeRoutes.GET("/:id/cost", recipeHandler.ComputeCost)

	systemRoutes := router.NewDomainGroup("system", "/system")
	systemRoutes.GET("/info", systemHandler.GetSystemInfo)
	systemRoutes.GET("/ping", systemHandler.Ping)

	r.Register(stockRoutes).
		Register(movementRoutes).
		Register(reservationRoutes).
		Register(adjustmentRoutes).
		Register(transferRoutes).
		Register(salesRoutes).
		Register(creditNoteRoutes).
		Register(purchaseOrderRoutes).
		Register(goodsReceiptRoutes).
		Register(recipeRoutes).
		Register(systemRoutes)

	// Setup routes
	r.Setup()

	// Also keep a simple ping at root API level for basic health checks
	engine.GET("/api/v1/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// healthHandler returns a handler for health check endpoints
func healthHandler(db *persistence.Database, _ *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqLog := logger.GetGinLogger(c)
		if err := db.Ping(); err != nil {
			reqLog.Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"time":     time.Now().Format(time.RFC3339),
				"database": "error",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
		})
	}
}
