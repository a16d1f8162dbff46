package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appsync "github.com/VrajaTechnologies/vraja-woocommerce/internal/application/sync"
	"github.com/VrajaTechnologies/vraja-woocommerce/internal/domain/queue"
	"github.com/VrajaTechnologies/vraja-woocommerce/internal/domain/store"
	"github.com/VrajaTechnologies/vraja-woocommerce/internal/infrastructure/config"
	"github.com/VrajaTechnologies/vraja-woocommerce/internal/infrastructure/erp"
	"github.com/VrajaTechnologies/vraja-woocommerce/internal/infrastructure/logger"
	"github.com/VrajaTechnologies/vraja-woocommerce/internal/infrastructure/persistence"
	"github.com/VrajaTechnologies/vraja-woocommerce/internal/infrastructure/persistence/models"
	"github.com/VrajaTechnologies/vraja-woocommerce/internal/infrastructure/scheduler"
	"github.com/VrajaTechnologies/vraja-woocommerce/internal/infrastructure/woocommerce"
	"github.com/VrajaTechnologies/vraja-woocommerce/internal/interfaces/http/handler"
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
		_ = log.Sync()
	}()

	log.Info("Starting WooCommerce connector",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	migrations := append(models.All(), erp.Models()...)
	if err := db.DB.AutoMigrate(migrations...); err != nil {
		log.Fatal("Failed to run migrations", zap.Error(err))
	}

	// Initialize repositories
	instanceRepo := persistence.NewGormInstanceRepository(db.DB)
	webhookRepo := persistence.NewGormWebhookRepository(db.DB)
	queueRepo := persistence.NewGormQueueRepository(db.DB)
	logRepo := persistence.NewGormOperationLogRepository(db.DB)
	customerRepo := persistence.NewGormCustomerRepository(db.DB)
	orderRepo := persistence.NewGormOrderRepository(db.DB)
	gatewayRepo := persistence.NewGormGatewayRepository(db.DB)
	statusRepo := persistence.NewGormFinancialStatusRepository(db.DB)
	policyRepo := persistence.NewGormWorkflowPolicyRepository(db.DB)
	carrierRepo := persistence.NewGormCarrierRepository(db.DB)
	listingRepo := persistence.NewGormListingRepository(db.DB)
	categoryRepo := persistence.NewGormCategoryRepository(db.DB)
	tagRepo := persistence.NewGormTagRepository(db.DB)
	taxRepo := persistence.NewGormTaxRepository(db.DB)
	shippingRepo := persistence.NewGormShippingMethodRepository(db.DB)
	imageRepo := persistence.NewGormImageRepository(db.DB)

	// ERP adapters
	erpCatalog := erp.NewGormErpCatalog(db.DB)
	erpWorkflow := erp.NewGormSalesWorkflow(db.DB, orderRepo)
	erpPriceLists := erp.NewGormPriceLists(db.DB)

	// Store API client factory, one client per instance
	clients := func(instance *store.Instance) *woocommerce.Client {
		return woocommerce.NewClient(instance, log)
	}

	// Queue engine and services
	retryPolicy := queue.DefaultRetryPolicy()
	if cfg.Sync.ProductRetryLimit > 0 {
		retryPolicy.Limits[queue.KindProduct] = cfg.Sync.ProductRetryLimit
	}
	if cfg.Sync.InventoryRetryLimit > 0 {
		retryPolicy.Limits[queue.KindInventory] = cfg.Sync.InventoryRetryLimit
	}

	recorder := appsync.NewRecorder(logRepo, log)
	engine := appsync.NewEngine(queueRepo, recorder, retryPolicy, cfg.Sync.BatchSize, log)

	provisionService := appsync.NewProvisionService(gatewayRepo, statusRepo, policyRepo, recorder, log)
	customerImport := appsync.NewCustomerImportService(customerRepo, engine, cfg.Sync.PageSize, log)
	productImport := appsync.NewProductImportService(
		listingRepo, categoryRepo, tagRepo, imageRepo, instanceRepo,
		erpCatalog, engine, clients, cfg.Sync.PageSize, log)
	orderImport := appsync.NewOrderImportService(
		orderRepo, carrierRepo, policyRepo, statusRepo, taxRepo, listingRepo,
		instanceRepo, customerImport, provisionService, productImport,
		erpPriceLists, erpWorkflow, engine, clients, cfg.Sync.PageSize, log)
	productExport := appsync.NewProductExportService(
		listingRepo, categoryRepo, tagRepo, recorder, clients, log)
	inventoryExport := appsync.NewInventoryExportService(
		listingRepo, erpCatalog, engine, clients, log)
	categoryExport := appsync.NewCategoryExportService(categoryRepo, recorder, clients, log)
	referenceData := appsync.NewReferenceDataService(
		shippingRepo, taxRepo, categoryRepo, tagRepo, webhookRepo, orderRepo,
		recorder, clients, cfg.Sync.PageSize, log)
	intake := appsync.NewWebhookIntakeService(
		instanceRepo, webhookRepo, engine, customerImport, orderImport, productImport, log)

	// Background scheduler
	sched, err := scheduler.New(scheduler.Config{
		Enabled:          cfg.Scheduler.Enabled,
		OrderInterval:    cfg.Scheduler.OrderInterval,
		ProductInterval:  cfg.Scheduler.ProductInterval,
		CustomerInterval: cfg.Scheduler.CustomerInterval,
		StockInterval:    cfg.Scheduler.StockInterval,
		QueueInterval:    cfg.Scheduler.QueueInterval,
		JobTimeout:       15 * time.Minute,
	}, instanceRepo, log)
	if err != nil {
		log.Fatal("Failed to create scheduler", zap.Error(err))
	}

	sched.RegisterOrderImport(func(ctx context.Context, instance *store.Instance) error {
		if err := orderImport.ImportOrders(ctx, instance, queue.TriggerScheduled); err != nil {
			return err
		}
		return orderImport.ImportCancelled(ctx, instance, queue.TriggerScheduled)
	})
	sched.RegisterCustomerImport(func(ctx context.Context, instance *store.Instance) error {
		return customerImport.ImportAll(ctx, instance, clients(instance), queue.TriggerScheduled)
	})
	sched.RegisterProductImport(func(ctx context.Context, instance *store.Instance) error {
		return productImport.ImportAll(ctx, instance, queue.TriggerScheduled)
	})
	sched.RegisterStockExport(func(ctx context.Context, instance *store.Instance) error {
		return inventoryExport.ExportAll(ctx, instance)
	})
	sched.RegisterQueueDrain(func(ctx context.Context, instance *store.Instance) error {
		if err := engine.ProcessPending(ctx, instance, queue.KindOrder, queue.TriggerScheduled,
			queue.OperationOrder, queue.OperationTypeImport, orderImport.ResolveLine); err != nil {
			return err
		}
		if err := engine.ProcessPending(ctx, instance, queue.KindCustomer, queue.TriggerScheduled,
			queue.OperationCustomer, queue.OperationTypeImport, customerImport.ResolveLine); err != nil {
			return err
		}
		if err := engine.ProcessPending(ctx, instance, queue.KindProduct, queue.TriggerScheduled,
			queue.OperationProduct, queue.OperationTypeImport, productImport.ResolveLine); err != nil {
			return err
		}
		return engine.ProcessPending(ctx, instance, queue.KindInventory, queue.TriggerScheduled,
			queue.OperationInventory, queue.OperationTypeUpdate, inventoryExport.ResolveLine)
	})

	schedCtx, schedCancel := context.WithCancel(context.Background())
	defer schedCancel()
	if err := sched.Start(schedCtx); err != nil {
		log.Fatal("Failed to start scheduler", zap.Error(err))
	}

	// Register webhooks and bootstrap reference data for active instances
	if cfg.App.CallbackBaseURL != "" {
		bootCtx, bootCancel := context.WithTimeout(context.Background(), 2*time.Minute)
		bootstrapInstances(bootCtx, instanceRepo, referenceData, categoryExport, cfg.App.CallbackBaseURL, log)
		bootCancel()
	}

	// HTTP surface
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := router.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Fatal("Invalid trusted proxies", zap.Error(err))
		}
	}

	webhookHandler := handler.NewWebhookHandler(intake, log)
	webhookHandler.RegisterRoutes(router)
	adminHandler := handler.NewAdminHandler(
		instanceRepo, engine, orderImport, customerImport, productImport,
		productExport, inventoryExport, categoryExport, referenceData, clients, log)
	adminHandler.RegisterRoutes(router)
	router.GET("/healthz", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "time": time.Now().Format(time.RFC3339)})
	})

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        router,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

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

	if err := sched.Stop(ctx); err != nil {
		log.Warn("Scheduler shutdown incomplete", zap.Error(err))
	}
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// bootstrapInstances registers webhooks and mirrors the slow-moving store
// vocabularies for every active instance at startup. Failures are logged
// and skipped; the scheduler retries imports on its own cadence.
func bootstrapInstances(
	ctx context.Context,
	instances store.InstanceRepository,
	referenceData *appsync.ReferenceDataService,
	categoryExport *appsync.CategoryExportService,
	callbackBaseURL string,
	log *zap.Logger,
) {
	active, err := instances.FindActive(ctx)
	if err != nil {
		log.Error("Failed to list active instances", zap.Error(err))
		return
	}
	for i := range active {
		instance := &active[i]
		steps := []struct {
			name string
			run  func() error
		}{
			{"webhooks", func() error { return referenceData.RegisterWebhooks(ctx, instance, callbackBaseURL) }},
			{"shipping methods", func() error { return referenceData.ImportShippingMethods(ctx, instance) }},
			{"taxes", func() error { return referenceData.ImportTaxes(ctx, instance) }},
			{"categories", func() error { return referenceData.ImportCategories(ctx, instance) }},
			{"tags", func() error { return referenceData.ImportTags(ctx, instance) }},
			{"category export", func() error { return categoryExport.ExportAll(ctx, instance) }},
		}
		for _, step := range steps {
			if err := step.run(); err != nil {
				log.Warn("Bootstrap step failed",
					zap.String("instance", instance.Name),
					zap.String("step", step.name),
					zap.Error(err))
			}
		}
	}
}
