package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/vetstock-erp/vetstock/internal/app"
	"github.com/vetstock-erp/vetstock/internal/audit"
	"github.com/vetstock-erp/vetstock/internal/auth"
	"github.com/vetstock-erp/vetstock/internal/billing"
	"github.com/vetstock-erp/vetstock/internal/delivery"
	"github.com/vetstock-erp/vetstock/internal/inventory"
	"github.com/vetstock-erp/vetstock/internal/issues"
	"github.com/vetstock-erp/vetstock/internal/masterdata/categories"
	"github.com/vetstock-erp/vetstock/internal/masterdata/customers"
	"github.com/vetstock-erp/vetstock/internal/masterdata/products"
	"github.com/vetstock-erp/vetstock/internal/masterdata/suppliers"
	"github.com/vetstock-erp/vetstock/internal/notify"
	"github.com/vetstock-erp/vetstock/internal/orders"
	"github.com/vetstock-erp/vetstock/internal/platform/cache"
	"github.com/vetstock-erp/vetstock/internal/platform/db"
	"github.com/vetstock-erp/vetstock/internal/rbac"
	"github.com/vetstock-erp/vetstock/internal/reports"
	"github.com/vetstock-erp/vetstock/internal/shared"
	"github.com/vetstock-erp/vetstock/internal/users"
	"github.com/vetstock-erp/vetstock/jobs"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() { _ = redisClient.Close() }()

	auditLogger := shared.NewAuditLogger(pool)
	idempotency := shared.NewIdempotencyStore(pool)

	jobClient := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() { _ = jobClient.Close() }()

	hub := notify.NewHub(logger)
	go hub.Run(ctx)

	authService := auth.NewService(auth.NewRepository(pool), redisClient, cfg.JWTSecret, cfg.SessionTTL)
	usersService := users.NewService(users.NewRepository(pool), auditLogger)

	categoriesService := categories.NewService(categories.NewRepository(pool))
	productsService := products.NewService(products.NewRepository(pool))
	suppliersService := suppliers.NewService(suppliers.NewRepository(pool))
	customersService := customers.NewService(customers.NewRepository(pool))

	ordersService := orders.NewService(orders.NewRepository(pool), auditLogger)
	deliveryService := delivery.NewService(logger, delivery.NewRepository(pool), auditLogger)
	inventoryService := inventory.NewService(inventory.NewRepository(pool), idempotency, auditLogger)
	issuesService := issues.NewService(issues.NewRepository(pool), deliveryService, auditLogger)
	billingService := billing.NewService(billing.NewRepository(pool), auditLogger)
	reportsService := reports.NewService(reports.NewRepository(pool), reports.NewCache(redisClient, cfg.ReportCacheTTL))

	// The order, delivery, inventory, issue and billing workflows call into
	// each other; the ports are wired here, after construction, to keep the
	// packages cycle-free.
	ordersService.SetDeliveryCreator(deliveryService)
	deliveryService.SetOrderCompleter(ordersService)
	deliveryService.SetInvoicePort(billingService)
	billingService.SetReportCache(reportsService)
	deliveryService.SetInventoryPort(delivery.NewInventoryAdapter(inventoryService))
	deliveryService.SetIssuePort(issuesService)
	deliveryService.SetJobPort(jobClient)
	deliveryService.SetNotifier(hub)

	router := app.NewRouter(app.RouterParams{
		Config:            cfg,
		AuthService:       authService,
		RBAC:              rbac.Middleware{Logger: logger},
		AuthHandler:       auth.NewHandler(logger, authService, cfg.IsProduction()),
		UsersHandler:      users.NewHandler(logger, usersService),
		CategoriesHandler: categories.NewHandler(logger, categoriesService),
		ProductsHandler:   products.NewHandler(logger, productsService),
		SuppliersHandler:  suppliers.NewHandler(logger, suppliersService),
		CustomersHandler:  customers.NewHandler(logger, customersService),
		OrdersHandler:     orders.NewHandler(logger, ordersService),
		DeliveryHandler:   delivery.NewHandler(logger, deliveryService),
		InventoryHandler:  inventory.NewHandler(logger, inventoryService, cfg.LotExpiryWindow),
		IssuesHandler:     issues.NewHandler(logger, issuesService),
		BillingHandler:    billing.NewHandler(logger, billingService),
		ReportsHandler:    reports.NewHandler(logger, reportsService),
		AuditHandler:      audit.NewHandler(logger, audit.NewRepository(pool)),
		NotifyHandler:     notify.NewHandler(logger, hub),
		JobsHandler:       jobs.NewHandler(asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr}), logger),
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", slog.String("addr", cfg.AppAddr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown", slog.Any("error", err))
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server run", slog.Any("error", err))
			os.Exit(1)
		}
	}
}
