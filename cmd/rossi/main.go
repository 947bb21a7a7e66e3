package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/hibiken/asynq"

	"github.com/Lightwin075/RossiChatllm2/internal/app"
	"github.com/Lightwin075/RossiChatllm2/internal/inventory"
	"github.com/Lightwin075/RossiChatllm2/internal/masterdata/products"
	"github.com/Lightwin075/RossiChatllm2/internal/masterdata/suppliers"
	"github.com/Lightwin075/RossiChatllm2/internal/masterdata/warehouses"
	"github.com/Lightwin075/RossiChatllm2/internal/observability"
	"github.com/Lightwin075/RossiChatllm2/internal/orders"
	"github.com/Lightwin075/RossiChatllm2/internal/platform/cache"
	"github.com/Lightwin075/RossiChatllm2/internal/platform/db"
	"github.com/Lightwin075/RossiChatllm2/internal/shared"
	"github.com/Lightwin075/RossiChatllm2/internal/stockcache"
	"github.com/Lightwin075/RossiChatllm2/jobs"
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
	slog.SetDefault(logger)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		// Stock reads fall back to the database when the cache is unavailable.
		logger.Warn("redis unavailable, caching disabled", slog.Any("error", err))
	} else {
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
	}

	validate := validator.New()
	metrics := observability.NewMetrics()
	audit := shared.NewAuditLogger(pool)
	idempotency := shared.NewIdempotencyStore(pool)

	stockCache := stockcache.NewCache(redisClient, cfg.StockCacheTTL)
	if err := stockCache.ListenForInvalidation(ctx, ""); err != nil {
		logger.Warn("stock cache subscription", slog.Any("error", err))
	}

	inventoryRepo := inventory.NewRepository(pool)
	inventoryService := inventory.NewService(inventoryRepo, audit, idempotency)
	inventoryHandler := inventory.NewHandler(logger, inventoryService, validate, stockCache, metrics)

	ordersRepo := orders.NewRepository(pool)
	ordersService := orders.NewService(logger, ordersRepo, audit, cfg.DefaultTaxRate())
	ordersHandler := orders.NewHandler(logger, ordersService, validate)

	productsService := products.NewService(products.NewPostgresRepository(pool), products.NewMovementCheck(pool))
	productsHandler := products.NewHandler(productsService, validate)

	warehousesService := warehouses.NewService(warehouses.NewPostgresRepository(pool))
	warehousesHandler := warehouses.NewHandler(warehousesService, validate)

	suppliersService := suppliers.NewService(suppliers.NewPostgresRepository(pool))
	suppliersHandler := suppliers.NewHandler(suppliersService, validate)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() { _ = inspector.Close() }()
	jobClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("asynq client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() { _ = jobClient.Close() }()
	jobHandler := jobs.NewHandler(inspector, jobClient, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		InventoryHandler:  inventoryHandler,
		OrdersHandler:     ordersHandler,
		ProductsHandler:   productsHandler,
		WarehousesHandler: warehousesHandler,
		SuppliersHandler:  suppliersHandler,
		JobHandler:        jobHandler,
		Pool:              pool,
		Metrics:           metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("http server listening", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", slog.Any("error", err))
	}
	logger.Info("server stopped")
}
