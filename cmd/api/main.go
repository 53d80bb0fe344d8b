package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"digicommerce/internal/cache"
	"digicommerce/internal/config"
	"digicommerce/internal/database"
	"digicommerce/internal/events"
	"digicommerce/internal/gateway"
	"digicommerce/internal/handler"
	"digicommerce/internal/metrics"
	"digicommerce/internal/repository"
	"digicommerce/internal/router"
	"digicommerce/internal/service"
	"digicommerce/internal/storage"

	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := config.NewLogger(cfg.Logger)
	logger.Info().Msg("starting digicommerce API server")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := database.Open(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer pool.Close()

	// Repositories
	txm := repository.NewTxManager(pool, logger)
	categoryRepo := repository.NewCategoryRepository(pool, logger)
	productRepo := repository.NewProductRepository(pool, logger)
	userRepo := repository.NewUserRepository(pool, logger)
	addressRepo := repository.NewAddressRepository(pool, logger)
	cartRepo := repository.NewCartRepository(pool, logger)
	orderRepo := repository.NewOrderRepository(pool, logger)
	paymentRepo := repository.NewPaymentRepository(pool, logger)
	outboxRepo := repository.NewOutboxRepository(pool, logger)

	m := metrics.New()

	var cartCache cache.CartCache = cache.NoopCache{}
	if cfg.Redis.Enabled {
		client, err := cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			logger.Warn().Err(err).Msg("redis unavailable, cart cache disabled")
		} else {
			defer client.Close()
			cartCache = cache.NewRedisCache(client, cfg.Redis.CartTTL)
			logger.Info().Str("addr", cfg.Redis.Addr).Msg("cart cache enabled")
		}
	}

	files := newFileStore(ctx, cfg.Storage, logger)

	mp, err := gateway.NewMercadoPago(cfg.Payment.AccessToken, cfg.Payment.Timeout, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize payment gateway: %w", err)
	}
	gw := gateway.WithBreaker(mp, gateway.BreakerSettings{
		MaxFailures: uint32(cfg.Payment.BreakerMaxFailures),
		OpenTimeout: cfg.Payment.BreakerOpenTimeout,
	}, logger)

	// Services
	userService := service.NewUserService(userRepo, logger)
	addressService := service.NewAddressService(addressRepo, logger)
	cartService := service.NewCartService(txm, cartRepo, productRepo, cartCache, m, cfg.Storage.ImageBaseURL, logger)
	catalogService := service.NewCatalogService(txm, categoryRepo, productRepo, outboxRepo, cartService, files, cfg.Storage.ImageBaseURL, logger)
	orderService := service.NewOrderService(txm, orderRepo, paymentRepo, productRepo, cartRepo, addressRepo, outboxRepo, m, logger)
	paymentService := service.NewPaymentService(txm, orderRepo, paymentRepo, productRepo, cartRepo, outboxRepo,
		gw, cartCache, cartService, cfg.Payment, m, logger)

	mux := router.New(router.Handlers{
		Catalog:   handler.NewCatalogHandler(catalogService, logger),
		Carts:     handler.NewCartHandler(cartService, logger),
		Addresses: handler.NewAddressHandler(addressService, logger),
		Orders:    handler.NewOrderHandler(orderService, paymentService, logger),
		Webhooks:  handler.NewWebhookHandler(paymentService, logger),
	}, userService, m, cfg.Auth.APIKey, logger)

	var workers sync.WaitGroup
	if len(cfg.Kafka.Brokers) > 0 {
		writer := events.NewKafkaWriter(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		poller := events.NewOutboxPoller(outboxRepo, writer, cfg.Kafka.PollInterval, cfg.Kafka.BatchSize, logger)
		workers.Add(1)
		go func() {
			defer workers.Done()
			poller.Run(ctx)
		}()
		defer func() {
			if err := poller.Close(); err != nil {
				logger.Error().Err(err).Msg("failed to close outbox publisher")
			}
		}()
	} else {
		logger.Info().Msg("no kafka brokers configured, outbox events stay in the database")
	}

	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info().
			Str("address", cfg.Server.Address()).
			Msg("HTTP server started")
		serverErrors <- server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-shutdown:
		logger.Info().
			Str("signal", sig.String()).
			Msg("shutdown signal received, starting graceful shutdown")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown server gracefully")
			if closeErr := server.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close server")
			}
			return fmt.Errorf("server shutdown failed: %w", err)
		}
	}

	// Stop the outbox poller before the pool closes.
	cancel()
	workers.Wait()

	logger.Info().Msg("server shutdown completed")
	return nil
}

// newFileStore builds the product image store: S3 first when enabled, the
// local directory otherwise or when S3 fails.
func newFileStore(ctx context.Context, cfg config.StorageConfig, logger zerolog.Logger) storage.FileStore {
	local := storage.NewLocalStore(cfg.ImageUploadPath, logger)
	if !cfg.S3Enabled {
		logger.Info().Str("dir", cfg.ImageUploadPath).Msg("storing product images on the local file system")
		return local
	}

	s3Store, err := storage.NewS3Store(ctx, cfg.S3Bucket, cfg.S3Region, cfg.S3Prefix, logger)
	if err != nil {
		logger.Warn().
			Err(err).
			Msg("failed to initialise S3 store, falling back to local file system only")
		return storage.NewFallbackStore(nil, local, false, logger)
	}
	return storage.NewFallbackStore(s3Store, local, true, logger)
}
