package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"store-api/internal/cache"
	"store-api/internal/config"
	"store-api/internal/database"
	"store-api/internal/handler"
	"store-api/internal/notify"
	"store-api/internal/repository"
	"store-api/internal/router"
	"store-api/internal/service"
	"store-api/internal/swish"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(parent context.Context) error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := config.NewLogger(cfg.Logger)
	logger.Info().Str("version", Version).Msg("starting store API server")

	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialise database: %w", err)
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool, logger); err != nil {
		return err
	}

	// Repositories
	productRepo := repository.NewProductRepository(pool, logger)
	basketRepo := repository.NewBasketRepository(pool, logger)
	orderRepo := repository.NewOrderRepository(pool, logger)

	if cfg.Redis.Enabled {
		productCache := cache.NewRedisCache(cache.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, "store-api")
		defer productCache.Close()

		if err := productCache.Ping(ctx); err != nil {
			logger.Warn().Err(err).Msg("redis unreachable, product cache will fall through to the database")
		}
		productRepo = repository.NewCachedProductRepository(productRepo, productCache, cfg.Redis.ProductTTL, logger)
	} else {
		logger.Info().Msg("product cache disabled")
	}

	// Payment gateway
	var gateway swish.Gateway
	if cfg.Swish.Enabled {
		client, err := newSwishClient(cfg.Swish, logger)
		if err != nil {
			return err
		}
		gateway = client
	} else {
		logger.Info().Msg("swish payments disabled")
	}

	// Confirmation emails
	var emails service.EmailQueue = notify.Discard{}
	if cfg.SMTP.Enabled {
		dispatcher, err := newDispatcher(cfg, orderRepo, logger)
		if err != nil {
			return err
		}
		dispatcher.Start(ctx)
		defer dispatcher.Close()
		emails = dispatcher
	} else {
		logger.Info().Msg("confirmation emails disabled")
	}

	// Services
	retention := time.Duration(cfg.Basket.RetentionDays) * 24 * time.Hour
	productService := service.NewProductService(productRepo, logger)
	basketService := service.NewBasketService(basketRepo, productRepo, retention, logger)
	orderService := service.NewOrderService(orderRepo, basketRepo, basketService, gateway, emails, logger)

	mux := router.New(router.Handlers{
		Products: handler.NewProductHandler(productService, logger),
		Baskets:  handler.NewBasketHandler(basketService, orderService, logger),
		Swish:    handler.NewSwishHandler(orderService, logger),
		Admin:    handler.NewAdminHandler(orderService, logger),
	}, router.Config{
		APIKey:         cfg.Auth.APIKey,
		RequestTimeout: cfg.Server.WriteTimeout,
	}, logger)

	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      mux,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	// Channel to listen for errors from the server
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
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Info().
			Str("signal", sig.String()).
			Msg("shutdown signal received, starting graceful shutdown")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown server gracefully")
			if closeErr := server.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close server")
			}
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		// The deferred dispatcher Close drains queued emails after this point.
		logger.Info().Msg("server shutdown completed")
	}

	return nil
}

func newSwishClient(cfg config.SwishConfig, logger zerolog.Logger) (*swish.Client, error) {
	httpClient, err := swish.NewTLSHTTPClient(cfg.CertFile, cfg.KeyFile, cfg.CAFile, cfg.Timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to initialise swish client: %w", err)
	}

	return swish.NewClient(swish.Config{
		BaseURL:            cfg.BaseURL,
		PayeeAlias:         cfg.PayeeAlias,
		PaymentCallbackURL: cfg.PaymentCallbackURL(),
		RefundCallbackURL:  cfg.RefundCallbackURL(),
	}, httpClient, logger), nil
}

func newDispatcher(cfg *config.Config, orders notify.OrderStore, logger zerolog.Logger) (*notify.Dispatcher, error) {
	templates, err := notify.LoadTemplates()
	if err != nil {
		return nil, err
	}

	sender, err := notify.NewSMTPSender(notify.SMTPConfig{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
		BCC:      cfg.SMTP.BCC,
		Timeout:  cfg.SMTP.Timeout,
	}, templates, logger)
	if err != nil {
		return nil, err
	}

	return notify.NewDispatcher(orders, sender, notify.DispatcherConfig{
		Workers:       cfg.Dispatcher.Workers,
		QueueSize:     cfg.Dispatcher.QueueSize,
		SweepInterval: cfg.Dispatcher.SweepInterval,
		ClaimTTL:      cfg.Dispatcher.ClaimTTL,
	}, logger), nil
}
