package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"lendx/internal/amqp"
	"lendx/internal/cache"
	"lendx/internal/cli"
	apphttp "lendx/internal/http"
	"lendx/internal/interest"
	"lendx/internal/log"
	"lendx/internal/metrics"
	"lendx/internal/services"
)

func main() {
	cfg, logger := cli.LoadAndValidateConfig(log.ComponentApp)

	store := cli.OpenBackend(context.Background(), logger, cfg)
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("Failed to close ledger backend", log.FieldError, err)
		}
	}()

	m := metrics.New()

	summaries := cache.NewLRUCache[interest.Summary](cfg.SummaryCacheSize, cfg.SummaryCacheTTL)
	caches := cache.NewManager(logger.WithComponent(log.ComponentCache).Logger)
	caches.Register(summaries)
	caches.StartCleanup(time.Minute)

	opts := []services.Option{
		services.WithSummaryCache(summaries),
		services.WithMetrics(m),
		services.WithLogger(logger.WithComponent(log.ComponentLedger)),
	}

	// Change notifications are optional: without a broker the API still works
	// and the worker falls back to its periodic full export.
	var publisher *amqp.Client
	if cfg.AMQPURL != "" {
		var err error
		publisher, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", log.FieldError, err)
			os.Exit(1)
		}
		opts = append(opts, services.WithPublisher(publisher))
		logger.Info("Publishing borrower changes", "exchange", cfg.AMQPExchange)
	} else {
		logger.Info("AMQP disabled - no AMQP_URL provided")
	}

	svc := services.NewLoanService(store.Store, opts...)

	srv := apphttp.NewServer(":"+cfg.Port, svc, apphttp.Options{
		Metrics:            m,
		Logger:             logger.WithComponent(log.ComponentHTTP),
		Ready:              store.Ping,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		TrustedProxies:     cfg.TrustedProxies,
	})

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(shutdownCtx context.Context) {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		caches.Stop()
		if publisher != nil {
			if err := publisher.Close(); err != nil {
				logger.Error("Failed to close AMQP client", log.FieldError, err)
			}
		}
	})

	logger.Info("Starting lendx server",
		"port", cfg.Port,
		"backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
