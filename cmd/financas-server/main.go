package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"financas/internal/amqp"
	"financas/internal/cli"
	apphttp "financas/internal/http"
	"financas/internal/log"
	"financas/internal/services"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	cli.LoadEnvFile()

	bootLogger := cli.SetupLogger("info", log.ComponentApp)
	cfg := cli.LoadAndValidateConfig(bootLogger)
	logger := cli.SetupLogger(cfg.LogLevel, log.ComponentApp)

	logger.Info("Starting financas-server",
		log.FieldBackend, cfg.DataBackend,
		"port", cfg.Port)

	ceilings, err := cfg.Ceilings()
	if err != nil {
		logger.Error("Invalid budgets", log.FieldError, err)
		os.Exit(1)
	}
	income, err := cfg.Income()
	if err != nil {
		logger.Error("Invalid projected income", log.FieldError, err)
		os.Exit(1)
	}

	ctx := context.Background()
	backendResult := cli.InitStore(ctx, logger, cfg)
	defer func() {
		if err := backendResult.Close(); err != nil {
			logger.Error("Failed to close ledger store", log.FieldError, err)
		}
	}()

	var opts []services.Option
	// Notifications are optional; the server keeps serving without a broker.
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, ledger notifications disabled", log.FieldError, err)
		} else {
			defer amqpClient.Close()
			opts = append(opts, services.WithNotifier(amqpClient))
			logger.Info("AMQP client initialized", "exchange", cfg.AMQPExchange)
		}
	} else {
		logger.Info("AMQP disabled - no ledger notifications will be published")
	}

	svc := services.NewLedgerService(backendResult.Store, opts...)
	srv := apphttp.NewServer(":"+cfg.Port, svc, logger, apphttp.Options{
		Payers:          cli.Payers(cfg),
		Ceilings:        ceilings,
		ProjectedIncome: income,
		CacheSize:       cfg.SummaryCacheSize,
		CacheTTL:        cfg.SummaryCacheTTL,
		TrustedProxies:  cfg.TrustedProxies,
	})
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	shutdownCtx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
	})

	logger.Info("Server listening", "addr", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server failed", log.FieldError, err)
		os.Exit(1)
	}

	cli.WaitForShutdown(shutdownCtx, done)
}
