package main

import (
	"context"
	"errors"
	"os"
	"time"

	"financas/internal/amqp"
	"financas/internal/cli"
	"financas/internal/log"
	"financas/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	cli.LoadEnvFile()

	bootLogger := cli.SetupLogger("info", log.ComponentWorker)
	cfg := cli.LoadAndValidateConfig(bootLogger)
	logger := cli.SetupLogger(cfg.LogLevel, log.ComponentWorker)

	if err := cfg.ValidateBackup(); err != nil {
		logger.Error("Backup configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}

	logger.Info("Starting backup-worker",
		"source", cfg.DataBackend,
		"target", cfg.BackupBackend,
		"interval", cfg.BackupInterval)

	ctx := context.Background()
	source := cli.InitStore(ctx, logger, cfg)
	defer source.Close()

	target, err := cli.OpenBackupStore(ctx, logger, cfg)
	if err != nil {
		logger.Error("Failed to initialize backup store", log.FieldError, err, log.FieldBackend, cfg.BackupBackend)
		os.Exit(1)
	}
	defer target.Close()

	backupWorker := worker.NewBackupWorker(source.Store, target.Store)

	runCtx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	// Mirror once on startup in case notifications were missed while down.
	if _, err := backupWorker.Mirror(runCtx); err != nil {
		logger.Error("Startup backup failed", log.FieldError, err)
	}

	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, relying on polling only", log.FieldError, err)
		} else {
			defer amqpClient.Close()
			go func() {
				err := amqpClient.ConsumeLedgerReplaced(runCtx, backupWorker.HandleLedgerReplaced)
				if err != nil && !errors.Is(err, context.Canceled) {
					logger.Error("Message consumption failed", log.FieldError, err)
				}
			}()
		}
	} else {
		logger.Info("AMQP disabled - mirroring on the polling interval only")
	}

	go func() {
		if err := backupWorker.Poll(runCtx, cfg.BackupInterval); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Backup polling stopped", log.FieldError, err)
		}
	}()

	cli.WaitForShutdown(runCtx, done)
}
