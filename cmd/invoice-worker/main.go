package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/joho/godotenv"

	"github.com/liamreece/leasepoint-backend/internal/notify"
	"github.com/liamreece/leasepoint-backend/pkg/config"
	"github.com/liamreece/leasepoint-backend/pkg/db"
	"github.com/liamreece/leasepoint-backend/pkg/logger"
	"github.com/liamreece/leasepoint-backend/pkg/mailer"
	"github.com/liamreece/leasepoint-backend/pkg/migrate"
	"github.com/liamreece/leasepoint-backend/pkg/outbox"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "invoice-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "invoice-worker"

	logg = logger.New(logger.Options{
		ServiceName: "invoice-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	sender, err := mailer.NewSendgridClient(cfg.Sendgrid)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap mailer", err)
		os.Exit(1)
	}
	notifyService, err := notify.NewService(sender, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create notify service", err)
		os.Exit(1)
	}

	service, err := NewService(ServiceParams{
		Config:        cfg,
		Logger:        logg,
		DB:            dbClient,
		Repository:    outbox.NewRepository(dbClient.DB()),
		DLQRepository: outbox.NewDLQRepository(dbClient.DB()),
		Registry:      newDecoderRegistry(),
		Handlers:      newHandlers(notifyService, logg),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create invoice worker", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": "invoice-worker",
	})
	logg.Info(ctx, "starting invoice worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "invoice worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "invoice worker shutting down gracefully")
}
