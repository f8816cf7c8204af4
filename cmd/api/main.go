package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/liamreece/leasepoint-backend/api/routes"
	"github.com/liamreece/leasepoint-backend/internal/assets"
	"github.com/liamreece/leasepoint-backend/internal/audit"
	"github.com/liamreece/leasepoint-backend/internal/bookings"
	"github.com/liamreece/leasepoint-backend/internal/customers"
	"github.com/liamreece/leasepoint-backend/internal/history"
	"github.com/liamreece/leasepoint-backend/internal/ledger"
	"github.com/liamreece/leasepoint-backend/internal/notify"
	"github.com/liamreece/leasepoint-backend/internal/users"
	stripewebhook "github.com/liamreece/leasepoint-backend/internal/webhooks/stripe"
	"github.com/liamreece/leasepoint-backend/pkg/config"
	"github.com/liamreece/leasepoint-backend/pkg/db"
	"github.com/liamreece/leasepoint-backend/pkg/logger"
	"github.com/liamreece/leasepoint-backend/pkg/mailer"
	"github.com/liamreece/leasepoint-backend/pkg/migrate"
	"github.com/liamreece/leasepoint-backend/pkg/outbox"
	"github.com/liamreece/leasepoint-backend/pkg/redis"
	"github.com/liamreece/leasepoint-backend/pkg/stripe"
)

const webhookDedupTTL = 24 * time.Hour

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
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

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	stripeClient, err := stripe.NewClient(context.Background(), cfg.Stripe, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap stripe client", err)
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

	gdb := dbClient.DB()
	bookingsRepo := bookings.NewRepository(gdb)
	assetsRepo := assets.NewRepository(gdb)
	customersRepo := customers.NewRepository(gdb)
	usersRepo := users.NewRepository(gdb)
	historyRepo := history.NewRepository(gdb)

	ledgerService, err := ledger.NewService(ledger.NewRepository(gdb))
	if err != nil {
		logg.Error(context.Background(), "failed to create ledger service", err)
		os.Exit(1)
	}
	auditService, err := audit.NewService(audit.NewRepository(gdb))
	if err != nil {
		logg.Error(context.Background(), "failed to create audit service", err)
		os.Exit(1)
	}

	outboxService := outbox.NewService(outbox.NewRepository(gdb), logg)

	bookingService, err := bookings.NewService(bookings.ServiceParams{
		Repo:      bookingsRepo,
		Assets:    assetsRepo,
		Customers: customersRepo,
		Users:     usersRepo,
		History:   historyRepo,
		Ledger:    ledgerService,
		Audit:     auditService,
		Notify:    notifyService,
		Gateway:   stripeClient,
		Outbox:    outboxService,
		Tx:        dbClient,
		Logger:    logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create booking service", err)
		os.Exit(1)
	}

	webhookService, err := stripewebhook.NewService(stripewebhook.ServiceParams{
		Bookings:  bookingsRepo,
		Assets:    assetsRepo,
		Customers: customersRepo,
		History:   historyRepo,
		Ledger:    ledgerService,
		Outbox:    outboxService,
		Tx:        dbClient,
		Logger:    logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create stripe webhook service", err)
		os.Exit(1)
	}

	webhookGuard, err := stripewebhook.NewIdempotencyGuard(redisClient, webhookDedupTTL, "stripe-webhook")
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook guard", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			bookingService,
			stripeClient,
			webhookService,
			webhookGuard,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
