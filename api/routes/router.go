package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/liamreece/leasepoint-backend/api/controllers"
	bookingcontrollers "github.com/liamreece/leasepoint-backend/api/controllers/bookings"
	webhookcontrollers "github.com/liamreece/leasepoint-backend/api/controllers/webhooks"
	"github.com/liamreece/leasepoint-backend/api/middleware"
	internalbookings "github.com/liamreece/leasepoint-backend/internal/bookings"
	stripewebhook "github.com/liamreece/leasepoint-backend/internal/webhooks/stripe"
	"github.com/liamreece/leasepoint-backend/pkg/config"
	"github.com/liamreece/leasepoint-backend/pkg/db"
	"github.com/liamreece/leasepoint-backend/pkg/enums"
	"github.com/liamreece/leasepoint-backend/pkg/logger"
	"github.com/liamreece/leasepoint-backend/pkg/redis"
	"github.com/liamreece/leasepoint-backend/pkg/stripe"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbClient db.Pinger,
	redisClient *redis.Client,
	bookingService internalbookings.Service,
	stripeClient *stripe.Client,
	stripeWebhookService *stripewebhook.Service,
	stripeWebhookGuard *stripewebhook.IdempotencyGuard,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbClient, redisClient))
	})

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/stripe", webhookcontrollers.StripeWebhook(stripeWebhookService, stripeClient, stripeWebhookGuard, logg))
	})

	r.Route("/api/v1/bookings", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Get("/", bookingcontrollers.List(bookingService, logg))
		r.Get("/{bookingId}", bookingcontrollers.Detail(bookingService, logg))
		r.Post("/{bookingId}/checkout", bookingcontrollers.Checkout(bookingService, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(string(enums.UserRoleAdmin), logg))
			r.Post("/{bookingId}/approve", bookingcontrollers.Approve(bookingService, logg))
			r.Post("/{bookingId}/cancel", bookingcontrollers.Cancel(bookingService, logg))
		})
	})

	return r
}
