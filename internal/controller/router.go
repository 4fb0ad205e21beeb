package controller

import (
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lexserve/bookings/internal/infrastructure/config"
	"github.com/lexserve/bookings/internal/infrastructure/observability"
	customMW "github.com/lexserve/bookings/internal/middleware"
	"github.com/lexserve/bookings/internal/repository/postgres"
	"github.com/lexserve/bookings/internal/service"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

type RouterDeps struct {
	Pool            *pgxpool.Pool
	RedisClient     *redis.Client
	BookingService  *service.BookingService
	PaymentService  *service.PaymentService
	CatalogService  *service.CatalogService
	IdempotencyRepo *postgres.IdempotencyRepository
	Metrics         *observability.Metrics
	Server          config.ServerConfig
	Gateway         config.GatewayConfig
	JWTSecret       string
}

func NewRouter(deps RouterDeps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(customMW.Tracing())
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(60 * time.Second))
	r.Use(customMW.SecurityHeaders())
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.Server.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: deps.Server.CORS.AllowCredentials,
		MaxAge:           300,
	}))
	r.Use(customMW.Metrics(deps.Metrics))

	healthH := NewHealthController(deps.Pool, deps.RedisClient)
	bookingH := NewBookingController(deps.BookingService)
	paymentH := NewPaymentController(deps.PaymentService, deps.Gateway.ReturnURL, deps.Gateway.CancelURL)
	offeringH := NewOfferingController(deps.CatalogService)

	r.Get("/health", healthH.Health)
	r.Get("/health/live", healthH.Liveness)
	r.Get("/health/ready", healthH.Readiness)

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		idempotencyMW := customMW.Idempotency(deps.IdempotencyRepo, deps.Server.IdempotencyTTL)
		rateLimitMW := customMW.RateLimit(deps.Server.RateLimitPerMinute)

		// Public guest routes.
		r.Group(func(r chi.Router) {
			r.Use(rateLimitMW)

			r.Get("/offerings", offeringH.List)

			r.Route("/bookings/{kind}", func(r chi.Router) {
				r.With(idempotencyMW).Post("/", bookingH.Create)
				r.Get("/status", bookingH.GetStatus)
				r.With(idempotencyMW).Post("/{id}/pay", paymentH.Pay)
				r.With(idempotencyMW).Post("/{id}/confirm-payment", paymentH.ConfirmPayment)
			})
		})

		// Staff routes. Kept under /staff so the booking id space never
		// collides with the public kind-scoped routes.
		r.Route("/staff", func(r chi.Router) {
			r.Use(customMW.RequireStaff(deps.JWTSecret))

			r.Get("/bookings", bookingH.List)
			r.Get("/bookings/{id}", bookingH.Get)
			r.Patch("/bookings/{id}/assign", bookingH.Assign)
			r.Patch("/bookings/{id}/status", bookingH.UpdateStatus)
			r.Post("/bookings/{id}/schedule", bookingH.Schedule)

			r.Post("/offerings", offeringH.Create)
			r.Delete("/offerings/{id}", offeringH.Deactivate)
		})
	})

	return r
}
