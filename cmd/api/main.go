package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/lexserve/bookings/internal/bootstrap"
	"github.com/lexserve/bookings/internal/controller"
	infraRedis "github.com/lexserve/bookings/internal/infrastructure/redis"
	"github.com/lexserve/bookings/internal/repository/postgres"
	"github.com/lexserve/bookings/internal/service"
	"github.com/lexserve/bookings/pkg/retry"
)

func main() {
	ctx := context.Background()

	app, err := bootstrap.New(ctx, "bookings-api", "bookings")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bootstrap: %v\n", err)
		os.Exit(1)
	}
	defer app.Close()

	// --- Repositories ---
	bookingRepo := postgres.NewBookingRepository(app.Pool)
	catalogRepo := postgres.NewCatalogRepository(app.Pool)
	outboxRepo := postgres.NewOutboxRepository(app.Pool)
	idempotencyRepo := postgres.NewIdempotencyRepository(app.Pool)
	txManager := postgres.NewTxManager(app.Pool)

	// --- Services ---
	gatewayFactory := app.GatewayFactory()
	lockManager := infraRedis.NewLockManager(app.Redis, app.Config.Payment.LockTTL)
	retryCfg := retry.Config{
		MaxAttempts:  app.Config.Payment.MaxRetries,
		InitialDelay: app.Config.Payment.RetryDelay,
		MaxDelay:     app.Config.Payment.RetryDelay * 8,
	}

	bookingService := service.NewBookingService(bookingRepo, catalogRepo, txManager)
	paymentService := service.NewPaymentService(
		bookingRepo, outboxRepo, txManager,
		gatewayFactory, app.Config.Gateway.Name,
		lockManager, retryCfg,
	)
	catalogService := service.NewCatalogService(catalogRepo)

	// --- Build router ---
	router := controller.NewRouter(controller.RouterDeps{
		Pool:            app.Pool,
		RedisClient:     app.Redis,
		BookingService:  bookingService,
		PaymentService:  paymentService,
		CatalogService:  catalogService,
		IdempotencyRepo: idempotencyRepo,
		Metrics:         app.Metrics,
		Server:          app.Config.Server,
		Gateway:         app.Config.Gateway,
		JWTSecret:       app.Config.Auth.JWTSecret,
	})

	// --- HTTP server ---
	addr := fmt.Sprintf(":%d", app.Config.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  app.Config.Server.ReadTimeout,
		WriteTimeout: app.Config.Server.WriteTimeout,
		IdleTimeout:  app.Config.Server.IdleTimeout,
	}

	go func() {
		app.Logger.Info().Str("addr", addr).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			app.Logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	app.Logger.Info().Msg("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), app.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		app.Logger.Error().Err(err).Msg("Server forced to shutdown")
	}
	app.Logger.Info().Msg("Server exited")
}
