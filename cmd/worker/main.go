package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lexserve/bookings/internal/bootstrap"
	infraRedis "github.com/lexserve/bookings/internal/infrastructure/redis"
	"github.com/lexserve/bookings/internal/notify"
	"github.com/lexserve/bookings/internal/repository/postgres"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, err := bootstrap.New(ctx, "bookings-worker", "bookings_worker")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bootstrap: %v\n", err)
		os.Exit(1)
	}
	defer app.Close()

	outboxRepo := postgres.NewOutboxRepository(app.Pool)
	idempotencyRepo := postgres.NewIdempotencyRepository(app.Pool)
	txManager := postgres.NewTxManager(app.Pool)
	streamProducer := infraRedis.NewStreamProducer(app.Redis)
	notifier := notify.NewLogNotifier(app.Logger)

	workerCfg := app.Config.Worker
	consumer := infraRedis.NewStreamConsumer(
		app.Redis,
		infraRedis.NotificationStream,
		workerCfg.ConsumerGroup,
		app.Config.InstanceID,
		workerCfg.BatchSize,
		workerCfg.BlockDuration,
	)
	if err := consumer.CreateGroup(ctx); err != nil {
		app.Logger.Error().Err(err).Msg("Failed to create consumer group (may already exist)")
	}

	app.Logger.Info().
		Str("stream", infraRedis.NotificationStream).
		Str("group", workerCfg.ConsumerGroup).
		Str("consumer", app.Config.InstanceID).
		Msg("Worker started, listening for messages...")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	g, gCtx := errgroup.WithContext(ctx)

	// 1. Notification dispatcher (reads from Redis Streams).
	g.Go(func() error {
		return runNotificationDispatcher(gCtx, app, consumer, streamProducer, notifier)
	})

	// 2. Outbox processor (polls outbox table and publishes to Redis Streams).
	g.Go(func() error {
		return runOutboxProcessor(gCtx, app.Logger, txManager, outboxRepo, streamProducer, workerCfg.OutboxPollInterval)
	})

	// 3. Idempotency key janitor.
	g.Go(func() error {
		return runIdempotencyCleanup(gCtx, app.Logger, idempotencyRepo, workerCfg.IdempotencyTTL)
	})

	// 4. Wait for shutdown signal.
	g.Go(func() error {
		select {
		case <-gCtx.Done():
			return gCtx.Err()
		case <-quit:
			app.Logger.Info().Msg("Shutting down worker...")
			cancel()
			return nil
		}
	})

	if err := g.Wait(); err != nil && err != context.Canceled {
		app.Logger.Error().Err(err).Msg("Worker error")
	}
	app.Logger.Info().Msg("Worker exited")
}

func runNotificationDispatcher(
	ctx context.Context,
	app *bootstrap.App,
	consumer *infraRedis.StreamConsumer,
	producer *infraRedis.StreamProducer,
	notifier notify.Notifier,
) error {
	logger := app.Logger
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		streams, err := consumer.Read(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			logger.Error().Err(err).Msg("Failed to read from stream")
			time.Sleep(1 * time.Second)
			continue
		}

		for _, stream := range streams {
			for _, msg := range stream.Messages {
				start := time.Now()
				if err := dispatchMessage(ctx, notifier, msg); err != nil {
					logger.Error().Err(err).Str("message_id", msg.ID).Msg("Failed to dispatch notification")

					// Park on the DLQ for manual replay; the message stays
					// pending if even that fails.
					bookingID, _ := msg.Values["booking_id"].(string)
					if dlqErr := producer.PublishToDLQ(ctx, bookingID, err.Error(), msg.Values); dlqErr != nil {
						logger.Error().Err(dlqErr).Str("message_id", msg.ID).Msg("Failed to park message on DLQ")
						app.Metrics.WorkerMessagesProcessed.WithLabelValues(infraRedis.NotificationStream, "error").Inc()
						continue
					}
					consumer.Ack(ctx, msg.ID)
					app.Metrics.WorkerMessagesProcessed.WithLabelValues(infraRedis.NotificationStream, "error").Inc()
					continue
				}

				consumer.Ack(ctx, msg.ID)
				app.Metrics.WorkerMessagesProcessed.WithLabelValues(infraRedis.NotificationStream, "success").Inc()
				app.Metrics.WorkerProcessingDuration.WithLabelValues(infraRedis.NotificationStream).Observe(time.Since(start).Seconds())
			}
		}
	}
}

func dispatchMessage(ctx context.Context, notifier notify.Notifier, msg redis.XMessage) error {
	bookingID, _ := msg.Values["booking_id"].(string)
	eventType, _ := msg.Values["event_type"].(string)
	rawPayload, _ := msg.Values["payload"].(string)

	if bookingID == "" || eventType == "" {
		return fmt.Errorf("malformed stream message %s", msg.ID)
	}

	var payload map[string]any
	if rawPayload != "" {
		if err := json.Unmarshal([]byte(rawPayload), &payload); err != nil {
			return fmt.Errorf("decode payload: %w", err)
		}
	}

	return notifier.Notify(ctx, notify.Event{
		BookingID: bookingID,
		EventType: eventType,
		Payload:   payload,
	})
}

func runOutboxProcessor(
	ctx context.Context,
	logger zerolog.Logger,
	txManager *postgres.TxManager,
	outboxRepo *postgres.OutboxRepository,
	streamProducer *infraRedis.StreamProducer,
	pollInterval time.Duration,
) error {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		err := txManager.WithTransaction(ctx, func(txCtx context.Context) error {
			entries, err := outboxRepo.GetPending(txCtx, 10)
			if err != nil {
				return err
			}
			for _, entry := range entries {
				if err := streamProducer.PublishBookingEvent(
					ctx, entry.AggregateID.String(), entry.EventType, entry.Payload,
				); err != nil {
					logger.Error().Err(err).Str("outbox_id", entry.ID.String()).Msg("Failed to publish outbox event")
					outboxRepo.MarkFailed(txCtx, entry.ID)
					continue
				}
				outboxRepo.MarkPublished(txCtx, entry.ID)
			}
			return nil
		})
		if err != nil {
			logger.Error().Err(err).Msg("Outbox processor error")
		}
	}
}

func runIdempotencyCleanup(
	ctx context.Context,
	logger zerolog.Logger,
	repo *postgres.IdempotencyRepository,
	interval time.Duration,
) error {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		removed, err := repo.Cleanup(ctx)
		if err != nil {
			logger.Error().Err(err).Msg("Idempotency cleanup error")
			continue
		}
		if removed > 0 {
			logger.Info().Int64("removed", removed).Msg("Expired idempotency keys removed")
		}
	}
}
