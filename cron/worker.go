package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"servicehub/config"
	"servicehub/errs"
	"servicehub/services/notification"

	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// RedisOpt is the asynq connection shared by the enqueuing client and the
// worker.
func RedisOpt() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	}
}

// InitNotificationWorker runs the push delivery worker in the background. The
// returned function shuts it down.
func InitNotificationWorker(sender notification.Notifier, logger *zap.Logger) func() {
	log := logger.With(zap.String("component", "notification-worker"))

	srv := asynq.NewServer(
		RedisOpt(),
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"default": 1,
			},
			Logger: log.Sugar(),
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(notification.TypeBookingEvent, HandleBookingEvent(sender, log))

	ctx, cancel := context.WithCancel(context.Background())
	go monitorRedisConnection(ctx, log)

	go func() {
		log.Info("Starting notification worker")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			err := srv.Run(mux)
			if err == nil {
				return
			}
			log.Error("Failed to start notification worker",
				zap.Int("attempt", attempts),
				zap.Int("maxAttempts", maxAttempts),
				zap.Error(err))
			if attempts == maxAttempts {
				log.Error("Max retry attempts reached, push delivery disabled")
				return
			}
			time.Sleep(time.Duration(attempts*2) * time.Second)
		}
	}()

	return func() {
		cancel()
		srv.Shutdown()
	}
}

// HandleBookingEvent delivers one queued booking event. Recipients that cannot
// receive pushes are dropped without retry.
func HandleBookingEvent(sender notification.Notifier, log *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		ev, err := notification.ParseBookingEvent(task)
		if err != nil {
			log.Error("Invalid booking event payload", zap.Error(err))
			return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
		}

		err = sender.Notify(ctx, ev)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, notification.ErrNoToken):
			log.Debug("Recipient has no push token", zap.String("recipientID", ev.RecipientID))
			return nil
		case errs.Is(err, errs.NotFound):
			log.Warn("Recipient not found", zap.String("recipientID", ev.RecipientID))
			return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
		default:
			log.Error("Failed to deliver booking event",
				zap.String("bookingID", ev.BookingID),
				zap.String("type", ev.Type),
				zap.Error(err))
			return err
		}
	}
}

// monitorRedisConnection pings the queue database periodically to surface
// connection loss at runtime.
func monitorRedisConnection(ctx context.Context, log *zap.Logger) {
	client := redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	})
	defer client.Close()

	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := client.Ping(ctx).Err(); err != nil && ctx.Err() == nil {
				log.Warn("Queue Redis connection lost", zap.Error(err))
			}
		}
	}
}
