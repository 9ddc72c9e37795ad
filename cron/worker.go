package cron

import (
	"context"
	"time"

	"glowbook/config"
	"glowbook/services/booking"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

const TypeReservationSweep = "reservation:sweep"

// InitSweepWorker runs the async worker plus a periodic scheduler that
// enqueues the pending-payment sweep. The sweep cancels pending reservations
// whose payment never settled, releasing their slots.
func InitSweepWorker(engine booking.ReservationEngine, logger *zap.Logger) (*asynq.Server, *asynq.Scheduler) {
	redisOpts := asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	}

	srv := asynq.NewServer(
		redisOpts,
		asynq.Config{
			Concurrency: 2,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeReservationSweep, handleSweepTask(engine, logger))

	go func() {
		if err := srv.Run(mux); err != nil {
			logger.Error("sweep worker stopped", zap.Error(err))
		}
	}()

	scheduler := asynq.NewScheduler(redisOpts, nil)
	if _, err := scheduler.Register("@every 1m", asynq.NewTask(TypeReservationSweep, nil)); err != nil {
		logger.Error("failed to register sweep schedule", zap.Error(err))
	}
	go func() {
		if err := scheduler.Run(); err != nil {
			logger.Error("sweep scheduler stopped", zap.Error(err))
		}
	}()

	return srv, scheduler
}

func handleSweepTask(engine booking.ReservationEngine, logger *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		ttl := time.Duration(config.AppConfig.PendingTTLMin) * time.Minute
		swept, err := engine.SweepExpiredPending(ctx, ttl)
		if err != nil {
			logger.Error("pending-payment sweep failed", zap.Error(err))
			return err
		}
		if swept > 0 {
			logger.Info("pending-payment sweep completed", zap.Int("cancelled", swept))
		}
		return nil
	}
}
