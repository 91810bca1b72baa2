package queue

import (
	"context"
	"time"

	"go-meeting-sync/core/config"
	"go-meeting-sync/core/logger"

	"github.com/hibiken/asynq"
)

func RedisOpt(cfg config.RedisConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
}

func NewClient(cfg config.RedisConfig) *asynq.Client {
	return asynq.NewClient(RedisOpt(cfg))
}

func NewServer(cfg *config.Config) *asynq.Server {
	concurrency := cfg.Queue.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	return asynq.NewServer(RedisOpt(cfg.Redis), asynq.Config{
		Concurrency:     concurrency,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			retried, _ := asynq.GetRetryCount(ctx)
			logger.Error("Queue:Task:Error",
				"type", task.Type(),
				"retried", retried,
				"error", err,
			)
		}),
	})
}

func NewScheduler(cfg config.RedisConfig) *asynq.Scheduler {
	return asynq.NewScheduler(RedisOpt(cfg), &asynq.SchedulerOpts{
		Location: time.UTC,
		PostEnqueueFunc: func(info *asynq.TaskInfo, err error) {
			if err != nil {
				logger.Error("Queue:Scheduler:Enqueue:Error", "error", err)
				return
			}
			logger.Debug("Queue:Scheduler:Enqueued", "type", info.Type, "id", info.ID)
		},
	})
}
