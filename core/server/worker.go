package server

import (
	"context"

	"go-meeting-sync/core/logger"
	"go-meeting-sync/core/queue"
	calendarworker "go-meeting-sync/modules/calendar/worker"

	"github.com/hibiken/asynq"
)

// Work runs the background task server and the reconcile scheduler until
// ctx is cancelled.
func (a *App) Work(ctx context.Context) error {
	client := queue.NewClient(a.Config.Redis)
	defer client.Close()

	mux := asynq.NewServeMux()
	calendarworker.NewWorker(a.Calendar, client).Register(mux)

	srv := queue.NewServer(a.Config)
	if err := srv.Start(mux); err != nil {
		return err
	}
	defer srv.Shutdown()

	scheduler := queue.NewScheduler(a.Config.Redis)
	entryID, err := calendarworker.Schedule(scheduler, a.Config.Calendar.ReconcileCron)
	if err != nil {
		return err
	}
	if err := scheduler.Start(); err != nil {
		return err
	}
	defer scheduler.Shutdown()

	logger.Info("Server:Work:Started", "reconcile_entry", entryID, "cron", a.Config.Calendar.ReconcileCron)
	<-ctx.Done()
	logger.Info("Server:Work:Stopping")
	return nil
}
