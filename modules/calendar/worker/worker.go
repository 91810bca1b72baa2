package worker

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"go-meeting-sync/core/errors"
	"go-meeting-sync/core/logger"
	"go-meeting-sync/modules/calendar/dto"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// Task types handled by the calendar worker.
const (
	TypeReverseSync = "calendar:reverse_sync"
	TypeReconcile   = "calendar:reconcile"
)

const reverseSyncTimeout = 5 * time.Minute

type ReverseSyncPayload struct {
	UserID uuid.UUID `json:"user_id"`
}

func NewReverseSyncTask(userID uuid.UUID) (*asynq.Task, error) {
	payload, err := json.Marshal(ReverseSyncPayload{UserID: userID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeReverseSync, payload, asynq.MaxRetry(3), asynq.Timeout(reverseSyncTimeout)), nil
}

// Syncer is the part of the calendar service the worker drives.
type Syncer interface {
	ReverseSync(ctx context.Context, userID uuid.UUID, start, end *time.Time) (*dto.SyncSummary, error)
	ActiveUsers(ctx context.Context) ([]uuid.UUID, error)
}

type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

type Worker struct {
	syncer   Syncer
	enqueuer Enqueuer
}

func NewWorker(syncer Syncer, enqueuer Enqueuer) *Worker {
	return &Worker{syncer: syncer, enqueuer: enqueuer}
}

func (w *Worker) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(TypeReverseSync, w.HandleReverseSync)
	mux.HandleFunc(TypeReconcile, w.HandleReconcile)
}

// HandleReverseSync imports the user's upcoming calendar events. Users
// without a usable integration are not retried.
func (w *Worker) HandleReverseSync(ctx context.Context, t *asynq.Task) error {
	var p ReverseSyncPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("decode payload: %v: %w", err, asynq.SkipRetry)
	}
	if p.UserID == uuid.Nil {
		return fmt.Errorf("missing user_id: %w", asynq.SkipRetry)
	}

	summary, err := w.syncer.ReverseSync(ctx, p.UserID, nil, nil)
	if err != nil {
		if errors.HasCode(err, errors.ErrNotFound) || errors.HasCode(err, errors.ErrPermissionDenied) {
			logger.Info("CalendarWorker:ReverseSync:Skipped", "user_id", p.UserID, "reason", err)
			return nil
		}
		if errors.HasCode(err, errors.ErrTokenExpired) {
			return fmt.Errorf("reverse sync for %s: %v: %w", p.UserID, err, asynq.SkipRetry)
		}
		return err
	}

	logger.Info("CalendarWorker:ReverseSync:Done",
		"user_id", p.UserID,
		"created", summary.MeetingsCreated,
		"updated", summary.MeetingsUpdated,
		"errors", summary.Errors,
	)
	return nil
}

// HandleReconcile fans out one reverse sync per user with an active
// integration. A task already queued for a user is left alone.
func (w *Worker) HandleReconcile(ctx context.Context, _ *asynq.Task) error {
	users, err := w.syncer.ActiveUsers(ctx)
	if err != nil {
		return err
	}

	queued := 0
	for _, userID := range users {
		task, err := NewReverseSyncTask(userID)
		if err != nil {
			return err
		}
		_, err = w.enqueuer.EnqueueContext(ctx, task, asynq.TaskID(TypeReverseSync+":"+userID.String()))
		if stderrors.Is(err, asynq.ErrTaskIDConflict) {
			continue
		}
		if err != nil {
			logger.Error("CalendarWorker:Reconcile:Enqueue:Error", "user_id", userID, "error", err)
			continue
		}
		queued++
	}

	logger.Info("CalendarWorker:Reconcile:Done", "users", len(users), "queued", queued)
	return nil
}

// Schedule registers the periodic reconcile task under cronspec.
func Schedule(scheduler *asynq.Scheduler, cronspec string) (string, error) {
	return scheduler.Register(cronspec, asynq.NewTask(TypeReconcile, nil))
}
