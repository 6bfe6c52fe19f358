package tasks

import (
	"context"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"fortexx_ledger/internal/models"
)

const (
	historyStatusSuccess         = "success"
	historyStatusFailure         = "failure"
	historyStatusHandlerNotFound = "handler_not_found"

	workerLockKey = "worker:lock"
)

// Locker is the distributed lock taken before every tick.
type Locker interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error)
}

// Runner executes due scheduled tasks.
type Runner struct {
	db         *gorm.DB
	registry   *Registry
	logger     *slog.Logger
	lock       Locker // optional
	lockTTL    time.Duration
	retryDelay time.Duration
	now        func() time.Time
}

func NewRunner(db *gorm.DB, registry *Registry, lock Locker, lockTTL time.Duration, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		db:         db,
		registry:   registry,
		logger:     logger,
		lock:       lock,
		lockTTL:    lockTTL,
		retryDelay: time.Minute,
		now:        time.Now,
	}
}

// Tick runs ProcessDue unless another worker holds the lock.
func (r *Runner) Tick(ctx context.Context) (int, error) {
	if r.lock != nil {
		ok, err := r.lock.SetNX(ctx, workerLockKey, r.now().Unix(), r.lockTTL)
		if err != nil {
			return 0, err
		}
		if !ok {
			r.logger.Debug("worker lock held elsewhere, skipping tick")
			return 0, nil
		}
	}
	return r.ProcessDue(ctx)
}

// ProcessDue runs every active task whose due time has passed and returns how
// many were run.
func (r *Runner) ProcessDue(ctx context.Context) (int, error) {
	var pendingTasks []models.ScheduledTask
	err := r.db.WithContext(ctx).
		Where("status = ? AND due <= ?", models.ScheduledTaskStatusActive, r.now()).
		Order("due").
		Find(&pendingTasks).Error
	if err != nil {
		return 0, err
	}

	if len(pendingTasks) == 0 {
		r.logger.Debug("no pending tasks")
		return 0, nil
	}
	r.logger.Info("processing pending tasks", "count", len(pendingTasks))

	processed := 0
	for _, task := range pendingTasks {
		if ctx.Err() != nil {
			return processed, ctx.Err()
		}
		r.execute(ctx, task)
		processed++
	}
	return processed, nil
}

func (r *Runner) execute(ctx context.Context, task models.ScheduledTask) {
	logger := r.logger.With("task", task.TaskName, "task_id", task.ID)
	attempt := task.Attempts + 1
	startTime := r.now()

	handler, found := r.registry.Get(task.TaskName)
	if !found {
		logger.Warn("task handler not found, marking as failure")
		r.recordHistory(logger, task, startTime, 0, historyStatusHandlerNotFound, attempt,
			map[string]interface{}{"error": "handler not found"})
		r.updateTask(logger, task, map[string]interface{}{
			"status":   models.ScheduledTaskStatusFailure,
			"last_run": &startTime,
		})
		return
	}

	result, err := handler(ctx, r.db.WithContext(ctx), task)
	runtimeMs := r.now().Sub(startTime).Milliseconds()

	taskUpdates := map[string]interface{}{
		"last_run": &startTime,
	}

	if err != nil {
		logger.Warn("task failed", "attempt", attempt, "error", err)
		r.recordHistory(logger, task, startTime, runtimeMs, historyStatusFailure, attempt,
			map[string]interface{}{"error": err.Error()})

		taskUpdates["attempts"] = attempt
		if attempt < maxAttempts(task) {
			taskUpdates["due"] = r.now().Add(r.retryDelay)
		} else {
			taskUpdates["status"] = models.ScheduledTaskStatusFailure
		}
		r.updateTask(logger, task, taskUpdates)
		return
	}

	logger.Info("task completed", "runtime_ms", runtimeMs)
	r.recordHistory(logger, task, startTime, runtimeMs, historyStatusSuccess, attempt, result)

	taskUpdates["attempts"] = 0
	switch {
	case task.IsRecurring():
		nextDue := task.NextDueAfter(r.now())
		// a rule without a later occurrence must not run again
		if nextDue.After(task.Due) {
			taskUpdates["due"] = nextDue
		} else {
			taskUpdates["status"] = models.ScheduledTaskStatusDone
		}
	default:
		taskUpdates["status"] = models.ScheduledTaskStatusDone
	}
	r.updateTask(logger, task, taskUpdates)
}

func maxAttempts(task models.ScheduledTask) int {
	if task.MaxAttempt < 1 {
		return 1
	}
	return task.MaxAttempt
}

func (r *Runner) recordHistory(logger *slog.Logger, task models.ScheduledTask, startedAt time.Time, runtimeMs int64, status string, attempt int, result map[string]interface{}) {
	history := models.ScheduledTaskHistory{
		ScheduledTaskID: task.ID,
		TaskName:        task.TaskName,
		StartedAt:       startedAt,
		DurationMs:      runtimeMs,
		Status:          status,
		Attempt:         attempt,
		Arguments:       task.Arguments,
		Result:          result,
	}
	if err := r.db.Create(&history).Error; err != nil {
		logger.Error("failed to record task history", "error", err)
	}
}

func (r *Runner) updateTask(logger *slog.Logger, task models.ScheduledTask, updates map[string]interface{}) {
	if err := r.db.Model(&task).Updates(updates).Error; err != nil {
		logger.Error("failed to update task", "error", err)
	}
}
