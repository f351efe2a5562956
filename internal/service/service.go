// Package service implements task validation, creation, retirement, and the
// transactional execute-record-reschedule sequence the Dispatcher drives.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/avbraun/durasched/internal/domain"
	"github.com/avbraun/durasched/internal/metrics"
	"github.com/avbraun/durasched/internal/notifier"
	"github.com/avbraun/durasched/internal/store"
	"github.com/google/uuid"
)

// ActionExecutor is the external capability that turns a task into an
// outcome. It may perform arbitrary, possibly slow I/O — ProcessTask does
// not start another task until Execute returns.
type ActionExecutor interface {
	Execute(ctx context.Context, task *domain.Task) (map[string]any, error)
}

// Service validates create requests, commits them, and owns the
// execute-record-reschedule transaction the Dispatcher invokes once a task
// is due.
type Service struct {
	store    store.Store
	executor ActionExecutor
	notifier notifier.Notifier
	wake     chan struct{}
	logger   *slog.Logger
}

// New builds a Service. wake is the bounded, non-blocking wake-up channel
// shared with the Dispatcher; with capacity >= 1 CreateTask's best-effort
// notification is buffered even while the Dispatcher is busy dispatching.
func New(st store.Store, exec ActionExecutor, notif notifier.Notifier, wake chan struct{}, logger *slog.Logger) *Service {
	return &Service{
		store:    st,
		executor: exec,
		notifier: notif,
		wake:     wake,
		logger:   logger.With("component", "service"),
	}
}

// CreateTaskInput is the validated shape of an inbound create request.
type CreateTaskInput struct {
	Name            string
	TaskType        string
	TriggerAt       time.Time
	IntervalSeconds *int64
	Payload         map[string]any
}

// CreateTask validates req, persists a new Task, and best-effort notifies
// the Dispatcher. Returns the new task's id.
func (s *Service) CreateTask(ctx context.Context, req CreateTaskInput) (string, error) {
	var kind domain.Kind
	switch req.TaskType {
	case string(domain.KindOnce):
		kind = domain.KindOnce
	case string(domain.KindInterval):
		kind = domain.KindInterval
	default:
		return "", domain.NewValidationError("invalid task_type, must be \"once\" or \"interval\"")
	}

	if kind == domain.KindInterval {
		if req.IntervalSeconds == nil || *req.IntervalSeconds < 1 {
			return "", domain.NewValidationError("interval tasks require interval_seconds >= 1")
		}
	}

	payload := req.Payload
	if payload == nil {
		payload = map[string]any{}
	}

	var task *domain.Task
	id := uuid.NewString()
	switch kind {
	case domain.KindOnce:
		task = domain.NewOnce(id, req.Name, req.TriggerAt, payload)
	case domain.KindInterval:
		task = domain.NewInterval(id, req.Name, req.TriggerAt, *req.IntervalSeconds, payload)
	}

	if err := s.store.InsertTask(ctx, s.store.Pool(), task); err != nil {
		return "", fmt.Errorf("insert task: %w", err)
	}
	metrics.TasksCreatedTotal.WithLabelValues(string(kind)).Inc()

	// Best-effort: a dropped notification only delays pickup by the
	// Dispatcher's idle-poll interval, it never loses the task.
	select {
	case s.wake <- struct{}{}:
	default:
	}

	return task.ID, nil
}

// DeleteTask soft-deletes the task. Returns domain.ErrTaskNotFound if no row
// matched.
func (s *Service) DeleteTask(ctx context.Context, id string) error {
	rows, err := s.store.SoftDeleteTask(ctx, s.store.Pool(), id)
	if err != nil {
		return fmt.Errorf("soft delete task: %w", err)
	}
	if rows == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

// ListTasks returns every task, including retired ones.
func (s *Service) ListTasks(ctx context.Context) ([]*domain.Task, error) {
	tasks, err := s.store.ListTasks(ctx, s.store.Pool())
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

// ProcessTask executes task's action and commits the resulting Execution
// together with the task's retirement (Once) or reschedule (Interval) in a
// single transaction. A failed action is recorded, never returned as an
// error — only storage failures propagate.
func (s *Service) ProcessTask(ctx context.Context, task *domain.Task) error {
	output, execErr := s.executor.Execute(ctx, task)
	status := domain.StatusSuccess
	if execErr != nil {
		status = domain.StatusFailure
		output = map[string]any{"error": execErr.Error()}
	}

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	execution := domain.NewExecution(uuid.NewString(), task.ID, output, status)
	if err := s.store.InsertExecution(ctx, tx, execution); err != nil {
		if errors.Is(err, domain.ErrForeignKeyViolation) {
			// The task row is gone — only possible if a deployment hard-deletes
			// against the Store's contract. Roll back and treat as a no-op.
			s.logger.Warn("execution insert hit missing task, rolling back", "task_id", task.ID)
			return nil
		}
		return fmt.Errorf("insert execution: %w", err)
	}

	switch task.Kind {
	case domain.KindOnce:
		if _, err := s.store.SoftDeleteTask(ctx, tx, task.ID); err != nil {
			return fmt.Errorf("retire task: %w", err)
		}
	case domain.KindInterval:
		next := time.Now().UTC().Add(time.Duration(*task.IntervalSeconds) * time.Second)
		if _, err := s.store.UpdateTrigger(ctx, tx, task.ID, next); err != nil {
			return fmt.Errorf("reschedule task: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	committed = true

	metrics.TasksProcessedTotal.WithLabelValues(string(status)).Inc()

	if status == domain.StatusFailure {
		s.notifier.NotifyFailure(ctx, task, execution)
	}

	return nil
}
