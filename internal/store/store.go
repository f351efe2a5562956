// Package store defines the persistence contract the scheduling core
// depends on. Concrete engines (see store/sqlite) implement it.
package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/avbraun/durasched/internal/domain"
)

// Executor is satisfied by both *sql.DB and *sql.Tx. Mutating Store
// operations accept one so callers can either run against the pool directly
// or compose several mutations into one transaction via Begin.
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Tx is an Executor scope opened by Begin. Callers must Commit or Rollback
// exactly once.
type Tx interface {
	Executor
	Commit() error
	Rollback() error
}

// Store is the sole authority over tasks and executions. In-memory Task and
// Execution values handed back to callers are snapshots, not live handles.
type Store interface {
	// Pool returns the default, non-transactional Executor.
	Pool() Executor

	// Begin opens a transaction scope usable as an Executor for the
	// mutating operations below.
	Begin(ctx context.Context) (Tx, error)

	// InsertTask inserts task with DeletedAt=nil and CreatedAt=now.
	InsertTask(ctx context.Context, exec Executor, task *domain.Task) error

	// GetTask returns the task by id, including retired ones, or
	// domain.ErrTaskNotFound.
	GetTask(ctx context.Context, exec Executor, id string) (*domain.Task, error)

	// SoftDeleteTask sets deleted_at=now for the given id and returns the
	// number of rows affected (0 or 1). Idempotent in effect: calling it
	// again on an already-retired task is harmless but reports 0 rows.
	SoftDeleteTask(ctx context.Context, exec Executor, id string) (int64, error)

	// UpdateTrigger overwrites trigger_at for the given id and returns the
	// number of rows affected.
	UpdateTrigger(ctx context.Context, exec Executor, id string, newTriggerAt time.Time) (int64, error)

	// GetNextPending returns the live task (deleted_at IS NULL) with the
	// smallest trigger_at, or domain.ErrTaskNotFound if none exist. It does
	// not filter by trigger_at <= now: the caller decides how long to sleep.
	GetNextPending(ctx context.Context, exec Executor) (*domain.Task, error)

	// InsertExecution inserts execution within the scope of exec. Returns
	// domain.ErrForeignKeyViolation if task_id no longer exists.
	InsertExecution(ctx context.Context, exec Executor, execution *domain.Execution) error

	// ListTasks returns every task, including retired ones, newest
	// created_at first.
	ListTasks(ctx context.Context, exec Executor) ([]*domain.Task, error)

	// Ping verifies the store is reachable; used by readiness checks.
	Ping(ctx context.Context) error

	// Close releases underlying resources (connection pool, file handle).
	Close() error
}
