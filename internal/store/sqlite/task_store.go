package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/avbraun/durasched/internal/domain"
	"github.com/avbraun/durasched/internal/store"
)

func (s *Store) Pool() store.Executor {
	return s.db
}

func (s *Store) Begin(ctx context.Context) (store.Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	return tx, nil
}

func (s *Store) InsertTask(ctx context.Context, exec store.Executor, task *domain.Task) error {
	payload, err := json.Marshal(task.Payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	task.CreatedAt = time.Now().UTC()

	_, err = exec.ExecContext(ctx, `
		INSERT INTO tasks (id, name, task_type, trigger_at, interval_seconds, payload, deleted_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, NULL, ?)`,
		task.ID, task.Name, string(task.Kind), task.TriggerAt.UTC(), task.IntervalSeconds, payload, task.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	return nil
}

func (s *Store) GetTask(ctx context.Context, exec store.Executor, id string) (*domain.Task, error) {
	row := exec.QueryRowContext(ctx, `
		SELECT id, name, task_type, trigger_at, interval_seconds, payload, deleted_at, created_at
		FROM tasks WHERE id = ?`, id)
	return scanTask(row)
}

func (s *Store) SoftDeleteTask(ctx context.Context, exec store.Executor, id string) (int64, error) {
	res, err := exec.ExecContext(ctx, `UPDATE tasks SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`,
		time.Now().UTC(), id)
	if err != nil {
		return 0, fmt.Errorf("soft delete task: %w", err)
	}
	return res.RowsAffected()
}

func (s *Store) UpdateTrigger(ctx context.Context, exec store.Executor, id string, newTriggerAt time.Time) (int64, error) {
	res, err := exec.ExecContext(ctx, `UPDATE tasks SET trigger_at = ? WHERE id = ?`, newTriggerAt.UTC(), id)
	if err != nil {
		return 0, fmt.Errorf("update trigger: %w", err)
	}
	return res.RowsAffected()
}

func (s *Store) GetNextPending(ctx context.Context, exec store.Executor) (*domain.Task, error) {
	row := exec.QueryRowContext(ctx, `
		SELECT id, name, task_type, trigger_at, interval_seconds, payload, deleted_at, created_at
		FROM tasks
		WHERE deleted_at IS NULL
		ORDER BY trigger_at ASC, created_at ASC, id ASC
		LIMIT 1`)
	return scanTask(row)
}

func (s *Store) InsertExecution(ctx context.Context, exec store.Executor, execution *domain.Execution) error {
	output, err := json.Marshal(execution.Output)
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}

	_, err = exec.ExecContext(ctx, `
		INSERT INTO executions (id, task_id, executed_at, output, status)
		VALUES (?, ?, ?, ?, ?)`,
		execution.ID, execution.TaskID, execution.ExecutedAt, output, string(execution.Status),
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrForeignKeyViolation
		}
		return fmt.Errorf("insert execution: %w", err)
	}
	return nil
}

func (s *Store) ListTasks(ctx context.Context, exec store.Executor) ([]*domain.Task, error) {
	rows, err := exec.QueryContext(ctx, `
		SELECT id, name, task_type, trigger_at, interval_seconds, payload, deleted_at, created_at
		FROM tasks
		ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*domain.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// rowScanner is implemented by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*domain.Task, error) {
	var (
		t               domain.Task
		taskType        string
		intervalSeconds sql.NullInt64
		payload         []byte
		deletedAt       sql.NullTime
	)

	err := row.Scan(&t.ID, &t.Name, &taskType, &t.TriggerAt, &intervalSeconds, &payload, &deletedAt, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, fmt.Errorf("scan task: %w", err)
	}

	t.Kind = domain.Kind(taskType)
	if intervalSeconds.Valid {
		v := intervalSeconds.Int64
		t.IntervalSeconds = &v
	}
	if deletedAt.Valid {
		v := deletedAt.Time
		t.DeletedAt = &v
	}
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &t.Payload); err != nil {
			return nil, fmt.Errorf("unmarshal payload: %w", err)
		}
	}
	return &t, nil
}

func isForeignKeyViolation(err error) bool {
	return strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}
