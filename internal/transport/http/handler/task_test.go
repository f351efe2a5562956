package handler_test

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/avbraun/durasched/internal/domain"
	"github.com/avbraun/durasched/internal/service"
	"github.com/avbraun/durasched/internal/store"
	"github.com/avbraun/durasched/internal/transport/http/handler"
	"github.com/gin-gonic/gin"
)

type fakeExecutor struct{}

func (fakeExecutor) ExecContext(context.Context, string, ...any) (sql.Result, error) { return nil, nil }
func (fakeExecutor) QueryContext(context.Context, string, ...any) (*sql.Rows, error)  { return nil, nil }
func (fakeExecutor) QueryRowContext(context.Context, string, ...any) *sql.Row         { return nil }

type fakeStore struct {
	insertTask     func(context.Context, store.Executor, *domain.Task) error
	softDeleteTask func(context.Context, store.Executor, string) (int64, error)
	listTasks      func(context.Context, store.Executor) ([]*domain.Task, error)
}

func (s *fakeStore) Pool() store.Executor                    { return fakeExecutor{} }
func (s *fakeStore) Begin(context.Context) (store.Tx, error) { return nil, nil }
func (s *fakeStore) InsertTask(ctx context.Context, exec store.Executor, task *domain.Task) error {
	if s.insertTask != nil {
		return s.insertTask(ctx, exec, task)
	}
	return nil
}
func (s *fakeStore) GetTask(context.Context, store.Executor, string) (*domain.Task, error) {
	return nil, domain.ErrTaskNotFound
}
func (s *fakeStore) SoftDeleteTask(ctx context.Context, exec store.Executor, id string) (int64, error) {
	if s.softDeleteTask != nil {
		return s.softDeleteTask(ctx, exec, id)
	}
	return 0, nil
}
func (s *fakeStore) UpdateTrigger(context.Context, store.Executor, string, time.Time) (int64, error) {
	return 0, nil
}
func (s *fakeStore) GetNextPending(context.Context, store.Executor) (*domain.Task, error) {
	return nil, domain.ErrTaskNotFound
}
func (s *fakeStore) InsertExecution(context.Context, store.Executor, *domain.Execution) error {
	return nil
}
func (s *fakeStore) ListTasks(ctx context.Context, exec store.Executor) ([]*domain.Task, error) {
	if s.listTasks != nil {
		return s.listTasks(ctx, exec)
	}
	return nil, nil
}
func (s *fakeStore) Ping(context.Context) error { return nil }
func (s *fakeStore) Close() error               { return nil }

type fakeActionExecutor struct{}

func (fakeActionExecutor) Execute(context.Context, *domain.Task) (map[string]any, error) {
	return map[string]any{"status": 200}, nil
}

type fakeNotifier struct{}

func (fakeNotifier) NotifyFailure(context.Context, *domain.Task, *domain.Execution) {}

func newTestHandler(st *fakeStore) *handler.TaskHandler {
	svc := service.New(st, fakeActionExecutor{}, fakeNotifier{}, make(chan struct{}, 1), slog.Default())
	return handler.NewTaskHandler(svc, slog.Default())
}

func init() {
	gin.SetMode(gin.TestMode)
}

func TestCreate_ValidBody_Returns200WithID(t *testing.T) {
	st := &fakeStore{}
	h := newTestHandler(st)

	body := `{"name":"ping","task_type":"once","trigger_at":"2099-01-01T00:00:00Z"}`
	req := httptest.NewRequest(http.MethodPost, "/tasks", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	c, _ := gin.CreateTestContext(rec)
	c.Request = req
	h.Create(c)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body = %s", rec.Code, rec.Body.String())
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["status"] != "created" {
		t.Errorf("status field = %v, want \"created\"", resp["status"])
	}
	if resp["id"] == "" || resp["id"] == nil {
		t.Error("expected a non-empty id")
	}
}

func TestCreate_InvalidTaskType_Returns400(t *testing.T) {
	h := newTestHandler(&fakeStore{})

	body := `{"name":"ping","task_type":"daily","trigger_at":"2099-01-01T00:00:00Z"}`
	req := httptest.NewRequest(http.MethodPost, "/tasks", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	c, _ := gin.CreateTestContext(rec)
	c.Request = req
	h.Create(c)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400; body = %s", rec.Code, rec.Body.String())
	}
}

func TestDelete_NotFound_Returns404(t *testing.T) {
	st := &fakeStore{
		softDeleteTask: func(context.Context, store.Executor, string) (int64, error) { return 0, nil },
	}
	h := newTestHandler(st)

	req := httptest.NewRequest(http.MethodDelete, "/tasks/missing", nil)
	rec := httptest.NewRecorder()

	c, _ := gin.CreateTestContext(rec)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "missing"}}
	h.Delete(c)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404; body = %s", rec.Code, rec.Body.String())
	}
}

func TestDelete_Found_Returns204(t *testing.T) {
	st := &fakeStore{
		softDeleteTask: func(context.Context, store.Executor, string) (int64, error) { return 1, nil },
	}
	h := newTestHandler(st)

	req := httptest.NewRequest(http.MethodDelete, "/tasks/present", nil)
	rec := httptest.NewRecorder()

	c, _ := gin.CreateTestContext(rec)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "present"}}
	h.Delete(c)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204; body = %s", rec.Code, rec.Body.String())
	}
	if rec.Body.Len() != 0 {
		t.Errorf("expected empty body, got %q", rec.Body.String())
	}
}

func TestList_ReturnsTaskSummariesFromStore(t *testing.T) {
	deletedAt := time.Now()
	live := domain.NewOnce("t-1", "one", time.Now(), nil)
	retired := domain.NewOnce("t-2", "two", time.Now(), nil)
	retired.DeletedAt = &deletedAt
	tasks := []*domain.Task{live, retired}
	st := &fakeStore{
		listTasks: func(context.Context, store.Executor) ([]*domain.Task, error) { return tasks, nil },
	}
	h := newTestHandler(st)

	req := httptest.NewRequest(http.MethodGet, "/tasks", nil)
	rec := httptest.NewRecorder()

	c, _ := gin.CreateTestContext(rec)
	c.Request = req
	h.List(c)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body = %s", rec.Code, rec.Body.String())
	}

	var summaries []struct {
		ID        string     `json:"id"`
		Name      string     `json:"name"`
		Status    string     `json:"status"`
		DeletedAt *time.Time `json:"deleted_at,omitempty"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &summaries); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("expected 2 summaries, got %d", len(summaries))
	}
	if summaries[0].Status != "active" || summaries[0].DeletedAt != nil {
		t.Errorf("live task summary = %+v, want active/no deleted_at", summaries[0])
	}
	if summaries[1].Status != "deleted" || summaries[1].DeletedAt == nil {
		t.Errorf("retired task summary = %+v, want deleted/deleted_at set", summaries[1])
	}
}
