package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/avbraun/durasched/internal/domain"
	"github.com/avbraun/durasched/internal/service"
	"github.com/gin-gonic/gin"
)

// TaskHandler exposes the single tasks resource: create, list, delete.
type TaskHandler struct {
	service *service.Service
	logger  *slog.Logger
}

func NewTaskHandler(svc *service.Service, logger *slog.Logger) *TaskHandler {
	return &TaskHandler{service: svc, logger: logger.With("component", "task_handler")}
}

type createTaskRequest struct {
	Name            string         `json:"name"             binding:"required"`
	TaskType        string         `json:"task_type"        binding:"required,oneof=once interval"`
	TriggerAt       time.Time      `json:"trigger_at"       binding:"required"`
	IntervalSeconds *int64         `json:"interval_seconds"`
	Payload         map[string]any `json:"payload"`
}

// Create handles POST /tasks.
func (h *TaskHandler) Create(ctx *gin.Context) {
	var req createTaskRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id, err := h.service.CreateTask(ctx.Request.Context(), service.CreateTaskInput{
		Name:            req.Name,
		TaskType:        req.TaskType,
		TriggerAt:       req.TriggerAt,
		IntervalSeconds: req.IntervalSeconds,
		Payload:         req.Payload,
	})
	if err != nil {
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": verr.Error()})
			return
		}
		h.logger.Error("create task", "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"status": "created", "id": id})
}

// taskSummary is the list-view projection of a Task: enough to identify it
// and tell live from retired, without the full payload/trigger detail.
type taskSummary struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Status    string     `json:"status"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

// List handles GET /tasks.
func (h *TaskHandler) List(ctx *gin.Context) {
	tasks, err := h.service.ListTasks(ctx.Request.Context())
	if err != nil {
		h.logger.Error("list tasks", "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	summaries := make([]taskSummary, 0, len(tasks))
	for _, t := range tasks {
		status := "active"
		if t.Retired() {
			status = "deleted"
		}
		summaries = append(summaries, taskSummary{
			ID:        t.ID,
			Name:      t.Name,
			Status:    status,
			DeletedAt: t.DeletedAt,
		})
	}

	ctx.JSON(http.StatusOK, summaries)
}

// Delete handles DELETE /tasks/:id.
func (h *TaskHandler) Delete(ctx *gin.Context) {
	id := ctx.Param("id")

	if err := h.service.DeleteTask(ctx.Request.Context(), id); err != nil {
		if errors.Is(err, domain.ErrTaskNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": errTaskNotFound})
			return
		}
		h.logger.Error("delete task", "task_id", id, "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	ctx.Status(http.StatusNoContent)
}
