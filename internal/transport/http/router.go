package httptransport

import (
	"log/slog"

	"github.com/avbraun/durasched/internal/transport/http/handler"
	"github.com/avbraun/durasched/internal/transport/http/middleware"
	"github.com/gin-gonic/gin"
	sloggin "github.com/samber/slog-gin"
)

// NewRouter builds the API server's routes: the tasks resource, with its
// mutating routes (POST, DELETE) gated behind a bearer token when adminKey
// is non-empty. GET /tasks is never gated.
func NewRouter(logger *slog.Logger, taskHandler *handler.TaskHandler, adminKey []byte) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Security())
	r.Use(sloggin.New(logger))
	r.Use(middleware.Metrics())

	auth := middleware.MaybeAuth(adminKey)

	tasks := r.Group("/tasks")
	tasks.GET("", taskHandler.List)
	tasks.POST("", auth, taskHandler.Create)
	tasks.DELETE("/:id", auth, taskHandler.Delete)

	return r
}
