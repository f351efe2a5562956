package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/avbraun/durasched/config"
	"github.com/avbraun/durasched/internal/dispatcher"
	"github.com/avbraun/durasched/internal/executor"
	"github.com/avbraun/durasched/internal/health"
	ctxlog "github.com/avbraun/durasched/internal/log"
	"github.com/avbraun/durasched/internal/metrics"
	"github.com/avbraun/durasched/internal/notifier"
	"github.com/avbraun/durasched/internal/service"
	"github.com/avbraun/durasched/internal/store/sqlite"
	httptransport "github.com/avbraun/durasched/internal/transport/http"
	"github.com/avbraun/durasched/internal/transport/http/handler"
	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := newLogger(cfg.AppEnv, cfg.SlogLevel())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	st, err := sqlite.New(ctx, cfg.DatabaseURL)
	if err != nil {
		stop()
		log.Fatalf("db: %v", err)
	}
	defer st.Close()

	logger.Info("db connected", "database_url", cfg.DatabaseURL)

	metrics.Register()
	checker := health.NewChecker(st, logger, prometheus.DefaultRegisterer)

	notif := notifier.New(cfg.AlertResendAPIKey, cfg.AlertFrom, cfg.AlertTo, logger)
	exec := executor.New()

	// Capacity 1: a dropped wake-up only delays pickup until the
	// dispatcher's idle-poll timer fires next, it never loses the task.
	wake := make(chan struct{}, 1)

	svc := service.New(st, exec, notif, wake, logger)

	disp := dispatcher.New(st, svc, wake, logger,
		time.Duration(cfg.DispatcherIdleIntervalSec)*time.Second,
		time.Duration(cfg.DispatcherErrorBackoffSec)*time.Second,
	)
	go disp.Run(ctx)

	taskHandler := handler.NewTaskHandler(svc, logger)

	srv := http.Server{
		Addr:    ":" + cfg.Port,
		Handler: httptransport.NewRouter(logger, taskHandler, []byte(cfg.AdminAuthToken)),
	}

	metricsSrv := metrics.NewServer(":"+cfg.MetricsPort, checker)

	go func() {
		logger.Info("server started", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	go func() {
		logger.Info("metrics server started", "port", cfg.MetricsPort)
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", "error", err)
		}
	}()

	<-ctx.Done()
	stop()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", "error", err)
	}
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics server shutdown", "error", err)
	}
}

func newLogger(env string, level slog.Level) *slog.Logger {
	var inner slog.Handler
	if env != "production" {
		inner = tint.NewHandler(os.Stdout, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
		})
	} else {
		inner = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	}
	return slog.New(ctxlog.NewContextHandler(inner))
}
