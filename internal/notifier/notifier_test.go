package notifier_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/avbraun/durasched/internal/domain"
	"github.com/avbraun/durasched/internal/notifier"
)

func TestNew_NoCredentials_ReturnsLogNotifier(t *testing.T) {
	n := notifier.New("", "", "", slog.Default())
	if _, ok := n.(*notifier.LogNotifier); !ok {
		t.Fatalf("expected *LogNotifier when credentials are unset, got %T", n)
	}
}

func TestNew_PartialCredentials_ReturnsLogNotifier(t *testing.T) {
	n := notifier.New("key", "from@example.com", "", slog.Default())
	if _, ok := n.(*notifier.LogNotifier); !ok {
		t.Fatalf("expected *LogNotifier when \"to\" is unset, got %T", n)
	}
}

func TestNew_AllCredentials_ReturnsResendNotifier(t *testing.T) {
	n := notifier.New("key", "from@example.com", "to@example.com", slog.Default())
	if _, ok := n.(*notifier.ResendNotifier); !ok {
		t.Fatalf("expected *ResendNotifier, got %T", n)
	}
}

func TestLogNotifier_NotifyFailure_DoesNotPanic(t *testing.T) {
	n := notifier.NewLogNotifier(slog.Default())
	task := domain.NewOnce("t-1", "ping", time.Now(), nil)
	exec := domain.NewExecution("e-1", task.ID, map[string]any{"error": "boom"}, domain.StatusFailure)

	n.NotifyFailure(context.Background(), task, exec)
}
