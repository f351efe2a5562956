// Package notifier is the best-effort side channel that alerts an operator
// when a task's ActionExecutor reports failure. It never participates in
// the ProcessTask transaction; its own errors are only logged.
package notifier

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/avbraun/durasched/internal/domain"
	"github.com/resend/resend-go/v2"
)

// Notifier is notified once per failed task execution.
type Notifier interface {
	NotifyFailure(ctx context.Context, task *domain.Task, execution *domain.Execution)
}

// LogNotifier logs the failure instead of emailing it — used when alert
// email is not configured (the default).
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.With("component", "notifier")}
}

func (n *LogNotifier) NotifyFailure(_ context.Context, task *domain.Task, execution *domain.Execution) {
	n.logger.Warn("task execution failed",
		"task_id", task.ID,
		"task_name", task.Name,
		"execution_id", execution.ID,
		"output", execution.Output,
	)
}

// ResendNotifier emails ALERT_TO via the Resend API whenever a task fails.
type ResendNotifier struct {
	client *resend.Client
	from   string
	to     string
	logger *slog.Logger
}

func NewResendNotifier(apiKey, from, to string, logger *slog.Logger) *ResendNotifier {
	return &ResendNotifier{
		client: resend.NewClient(apiKey),
		from:   from,
		to:     to,
		logger: logger.With("component", "notifier"),
	}
}

func (n *ResendNotifier) NotifyFailure(ctx context.Context, task *domain.Task, execution *domain.Execution) {
	subject := fmt.Sprintf("Task %q failed", task.Name)
	body := fmt.Sprintf(
		`<p>Task <b>%s</b> (%s) failed at %s.</p><pre>%v</pre>`,
		task.Name, task.ID, execution.ExecutedAt.Format("2006-01-02T15:04:05Z07:00"), execution.Output,
	)

	params := &resend.SendEmailRequest{
		From:    n.from,
		To:      []string{n.to},
		Subject: subject,
		Html:    body,
	}
	if _, err := n.client.Emails.SendWithContext(ctx, params); err != nil {
		n.logger.Error("send failure alert", "task_id", task.ID, "error", err)
	}
}

// New returns a ResendNotifier when apiKey/from/to are all set, otherwise a
// LogNotifier.
func New(apiKey, from, to string, logger *slog.Logger) Notifier {
	if apiKey == "" || from == "" || to == "" {
		return NewLogNotifier(logger)
	}
	return NewResendNotifier(apiKey, from, to, logger)
}
