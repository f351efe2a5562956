// Package dispatcher runs the single-threaded poll-sleep-select loop that
// drives every task to execution: re-query the store for the next pending
// task, sleep until it is due (or until woken early), then hand it to the
// Service.
package dispatcher

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/avbraun/durasched/internal/domain"
	"github.com/avbraun/durasched/internal/metrics"
	"github.com/avbraun/durasched/internal/store"
)

// defaultIdlePoll and defaultErrorBackoff are used when New is called with
// a zero duration, so existing callers need not be updated just to pick up
// a new tunable.
const (
	defaultIdlePoll     = time.Hour
	defaultErrorBackoff = 5 * time.Second
)

// processor is satisfied by *service.Service; kept narrow so dispatcher
// tests can fake it without pulling in the whole service package.
type processor interface {
	ProcessTask(ctx context.Context, task *domain.Task) error
}

// Dispatcher owns the scheduling loop. It holds no in-memory queue: every
// wake re-queries the store for the single next-due task, so a crash or
// restart loses no scheduling state.
type Dispatcher struct {
	store      store.Store
	service    processor
	wake       <-chan struct{}
	logger     *slog.Logger
	idlePoll   time.Duration
	errBackoff time.Duration
}

// New builds a Dispatcher. wake is the shared channel Service.CreateTask
// signals on; a nil channel is valid and simply means the loop only ever
// wakes on its own timer. idlePoll and errBackoff of 0 fall back to
// defaultIdlePoll/defaultErrorBackoff.
func New(st store.Store, svc processor, wake <-chan struct{}, logger *slog.Logger, idlePoll, errBackoff time.Duration) *Dispatcher {
	if idlePoll <= 0 {
		idlePoll = defaultIdlePoll
	}
	if errBackoff <= 0 {
		errBackoff = defaultErrorBackoff
	}
	return &Dispatcher{
		store:      st,
		service:    svc,
		wake:       wake,
		logger:     logger.With("component", "dispatcher"),
		idlePoll:   idlePoll,
		errBackoff: errBackoff,
	}
}

// Run blocks until ctx is cancelled, driving the poll-sleep-dispatch cycle.
func (d *Dispatcher) Run(ctx context.Context) {
	d.logger.Info("dispatcher started")
	for {
		select {
		case <-ctx.Done():
			d.logger.Info("dispatcher shut down")
			return
		default:
		}

		start := time.Now()
		sleepFor, task, err := d.poll(ctx)
		if err != nil {
			metrics.DispatcherErrorsTotal.Inc()
			d.logger.Error("poll next pending task", "error", err)
			sleepFor = d.errBackoff
			task = nil
		}

		timer := time.NewTimer(sleepFor)
		select {
		case <-ctx.Done():
			timer.Stop()
			d.logger.Info("dispatcher shut down")
			return
		case <-timer.C:
			if task != nil && !task.TriggerAt.After(time.Now().UTC()) {
				d.dispatch(ctx, task)
			}
		case <-d.wake:
			timer.Stop()
			d.logger.Debug("woken by new task notification")
		}

		metrics.DispatchCycleDuration.Observe(time.Since(start).Seconds())
	}
}

// poll fetches the next pending task and computes how long to sleep before
// it is due. sleepFor is 0 if the task is already due, idlePoll if there is
// no pending task at all.
func (d *Dispatcher) poll(ctx context.Context) (time.Duration, *domain.Task, error) {
	task, err := d.store.GetNextPending(ctx, d.store.Pool())
	if err != nil {
		if errors.Is(err, domain.ErrTaskNotFound) {
			metrics.PendingTasks.Set(0)
			return d.idlePoll, nil, nil
		}
		return 0, nil, err
	}

	metrics.PendingTasks.Set(1)
	now := time.Now().UTC()
	until := task.TriggerAt.Sub(now)
	metrics.NextTriggerSeconds.Set(until.Seconds())
	if until <= 0 {
		return 0, task, nil
	}
	return until, task, nil
}

func (d *Dispatcher) dispatch(ctx context.Context, task *domain.Task) {
	if err := d.service.ProcessTask(ctx, task); err != nil {
		metrics.DispatcherErrorsTotal.Inc()
		d.logger.Error("process task", "task_id", task.ID, "error", err)
	}
}
