package domain

import (
	"errors"
	"time"
)

var (
	ErrTaskNotFound = errors.New("task not found")
)

// Kind distinguishes a one-shot task from a recurring one.
type Kind string

const (
	KindOnce     Kind = "once"
	KindInterval Kind = "interval"
)

// Task is a persistent scheduling record. A live Task (DeletedAt == nil) is
// eligible for dispatch once TriggerAt has passed; retirement only ever sets
// DeletedAt, it never clears it and the row is never removed.
type Task struct {
	ID              string         `json:"id"`
	Name            string         `json:"name"`
	Kind            Kind           `json:"kind"`
	TriggerAt       time.Time      `json:"triggerAt"`
	IntervalSeconds *int64         `json:"intervalSeconds,omitempty"`
	Payload         map[string]any `json:"payload"`
	DeletedAt       *time.Time     `json:"deletedAt,omitempty"`
	CreatedAt       time.Time      `json:"createdAt"`
}

// Retired reports whether the task has been soft-deleted.
func (t *Task) Retired() bool {
	return t.DeletedAt != nil
}

// NewOnce builds a Task that fires exactly once at triggerAt.
func NewOnce(id, name string, triggerAt time.Time, payload map[string]any) *Task {
	return &Task{
		ID:        id,
		Name:      name,
		Kind:      KindOnce,
		TriggerAt: triggerAt,
		Payload:   payload,
	}
}

// NewInterval builds a Task that fires at triggerAt and reschedules itself
// every intervalSeconds thereafter (wall-clock from completion, not from the
// originally scheduled trigger — see Service.ProcessTask).
func NewInterval(id, name string, triggerAt time.Time, intervalSeconds int64, payload map[string]any) *Task {
	return &Task{
		ID:              id,
		Name:            name,
		Kind:            KindInterval,
		TriggerAt:       triggerAt,
		IntervalSeconds: &intervalSeconds,
		Payload:         payload,
	}
}
