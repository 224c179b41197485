// Package storage provides persistence for tasks, goals, events and
// archived messages.
//
// Information Hiding:
// - Backend choice (SQLite vs in-memory) hidden behind the Store interface
// - Schema and migration details encapsulated
// - Only capability executors reach this surface; the engine core never does
package storage

import (
	"context"
	"errors"

	"maia/model"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("storage: record not found")

// TaskFilter narrows ListTasks results. Zero values mean "any".
type TaskFilter struct {
	Status   model.TaskStatus
	Priority model.Priority
	Limit    int
}

// Store is the narrow CRUD surface consumed by capability executors.
type Store interface {
	// CreateTask persists a new task and returns it with id and timestamps set.
	CreateTask(ctx context.Context, task model.Task) (model.Task, error)

	// GetTask fetches a task by id.
	GetTask(ctx context.Context, id string) (model.Task, error)

	// UpdateTask overwrites an existing task's mutable fields.
	UpdateTask(ctx context.Context, task model.Task) (model.Task, error)

	// ListTasks returns tasks matching the filter, newest first.
	ListTasks(ctx context.Context, filter TaskFilter) ([]model.Task, error)

	// DeleteTask removes a task.
	DeleteTask(ctx context.Context, id string) error

	// CreateGoal persists a new goal.
	CreateGoal(ctx context.Context, goal model.Goal) (model.Goal, error)

	// ListGoals returns all goals, newest first.
	ListGoals(ctx context.Context) ([]model.Goal, error)

	// CreateEvent persists a new calendar event.
	CreateEvent(ctx context.Context, event model.Event) (model.Event, error)

	// ListEvents returns all events ordered by start time.
	ListEvents(ctx context.Context) ([]model.Event, error)

	// SaveMessage archives a dialogue message.
	SaveMessage(ctx context.Context, msg model.StoredMessage) error

	// RecentMessages returns up to limit archived messages, newest first.
	RecentMessages(ctx context.Context, limit int) ([]model.StoredMessage, error)

	// Close releases backend resources.
	Close() error
}
