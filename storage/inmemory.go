// In-memory Store implementation.
//
// Information Hiding:
// - Slice/map storage structure hidden from users
// - Thread-safe access via RWMutex hidden behind interface
// - Suitable for testing and ephemeral sessions

package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"maia/model"
)

// InMemoryStore implements Store using in-process collections.
// Data is lost when the process terminates.
type InMemoryStore struct {
	mu       sync.RWMutex
	tasks    map[string]model.Task
	goals    map[string]model.Goal
	events   map[string]model.Event
	messages []model.StoredMessage
}

// NewInMemoryStore creates a new in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		tasks:  make(map[string]model.Task),
		goals:  make(map[string]model.Goal),
		events: make(map[string]model.Event),
	}
}

// CreateTask persists a new task.
func (s *InMemoryStore) CreateTask(ctx context.Context, task model.Task) (model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	task.ID = uuid.New().String()
	task.CreatedAt = now
	task.UpdatedAt = now
	if task.Status == "" {
		task.Status = model.TaskPending
	}
	s.tasks[task.ID] = task
	return task, nil
}

// GetTask fetches a task by id.
func (s *InMemoryStore) GetTask(ctx context.Context, id string) (model.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	task, ok := s.tasks[id]
	if !ok {
		return model.Task{}, ErrNotFound
	}
	return task, nil
}

// UpdateTask overwrites an existing task's mutable fields.
func (s *InMemoryStore) UpdateTask(ctx context.Context, task model.Task) (model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.tasks[task.ID]
	if !ok {
		return model.Task{}, ErrNotFound
	}
	task.CreatedAt = existing.CreatedAt
	task.UpdatedAt = time.Now()
	s.tasks[task.ID] = task
	return task, nil
}

// ListTasks returns tasks matching the filter, newest first.
func (s *InMemoryStore) ListTasks(ctx context.Context, filter TaskFilter) ([]model.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tasks := []model.Task{}
	for _, task := range s.tasks {
		if filter.Status != "" && task.Status != filter.Status {
			continue
		}
		if filter.Priority != "" && task.Priority != filter.Priority {
			continue
		}
		tasks = append(tasks, task)
	}

	sort.Slice(tasks, func(i, j int) bool {
		return tasks[i].CreatedAt.After(tasks[j].CreatedAt)
	})

	if filter.Limit > 0 && len(tasks) > filter.Limit {
		tasks = tasks[:filter.Limit]
	}
	return tasks, nil
}

// DeleteTask removes a task.
func (s *InMemoryStore) DeleteTask(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tasks[id]; !ok {
		return ErrNotFound
	}
	delete(s.tasks, id)
	return nil
}

// CreateGoal persists a new goal.
func (s *InMemoryStore) CreateGoal(ctx context.Context, goal model.Goal) (model.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	goal.ID = uuid.New().String()
	goal.CreatedAt = time.Now()
	s.goals[goal.ID] = goal
	return goal, nil
}

// ListGoals returns all goals, newest first.
func (s *InMemoryStore) ListGoals(ctx context.Context) ([]model.Goal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	goals := []model.Goal{}
	for _, goal := range s.goals {
		goals = append(goals, goal)
	}
	sort.Slice(goals, func(i, j int) bool {
		return goals[i].CreatedAt.After(goals[j].CreatedAt)
	})
	return goals, nil
}

// CreateEvent persists a new calendar event.
func (s *InMemoryStore) CreateEvent(ctx context.Context, event model.Event) (model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	event.ID = uuid.New().String()
	event.CreatedAt = time.Now()
	s.events[event.ID] = event
	return event, nil
}

// ListEvents returns all events ordered by start time.
func (s *InMemoryStore) ListEvents(ctx context.Context) ([]model.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	events := []model.Event{}
	for _, event := range s.events {
		events = append(events, event)
	}
	sort.Slice(events, func(i, j int) bool {
		return events[i].StartsAt < events[j].StartsAt
	})
	return events, nil
}

// SaveMessage archives a dialogue message.
func (s *InMemoryStore) SaveMessage(ctx context.Context, msg model.StoredMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}
	s.messages = append(s.messages, msg)
	return nil
}

// RecentMessages returns up to limit archived messages, newest first.
func (s *InMemoryStore) RecentMessages(ctx context.Context, limit int) ([]model.StoredMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.messages)
	if limit > n {
		limit = n
	}

	messages := make([]model.StoredMessage, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		messages = append(messages, s.messages[i])
	}
	return messages, nil
}

// Close is a no-op for the in-memory store.
func (s *InMemoryStore) Close() error {
	return nil
}

// Verify InMemoryStore implements Store
var _ Store = (*InMemoryStore)(nil)
