// Application entities managed through the persistent store.
//
// These are the records that capability executors create and update on the
// user's behalf. The core never touches them directly.

package model

import (
	"fmt"
	"strings"
	"time"
)

// Priority levels for tasks.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// ParsePriority parses a string into a Priority.
func ParsePriority(s string) (Priority, error) {
	switch strings.ToLower(s) {
	case "high":
		return PriorityHigh, nil
	case "medium":
		return PriorityMedium, nil
	case "low":
		return PriorityLow, nil
	default:
		return "", fmt.Errorf("unknown priority: %s", s)
	}
}

// TaskStatus values for task lifecycle.
type TaskStatus string

const (
	TaskPending    TaskStatus = "pending"
	TaskInProgress TaskStatus = "in_progress"
	TaskDone       TaskStatus = "done"
)

// Task is a to-do item created by the assistant.
type Task struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Priority    Priority   `json:"priority"`
	Status      TaskStatus `json:"status"`
	DueDate     string     `json:"due_date,omitempty"` // YYYY-MM-DD
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Goal is a longer-horizon objective tasks can roll up to.
type Goal struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	TargetDate  string    `json:"target_date,omitempty"` // YYYY-MM-DD
	CreatedAt   time.Time `json:"created_at"`
}

// Event is a calendar entry.
type Event struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	StartsAt  string    `json:"starts_at"` // ISO-8601
	EndsAt    string    `json:"ends_at,omitempty"`
	Location  string    `json:"location,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// StoredMessage is an archived dialogue message.
type StoredMessage struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}
