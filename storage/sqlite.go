// SQLite-backed Store implementation.
//
// Information Hiding:
// - SQLite connection management hidden behind interface
// - Schema and migration details encapsulated
// - Thread-safe via sql.DB's built-in connection pooling

package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"maia/model"
)

// SqliteStore implements Store using a SQLite database file.
// Thread-safe: sql.DB handles connection pooling and concurrent access.
type SqliteStore struct {
	db *sql.DB
}

// OpenSqlite opens or creates a SQLite database at the given path.
// Creates parent directories if they don't exist.
func OpenSqlite(path string) (*SqliteStore, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	store := &SqliteStore{db: db}
	if err := store.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// NewSqliteInMemory creates an in-memory database (useful for testing).
func NewSqliteInMemory() (*SqliteStore, error) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory SQLite: %w", err)
	}

	store := &SqliteStore{db: db}
	if err := store.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *SqliteStore) Close() error {
	return s.db.Close()
}

func (s *SqliteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS tasks (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			description TEXT,
			priority TEXT NOT NULL,
			status TEXT NOT NULL,
			due_date TEXT,
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_tasks_status
		ON tasks(status, created_at DESC);

		CREATE TABLE IF NOT EXISTS goals (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			description TEXT,
			target_date TEXT,
			created_at INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS events (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			starts_at TEXT NOT NULL,
			ends_at TEXT,
			location TEXT,
			created_at INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_events_starts
		ON events(starts_at);

		CREATE TABLE IF NOT EXISTS messages (
			id TEXT PRIMARY KEY,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			created_at INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_messages_created
		ON messages(created_at DESC);
	`

	_, err := s.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// CreateTask persists a new task.
func (s *SqliteStore) CreateTask(ctx context.Context, task model.Task) (model.Task, error) {
	now := time.Now()
	task.ID = uuid.New().String()
	task.CreatedAt = now
	task.UpdatedAt = now
	if task.Status == "" {
		task.Status = model.TaskPending
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tasks (id, title, description, priority, status, due_date, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		task.ID, task.Title, nullable(task.Description), string(task.Priority),
		string(task.Status), nullable(task.DueDate), now.Unix(), now.Unix(),
	)
	if err != nil {
		return model.Task{}, fmt.Errorf("failed to insert task: %w", err)
	}

	return task, nil
}

// GetTask fetches a task by id.
func (s *SqliteStore) GetTask(ctx context.Context, id string) (model.Task, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, title, description, priority, status, due_date, created_at, updated_at
		FROM tasks WHERE id = ?`, id)

	task, err := scanTask(row)
	if err == sql.ErrNoRows {
		return model.Task{}, ErrNotFound
	}
	if err != nil {
		return model.Task{}, fmt.Errorf("failed to get task: %w", err)
	}
	return task, nil
}

// UpdateTask overwrites an existing task's mutable fields.
func (s *SqliteStore) UpdateTask(ctx context.Context, task model.Task) (model.Task, error) {
	task.UpdatedAt = time.Now()

	res, err := s.db.ExecContext(ctx, `
		UPDATE tasks SET title = ?, description = ?, priority = ?, status = ?, due_date = ?, updated_at = ?
		WHERE id = ?`,
		task.Title, nullable(task.Description), string(task.Priority),
		string(task.Status), nullable(task.DueDate), task.UpdatedAt.Unix(), task.ID,
	)
	if err != nil {
		return model.Task{}, fmt.Errorf("failed to update task: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return model.Task{}, fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return model.Task{}, ErrNotFound
	}

	return task, nil
}

// ListTasks returns tasks matching the filter, newest first.
func (s *SqliteStore) ListTasks(ctx context.Context, filter TaskFilter) ([]model.Task, error) {
	query := `
		SELECT id, title, description, priority, status, due_date, created_at, updated_at
		FROM tasks WHERE 1=1`
	var args []any

	if filter.Status != "" {
		query += " AND status = ?"
		args = append(args, string(filter.Status))
	}
	if filter.Priority != "" {
		query += " AND priority = ?"
		args = append(args, string(filter.Priority))
	}
	query += " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()

	tasks := []model.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, task)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tasks: %w", err)
	}

	return tasks, nil
}

// DeleteTask removes a task.
func (s *SqliteStore) DeleteTask(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM tasks WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateGoal persists a new goal.
func (s *SqliteStore) CreateGoal(ctx context.Context, goal model.Goal) (model.Goal, error) {
	goal.ID = uuid.New().String()
	goal.CreatedAt = time.Now()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO goals (id, title, description, target_date, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		goal.ID, goal.Title, nullable(goal.Description), nullable(goal.TargetDate), goal.CreatedAt.Unix(),
	)
	if err != nil {
		return model.Goal{}, fmt.Errorf("failed to insert goal: %w", err)
	}

	return goal, nil
}

// ListGoals returns all goals, newest first.
func (s *SqliteStore) ListGoals(ctx context.Context) ([]model.Goal, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, description, target_date, created_at
		FROM goals ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query goals: %w", err)
	}
	defer rows.Close()

	goals := []model.Goal{}
	for rows.Next() {
		var goal model.Goal
		var description, targetDate sql.NullString
		var createdAt int64
		if err := rows.Scan(&goal.ID, &goal.Title, &description, &targetDate, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan goal: %w", err)
		}
		goal.Description = description.String
		goal.TargetDate = targetDate.String
		goal.CreatedAt = time.Unix(createdAt, 0)
		goals = append(goals, goal)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating goals: %w", err)
	}

	return goals, nil
}

// CreateEvent persists a new calendar event.
func (s *SqliteStore) CreateEvent(ctx context.Context, event model.Event) (model.Event, error) {
	event.ID = uuid.New().String()
	event.CreatedAt = time.Now()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO events (id, title, starts_at, ends_at, location, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		event.ID, event.Title, event.StartsAt, nullable(event.EndsAt),
		nullable(event.Location), event.CreatedAt.Unix(),
	)
	if err != nil {
		return model.Event{}, fmt.Errorf("failed to insert event: %w", err)
	}

	return event, nil
}

// ListEvents returns all events ordered by start time.
func (s *SqliteStore) ListEvents(ctx context.Context) ([]model.Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, starts_at, ends_at, location, created_at
		FROM events ORDER BY starts_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	events := []model.Event{}
	for rows.Next() {
		var event model.Event
		var endsAt, location sql.NullString
		var createdAt int64
		if err := rows.Scan(&event.ID, &event.Title, &event.StartsAt, &endsAt, &location, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		event.EndsAt = endsAt.String
		event.Location = location.String
		event.CreatedAt = time.Unix(createdAt, 0)
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating events: %w", err)
	}

	return events, nil
}

// SaveMessage archives a dialogue message.
func (s *SqliteStore) SaveMessage(ctx context.Context, msg model.StoredMessage) error {
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO messages (id, role, content, created_at)
		VALUES (?, ?, ?, ?)`,
		msg.ID, msg.Role, msg.Content, msg.CreatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}
	return nil
}

// RecentMessages returns up to limit archived messages, newest first.
func (s *SqliteStore) RecentMessages(ctx context.Context, limit int) ([]model.StoredMessage, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, role, content, created_at
		FROM messages ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	messages := []model.StoredMessage{}
	for rows.Next() {
		var msg model.StoredMessage
		var createdAt int64
		if err := rows.Scan(&msg.ID, &msg.Role, &msg.Content, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		msg.CreatedAt = time.Unix(0, createdAt)
		messages = append(messages, msg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating messages: %w", err)
	}

	return messages, nil
}

// scanner abstracts *sql.Row and *sql.Rows for shared scan code.
type scanner interface {
	Scan(dest ...any) error
}

func scanTask(row scanner) (model.Task, error) {
	var task model.Task
	var description, dueDate sql.NullString
	var priority, status string
	var createdAt, updatedAt int64

	err := row.Scan(&task.ID, &task.Title, &description, &priority, &status, &dueDate, &createdAt, &updatedAt)
	if err != nil {
		return model.Task{}, err
	}

	task.Description = description.String
	task.DueDate = dueDate.String
	task.Priority = model.Priority(priority)
	task.Status = model.TaskStatus(status)
	task.CreatedAt = time.Unix(createdAt, 0)
	task.UpdatedAt = time.Unix(updatedAt, 0)
	return task, nil
}

// nullable converts empty strings to NULL for optional columns.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// Verify SqliteStore implements Store
var _ Store = (*SqliteStore)(nil)
