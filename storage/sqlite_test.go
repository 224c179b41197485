package storage

import (
	"context"
	"errors"
	"testing"

	"maia/model"
)

func TestSqliteTaskCRUD(t *testing.T) {
	store, err := NewSqliteInMemory()
	if err != nil {
		t.Fatalf("NewSqliteInMemory failed: %v", err)
	}
	defer store.Close()
	ctx := context.Background()

	created, err := store.CreateTask(ctx, model.Task{
		Title:    "Write report",
		Priority: model.PriorityHigh,
		DueDate:  "2026-09-15",
	})
	if err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected generated id")
	}
	if created.Status != model.TaskPending {
		t.Errorf("status = %q, want pending default", created.Status)
	}

	got, err := store.GetTask(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetTask failed: %v", err)
	}
	if got.Title != "Write report" || got.DueDate != "2026-09-15" {
		t.Errorf("got %+v", got)
	}

	got.Status = model.TaskDone
	updated, err := store.UpdateTask(ctx, got)
	if err != nil {
		t.Fatalf("UpdateTask failed: %v", err)
	}
	if updated.Status != model.TaskDone {
		t.Errorf("status = %q", updated.Status)
	}

	if err := store.DeleteTask(ctx, created.ID); err != nil {
		t.Fatalf("DeleteTask failed: %v", err)
	}
	if _, err := store.GetTask(ctx, created.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestSqliteListTasksFilter(t *testing.T) {
	store, err := NewSqliteInMemory()
	if err != nil {
		t.Fatalf("NewSqliteInMemory failed: %v", err)
	}
	defer store.Close()
	ctx := context.Background()

	for _, task := range []model.Task{
		{Title: "a", Priority: model.PriorityHigh},
		{Title: "b", Priority: model.PriorityLow},
		{Title: "c", Priority: model.PriorityHigh, Status: model.TaskDone},
	} {
		if _, err := store.CreateTask(ctx, task); err != nil {
			t.Fatalf("CreateTask failed: %v", err)
		}
	}

	high, err := store.ListTasks(ctx, TaskFilter{Priority: model.PriorityHigh})
	if err != nil {
		t.Fatalf("ListTasks failed: %v", err)
	}
	if len(high) != 2 {
		t.Errorf("expected 2 high-priority tasks, got %d", len(high))
	}

	done, err := store.ListTasks(ctx, TaskFilter{Status: model.TaskDone})
	if err != nil {
		t.Fatalf("ListTasks failed: %v", err)
	}
	if len(done) != 1 || done[0].Title != "c" {
		t.Errorf("done = %+v", done)
	}
}

func TestSqliteGoalsAndEvents(t *testing.T) {
	store, err := NewSqliteInMemory()
	if err != nil {
		t.Fatalf("NewSqliteInMemory failed: %v", err)
	}
	defer store.Close()
	ctx := context.Background()

	if _, err := store.CreateGoal(ctx, model.Goal{Title: "Run a marathon", TargetDate: "2027-04-01"}); err != nil {
		t.Fatalf("CreateGoal failed: %v", err)
	}
	goals, err := store.ListGoals(ctx)
	if err != nil {
		t.Fatalf("ListGoals failed: %v", err)
	}
	if len(goals) != 1 || goals[0].Title != "Run a marathon" {
		t.Errorf("goals = %+v", goals)
	}

	if _, err := store.CreateEvent(ctx, model.Event{Title: "Standup", StartsAt: "2026-09-01T09:00:00Z"}); err != nil {
		t.Fatalf("CreateEvent failed: %v", err)
	}
	if _, err := store.CreateEvent(ctx, model.Event{Title: "Dinner", StartsAt: "2026-08-31T19:00:00Z"}); err != nil {
		t.Fatalf("CreateEvent failed: %v", err)
	}
	events, err := store.ListEvents(ctx)
	if err != nil {
		t.Fatalf("ListEvents failed: %v", err)
	}
	if len(events) != 2 || events[0].Title != "Dinner" {
		t.Errorf("events not ordered by start: %+v", events)
	}
}

func TestSqliteMessages(t *testing.T) {
	store, err := NewSqliteInMemory()
	if err != nil {
		t.Fatalf("NewSqliteInMemory failed: %v", err)
	}
	defer store.Close()
	ctx := context.Background()

	for _, content := range []string{"first", "second", "third"} {
		if err := store.SaveMessage(ctx, model.StoredMessage{Role: "user", Content: content}); err != nil {
			t.Fatalf("SaveMessage failed: %v", err)
		}
	}

	recent, err := store.RecentMessages(ctx, 2)
	if err != nil {
		t.Fatalf("RecentMessages failed: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(recent))
	}
	if recent[0].Content != "third" {
		t.Errorf("newest first expected, got %q", recent[0].Content)
	}
}

func TestInMemoryStoreMatchesContract(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	created, err := store.CreateTask(ctx, model.Task{Title: "x", Priority: model.PriorityMedium})
	if err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}

	created.Title = "y"
	if _, err := store.UpdateTask(ctx, created); err != nil {
		t.Fatalf("UpdateTask failed: %v", err)
	}

	got, err := store.GetTask(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetTask failed: %v", err)
	}
	if got.Title != "y" {
		t.Errorf("title = %q", got.Title)
	}

	if _, err := store.UpdateTask(ctx, model.Task{ID: "missing"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}
