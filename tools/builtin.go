// Built-in capabilities backed by the persistent store.
//
// These are the concrete actions the assistant can take: creating and
// updating tasks, goals and calendar events, and replying without side
// effects. All store access happens here, never in the engine core.

package tools

import (
	"context"
	"fmt"

	"maia/model"
	"maia/storage"
)

var priorityValues = []string{"high", "medium", "low"}
var statusValues = []string{"pending", "in_progress", "done"}

// NewCreateTaskCapability creates a task-creating capability over store.
func NewCreateTaskCapability(store storage.Store) Capability {
	return Capability{
		Name:        "create_task",
		Description: "Create a new task for the user.",
		Schema: Schema{
			"title":       {Type: StringField, Required: true, MinLen: 1, MaxLen: 200, Description: "Short task title"},
			"priority":    {Type: StringField, Required: true, Enum: priorityValues, Description: "Task priority"},
			"description": {Type: StringField, MaxLen: 2000, Description: "Longer task details"},
			"due_date":    {Type: StringField, Format: FormatDate, Description: "Due date"},
			"status":      {Type: StringField, Enum: statusValues, Description: "Initial status"},
		},
		Execute: func(ctx context.Context, args map[string]any) (map[string]any, error) {
			task := model.Task{
				Title:       stringArg(args, "title"),
				Description: stringArg(args, "description"),
				Priority:    model.Priority(stringArg(args, "priority")),
				Status:      model.TaskStatus(stringArg(args, "status")),
				DueDate:     stringArg(args, "due_date"),
			}

			created, err := store.CreateTask(ctx, task)
			if err != nil {
				return nil, fmt.Errorf("create task: %w", err)
			}
			return map[string]any{
				"task_id": created.ID,
				"title":   created.Title,
				"status":  string(created.Status),
			}, nil
		},
	}
}

// NewUpdateTaskCapability creates a task-updating capability over store.
func NewUpdateTaskCapability(store storage.Store) Capability {
	return Capability{
		Name:        "update_task",
		Description: "Update an existing task's fields.",
		Schema: Schema{
			"task_id":     {Type: StringField, Required: true, MinLen: 1, Description: "Id of the task to update"},
			"title":       {Type: StringField, MinLen: 1, MaxLen: 200, Description: "New title"},
			"priority":    {Type: StringField, Enum: priorityValues, Description: "New priority"},
			"status":      {Type: StringField, Enum: statusValues, Description: "New status"},
			"description": {Type: StringField, MaxLen: 2000, Description: "New details"},
			"due_date":    {Type: StringField, Format: FormatDate, Description: "New due date"},
		},
		Execute: func(ctx context.Context, args map[string]any) (map[string]any, error) {
			task, err := store.GetTask(ctx, stringArg(args, "task_id"))
			if err != nil {
				// A missing task cannot appear on retry.
				return nil, Fatal(fmt.Errorf("update task: %w", err))
			}

			if v := stringArg(args, "title"); v != "" {
				task.Title = v
			}
			if v := stringArg(args, "priority"); v != "" {
				task.Priority = model.Priority(v)
			}
			if v := stringArg(args, "status"); v != "" {
				task.Status = model.TaskStatus(v)
			}
			if v := stringArg(args, "description"); v != "" {
				task.Description = v
			}
			if v := stringArg(args, "due_date"); v != "" {
				task.DueDate = v
			}

			updated, err := store.UpdateTask(ctx, task)
			if err != nil {
				return nil, fmt.Errorf("update task: %w", err)
			}
			return map[string]any{
				"task_id": updated.ID,
				"status":  string(updated.Status),
			}, nil
		},
	}
}

// NewListTasksCapability creates a task-listing capability over store.
func NewListTasksCapability(store storage.Store) Capability {
	return Capability{
		Name:        "list_tasks",
		Description: "List the user's tasks, optionally filtered.",
		Schema: Schema{
			"status":   {Type: StringField, Enum: statusValues, Description: "Only tasks in this status"},
			"priority": {Type: StringField, Enum: priorityValues, Description: "Only tasks with this priority"},
			"limit":    {Type: IntegerField, Min: Ptr(1.0), Max: Ptr(100.0), Description: "Maximum tasks to return"},
		},
		Execute: func(ctx context.Context, args map[string]any) (map[string]any, error) {
			filter := storage.TaskFilter{
				Status:   model.TaskStatus(stringArg(args, "status")),
				Priority: model.Priority(stringArg(args, "priority")),
			}
			if limit, ok := asFloat(args["limit"]); ok {
				filter.Limit = int(limit)
			}

			tasks, err := store.ListTasks(ctx, filter)
			if err != nil {
				return nil, fmt.Errorf("list tasks: %w", err)
			}

			items := make([]any, 0, len(tasks))
			for _, task := range tasks {
				items = append(items, map[string]any{
					"task_id":  task.ID,
					"title":    task.Title,
					"priority": string(task.Priority),
					"status":   string(task.Status),
					"due_date": task.DueDate,
				})
			}
			return map[string]any{
				"tasks": items,
				"count": len(items),
			}, nil
		},
	}
}

// NewCreateGoalCapability creates a goal-creating capability over store.
func NewCreateGoalCapability(store storage.Store) Capability {
	return Capability{
		Name:        "create_goal",
		Description: "Create a longer-horizon goal for the user.",
		Schema: Schema{
			"title":       {Type: StringField, Required: true, MinLen: 1, MaxLen: 200, Description: "Goal title"},
			"description": {Type: StringField, MaxLen: 2000, Description: "Goal details"},
			"target_date": {Type: StringField, Format: FormatDate, Description: "Target completion date"},
		},
		Execute: func(ctx context.Context, args map[string]any) (map[string]any, error) {
			goal, err := store.CreateGoal(ctx, model.Goal{
				Title:       stringArg(args, "title"),
				Description: stringArg(args, "description"),
				TargetDate:  stringArg(args, "target_date"),
			})
			if err != nil {
				return nil, fmt.Errorf("create goal: %w", err)
			}
			return map[string]any{
				"goal_id": goal.ID,
				"title":   goal.Title,
			}, nil
		},
	}
}

// NewCreateEventCapability creates a calendar-event capability over store.
func NewCreateEventCapability(store storage.Store) Capability {
	return Capability{
		Name:        "create_event",
		Description: "Add an event to the user's calendar.",
		Schema: Schema{
			"title":     {Type: StringField, Required: true, MinLen: 1, MaxLen: 200, Description: "Event title"},
			"starts_at": {Type: StringField, Required: true, Format: FormatDateTime, Description: "Event start"},
			"ends_at":   {Type: StringField, Format: FormatDateTime, Description: "Event end"},
			"location":  {Type: StringField, MaxLen: 500, Description: "Where the event takes place"},
		},
		Execute: func(ctx context.Context, args map[string]any) (map[string]any, error) {
			event, err := store.CreateEvent(ctx, model.Event{
				Title:    stringArg(args, "title"),
				StartsAt: stringArg(args, "starts_at"),
				EndsAt:   stringArg(args, "ends_at"),
				Location: stringArg(args, "location"),
			})
			if err != nil {
				return nil, fmt.Errorf("create event: %w", err)
			}
			return map[string]any{
				"event_id":  event.ID,
				"title":     event.Title,
				"starts_at": event.StartsAt,
			}, nil
		},
	}
}

// NewRespondCapability creates the side-effect-free conversational reply.
func NewRespondCapability() Capability {
	return Capability{
		Name:        "respond",
		Description: "Reply to the user in plain language without changing any data.",
		Schema: Schema{
			"text": {Type: StringField, Required: true, MinLen: 1, Description: "The reply text"},
		},
		Execute: func(ctx context.Context, args map[string]any) (map[string]any, error) {
			return map[string]any{
				"reply": stringArg(args, "text"),
			}, nil
		},
	}
}

// RegisterDefaults registers the built-in capability set over store.
// Returns error if any registration fails.
func RegisterDefaults(registry *Registry, store storage.Store) error {
	caps := []Capability{
		NewCreateTaskCapability(store),
		NewUpdateTaskCapability(store),
		NewListTasksCapability(store),
		NewCreateGoalCapability(store),
		NewCreateEventCapability(store),
		NewRespondCapability(),
	}

	for _, c := range caps {
		if err := registry.Register(c); err != nil {
			return fmt.Errorf("failed to register default capabilities: %w", err)
		}
	}
	return nil
}

// stringArg fetches a string argument, tolerating absence.
func stringArg(args map[string]any, key string) string {
	if v, ok := args[key].(string); ok {
		return v
	}
	return ""
}
