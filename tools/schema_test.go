package tools

import (
	"context"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func taskSchema() Schema {
	return Schema{
		"title":    {Type: StringField, Required: true, MinLen: 1, MaxLen: 200},
		"priority": {Type: StringField, Required: true, Enum: []string{"high", "medium", "low"}},
		"due_date": {Type: StringField, Format: FormatDate},
		"limit":    {Type: IntegerField, Min: Ptr(1.0), Max: Ptr(100.0)},
	}
}

func TestSchemaValidateMissingRequired(t *testing.T) {
	err := taskSchema().Validate("create_task", map[string]any{"title": "x"})
	require.Error(t, err)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "priority", verr.Field)
}

func TestSchemaValidateEnum(t *testing.T) {
	args := map[string]any{"title": "x", "priority": "urgent"}
	err := taskSchema().Validate("create_task", args)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "priority", verr.Field)
}

func TestSchemaValidateFormats(t *testing.T) {
	base := map[string]any{"title": "x", "priority": "high"}

	ok := map[string]any{"title": "x", "priority": "high", "due_date": "2026-09-01"}
	assert.NoError(t, taskSchema().Validate("create_task", ok))

	bad := map[string]any{"title": "x", "priority": "high", "due_date": "tomorrow"}
	assert.Error(t, taskSchema().Validate("create_task", bad))

	assert.NoError(t, taskSchema().Validate("create_task", base))
}

func TestSchemaValidateNumericBounds(t *testing.T) {
	schema := taskSchema()

	err := schema.Validate("list_tasks", map[string]any{
		"title": "x", "priority": "low", "limit": float64(500),
	})
	assert.Error(t, err)

	err = schema.Validate("list_tasks", map[string]any{
		"title": "x", "priority": "low", "limit": float64(10),
	})
	assert.NoError(t, err)
}

func TestSchemaValidateTypeMismatch(t *testing.T) {
	err := taskSchema().Validate("create_task", map[string]any{
		"title": 42, "priority": "high",
	})

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "title", verr.Field)
}

func TestSchemaValidatePattern(t *testing.T) {
	schema := Schema{
		"code": {Type: StringField, Required: true, Pattern: regexp.MustCompile(`^[A-Z]{3}$`)},
	}
	assert.NoError(t, schema.Validate("x", map[string]any{"code": "ABC"}))
	assert.Error(t, schema.Validate("x", map[string]any{"code": "abc"}))
}

func TestSchemaValidateUnknownArgsPassThrough(t *testing.T) {
	args := map[string]any{"title": "x", "priority": "high", "extra": "ignored"}
	assert.NoError(t, taskSchema().Validate("create_task", args))
}

// Invalid arguments must never reach the executor.
func TestSchemaGateBlocksExecutor(t *testing.T) {
	invoked := false
	reg := NewRegistry()
	require.NoError(t, reg.Register(Capability{
		Name:   "create_task",
		Schema: taskSchema(),
		Execute: func(ctx context.Context, args map[string]any) (map[string]any, error) {
			invoked = true
			return map[string]any{}, nil
		},
	}))

	d := NewDispatcher(reg, DefaultConfig(), nil)
	_, err := d.Execute(context.Background(), "create_task", map[string]any{"title": "x"})

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.False(t, invoked, "executor ran despite failed validation")
}
