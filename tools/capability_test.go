package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noopCapability(name string) Capability {
	return Capability{
		Name: name,
		Execute: func(ctx context.Context, args map[string]any) (map[string]any, error) {
			return map[string]any{}, nil
		},
	}
}

func TestRegistryRegister(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(noopCapability("alpha")))

	assert.Error(t, reg.Register(noopCapability("alpha")), "duplicate accepted")
	assert.Error(t, reg.Register(noopCapability("")), "empty name accepted")
	assert.Error(t, reg.Register(Capability{Name: "no-exec"}), "nil executor accepted")
}

func TestRegistryLookup(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(noopCapability("beta")))
	require.NoError(t, reg.Register(noopCapability("alpha")))

	_, ok := reg.Get("beta")
	assert.True(t, ok)
	_, ok = reg.Get("gamma")
	assert.False(t, ok)
	assert.True(t, reg.Has("alpha"))
	assert.Equal(t, []string{"alpha", "beta"}, reg.Names())
}

func TestRegistryDescription(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(Capability{
		Name:        "create_task",
		Description: "Create a new task.",
		Schema: Schema{
			"title":    {Type: StringField, Required: true},
			"priority": {Type: StringField, Required: true, Enum: []string{"high", "medium", "low"}},
		},
		Execute: func(ctx context.Context, args map[string]any) (map[string]any, error) {
			return map[string]any{}, nil
		},
	}))

	desc := reg.Description()
	assert.Contains(t, desc, "create_task")
	assert.Contains(t, desc, "title")
	assert.Contains(t, desc, "high|medium|low")
	assert.Contains(t, desc, "required")
}
