package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"maia/model"
)

func TestParseThought(t *testing.T) {
	steps := NewParser().Parse("THOUGHT: I should list the user's open tasks first")

	require.Len(t, steps, 1)
	assert.Equal(t, model.StepThought, steps[0].Kind)
	assert.Equal(t, "I should list the user's open tasks first", steps[0].Content)
}

func TestParseDiscardsShortFragments(t *testing.T) {
	p := NewParser()

	assert.Empty(t, p.Parse("THOUGHT: I"))
	assert.Empty(t, p.Parse("FINAL_ANSWER: ok"))
}

func TestParseToolCall(t *testing.T) {
	buffer := `THOUGHT: the user wants a task created
TOOL_CALL: {"name": "create_task", "args": {"title": "buy milk", "priority": "low"}}
FINAL_ANSWER: I created the task for you.`

	steps := NewParser().Parse(buffer)
	require.Len(t, steps, 3)

	call := steps[1]
	assert.Equal(t, model.StepToolCall, call.Kind)
	assert.Equal(t, "create_task", call.ToolName)
	assert.Equal(t, "buy milk", call.ToolArgs["title"])

	assert.Equal(t, model.StepFinalAnswer, steps[2].Kind)
	assert.Equal(t, "I created the task for you.", steps[2].Content)
}

// A truncated payload is deferred, not rejected: once the rest of the
// object arrives the same scan position yields the step.
func TestParseDefersIncompleteToolCall(t *testing.T) {
	p := NewParser()
	partial := `TOOL_CALL: {"name": "create_task", "args": {"title": "bu`

	assert.Empty(t, p.Parse(partial))

	full := partial + `y milk"}}`
	steps := p.Parse(full)
	require.Len(t, steps, 1)
	assert.Equal(t, "create_task", steps[0].ToolName)
}

func TestParseRejectsPayloadWithoutName(t *testing.T) {
	steps := NewParser().Parse(`TOOL_CALL: {"args": {"title": "x"}}`)
	assert.Empty(t, steps)
}

// Growing the buffer never changes the id of an already-complete span,
// so re-scans are deduplicable by id.
func TestParseStableIDsAcrossGrowth(t *testing.T) {
	p := NewParser()
	prefix := "THOUGHT: checking the calendar for conflicts\n"

	before := p.Parse(prefix)
	require.Len(t, before, 1)

	after := p.Parse(prefix + "FINAL_ANSWER: No conflicts found today.")
	require.Len(t, after, 2)
	assert.Equal(t, before[0].ID, after[0].ID)
}

func TestParseDistinguishesIdenticalContentByOffset(t *testing.T) {
	buffer := "THOUGHT: checking the calendar\nTHOUGHT: checking the calendar"
	steps := NewParser().Parse(buffer)

	require.Len(t, steps, 2)
	assert.NotEqual(t, steps[0].ID, steps[1].ID)
}
