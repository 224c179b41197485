package agent

import (
	"context"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"maia/llm"
	"maia/memory"
	"maia/model"
	"maia/tools"
)

// scriptedProvider replays a fixed token script. Stop halts replay at
// the next chunk boundary, mirroring the real streaming providers.
type scriptedProvider struct {
	chunks  []string
	state   llm.State
	stopped atomic.Bool
}

func (p *scriptedProvider) Name() string  { return "scripted" }
func (p *scriptedProvider) Model() string { return "scripted-1" }

func (p *scriptedProvider) Generate(ctx context.Context, prompt string, onToken func(piece string)) (string, error) {
	var b strings.Builder
	for _, chunk := range p.chunks {
		if p.stopped.Load() || ctx.Err() != nil {
			break
		}
		b.WriteString(chunk)
		if onToken != nil {
			onToken(chunk)
		}
	}
	return b.String(), nil
}

func (p *scriptedProvider) Stop() { p.stopped.Store(true) }

func (p *scriptedProvider) State() llm.State { return p.state }

// chunked splits a script into small batches so spans straddle token
// boundaries the way they do against a live stream.
func chunked(script string, size int) []string {
	var chunks []string
	for len(script) > size {
		chunks = append(chunks, script[:size])
		script = script[size:]
	}
	if script != "" {
		chunks = append(chunks, script)
	}
	return chunks
}

type testHarness struct {
	orchestrator *Orchestrator
	memory       *memory.Manager
	invocations  *atomic.Int64
}

func newHarness(t *testing.T, provider llm.Provider) *testHarness {
	t.Helper()

	var invocations atomic.Int64
	reg := tools.NewRegistry()
	require.NoError(t, reg.Register(tools.Capability{
		Name: "create_task",
		Schema: tools.Schema{
			"title":    {Type: tools.StringField, Required: true, MinLen: 1},
			"priority": {Type: tools.StringField, Required: true, Enum: []string{"high", "medium", "low"}},
		},
		Execute: func(ctx context.Context, args map[string]any) (map[string]any, error) {
			invocations.Add(1)
			return map[string]any{"task_id": "t-1"}, nil
		},
	}))

	mem := memory.NewManager(memory.Config{}, nil)
	dispatcher := tools.NewDispatcher(reg, tools.Config{
		Timeout: 50 * time.Millisecond, MaxRetries: 1, BaseDelay: time.Millisecond,
	}, nil)

	client := llm.NewClient(provider, 2)
	return &testHarness{
		orchestrator: NewOrchestrator(client, dispatcher, mem, Config{}, nil),
		memory:       mem,
		invocations:  &invocations,
	}
}

func TestProcessQueryFullTurn(t *testing.T) {
	script := "THOUGHT: the user wants a new task\n" +
		`TOOL_CALL: {"name": "create_task", "args": {"title": "buy milk", "priority": "low"}}` + "\n" +
		"FINAL_ANSWER: Added buy milk to your tasks."
	h := newHarness(t, &scriptedProvider{chunks: chunked(script, 7), state: llm.StateReady})

	var stepKinds []model.StepKind
	outcome, err := h.orchestrator.ProcessQuery(context.Background(), "add buy milk", Callbacks{
		OnStep: func(step model.Step) { stepKinds = append(stepKinds, step.Kind) },
	})
	require.NoError(t, err)

	assert.Equal(t, TurnCompleted, outcome.State)
	assert.Equal(t, "Added buy milk to your tasks.", outcome.Answer)
	assert.Equal(t, 1, outcome.ToolCalls)
	assert.Equal(t, int64(1), h.invocations.Load())
	assert.Contains(t, stepKinds, model.StepThought)
	assert.Contains(t, stepKinds, model.StepToolCall)
	assert.Contains(t, stepKinds, model.StepToolResult)
	assert.Contains(t, stepKinds, model.StepFinalAnswer)
}

// The same call repeated verbatim three times executes exactly once,
// no matter how the buffer is sliced into token batches.
func TestProcessQueryAtMostOneExecution(t *testing.T) {
	call := `TOOL_CALL: {"name": "create_task", "args": {"title": "buy milk", "priority": "low"}}` + "\n"
	script := call + call + call + "FINAL_ANSWER: Created the task once."
	h := newHarness(t, &scriptedProvider{chunks: chunked(script, 5), state: llm.StateReady})

	outcome, err := h.orchestrator.ProcessQuery(context.Background(), "add buy milk", Callbacks{})
	require.NoError(t, err)

	assert.Equal(t, int64(1), h.invocations.Load())
	assert.Equal(t, 1, outcome.ToolCalls)
	assert.Equal(t, TurnCompleted, outcome.State)
}

func TestProcessQueryFailedToolBecomesResultStep(t *testing.T) {
	script := `TOOL_CALL: {"name": "create_task", "args": {"title": "x"}}` + "\n" +
		"FINAL_ANSWER: I tried to add that task."
	h := newHarness(t, &scriptedProvider{chunks: chunked(script, 9), state: llm.StateReady})

	var results []model.Step
	outcome, err := h.orchestrator.ProcessQuery(context.Background(), "add x", Callbacks{
		OnStep: func(step model.Step) {
			if step.Kind == model.StepToolResult {
				results = append(results, step)
			}
		},
	})
	require.NoError(t, err)

	assert.Equal(t, TurnCompleted, outcome.State)
	assert.Equal(t, int64(0), h.invocations.Load(), "executor ran despite invalid args")
	require.Len(t, results, 1)
	assert.Equal(t, false, results[0].ToolResult["success"])
	assert.Contains(t, results[0].Content, "priority")
}

func TestProcessQueryRunawayGuard(t *testing.T) {
	loop := strings.Repeat("wip ", 100)
	late := `TOOL_CALL: {"name": "create_task", "args": {"title": "never", "priority": "low"}}`
	h := newHarness(t, &scriptedProvider{
		chunks: append(chunked(loop, 20), late),
		state:  llm.StateReady,
	})

	var guardErr error
	outcome, err := h.orchestrator.ProcessQuery(context.Background(), "hi", Callbacks{
		OnError: func(e error) { guardErr = e },
	})
	require.NoError(t, err)

	var rerr *RunawayError
	require.ErrorAs(t, guardErr, &rerr)
	assert.Equal(t, TurnCancelled, outcome.State)
	assert.Equal(t, int64(0), h.invocations.Load())
	assert.Equal(t, 0, outcome.ToolCalls)
}

func TestProcessQueryPreflightNotLoaded(t *testing.T) {
	h := newHarness(t, &scriptedProvider{state: llm.StateNotLoaded})

	outcome, err := h.orchestrator.ProcessQuery(context.Background(), "hi", Callbacks{})

	assert.ErrorIs(t, err, llm.ErrNotLoaded)
	assert.Equal(t, TurnErrored, outcome.State)
	assert.Empty(t, outcome.Steps)
}

func TestProcessQueryRecordsMemory(t *testing.T) {
	script := `TOOL_CALL: {"name": "create_task", "args": {"title": "buy milk", "priority": "low"}}` + "\n" +
		"FINAL_ANSWER: Task created for you."
	h := newHarness(t, &scriptedProvider{chunks: chunked(script, 11), state: llm.StateReady})

	_, err := h.orchestrator.ProcessQuery(context.Background(), "add buy milk", Callbacks{})
	require.NoError(t, err)

	msgs := h.memory.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, memory.RoleUser, msgs[0].Role)
	assert.True(t, msgs[0].ToolInvoked)
	assert.Equal(t, memory.RoleAssistant, msgs[1].Role)
	assert.Equal(t, "Task created for you.", msgs[1].Content)

	_, ok := h.memory.GetWorking("last_tool_create_task")
	assert.True(t, ok)
}

func TestProcessQueryStreamsTokens(t *testing.T) {
	script := "FINAL_ANSWER: Nothing on your calendar today."
	h := newHarness(t, &scriptedProvider{chunks: chunked(script, 4), state: llm.StateReady})

	var streamed strings.Builder
	outcome, err := h.orchestrator.ProcessQuery(context.Background(), "what's today?", Callbacks{
		OnToken: func(piece string) { streamed.WriteString(piece) },
	})
	require.NoError(t, err)

	assert.Equal(t, script, streamed.String())
	assert.Equal(t, "Nothing on your calendar today.", outcome.Answer)
}
