// Turn orchestration: streaming parse, tool dispatch, memory recording.
//
// This is THE integration point of the engine. One turn owns one buffer
// and one producer goroutine; tool executions race the token stream and
// settle before the turn returns.
//
// Information Hiding:
// - Turn lifecycle internals hidden
// - Dispatch deduplication hidden
// - Cancellation propagation hidden

package agent

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"maia/llm"
	"maia/memory"
	"maia/model"
	"maia/tools"
)

// Orchestrator processes user turns against a generation provider,
// a capability dispatcher and the shared memory manager.
type Orchestrator struct {
	client     *llm.Client
	dispatcher *tools.Dispatcher
	memory     *memory.Manager
	parser     *Parser
	guard      *Guard
	config     Config
	logger     *zap.Logger

	mu     sync.Mutex
	active map[*turnState]struct{}
}

// NewOrchestrator creates an orchestrator. A nil logger disables logging.
func NewOrchestrator(client *llm.Client, dispatcher *tools.Dispatcher, mem *memory.Manager, config Config, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		client:     client,
		dispatcher: dispatcher,
		memory:     mem,
		parser:     NewParser(),
		guard:      NewGuard(config.MaxBufferLen),
		config:     config,
		logger:     logger,
		active:     make(map[*turnState]struct{}),
	}
}

// turnState is the mutable state of one in-flight turn. The producer
// goroutine owns the buffer; steps and dedup sets are shared with tool
// goroutines under the mutex.
type turnState struct {
	mu         sync.Mutex
	buffer     []byte
	seen       map[string]struct{}
	dispatched map[string]struct{}
	steps      []model.Step
	stopped    atomic.Bool
	wg         sync.WaitGroup
}

func newTurnState() *turnState {
	return &turnState{
		seen:       make(map[string]struct{}),
		dispatched: make(map[string]struct{}),
	}
}

// emit records a step and forwards it to the caller. Serialized so
// OnStep never runs concurrently with itself.
func (t *turnState) emit(step model.Step, cb Callbacks) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.steps = append(t.steps, step)
	if cb.OnStep != nil {
		cb.OnStep(step)
	}
}

// markSeen returns true the first time a step id is observed.
func (t *turnState) markSeen(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.seen[id]; ok {
		return false
	}
	t.seen[id] = struct{}{}
	return true
}

// markDispatched returns true the first time a call fingerprint is
// accepted for execution.
func (t *turnState) markDispatched(fingerprint string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.dispatched[fingerprint]; ok {
		return false
	}
	t.dispatched[fingerprint] = struct{}{}
	return true
}

func (t *turnState) dispatchedCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.dispatched)
}

func (t *turnState) allSteps() []model.Step {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]model.Step, len(t.steps))
	copy(out, t.steps)
	return out
}

// ProcessQuery runs one full turn: prompt assembly, streamed generation
// with incremental parsing and tool dispatch, then memory recording.
// It returns once generation has finished and every dispatched tool
// call has settled. Provider pre-flight failures (not loaded, busy)
// return before any parsing begins.
func (o *Orchestrator) ProcessQuery(ctx context.Context, input string, cb Callbacks) (Outcome, error) {
	start := time.Now()

	prompt := BuildPrompt(
		o.config.systemPrompt(),
		o.dispatcher.Registry().Description(),
		o.memory.BuildContext(o.config.contextTokens()),
		input,
	)

	turn := newTurnState()
	o.mu.Lock()
	o.active[turn] = struct{}{}
	o.mu.Unlock()
	defer func() {
		o.mu.Lock()
		delete(o.active, turn)
		o.mu.Unlock()
	}()

	genCtx, cancelGen := context.WithCancel(ctx)
	defer cancelGen()

	full, err := o.client.Generate(genCtx, prompt, func(piece string) {
		if cb.OnToken != nil {
			cb.OnToken(piece)
		}
		turn.buffer = append(turn.buffer, piece...)
		o.advance(genCtx, turn, cb)
	})
	if err != nil {
		o.logger.Error("generation failed", zap.Error(err))
		if cb.OnError != nil {
			cb.OnError(err)
		}
		turn.wg.Wait()
		return Outcome{
			State:     TurnErrored,
			Steps:     turn.allSteps(),
			ToolCalls: turn.dispatchedCount(),
			Elapsed:   time.Since(start),
		}, err
	}

	// Non-streaming providers deliver everything in the return value.
	if len(turn.buffer) == 0 && full != "" {
		turn.buffer = []byte(full)
	}
	o.advance(genCtx, turn, cb)

	// The turn is not finished until every spawned execution settles.
	turn.wg.Wait()

	outcome := Outcome{
		State:     TurnCompleted,
		Steps:     turn.allSteps(),
		ToolCalls: turn.dispatchedCount(),
		Elapsed:   time.Since(start),
	}
	if turn.stopped.Load() || ctx.Err() != nil {
		outcome.State = TurnCancelled
	}

	for i := len(outcome.Steps) - 1; i >= 0; i-- {
		if outcome.Steps[i].Kind == model.StepFinalAnswer {
			outcome.Answer = outcome.Steps[i].Content
			break
		}
	}
	if outcome.Answer == "" {
		outcome.Answer = DisplayText(string(turn.buffer))
	}

	o.recordTurn(input, outcome)

	o.logger.Info("turn finished",
		zap.String("state", string(outcome.State)),
		zap.Int("steps", len(outcome.Steps)),
		zap.Int("tool_calls", outcome.ToolCalls),
		zap.Duration("elapsed", outcome.Elapsed))
	return outcome, nil
}

// advance re-scans the whole buffer, emits newly completed steps and
// dispatches tool calls whose fingerprint has not been accepted yet.
// Once the turn is stopped nothing further is emitted or dispatched.
func (o *Orchestrator) advance(ctx context.Context, turn *turnState, cb Callbacks) {
	if turn.stopped.Load() {
		return
	}

	buffer := string(turn.buffer)
	if err := o.guard.Check(buffer); err != nil {
		turn.stopped.Store(true)
		o.client.Stop()
		o.logger.Warn("generation stopped by runaway guard",
			zap.Int("buffer_len", len(buffer)),
			zap.Error(err))
		if cb.OnError != nil {
			cb.OnError(err)
		}
		return
	}

	for _, step := range o.parser.Parse(buffer) {
		if !turn.markSeen(step.ID) {
			continue
		}
		turn.emit(step, cb)

		if step.Kind != model.StepToolCall || turn.stopped.Load() {
			continue
		}
		fingerprint := model.CallFingerprint(step.ToolName, step.ToolArgs)
		if !turn.markDispatched(fingerprint) {
			continue
		}

		turn.wg.Add(1)
		go o.runTool(ctx, turn, step, fingerprint, cb)
	}
}

// runTool executes one accepted call and converts its outcome into a
// tool_result step. Execution deliberately survives turn cancellation:
// finishing a task create or update beats leaving partial state behind.
func (o *Orchestrator) runTool(ctx context.Context, turn *turnState, call model.Step, fingerprint string, cb Callbacks) {
	defer turn.wg.Done()

	execCtx := context.WithoutCancel(ctx)
	result, err := o.dispatcher.Execute(execCtx, call.ToolName, call.ToolArgs)

	step := model.Step{
		ID:        model.DeriveStepID(model.StepToolResult, 0, fingerprint),
		Kind:      model.StepToolResult,
		ToolName:  call.ToolName,
		CreatedAt: time.Now(),
	}

	if err != nil {
		// A failed call never aborts the turn; it becomes a
		// tool_result step like any other.
		step.Content = err.Error()
		step.ToolResult = map[string]any{"success": false, "error": err.Error()}
		o.logger.Warn("tool call failed",
			zap.String("capability", call.ToolName),
			zap.Error(err))
	} else {
		step.Content = call.ToolName + " completed"
		step.ToolResult = result
		o.memory.UpdateWorking("last_tool_"+call.ToolName, result)
	}

	turn.emit(step, cb)
}

// recordTurn writes the turn boundary into conversational memory.
func (o *Orchestrator) recordTurn(input string, outcome Outcome) {
	o.memory.AddMessage(memory.Message{
		Role:        memory.RoleUser,
		Content:     input,
		ToolInvoked: outcome.ToolCalls > 0,
	})
	if outcome.Answer != "" {
		o.memory.AddMessage(memory.Message{
			Role:    memory.RoleAssistant,
			Content: outcome.Answer,
		})
	}
}

// Stop cancels in-flight generation across turns and blocks new tool
// calls from being dispatched out of whatever tokens already arrived.
// In-flight tool executions still settle.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	for turn := range o.active {
		turn.stopped.Store(true)
	}
	o.mu.Unlock()

	o.client.Stop()
}
