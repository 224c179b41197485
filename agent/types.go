package agent

import (
	"time"

	"maia/model"
)

// TurnState is the terminal state of one processed turn.
type TurnState string

const (
	// TurnCompleted means generation finished and all tool calls settled.
	TurnCompleted TurnState = "completed"
	// TurnErrored means a pre-flight or generation failure ended the turn.
	TurnErrored TurnState = "errored"
	// TurnCancelled means the turn was stopped early; partial results
	// already dispatched are preserved.
	TurnCancelled TurnState = "cancelled"
)

// Callbacks deliver turn progress to the caller while generation is
// still running. Any field may be nil. OnStep may be invoked from the
// goroutines running tool executions; invocations are serialized.
type Callbacks struct {
	OnToken func(piece string)
	OnStep  func(step model.Step)
	OnError func(err error)
}

// Outcome summarizes one finished turn.
type Outcome struct {
	State TurnState
	// Answer is the user-facing reply, empty if none was produced.
	Answer string
	// Steps are every emitted step in emission order.
	Steps []model.Step
	// ToolCalls is the number of capability invocations dispatched.
	ToolCalls int
	Elapsed   time.Duration
}
