// Package llm provides the generation provider abstraction.
//
// Provider interface - the abstract interface for text-generation backends.
// Each provider implementation hides:
// - API client initialization and authentication
// - Request/response format conversion
// - Provider-specific streaming mechanics
// - Cancellation of in-flight streams

package llm

import (
	"context"
	"errors"
	"sync"
)

// State describes whether a backend is able to generate.
type State int

const (
	// StateReady means the backend can accept a generation request.
	StateReady State = iota
	// StateLoading means a model is still being prepared.
	StateLoading
	// StateNotLoaded means no model is available.
	StateNotLoaded
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StateLoading:
		return "loading"
	case StateNotLoaded:
		return "not_loaded"
	default:
		return "unknown"
	}
}

// Sentinel errors surfaced by the Client before any generation starts.
var (
	// ErrNotLoaded is returned when no model is available.
	ErrNotLoaded = errors.New("llm: model not loaded")
	// ErrLoading is returned while a model is still being prepared.
	ErrLoading = errors.New("llm: model is loading")
	// ErrBusy is returned when the concurrent-generation limit is reached.
	ErrBusy = errors.New("llm: generation capacity exhausted")
)

// Provider defines the abstract interface for text-generation backends.
// Implementations stream tokens through the onToken callback while
// accumulating the full completion.
type Provider interface {
	// Name returns the provider name (for logging/debugging).
	Name() string

	// Model returns the current model being used.
	Model() string

	// Generate streams a completion for prompt. onToken is invoked from the
	// streaming goroutine for every emitted piece; the full accumulated text
	// is returned when the stream ends. A nil onToken is allowed.
	Generate(ctx context.Context, prompt string, onToken func(piece string)) (string, error)

	// Stop cancels all in-flight generations for this provider.
	Stop()

	// State reports whether the backend is ready to generate.
	State() State
}

// stopper tracks cancel functions for in-flight streams so Stop can fan
// out to all of them. Embedded by every provider implementation.
type stopper struct {
	mu     sync.Mutex
	active map[uint64]context.CancelFunc
	next   uint64
}

// track derives a cancelable context registered with the stopper.
// The returned release must be called when the stream ends.
func (s *stopper) track(ctx context.Context) (context.Context, func()) {
	ctx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	if s.active == nil {
		s.active = make(map[uint64]context.CancelFunc)
	}
	id := s.next
	s.next++
	s.active[id] = cancel
	s.mu.Unlock()

	return ctx, func() {
		s.mu.Lock()
		delete(s.active, id)
		s.mu.Unlock()
		cancel()
	}
}

// Stop cancels every tracked stream.
func (s *stopper) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, cancel := range s.active {
		cancel()
	}
}
