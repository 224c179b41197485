// Client - concurrency-bounded wrapper around a Provider.
//
// The engine nominally supports a small fixed number of concurrent turns;
// the Client enforces that bound and turns backend state into pre-flight
// errors before any tokens are consumed.

package llm

import (
	"context"
)

// DefaultMaxConcurrent is the default concurrent-generation bound.
const DefaultMaxConcurrent = 4

// Client wraps a Provider with a concurrent-generation limit.
type Client struct {
	provider Provider
	slots    chan struct{}
}

// NewClient creates a client around provider. maxConcurrent <= 0 uses
// DefaultMaxConcurrent.
func NewClient(provider Provider, maxConcurrent int) *Client {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrent
	}
	return &Client{
		provider: provider,
		slots:    make(chan struct{}, maxConcurrent),
	}
}

// Generate runs one generation, streaming pieces to onToken.
// Returns ErrNotLoaded, ErrLoading or ErrBusy before any work starts when
// the backend cannot take the request.
func (c *Client) Generate(ctx context.Context, prompt string, onToken func(piece string)) (string, error) {
	switch c.provider.State() {
	case StateNotLoaded:
		return "", ErrNotLoaded
	case StateLoading:
		return "", ErrLoading
	}

	select {
	case c.slots <- struct{}{}:
	default:
		return "", ErrBusy
	}
	defer func() { <-c.slots }()

	return c.provider.Generate(ctx, prompt, onToken)
}

// Stop cancels all in-flight generations.
func (c *Client) Stop() {
	c.provider.Stop()
}

// Busy reports whether the concurrency limit is currently saturated.
func (c *Client) Busy() bool {
	return len(c.slots) == cap(c.slots)
}

// Provider returns the underlying provider.
func (c *Client) Provider() Provider {
	return c.provider
}
