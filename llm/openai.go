// OpenAI Provider implementation using go-openai library.
//
// Information Hiding:
// - API endpoint and authentication
// - Request/response format for OpenAI Chat Completions API
// - Streaming via go-openai library

package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIProvider implements the Provider interface for OpenAI.
type OpenAIProvider struct {
	stopper
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
}

// NewOpenAIProvider creates a new OpenAI provider.
func NewOpenAIProvider(apiKey, model string, maxTokens uint32, temperature float32) *OpenAIProvider {
	return &OpenAIProvider{
		client:      openai.NewClient(apiKey),
		model:       model,
		maxTokens:   int(maxTokens),
		temperature: temperature,
	}
}

// Name returns the provider name.
func (p *OpenAIProvider) Name() string {
	return "openai"
}

// Model returns the current model.
func (p *OpenAIProvider) Model() string {
	return p.model
}

// State reports readiness. API-backed providers have nothing to load.
func (p *OpenAIProvider) State() State {
	return StateReady
}

// Generate streams a completion, invoking onToken per piece.
func (p *OpenAIProvider) Generate(ctx context.Context, prompt string, onToken func(piece string)) (string, error) {
	ctx, release := p.track(ctx)
	defer release()

	req := openai.ChatCompletionRequest{
		Model:       p.model,
		Messages:    []openai.ChatCompletionMessage{{Role: openai.ChatMessageRoleUser, Content: prompt}},
		MaxTokens:   p.maxTokens,
		Temperature: p.temperature,
		Stream:      true,
	}

	stream, err := p.client.CreateChatCompletionStream(ctx, req)
	if err != nil {
		return "", fmt.Errorf("stream creation failed: %w", err)
	}
	defer stream.Close()

	var full strings.Builder
	for {
		response, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return full.String(), nil
		}
		if err != nil {
			// A cancelled stream is a stop, not a failure: return what was
			// accumulated so the caller can finish parsing it.
			if ctx.Err() != nil {
				return full.String(), nil
			}
			return full.String(), fmt.Errorf("stream recv failed: %w", err)
		}

		if len(response.Choices) > 0 {
			piece := response.Choices[0].Delta.Content
			if piece != "" {
				full.WriteString(piece)
				if onToken != nil {
					onToken(piece)
				}
			}
		}
	}
}

// Verify OpenAIProvider implements Provider
var _ Provider = (*OpenAIProvider)(nil)
