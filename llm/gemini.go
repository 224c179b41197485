// Google Gemini Provider implementation using official google.golang.org/genai SDK.
//
// Information Hiding:
// - API authentication and client creation
// - Request/response format for Gemini API
// - Streaming via official SDK iterator

package llm

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// GeminiProvider implements the Provider interface for Google Gemini.
type GeminiProvider struct {
	stopper
	client      *genai.Client
	model       string
	maxTokens   int32
	temperature float32
	initErr     error // Stores client initialization error for deferred reporting
}

// NewGeminiProvider creates a new Gemini provider.
// If client initialization fails, the error is stored and returned on first use.
func NewGeminiProvider(apiKey, model string, maxTokens uint32, temperature float32) *GeminiProvider {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return &GeminiProvider{
			model:       model,
			maxTokens:   int32(maxTokens),
			temperature: temperature,
			initErr:     fmt.Errorf("failed to initialize Gemini client: %w", err),
		}
	}

	return &GeminiProvider{
		client:      client,
		model:       model,
		maxTokens:   int32(maxTokens),
		temperature: temperature,
	}
}

// Name returns the provider name.
func (p *GeminiProvider) Name() string {
	return "gemini"
}

// Model returns the current model.
func (p *GeminiProvider) Model() string {
	return p.model
}

// State reports readiness. A failed client init means nothing can generate.
func (p *GeminiProvider) State() State {
	if p.initErr != nil || p.client == nil {
		return StateNotLoaded
	}
	return StateReady
}

// Generate streams a completion, invoking onToken per piece.
func (p *GeminiProvider) Generate(ctx context.Context, prompt string, onToken func(piece string)) (string, error) {
	if p.initErr != nil {
		return "", p.initErr
	}
	if p.client == nil {
		return "", fmt.Errorf("gemini client not initialized")
	}

	ctx, release := p.track(ctx)
	defer release()

	contents := []*genai.Content{
		genai.NewContentFromText(prompt, genai.RoleUser),
	}

	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(p.temperature),
		MaxOutputTokens: p.maxTokens,
	}

	var full strings.Builder
	// GenerateContentStream returns iter.Seq2[*GenerateContentResponse, error]
	for response, err := range p.client.Models.GenerateContentStream(ctx, p.model, contents, config) {
		if err != nil {
			if ctx.Err() != nil {
				return full.String(), nil
			}
			return full.String(), fmt.Errorf("stream error: %w", err)
		}

		text := response.Text()
		if text != "" {
			full.WriteString(text)
			if onToken != nil {
				onToken(text)
			}
		}
	}

	return full.String(), nil
}

// Verify GeminiProvider implements Provider
var _ Provider = (*GeminiProvider)(nil)
