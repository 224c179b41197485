package agent

// Config tunes orchestrator behavior. The zero value is safe.
type Config struct {
	// ContextTokens is the memory context budget per prompt.
	ContextTokens int
	// MaxBufferLen overrides the runaway guard's buffer ceiling.
	MaxBufferLen int
	// SystemPrompt replaces the default assistant persona when set.
	SystemPrompt string
}

func (c Config) contextTokens() int {
	if c.ContextTokens <= 0 {
		return 1000
	}
	return c.ContextTokens
}

func (c Config) systemPrompt() string {
	if c.SystemPrompt == "" {
		return defaultSystemPrompt
	}
	return c.SystemPrompt
}
