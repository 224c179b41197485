package llm

import "testing"

func TestParseProviderType(t *testing.T) {
	tests := []struct {
		input string
		want  ProviderType
	}{
		{"openai", ProviderOpenAI},
		{"gpt", ProviderOpenAI},
		{"ANTHROPIC", ProviderAnthropic},
		{"claude", ProviderAnthropic},
		{"deepseek", ProviderDeepSeek},
		{"gemini", ProviderGemini},
		{"google", ProviderGemini},
	}

	for _, tt := range tests {
		got, err := ParseProviderType(tt.input)
		if err != nil {
			t.Errorf("ParseProviderType(%q) error: %v", tt.input, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseProviderType(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}

	if _, err := ParseProviderType("llama"); err == nil {
		t.Error("expected error for unknown provider")
	}
}

func TestBuilderDefaults(t *testing.T) {
	provider, err := NewProviderBuilder(ProviderOpenAI).APIKey("sk-test")
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	if provider.Name() != "openai" {
		t.Errorf("name = %q", provider.Name())
	}
	if provider.Model() != ModelOpenAIGPT4o {
		t.Errorf("model = %q, want default", provider.Model())
	}
}

func TestBuilderOverrides(t *testing.T) {
	provider, err := ProviderAnthropic.Model(ModelAnthropicClaudeHaiku4).APIKey("sk-ant-test")
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	if provider.Model() != ModelAnthropicClaudeHaiku4 {
		t.Errorf("model = %q", provider.Model())
	}
}
