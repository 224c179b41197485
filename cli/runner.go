// Command execution for CLI commands.
//
// Information Hiding:
// - Engine assembly hidden
// - Output formatting hidden

package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"maia/agent"
	"maia/config"
	"maia/llm"
	"maia/memory"
	"maia/model"
	"maia/storage"
	"maia/tools"
)

// Options holds CLI execution options.
type Options struct {
	Provider string
	Verbose  bool
	Logger   *zap.Logger
}

// engine bundles the assembled components of one running assistant.
type engine struct {
	orchestrator *agent.Orchestrator
	memory       *memory.Manager
	sweeper      *memory.Sweeper
	store        storage.Store
}

func (e *engine) Close() {
	e.sweeper.Stop()
	if err := e.store.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: closing store: %v\n", err)
	}
}

// buildEngine wires provider, store, capabilities, memory and the
// orchestrator from settings.
func buildEngine(settings config.Settings, logger *zap.Logger) (*engine, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	provider, err := createProvider(settings)
	if err != nil {
		return nil, err
	}

	store, err := openStore(settings.Store)
	if err != nil {
		return nil, err
	}

	registry := tools.NewRegistry()
	if err := tools.RegisterDefaults(registry, store); err != nil {
		store.Close()
		return nil, err
	}

	dispatcher := tools.NewDispatcher(registry, tools.Config{
		Timeout:    settings.Tools.Timeout,
		MaxRetries: settings.Tools.MaxRetries,
		BaseDelay:  settings.Tools.BaseDelay,
	}, logger)

	mem := memory.NewManager(memory.Config{
		MaxMessages:     settings.Memory.MaxMessages,
		WorkingTTL:      settings.Memory.WorkingTTL,
		AccessThreshold: settings.Memory.AccessThreshold,
	}, logger)

	sweeper := memory.NewSweeper(mem, logger)
	if err := sweeper.Start(settings.Memory.SweepInterval); err != nil {
		store.Close()
		return nil, err
	}

	client := llm.NewClient(provider, settings.LLM.MaxConcurrent)
	orchestrator := agent.NewOrchestrator(client, dispatcher, mem, agent.Config{
		ContextTokens: settings.Engine.ContextTokens,
		MaxBufferLen:  settings.Engine.MaxBufferLen,
	}, logger)

	return &engine{
		orchestrator: orchestrator,
		memory:       mem,
		sweeper:      sweeper,
		store:        store,
	}, nil
}

func createProvider(settings config.Settings) (llm.Provider, error) {
	providerType, err := llm.ParseProviderType(settings.LLM.Provider)
	if err != nil {
		return nil, err
	}
	return llm.NewProviderBuilder(providerType).
		MaxTokens(settings.LLM.MaxTokens).
		Temperature(float32(settings.LLM.Temperature)).
		FromEnv()
}

func openStore(cfg config.StoreConfig) (storage.Store, error) {
	if cfg.Path == "" {
		return storage.NewInMemoryStore(), nil
	}
	return storage.OpenSqlite(cfg.Path)
}

// Ask processes a single query and prints the reply.
func Ask(ctx context.Context, input string, opts Options) error {
	settings, err := config.New(opts.Provider)
	if err != nil {
		return err
	}

	e, err := buildEngine(settings, opts.Logger)
	if err != nil {
		return err
	}
	defer e.Close()

	return runTurn(ctx, e, input, opts)
}

// Chat starts an interactive session. Memory carries across turns
// until the session ends.
func Chat(ctx context.Context, opts Options) error {
	settings, err := config.New(opts.Provider)
	if err != nil {
		return err
	}

	e, err := buildEngine(settings, opts.Logger)
	if err != nil {
		return err
	}
	defer e.Close()

	fmt.Println("maia ready. Type 'exit' to quit.")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if input == "exit" || input == "quit" {
			break
		}

		if err := runTurn(ctx, e, input, opts); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
	}
	return scanner.Err()
}

// runTurn executes one query and renders its outcome.
func runTurn(ctx context.Context, e *engine, input string, opts Options) error {
	callbacks := agent.Callbacks{}
	if opts.Verbose {
		callbacks.OnStep = printStep
	}

	outcome, err := e.orchestrator.ProcessQuery(ctx, input, callbacks)
	if err != nil {
		return err
	}

	archiveTurn(ctx, e.store, input, outcome)

	switch outcome.State {
	case agent.TurnCompleted:
		if outcome.Answer != "" {
			fmt.Printf("%s\n", outcome.Answer)
		}
		if opts.Verbose {
			fmt.Printf("(%d steps, %d tool calls, %v)\n",
				len(outcome.Steps), outcome.ToolCalls, outcome.Elapsed.Round(time.Millisecond))
		}
	case agent.TurnCancelled:
		fmt.Println("(generation stopped)")
		if outcome.Answer != "" {
			fmt.Printf("%s\n", outcome.Answer)
		}
	case agent.TurnErrored:
		fmt.Fprintln(os.Stderr, "The turn could not be completed.")
	}
	return nil
}

func printStep(step model.Step) {
	switch step.Kind {
	case model.StepThought:
		fmt.Printf("  [thought] %s\n", step.Content)
	case model.StepToolCall:
		fmt.Printf("  [call] %s\n", step.ToolName)
	case model.StepToolResult:
		fmt.Printf("  [result] %s\n", step.Content)
	}
}

// archiveTurn persists the dialogue pair for later sessions. Archival
// failures are reported, never fatal.
func archiveTurn(ctx context.Context, store storage.Store, input string, outcome agent.Outcome) {
	if err := store.SaveMessage(ctx, model.StoredMessage{Role: "user", Content: input}); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: archiving message: %v\n", err)
		return
	}
	if outcome.Answer == "" {
		return
	}
	if err := store.SaveMessage(ctx, model.StoredMessage{Role: "assistant", Content: outcome.Answer}); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: archiving message: %v\n", err)
	}
}
