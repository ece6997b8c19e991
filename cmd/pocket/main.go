package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"

	"github.com/martinemde/pocket/agent"
	"github.com/martinemde/pocket/brain"
)

// Config is loaded from POCKET_* environment variables.
type Config struct {
	AnthropicAPIKey string        `envconfig:"ANTHROPIC_API_KEY"`
	DeepSeekAPIKey  string        `envconfig:"DEEPSEEK_API_KEY"`
	ClaudeModel     string        `envconfig:"CLAUDE_MODEL"`
	DeepSeekModel   string        `envconfig:"DEEPSEEK_MODEL"`
	OllamaHost      string        `envconfig:"OLLAMA_HOST"`
	OllamaModel     string        `envconfig:"OLLAMA_MODEL"`
	Brain           string        `envconfig:"BRAIN" default:"claude"`
	Mode            string        `envconfig:"MODE" default:"plan"`
	MemoryPath      string        `envconfig:"MEMORY_PATH" default:".pocket/memory.md"`
	MaxRetries      int           `envconfig:"MAX_RETRIES" default:"5"`
	MaxToolRounds   int           `envconfig:"MAX_TOOL_ROUNDS" default:"50"`
	RequestTimeout  time.Duration `envconfig:"REQUEST_TIMEOUT" default:"120s"`
	Debug           bool          `envconfig:"DEBUG" default:"false"`
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "pocket: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var cfg Config
	if err := envconfig.Process("pocket", &cfg); err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	level := zerolog.InfoLevel
	if cfg.Debug {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(level).With().Timestamp().Logger()

	memory, err := agent.OpenMemory(cfg.MemoryPath)
	if err != nil {
		return fmt.Errorf("opening memory: %w", err)
	}

	transport := brain.NewTransport(logger)
	transport.MaxRetries = cfg.MaxRetries
	transport.Client.Timeout = cfg.RequestTimeout

	providers := brain.NewRegistry()
	providers.Register("claude", func() (brain.Provider, error) {
		return brain.NewClaude(brain.AnthropicOptions{
			APIKey:    cfg.AnthropicAPIKey,
			Model:     cfg.ClaudeModel,
			Transport: transport,
		})
	})
	providers.Register("deepseek", func() (brain.Provider, error) {
		return brain.NewDeepSeek(brain.AnthropicOptions{
			APIKey:    cfg.DeepSeekAPIKey,
			Model:     cfg.DeepSeekModel,
			Transport: transport,
		})
	})
	providers.Register("ollama", func() (brain.Provider, error) {
		return brain.NewOllama(brain.OllamaOptions{
			Host:      cfg.OllamaHost,
			Model:     cfg.OllamaModel,
			Transport: transport,
		})
	})

	provider, err := providers.New(cfg.Brain)
	if err != nil {
		return fmt.Errorf("starting brain %q: %w", cfg.Brain, err)
	}

	mode := agent.ModePlan
	if cfg.Mode == string(agent.ModeAct) {
		mode = agent.ModeAct
	}

	tools := agent.NewToolRegistry(agent.CoreTools()...)
	a := agent.New(provider, providers, tools, memory, agent.Config{
		Mode:          mode,
		MaxToolRounds: cfg.MaxToolRounds,
		Logger:        logger,
	})

	fmt.Println("Pocket v1.0")
	fmt.Println("Commands: /q quit, /switch rotate brain, /mode [plan|act]")
	fmt.Printf("Brain: %s\n", a.ProviderName())
	if a.Mode() == agent.ModeAct {
		fmt.Println("Mode: ACT (writing enabled)")
	} else {
		fmt.Println("Mode: PLAN (read-only)")
	}

	ctx := context.Background()
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		fmt.Printf("[%s:%s] > ", a.ProviderName(), a.Mode())
		if !scanner.Scan() {
			break
		}

		output, stop := a.HandleInput(ctx, scanner.Text())
		if stop {
			fmt.Println("Exiting...")
			break
		}
		if output != "" {
			fmt.Printf("\n%s\n\n", output)
		}
	}
	return scanner.Err()
}
