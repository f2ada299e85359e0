package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/Cyclone1070/beachai/internal/adapter"
	"github.com/Cyclone1070/beachai/internal/cache"
	"github.com/Cyclone1070/beachai/internal/config"
	"github.com/Cyclone1070/beachai/internal/memory"
	"github.com/Cyclone1070/beachai/internal/orchestrator"
	"github.com/Cyclone1070/beachai/internal/provider"
	"github.com/Cyclone1070/beachai/internal/provider/gemini"
	"github.com/Cyclone1070/beachai/internal/provider/ollama"
	"github.com/Cyclone1070/beachai/internal/ratelimit"
	"github.com/Cyclone1070/beachai/internal/tool"
)

// app holds the wired components shared by every command.
type app struct {
	cfg      *config.Config
	registry *tool.Registry
	memory   *memory.Store
	cache    *cache.Cache
	limiter  *ratelimit.Limiter
	orch     *orchestrator.Orchestrator
	logger   *log.Logger
}

// loadConfig reads the config selected by -f, or the default location.
func loadConfig() (*config.Config, error) {
	cfg, err := config.NewLoader().Load(options.Config)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func newLogger() *log.Logger {
	if !options.Verbose {
		return log.New(io.Discard, "", 0)
	}
	return log.New(os.Stderr, "", log.LstdFlags)
}

// newProvider selects the model backend named by cfg.Provider.
func newProvider(ctx context.Context, cfg config.ModelConfig) (provider.Provider, error) {
	switch cfg.Provider {
	case "gemini":
		if cfg.GeminiAPIKey == "" {
			return nil, errors.New("gemini provider requires GEMINI_API_KEY")
		}
		client, err := gemini.Dial(ctx, cfg.GeminiAPIKey)
		if err != nil {
			return nil, fmt.Errorf("failed to create Gemini client: %w", err)
		}
		return gemini.New(client, cfg.Model), nil
	case "ollama":
		return ollama.New(cfg.Model,
			ollama.WithBaseURL(cfg.OllamaURL),
			ollama.WithHTTPClient(&http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second}),
		), nil
	default:
		return nil, fmt.Errorf("unknown model provider %q", cfg.Provider)
	}
}

// newLimiter builds the limiter with one bucket per configured source.
func newLimiter(cfg config.RateLimitConfig, logger *log.Logger) *ratelimit.Limiter {
	l := ratelimit.New(
		ratelimit.Policy(cfg.Policy),
		time.Duration(cfg.MaxWaitMs)*time.Millisecond,
		ratelimit.WithLogger(logger),
	)
	for source, b := range cfg.Buckets {
		l.Configure(source, b.Capacity, b.RefillPerSecond)
	}
	return l
}

// newApp wires every component around p.
func newApp(cfg *config.Config, p provider.Provider, logger *log.Logger) (*app, error) {
	reg, err := adapter.NewRegistry(cfg.APIs, adapter.WithLogger(logger))
	if err != nil {
		return nil, err
	}

	store := memory.NewStore(cfg.Memory.MaxTurns,
		time.Duration(cfg.Memory.IdleTimeoutSeconds)*time.Second,
		memory.WithLogger(logger),
	)
	results := cache.New(cfg.Cache.MaxEntries, cache.WithLogger(logger))
	limiter := newLimiter(cfg.RateLimit, logger)
	orch := orchestrator.New(p, reg, results, limiter, store,
		orchestrator.SettingsFromConfig(cfg),
		orchestrator.WithLogger(logger),
	)

	logger.Printf("[beachai] %s/%s with tools %v", p.Name(), p.Model(), reg.Names())
	return &app{
		cfg:      cfg,
		registry: reg,
		memory:   store,
		cache:    results,
		limiter:  limiter,
		orch:     orch,
		logger:   logger,
	}, nil
}

// bootstrap loads config and builds the app with the configured provider.
func bootstrap(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	p, err := newProvider(ctx, cfg.Model)
	if err != nil {
		return nil, err
	}
	return newApp(cfg, p, newLogger())
}
