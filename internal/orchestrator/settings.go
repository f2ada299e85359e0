package orchestrator

import (
	"time"

	"github.com/Cyclone1070/beachai/internal/config"
)

// Settings bound one request.
type Settings struct {
	SystemPrompt string

	// MaxRoundTrips is the number of model -> tools round trips allowed per
	// user turn before the request is aborted.
	MaxRoundTrips int

	// RequestTimeout bounds the whole request; zero means no bound.
	RequestTimeout time.Duration
	ToolTimeout    time.Duration

	// HistoryTurns is how many stored turns are sent to the model.
	HistoryTurns int

	// ModelRetries is how many times a retryable model error is retried.
	ModelRetries int
	RetryBackoff time.Duration

	CacheTTL     time.Duration
	ToolCacheTTL map[string]time.Duration

	Temperature     *float32
	MaxOutputTokens *int
}

// SettingsFromConfig derives Settings from the application config.
func SettingsFromConfig(cfg *config.Config) Settings {
	toolTTL := make(map[string]time.Duration, len(cfg.Cache.ToolTTLSeconds))
	for name, secs := range cfg.Cache.ToolTTLSeconds {
		toolTTL[name] = time.Duration(secs) * time.Second
	}
	temperature := cfg.Model.Temperature
	maxTokens := cfg.Model.MaxOutputTokens

	return Settings{
		SystemPrompt:    cfg.Model.SystemPrompt,
		MaxRoundTrips:   cfg.Orchestrator.MaxRoundTrips,
		RequestTimeout:  time.Duration(cfg.Orchestrator.RequestTimeoutSeconds) * time.Second,
		ToolTimeout:     time.Duration(cfg.Orchestrator.ToolTimeoutSeconds) * time.Second,
		HistoryTurns:    cfg.Orchestrator.HistoryTurns,
		ModelRetries:    cfg.Orchestrator.ModelRetries,
		RetryBackoff:    500 * time.Millisecond,
		CacheTTL:        time.Duration(cfg.Cache.TTLSeconds) * time.Second,
		ToolCacheTTL:    toolTTL,
		Temperature:     &temperature,
		MaxOutputTokens: &maxTokens,
	}
}

// ttlFor returns the cache TTL of toolName.
func (s Settings) ttlFor(toolName string) time.Duration {
	if ttl, ok := s.ToolCacheTTL[toolName]; ok {
		return ttl
	}
	return s.CacheTTL
}
