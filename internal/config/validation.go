package config

import (
	"fmt"
	"strings"
)

// Validate checks config values for life correctness.
// Returns an error if any values are invalid.
func (c *Config) Validate() error {
	var errs []string

	// Model validation
	switch c.Model.Provider {
	case "ollama":
		if strings.TrimSpace(c.Model.OllamaURL) == "" {
			errs = append(errs, "model.ollama_url is required for the ollama provider")
		}
	case "gemini":
		if strings.TrimSpace(c.Model.GeminiAPIKey) == "" {
			errs = append(errs, "model.gemini_api_key (or GEMINI_API_KEY) is required for the gemini provider")
		}
	default:
		errs = append(errs, fmt.Sprintf("model.provider must be \"ollama\" or \"gemini\", got %q", c.Model.Provider))
	}
	if strings.TrimSpace(c.Model.Model) == "" {
		errs = append(errs, "model.model is required")
	}
	if c.Model.Temperature < 0 || c.Model.Temperature > 2 {
		errs = append(errs, "model.temperature must be between 0 and 2")
	}
	if c.Model.MaxOutputTokens < 1 {
		errs = append(errs, "model.max_output_tokens must be >= 1")
	}
	if c.Model.TimeoutSeconds < 1 {
		errs = append(errs, "model.timeout_seconds must be >= 1")
	}

	// Orchestrator validation
	if c.Orchestrator.MaxRoundTrips < 1 {
		errs = append(errs, "orchestrator.max_round_trips must be >= 1")
	}
	if c.Orchestrator.RequestTimeoutSeconds < 1 {
		errs = append(errs, "orchestrator.request_timeout_seconds must be >= 1")
	}
	if c.Orchestrator.ToolTimeoutSeconds < 1 {
		errs = append(errs, "orchestrator.tool_timeout_seconds must be >= 1")
	}
	if c.Orchestrator.HistoryTurns < 1 {
		errs = append(errs, "orchestrator.history_turns must be >= 1")
	}
	if c.Orchestrator.ModelRetries < 0 {
		errs = append(errs, "orchestrator.model_retries must be >= 0")
	}
	if c.Orchestrator.ToolTimeoutSeconds > c.Orchestrator.RequestTimeoutSeconds {
		errs = append(errs, "orchestrator.tool_timeout_seconds must be <= orchestrator.request_timeout_seconds")
	}

	// Cache validation
	if c.Cache.TTLSeconds < 1 {
		errs = append(errs, "cache.ttl_seconds must be >= 1")
	}
	if c.Cache.MaxEntries < 1 {
		errs = append(errs, "cache.max_entries must be >= 1")
	}
	for name, ttl := range c.Cache.ToolTTLSeconds {
		if ttl < 1 {
			errs = append(errs, fmt.Sprintf("cache.tool_ttl_seconds.%s must be >= 1", name))
		}
	}

	// Rate limit validation
	if c.RateLimit.Policy != "block" && c.RateLimit.Policy != "fail_fast" {
		errs = append(errs, fmt.Sprintf("rate_limit.policy must be \"block\" or \"fail_fast\", got %q", c.RateLimit.Policy))
	}
	if c.RateLimit.MaxWaitMs < 0 {
		errs = append(errs, "rate_limit.max_wait_ms must be >= 0")
	}
	for name, b := range c.RateLimit.Buckets {
		if b.Capacity < 1 {
			errs = append(errs, fmt.Sprintf("rate_limit.buckets.%s.capacity must be >= 1", name))
		}
		if b.RefillPerSecond <= 0 {
			errs = append(errs, fmt.Sprintf("rate_limit.buckets.%s.refill_per_second must be > 0", name))
		}
	}

	// Memory validation
	if c.Memory.MaxTurns < 1 {
		errs = append(errs, "memory.max_turns must be >= 1")
	}
	if c.Memory.IdleTimeoutSeconds < 1 {
		errs = append(errs, "memory.idle_timeout_seconds must be >= 1")
	}

	// APIs validation
	if c.APIs.NOAABaseURL == "" || c.APIs.NOAAStationsURL == "" || c.APIs.NWSBaseURL == "" || c.APIs.PlacesBaseURL == "" {
		errs = append(errs, "apis base URLs must not be empty")
	}
	if c.APIs.StationRadiusKm <= 0 {
		errs = append(errs, "apis.station_radius_km must be > 0")
	}
	if c.APIs.ForecastPeriods < 1 {
		errs = append(errs, "apis.forecast_periods must be >= 1")
	}
	if c.APIs.MaxPlaces < 1 {
		errs = append(errs, "apis.max_places must be >= 1")
	}
	if c.APIs.DefaultPlacesRadius < 1 || c.APIs.DefaultPlacesRadius > 50000 {
		errs = append(errs, "apis.default_places_radius must be between 1 and 50000")
	}

	// Server validation
	if c.Server.Addr == "" {
		errs = append(errs, "server.addr is required")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed: %v", errs)
	}

	return nil
}
