package config

// Config holds all application configuration values.
// Defaults are set in DefaultConfig() and can be overridden via a config file
// and then via environment variables.
// NOTE: Values in config files override defaults, including explicit zero values.
// Missing keys are left at their default values.
type Config struct {
	Model        ModelConfig        `json:"model" yaml:"model"`
	Orchestrator OrchestratorConfig `json:"orchestrator" yaml:"orchestrator"`
	Cache        CacheConfig        `json:"cache" yaml:"cache"`
	RateLimit    RateLimitConfig    `json:"rate_limit" yaml:"rate_limit"`
	Memory       MemoryConfig       `json:"memory" yaml:"memory"`
	APIs         APIsConfig         `json:"apis" yaml:"apis"`
	Server       ServerConfig       `json:"server" yaml:"server"`
}

type ModelConfig struct {
	Provider        string  `json:"provider" yaml:"provider"`                   // Default: "ollama" ("ollama" or "gemini")
	OllamaURL       string  `json:"ollama_url" yaml:"ollama_url"`               // Default: http://localhost:11434
	Model           string  `json:"model" yaml:"model"`                         // Default: "llama3.2"
	GeminiAPIKey    string  `json:"gemini_api_key" yaml:"gemini_api_key"`       // Default: "" (env GEMINI_API_KEY)
	Temperature     float32 `json:"temperature" yaml:"temperature"`             // Default: 0.7
	MaxOutputTokens int     `json:"max_output_tokens" yaml:"max_output_tokens"` // Default: 1000
	TimeoutSeconds  int     `json:"timeout_seconds" yaml:"timeout_seconds"`     // Default: 120
	SystemPrompt    string  `json:"system_prompt" yaml:"system_prompt"`
}

type OrchestratorConfig struct {
	MaxRoundTrips         int `json:"max_round_trips" yaml:"max_round_trips"`                 // Default: 5
	RequestTimeoutSeconds int `json:"request_timeout_seconds" yaml:"request_timeout_seconds"` // Default: 60
	ToolTimeoutSeconds    int `json:"tool_timeout_seconds" yaml:"tool_timeout_seconds"`       // Default: 10
	HistoryTurns          int `json:"history_turns" yaml:"history_turns"`                     // Default: 20
	ModelRetries          int `json:"model_retries" yaml:"model_retries"`                     // Default: 2
}

type CacheConfig struct {
	TTLSeconds     int            `json:"ttl_seconds" yaml:"ttl_seconds"`           // Default: 600
	MaxEntries     int            `json:"max_entries" yaml:"max_entries"`           // Default: 1024
	ToolTTLSeconds map[string]int `json:"tool_ttl_seconds" yaml:"tool_ttl_seconds"` // Per-tool overrides
}

type RateLimitConfig struct {
	Policy    string                  `json:"policy" yaml:"policy"`           // Default: "block" ("block" or "fail_fast")
	MaxWaitMs int                     `json:"max_wait_ms" yaml:"max_wait_ms"` // Default: 2000
	Buckets   map[string]BucketConfig `json:"buckets" yaml:"buckets"`         // Keyed by adapter source name
}

type BucketConfig struct {
	Capacity        float64 `json:"capacity" yaml:"capacity"`
	RefillPerSecond float64 `json:"refill_per_second" yaml:"refill_per_second"`
}

type MemoryConfig struct {
	MaxTurns           int `json:"max_turns" yaml:"max_turns"`                       // Default: 20
	IdleTimeoutSeconds int `json:"idle_timeout_seconds" yaml:"idle_timeout_seconds"` // Default: 1800
}

type APIsConfig struct {
	NOAABaseURL         string  `json:"noaa_base_url" yaml:"noaa_base_url"`
	NOAAStationsURL     string  `json:"noaa_stations_url" yaml:"noaa_stations_url"`
	StationRadiusKm     float64 `json:"station_radius_km" yaml:"station_radius_km"` // Default: 50
	NWSBaseURL          string  `json:"nws_base_url" yaml:"nws_base_url"`
	PlacesBaseURL       string  `json:"places_base_url" yaml:"places_base_url"`
	PlacesAPIKey        string  `json:"places_api_key" yaml:"places_api_key"`
	UserAgent           string  `json:"user_agent" yaml:"user_agent"`
	Application         string  `json:"application" yaml:"application"`
	ForecastPeriods     int     `json:"forecast_periods" yaml:"forecast_periods"`           // Default: 6
	MaxPlaces           int     `json:"max_places" yaml:"max_places"`                       // Default: 10
	DefaultPlacesRadius int     `json:"default_places_radius" yaml:"default_places_radius"` // Default: 5000 (meters)
}

type ServerConfig struct {
	Addr        string   `json:"addr" yaml:"addr"`                 // Default: ":8080"
	CORSOrigins []string `json:"cors_origins" yaml:"cors_origins"` // Default: ["*"]
	Environment string   `json:"environment" yaml:"environment"`   // Default: "development"
	Debug       bool     `json:"debug" yaml:"debug"`               // Default: true
}

// DefaultSystemPrompt guides the model toward grounded beach answers.
const DefaultSystemPrompt = `You are a helpful AI assistant that provides information about beaches in the USA.
You can help users find information about beach conditions, weather, tides, water temperature and nearby amenities.
Use the available tools to look up live data instead of guessing. All tool data uses metric units
(meters, degrees Celsius, km/h); convert for the user when they ask for other units.
If a tool reports an error, tell the user which information is unavailable.
Be concise, accurate, and helpful in your responses.`

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Model: ModelConfig{
			Provider:        "ollama",
			OllamaURL:       "http://localhost:11434",
			Model:           "llama3.2",
			Temperature:     0.7,
			MaxOutputTokens: 1000,
			TimeoutSeconds:  120,
			SystemPrompt:    DefaultSystemPrompt,
		},
		Orchestrator: OrchestratorConfig{
			MaxRoundTrips:         5,
			RequestTimeoutSeconds: 60,
			ToolTimeoutSeconds:    10,
			HistoryTurns:          20,
			ModelRetries:          2,
		},
		Cache: CacheConfig{
			TTLSeconds: 600,
			MaxEntries: 1024,
			ToolTTLSeconds: map[string]int{
				"get_weather":       300,
				"search_places":     3600,
				"get_place_details": 3600,
			},
		},
		RateLimit: RateLimitConfig{
			Policy:    "block",
			MaxWaitMs: 2000,
			Buckets: map[string]BucketConfig{
				"noaa":   {Capacity: 10, RefillPerSecond: 1},
				"nws":    {Capacity: 5, RefillPerSecond: 0.5},
				"places": {Capacity: 5, RefillPerSecond: 0.2},
			},
		},
		Memory: MemoryConfig{
			MaxTurns:           20,
			IdleTimeoutSeconds: 1800,
		},
		APIs: APIsConfig{
			NOAABaseURL:         "https://api.tidesandcurrents.noaa.gov/api/prod/",
			NOAAStationsURL:     "https://api.tidesandcurrents.noaa.gov/mdapi/prod/webapi/stations.json",
			StationRadiusKm:     50,
			NWSBaseURL:          "https://api.weather.gov",
			PlacesBaseURL:       "https://maps.googleapis.com/maps/api/place",
			UserAgent:           "beach-ai/1.0",
			Application:         "beach-ai",
			ForecastPeriods:     6,
			MaxPlaces:           10,
			DefaultPlacesRadius: 5000,
		},
		Server: ServerConfig{
			Addr:        ":8080",
			CORSOrigins: []string{"*"},
			Environment: "development",
			Debug:       true,
		},
	}
}
