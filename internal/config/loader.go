package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// ConfigDir is the directory name under ~/.config
	ConfigDir = "beachai"
	// ConfigFile is the config file name
	ConfigFile = "config.json"
)

// FileSystem abstracts file operations for testability
type FileSystem interface {
	UserHomeDir() (string, error)
	ReadFile(path string) ([]byte, error)
}

// ConfigFileReader implements FileSystem using the real OS for config loading
type ConfigFileReader struct{}

func (ConfigFileReader) UserHomeDir() (string, error) {
	return os.UserHomeDir()
}

func (ConfigFileReader) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// LookupEnv matches os.LookupEnv.
type LookupEnv func(key string) (string, bool)

// Loader handles configuration loading with injected dependencies
type Loader struct {
	fs     FileSystem
	getenv LookupEnv
}

// NewLoader creates a production Loader using the real filesystem and environment
func NewLoader() *Loader {
	return &Loader{fs: ConfigFileReader{}, getenv: os.LookupEnv}
}

// NewLoaderWithFS creates a Loader with a custom filesystem and environment (for testing)
func NewLoaderWithFS(fs FileSystem, getenv LookupEnv) *Loader {
	if getenv == nil {
		getenv = func(string) (string, bool) { return "", false }
	}
	return &Loader{fs: fs, getenv: getenv}
}

// Load builds the configuration in three layers: defaults, then the config
// file, then environment variables. The result is validated.
//
// An empty path means ~/.config/beachai/config.json, which may be absent.
// An explicit path must exist. Files ending in .yaml or .yml are parsed as
// YAML, anything else as JSON.
//
// NOTE: The file is decoded directly over the default configuration.
// This allows explicit zero values (e.g., 0, false, "") in the config file to override defaults.
func (l *Loader) Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	explicit := path != ""
	if !explicit {
		homeDir, err := l.fs.UserHomeDir()
		if err == nil {
			path = filepath.Join(homeDir, ".config", ConfigDir, ConfigFile)
		}
	}

	if path != "" {
		data, err := l.fs.ReadFile(path)
		switch {
		case err == nil:
			if err := decode(path, data, cfg); err != nil {
				return nil, fmt.Errorf("parsing %s: %w", path, err)
			}
		case os.IsNotExist(err) && !explicit:
			// Use defaults if the dotfile doesn't exist
		default:
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
	}

	l.applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func decode(path string, data []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, cfg)
	default:
		return json.Unmarshal(data, cfg)
	}
}

// applyEnv overlays credentials and endpoints from the environment.
func (l *Loader) applyEnv(cfg *Config) {
	set := func(key string, dst *string) {
		if v, ok := l.getenv(key); ok && v != "" {
			*dst = v
		}
	}
	set("BEACHAI_MODEL_PROVIDER", &cfg.Model.Provider)
	set("OLLAMA_API_BASE", &cfg.Model.OllamaURL)
	set("OLLAMA_MODEL", &cfg.Model.Model)
	set("GEMINI_API_KEY", &cfg.Model.GeminiAPIKey)
	set("GOOGLE_PLACES_API_KEY", &cfg.APIs.PlacesAPIKey)
	set("NOAA_API_BASE_URL", &cfg.APIs.NOAABaseURL)
	set("ENVIRONMENT", &cfg.Server.Environment)
	set("BEACHAI_ADDR", &cfg.Server.Addr)
}

// Load is a convenience function using the default loader
func Load(path string) (*Config, error) {
	return NewLoader().Load(path)
}
