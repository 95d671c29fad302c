// Package cli holds configuration loading shared by the weft commands.
package cli

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/arbored/weft/pkg/llm"
	"gopkg.in/yaml.v3"
)

// Config is the on-disk configuration for the weft binary.
type Config struct {
	// LLM configures the chat model backing the analyst nodes.
	LLM llm.Config `yaml:"llm"`

	// Redis enables the durable run store when Addr is set; otherwise
	// runs are kept in memory.
	Redis RedisConfig `yaml:"redis"`

	// Server configures the HTTP API.
	Server ServerConfig `yaml:"server"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`

	// MaxConcurrent caps parallel node execution. Zero means unlimited.
	MaxConcurrent int `yaml:"max_concurrent"`
}

// Duration wraps time.Duration so yaml can parse "24h" style values.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// RedisConfig mirrors the redis adapter settings.
type RedisConfig struct {
	Addr     string   `yaml:"addr"`
	Password string   `yaml:"password"`
	DB       int      `yaml:"db"`
	TTL      Duration `yaml:"ttl"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// Default returns the configuration used when no file is present: a local
// Ollama endpoint and an in-memory run store.
func Default() Config {
	return Config{
		LLM: llm.Config{
			BaseURL: "http://localhost:11434/v1",
			APIKey:  "ollama",
			Model:   "llama3.2",
		},
		Server:   ServerConfig{Port: 8080},
		LogLevel: "info",
	}
}

// Load reads the config file at path, applying defaults for anything the
// file leaves out. A missing file is not an error; the defaults apply.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	// Environment wins over file for the API key, so secrets stay out of
	// config files.
	if key := os.Getenv("WEFT_API_KEY"); key != "" {
		cfg.LLM.APIKey = key
	}

	return cfg, nil
}

// Level parses LogLevel, defaulting to info on unknown values.
func (c Config) Level() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
