package app

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/tailored-agentic-units/hitl/agent"
	"github.com/tailored-agentic-units/hitl/checkpoint"
	"github.com/tailored-agentic-units/hitl/controller"
	"github.com/tailored-agentic-units/hitl/session"
)

// Environment variables read by ApplyEnv.
const (
	EnvRedisURL   = "REDIS_URL"
	EnvCheckpoint = "HITL_CHECKPOINT"
	EnvThreadID   = "HITL_THREAD_ID"
)

// LogConfig selects the event sinks.
type LogConfig struct {
	// Format is "slog", "zap", "noop", or a name registered with
	// observability.RegisterObserver.
	Format string `json:"format,omitempty" yaml:"format,omitempty"`
	// Level is debug, info, warn, or error.
	Level string `json:"level,omitempty" yaml:"level,omitempty"`
	// MetricsAddr, when set, serves Prometheus metrics at /metrics.
	MetricsAddr string `json:"metrics_addr,omitempty" yaml:"metrics_addr,omitempty"`
	Namespace   string `json:"namespace,omitempty" yaml:"namespace,omitempty"`
}

// Config holds initialization parameters for every subsystem. Each section
// delegates to that subsystem's config.
type Config struct {
	Controller controller.Config `json:"controller" yaml:"controller"`
	Agent      agent.Config      `json:"agent" yaml:"agent"`
	Checkpoint checkpoint.Config `json:"checkpoint" yaml:"checkpoint"`
	Session    session.Config    `json:"session" yaml:"session"`
	Log        LogConfig         `json:"log" yaml:"log"`
}

func DefaultConfig() Config {
	return Config{
		Controller: controller.DefaultConfig(),
		Agent:      agent.DefaultConfig(),
		Checkpoint: checkpoint.DefaultConfig(),
		Session:    session.DefaultConfig(),
		Log: LogConfig{
			Format:    "slog",
			Level:     "warn",
			Namespace: "hitl",
		},
	}
}

// Merge applies non-zero values from source into c, delegating to each
// subsystem's Merge.
func (c *Config) Merge(source *Config) {
	c.Controller.Merge(&source.Controller)
	c.Agent.Merge(&source.Agent)
	c.Checkpoint.Merge(&source.Checkpoint)
	c.Session.Merge(&source.Session)

	if source.Log.Format != "" {
		c.Log.Format = source.Log.Format
	}
	if source.Log.Level != "" {
		c.Log.Level = source.Log.Level
	}
	if source.Log.MetricsAddr != "" {
		c.Log.MetricsAddr = source.Log.MetricsAddr
	}
	if source.Log.Namespace != "" {
		c.Log.Namespace = source.Log.Namespace
	}
}

// ApplyEnv overrides c from environment variables looked up with getenv.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if url := getenv(EnvRedisURL); url != "" {
		c.Checkpoint.Redis.URL = url
	}
	if backend := getenv(EnvCheckpoint); backend != "" {
		c.Checkpoint.Backend = backend
	}
	if id := getenv(EnvThreadID); id != "" {
		c.Session.ThreadID = id
	}
}

// LoadConfig reads a JSON or YAML config file (by extension), merges it with
// defaults, and returns the resulting Config.
func LoadConfig(filename string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var loaded Config
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &loaded)
	default:
		err = json.Unmarshal(data, &loaded)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.Merge(&loaded)
	return &cfg, nil
}
