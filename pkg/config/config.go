package config

import (
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Log       LogConfig       `koanf:"log"`
	LLM       LLMConfig       `koanf:"llm"`
	Workflow  WorkflowConfig  `koanf:"workflow"`
	Memory    MemoryConfig    `koanf:"memory"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
	Registry  RegistryConfig  `koanf:"registry"`
	Jobs      JobsConfig      `koanf:"jobs"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"` // json, text
}

type LLMConfig struct {
	Provider    string  `koanf:"provider"` // ollama, mock
	Model       string  `koanf:"model"`
	BaseURL     string  `koanf:"base_url"`
	Temperature float64 `koanf:"temperature"`
}

type WorkflowConfig struct {
	// IdleTimeout aborts a run that waits too long for the next message.
	// Zero disables the check.
	IdleTimeout       string `koanf:"idle_timeout"`
	MaxReasks         int    `koanf:"max_reasks"`
	SuggestAfterTurns int    `koanf:"suggest_after_turns"`
}

type MemoryConfig struct {
	Provider string `koanf:"provider"` // inmemory, sqlite
	DSN      string `koanf:"dsn"`
}

type TelemetryConfig struct {
	Exporter     string `koanf:"exporter"` // stdout, otlp, none
	OTLPEndpoint string `koanf:"otlp_endpoint"`
	OTLPInsecure bool   `koanf:"otlp_insecure"`
}

type RegistryConfig struct {
	// PersonasPath and TasksPath override the built-in registries when set.
	PersonasPath string `koanf:"personas_path"`
	TasksPath    string `koanf:"tasks_path"`
}

type JobsConfig struct {
	Dir       string `koanf:"dir"`
	MaxAgeHrs int    `koanf:"max_age_hrs"`
}

// Global k instance
var k = koanf.New(".")

func Load(path string) (*Config, error) {
	// Defaults
	k.Set("log.level", "info")
	k.Set("log.format", "text")
	k.Set("llm.provider", "ollama")
	k.Set("llm.model", "qwen2.5:7b-instruct")
	k.Set("llm.base_url", "http://localhost:11434")
	k.Set("llm.temperature", 0.7)

	k.Set("workflow.idle_timeout", "0s")
	k.Set("workflow.max_reasks", 1)
	k.Set("workflow.suggest_after_turns", 5)

	k.Set("memory.provider", "inmemory")
	k.Set("memory.dsn", "planwright.db")

	k.Set("telemetry.exporter", "none")
	k.Set("telemetry.otlp_endpoint", "")
	k.Set("telemetry.otlp_insecure", true)

	k.Set("jobs.dir", "jobs")
	k.Set("jobs.max_age_hrs", 24)

	// 1. Load from file
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, err
		}
	}

	// 2. Load from ENV (PLANWRIGHT_LLM_PROVIDER -> llm.provider)
	if err := k.Load(env.Provider("PLANWRIGHT_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(
			strings.TrimPrefix(s, "PLANWRIGHT_")), "_", ".", -1)
	}), nil); err != nil {
		return nil, err
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
