package config

import (
	"fmt"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for the mergeAI engine.
// Configuration can come from YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (passwords, API keys) must only come from environment variables.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"8080"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version  string `yaml:"-"` // Set at load time, not from config

	// DemoUserID is the identity assigned to unauthenticated requests.
	// Real identity resolution happens upstream; the engine only sees the
	// resolved user id.
	DemoUserID string `yaml:"demo_user_id" env:"DEMO_USER_ID" env-default:"demo_user"`

	// MigrationsPath is the directory containing SQL migrations.
	MigrationsPath string `yaml:"migrations_path" env:"MIGRATIONS_PATH" env-default:"migrations"`

	// Database configuration (PostgreSQL)
	Database DatabaseConfig `yaml:"database"`

	// AI model configuration for the agent pipeline
	AI AIConfig `yaml:"ai"`
}

// DatabaseConfig holds PostgreSQL database configuration.
type DatabaseConfig struct {
	Host           string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User           string `yaml:"user" env:"PGUSER" env-default:"mergeai"`
	Password       string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database       string `yaml:"database" env:"PGDATABASE" env-default:"mergeai"`
	MaxConnections int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"25"`
	SSLMode        string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
}

// AIConfig holds LLM endpoint configuration for the agent pipeline.
// The pipeline only needs a text-completion capability; which provider and
// model back it is wiring, so each agent's model is independently selectable.
type AIConfig struct {
	// Provider selects the client implementation: "openai" (any
	// OpenAI-compatible endpoint, including hosted Nemotron) or "anthropic".
	Provider string `yaml:"provider" env:"AI_PROVIDER" env-default:"openai"`

	// BaseURL is the API base URL, e.g. "https://integrate.api.nvidia.com/v1".
	BaseURL string `yaml:"base_url" env:"AI_BASE_URL" env-default:"https://integrate.api.nvidia.com/v1"`

	// APIKey authenticates against the endpoint. Secret - env only.
	APIKey string `yaml:"-" env:"AI_API_KEY"`

	// Per-agent model names. Schema, summary and chart selection are cheap
	// structured-output tasks; SQL synthesis gets the strongest model.
	SchemaModel  string `yaml:"schema_model" env:"AI_SCHEMA_MODEL" env-default:"nvidia/llama-3.1-nemotron-nano-8b-v1"`
	SQLModel     string `yaml:"sql_model" env:"AI_SQL_MODEL" env-default:"nvidia/llama-3.1-nemotron-ultra-253b-v1"`
	SummaryModel string `yaml:"summary_model" env:"AI_SUMMARY_MODEL" env-default:"nvidia/llama-3.1-nemotron-nano-8b-v1"`
	ChartModel   string `yaml:"chart_model" env:"AI_CHART_MODEL" env-default:"nvidia/llama-3.1-nemotron-nano-8b-v1"`
}

// Load reads configuration from config.yaml with environment variable overrides.
// The version parameter is injected at build time and set on the returned Config.
// If config.yaml does not exist, configuration comes from environment variables
// and defaults alone.
func Load(version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	if _, err := os.Stat("config.yaml"); err == nil {
		if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
			return nil, fmt.Errorf("failed to read config.yaml: %w", err)
		}
	} else {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	}

	return cfg, nil
}

// ConnectionString returns a PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}
