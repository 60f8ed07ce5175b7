package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Config represents the application configuration
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Logging  LoggingConfig  `toml:"logging"`
	Storage  StorageConfig  `toml:"storage"`
	Fleet    FleetConfig    `toml:"fleet"`
	Briefing BriefingConfig `toml:"briefing"`
}

// ServerConfig represents the HTTP server configuration
type ServerConfig struct {
	Host               string   `toml:"host"`
	Port               int      `toml:"port"`
	ReadTimeoutSecs    int      `toml:"read_timeout_secs"`
	WriteTimeoutSecs   int      `toml:"write_timeout_secs"`
	CORSAllowedOrigins []string `toml:"cors_allowed_origins"`
	StaticFilesDir     string   `toml:"static_files_dir"`
}

// LoggingConfig represents the logging configuration
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// StorageConfig represents the SQLite storage configuration
type StorageConfig struct {
	DatabasePath string `toml:"database_path"`
}

// FleetConfig represents fleet-level settings
type FleetConfig struct {
	// UnitCodes restricts which unit codes the dashboard tracks. Empty
	// means any code matching the [FS]<digit> pattern is accepted.
	UnitCodes []string `toml:"unit_codes"`
}

// BriefingConfig represents the optional LLM briefing generator
type BriefingConfig struct {
	Enabled          bool   `toml:"enabled"`
	Model            string `toml:"model"`
	IntervalSeconds  int    `toml:"interval_seconds"`
	TimeoutSeconds   int    `toml:"timeout_seconds"`
	SystemPromptPath string `toml:"system_prompt_path"`
	APIKeyEnv        string `toml:"api_key_env"`
}

// Load loads the configuration from the given TOML file path
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to decode config file: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// defaultConfig returns a configuration populated with sane defaults
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:             "0.0.0.0",
			Port:             8080,
			ReadTimeoutSecs:  30,
			WriteTimeoutSecs: 30,
			StaticFilesDir:   "web",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Storage: StorageConfig{
			DatabasePath: "fleetboard.db",
		},
		Briefing: BriefingConfig{
			Enabled:         false,
			Model:           "gpt-4o-mini",
			IntervalSeconds: 900,
			TimeoutSeconds:  60,
			APIKeyEnv:       "OPENAI_API_KEY",
		},
	}
}

// validate checks the configuration for obvious mistakes
func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Storage.DatabasePath == "" {
		return fmt.Errorf("storage database_path must not be empty")
	}
	if c.Briefing.Enabled && c.Briefing.IntervalSeconds <= 0 {
		return fmt.Errorf("briefing interval_seconds must be positive when enabled")
	}
	return nil
}
