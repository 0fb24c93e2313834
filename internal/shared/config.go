package shared

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/ilyakaznacheev/cleanenv"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file and the environment.
type Config struct {
	Database  DatabaseConfig  `toml:"database"`
	Deck      DeckConfig      `toml:"deck"`
	Generator GeneratorConfig `toml:"generator"`
	Import    ImportConfig    `toml:"import"`
	Log       LogConfig       `toml:"log"`
}

// DatabaseConfig contains the SQLite file locations and pool settings.
type DatabaseConfig struct {
	LedgerPath   string `toml:"ledger_path" env:"GREEKDECK_LEDGER"`
	CachePath    string `toml:"cache_path" env:"GREEKDECK_CACHE"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// DeckConfig identifies the main deck and where new packages are written.
type DeckConfig struct {
	APKG      string `toml:"apkg" env:"GREEKDECK_APKG"`
	DeckID    int64  `toml:"deck_id"`
	DeckName  string `toml:"deck_name"`
	ModelID   int64  `toml:"model_id"`
	ModelName string `toml:"model_name"`
	OutputDir string `toml:"output_dir" env:"GREEKDECK_OUTPUT_DIR"`
}

// GeneratorConfig contains card generation settings.
type GeneratorConfig struct {
	Model         string  `toml:"model" env:"GREEKDECK_MODEL"`
	MaxTokens     int64   `toml:"max_tokens"`
	PromptPath    string  `toml:"prompt_path"`
	APIKey        string  `toml:"api_key" env:"ANTHROPIC_API_KEY"`
	BaseURL       string  `toml:"base_url" env:"ANTHROPIC_BASE_URL"`
	DelaySeconds  float64 `toml:"delay_seconds"`
	MaxAttempts   int     `toml:"max_attempts"`
	TokensPerCard int     `toml:"tokens_per_card"`
	CostPerToken  float64 `toml:"cost_per_token"`
}

// ImportConfig contains frequency list import settings.
type ImportConfig struct {
	AutoSkipFunctionWords bool `toml:"auto_skip_function_words"`
}

// LogConfig contains logger settings.
type LogConfig struct {
	Level string `toml:"level" env:"GREEKDECK_LOG_LEVEL"`
	File  string `toml:"file" env:"GREEKDECK_LOG_FILE"`
}

// LoadConfig overlays the TOML file at path and then the environment onto [DefaultConfig].
// An empty path reads the environment only.
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()

	if path == "" {
		if err := cleanenv.ReadEnv(config); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
		return config, nil
	}

	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := cleanenv.ReadConfig(path, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// SaveConfig writes config to path as TOML, replacing any existing file.
func SaveConfig(path string, config *Config) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
