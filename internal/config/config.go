// Package config handles configuration loading and management for dgot.
// It supports XDG config paths, project-level overrides, and environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Provider names an Oracle transport.
type Provider string

const (
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
)

// Valid returns true if the provider is known.
func (p Provider) Valid() bool {
	return p == ProviderOpenAI || p == ProviderAnthropic
}

// ErrInvalidConfig is wrapped by every Validate failure.
var ErrInvalidConfig = errors.New("invalid config")

// Config holds all configuration for dgot.
type Config struct {
	Oracle    OracleConfig    `mapstructure:"oracle"`
	Anthropic AnthropicConfig `mapstructure:"anthropic"`
	Solve     SolveConfig     `mapstructure:"solve"`
	Report    ReportConfig    `mapstructure:"report"`
	Log       LogConfig       `mapstructure:"log"`
}

// OracleConfig selects and configures the Oracle transport.
type OracleConfig struct {
	// Provider is "openai" (any OpenAI-compatible endpoint) or "anthropic".
	Provider Provider `mapstructure:"provider"`
	// BaseURL is the OpenAI-compatible endpoint.
	BaseURL string `mapstructure:"base_url"`
	// APIKey is the OpenAI-compatible API key.
	APIKey string `mapstructure:"api_key"`
	// Model is the model name. Empty means use the first model the endpoint lists.
	Model       string        `mapstructure:"model"`
	Temperature float64       `mapstructure:"temperature"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	APIKey     string `mapstructure:"api_key"`
	UseBedrock bool   `mapstructure:"use_bedrock"`
	AWSRegion  string `mapstructure:"aws_region"`
	AWSProfile string `mapstructure:"aws_profile"`
}

// SolveConfig holds the recursion and concurrency bounds.
type SolveConfig struct {
	MaxDepth          int     `mapstructure:"max_depth"`
	MaxWidth          int     `mapstructure:"max_width"`
	MaxConcurrency    int     `mapstructure:"max_concurrency"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
}

// ReportConfig holds result tree rendering settings.
type ReportConfig struct {
	Truncate int  `mapstructure:"truncate"`
	Color    bool `mapstructure:"color"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Debug bool `mapstructure:"debug"`
	JSON  bool `mapstructure:"json"`
}

// Load loads configuration from XDG paths, project overrides, and environment variables.
// Precedence (highest to lowest):
// 1. Environment variables (OPENAI_API_KEY, ANTHROPIC_API_KEY, DGOT_*)
// 2. Project config (.dgot.yaml in current directory or parent)
// 3. User config (~/.config/dgot/config.yaml)
// 4. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	// Load user config from XDG path
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(getUserConfigDir())

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading user config: %w", err)
		}
	}

	// Load project config if present
	if projectConfig := findProjectConfig(); projectConfig != "" {
		projectViper := viper.New()
		projectViper.SetConfigFile(projectConfig)
		if err := projectViper.ReadInConfig(); err == nil {
			if err := v.MergeConfigMap(projectViper.AllSettings()); err != nil {
				return nil, fmt.Errorf("merging project config: %w", err)
			}
		}
	}

	bindEnv(v)

	return unmarshal(v)
}

// LoadFromPath loads configuration from a specific path (for testing).
func LoadFromPath(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}

	return unmarshal(v)
}

func bindEnv(v *viper.Viper) {
	v.SetEnvPrefix("DGOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	_ = v.BindEnv("oracle.api_key", "DGOT_ORACLE_API_KEY", "OPENAI_API_KEY")
	_ = v.BindEnv("oracle.base_url", "DGOT_ORACLE_BASE_URL", "OPENAI_BASE_URL")
	_ = v.BindEnv("anthropic.api_key", "DGOT_ANTHROPIC_API_KEY", "ANTHROPIC_API_KEY")
}

func unmarshal(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	// Expand ${VAR} references
	cfg.Oracle.APIKey = expandEnv(cfg.Oracle.APIKey)
	cfg.Anthropic.APIKey = expandEnv(cfg.Anthropic.APIKey)

	return cfg, nil
}

// Validate checks the bounds that the engine and transport rely on.
func (c *Config) Validate() error {
	if !c.Oracle.Provider.Valid() {
		return fmt.Errorf("%w: unknown oracle.provider %q", ErrInvalidConfig, c.Oracle.Provider)
	}
	if c.Solve.MaxDepth < 0 {
		return fmt.Errorf("%w: solve.max_depth must be >= 0, got %d", ErrInvalidConfig, c.Solve.MaxDepth)
	}
	if c.Solve.MaxWidth < 1 {
		return fmt.Errorf("%w: solve.max_width must be >= 1, got %d", ErrInvalidConfig, c.Solve.MaxWidth)
	}
	if c.Solve.MaxConcurrency < 1 {
		return fmt.Errorf("%w: solve.max_concurrency must be >= 1, got %d", ErrInvalidConfig, c.Solve.MaxConcurrency)
	}
	if c.Solve.RequestsPerSecond < 0 {
		return fmt.Errorf("%w: solve.requests_per_second must be >= 0, got %v", ErrInvalidConfig, c.Solve.RequestsPerSecond)
	}
	if c.Oracle.Temperature < 0 || c.Oracle.Temperature > 2 {
		return fmt.Errorf("%w: oracle.temperature must be in [0, 2], got %v", ErrInvalidConfig, c.Oracle.Temperature)
	}
	return nil
}

// Save writes the configuration to the user config file.
func Save(cfg *Config) error {
	userConfigDir := getUserConfigDir()
	if err := os.MkdirAll(userConfigDir, 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(filepath.Join(userConfigDir, "config.yaml"))

	v.Set("oracle.provider", string(cfg.Oracle.Provider))
	v.Set("oracle.base_url", cfg.Oracle.BaseURL)
	v.Set("oracle.api_key", cfg.Oracle.APIKey)
	v.Set("oracle.model", cfg.Oracle.Model)
	v.Set("oracle.temperature", cfg.Oracle.Temperature)
	v.Set("oracle.timeout", cfg.Oracle.Timeout.String())
	v.Set("anthropic.api_key", cfg.Anthropic.APIKey)
	v.Set("anthropic.use_bedrock", cfg.Anthropic.UseBedrock)
	v.Set("anthropic.aws_region", cfg.Anthropic.AWSRegion)
	v.Set("anthropic.aws_profile", cfg.Anthropic.AWSProfile)
	v.Set("solve.max_depth", cfg.Solve.MaxDepth)
	v.Set("solve.max_width", cfg.Solve.MaxWidth)
	v.Set("solve.max_concurrency", cfg.Solve.MaxConcurrency)
	v.Set("solve.requests_per_second", cfg.Solve.RequestsPerSecond)
	v.Set("report.truncate", cfg.Report.Truncate)
	v.Set("report.color", cfg.Report.Color)
	v.Set("log.debug", cfg.Log.Debug)
	v.Set("log.json", cfg.Log.JSON)

	return v.WriteConfig()
}

// GetUserConfigPath returns the path to the user config file.
func GetUserConfigPath() string {
	return filepath.Join(getUserConfigDir(), "config.yaml")
}

// GetProjectConfigPath returns the path to the project config file if it exists.
func GetProjectConfigPath() string {
	return findProjectConfig()
}

// setDefaults configures default values.
func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("oracle.provider", string(d.Oracle.Provider))
	v.SetDefault("oracle.base_url", d.Oracle.BaseURL)
	v.SetDefault("oracle.api_key", d.Oracle.APIKey)
	v.SetDefault("oracle.model", "")
	v.SetDefault("oracle.temperature", d.Oracle.Temperature)
	v.SetDefault("oracle.timeout", d.Oracle.Timeout.String())

	v.SetDefault("anthropic.api_key", "")
	v.SetDefault("anthropic.use_bedrock", false)
	v.SetDefault("anthropic.aws_region", "")
	v.SetDefault("anthropic.aws_profile", "")

	v.SetDefault("solve.max_depth", d.Solve.MaxDepth)
	v.SetDefault("solve.max_width", d.Solve.MaxWidth)
	v.SetDefault("solve.max_concurrency", d.Solve.MaxConcurrency)
	v.SetDefault("solve.requests_per_second", d.Solve.RequestsPerSecond)

	v.SetDefault("report.truncate", d.Report.Truncate)
	v.SetDefault("report.color", d.Report.Color)

	v.SetDefault("log.debug", false)
	v.SetDefault("log.json", false)
}

// getUserConfigDir returns the XDG config directory for dgot.
func getUserConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "dgot")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "dgot")
	}
	return filepath.Join(home, ".config", "dgot")
}

// findProjectConfig searches for .dgot.yaml in the current directory and parents.
func findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		configPath := filepath.Join(cwd, ".dgot.yaml")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(cwd)
		if parent == cwd {
			break
		}
		cwd = parent
	}

	return ""
}

// expandEnv expands ${VAR} references in a string.
func expandEnv(s string) string {
	return os.ExpandEnv(s)
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Oracle: OracleConfig{
			Provider:    ProviderOpenAI,
			BaseURL:     "http://localhost:8000/v1",
			APIKey:      "EMPTY",
			Temperature: 0.6,
			Timeout:     2 * time.Minute,
		},
		Solve: SolveConfig{
			MaxDepth:       4,
			MaxWidth:       3,
			MaxConcurrency: 256,
		},
		Report: ReportConfig{
			Truncate: 100,
			Color:    true,
		},
	}
}
