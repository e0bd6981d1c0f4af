// Package config provides API key management utilities.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrNoAPIKey is returned when no API key is configured.
var ErrNoAPIKey = errors.New("no API key configured")

// apiKeyEnv returns the environment variable consulted for provider.
func apiKeyEnv(p Provider) string {
	if p == ProviderAnthropic {
		return "ANTHROPIC_API_KEY"
	}
	return "OPENAI_API_KEY"
}

func configuredKey(cfg *Config) string {
	if cfg == nil {
		return ""
	}
	if cfg.Oracle.Provider == ProviderAnthropic {
		return cfg.Anthropic.APIKey
	}
	return cfg.Oracle.APIKey
}

func provider(cfg *Config) Provider {
	if cfg == nil || cfg.Oracle.Provider == "" {
		return ProviderOpenAI
	}
	return cfg.Oracle.Provider
}

// GetAPIKey returns the API key for the configured provider.
// It checks in order: environment variable, config file.
func GetAPIKey(cfg *Config) (string, error) {
	p := provider(cfg)

	// First check environment variable directly
	if key := os.Getenv(apiKeyEnv(p)); key != "" {
		return key, nil
	}

	// Then check config
	if key := os.ExpandEnv(configuredKey(cfg)); key != "" && !strings.HasPrefix(key, "${") {
		return key, nil
	}

	return "", fmt.Errorf("%w for provider %s (set %s)", ErrNoAPIKey, p, apiKeyEnv(p))
}

// ValidateAPIKey performs basic format validation on a key for provider.
// It does not verify the key with the remote service.
func ValidateAPIKey(p Provider, key string) error {
	if key == "" {
		return ErrNoAPIKey
	}

	if p != ProviderAnthropic {
		// OpenAI-compatible servers such as vLLM accept any placeholder.
		return nil
	}

	// Anthropic API keys start with "sk-ant-"
	if !strings.HasPrefix(key, "sk-ant-") {
		return errors.New("invalid API key format: expected 'sk-ant-' prefix")
	}

	// Keys should be reasonably long
	if len(key) < 20 {
		return errors.New("invalid API key format: key too short")
	}

	return nil
}

// MaskAPIKey returns a masked version of the API key for display.
// Shows the first 7 characters and last 4 characters.
func MaskAPIKey(key string) string {
	if key == "" {
		return "(not set)"
	}

	if len(key) <= 15 {
		return "***"
	}

	return key[:7] + "..." + key[len(key)-4:]
}

// KeySource represents where an API key was loaded from.
type KeySource string

const (
	KeySourceEnv    KeySource = "environment"
	KeySourceConfig KeySource = "config_file"
	KeySourceNone   KeySource = "none"
)

// GetAPIKeySource returns where the API key for the configured provider was sourced from.
func GetAPIKeySource(cfg *Config) KeySource {
	if os.Getenv(apiKeyEnv(provider(cfg))) != "" {
		return KeySourceEnv
	}

	if key := os.ExpandEnv(configuredKey(cfg)); key != "" && !strings.HasPrefix(key, "${") {
		return KeySourceConfig
	}

	return KeySourceNone
}
