package config

import (
	"errors"
	"testing"
)

func TestGetAPIKey(t *testing.T) {
	t.Run("openai from environment variable", func(t *testing.T) {
		t.Setenv("OPENAI_API_KEY", "sk-env-key")

		key, err := GetAPIKey(&Config{Oracle: OracleConfig{Provider: ProviderOpenAI, APIKey: "EMPTY"}})
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if key != "sk-env-key" {
			t.Errorf("expected 'sk-env-key', got %q", key)
		}
	})

	t.Run("openai from config", func(t *testing.T) {
		t.Setenv("OPENAI_API_KEY", "")

		key, err := GetAPIKey(Default())
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if key != "EMPTY" {
			t.Errorf("expected 'EMPTY', got %q", key)
		}
	})

	t.Run("anthropic from environment variable", func(t *testing.T) {
		t.Setenv("ANTHROPIC_API_KEY", "sk-ant-test-key")

		cfg := &Config{Oracle: OracleConfig{Provider: ProviderAnthropic}}
		key, err := GetAPIKey(cfg)
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if key != "sk-ant-test-key" {
			t.Errorf("expected 'sk-ant-test-key', got %q", key)
		}
	})

	t.Run("anthropic from config", func(t *testing.T) {
		t.Setenv("ANTHROPIC_API_KEY", "")

		cfg := &Config{
			Oracle:    OracleConfig{Provider: ProviderAnthropic},
			Anthropic: AnthropicConfig{APIKey: "sk-ant-config-key"},
		}
		key, err := GetAPIKey(cfg)
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if key != "sk-ant-config-key" {
			t.Errorf("expected 'sk-ant-config-key', got %q", key)
		}
	})

	t.Run("unexpanded reference", func(t *testing.T) {
		t.Setenv("ANTHROPIC_API_KEY", "")

		cfg := &Config{
			Oracle:    OracleConfig{Provider: ProviderAnthropic},
			Anthropic: AnthropicConfig{APIKey: "${DGOT_UNSET_VARIABLE}"},
		}
		if _, err := GetAPIKey(cfg); !errors.Is(err, ErrNoAPIKey) {
			t.Errorf("expected ErrNoAPIKey, got %v", err)
		}
	})

	t.Run("no key configured", func(t *testing.T) {
		t.Setenv("ANTHROPIC_API_KEY", "")

		_, err := GetAPIKey(&Config{Oracle: OracleConfig{Provider: ProviderAnthropic}})
		if !errors.Is(err, ErrNoAPIKey) {
			t.Errorf("expected ErrNoAPIKey, got %v", err)
		}
	})
}

func TestValidateAPIKey(t *testing.T) {
	tests := []struct {
		name     string
		provider Provider
		key      string
		wantErr  bool
	}{
		{"valid anthropic key", ProviderAnthropic, "sk-ant-REDACTED", false},
		{"empty anthropic key", ProviderAnthropic, "", true},
		{"wrong prefix", ProviderAnthropic, "sk-openai-12345678901234567890", true},
		{"too short", ProviderAnthropic, "sk-ant-abc", true},
		{"openai placeholder", ProviderOpenAI, "EMPTY", false},
		{"empty openai key", ProviderOpenAI, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAPIKey(tt.provider, tt.key)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateAPIKey() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestMaskAPIKey(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		expected string
	}{
		{"valid key", "sk-ant-REDACTED", "sk-ant-...wxyz"},
		{"empty key", "", "(not set)"},
		{"short key", "EMPTY", "***"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := MaskAPIKey(tt.key)
			if result != tt.expected {
				t.Errorf("MaskAPIKey() = %q, want %q", result, tt.expected)
			}
		})
	}
}

func TestGetAPIKeySource(t *testing.T) {
	anthropic := func(key string) *Config {
		return &Config{
			Oracle:    OracleConfig{Provider: ProviderAnthropic},
			Anthropic: AnthropicConfig{APIKey: key},
		}
	}

	t.Run("from environment", func(t *testing.T) {
		t.Setenv("ANTHROPIC_API_KEY", "test-key")

		if source := GetAPIKeySource(anthropic("")); source != KeySourceEnv {
			t.Errorf("expected KeySourceEnv, got %v", source)
		}
	})

	t.Run("from config", func(t *testing.T) {
		t.Setenv("ANTHROPIC_API_KEY", "")

		if source := GetAPIKeySource(anthropic("sk-ant-config-key")); source != KeySourceConfig {
			t.Errorf("expected KeySourceConfig, got %v", source)
		}
	})

	t.Run("no key", func(t *testing.T) {
		t.Setenv("ANTHROPIC_API_KEY", "")

		if source := GetAPIKeySource(anthropic("")); source != KeySourceNone {
			t.Errorf("expected KeySourceNone, got %v", source)
		}
	})

	t.Run("nil config defaults to openai", func(t *testing.T) {
		t.Setenv("OPENAI_API_KEY", "sk-x")

		if source := GetAPIKeySource(nil); source != KeySourceEnv {
			t.Errorf("expected KeySourceEnv, got %v", source)
		}
	})
}
