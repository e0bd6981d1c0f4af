package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ShayCichocki/dgot/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Manage configuration",
	Long: `View or modify dgot configuration.

Without arguments, displays current configuration.
With one argument (key), displays the value for that key.
With two arguments (key value), sets the configuration value.

Configuration is stored at ~/.config/dgot/config.yaml
Project-specific overrides can be placed in .dgot.yaml`,
	Args: cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()

		switch len(args) {
		case 0:
			for _, key := range configKeys {
				value, _ := getConfigValue(cfg, key)
				fmt.Fprintf(out, "%s: %s\n", key, value)
			}
			fmt.Fprintf(out, "\napi key source: %s\n", config.GetAPIKeySource(cfg))
			fmt.Fprintf(out, "user config: %s\n", config.GetUserConfigPath())
			if project := config.GetProjectConfigPath(); project != "" {
				fmt.Fprintf(out, "project config: %s\n", project)
			}
			return nil
		case 1:
			value, err := getConfigValue(cfg, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(out, value)
			return nil
		default:
			if err := setConfigValue(cfg, args[0], args[1]); err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			if err := config.Save(cfg); err != nil {
				return fmt.Errorf("saving config: %w", err)
			}
			fmt.Fprintf(out, "Set %s = %s\n", args[0], args[1])
			return nil
		}
	},
}

// configKeys lists every key in display order.
var configKeys = []string{
	"oracle.provider",
	"oracle.base_url",
	"oracle.api_key",
	"oracle.model",
	"oracle.temperature",
	"oracle.timeout",
	"anthropic.api_key",
	"anthropic.use_bedrock",
	"anthropic.aws_region",
	"anthropic.aws_profile",
	"solve.max_depth",
	"solve.max_width",
	"solve.max_concurrency",
	"solve.requests_per_second",
	"report.truncate",
	"report.color",
	"log.debug",
	"log.json",
}

// getConfigValue retrieves a configuration value by dot-notation key.
// API keys are masked.
func getConfigValue(cfg *config.Config, key string) (string, error) {
	switch strings.ToLower(key) {
	case "oracle.provider":
		return string(cfg.Oracle.Provider), nil
	case "oracle.base_url":
		return cfg.Oracle.BaseURL, nil
	case "oracle.api_key":
		return config.MaskAPIKey(cfg.Oracle.APIKey), nil
	case "oracle.model":
		if cfg.Oracle.Model == "" {
			return "(first listed model)", nil
		}
		return cfg.Oracle.Model, nil
	case "oracle.temperature":
		return strconv.FormatFloat(cfg.Oracle.Temperature, 'g', -1, 64), nil
	case "oracle.timeout":
		return cfg.Oracle.Timeout.String(), nil
	case "anthropic.api_key":
		return config.MaskAPIKey(cfg.Anthropic.APIKey), nil
	case "anthropic.use_bedrock":
		return strconv.FormatBool(cfg.Anthropic.UseBedrock), nil
	case "anthropic.aws_region":
		return cfg.Anthropic.AWSRegion, nil
	case "anthropic.aws_profile":
		return cfg.Anthropic.AWSProfile, nil
	case "solve.max_depth":
		return strconv.Itoa(cfg.Solve.MaxDepth), nil
	case "solve.max_width":
		return strconv.Itoa(cfg.Solve.MaxWidth), nil
	case "solve.max_concurrency":
		return strconv.Itoa(cfg.Solve.MaxConcurrency), nil
	case "solve.requests_per_second":
		return strconv.FormatFloat(cfg.Solve.RequestsPerSecond, 'g', -1, 64), nil
	case "report.truncate":
		return strconv.Itoa(cfg.Report.Truncate), nil
	case "report.color":
		return strconv.FormatBool(cfg.Report.Color), nil
	case "log.debug":
		return strconv.FormatBool(cfg.Log.Debug), nil
	case "log.json":
		return strconv.FormatBool(cfg.Log.JSON), nil
	default:
		return "", fmt.Errorf("unknown configuration key: %s", key)
	}
}

// setConfigValue sets a configuration value by dot-notation key.
func setConfigValue(cfg *config.Config, key, value string) error {
	key = strings.ToLower(key)

	parseInt := func(dst *int) error {
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid integer for %s: %w", key, err)
		}
		*dst = n
		return nil
	}
	parseFloat := func(dst *float64) error {
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid number for %s: %w", key, err)
		}
		*dst = f
		return nil
	}
	parseBool := func(dst *bool) error {
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean for %s: %w", key, err)
		}
		*dst = b
		return nil
	}

	switch key {
	case "oracle.provider":
		p := config.Provider(strings.ToLower(value))
		if !p.Valid() {
			return fmt.Errorf("invalid provider %q (want openai or anthropic)", value)
		}
		cfg.Oracle.Provider = p
	case "oracle.base_url":
		cfg.Oracle.BaseURL = value
	case "oracle.api_key":
		cfg.Oracle.APIKey = value
	case "oracle.model":
		cfg.Oracle.Model = value
	case "oracle.temperature":
		return parseFloat(&cfg.Oracle.Temperature)
	case "oracle.timeout":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration for oracle.timeout: %w", err)
		}
		cfg.Oracle.Timeout = d
	case "anthropic.api_key":
		cfg.Anthropic.APIKey = value
	case "anthropic.use_bedrock":
		return parseBool(&cfg.Anthropic.UseBedrock)
	case "anthropic.aws_region":
		cfg.Anthropic.AWSRegion = value
	case "anthropic.aws_profile":
		cfg.Anthropic.AWSProfile = value
	case "solve.max_depth":
		return parseInt(&cfg.Solve.MaxDepth)
	case "solve.max_width":
		return parseInt(&cfg.Solve.MaxWidth)
	case "solve.max_concurrency":
		return parseInt(&cfg.Solve.MaxConcurrency)
	case "solve.requests_per_second":
		return parseFloat(&cfg.Solve.RequestsPerSecond)
	case "report.truncate":
		return parseInt(&cfg.Report.Truncate)
	case "report.color":
		return parseBool(&cfg.Report.Color)
	case "log.debug":
		return parseBool(&cfg.Log.Debug)
	case "log.json":
		return parseBool(&cfg.Log.JSON)
	default:
		return fmt.Errorf("unknown configuration key: %s", key)
	}
	return nil
}
