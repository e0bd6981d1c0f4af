package main

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"go.uber.org/zap"

	"github.com/ShayCichocki/dgot/internal/config"
	"github.com/ShayCichocki/dgot/internal/oracle"
)

// oracleStack is the transport chain shared by the whole tree:
// provider client -> tracker -> limiter.
type oracleStack struct {
	client  oracle.Client
	tracker *oracle.Tracker
	limiter *oracle.Limiter
	model   string
}

// buildOracle creates the provider client named by cfg and wraps it with
// token tracking and the global concurrency cap.
func buildOracle(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*oracleStack, error) {
	var (
		inner oracle.Client
		model string
	)

	switch cfg.Oracle.Provider {
	case config.ProviderAnthropic:
		var apiKey string
		if !cfg.Anthropic.UseBedrock {
			key, err := config.GetAPIKey(cfg)
			if err != nil {
				return nil, err
			}
			if err := config.ValidateAPIKey(cfg.Oracle.Provider, key); err != nil {
				return nil, fmt.Errorf("%w (source: %s)", err, config.GetAPIKeySource(cfg))
			}
			apiKey = key
		}

		client, err := oracle.NewAnthropicClient(oracle.AnthropicConfig{
			Model:         anthropic.Model(cfg.Oracle.Model),
			APIKey:        apiKey,
			Timeout:       cfg.Oracle.Timeout,
			UseAWSBedrock: cfg.Anthropic.UseBedrock,
			AWSRegion:     cfg.Anthropic.AWSRegion,
			AWSProfile:    cfg.Anthropic.AWSProfile,
		})
		if err != nil {
			return nil, fmt.Errorf("create anthropic client: %w", err)
		}
		inner, model = client, string(client.Model())

	case config.ProviderOpenAI, "":
		apiKey, err := config.GetAPIKey(cfg)
		if err != nil {
			apiKey = oracle.DefaultOpenAIAPIKey
		}

		client, err := oracle.NewOpenAIClient(oracle.OpenAIConfig{
			BaseURL: cfg.Oracle.BaseURL,
			APIKey:  apiKey,
			Model:   cfg.Oracle.Model,
			Timeout: cfg.Oracle.Timeout,
		})
		if err != nil {
			return nil, fmt.Errorf("create openai client: %w", err)
		}
		model, err = client.ResolveModel(ctx)
		if err != nil {
			return nil, fmt.Errorf("resolve model from %s: %w", cfg.Oracle.BaseURL, err)
		}
		inner = client

	default:
		return nil, fmt.Errorf("unknown oracle provider %q", cfg.Oracle.Provider)
	}

	tracker := oracle.Track(inner)
	limiter := oracle.Limit(tracker, cfg.Solve.MaxConcurrency, cfg.Solve.RequestsPerSecond)

	logger.Info("oracle ready",
		zap.String("provider", string(cfg.Oracle.Provider)),
		zap.String("model", model),
		zap.Int("max_concurrency", cfg.Solve.MaxConcurrency),
		zap.Float64("requests_per_second", cfg.Solve.RequestsPerSecond))

	return &oracleStack{
		client:  limiter,
		tracker: tracker,
		limiter: limiter,
		model:   model,
	}, nil
}
