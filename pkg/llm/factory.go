package llm

import (
	"fmt"

	"go.uber.org/zap"
)

// Provider names a client implementation.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// Factory creates per-model clients against one configured provider endpoint.
// The pipeline uses a different model per agent (cheap structured-output
// models for schema/summary/chart, the strongest one for SQL synthesis), so
// clients are created per model rather than per request.
type Factory struct {
	provider string
	endpoint string
	apiKey   string
	logger   *zap.Logger
}

// NewFactory creates a factory for the given provider.
func NewFactory(provider, endpoint, apiKey string, logger *zap.Logger) (*Factory, error) {
	switch provider {
	case ProviderOpenAI, ProviderAnthropic:
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", provider)
	}
	return &Factory{
		provider: provider,
		endpoint: endpoint,
		apiKey:   apiKey,
		logger:   logger,
	}, nil
}

// ClientFor creates a client bound to the given model. Clients retry
// transient upstream failures with exponential backoff.
func (f *Factory) ClientFor(model string) (Client, error) {
	cfg := &Config{Endpoint: f.endpoint, Model: model, APIKey: f.apiKey}
	var (
		client Client
		err    error
	)
	switch f.provider {
	case ProviderAnthropic:
		client, err = NewAnthropicClient(cfg, f.logger)
	default:
		client, err = NewOpenAIClient(cfg, f.logger)
	}
	if err != nil {
		return nil, err
	}
	return WithRetry(client, nil, f.logger), nil
}
