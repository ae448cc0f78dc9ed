package llm

import (
	"context"

	"go.uber.org/zap"

	"github.com/lubobali/mergeAI/pkg/retry"
)

// retryClient decorates a Client with exponential-backoff retries on
// transient failures (rate limits, 5xx, unreachable endpoints). Permanent
// failures such as bad credentials surface immediately.
type retryClient struct {
	inner  Client
	cfg    *retry.Config
	logger *zap.Logger
}

// WithRetry wraps client so that GenerateResponse retries transient failures.
// A nil cfg uses retry.DefaultConfig.
func WithRetry(client Client, cfg *retry.Config, logger *zap.Logger) Client {
	if cfg == nil {
		cfg = retry.DefaultConfig()
	}
	return &retryClient{inner: client, cfg: cfg, logger: logger}
}

// GenerateResponse implements Client.
func (c *retryClient) GenerateResponse(ctx context.Context, prompt string, systemMessage string, temperature float64) (string, error) {
	attempt := 0
	return retry.DoWithResult(ctx, c.cfg, func() (string, error) {
		attempt++
		response, err := c.inner.GenerateResponse(ctx, prompt, systemMessage, temperature)
		if err == nil {
			return response, nil
		}
		if !retry.IsRetryable(err) {
			return "", retry.Permanent(err)
		}
		c.logger.Warn("transient LLM failure",
			zap.String("model", c.inner.GetModel()),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
		return "", err
	})
}

// GetModel implements Client.
func (c *retryClient) GetModel() string {
	return c.inner.GetModel()
}
