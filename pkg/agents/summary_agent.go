package agents

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/lubobali/mergeAI/pkg/llm"
	"github.com/lubobali/mergeAI/pkg/prompts"
)

// summaryTemperature leaves the model a little room for phrasing; the
// numbers come from the data, not the sampler.
const summaryTemperature = 0.3

// SummaryAgent writes a short plain-English description of a result set.
// Strictly best-effort: the pipeline ships results without a summary when
// it fails.
type SummaryAgent struct {
	client llm.Client
	logger *zap.Logger
}

// NewSummaryAgent creates a summary agent.
func NewSummaryAgent(client llm.Client, logger *zap.Logger) *SummaryAgent {
	return &SummaryAgent{client: client, logger: logger}
}

// Summarize produces a 2-3 sentence summary of the executed result.
func (a *SummaryAgent) Summarize(ctx context.Context, question string, columns []string, rows []map[string]any) (string, error) {
	prompt := prompts.BuildSummaryPrompt(question, columns, rows)

	response, err := a.client.GenerateResponse(ctx, prompt, "", summaryTemperature)
	if err != nil {
		return "", fmt.Errorf("summary: %w", err)
	}

	summary := strings.TrimSpace(llm.StripThinking(response))
	if summary == "" {
		return "", fmt.Errorf("summary: model returned empty text")
	}

	a.logger.Debug("summary generated", zap.Int("length", len(summary)))
	return summary, nil
}
