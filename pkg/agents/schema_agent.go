package agents

import (
	"context"

	"go.uber.org/zap"

	"github.com/lubobali/mergeAI/pkg/llm"
	"github.com/lubobali/mergeAI/pkg/models"
	"github.com/lubobali/mergeAI/pkg/prompts"
)

// SchemaAgent reasons over file schemas to decide how a question maps onto
// the available data: which files, which join key, which metric columns.
type SchemaAgent struct {
	client llm.Client
	logger *zap.Logger
}

// NewSchemaAgent creates a schema reasoning agent.
func NewSchemaAgent(client llm.Client, logger *zap.Logger) *SchemaAgent {
	return &SchemaAgent{client: client, logger: logger}
}

// Analyze runs one schema reasoning pass. feedback carries the prior round's
// failure diagnosis, empty on the first round.
//
// Analyze never fails the pipeline: if the model call or the JSON parse
// fails, it returns a conservative single-file fallback with a warning so
// the round can still proceed.
func (a *SchemaAgent) Analyze(ctx context.Context, question string, schemas []models.FileSchema, feedback string) models.SchemaAnalysis {
	prompt := prompts.BuildSchemaAnalysisPrompt(question, schemas, feedback)

	response, err := a.client.GenerateResponse(ctx, prompt, prompts.BuildSchemaAnalysisSystemMessage(), 0)
	if err != nil {
		a.logger.Warn("schema agent call failed, using fallback analysis",
			zap.String("model", a.client.GetModel()),
			zap.Error(err))
		return fallbackAnalysis("Schema analysis unavailable (" + err.Error() + ") — using fallback")
	}

	analysis, err := llm.ParseJSONResponse[models.SchemaAnalysis](response)
	if err != nil {
		a.logger.Warn("schema agent returned unparseable JSON, using fallback analysis",
			zap.String("model", a.client.GetModel()),
			zap.Error(err))
		return fallbackAnalysis("Schema Agent returned invalid JSON — using fallback")
	}

	a.logger.Debug("schema analysis complete",
		zap.Bool("single_file", analysis.SingleFileQuery),
		zap.Int("metrics", len(analysis.Metrics)),
		zap.Int("warnings", len(analysis.Warnings)))
	return analysis
}

func fallbackAnalysis(warning string) models.SchemaAnalysis {
	return models.SchemaAnalysis{
		JoinKey:         nil,
		Metrics:         []models.Metric{},
		Warnings:        []string{warning},
		SingleFileQuery: true,
	}
}
