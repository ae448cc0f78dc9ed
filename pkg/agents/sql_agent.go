package agents

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/lubobali/mergeAI/pkg/llm"
	"github.com/lubobali/mergeAI/pkg/logging"
	"github.com/lubobali/mergeAI/pkg/models"
	"github.com/lubobali/mergeAI/pkg/prompts"
)

// SQLAgent turns a question plus schema analysis into one PostgreSQL
// statement against the JSONB row store.
type SQLAgent struct {
	client llm.Client
	logger *zap.Logger
}

// NewSQLAgent creates a SQL synthesis agent.
func NewSQLAgent(client llm.Client, logger *zap.Logger) *SQLAgent {
	return &SQLAgent{client: client, logger: logger}
}

// Generate produces the SQL text for one round. contextInfo is nil unless
// the caller is refining a previous question. The raw model output is
// stripped of reasoning tags and code fences before being returned.
func (a *SQLAgent) Generate(ctx context.Context, question string, schemas []models.FileSchema, analysis models.SchemaAnalysis, contextInfo *models.ConversationContext) (string, error) {
	prompt := prompts.BuildSQLSynthesisPrompt(question, schemas, analysis, contextInfo)

	response, err := a.client.GenerateResponse(ctx, prompt, prompts.BuildSQLSynthesisSystemMessage(), 0)
	if err != nil {
		return "", fmt.Errorf("sql synthesis: %w", err)
	}

	sqlText := llm.CleanSQLResponse(response)
	if sqlText == "" {
		return "", fmt.Errorf("sql synthesis: model returned empty statement")
	}

	a.logger.Debug("sql generated",
		zap.String("model", a.client.GetModel()),
		zap.String("sql", logging.TruncateQuery(sqlText)))
	return sqlText, nil
}
