package agents

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/lubobali/mergeAI/pkg/apperrors"
	"github.com/lubobali/mergeAI/pkg/audit"
	"github.com/lubobali/mergeAI/pkg/models"
)

// MaxRounds bounds the retry loop. Each round re-runs schema reasoning with
// the previous round's failure as feedback.
const MaxRounds = 3

// agentCallTimeout bounds each reasoning call so a stalled model turns into
// a retryable failure instead of hanging the round.
const agentCallTimeout = 60 * time.Second

// SQLExecutor runs one validated read-only statement against the row store.
// The implementation owns the safety gate and the execution timeout.
type SQLExecutor interface {
	ExecuteRaw(ctx context.Context, sqlText string) (columns []string, rows []map[string]any, err error)
}

// Pipeline drives one question through up to MaxRounds of
// schema-analysis → SQL synthesis → execution → validation, emitting
// progress events along the way. Invocations are independent; a Pipeline is
// safe for concurrent use.
type Pipeline struct {
	schema   *SchemaAgent
	sql      *SQLAgent
	summary  *SummaryAgent
	chart    *ChartAgent
	executor SQLExecutor
	auditor  *audit.SecurityAuditor
	logger   *zap.Logger
}

// NewPipeline wires the agents to an executor.
func NewPipeline(schema *SchemaAgent, sql *SQLAgent, summary *SummaryAgent, chart *ChartAgent, executor SQLExecutor, auditor *audit.SecurityAuditor, logger *zap.Logger) *Pipeline {
	return &Pipeline{
		schema:   schema,
		sql:      sql,
		summary:  summary,
		chart:    chart,
		executor: executor,
		auditor:  auditor,
		logger:   logger.Named("pipeline"),
	}
}

// Run executes the pipeline for one question. It always returns a terminal
// QueryResult; failures surface as a query_error event plus an empty result
// annotated with the failing SQL and round count, never as a panic or a
// returned error.
func (p *Pipeline) Run(ctx context.Context, userID, question string, schemas []models.FileSchema, contextInfo *models.ConversationContext, emit models.EventSink) *models.QueryResult {
	start := time.Now()
	feedback := ""

	for round := 1; round <= MaxRounds; round++ {
		analysis := p.runSchemaStage(ctx, question, schemas, feedback, round, emit)

		sqlText, columns, rows, err := p.runQueryStage(ctx, userID, question, schemas, analysis, contextInfo, emit)
		if err != nil {
			if round < MaxRounds {
				feedback = fmt.Sprintf("SQL ERROR: %s. Fix the query.", err.Error())
				emit(models.NewRoundRetryEvent(models.AgentValidator,
					fmt.Sprintf("SQL error — retrying (round %d)", round+1),
					map[string]any{"error": err.Error()}))
				continue
			}
			emit(models.NewQueryErrorEvent(fmt.Sprintf("Query failed after %d attempts: %s", MaxRounds, err.Error())))
			return &models.QueryResult{
				Columns:  []string{},
				Rows:     []map[string]any{},
				SQL:      sqlText,
				Rounds:   round,
				TimingMS: time.Since(start).Milliseconds(),
			}
		}

		validation := ValidateResult(rows, columns)

		if validation.Status == models.ValidationPass {
			emit(models.NewAgentCompleteEvent(models.AgentValidator,
				fmt.Sprintf("%d rows, %.0f%% nulls — PASS", validation.RowCount, validation.NullPercentage), nil))
			return p.finish(ctx, question, sqlText, columns, rows, round, start, emit)
		}

		if round < MaxRounds {
			feedback = validation.Diagnosis
			emit(models.NewRoundRetryEvent(models.AgentValidator,
				fmt.Sprintf("%s — retrying (round %d)", validation.Diagnosis, round+1), nil))
			continue
		}

		// Out of rounds: ship whatever came back rather than discard data.
		emit(models.NewAgentCompleteEvent(models.AgentValidator,
			fmt.Sprintf("%d rows returned (best effort after %d rounds)", validation.RowCount, MaxRounds), nil))
		return p.finish(ctx, question, sqlText, columns, rows, round, start, emit)
	}

	// Unreachable: every round either continues or returns.
	return &models.QueryResult{Columns: []string{}, Rows: []map[string]any{}, Rounds: MaxRounds, TimingMS: time.Since(start).Milliseconds()}
}

// runSchemaStage runs the schema agent with progress events.
func (p *Pipeline) runSchemaStage(ctx context.Context, question string, schemas []models.FileSchema, feedback string, round int, emit models.EventSink) models.SchemaAnalysis {
	startMsg := "Analyzing file schemas..."
	if round > 1 {
		startMsg = fmt.Sprintf("Re-analyzing with feedback (round %d)...", round)
	}
	emit(models.NewAgentStartEvent(models.AgentSchema, startMsg))

	agentCtx, cancel := context.WithTimeout(ctx, agentCallTimeout)
	analysis := p.schema.Analyze(agentCtx, question, schemas, feedback)
	cancel()

	emit(models.NewAgentCompleteEvent(models.AgentSchema, schemaCompleteMessage(analysis, schemas),
		map[string]any{"analysis": analysis}))
	return analysis
}

// runQueryStage generates and executes SQL. Synthesis failures and
// execution failures share one error path; the returned SQL text is kept
// even on failure so the terminal result can name the failing statement.
func (p *Pipeline) runQueryStage(ctx context.Context, userID, question string, schemas []models.FileSchema, analysis models.SchemaAnalysis, contextInfo *models.ConversationContext, emit models.EventSink) (string, []string, []map[string]any, error) {
	emit(models.NewAgentStartEvent(models.AgentSQL, "Generating PostgreSQL query..."))

	agentCtx, cancel := context.WithTimeout(ctx, agentCallTimeout)
	sqlText, err := p.sql.Generate(agentCtx, question, schemas, analysis, contextInfo)
	cancel()
	if err != nil {
		return "", nil, nil, err
	}

	emit(models.NewAgentCompleteEvent(models.AgentSQL,
		fmt.Sprintf("Query generated (%d lines)", strings.Count(sqlText, "\n")+1),
		map[string]any{"sql": sqlText}))

	emit(models.NewAgentStartEvent(models.AgentValidator, "Executing query..."))

	columns, rows, err := p.executor.ExecuteRaw(ctx, sqlText)
	if err != nil {
		if isGateRejection(err) {
			p.auditor.LogUnsafeQuery(userID, sqlText, err)
		}
		return sqlText, nil, nil, err
	}
	return sqlText, columns, rows, nil
}

// isGateRejection reports whether an execution failure was the safety gate
// refusing the statement, as opposed to a runtime database error.
func isGateRejection(err error) bool {
	return errors.Is(err, apperrors.ErrNotReadQuery) ||
		errors.Is(err, apperrors.ErrMultiStatement) ||
		errors.Is(err, apperrors.ErrBlockedKeyword)
}

// finish runs the best-effort post-processing agents and emits the terminal
// completion event.
func (p *Pipeline) finish(ctx context.Context, question, sqlText string, columns []string, rows []map[string]any, round int, start time.Time, emit models.EventSink) *models.QueryResult {
	result := &models.QueryResult{
		Columns:  columns,
		Rows:     rows,
		RowCount: len(rows),
		SQL:      sqlText,
		Rounds:   round,
		TimingMS: time.Since(start).Milliseconds(),
	}

	summaryCtx, cancel := context.WithTimeout(ctx, agentCallTimeout)
	summary, err := p.summary.Summarize(summaryCtx, question, columns, rows)
	cancel()
	if err != nil {
		p.logger.Warn("summary agent failed, shipping result without summary", zap.Error(err))
	} else {
		result.Summary = summary
	}

	chartCtx, cancel := context.WithTimeout(ctx, agentCallTimeout)
	result.Chart = p.chart.Run(chartCtx, question, columns, rows)
	cancel()

	emit(models.NewQueryCompleteEvent(len(rows), round))
	result.TimingMS = time.Since(start).Milliseconds()
	return result
}

// schemaCompleteMessage summarizes the analysis for the progress stream.
func schemaCompleteMessage(analysis models.SchemaAnalysis, schemas []models.FileSchema) string {
	if jk := analysis.JoinKey; jk != nil && jk.FileA.Column != "" && jk.FileB.Column != "" {
		return fmt.Sprintf("Found join: %s ↔ %s (%d%% confidence)",
			jk.FileA.Column, jk.FileB.Column, int(math.Round(jk.Confidence*100)))
	}
	names := make([]string, len(schemas))
	for i, s := range schemas {
		names[i] = s.FileName
	}
	return fmt.Sprintf("Analyzing %d files — %s", len(schemas), strings.Join(names, ", "))
}
