package agents

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/lubobali/mergeAI/pkg/apperrors"
	"github.com/lubobali/mergeAI/pkg/audit"
	"github.com/lubobali/mergeAI/pkg/llm"
	"github.com/lubobali/mergeAI/pkg/models"
)

type stubExecutor struct {
	results []executorResult
	calls   int
	sqls    []string
}

type executorResult struct {
	columns []string
	rows    []map[string]any
	err     error
}

func (e *stubExecutor) ExecuteRaw(ctx context.Context, sqlText string) ([]string, []map[string]any, error) {
	e.sqls = append(e.sqls, sqlText)
	r := e.results[e.calls]
	if e.calls < len(e.results)-1 {
		e.calls++
	}
	return r.columns, r.rows, r.err
}

const validAnalysisJSON = `{"joinKey": null, "metrics": [], "warnings": [], "singleFileQuery": true}`

func staticClient(response string) *llm.MockClient {
	mock := llm.NewMockClient()
	mock.GenerateResponseFunc = func(ctx context.Context, prompt, system string, temperature float64) (string, error) {
		return response, nil
	}
	return mock
}

func failingClient(msg string) *llm.MockClient {
	mock := llm.NewMockClient()
	mock.GenerateResponseFunc = func(ctx context.Context, prompt, system string, temperature float64) (string, error) {
		return "", errors.New(msg)
	}
	return mock
}

type pipelineMocks struct {
	schema  *llm.MockClient
	sql     *llm.MockClient
	summary *llm.MockClient
	chart   *llm.MockClient
}

func newTestPipeline(t *testing.T, mocks pipelineMocks, executor SQLExecutor) *Pipeline {
	t.Helper()
	return newTestPipelineWithLogger(t, mocks, executor, zaptest.NewLogger(t))
}

func newTestPipelineWithLogger(t *testing.T, mocks pipelineMocks, executor SQLExecutor, logger *zap.Logger) *Pipeline {
	t.Helper()
	return NewPipeline(
		NewSchemaAgent(mocks.schema, logger),
		NewSQLAgent(mocks.sql, logger),
		NewSummaryAgent(mocks.summary, logger),
		NewChartAgent(mocks.chart, logger),
		executor,
		audit.NewSecurityAuditor(logger),
		logger,
	)
}

func collectEvents(events *[]models.AgentEvent) models.EventSink {
	return func(e models.AgentEvent) { *events = append(*events, e) }
}

func eventTypes(events []models.AgentEvent) []string {
	types := make([]string, len(events))
	for i, e := range events {
		types[i] = string(e.Type)
	}
	return types
}

func goodRows() executorResult {
	return executorResult{
		columns: []string{"dept", "avg"},
		rows: []map[string]any{
			{"dept": "Sales", "avg": "52000"},
			{"dept": "Engineering", "avg": "71000"},
		},
	}
}

func TestPipeline_HappyPathFirstRound(t *testing.T) {
	executor := &stubExecutor{results: []executorResult{goodRows()}}
	p := newTestPipeline(t, pipelineMocks{
		schema:  staticClient(validAnalysisJSON),
		sql:     staticClient("SELECT row_data->>'dept' AS dept, AVG((row_data->>'avg')::NUMERIC) AS avg FROM uploaded_rows GROUP BY 1"),
		summary: staticClient("Engineering leads at $71,000."),
		chart:   staticClient(`{"chartType": "bar", "xColumn": "dept", "yColumns": ["avg"], "title": "T"}`),
	}, executor)

	var events []models.AgentEvent
	result := p.Run(context.Background(), "user_1", "average salary by department", testSchemas(), nil, collectEvents(&events))

	require.NotNil(t, result)
	assert.Equal(t, 1, result.Rounds)
	assert.Equal(t, 2, result.RowCount)
	assert.Equal(t, "Engineering leads at $71,000.", result.Summary)
	require.NotNil(t, result.Chart)
	assert.GreaterOrEqual(t, result.TimingMS, int64(0))

	assert.Equal(t, []string{
		"agent_start",    // schema
		"agent_complete", // schema
		"agent_start",    // sql
		"agent_complete", // sql
		"agent_start",    // validator (execution)
		"agent_complete", // validator PASS
		"query_complete",
	}, eventTypes(events))
	assert.Equal(t, models.AgentSchema, events[0].Agent)
	assert.Equal(t, models.StatusActive, events[0].Status)
	assert.Contains(t, events[5].Message, "PASS")
	assert.Equal(t, map[string]any{"rowCount": 2, "rounds": 1}, events[6].Data)
}

func TestPipeline_RetryOnZeroRowsThenPass(t *testing.T) {
	executor := &stubExecutor{results: []executorResult{
		{columns: []string{"dept", "avg"}, rows: nil},
		goodRows(),
	}}
	schemaMock := staticClient(validAnalysisJSON)
	p := newTestPipeline(t, pipelineMocks{
		schema:  schemaMock,
		sql:     staticClient("SELECT 1"),
		summary: staticClient("ok"),
		chart:   staticClient(`{"chartType": "bar", "xColumn": "dept", "yColumns": ["avg"], "title": "T"}`),
	}, executor)

	var events []models.AgentEvent
	result := p.Run(context.Background(), "user_1", "q", testSchemas(), nil, collectEvents(&events))

	assert.Equal(t, 2, result.Rounds)
	assert.Equal(t, 2, result.RowCount)

	types := eventTypes(events)
	assert.Contains(t, types, "round_retry")
	assert.Equal(t, "query_complete", types[len(types)-1])

	// The validator diagnosis from round 1 must reach round 2's schema prompt.
	require.Len(t, schemaMock.Prompts, 2)
	assert.NotContains(t, schemaMock.Prompts[0], "PREVIOUS ATTEMPT FEEDBACK")
	assert.Contains(t, schemaMock.Prompts[1], "PREVIOUS ATTEMPT FEEDBACK: Query returned 0 rows.")
}

func TestPipeline_ExecutionErrorFeedback(t *testing.T) {
	executor := &stubExecutor{results: []executorResult{
		{err: errors.New(`column "Salry" does not exist`)},
		goodRows(),
	}}
	schemaMock := staticClient(validAnalysisJSON)
	p := newTestPipeline(t, pipelineMocks{
		schema:  schemaMock,
		sql:     staticClient("SELECT 1"),
		summary: staticClient("ok"),
		chart:   failingClient("skip"),
	}, executor)

	var events []models.AgentEvent
	result := p.Run(context.Background(), "user_1", "q", testSchemas(), nil, collectEvents(&events))

	assert.Equal(t, 2, result.Rounds)
	require.Len(t, schemaMock.Prompts, 2)
	assert.Contains(t, schemaMock.Prompts[1], `SQL ERROR: column "Salry" does not exist. Fix the query.`)

	var retry models.AgentEvent
	for _, e := range events {
		if e.Type == models.EventRoundRetry {
			retry = e
		}
	}
	assert.Equal(t, models.StatusRetry, retry.Status)
	assert.Contains(t, retry.Message, "retrying (round 2)")
}

func TestPipeline_ExhaustedExecutionFailures(t *testing.T) {
	executor := &stubExecutor{results: []executorResult{{err: errors.New("syntax error")}}}
	p := newTestPipeline(t, pipelineMocks{
		schema:  staticClient(validAnalysisJSON),
		sql:     staticClient("SELECT broken"),
		summary: staticClient("unused"),
		chart:   staticClient("unused"),
	}, executor)

	var events []models.AgentEvent
	result := p.Run(context.Background(), "user_1", "q", testSchemas(), nil, collectEvents(&events))

	assert.Equal(t, MaxRounds, result.Rounds)
	assert.Equal(t, 0, result.RowCount)
	assert.Empty(t, result.Rows)
	assert.Equal(t, "SELECT broken", result.SQL)
	assert.Empty(t, result.Summary)
	assert.Nil(t, result.Chart)

	last := events[len(events)-1]
	assert.Equal(t, models.EventQueryError, last.Type)
	assert.Contains(t, last.Message, "Query failed after 3 attempts: syntax error")
	assert.Len(t, executor.sqls, 3)
}

func TestPipeline_BestEffortAfterExhaustedValidation(t *testing.T) {
	// Validation keeps saying retry (single column, many rows), but the
	// final round ships the data anyway.
	executor := &stubExecutor{results: []executorResult{{
		columns: []string{"dept"},
		rows:    []map[string]any{{"dept": "Sales"}, {"dept": "HR"}},
	}}}
	p := newTestPipeline(t, pipelineMocks{
		schema:  staticClient(validAnalysisJSON),
		sql:     staticClient("SELECT 1"),
		summary: staticClient("Two departments."),
		chart:   failingClient("skip"),
	}, executor)

	var events []models.AgentEvent
	result := p.Run(context.Background(), "user_1", "q", testSchemas(), nil, collectEvents(&events))

	assert.Equal(t, MaxRounds, result.Rounds)
	assert.Equal(t, 2, result.RowCount)
	assert.Equal(t, "Two departments.", result.Summary)

	types := eventTypes(events)
	retries := 0
	for _, typ := range types {
		if typ == "round_retry" {
			retries++
		}
	}
	assert.Equal(t, 2, retries)
	assert.Equal(t, "query_complete", types[len(types)-1])

	var bestEffort bool
	for _, e := range events {
		if e.Type == models.EventAgentComplete && e.Agent == models.AgentValidator {
			bestEffort = true
			assert.Contains(t, e.Message, "best effort after 3 rounds")
		}
	}
	assert.True(t, bestEffort)
}

func TestPipeline_SQLGenerationFailureRetries(t *testing.T) {
	callCount := 0
	sqlMock := llm.NewMockClient()
	sqlMock.GenerateResponseFunc = func(ctx context.Context, prompt, system string, temperature float64) (string, error) {
		callCount++
		if callCount == 1 {
			return "", errors.New("model overloaded")
		}
		return "SELECT 1", nil
	}
	executor := &stubExecutor{results: []executorResult{goodRows()}}
	p := newTestPipeline(t, pipelineMocks{
		schema:  staticClient(validAnalysisJSON),
		sql:     sqlMock,
		summary: staticClient("ok"),
		chart:   failingClient("skip"),
	}, executor)

	var events []models.AgentEvent
	result := p.Run(context.Background(), "user_1", "q", testSchemas(), nil, collectEvents(&events))

	assert.Equal(t, 2, result.Rounds)
	assert.Equal(t, 2, result.RowCount)
}

func TestPipeline_SummaryFailureDoesNotFailPipeline(t *testing.T) {
	executor := &stubExecutor{results: []executorResult{goodRows()}}
	p := newTestPipeline(t, pipelineMocks{
		schema:  staticClient(validAnalysisJSON),
		sql:     staticClient("SELECT 1"),
		summary: failingClient("summary down"),
		chart:   failingClient("chart down"),
	}, executor)

	var events []models.AgentEvent
	result := p.Run(context.Background(), "user_1", "q", testSchemas(), nil, collectEvents(&events))

	assert.Equal(t, 2, result.RowCount)
	assert.Empty(t, result.Summary)
	assert.Equal(t, "query_complete", string(events[len(events)-1].Type))
}

func TestPipeline_SchemaFallbackStillRuns(t *testing.T) {
	// Even with the schema agent down, the round proceeds on the fallback
	// analysis and can succeed.
	executor := &stubExecutor{results: []executorResult{goodRows()}}
	p := newTestPipeline(t, pipelineMocks{
		schema:  failingClient("schema model down"),
		sql:     staticClient("SELECT 1"),
		summary: staticClient("ok"),
		chart:   failingClient("skip"),
	}, executor)

	var events []models.AgentEvent
	result := p.Run(context.Background(), "user_1", "q", testSchemas(), nil, collectEvents(&events))

	assert.Equal(t, 1, result.Rounds)
	assert.Equal(t, 2, result.RowCount)
}

func TestPipeline_GateRejectionIsAudited(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	executor := &stubExecutor{results: []executorResult{
		{err: fmt.Errorf("%w: DROP", apperrors.ErrBlockedKeyword)},
	}}
	p := newTestPipelineWithLogger(t, pipelineMocks{
		schema:  staticClient(validAnalysisJSON),
		sql:     staticClient("DROP TABLE uploaded_rows"),
		summary: staticClient("unused"),
		chart:   staticClient("unused"),
	}, executor, zap.New(core))

	var events []models.AgentEvent
	result := p.Run(context.Background(), "user_7", "q", testSchemas(), nil, collectEvents(&events))

	require.NotNil(t, result)
	assert.Equal(t, 0, result.RowCount)
	assert.Equal(t, "query_error", string(events[len(events)-1].Type))

	entries := logs.FilterMessage("safety gate rejected generated SQL").All()
	require.NotEmpty(t, entries)
	fields := entries[0].ContextMap()
	assert.Equal(t, string(audit.EventUnsafeQueryRejected), fields["event_type"])
	assert.Equal(t, "user_7", fields["user_id"])
	assert.Equal(t, "DROP TABLE uploaded_rows", fields["sql"])
}

func TestPipeline_ExecutionFailureIsNotAudited(t *testing.T) {
	// Ordinary execution errors are retry fuel, not security events.
	core, logs := observer.New(zapcore.ErrorLevel)
	executor := &stubExecutor{results: []executorResult{
		{err: errors.New(`column "misspelled" does not exist`)},
	}}
	p := newTestPipelineWithLogger(t, pipelineMocks{
		schema:  staticClient(validAnalysisJSON),
		sql:     staticClient("SELECT misspelled FROM uploaded_rows"),
		summary: staticClient("unused"),
		chart:   staticClient("unused"),
	}, executor, zap.New(core))

	var events []models.AgentEvent
	p.Run(context.Background(), "user_7", "q", testSchemas(), nil, collectEvents(&events))

	assert.Empty(t, logs.FilterMessage("safety gate rejected generated SQL").All())
}
