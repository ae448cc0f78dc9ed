package models

// ============================================================================
// Schema Analysis (Schema Reasoning Agent output)
// ============================================================================

// JoinMatchType tags how confident the name match behind a join key is.
type JoinMatchType string

const (
	JoinMatchExact           JoinMatchType = "exact"
	JoinMatchFuzzy           JoinMatchType = "fuzzy"
	JoinMatchCaseInsensitive JoinMatchType = "case_insensitive"
)

// JoinSide names one side of a proposed join.
type JoinSide struct {
	Column string `json:"column"`
	File   string `json:"file"`
}

// JoinKey is a pair of columns believed to identify the same entity across
// two files.
type JoinKey struct {
	FileA      JoinSide      `json:"fileA"`
	FileB      JoinSide      `json:"fileB"`
	Confidence float64       `json:"confidence"`
	MatchType  JoinMatchType `json:"matchType"`
}

// Aggregation is the verb applied to a metric column.
type Aggregation string

const (
	AggAvg   Aggregation = "AVG"
	AggSum   Aggregation = "SUM"
	AggCount Aggregation = "COUNT"
	AggMax   Aggregation = "MAX"
	AggMin   Aggregation = "MIN"
)

// Metric is a column the question is asking about, tagged with how to
// aggregate it.
type Metric struct {
	Column      string      `json:"column"`
	File        string      `json:"file"`
	Aggregation Aggregation `json:"aggregation"`
}

// SchemaAnalysis is the Schema Reasoning Agent's structured output. Produced
// fresh each round; later rounds incorporate feedback and may differ.
type SchemaAnalysis struct {
	JoinKey         *JoinKey `json:"joinKey"`
	Metrics         []Metric `json:"metrics"`
	Warnings        []string `json:"warnings"`
	SingleFileQuery bool     `json:"singleFileQuery"`
}

// ============================================================================
// Validation
// ============================================================================

// ValidationStatus classifies an executed result.
type ValidationStatus string

const (
	ValidationPass  ValidationStatus = "pass"
	ValidationRetry ValidationStatus = "retry"
	ValidationFail  ValidationStatus = "fail"
)

// ValidationResult is the deterministic verdict on an executed result set.
// Computed per round, never persisted.
type ValidationResult struct {
	Status         ValidationStatus `json:"status"`
	Diagnosis      string           `json:"diagnosis"`
	RowCount       int              `json:"rowCount"`
	NullPercentage float64          `json:"nullPercentage"`
}

// ============================================================================
// Query Result
// ============================================================================

// QueryResult is the terminal payload of one pipeline invocation. It is a
// response payload only; nothing stores it server-side.
type QueryResult struct {
	Columns  []string         `json:"columns"`
	Rows     []map[string]any `json:"rows"`
	RowCount int              `json:"rowCount"`
	SQL      string           `json:"sql"`
	Rounds   int              `json:"rounds"`
	TimingMS int64            `json:"timing"`
	Summary  string           `json:"summary,omitempty"`
	Chart    *ChartConfig     `json:"chart,omitempty"`
}

// ConversationContext lets the SQL agent treat a question as a refinement of
// the previous one. Caller-supplied and caller-retained; the engine never
// persists it.
type ConversationContext struct {
	PreviousQuestion string `json:"previousQuestion"`
	PreviousSQL      string `json:"previousSql"`
	PreviousSummary  string `json:"previousSummary,omitempty"`
}

// ContextFromResult builds the follow-up context a caller would resubmit
// alongside its next question.
func ContextFromResult(question string, result *QueryResult) ConversationContext {
	return ConversationContext{
		PreviousQuestion: question,
		PreviousSQL:      result.SQL,
		PreviousSummary:  result.Summary,
	}
}

// ============================================================================
// Chart Config (Chart Agent output)
// ============================================================================

// ChartType enumerates the renderable chart types.
type ChartType string

const (
	ChartBar     ChartType = "bar"
	ChartLine    ChartType = "line"
	ChartPie     ChartType = "pie"
	ChartScatter ChartType = "scatter"
	ChartHeatmap ChartType = "heatmap"
)

// ValidChartTypes contains all valid chart type values.
var ValidChartTypes = []ChartType{ChartBar, ChartLine, ChartPie, ChartScatter, ChartHeatmap}

// IsValidChartType checks if the given chart type is valid.
func IsValidChartType(t ChartType) bool {
	for _, v := range ValidChartTypes {
		if v == t {
			return true
		}
	}
	return false
}

// ChartSeries is one plotted series.
type ChartSeries struct {
	Name   string    `json:"name"`
	Values []float64 `json:"values"`
}

// ChartConfig is a full visualization mapping for a result set. Columns are
// drawn strictly from the executed result's columns.
type ChartConfig struct {
	Type     ChartType     `json:"type"`
	Title    string        `json:"title"`
	XColumn  string        `json:"xColumn"`
	YColumns []string      `json:"yColumns"`
	XValues  []string      `json:"xValues"`
	Series   []ChartSeries `json:"series"`
}
