package agents

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/lubobali/mergeAI/pkg/llm"
	"github.com/lubobali/mergeAI/pkg/models"
	"github.com/lubobali/mergeAI/pkg/prompts"
)

// ChartAgent picks a chart type and axis mapping for a result set.
// Deterministic keyword heuristics run first; only when none fires does a
// model call decide, constrained to the fixed chart type enum.
type ChartAgent struct {
	client llm.Client
	logger *zap.Logger
}

// NewChartAgent creates a chart agent.
func NewChartAgent(client llm.Client, logger *zap.Logger) *ChartAgent {
	return &ChartAgent{client: client, logger: logger}
}

// chartChoice is the model's JSON answer.
type chartChoice struct {
	ChartType string   `json:"chartType"`
	XColumn   string   `json:"xColumn"`
	YColumns  []string `json:"yColumns"`
	Title     string   `json:"title"`
}

const pieRowLimit = 10

var (
	pieQuestionPattern  = regexp.MustCompile(`\b(percentage|percent|breakdown|distribution|proportion|share|pie)\b`)
	lineQuestionPattern = regexp.MustCompile(`\b(trend|over time|timeline|by (date|month|year|week|day)|monthly|yearly|daily)\b`)
	heatmapPattern      = regexp.MustCompile(`\b(heatmap|heat map)\b`)
	scatterPattern      = regexp.MustCompile(`\b(scatter|correlation|relationship)\b|\bvs\.?(\s|$)`)
	pieColumnPattern    = regexp.MustCompile(`percent|share|proportion`)
	dateColumnPattern   = regexp.MustCompile(`date|month|year|period|time`)
)

// detectChartType applies the keyword heuristics. Returns "" when nothing
// fires and the model should decide.
func detectChartType(question string, columns []string, rowCount int) models.ChartType {
	q := strings.ToLower(question)

	if rowCount <= pieRowLimit && pieQuestionPattern.MatchString(q) {
		return models.ChartPie
	}
	if lineQuestionPattern.MatchString(q) {
		return models.ChartLine
	}
	if heatmapPattern.MatchString(q) {
		return models.ChartHeatmap
	}
	if scatterPattern.MatchString(q) {
		return models.ChartScatter
	}

	// Column-shape heuristics when the question itself is neutral.
	if rowCount <= pieRowLimit {
		for _, c := range columns {
			if pieColumnPattern.MatchString(strings.ToLower(c)) {
				return models.ChartPie
			}
		}
	}
	if rowCount > 5 {
		for _, c := range columns {
			if dateColumnPattern.MatchString(strings.ToLower(c)) {
				return models.ChartLine
			}
		}
	}

	return ""
}

// Run builds a chart config for the result, or nil when the result is not
// chartable. All failures degrade to the deterministic fallback or to no
// chart; Run never returns an error.
func (a *ChartAgent) Run(ctx context.Context, question string, columns []string, rows []map[string]any) *models.ChartConfig {
	if len(rows) == 0 || len(columns) < 2 {
		return nil
	}

	detected := detectChartType(question, columns, len(rows))
	numericCols := findNumericColumns(columns, rows)
	categoricalCol := findCategoricalColumn(columns, rows, numericCols)

	prompt := prompts.BuildChartPrompt(question, columns, rows, numericCols, string(detected))

	response, err := a.client.GenerateResponse(ctx, prompt, "", 0)
	if err != nil {
		a.logger.Warn("chart agent call failed, using fallback", zap.Error(err))
		return a.fallbackChart(detected, question, columns, rows, numericCols, categoricalCol)
	}

	choice, err := llm.ParseJSONResponse[chartChoice](response)
	if err != nil {
		a.logger.Warn("chart agent returned unparseable JSON, using fallback", zap.Error(err))
		return a.fallbackChart(detected, question, columns, rows, numericCols, categoricalCol)
	}

	// Deterministic detection overrides the model.
	chartType := models.ChartType(choice.ChartType)
	if !models.IsValidChartType(chartType) {
		chartType = models.ChartBar
	}
	if detected != "" {
		chartType = detected
	}

	// Axis columns must exist in the actual result.
	xCol := choice.XColumn
	if !containsString(columns, xCol) {
		if categoricalCol != "" {
			xCol = categoricalCol
		} else {
			xCol = columns[0]
		}
	}
	var yCols []string
	for _, c := range choice.YColumns {
		if containsString(columns, c) {
			yCols = append(yCols, c)
		}
	}
	if len(yCols) == 0 {
		y := firstOtherNumeric(numericCols, xCol)
		if y == "" {
			return nil
		}
		yCols = []string{y}
	}

	if !hasValidData(rows, yCols) {
		return nil
	}

	title := choice.Title
	if title == "" {
		title = "Query Results"
	}

	return buildChartConfig(chartType, title, xCol, yCols, rows)
}

// fallbackChart builds a chart from the deterministic detection alone, used
// when the model call or parse fails.
func (a *ChartAgent) fallbackChart(detected models.ChartType, question string, columns []string, rows []map[string]any, numericCols []string, categoricalCol string) *models.ChartConfig {
	chartType := detected
	if chartType == "" {
		chartType = models.ChartBar
	}

	xCol := categoricalCol
	if xCol == "" {
		xCol = columns[0]
	}
	yCol := firstOtherNumeric(numericCols, xCol)
	if yCol == "" {
		return nil
	}
	if !hasValidData(rows, []string{yCol}) {
		return nil
	}

	title := question
	if len(title) > 50 {
		title = title[:47] + "..."
	}

	return buildChartConfig(chartType, title, xCol, []string{yCol}, rows)
}

func buildChartConfig(chartType models.ChartType, title, xCol string, yCols []string, rows []map[string]any) *models.ChartConfig {
	xValues := make([]string, len(rows))
	for i, r := range rows {
		if v := r[xCol]; v != nil {
			xValues[i] = stringValue(v)
		}
	}

	series := make([]models.ChartSeries, len(yCols))
	for si, yCol := range yCols {
		values := make([]float64, len(rows))
		for i, r := range rows {
			if n, ok := asNumber(r[yCol]); ok {
				values[i] = n
			}
		}
		series[si] = models.ChartSeries{Name: yCol, Values: values}
	}

	return &models.ChartConfig{
		Type:     chartType,
		Title:    title,
		XColumn:  xCol,
		YColumns: yCols,
		XValues:  xValues,
		Series:   series,
	}
}

// findNumericColumns samples the first 5 present values per column and keeps
// columns where at least 80% parse as numbers.
func findNumericColumns(columns []string, rows []map[string]any) []string {
	var numeric []string
	for _, col := range columns {
		checked := 0
		numCount := 0
		for _, row := range rows {
			v := row[col]
			if isEmptyValue(v) {
				continue
			}
			checked++
			if _, ok := asNumber(v); ok {
				numCount++
			}
			if checked >= 5 {
				break
			}
		}
		if checked > 0 && float64(numCount)/float64(checked) >= 0.8 {
			numeric = append(numeric, col)
		}
	}
	return numeric
}

// findCategoricalColumn returns the first non-numeric column with any
// present value, or "".
func findCategoricalColumn(columns []string, rows []map[string]any, numericCols []string) string {
	for _, col := range columns {
		if containsString(numericCols, col) {
			continue
		}
		for _, row := range rows {
			if !isEmptyValue(row[col]) {
				return col
			}
		}
	}
	return ""
}

// hasValidData reports whether any y-value is present and non-zero. All
// null/zero series mean the chart would render empty, so skip it.
func hasValidData(rows []map[string]any, yCols []string) bool {
	for _, yCol := range yCols {
		for _, row := range rows {
			v := row[yCol]
			if isEmptyValue(v) {
				continue
			}
			if n, ok := asNumber(v); ok && n != 0 {
				return true
			}
		}
	}
	return false
}

func isEmptyValue(v any) bool {
	return v == nil || v == "" || v == "—"
}

func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func stringValue(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	if n, ok := asNumber(v); ok {
		return strconv.FormatFloat(n, 'f', -1, 64)
	}
	return ""
}

func firstOtherNumeric(numericCols []string, xCol string) string {
	for _, c := range numericCols {
		if c != xCol {
			return c
		}
	}
	return ""
}

func containsString(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}
