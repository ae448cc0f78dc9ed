package prompts

import (
	"encoding/json"
	"fmt"
	"strings"
)

// SummaryRowLimit caps how many result rows the summary prompt carries.
const SummaryRowLimit = 10

// ChartRowLimit caps how many result rows the chart prompt carries.
const ChartRowLimit = 15

// BuildSummaryPrompt creates the prompt for the summary agent from the
// question and the executed result. Only the first SummaryRowLimit rows are
// included to keep the prompt small.
func BuildSummaryPrompt(question string, columns []string, rows []map[string]any) string {
	preview := rows
	if len(preview) > SummaryRowLimit {
		preview = preview[:SummaryRowLimit]
	}

	var prompt strings.Builder
	prompt.WriteString(fmt.Sprintf("You are a data analyst. The user asked: %q\n\n", question))
	prompt.WriteString(fmt.Sprintf("The query returned %d rows with columns: %s\n\n", len(rows), strings.Join(columns, ", ")))
	prompt.WriteString(fmt.Sprintf("Data (first %d rows):\n%s\n\n", len(preview), prettyJSON(preview)))
	prompt.WriteString("Write a 2-3 sentence plain English summary of the results. Highlight the key insight (highest/lowest value, trend, comparison). Be specific with numbers. Do NOT use markdown or bullet points.")
	return prompt.String()
}

// BuildChartPrompt creates the prompt for the chart agent. When a
// deterministic heuristic already picked a chart type, detectedType pins it
// and the model only chooses the axis mapping.
func BuildChartPrompt(question string, columns []string, rows []map[string]any, numericCols []string, detectedType string) string {
	preview := rows
	if len(preview) > ChartRowLimit {
		preview = preview[:ChartRowLimit]
	}

	numeric := make(map[string]bool, len(numericCols))
	for _, c := range numericCols {
		numeric[c] = true
	}
	var categorical []string
	for _, c := range columns {
		if !numeric[c] {
			categorical = append(categorical, c)
		}
	}

	var prompt strings.Builder
	prompt.WriteString(`You are a data visualization expert. Given query results, pick the best chart type and axis mapping.

RULES:
- Categorical + numeric → "bar"
- Time/date column + numeric → "line"
- Parts of a whole, percentages, breakdown (≤10 categories) → "pie"
- Two numeric columns → "scatter"
- Two categoricals + one numeric → "heatmap"
- If question asks about percentage/breakdown/distribution → ALWAYS use "pie"
- For xColumn: pick the categorical/label column (NOT the numeric value column)
- For yColumns: pick the numeric/value column(s)
- Default to "bar" if unsure`)
	if detectedType != "" {
		prompt.WriteString(fmt.Sprintf("\n\nIMPORTANT: Based on the question, use chartType %q. Do NOT override this.", detectedType))
	}

	prompt.WriteString(fmt.Sprintf("\n\nNUMERIC COLUMNS: %s\n", joinOr(numericCols, "none detected")))
	prompt.WriteString(fmt.Sprintf("CATEGORICAL COLUMNS: %s\n", joinOr(categorical, "none")))
	prompt.WriteString(fmt.Sprintf("\nALL COLUMNS: %s\n", strings.Join(columns, ", ")))
	prompt.WriteString(fmt.Sprintf("\nDATA (first %d rows):\n%s\n", len(preview), prettyJSON(preview)))
	prompt.WriteString(fmt.Sprintf("\nUSER QUESTION: %q\n", question))

	exampleType := detectedType
	if exampleType == "" {
		exampleType = "bar"
	}
	prompt.WriteString("\nReturn ONLY valid JSON (no markdown, no backticks, no explanation):\n")
	prompt.WriteString(fmt.Sprintf(`{"chartType": %q, "xColumn": "column_name", "yColumns": ["column_name"], "title": "Short Chart Title"}`, exampleType))

	return prompt.String()
}

func joinOr(values []string, fallback string) string {
	if len(values) == 0 {
		return fallback
	}
	return strings.Join(values, ", ")
}

func prettyJSON(v any) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "[]"
	}
	return string(data)
}
