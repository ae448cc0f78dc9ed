package prompts

import (
	"fmt"
	"strings"

	"github.com/lubobali/mergeAI/pkg/models"
)

// BuildSQLSynthesisPrompt creates the prompt for the query synthesis agent.
// All uploaded data lives in one JSONB row store, so the prompt teaches the
// extraction syntax and the cast rule that most validator failures trace
// back to.
func BuildSQLSynthesisPrompt(question string, schemas []models.FileSchema, analysis models.SchemaAnalysis, contextInfo *models.ConversationContext) string {
	var prompt strings.Builder

	prompt.WriteString(`You are an expert PostgreSQL query builder. All CSV data is stored in one table: uploaded_rows
- file_id: UUID (identifies which file)
- row_data: JSONB (each row as key-value pairs)

Access values: row_data->>'Column_Name' (text)
Cast numbers: (row_data->>'Column_Name')::NUMERIC
Every extracted field used in arithmetic, comparison or ORDER BY must be cast first — payload values are text regardless of logical type.
Use LOWER() for text JOINs. Use CTE for cross-file queries. GROUP BY dimensions. ORDER BY metric DESC. LIMIT 50.

IMPORTANT: Determine the correct JOIN key yourself by looking at column names and sample values.
Look for ID columns (EmpID, Employee ID, Product_ID, etc.) as the primary join key.
Do NOT join on descriptive columns like Location or Department unless the question specifically asks for it.

`)

	prompt.WriteString(describeSchemas(schemas, true))

	if hint := describeAnalysis(analysis); hint != "" {
		prompt.WriteString("\nSCHEMA ANALYSIS (advisory — verify against sample values):\n")
		prompt.WriteString(hint)
	}

	if contextInfo != nil && contextInfo.PreviousSQL != "" {
		prompt.WriteString("\nPREVIOUS TURN:\n")
		prompt.WriteString(fmt.Sprintf("QUESTION: %q\n", contextInfo.PreviousQuestion))
		prompt.WriteString(fmt.Sprintf("SQL:\n%s\n", contextInfo.PreviousSQL))
		if contextInfo.PreviousSummary != "" {
			prompt.WriteString(fmt.Sprintf("SUMMARY: %s\n", contextInfo.PreviousSummary))
		}
		prompt.WriteString("If the new question refers to the previous result (\"that\", \"those\", \"the same\", a filter or drilldown), extend the previous SQL instead of writing an unrelated query. Otherwise treat it as independent.\n")
	}

	prompt.WriteString(fmt.Sprintf("\nQUESTION: %q\n", question))
	prompt.WriteString("\nReturn ONLY the raw SQL. No markdown, no backticks, no explanation.")

	return prompt.String()
}

// BuildSQLSynthesisSystemMessage disables visible reasoning so the output
// is clean SQL.
func BuildSQLSynthesisSystemMessage() string {
	return "detailed thinking off"
}

// describeAnalysis renders the schema agent's structured output as prompt
// hints. Empty analysis yields an empty string.
func describeAnalysis(analysis models.SchemaAnalysis) string {
	var b strings.Builder
	if jk := analysis.JoinKey; jk != nil {
		b.WriteString(fmt.Sprintf("- Proposed join: %s.%s ↔ %s.%s (%s, %.0f%% confidence)\n",
			jk.FileA.File, jk.FileA.Column, jk.FileB.File, jk.FileB.Column,
			jk.MatchType, jk.Confidence*100))
	}
	for _, m := range analysis.Metrics {
		b.WriteString(fmt.Sprintf("- Metric: %s(%s) from %s\n", m.Aggregation, m.Column, m.File))
	}
	for _, w := range analysis.Warnings {
		b.WriteString(fmt.Sprintf("- Warning: %s\n", w))
	}
	if analysis.SingleFileQuery {
		b.WriteString("- Single-file query: no join needed\n")
	}
	return b.String()
}
