// Package prompts builds the LLM prompts for each pipeline agent. Builders
// are pure string assembly; agents own the calls and response parsing.
package prompts

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lubobali/mergeAI/pkg/models"
)

// BuildSchemaAnalysisPrompt creates the prompt for the schema reasoning
// agent. It includes every visible file's columns, inferred types, sample
// values and row count, plus prior-round feedback when a retry is underway.
func BuildSchemaAnalysisPrompt(question string, schemas []models.FileSchema, feedback string) string {
	var prompt strings.Builder

	prompt.WriteString(`You are a data schema analyst. Given file schemas, analyze the user's question and find how to answer it.

RULES:
1. If the question only needs ONE file, set singleFileQuery=true and joinKey=null
2. If the question needs TWO files, find the best JOIN key between them
3. Identify which columns contain the metrics the user is asking about
4. Note any data quality issues (case differences, abbreviations, NULLs)

IMPORTANT for join keys:
- Look for columns that represent the SAME entity (Department↔Dept, Product_ID↔Product_ID)
- If column names differ but mean the same thing, that's a "fuzzy" match
- If exact same name, that's "exact" match
- If the names differ only by letter case, that's "case_insensitive"
- Check sample values to verify the match makes sense

Return ONLY valid JSON, no markdown, no explanation:
{
  "joinKey": {
    "fileA": { "column": "col_name", "file": "filename.csv" },
    "fileB": { "column": "col_name", "file": "filename.csv" },
    "confidence": 0.95,
    "matchType": "fuzzy"
  },
  "metrics": [
    { "column": "Salary", "file": "employees.csv", "aggregation": "AVG" }
  ],
  "warnings": ["Department vs Dept — abbreviation detected"],
  "singleFileQuery": false
}`)

	prompt.WriteString("\n\nFILES:\n")
	prompt.WriteString(describeSchemas(schemas, false))

	prompt.WriteString(fmt.Sprintf("\nUSER QUESTION: %q\n", question))
	if feedback != "" {
		prompt.WriteString(fmt.Sprintf("\nPREVIOUS ATTEMPT FEEDBACK: %s\n", feedback))
	}
	prompt.WriteString("\nReturn JSON only:")

	return prompt.String()
}

// BuildSchemaAnalysisSystemMessage returns the system message for the
// schema reasoning agent.
func BuildSchemaAnalysisSystemMessage() string {
	return "You are a data schema analyst. You respond with valid JSON only."
}

// describeSchemas renders files one block per file. When withFileID is set,
// each block names the file_id the SQL must filter on.
func describeSchemas(schemas []models.FileSchema, withFileID bool) string {
	var b strings.Builder
	for i, s := range schemas {
		if i > 0 {
			b.WriteString("\n")
		}
		if withFileID {
			b.WriteString(fmt.Sprintf("FILE: %s (file_id = '%s')\n", s.FileName, s.FileID))
		} else {
			b.WriteString(fmt.Sprintf("FILE: %s\n", s.FileName))
		}
		b.WriteString(fmt.Sprintf("COLUMNS: %s\n", strings.Join(s.Columns, ", ")))
		if !withFileID {
			b.WriteString(fmt.Sprintf("TYPES: %s\n", compactJSON(s.ColumnTypes)))
		}
		b.WriteString(fmt.Sprintf("SAMPLE VALUES: %s\n", compactJSON(s.SampleValues)))
		if !withFileID {
			b.WriteString(fmt.Sprintf("ROWS: %d\n", s.RowCount))
		}
	}
	return b.String()
}

func compactJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(data)
}
