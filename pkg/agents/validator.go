// Package agents contains the query pipeline: schema reasoning, SQL
// synthesis, deterministic result validation, orchestration across retry
// rounds, and best-effort summary/chart post-processing.
package agents

import (
	"fmt"

	"github.com/lubobali/mergeAI/pkg/models"
)

// ValidateResult runs the deterministic checks on an executed result set.
// No AI involved, so retry decisions stay reproducible and fast. Checks run
// in order; the first failure wins.
func ValidateResult(rows []map[string]any, columns []string) models.ValidationResult {
	rowCount := len(rows)

	// Zero rows almost always means a bad join or a wrong column name.
	if rowCount == 0 {
		return models.ValidationResult{
			Status:         models.ValidationRetry,
			Diagnosis:      "Query returned 0 rows. Likely cause: case mismatch in JOIN key or wrong column name. Try LOWER() on join columns.",
			RowCount:       0,
			NullPercentage: 100,
		}
	}

	totalCells := 0
	nullCells := 0
	for _, row := range rows {
		for _, col := range columns {
			totalCells++
			if isNullCell(row[col]) {
				nullCells++
			}
		}
	}
	var nullPercentage float64
	if totalCells > 0 {
		nullPercentage = float64(nullCells) / float64(totalCells) * 100
	}

	if nullPercentage > 50 {
		return models.ValidationResult{
			Status:         models.ValidationRetry,
			Diagnosis:      fmt.Sprintf("%.0f%% NULL values detected. JOIN key is likely not matching correctly. Check column name spelling and case sensitivity.", nullPercentage),
			RowCount:       rowCount,
			NullPercentage: nullPercentage,
		}
	}

	// A single column across many rows usually means the aggregated metric
	// got dropped from the SELECT list.
	if len(columns) < 2 && rowCount > 1 {
		return models.ValidationResult{
			Status:         models.ValidationRetry,
			Diagnosis:      "Only 1 column returned. The query is missing the metric column. Add the aggregation (AVG, SUM, COUNT) for the requested metric.",
			RowCount:       rowCount,
			NullPercentage: nullPercentage,
		}
	}

	return models.ValidationResult{
		Status:         models.ValidationPass,
		Diagnosis:      fmt.Sprintf("%d rows, %.0f%% nulls — looks good", rowCount, nullPercentage),
		RowCount:       rowCount,
		NullPercentage: nullPercentage,
	}
}

func isNullCell(v any) bool {
	return v == nil || v == ""
}
