package models

import (
	"testing"

	"github.com/google/uuid"
)

func TestContextFromResult_RoundTrip(t *testing.T) {
	result := &QueryResult{
		Columns:  []string{"department", "avg_salary"},
		Rows:     []map[string]any{{"department": "Sales", "avg_salary": 72000.0}},
		RowCount: 1,
		SQL:      "SELECT row_data->>'Department' AS department FROM uploaded_rows",
		Rounds:   1,
		Summary:  "Sales has the highest average salary.",
	}

	ctx := ContextFromResult("average salary by department", result)

	if ctx.PreviousQuestion != "average salary by department" {
		t.Errorf("question not carried: %q", ctx.PreviousQuestion)
	}
	if ctx.PreviousSQL != result.SQL {
		t.Errorf("sql not carried: %q", ctx.PreviousSQL)
	}
	if ctx.PreviousSummary != result.Summary {
		t.Errorf("summary not carried: %q", ctx.PreviousSummary)
	}
}

func TestContextFromResult_NoSummary(t *testing.T) {
	result := &QueryResult{SQL: "SELECT 1"}
	ctx := ContextFromResult("q", result)
	if ctx.PreviousSummary != "" {
		t.Errorf("expected empty summary, got %q", ctx.PreviousSummary)
	}
}

func TestToSchema(t *testing.T) {
	f := &UploadedFile{
		ID:          uuid.New(),
		UserID:      "u1",
		FileName:    "employees.csv",
		Columns:     []string{"EmpID", "Salary"},
		ColumnTypes: map[string]ColumnType{"EmpID": ColumnTypeText, "Salary": ColumnTypeNumber},
		RowCount:    100,
	}

	s := f.ToSchema()
	if s.FileID != f.ID || s.FileName != "employees.csv" || s.RowCount != 100 {
		t.Errorf("schema projection mismatch: %+v", s)
	}
	if s.SampleValues == nil {
		t.Error("nil sample values should project as empty map")
	}
}

func TestIsValidChartType(t *testing.T) {
	for _, ct := range ValidChartTypes {
		if !IsValidChartType(ct) {
			t.Errorf("%s should be valid", ct)
		}
	}
	if IsValidChartType("gauge") {
		t.Error("gauge should not be valid")
	}
}
