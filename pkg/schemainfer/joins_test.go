package schemainfer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func employeesFile() FileColumns {
	return FileColumns{
		ID:       "f1",
		FileName: "employee_data.csv",
		Columns:  []string{"EmpID", "FirstName", "Department", "Salary"},
	}
}

func TestDetectJoins_ExactMatch(t *testing.T) {
	files := []FileColumns{
		employeesFile(),
		{ID: "f2", FileName: "training_data.csv", Columns: []string{"Emp ID", "Training Cost", "Training Outcome"}},
	}

	joins := DetectJoins(files)
	require.Len(t, joins, 1)
	assert.Equal(t, JoinExactID, joins[0].JoinType)
	assert.Equal(t, 0.95, joins[0].Confidence)
	assert.Equal(t, "EmpID", joins[0].FileA.Column)
	assert.Equal(t, "Emp ID", joins[0].FileB.Column)
	assert.Equal(t, "via Emp ID", joins[0].Label)
}

func TestDetectJoins_FuzzyMatch(t *testing.T) {
	files := []FileColumns{
		employeesFile(),
		{ID: "f2", FileName: "survey.csv", Columns: []string{"Employee ID", "Engagement Score"}},
	}

	joins := DetectJoins(files)
	require.Len(t, joins, 1)
	assert.Equal(t, JoinFuzzyID, joins[0].JoinType)
	assert.Equal(t, 0.75, joins[0].Confidence)
	assert.Equal(t, "via Employee ID", joins[0].Label)
}

func TestDetectJoins_ExactBeatsFuzzy(t *testing.T) {
	files := []FileColumns{
		{ID: "f1", FileName: "a.csv", Columns: []string{"EmpID", "EmployeeID"}},
		{ID: "f2", FileName: "b.csv", Columns: []string{"Employee ID"}},
	}

	joins := DetectJoins(files)
	require.Len(t, joins, 1)
	assert.Equal(t, JoinExactID, joins[0].JoinType)
	assert.Equal(t, "EmployeeID", joins[0].FileA.Column)
}

func TestDetectJoins_NoIDColumns(t *testing.T) {
	files := []FileColumns{
		{ID: "f1", FileName: "a.csv", Columns: []string{"Department", "Salary"}},
		{ID: "f2", FileName: "b.csv", Columns: []string{"Region", "Revenue"}},
	}
	assert.Empty(t, DetectJoins(files))
}

func TestDetectJoins_IsolatedFileGetsPossibleEdge(t *testing.T) {
	files := []FileColumns{
		employeesFile(),
		{ID: "f2", FileName: "training.csv", Columns: []string{"Emp ID", "Training Cost"}},
		{ID: "f3", FileName: "applicants.csv", Columns: []string{"Applicant ID", "Application Date"}},
	}

	joins := DetectJoins(files)
	require.Len(t, joins, 2)

	possible := joins[1]
	assert.Equal(t, JoinPossibleID, possible.JoinType)
	assert.Equal(t, 0.4, possible.Confidence)
	assert.Equal(t, "f3", possible.FileA.FileID)
	assert.Equal(t, "Applicant ID", possible.FileA.Column)
	// Target must be one of the already-connected files.
	assert.Contains(t, []string{"f1", "f2"}, possible.FileB.FileID)
}

func TestDetectJoins_SingleFile(t *testing.T) {
	assert.Empty(t, DetectJoins([]FileColumns{employeesFile()}))
}

func TestDetectJoins_ShortRootsDoNotFuzzyMatch(t *testing.T) {
	// Roots of length 1 would make everything match everything.
	files := []FileColumns{
		{ID: "f1", FileName: "a.csv", Columns: []string{"A ID"}},
		{ID: "f2", FileName: "b.csv", Columns: []string{"B ID"}},
	}
	joins := DetectJoins(files)
	// No exact or fuzzy edge, but both are isolated with ID columns, so
	// one possible edge connects them.
	require.Len(t, joins, 1)
	assert.Equal(t, JoinPossibleID, joins[0].JoinType)
}
