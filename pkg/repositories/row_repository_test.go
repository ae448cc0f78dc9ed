package repositories

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lubobali/mergeAI/pkg/apperrors"
	"github.com/lubobali/mergeAI/pkg/models"
	"github.com/lubobali/mergeAI/pkg/testhelpers"
)

func seedRows(t *testing.T, count int) (*models.UploadedFile, RowRepository) {
	t.Helper()
	testDB := testhelpers.GetTestDB(t)
	fileRepo := NewFileRepository(testDB.DB)
	rowRepo := NewRowRepository(testDB.DB)
	ctx := context.Background()

	file := newTestFile(uniqueUser("rows"), "rows.csv")
	require.NoError(t, fileRepo.Create(ctx, file))

	rows := make([]map[string]any, count)
	for i := range rows {
		dept := "Sales"
		if i%2 == 1 {
			dept = "Engineering"
		}
		rows[i] = map[string]any{
			"EmpID":      fmt.Sprintf("%d", 1000+i),
			"Department": dept,
			"Salary":     fmt.Sprintf("%d", 40000+i*10),
		}
	}
	require.NoError(t, rowRepo.BatchInsert(ctx, file.ID, file.UserID, rows))
	return file, rowRepo
}

func TestRowRepository_BatchInsertAndPreview(t *testing.T) {
	// 1200 rows exercises multiple insert batches.
	file, rowRepo := seedRows(t, 1200)
	ctx := context.Background()

	preview, err := rowRepo.Preview(ctx, file.ID, 5)
	require.NoError(t, err)
	require.Len(t, preview, 5)
	assert.Equal(t, "1000", preview[0]["EmpID"])
	assert.Equal(t, "Sales", preview[0]["Department"])

	columns, rows, err := rowRepo.ExecuteRaw(ctx,
		fmt.Sprintf(`SELECT COUNT(*) AS total FROM uploaded_rows WHERE file_id = '%s'`, file.ID))
	require.NoError(t, err)
	assert.Equal(t, []string{"total"}, columns)
	require.Len(t, rows, 1)
	assert.EqualValues(t, 1200, rows[0]["total"])
}

func TestRowRepository_ExecuteRaw_Aggregation(t *testing.T) {
	file, rowRepo := seedRows(t, 40)

	sqlText := fmt.Sprintf(`
		SELECT row_data->>'Department' AS department,
		       AVG((row_data->>'Salary')::NUMERIC) AS avg_salary
		FROM uploaded_rows
		WHERE file_id = '%s'
		GROUP BY 1
		ORDER BY avg_salary DESC`, file.ID)

	columns, rows, err := rowRepo.ExecuteRaw(context.Background(), sqlText)
	require.NoError(t, err)
	assert.Equal(t, []string{"department", "avg_salary"}, columns)
	require.Len(t, rows, 2)
	assert.Equal(t, "Engineering", rows[0]["department"])
}

func TestRowRepository_ExecuteRaw_RejectsWrites(t *testing.T) {
	_, rowRepo := seedRows(t, 1)

	_, _, err := rowRepo.ExecuteRaw(context.Background(), "DELETE FROM uploaded_rows")
	assert.ErrorIs(t, err, apperrors.ErrNotReadQuery)

	_, _, err = rowRepo.ExecuteRaw(context.Background(), "SELECT 1; DROP TABLE uploaded_rows")
	assert.ErrorIs(t, err, apperrors.ErrMultiStatement)
}

func TestRowRepository_ExecuteRaw_AppliesRowCap(t *testing.T) {
	file, rowRepo := seedRows(t, 350)

	_, rows, err := rowRepo.ExecuteRaw(context.Background(),
		fmt.Sprintf(`SELECT row_data->>'EmpID' AS emp, row_data->>'Salary' AS salary FROM uploaded_rows WHERE file_id = '%s'`, file.ID))
	require.NoError(t, err)
	assert.Len(t, rows, 200)
}

func TestRowRepository_ExecuteRaw_Timeout(t *testing.T) {
	_, rowRepo := seedRows(t, 1)

	// A short caller deadline stands in for the 10s execution budget.
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, _, err := rowRepo.ExecuteRaw(ctx, "SELECT pg_sleep(5)")
	assert.ErrorIs(t, err, apperrors.ErrQueryTimeout)
}

func TestRowRepository_Preview_EmptyFile(t *testing.T) {
	testDB := testhelpers.GetTestDB(t)
	fileRepo := NewFileRepository(testDB.DB)
	rowRepo := NewRowRepository(testDB.DB)
	ctx := context.Background()

	file := newTestFile(uniqueUser("empty"), "empty.csv")
	require.NoError(t, fileRepo.Create(ctx, file))

	rows, err := rowRepo.Preview(ctx, file.ID, 10)
	require.NoError(t, err)
	assert.Empty(t, rows)
}
