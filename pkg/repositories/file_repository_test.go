package repositories

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lubobali/mergeAI/pkg/apperrors"
	"github.com/lubobali/mergeAI/pkg/models"
	"github.com/lubobali/mergeAI/pkg/testhelpers"
)

func newTestFile(userID, fileName string) *models.UploadedFile {
	return &models.UploadedFile{
		UserID:   userID,
		FileName: fileName,
		Columns:  []string{"EmpID", "Department", "Salary"},
		ColumnTypes: map[string]models.ColumnType{
			"EmpID":      models.ColumnTypeNumber,
			"Department": models.ColumnTypeText,
			"Salary":     models.ColumnTypeNumber,
		},
		SampleValues: map[string][]string{
			"EmpID":  {"1001", "1002", "1003"},
			"Salary": {"52000", "71000", "48000"},
		},
		RowCount: 3,
	}
}

func uniqueUser(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, uuid.NewString()[:8])
}

func TestFileRepository_CreateAndGet(t *testing.T) {
	testDB := testhelpers.GetTestDB(t)
	repo := NewFileRepository(testDB.DB)
	ctx := context.Background()

	file := newTestFile(uniqueUser("u"), "employee_data.csv")
	require.NoError(t, repo.Create(ctx, file))
	assert.NotEqual(t, uuid.Nil, file.ID)
	assert.False(t, file.CreatedAt.IsZero())

	got, err := repo.Get(ctx, file.ID)
	require.NoError(t, err)
	assert.Equal(t, file.FileName, got.FileName)
	assert.Equal(t, file.Columns, got.Columns)
	assert.Equal(t, file.ColumnTypes, got.ColumnTypes)
	assert.Equal(t, file.SampleValues, got.SampleValues)
	assert.Equal(t, 3, got.RowCount)
	assert.False(t, got.IsDemo)
}

func TestFileRepository_Get_NotFound(t *testing.T) {
	testDB := testhelpers.GetTestDB(t)
	repo := NewFileRepository(testDB.DB)

	_, err := repo.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestFileRepository_ListVisible(t *testing.T) {
	testDB := testhelpers.GetTestDB(t)
	repo := NewFileRepository(testDB.DB)
	ctx := context.Background()

	owner := uniqueUser("owner")
	stranger := uniqueUser("stranger")

	owned := newTestFile(owner, "owned.csv")
	require.NoError(t, repo.Create(ctx, owned))

	demo := newTestFile(stranger, "demo.csv")
	demo.IsDemo = true
	require.NoError(t, repo.Create(ctx, demo))

	private := newTestFile(stranger, "private.csv")
	require.NoError(t, repo.Create(ctx, private))

	files, err := repo.ListVisible(ctx, owner)
	require.NoError(t, err)

	var names []string
	for _, f := range files {
		names = append(names, f.FileName)
	}
	assert.Contains(t, names, "owned.csv")
	assert.Contains(t, names, "demo.csv")
	assert.NotContains(t, names, "private.csv")
}

func TestFileRepository_Delete(t *testing.T) {
	testDB := testhelpers.GetTestDB(t)
	fileRepo := NewFileRepository(testDB.DB)
	rowRepo := NewRowRepository(testDB.DB)
	ctx := context.Background()

	owner := uniqueUser("owner")
	file := newTestFile(owner, "doomed.csv")
	require.NoError(t, fileRepo.Create(ctx, file))
	require.NoError(t, rowRepo.BatchInsert(ctx, file.ID, owner, []map[string]any{
		{"EmpID": "1001", "Department": "Sales", "Salary": "52000"},
	}))

	require.NoError(t, fileRepo.Delete(ctx, file.ID, owner))

	_, err := fileRepo.Get(ctx, file.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	// Rows go with the file via cascade.
	rows, err := rowRepo.Preview(ctx, file.ID, 10)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestFileRepository_Delete_DemoProtected(t *testing.T) {
	testDB := testhelpers.GetTestDB(t)
	repo := NewFileRepository(testDB.DB)
	ctx := context.Background()

	owner := uniqueUser("owner")
	demo := newTestFile(owner, "demo.csv")
	demo.IsDemo = true
	require.NoError(t, repo.Create(ctx, demo))

	err := repo.Delete(ctx, demo.ID, owner)
	assert.ErrorIs(t, err, apperrors.ErrDemoFileDelete)

	_, err = repo.Get(ctx, demo.ID)
	assert.NoError(t, err)
}

func TestFileRepository_Delete_OtherUsersFileReadsAsMissing(t *testing.T) {
	testDB := testhelpers.GetTestDB(t)
	repo := NewFileRepository(testDB.DB)
	ctx := context.Background()

	file := newTestFile(uniqueUser("owner"), "theirs.csv")
	require.NoError(t, repo.Create(ctx, file))

	err := repo.Delete(ctx, file.ID, uniqueUser("attacker"))
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
