// Package repositories implements PostgreSQL data access for uploaded files
// and their rows, including the guarded raw-execution path the query
// pipeline runs agent SQL through.
package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/lubobali/mergeAI/pkg/apperrors"
	"github.com/lubobali/mergeAI/pkg/database"
	"github.com/lubobali/mergeAI/pkg/models"
)

// FileRepository defines the interface for uploaded file metadata access.
type FileRepository interface {
	Create(ctx context.Context, file *models.UploadedFile) error
	// ListVisible returns the identity's visible file set: owned files plus
	// demo files.
	ListVisible(ctx context.Context, userID string) ([]*models.UploadedFile, error)
	Get(ctx context.Context, id uuid.UUID) (*models.UploadedFile, error)
	// Delete removes an owned file and, via cascade, its rows. Demo files
	// are undeletable; files owned by someone else read as not found.
	Delete(ctx context.Context, id uuid.UUID, userID string) error
}

// fileRepository implements FileRepository using PostgreSQL.
type fileRepository struct {
	db *database.DB
}

// NewFileRepository creates a new file repository.
func NewFileRepository(db *database.DB) FileRepository {
	return &fileRepository{db: db}
}

// Create inserts the file record. The generated ID and timestamp are
// written back onto the model.
func (r *fileRepository) Create(ctx context.Context, file *models.UploadedFile) error {
	columnsJSON, err := json.Marshal(file.Columns)
	if err != nil {
		return fmt.Errorf("failed to encode columns: %w", err)
	}
	typesJSON, err := json.Marshal(file.ColumnTypes)
	if err != nil {
		return fmt.Errorf("failed to encode column types: %w", err)
	}
	samplesJSON, err := json.Marshal(file.SampleValues)
	if err != nil {
		return fmt.Errorf("failed to encode sample values: %w", err)
	}

	query := `
		INSERT INTO uploaded_files (user_id, file_name, columns, column_types, sample_values, row_count, is_demo)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`

	err = r.db.QueryRow(ctx, query,
		file.UserID,
		file.FileName,
		columnsJSON,
		typesJSON,
		samplesJSON,
		file.RowCount,
		file.IsDemo,
	).Scan(&file.ID, &file.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	return nil
}

const fileColumns = `id, user_id, file_name, columns, column_types, sample_values, row_count, is_demo, created_at`

// ListVisible retrieves the user's own files plus demo files, oldest first.
func (r *fileRepository) ListVisible(ctx context.Context, userID string) ([]*models.UploadedFile, error) {
	query := `
		SELECT ` + fileColumns + `
		FROM uploaded_files
		WHERE user_id = $1 OR is_demo
		ORDER BY created_at`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}
	defer rows.Close()

	var files []*models.UploadedFile
	for rows.Next() {
		file, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		files = append(files, file)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating files: %w", err)
	}

	return files, nil
}

// Get retrieves a single file by ID.
func (r *fileRepository) Get(ctx context.Context, id uuid.UUID) (*models.UploadedFile, error) {
	query := `
		SELECT ` + fileColumns + `
		FROM uploaded_files
		WHERE id = $1`

	rows, err := r.db.Query(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get file: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("failed to get file: %w", err)
		}
		return nil, apperrors.ErrNotFound
	}

	return scanFile(rows)
}

// Delete removes an owned, non-demo file. Row data goes with it through the
// foreign key cascade.
func (r *fileRepository) Delete(ctx context.Context, id uuid.UUID, userID string) error {
	var ownerID string
	var isDemo bool
	err := r.db.QueryRow(ctx, `SELECT user_id, is_demo FROM uploaded_files WHERE id = $1`, id).
		Scan(&ownerID, &isDemo)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrNotFound
		}
		return fmt.Errorf("failed to get file: %w", err)
	}

	if isDemo {
		return apperrors.ErrDemoFileDelete
	}
	// Ownership failures read the same as absence so file IDs cannot be
	// enumerated across identities.
	if ownerID != userID {
		return apperrors.ErrNotFound
	}

	result, err := r.db.Exec(ctx, `DELETE FROM uploaded_files WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

// scanFile decodes one uploaded_files row, unmarshalling the JSONB schema
// columns.
func scanFile(rows pgx.Rows) (*models.UploadedFile, error) {
	var file models.UploadedFile
	var columnsJSON, typesJSON []byte
	var samplesJSON []byte

	err := rows.Scan(
		&file.ID,
		&file.UserID,
		&file.FileName,
		&columnsJSON,
		&typesJSON,
		&samplesJSON,
		&file.RowCount,
		&file.IsDemo,
		&file.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan file: %w", err)
	}

	if err := json.Unmarshal(columnsJSON, &file.Columns); err != nil {
		return nil, fmt.Errorf("failed to decode columns: %w", err)
	}
	if err := json.Unmarshal(typesJSON, &file.ColumnTypes); err != nil {
		return nil, fmt.Errorf("failed to decode column types: %w", err)
	}
	if len(samplesJSON) > 0 {
		if err := json.Unmarshal(samplesJSON, &file.SampleValues); err != nil {
			return nil, fmt.Errorf("failed to decode sample values: %w", err)
		}
	}

	return &file, nil
}

// Ensure fileRepository implements FileRepository at compile time.
var _ FileRepository = (*fileRepository)(nil)
