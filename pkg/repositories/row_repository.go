package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/lubobali/mergeAI/pkg/apperrors"
	"github.com/lubobali/mergeAI/pkg/database"
	"github.com/lubobali/mergeAI/pkg/sqlguard"
)

// insertBatchSize bounds how many rows go into one batched insert.
const insertBatchSize = 500

// executeTimeout is the wall-clock budget for one raw execution. Enforced
// caller-side via context cancellation: pooled connections do not keep
// session-scoped statement_timeout settings between calls, so a SET would
// silently stop applying.
const executeTimeout = 10 * time.Second

// RowRepository defines the interface for uploaded row storage and guarded
// raw execution. Rows are insert-only; there is no update path.
type RowRepository interface {
	BatchInsert(ctx context.Context, fileID uuid.UUID, userID string, rows []map[string]any) error
	Preview(ctx context.Context, fileID uuid.UUID, limit int) ([]map[string]any, error)
	// ExecuteRaw validates agent SQL through the safety gate, caps its row
	// count, and runs it under the execution timeout. Returns the result
	// columns in SELECT order plus one map per row.
	ExecuteRaw(ctx context.Context, sqlText string) (columns []string, rows []map[string]any, err error)
}

// rowRepository implements RowRepository using PostgreSQL.
type rowRepository struct {
	db *database.DB
}

// NewRowRepository creates a new row repository.
func NewRowRepository(db *database.DB) RowRepository {
	return &rowRepository{db: db}
}

// BatchInsert stores rows in batches of insertBatchSize.
func (r *rowRepository) BatchInsert(ctx context.Context, fileID uuid.UUID, userID string, rows []map[string]any) error {
	query := `INSERT INTO uploaded_rows (file_id, user_id, row_data) VALUES ($1, $2, $3)`

	for start := 0; start < len(rows); start += insertBatchSize {
		end := start + insertBatchSize
		if end > len(rows) {
			end = len(rows)
		}

		batch := &pgx.Batch{}
		for _, row := range rows[start:end] {
			rowJSON, err := json.Marshal(row)
			if err != nil {
				return fmt.Errorf("failed to encode row: %w", err)
			}
			batch.Queue(query, fileID, userID, rowJSON)
		}

		results := r.db.SendBatch(ctx, batch)
		for i := 0; i < batch.Len(); i++ {
			if _, err := results.Exec(); err != nil {
				_ = results.Close()
				return fmt.Errorf("failed to insert rows: %w", err)
			}
		}
		if err := results.Close(); err != nil {
			return fmt.Errorf("failed to close batch: %w", err)
		}
	}

	return nil
}

// Preview returns the first rows of a file in insertion order.
func (r *rowRepository) Preview(ctx context.Context, fileID uuid.UUID, limit int) ([]map[string]any, error) {
	if limit <= 0 || limit > sqlguard.MaxRows {
		limit = sqlguard.MaxRows
	}

	query := `SELECT row_data FROM uploaded_rows WHERE file_id = $1 ORDER BY id LIMIT $2`

	rows, err := r.db.Query(ctx, query, fileID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to preview rows: %w", err)
	}
	defer rows.Close()

	var result []map[string]any
	for rows.Next() {
		var rowJSON []byte
		if err := rows.Scan(&rowJSON); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		var rowData map[string]any
		if err := json.Unmarshal(rowJSON, &rowData); err != nil {
			return nil, fmt.Errorf("failed to decode row: %w", err)
		}
		result = append(result, rowData)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return result, nil
}

// ExecuteRaw runs one agent-generated statement. The safety gate runs
// first, then the row cap, then execution under the wall-clock timeout.
func (r *rowRepository) ExecuteRaw(ctx context.Context, sqlText string) ([]string, []map[string]any, error) {
	if err := sqlguard.Validate(sqlText); err != nil {
		return nil, nil, err
	}
	sqlText = sqlguard.EnforceLimit(sqlText, sqlguard.MaxRows)

	execCtx, cancel := context.WithTimeout(ctx, executeTimeout)
	defer cancel()

	rows, err := r.db.Query(execCtx, sqlText)
	if err != nil {
		return nil, nil, classifyExecError(err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	columns := make([]string, len(fields))
	for i, f := range fields {
		columns[i] = f.Name
	}

	var result []map[string]any
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read row values: %w", err)
		}
		row := make(map[string]any, len(columns))
		for i, col := range columns {
			row[col] = normalizeValue(values[i])
		}
		result = append(result, row)
	}

	if err := rows.Err(); err != nil {
		return nil, nil, classifyExecError(err)
	}

	return columns, result, nil
}

// classifyExecError maps a context deadline into the distinguished timeout
// error; everything else passes through with context.
func classifyExecError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.ErrQueryTimeout
	}
	return fmt.Errorf("query execution failed: %w", err)
}

// normalizeValue flattens driver types into JSON-friendly values. Aggregates
// come back as pgtype.Numeric, uuid columns as raw bytes.
func normalizeValue(v any) any {
	switch val := v.(type) {
	case []byte:
		return string(val)
	case [16]byte:
		return uuid.UUID(val).String()
	case pgtype.Numeric:
		f, err := val.Float64Value()
		if err != nil || !f.Valid {
			return nil
		}
		return f.Float64
	case time.Time:
		return val.Format(time.RFC3339)
	default:
		return v
	}
}

// Ensure rowRepository implements RowRepository at compile time.
var _ RowRepository = (*rowRepository)(nil)
