package models

import (
	"time"

	"github.com/google/uuid"
)

// ColumnType is the inferred logical type of an uploaded column.
// Payload values are always stored as text; this records what the data
// looked like at ingest time.
type ColumnType string

const (
	ColumnTypeNumber ColumnType = "number"
	ColumnTypeText   ColumnType = "text"
	ColumnTypeDate   ColumnType = "date"
)

// UploadedFile describes one ingested tabular file. Rows live separately in
// uploaded_rows; the file record carries the schema metadata agents reason
// over.
type UploadedFile struct {
	ID           uuid.UUID             `json:"id"`
	UserID       string                `json:"user_id"`
	FileName     string                `json:"file_name"`
	Columns      []string              `json:"columns"`
	ColumnTypes  map[string]ColumnType `json:"column_types"`
	SampleValues map[string][]string   `json:"sample_values,omitempty"`
	RowCount     int                   `json:"row_count"`
	IsDemo       bool                  `json:"is_demo"`
	CreatedAt    time.Time             `json:"created_at"`
}

// UploadedRow is one row of an uploaded file. Rows are insert-only; there is
// no update path. UserID is denormalized from the owning file for access-path
// queries.
type UploadedRow struct {
	ID      int64          `json:"id"`
	FileID  uuid.UUID      `json:"file_id"`
	UserID  string         `json:"user_id"`
	RowData map[string]any `json:"row_data"`
}

// FileSchema is the ephemeral agent-facing projection of an UploadedFile.
// Built fresh per query from the requesting identity's visible file set.
type FileSchema struct {
	FileID       uuid.UUID             `json:"fileId"`
	FileName     string                `json:"fileName"`
	Columns      []string              `json:"columns"`
	ColumnTypes  map[string]ColumnType `json:"columnTypes"`
	SampleValues map[string][]string   `json:"sampleValues"`
	RowCount     int                   `json:"rowCount"`
}

// ToSchema derives the agent-facing projection.
func (f *UploadedFile) ToSchema() FileSchema {
	samples := f.SampleValues
	if samples == nil {
		samples = map[string][]string{}
	}
	return FileSchema{
		FileID:       f.ID,
		FileName:     f.FileName,
		Columns:      f.Columns,
		ColumnTypes:  f.ColumnTypes,
		SampleValues: samples,
		RowCount:     f.RowCount,
	}
}
