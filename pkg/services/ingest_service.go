// Package services contains the business logic between HTTP handlers and
// repositories: CSV ingestion, file management with suggestions, and query
// pipeline invocation.
package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/lubobali/mergeAI/pkg/apperrors"
	"github.com/lubobali/mergeAI/pkg/models"
	"github.com/lubobali/mergeAI/pkg/repositories"
)

// typeInferenceSampleSize caps how many rows type inference looks at.
const typeInferenceSampleSize = 50

// sampleValuesPerColumn is how many example values are kept per column for
// agent prompts.
const sampleValuesPerColumn = 3

// dateLayouts are the formats a column must parse as to be typed as date.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02T15:04:05Z07:00",
	"01/02/2006",
	"1/2/2006",
	"2006-01",
}

// IngestService parses uploaded CSV files and stores them.
type IngestService struct {
	files  repositories.FileRepository
	rows   repositories.RowRepository
	logger *zap.Logger
}

// NewIngestService creates an ingest service.
func NewIngestService(files repositories.FileRepository, rows repositories.RowRepository, logger *zap.Logger) *IngestService {
	return &IngestService{files: files, rows: rows, logger: logger}
}

// ParsedFile is the outcome of parsing one CSV stream.
type ParsedFile struct {
	Columns      []string
	ColumnTypes  map[string]models.ColumnType
	SampleValues map[string][]string
	Rows         []map[string]any
}

// ParseCSV reads a CSV stream into rows keyed by header name, inferring a
// logical type and collecting sample values per column.
func ParseCSV(r io.Reader) (*ParsedFile, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	if len(header) == 0 {
		return nil, fmt.Errorf("CSV has no columns")
	}
	// Spreadsheet exports often lead with a UTF-8 BOM.
	header[0] = strings.TrimPrefix(header[0], "\uFEFF")
	columns := make([]string, len(header))
	for i, h := range header {
		columns[i] = strings.TrimSpace(h)
	}

	var rows []map[string]any
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV row %d: %w", len(rows)+2, err)
		}
		row := make(map[string]any, len(columns))
		for i, col := range columns {
			if i < len(record) {
				row[col] = record[i]
			} else {
				row[col] = ""
			}
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("CSV has no data rows")
	}

	return &ParsedFile{
		Columns:      columns,
		ColumnTypes:  inferColumnTypes(columns, rows),
		SampleValues: collectSampleValues(columns, rows),
		Rows:         rows,
	}, nil
}

// Upload parses and stores one CSV file for a user. Returns the stored file
// record with its generated ID.
func (s *IngestService) Upload(ctx context.Context, userID, fileName string, r io.Reader) (*models.UploadedFile, error) {
	parsed, err := ParseCSV(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrInvalidCSV, err)
	}

	file := &models.UploadedFile{
		UserID:       userID,
		FileName:     fileName,
		Columns:      parsed.Columns,
		ColumnTypes:  parsed.ColumnTypes,
		SampleValues: parsed.SampleValues,
		RowCount:     len(parsed.Rows),
	}
	if err := s.files.Create(ctx, file); err != nil {
		return nil, err
	}
	if err := s.rows.BatchInsert(ctx, file.ID, userID, parsed.Rows); err != nil {
		return nil, fmt.Errorf("failed to store rows for %s: %w", fileName, err)
	}

	s.logger.Info("file ingested",
		zap.String("file_id", file.ID.String()),
		zap.String("file_name", fileName),
		zap.Int("rows", file.RowCount),
		zap.Int("columns", len(file.Columns)))
	return file, nil
}

// inferColumnTypes samples up to typeInferenceSampleSize rows per column. A
// column types as number or date only when every sampled non-empty value
// parses; anything mixed is text.
func inferColumnTypes(columns []string, rows []map[string]any) map[string]models.ColumnType {
	sample := rows
	if len(sample) > typeInferenceSampleSize {
		sample = sample[:typeInferenceSampleSize]
	}

	types := make(map[string]models.ColumnType, len(columns))
	for _, col := range columns {
		types[col] = inferColumnType(col, sample)
	}
	return types
}

func inferColumnType(col string, sample []map[string]any) models.ColumnType {
	seen := 0
	numbers := 0
	dates := 0
	for _, row := range sample {
		v, _ := row[col].(string)
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		seen++
		if isNumericString(v) {
			numbers++
		} else if isDateString(v) {
			dates++
		}
	}
	switch {
	case seen == 0:
		return models.ColumnTypeText
	case numbers == seen:
		return models.ColumnTypeNumber
	case dates == seen:
		return models.ColumnTypeDate
	default:
		return models.ColumnTypeText
	}
}

func isNumericString(v string) bool {
	cleaned := strings.ReplaceAll(v, ",", "")
	cleaned = strings.TrimPrefix(cleaned, "$")
	_, err := strconv.ParseFloat(cleaned, 64)
	return err == nil
}

func isDateString(v string) bool {
	for _, layout := range dateLayouts {
		if _, err := time.Parse(layout, v); err == nil {
			return true
		}
	}
	return false
}

// collectSampleValues keeps the first few non-empty values per column.
func collectSampleValues(columns []string, rows []map[string]any) map[string][]string {
	samples := make(map[string][]string, len(columns))
	for _, col := range columns {
		var values []string
		for _, row := range rows {
			v, _ := row[col].(string)
			v = strings.TrimSpace(v)
			if v == "" {
				continue
			}
			values = append(values, v)
			if len(values) == sampleValuesPerColumn {
				break
			}
		}
		samples[col] = values
	}
	return samples
}
