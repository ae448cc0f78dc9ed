package apperrors

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrMissingQuestion  = errors.New("missing question")
	ErrNoFilesAvailable = errors.New("no data files available")
	ErrDemoFileDelete   = errors.New("demo files cannot be deleted")
	ErrInvalidCSV       = errors.New("invalid CSV file")

	// Safety gate rejections. Each rule produces its own sentinel so callers
	// and tests can tell rejection reasons apart.
	ErrNotReadQuery   = errors.New("only SELECT queries are allowed")
	ErrMultiStatement = errors.New("multi-statement queries are not allowed")
	ErrBlockedKeyword = errors.New("blocked SQL keyword")

	// ErrQueryTimeout is raised when raw execution exceeds the wall-clock
	// budget. Distinguished from the driver's context error so the pipeline
	// can report it as a retryable round failure.
	ErrQueryTimeout = errors.New("query timed out")
)
