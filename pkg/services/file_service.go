package services

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lubobali/mergeAI/pkg/apperrors"
	"github.com/lubobali/mergeAI/pkg/models"
	"github.com/lubobali/mergeAI/pkg/repositories"
	"github.com/lubobali/mergeAI/pkg/schemainfer"
)

// previewRowLimit is how many rows the file preview endpoint returns.
const previewRowLimit = 20

// FileService manages the identity's visible file set: listing with join
// detection, previews, deletion, and query suggestions.
type FileService struct {
	files  repositories.FileRepository
	rows   repositories.RowRepository
	logger *zap.Logger
}

// NewFileService creates a file service.
func NewFileService(files repositories.FileRepository, rows repositories.RowRepository, logger *zap.Logger) *FileService {
	return &FileService{files: files, rows: rows, logger: logger}
}

// FileListing is the visible file set plus the join graph detected over it.
type FileListing struct {
	Files []*models.UploadedFile     `json:"files"`
	Joins []schemainfer.DetectedJoin `json:"joins"`
}

// List returns the user's visible files and the joins detected between them.
func (s *FileService) List(ctx context.Context, userID string) (*FileListing, error) {
	files, err := s.files.ListVisible(ctx, userID)
	if err != nil {
		return nil, err
	}

	inputs := make([]schemainfer.FileColumns, len(files))
	for i, f := range files {
		inputs[i] = schemainfer.FileColumns{
			ID:       f.ID.String(),
			FileName: f.FileName,
			Columns:  f.Columns,
		}
	}

	return &FileListing{
		Files: files,
		Joins: schemainfer.DetectJoins(inputs),
	}, nil
}

// Preview returns a file's first rows. Only visible files can be previewed.
func (s *FileService) Preview(ctx context.Context, userID string, fileID uuid.UUID) ([]map[string]any, error) {
	file, err := s.files.Get(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if file.UserID != userID && !file.IsDemo {
		return nil, apperrors.ErrNotFound
	}
	return s.rows.Preview(ctx, fileID, previewRowLimit)
}

// Delete removes an owned file. Demo files are protected at the repository
// level.
func (s *FileService) Delete(ctx context.Context, userID string, fileID uuid.UUID) error {
	if err := s.files.Delete(ctx, fileID, userID); err != nil {
		return err
	}
	s.logger.Info("file deleted",
		zap.String("user_id", userID),
		zap.String("file_id", fileID.String()))
	return nil
}

// Suggestions generates clickable query suggestions over the visible file
// set, cross-file suggestions first.
func (s *FileService) Suggestions(ctx context.Context, userID string) ([]schemainfer.SuggestedQuery, error) {
	files, err := s.files.ListVisible(ctx, userID)
	if err != nil {
		return nil, err
	}

	joinInputs := make([]schemainfer.FileColumns, len(files))
	suggestionInputs := make([]schemainfer.SuggestionInput, len(files))
	for i, f := range files {
		joinInputs[i] = schemainfer.FileColumns{
			ID:       f.ID.String(),
			FileName: f.FileName,
			Columns:  f.Columns,
		}
		suggestionInputs[i] = schemainfer.SuggestionInput{
			ID:          f.ID.String(),
			FileName:    f.FileName,
			Columns:     f.Columns,
			ColumnTypes: f.ColumnTypes,
		}
	}

	return schemainfer.GenerateSuggestions(suggestionInputs, schemainfer.DetectJoins(joinInputs)), nil
}
