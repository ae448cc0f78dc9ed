package services

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/lubobali/mergeAI/pkg/apperrors"
	"github.com/lubobali/mergeAI/pkg/audit"
	"github.com/lubobali/mergeAI/pkg/models"
	"github.com/lubobali/mergeAI/pkg/repositories"
	"github.com/lubobali/mergeAI/pkg/sqlguard"
)

// QueryPipeline runs one question through the agent rounds. Satisfied by
// agents.Pipeline; an interface here so service tests can fake the pipeline.
type QueryPipeline interface {
	Run(ctx context.Context, userID, question string, schemas []models.FileSchema, contextInfo *models.ConversationContext, emit models.EventSink) *models.QueryResult
}

// QueryService validates query requests, resolves the identity's visible
// file set into agent schemas, and invokes the pipeline.
type QueryService struct {
	files    repositories.FileRepository
	pipeline QueryPipeline
	auditor  *audit.SecurityAuditor
	logger   *zap.Logger
}

// NewQueryService creates a query service.
func NewQueryService(files repositories.FileRepository, pipeline QueryPipeline, auditor *audit.SecurityAuditor, logger *zap.Logger) *QueryService {
	return &QueryService{files: files, pipeline: pipeline, auditor: auditor, logger: logger}
}

// Run executes one query. Input errors come back before any event is
// emitted; once the pipeline starts, failures surface through the event
// stream and the terminal result instead.
func (s *QueryService) Run(ctx context.Context, userID, clientIP, question string, contextInfo *models.ConversationContext, emit models.EventSink) (*models.QueryResult, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, apperrors.ErrMissingQuestion
	}

	// Advisory scan: injection probing in free text is logged, never
	// blocked. The safety gate on generated SQL is the enforcement point.
	s.auditor.LogInjectionAttempt(userID, clientIP, sqlguard.CheckTextForInjection("question", question))
	if contextInfo != nil {
		s.auditor.LogInjectionAttempt(userID, clientIP, sqlguard.CheckTextForInjection("previousQuestion", contextInfo.PreviousQuestion))
	}

	files, err := s.files.ListVisible(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, apperrors.ErrNoFilesAvailable
	}

	schemas := make([]models.FileSchema, len(files))
	for i, f := range files {
		schemas[i] = f.ToSchema()
	}

	s.logger.Info("query started",
		zap.String("user_id", userID),
		zap.Int("files", len(schemas)),
		zap.Bool("follow_up", contextInfo != nil))

	result := s.pipeline.Run(ctx, userID, question, schemas, contextInfo, emit)

	s.logger.Info("query finished",
		zap.String("user_id", userID),
		zap.Int("rounds", result.Rounds),
		zap.Int("row_count", result.RowCount),
		zap.Int64("timing_ms", result.TimingMS))
	return result, nil
}
