package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/lubobali/mergeAI/pkg/apperrors"
	"github.com/lubobali/mergeAI/pkg/middleware"
	"github.com/lubobali/mergeAI/pkg/models"
)

// QueryRunner executes one question end to end while emitting progress
// events. Satisfied by services.QueryService.
type QueryRunner interface {
	Run(ctx context.Context, userID, clientIP, question string, contextInfo *models.ConversationContext, emit models.EventSink) (*models.QueryResult, error)
}

// QueryRequest is the POST /api/query body. Context is the caller-retained
// previous turn for follow-up questions.
type QueryRequest struct {
	Question string                      `json:"question"`
	Context  *models.ConversationContext `json:"context,omitempty"`
}

// resultFrame is the terminal SSE frame carrying the full query result.
type resultFrame struct {
	Type string              `json:"type"`
	Data *models.QueryResult `json:"data"`
}

// QueryHandler streams agent pipeline progress over Server-Sent Events.
type QueryHandler struct {
	queries QueryRunner
	logger  *zap.Logger
}

// NewQueryHandler creates a new QueryHandler.
func NewQueryHandler(queries QueryRunner, logger *zap.Logger) *QueryHandler {
	return &QueryHandler{queries: queries, logger: logger}
}

// RegisterRoutes registers the query handler's routes on the given mux.
func (h *QueryHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/query", h.Query)
}

type runOutcome struct {
	result *models.QueryResult
	err    error
}

// Query handles POST /api/query.
// Progress events stream as SSE frames in emission order; the stream ends
// with a {"type":"result"} frame carrying the full result. Input errors are
// rejected with a JSON error before any frame is written.
func (h *QueryHandler) Query(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())
	clientIP := middleware.ClientIP(r)

	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	eventChan := make(chan models.AgentEvent, 100)
	doneChan := make(chan runOutcome, 1)

	// Run the pipeline in the background; events arrive on eventChan while
	// it runs. Input errors return before the first event is emitted, so
	// the response mode (JSON error vs SSE stream) is decided by whichever
	// arrives first.
	go func() {
		defer close(eventChan)
		result, err := h.queries.Run(r.Context(), userID, clientIP, req.Question, req.Context, func(event models.AgentEvent) {
			eventChan <- event
		})
		doneChan <- runOutcome{result: result, err: err}
	}()

	var flusher http.Flusher
	streaming := false

	for event := range eventChan {
		if !streaming {
			var ok bool
			flusher, ok = h.startStream(w)
			if !ok {
				return
			}
			streaming = true
		}
		h.writeFrame(w, flusher, event)
	}

	outcome := <-doneChan
	if outcome.err != nil {
		if streaming {
			// The stream is already open; surface the failure in-band.
			h.writeFrame(w, flusher, models.NewQueryErrorEvent(outcome.err.Error()))
			return
		}
		status, code := classifyQueryError(outcome.err)
		h.logger.Error("Query request failed",
			zap.String("user_id", userID),
			zap.Error(outcome.err))
		if err := ErrorResponse(w, status, code, outcome.err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if !streaming {
		flusher, streaming = h.startStream(w)
		if !streaming {
			return
		}
	}
	h.writeFrame(w, flusher, resultFrame{Type: "result", Data: outcome.result})
}

// startStream sets SSE headers and returns the flusher. Headers can only be
// sent once, so this runs lazily before the first frame.
func (h *QueryHandler) startStream(w http.ResponseWriter) (http.Flusher, bool) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	flusher, ok := w.(http.Flusher)
	if !ok {
		h.logger.Error("SSE not supported")
		if err := ErrorResponse(w, http.StatusInternalServerError, "sse_unsupported", "SSE not supported"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return nil, false
	}
	return flusher, true
}

func (h *QueryHandler) writeFrame(w http.ResponseWriter, flusher http.Flusher, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("Failed to marshal event", zap.Error(err))
		return
	}
	fmt.Fprintf(w, "data: %s\n\n", data)
	flusher.Flush()
}

func classifyQueryError(err error) (status int, code string) {
	switch {
	case errors.Is(err, apperrors.ErrMissingQuestion):
		return http.StatusBadRequest, "missing_question"
	case errors.Is(err, apperrors.ErrNoFilesAvailable):
		return http.StatusBadRequest, "no_files"
	default:
		return http.StatusInternalServerError, "query_failed"
	}
}
