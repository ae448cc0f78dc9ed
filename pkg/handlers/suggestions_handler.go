package handlers

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/lubobali/mergeAI/pkg/middleware"
	"github.com/lubobali/mergeAI/pkg/schemainfer"
)

// SuggestionSource generates clickable query suggestions over the visible
// file set. Satisfied by services.FileService.
type SuggestionSource interface {
	Suggestions(ctx context.Context, userID string) ([]schemainfer.SuggestedQuery, error)
}

// SuggestionsHandler serves generated query suggestions.
type SuggestionsHandler struct {
	source SuggestionSource
	logger *zap.Logger
}

// NewSuggestionsHandler creates a new SuggestionsHandler.
func NewSuggestionsHandler(source SuggestionSource, logger *zap.Logger) *SuggestionsHandler {
	return &SuggestionsHandler{source: source, logger: logger}
}

// RegisterRoutes registers the suggestions route on the given mux.
func (h *SuggestionsHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/suggestions", h.Suggestions)
}

// Suggestions handles GET /api/suggestions.
// Cross-file suggestions sort first; an empty file set yields an empty list.
func (h *SuggestionsHandler) Suggestions(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())

	suggestions, err := h.source.Suggestions(r.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to generate suggestions",
			zap.String("user_id", userID),
			zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "suggestions_failed", "Failed to generate suggestions"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}
	if suggestions == nil {
		suggestions = []schemainfer.SuggestedQuery{}
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: suggestions}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
