package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lubobali/mergeAI/pkg/apperrors"
	"github.com/lubobali/mergeAI/pkg/middleware"
	"github.com/lubobali/mergeAI/pkg/models"
	"github.com/lubobali/mergeAI/pkg/services"
)

// maxUploadBytes caps CSV upload size. Rows are stored individually as
// JSONB, so a runaway upload is a database problem, not just a bandwidth
// one.
const maxUploadBytes = 20 << 20

// FileIngester parses and stores an uploaded CSV. Satisfied by
// services.IngestService.
type FileIngester interface {
	Upload(ctx context.Context, userID, fileName string, r io.Reader) (*models.UploadedFile, error)
}

// FileManager serves the identity's visible file set. Satisfied by
// services.FileService.
type FileManager interface {
	List(ctx context.Context, userID string) (*services.FileListing, error)
	Preview(ctx context.Context, userID string, fileID uuid.UUID) ([]map[string]any, error)
	Delete(ctx context.Context, userID string, fileID uuid.UUID) error
}

// FilesHandler handles CSV upload and file management endpoints.
type FilesHandler struct {
	ingest     FileIngester
	files      FileManager
	demoUserID string
	logger     *zap.Logger
}

// NewFilesHandler creates a new FilesHandler.
func NewFilesHandler(ingest FileIngester, files FileManager, demoUserID string, logger *zap.Logger) *FilesHandler {
	return &FilesHandler{ingest: ingest, files: files, demoUserID: demoUserID, logger: logger}
}

// RegisterRoutes registers the file handler's routes on the given mux.
func (h *FilesHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/upload", h.Upload)
	mux.HandleFunc("GET /api/files", h.List)
	mux.HandleFunc("DELETE /api/files/{id}", h.Delete)
	mux.HandleFunc("GET /api/files/{id}/preview", h.Preview)
}

// Upload handles POST /api/upload (multipart form, field "file").
// The demo identity is read-only and cannot upload.
func (h *FilesHandler) Upload(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())

	if userID == h.demoUserID {
		if err := ErrorResponse(w, http.StatusForbidden, "demo_upload_forbidden", "Sign up to upload your own files"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Multipart field 'file' is required"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}
	defer file.Close()

	uploaded, err := h.ingest.Upload(r.Context(), userID, header.Filename, file)
	if err != nil {
		if errors.Is(err, apperrors.ErrInvalidCSV) {
			if err := ErrorResponse(w, http.StatusBadRequest, "invalid_csv", err.Error()); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return
		}
		h.logger.Error("Upload failed",
			zap.String("user_id", userID),
			zap.String("file_name", header.Filename),
			zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "upload_failed", "Failed to store file"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusCreated, ApiResponse{Success: true, Data: uploaded}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// List handles GET /api/files.
// Returns the identity's uploads plus demo files, with the detected join
// graph.
func (h *FilesHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())

	listing, err := h.files.List(r.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to list files",
			zap.String("user_id", userID),
			zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "list_failed", "Failed to list files"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: listing}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Delete handles DELETE /api/files/{id}.
// Demo files cannot be deleted; files owned by others read as not found.
func (h *FilesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())

	fileID, ok := parseFileID(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.files.Delete(r.Context(), userID, fileID); err != nil {
		switch {
		case errors.Is(err, apperrors.ErrDemoFileDelete):
			if err := ErrorResponse(w, http.StatusForbidden, "demo_file", "Cannot delete demo files"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
		case errors.Is(err, apperrors.ErrNotFound):
			if err := ErrorResponse(w, http.StatusNotFound, "not_found", "File not found"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
		default:
			h.logger.Error("Failed to delete file",
				zap.String("user_id", userID),
				zap.String("file_id", fileID.String()),
				zap.Error(err))
			if err := ErrorResponse(w, http.StatusInternalServerError, "delete_failed", "Failed to delete file"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Preview handles GET /api/files/{id}/preview.
func (h *FilesHandler) Preview(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())

	fileID, ok := parseFileID(w, r, h.logger)
	if !ok {
		return
	}

	rows, err := h.files.Preview(r.Context(), userID, fileID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			if err := ErrorResponse(w, http.StatusNotFound, "not_found", "File not found"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return
		}
		h.logger.Error("Failed to preview file",
			zap.String("user_id", userID),
			zap.String("file_id", fileID.String()),
			zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "preview_failed", "Failed to preview file"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: rows}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// parseFileID extracts and validates the {id} path value. Writes the error
// response itself and returns ok=false on failure.
func parseFileID(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (uuid.UUID, bool) {
	fileID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_file_id", "File ID must be a valid UUID"); err != nil {
			logger.Error("Failed to write error response", zap.Error(err))
		}
		return uuid.Nil, false
	}
	return fileID, true
}
