package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/webagent/webagent/internal/auth"
	"github.com/webagent/webagent/internal/handler/dto"
	"github.com/webagent/webagent/internal/imaging"
	"github.com/webagent/webagent/internal/service"
)

const analysisSuccessMessage = "Image analyzed successfully. Use this description to generate website code."

// multipartOverhead covers boundaries and part headers around the file.
const multipartOverhead = 64 << 10

// ImageAnalyzer describes uploaded screenshots. Implemented by *service.ImageService.
type ImageAnalyzer interface {
	Analyze(ctx context.Context, userID string, upload service.Upload) (*service.Analysis, error)
	MaxSize() int64
}

// ImageHandler handles screenshot uploads.
type ImageHandler struct {
	svc    ImageAnalyzer
	logger *slog.Logger
}

// NewImageHandler creates a new ImageHandler.
func NewImageHandler(svc ImageAnalyzer, logger *slog.Logger) *ImageHandler {
	return &ImageHandler{
		svc:    svc,
		logger: logger,
	}
}

// Analyze handles POST /api/analyze-image. The image is sent as the
// "file" field of a multipart form.
func (h *ImageHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	maxSize := h.svc.MaxSize()
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+multipartOverhead)

	if err := r.ParseMultipartForm(maxSize + multipartOverhead); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusBadRequest, "FILE_TOO_LARGE", tooLargeMessage(maxSize))
			return
		}
		writeError(w, http.StatusBadRequest, "INVALID_FORM", "Expected a multipart form with a file field")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "FILE_REQUIRED", "File is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxSize+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_FORM", "Could not read uploaded file")
		return
	}

	analysis, err := h.svc.Analyze(r.Context(), auth.UserIDFromContext(r.Context()), service.Upload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	})
	if err != nil {
		h.handleServiceError(w, r, err, maxSize)
		return
	}

	writeJSON(w, http.StatusOK, dto.AnalysisResponse{
		Success:         true,
		Description:     analysis.Description,
		Filename:        analysis.Filename,
		FileSize:        analysis.FileSize,
		ImageDimensions: analysis.Dimensions,
		Message:         analysisSuccessMessage,
	})
}

func tooLargeMessage(maxSize int64) string {
	return fmt.Sprintf("File size too large. Maximum size: %dMB", maxSize>>20)
}

// handleServiceError maps service errors to HTTP responses.
func (h *ImageHandler) handleServiceError(w http.ResponseWriter, r *http.Request, err error, maxSize int64) {
	switch {
	case errors.Is(err, imaging.ErrUnsupportedType):
		writeError(w, http.StatusBadRequest, "INVALID_FILE_TYPE",
			"Invalid file type. Allowed types: "+strings.Join(imaging.AllowedContentTypes, ", "))
	case errors.Is(err, imaging.ErrTooLarge):
		writeError(w, http.StatusBadRequest, "FILE_TOO_LARGE", tooLargeMessage(maxSize))
	case errors.Is(err, imaging.ErrInvalidImage):
		writeError(w, http.StatusBadRequest, "INVALID_IMAGE", "Invalid image file or unsupported format")
	case errors.Is(err, service.ErrMissingAPIKey):
		writeError(w, http.StatusInternalServerError, "MISSING_API_KEY", "API key not found for user.")
	case errors.Is(err, service.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "USER_NOT_FOUND", "User not found")
	case errors.Is(err, service.ErrAnalysisFailed):
		h.logger.Warn("image_analysis_failed",
			"user_id", auth.UserIDFromContext(r.Context()),
			"error", err,
		)
		writeError(w, http.StatusInternalServerError, upstreamCode(err), "Error analyzing image: "+upstreamMessage(err))
	default:
		h.logger.Error("image_request_failed",
			"user_id", auth.UserIDFromContext(r.Context()),
			"error", err,
		)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error during image analysis")
	}
}
