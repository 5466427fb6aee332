package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/webagent/webagent/internal/auth"
	"github.com/webagent/webagent/internal/handler/dto"
	"github.com/webagent/webagent/internal/metrics"
	"github.com/webagent/webagent/internal/prompt"
	"github.com/webagent/webagent/internal/service"
)

// streamErrorPrefix precedes the error text appended to a broken stream.
const streamErrorPrefix = "\n[ERROR]: Stream interrupted - "

// Generator opens generation streams. Implemented by *service.GeneratorService.
type Generator interface {
	Generate(ctx context.Context, userID string, input prompt.GenerateInput) (*service.Generation, error)
	GenerateWebsite(ctx context.Context, userID, description string) (*service.Generation, error)
}

// GenerateHandler relays generated HTML to the client as it arrives.
type GenerateHandler struct {
	svc     Generator
	metrics metrics.Recorder
	logger  *slog.Logger
}

// NewGenerateHandler creates a new GenerateHandler.
func NewGenerateHandler(svc Generator, recorder metrics.Recorder, logger *slog.Logger) *GenerateHandler {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &GenerateHandler{
		svc:     svc,
		metrics: recorder,
		logger:  logger,
	}
}

// Generate handles POST /api/generate.
func (h *GenerateHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req dto.GenerateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	gen, err := h.svc.Generate(r.Context(), auth.UserIDFromContext(r.Context()), prompt.GenerateInput{
		Prompt:         req.Prompt,
		PreviousHTML:   req.PreviousHTML,
		PreviousPrompt: req.PreviousPrompt,
	})
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.relay(w, r, gen)
}

// Website handles POST /api/generate-website.
func (h *GenerateHandler) Website(w http.ResponseWriter, r *http.Request) {
	var req dto.WebsiteRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	gen, err := h.svc.GenerateWebsite(r.Context(), auth.UserIDFromContext(r.Context()), req.Description)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.relay(w, r, gen)
}

// relay copies stream tokens to the client, flushing after each one.
// Once the status line is sent failures can only be reported in-band.
func (h *GenerateHandler) relay(w http.ResponseWriter, r *http.Request, gen *service.Generation) {
	defer gen.Stream.Close()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	rc := http.NewResponseController(w)
	_ = rc.Flush()

	start := time.Now()
	var written int64
	userID := auth.UserIDFromContext(r.Context())

	for gen.Stream.Next() {
		n, err := io.WriteString(w, gen.Stream.Text())
		written += int64(n)
		if err == nil {
			err = rc.Flush()
		}
		if err != nil {
			h.logger.Info("client_disconnected",
				"user_id", userID,
				"kind", gen.Kind,
				"bytes", written,
			)
			h.metrics.ObserveStream(gen.Kind, written, time.Since(start))
			return
		}
	}

	if err := gen.Stream.Err(); err != nil {
		if r.Context().Err() != nil {
			h.logger.Info("client_disconnected",
				"user_id", userID,
				"kind", gen.Kind,
				"bytes", written,
			)
		} else {
			h.metrics.IncStreamError(gen.Kind)
			h.logger.Error("stream_interrupted",
				"user_id", userID,
				"kind", gen.Kind,
				"bytes", written,
				"error", err,
			)
			n, _ := io.WriteString(w, streamErrorPrefix+err.Error())
			written += int64(n)
			_ = rc.Flush()
		}
	}

	duration := time.Since(start)
	h.metrics.ObserveStream(gen.Kind, written, duration)
	h.logger.Info("generation_finished",
		"user_id", userID,
		"kind", gen.Kind,
		"bytes", written,
		"duration_ms", duration.Milliseconds(),
	)
}

// handleServiceError maps service errors to HTTP responses.
func (h *GenerateHandler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrPromptRequired):
		writeError(w, http.StatusBadRequest, "PROMPT_REQUIRED", "Prompt is required")
	case errors.Is(err, service.ErrDescriptionRequired):
		writeError(w, http.StatusBadRequest, "DESCRIPTION_REQUIRED", "Description is required")
	case errors.Is(err, service.ErrMissingAPIKey):
		writeError(w, http.StatusInternalServerError, "MISSING_API_KEY", "API key not found for user.")
	case errors.Is(err, service.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "USER_NOT_FOUND", "User not found")
	default:
		if isUpstreamError(err) {
			h.logger.Warn("generation_rejected",
				"user_id", auth.UserIDFromContext(r.Context()),
				"error", err,
			)
			writeError(w, http.StatusInternalServerError, upstreamCode(err), upstreamMessage(err))
			return
		}
		h.logger.Error("generation_failed",
			"user_id", auth.UserIDFromContext(r.Context()),
			"error", err,
		)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
	}
}
