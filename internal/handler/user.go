package handler

import (
	"context"
	"errors"
	"log/slog"
	"mime"
	"net/http"

	"github.com/webagent/webagent/internal/auth"
	"github.com/webagent/webagent/internal/handler/dto"
	"github.com/webagent/webagent/internal/model"
	"github.com/webagent/webagent/internal/service"
)

// UserAccounts is the account API served by *service.UserService.
type UserAccounts interface {
	Register(ctx context.Context, input service.RegisterInput) (*model.User, error)
	Login(ctx context.Context, name, password string) (*auth.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*auth.TokenPair, error)
	Me(ctx context.Context, userID string) (*model.UserProfile, error)
	UpdateAPIKey(ctx context.Context, input service.UpdateAPIKeyInput) (*model.UserProfile, error)
}

// UserHandler handles HTTP requests for accounts and sessions.
type UserHandler struct {
	svc    UserAccounts
	logger *slog.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(svc UserAccounts, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		svc:    svc,
		logger: logger,
	}
}

// Register handles POST /api/users/register.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.svc.Register(r.Context(), service.RegisterInput{
		Name:     req.Name,
		Password: req.Password,
		APIKey:   req.APIKey,
	})
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.logger.Info("user_registered", "user_id", user.ID)

	writeJSON(w, http.StatusCreated, dto.ToUserResponse(user.Profile()))
}

// Login handles POST /api/users/login. Credentials arrive as an urlencoded
// or multipart form with username and password, or as a JSON object.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/json":
		if !decodeJSON(w, r, &req) {
			return
		}
	case "multipart/form-data":
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			writeFormError(w, err)
			return
		}
		req.Username = r.PostFormValue("username")
		req.Password = r.PostFormValue("password")
	default:
		if err := r.ParseForm(); err != nil {
			writeFormError(w, err)
			return
		}
		req.Username = r.PostFormValue("username")
		req.Password = r.PostFormValue("password")
	}

	pair, err := h.svc.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, pair)
}

// writeFormError maps a form parse failure to 413 when the body limit was hit
// and 400 otherwise.
func writeFormError(w http.ResponseWriter, err error) {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		writeError(w, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "Request body too large")
		return
	}
	writeError(w, http.StatusBadRequest, "INVALID_FORM", "Invalid form body")
}

// Refresh handles POST /api/users/refresh.
func (h *UserHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req dto.RefreshRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.RefreshToken == "" {
		writeError(w, http.StatusBadRequest, "REFRESH_TOKEN_REQUIRED", "Refresh token is required")
		return
	}

	pair, err := h.svc.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, pair)
}

// Me handles GET /api/users/me.
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	profile, err := h.svc.Me(r.Context(), auth.UserIDFromContext(r.Context()))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToUserResponse(profile))
}

// UpdateAPIKey handles POST /api/users/update-api-key.
func (h *UserHandler) UpdateAPIKey(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateAPIKeyRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	profile, err := h.svc.UpdateAPIKey(r.Context(), service.UpdateAPIKeyInput{
		UserID:          auth.UserIDFromContext(r.Context()),
		NewAPIKey:       req.NewAPIKey,
		CurrentPassword: req.CurrentPassword,
	})
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.logger.Info("api_key_updated", "user_id", profile.ID)

	writeJSON(w, http.StatusOK, dto.ToUserResponse(profile))
}

// handleServiceError maps service errors to HTTP responses.
func (h *UserHandler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	if writeValidationError(w, err) {
		return
	}

	switch {
	case errors.Is(err, service.ErrUserNameTaken):
		writeError(w, http.StatusBadRequest, "USERNAME_TAKEN", "Username already registered")
	case errors.Is(err, service.ErrInvalidCredentials):
		w.Header().Set("WWW-Authenticate", "Bearer")
		writeError(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Incorrect username or password")
	case errors.Is(err, service.ErrInvalidRefreshToken), errors.Is(err, service.ErrRefreshTokenReused):
		writeError(w, http.StatusUnauthorized, "INVALID_REFRESH_TOKEN", "Invalid refresh token")
	case errors.Is(err, service.ErrIncorrectPassword):
		writeError(w, http.StatusUnauthorized, "INCORRECT_PASSWORD", "Incorrect current password")
	case errors.Is(err, service.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "USER_NOT_FOUND", "User not found")
	default:
		h.logger.Error("user_request_failed",
			"path", r.URL.Path,
			"error", err,
		)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
	}
}
