package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/webagent/webagent/internal/auth"
	"github.com/webagent/webagent/internal/metrics"
	"github.com/webagent/webagent/internal/model"
	"github.com/webagent/webagent/internal/repository"
)

// UserService handles accounts and sessions.
type UserService struct {
	users    UserStore
	profiles ProfileCache
	ledger   RefreshLedger
	tokens   *auth.TokenIssuer
	metrics  metrics.Recorder
	logger   *slog.Logger
}

// NewUserService creates a new UserService. profiles and ledger may be nil,
// which disables profile caching and refresh token rotation.
func NewUserService(
	users UserStore,
	profiles ProfileCache,
	ledger RefreshLedger,
	tokens *auth.TokenIssuer,
	recorder metrics.Recorder,
	logger *slog.Logger,
) *UserService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &UserService{
		users:    users,
		profiles: profiles,
		ledger:   ledger,
		tokens:   tokens,
		metrics:  recorder,
		logger:   logger,
	}
}

// RegisterInput defines input for creating an account.
type RegisterInput struct {
	Name     string
	Password string
	APIKey   string
}

// Register creates a user with a hashed password.
func (s *UserService) Register(ctx context.Context, input RegisterInput) (*model.User, error) {
	name := strings.TrimSpace(input.Name)
	apiKey := strings.TrimSpace(input.APIKey)

	if err := ValidateUserName(name); err != nil {
		return nil, err
	}
	if err := ValidatePassword(input.Password); err != nil {
		return nil, err
	}
	if err := ValidateAPIKey(apiKey); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		Name:         name,
		PasswordHash: hash,
		APIKey:       apiKey,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrUserNameExists) {
			return nil, ErrUserNameTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.metrics.IncUserRegistered()
	return user, nil
}

// Login checks credentials and issues a token pair. Unknown users and wrong
// passwords fail identically and take the same time.
func (s *UserService) Login(ctx context.Context, name, password string) (*auth.TokenPair, error) {
	name = strings.TrimSpace(name)
	if name == "" || password == "" {
		s.metrics.IncLogin(metrics.StatusRejected)
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.GetUserByName(ctx, name)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			auth.VerifyDummy(password)
			s.metrics.IncLogin(metrics.StatusRejected)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	ok, err := auth.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verify password for user %s: %w", user.ID, err)
	}
	if !ok {
		s.metrics.IncLogin(metrics.StatusRejected)
		return nil, ErrInvalidCredentials
	}

	pair, err := s.tokens.IssuePair(user.ID)
	if err != nil {
		return nil, fmt.Errorf("issue tokens: %w", err)
	}

	s.metrics.IncLogin(metrics.StatusSuccess)
	return pair, nil
}

// Refresh exchanges a refresh token for a new pair. With a ledger configured
// each refresh token is accepted once.
func (s *UserService) Refresh(ctx context.Context, refreshToken string) (*auth.TokenPair, error) {
	claims, err := s.tokens.Parse(refreshToken, auth.TokenTypeRefresh)
	if err != nil {
		s.metrics.IncTokenRefresh(metrics.StatusRejected)
		return nil, fmt.Errorf("%w: %v", ErrInvalidRefreshToken, err)
	}

	if _, err := s.users.GetUserByID(ctx, claims.Subject); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			s.metrics.IncTokenRefresh(metrics.StatusRejected)
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	if err := s.consume(ctx, claims); err != nil {
		s.metrics.IncTokenRefresh(metrics.StatusRejected)
		return nil, err
	}

	pair, err := s.tokens.IssuePair(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("issue tokens: %w", err)
	}

	s.metrics.IncTokenRefresh(metrics.StatusSuccess)
	return pair, nil
}

// consume marks the refresh token as spent. Ledger outages fail open so a
// Redis restart does not log everybody out.
func (s *UserService) consume(ctx context.Context, claims *auth.Claims) error {
	if s.ledger == nil || claims.ID == "" {
		return nil
	}

	ttl := s.tokens.RefreshTTL()
	if claims.ExpiresAt != nil {
		ttl = time.Until(claims.ExpiresAt.Time)
	}

	first, err := s.ledger.ConsumeRefreshToken(ctx, claims.ID, ttl)
	if err != nil {
		s.logger.Warn("refresh_ledger_unavailable",
			"user_id", claims.Subject,
			"error", err,
		)
		return nil
	}
	if !first {
		s.logger.Warn("refresh_token_reused",
			"user_id", claims.Subject,
			"token_id", claims.ID,
		)
		return ErrRefreshTokenReused
	}
	return nil
}

// Authenticate resolves an access token to the request identity.
func (s *UserService) Authenticate(ctx context.Context, accessToken string) (*model.AuthContext, error) {
	claims, err := s.tokens.Parse(accessToken, auth.TokenTypeAccess)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidAccessToken, err)
	}

	profile, err := s.Me(ctx, claims.Subject)
	if err != nil {
		return nil, err
	}

	return &model.AuthContext{
		UserID:   profile.ID,
		UserName: profile.Name,
		TokenID:  claims.ID,
	}, nil
}

// Me returns the public profile, served from cache when possible.
func (s *UserService) Me(ctx context.Context, userID string) (*model.UserProfile, error) {
	if s.profiles != nil {
		profile, err := s.profiles.GetUserProfile(ctx, userID)
		if err == nil {
			return profile, nil
		}
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	profile := user.Profile()
	if s.profiles != nil {
		if err := s.profiles.SetUserProfile(ctx, profile); err != nil {
			s.logger.Warn("profile_cache_set_failed", "user_id", userID, "error", err)
		}
	}
	return profile, nil
}

// UpdateAPIKeyInput defines input for replacing the upstream key.
type UpdateAPIKeyInput struct {
	UserID          string
	NewAPIKey       string
	CurrentPassword string
}

// UpdateAPIKey replaces the user's upstream provider key after re-checking
// the password.
func (s *UserService) UpdateAPIKey(ctx context.Context, input UpdateAPIKeyInput) (*model.UserProfile, error) {
	apiKey := strings.TrimSpace(input.NewAPIKey)
	if err := ValidateAPIKey(apiKey); err != nil {
		return nil, err
	}

	user, err := s.users.GetUserByID(ctx, input.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	ok, err := auth.VerifyPassword(input.CurrentPassword, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verify password for user %s: %w", user.ID, err)
	}
	if !ok {
		return nil, ErrIncorrectPassword
	}

	updated, err := s.users.UpdateUserAPIKey(ctx, user.ID, apiKey)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("update api key: %w", err)
	}

	if s.profiles != nil {
		if err := s.profiles.DeleteUserProfile(ctx, user.ID); err != nil {
			s.logger.Warn("profile_cache_invalidate_failed", "user_id", user.ID, "error", err)
		}
	}

	return updated.Profile(), nil
}
