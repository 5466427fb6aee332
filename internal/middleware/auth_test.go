package middleware

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/webagent/webagent/internal/auth"
	"github.com/webagent/webagent/internal/model"
	"github.com/webagent/webagent/internal/service"
)

type fakeAuthenticator struct {
	tokens map[string]*model.AuthContext
	err    error
}

func (f *fakeAuthenticator) Authenticate(_ context.Context, token string) (*model.AuthContext, error) {
	if f.err != nil {
		return nil, f.err
	}
	if ac, ok := f.tokens[token]; ok {
		return ac, nil
	}
	return nil, fmt.Errorf("%w: %w", service.ErrInvalidAccessToken, auth.ErrInvalidToken)
}

func newAuthHandler(a Authenticator) http.Handler {
	mw := Auth(AuthConfig{
		Logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
		Authenticator: a,
	})
	return mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ac := auth.AuthFromContext(r.Context())
		if ac == nil {
			http.Error(w, "missing auth context", http.StatusTeapot)
			return
		}
		_, _ = io.WriteString(w, ac.UserID)
	}))
}

func TestAuth(t *testing.T) {
	t.Parallel()

	authn := &fakeAuthenticator{tokens: map[string]*model.AuthContext{
		"good-token": {UserID: "user-1", UserName: "alice"},
	}}

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantBody   string
	}{
		{"valid token", "Bearer good-token", http.StatusOK, "user-1"},
		{"lowercase scheme", "bearer good-token", http.StatusOK, "user-1"},
		{"missing header", "", http.StatusUnauthorized, "Could not validate credentials"},
		{"wrong scheme", "Basic good-token", http.StatusUnauthorized, "Could not validate credentials"},
		{"scheme only", "Bearer", http.StatusUnauthorized, "Could not validate credentials"},
		{"unknown token", "Bearer bad-token", http.StatusUnauthorized, "Could not validate credentials"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			newAuthHandler(authn).ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if !strings.Contains(rec.Body.String(), tt.wantBody) {
				t.Errorf("body = %q, want it to contain %q", rec.Body.String(), tt.wantBody)
			}
			if tt.wantStatus == http.StatusUnauthorized {
				if got := rec.Header().Get("WWW-Authenticate"); got != "Bearer" {
					t.Errorf("WWW-Authenticate = %q, want Bearer", got)
				}
			}
		})
	}
}

func TestAuth_DeletedUser(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer token")

	newAuthHandler(&fakeAuthenticator{err: service.ErrUserNotFound}).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestAuth_BackendFailure(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer token")

	newAuthHandler(&fakeAuthenticator{err: errors.New("db down")}).ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "db down") {
		t.Error("internal error text leaked to client")
	}
}

func TestAuthFailureReason(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want string
	}{
		{fmt.Errorf("%w: %w", service.ErrInvalidAccessToken, auth.ErrTokenExpired), "expired_token"},
		{fmt.Errorf("%w: %w", service.ErrInvalidAccessToken, auth.ErrWrongTokenType), "invalid_token"},
		{service.ErrUserNotFound, "unknown_user"},
	}

	for _, tt := range tests {
		tt := tt
		if got := authFailureReason(tt.err); got != tt.want {
			t.Errorf("authFailureReason(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
