package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/webagent/webagent/internal/auth"
	"github.com/webagent/webagent/internal/llm"
	"github.com/webagent/webagent/internal/model"
	"github.com/webagent/webagent/internal/prompt"
	"github.com/webagent/webagent/internal/service"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// withUser attaches an authenticated user the way the auth middleware does.
func withUser(r *http.Request, userID string) *http.Request {
	return r.WithContext(auth.ContextWithAuth(r.Context(), &model.AuthContext{UserID: userID, UserName: "alice"}))
}

// sseBody renders text deltas as a chat-completions event stream.
func sseBody(deltas ...string) string {
	var b strings.Builder
	for _, d := range deltas {
		b.WriteString(`data: {"choices":[{"delta":{"content":"` + d + `"}}]}` + "\n\n")
	}
	return b.String()
}

type fakeAccounts struct {
	registered service.RegisterInput
	loginName  string
	loginPass  string
	refreshed  string
	updated    service.UpdateAPIKeyInput
	meID       string

	pair    *auth.TokenPair
	profile *model.UserProfile
	err     error
}

func (f *fakeAccounts) Register(_ context.Context, input service.RegisterInput) (*model.User, error) {
	f.registered = input
	if f.err != nil {
		return nil, f.err
	}
	return &model.User{ID: "user-1", Name: input.Name, APIKey: input.APIKey}, nil
}

func (f *fakeAccounts) Login(_ context.Context, name, password string) (*auth.TokenPair, error) {
	f.loginName, f.loginPass = name, password
	if f.err != nil {
		return nil, f.err
	}
	return f.pair, nil
}

func (f *fakeAccounts) Refresh(_ context.Context, token string) (*auth.TokenPair, error) {
	f.refreshed = token
	if f.err != nil {
		return nil, f.err
	}
	return f.pair, nil
}

func (f *fakeAccounts) Me(_ context.Context, userID string) (*model.UserProfile, error) {
	f.meID = userID
	if f.err != nil {
		return nil, f.err
	}
	return f.profile, nil
}

func (f *fakeAccounts) UpdateAPIKey(_ context.Context, input service.UpdateAPIKeyInput) (*model.UserProfile, error) {
	f.updated = input
	if f.err != nil {
		return nil, f.err
	}
	return f.profile, nil
}

type fakeGenerator struct {
	body   io.Reader
	err    error
	input  prompt.GenerateInput
	desc   string
	userID string
	kind   string
}

func (f *fakeGenerator) open() (*service.Generation, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &service.Generation{Kind: f.kind, Stream: llm.NewStream(io.NopCloser(f.body))}, nil
}

func (f *fakeGenerator) Generate(_ context.Context, userID string, input prompt.GenerateInput) (*service.Generation, error) {
	f.userID, f.input = userID, input
	return f.open()
}

func (f *fakeGenerator) GenerateWebsite(_ context.Context, userID, description string) (*service.Generation, error) {
	f.userID, f.desc = userID, description
	return f.open()
}

type fakeAnalyzer struct {
	maxSize  int64
	upload   service.Upload
	userID   string
	analysis *service.Analysis
	err      error
}

func (f *fakeAnalyzer) Analyze(_ context.Context, userID string, upload service.Upload) (*service.Analysis, error) {
	f.userID, f.upload = userID, upload
	if f.err != nil {
		return nil, f.err
	}
	return f.analysis, nil
}

func (f *fakeAnalyzer) MaxSize() int64 {
	return f.maxSize
}
