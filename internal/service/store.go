package service

import (
	"context"
	"time"

	"github.com/webagent/webagent/internal/llm"
	"github.com/webagent/webagent/internal/model"
)

// UserGetter loads users by ID.
type UserGetter interface {
	GetUserByID(ctx context.Context, id string) (*model.User, error)
}

// UserStore is the persistence the user service needs.
// Implemented by *repository.Repository.
type UserStore interface {
	UserGetter
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByName(ctx context.Context, name string) (*model.User, error)
	UpdateUserAPIKey(ctx context.Context, id, apiKey string) (*model.User, error)
}

// ProfileCache caches public profiles. Implemented by *cache.Cache.
type ProfileCache interface {
	GetUserProfile(ctx context.Context, userID string) (*model.UserProfile, error)
	SetUserProfile(ctx context.Context, profile *model.UserProfile) error
	DeleteUserProfile(ctx context.Context, userID string) error
}

// RefreshLedger records spent refresh tokens. Implemented by *cache.Cache.
type RefreshLedger interface {
	ConsumeRefreshToken(ctx context.Context, tokenID string, ttl time.Duration) (bool, error)
}

// Completer is an upstream chat-completions endpoint. Implemented by *llm.Client.
type Completer interface {
	OpenStream(ctx context.Context, apiKey string, req llm.ChatRequest) (*llm.Stream, error)
	Complete(ctx context.Context, apiKey string, req llm.ChatRequest) (string, error)
}

// ModelSettings selects the upstream model and sampling for one flow.
type ModelSettings struct {
	Model       string
	Temperature float64
	MaxTokens   int
}

func (m ModelSettings) request(messages []llm.Message) llm.ChatRequest {
	return llm.ChatRequest{
		Model:       m.Model,
		Messages:    messages,
		Temperature: m.Temperature,
		MaxTokens:   m.MaxTokens,
	}
}
