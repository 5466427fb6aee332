package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/webagent/webagent/internal/cache"
	"github.com/webagent/webagent/internal/llm"
	"github.com/webagent/webagent/internal/model"
	"github.com/webagent/webagent/internal/repository"
)

type fakeUserStore struct {
	mu     sync.Mutex
	byID   map[string]*model.User
	getErr error
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{byID: map[string]*model.User{}}
}

func (f *fakeUserStore) CreateUser(_ context.Context, user *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if u.Name == user.Name {
			return repository.ErrUserNameExists
		}
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	user.CreatedAt = time.Now().UTC()
	user.UpdatedAt = user.CreatedAt
	cp := *user
	f.byID[user.ID] = &cp
	return nil
}

func (f *fakeUserStore) GetUserByID(_ context.Context, id string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.byID[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserStore) GetUserByName(_ context.Context, name string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if u.Name == name {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (f *fakeUserStore) UpdateUserAPIKey(_ context.Context, id, apiKey string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	u.APIKey = apiKey
	u.UpdatedAt = time.Now().UTC()
	cp := *u
	return &cp, nil
}

func (f *fakeUserStore) delete(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.byID, id)
}

type fakeProfileCache struct {
	mu       sync.Mutex
	profiles map[string]model.UserProfile
	sets     int
	deletes  int
}

func newFakeProfileCache() *fakeProfileCache {
	return &fakeProfileCache{profiles: map[string]model.UserProfile{}}
}

func (f *fakeProfileCache) GetUserProfile(_ context.Context, userID string) (*model.UserProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.profiles[userID]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return &p, nil
}

func (f *fakeProfileCache) SetUserProfile(_ context.Context, profile *model.UserProfile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sets++
	f.profiles[profile.ID] = *profile
	return nil
}

func (f *fakeProfileCache) DeleteUserProfile(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes++
	delete(f.profiles, userID)
	return nil
}

type fakeLedger struct {
	mu   sync.Mutex
	seen map[string]bool
	err  error
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{seen: map[string]bool{}}
}

func (f *fakeLedger) ConsumeRefreshToken(_ context.Context, tokenID string, _ time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	if f.seen[tokenID] {
		return false, nil
	}
	f.seen[tokenID] = true
	return true, nil
}

type fakeCompleter struct {
	mu         sync.Mutex
	lastKey    string
	lastReq    llm.ChatRequest
	events     []string
	completion string
	err        error
}

func (f *fakeCompleter) OpenStream(_ context.Context, apiKey string, req llm.ChatRequest) (*llm.Stream, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastKey = apiKey
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}

	var b strings.Builder
	for _, ev := range f.events {
		b.WriteString("data: " + ev + "\n\n")
	}
	return llm.NewStream(io.NopCloser(strings.NewReader(b.String()))), nil
}

func (f *fakeCompleter) Complete(_ context.Context, apiKey string, req llm.ChatRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastKey = apiKey
	f.lastReq = req
	if f.err != nil {
		return "", f.err
	}
	if f.completion == "" {
		return "", llm.ErrNoContent
	}
	return f.completion, nil
}

var errBoom = errors.New("boom")
