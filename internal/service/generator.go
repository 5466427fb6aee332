package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/webagent/webagent/internal/llm"
	"github.com/webagent/webagent/internal/metrics"
	"github.com/webagent/webagent/internal/model"
	"github.com/webagent/webagent/internal/prompt"
	"github.com/webagent/webagent/internal/repository"
)

// Generation is an open upstream stream plus the flow that produced it.
type Generation struct {
	Kind   string
	Stream *llm.Stream
}

// GeneratorService opens page and website generation streams using the
// caller's own upstream key.
type GeneratorService struct {
	users    UserGetter
	upstream Completer
	page     ModelSettings
	website  ModelSettings
	metrics  metrics.Recorder
	logger   *slog.Logger
}

// NewGeneratorService creates a new GeneratorService.
func NewGeneratorService(
	users UserGetter,
	upstream Completer,
	page, website ModelSettings,
	recorder metrics.Recorder,
	logger *slog.Logger,
) *GeneratorService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &GeneratorService{
		users:    users,
		upstream: upstream,
		page:     page,
		website:  website,
		metrics:  recorder,
		logger:   logger,
	}
}

// Generate opens a stream that writes a new page, or SEARCH/REPLACE blocks
// when PreviousHTML is set.
func (s *GeneratorService) Generate(ctx context.Context, userID string, input prompt.GenerateInput) (*Generation, error) {
	input.Prompt = strings.TrimSpace(input.Prompt)
	if input.Prompt == "" {
		return nil, ErrPromptRequired
	}

	kind := metrics.KindPage
	if input.IsModification() {
		kind = metrics.KindEdit
	}

	return s.open(ctx, userID, kind, s.page.request(prompt.BuildGenerateMessages(input)))
}

// GenerateWebsite opens a stream answering with the three-part
// analysis, code and summary format.
func (s *GeneratorService) GenerateWebsite(ctx context.Context, userID, description string) (*Generation, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, ErrDescriptionRequired
	}

	return s.open(ctx, userID, metrics.KindWebsite, s.website.request(prompt.BuildWebsiteMessages(description)))
}

func (s *GeneratorService) open(ctx context.Context, userID, kind string, req llm.ChatRequest) (*Generation, error) {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	stream, err := s.upstream.OpenStream(ctx, user.APIKey, req)
	if err != nil {
		s.metrics.IncUpstreamError(kind)
		return nil, fmt.Errorf("open %s stream: %w", kind, err)
	}

	s.metrics.IncGeneration(kind)
	s.logger.Info("generation_started",
		"user_id", user.ID,
		"kind", kind,
		"model", req.Model,
		"messages", len(req.Messages),
	)

	return &Generation{Kind: kind, Stream: stream}, nil
}

func (s *GeneratorService) loadUser(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	if !user.HasAPIKey() {
		return nil, ErrMissingAPIKey
	}
	return user, nil
}
