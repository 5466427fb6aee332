package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/webagent/webagent/internal/imaging"
	"github.com/webagent/webagent/internal/llm"
	"github.com/webagent/webagent/internal/metrics"
	"github.com/webagent/webagent/internal/prompt"
	"github.com/webagent/webagent/internal/repository"
)

// Upload is an image received from a client.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Analysis is the vision model's description of an upload.
type Analysis struct {
	Description string
	Filename    string
	FileSize    int
	Dimensions  string
}

// ImageService describes uploaded screenshots with a vision model.
type ImageService struct {
	users     UserGetter
	vision    Completer
	settings  ModelSettings
	visionKey string
	maxSize   int64
	metrics   metrics.Recorder
	logger    *slog.Logger
}

// NewImageService creates a new ImageService. An empty visionKey makes each
// request use the caller's own key.
func NewImageService(
	users UserGetter,
	vision Completer,
	settings ModelSettings,
	visionKey string,
	maxSize int64,
	recorder metrics.Recorder,
	logger *slog.Logger,
) *ImageService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if logger == nil {
		logger = slog.Default()
	}
	if maxSize <= 0 {
		maxSize = imaging.DefaultMaxSize
	}
	return &ImageService{
		users:     users,
		vision:    vision,
		settings:  settings,
		visionKey: visionKey,
		maxSize:   maxSize,
		metrics:   recorder,
		logger:    logger,
	}
}

// MaxSize returns the upload limit in bytes.
func (s *ImageService) MaxSize() int64 {
	return s.maxSize
}

// Analyze validates and normalizes the upload, then asks the vision model
// for a description suitable for GenerateWebsite.
func (s *ImageService) Analyze(ctx context.Context, userID string, upload Upload) (*Analysis, error) {
	if err := imaging.CheckContentType(upload.ContentType); err != nil {
		s.metrics.IncImageAnalysis(metrics.StatusRejected)
		return nil, err
	}
	if err := imaging.CheckSize(int64(len(upload.Data)), s.maxSize); err != nil {
		s.metrics.IncImageAnalysis(metrics.StatusRejected)
		return nil, err
	}

	img, err := imaging.Normalize(upload.Data)
	if err != nil {
		s.logger.Warn("image_decode_failed",
			"user_id", userID,
			"content_type", upload.ContentType,
			"error", err,
		)
		s.metrics.IncImageAnalysis(metrics.StatusRejected)
		return nil, err
	}

	apiKey, err := s.apiKey(ctx, userID)
	if err != nil {
		return nil, err
	}

	req := s.settings.request([]llm.Message{
		llm.ImageMessage(prompt.ImageAnalysisPrompt(), imaging.DataURL(img.PNG)),
	})

	start := time.Now()
	description, err := s.vision.Complete(ctx, apiKey, req)
	s.metrics.ObserveImageAnalysisDuration(time.Since(start))
	if err != nil {
		s.metrics.IncImageAnalysis(metrics.StatusFailed)
		return nil, fmt.Errorf("%w: %w", ErrAnalysisFailed, err)
	}

	s.metrics.IncImageAnalysis(metrics.StatusSuccess)
	s.logger.Info("image_analyzed",
		"user_id", userID,
		"format", img.Format,
		"dimensions", img.Dimensions(),
		"bytes", len(upload.Data),
	)

	return &Analysis{
		Description: description,
		Filename:    upload.Filename,
		FileSize:    len(upload.Data),
		Dimensions:  img.Dimensions(),
	}, nil
}

func (s *ImageService) apiKey(ctx context.Context, userID string) (string, error) {
	if s.visionKey != "" {
		return s.visionKey, nil
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return "", ErrUserNotFound
		}
		return "", fmt.Errorf("get user: %w", err)
	}
	if !user.HasAPIKey() {
		return "", ErrMissingAPIKey
	}
	return user.APIKey, nil
}
