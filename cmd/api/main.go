// Package main is the entrypoint for the WebAgent API server.
package main

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/webagent/webagent/internal/auth"
	"github.com/webagent/webagent/internal/cache"
	"github.com/webagent/webagent/internal/config"
	"github.com/webagent/webagent/internal/handler"
	"github.com/webagent/webagent/internal/llm"
	"github.com/webagent/webagent/internal/metrics"
	"github.com/webagent/webagent/internal/repository"
	"github.com/webagent/webagent/internal/server"
	"github.com/webagent/webagent/internal/service"
)

const (
	serviceName    = "WebAgent AI Website Builder"
	serviceVersion = "1.0.0"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := initLogger(cfg)

	repo, err := repository.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error(
			"failed to connect to database",
			slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
			slog.String("database_url", redactURL(cfg.DatabaseURL)),
		)
		os.Exit(1)
	}
	logger.Info("connected to database")

	if err := repo.Migrate(ctx); err != nil {
		logger.Error("failed to apply migrations", slog.String("error", sanitizeError(err, cfg.DatabaseURL)))
		repo.Close()
		os.Exit(1)
	}

	cacheClient, err := cache.New(ctx, cfg.RedisURL)
	if err != nil {
		logger.Error(
			"failed to connect to Redis",
			slog.String("error", sanitizeError(err, cfg.RedisURL)),
			slog.String("redis_url", redactURL(cfg.RedisURL)),
		)
		repo.Close()
		os.Exit(1)
	}
	logger.Info("connected to Redis")

	// Services
	metricsRecorder := metrics.NewInMemory()
	tokens := auth.NewTokenIssuer(cfg.JWTSecretKey, cfg.AccessTokenExpire, cfg.RefreshTokenExpire)
	upstreamHTTP := llm.NewHTTPClient(cfg.LLMResponseHeaderTimeout)
	generation := llm.NewClient(cfg.LLMBaseURL, upstreamHTTP)
	vision := llm.NewClient(cfg.VisionBaseURL, upstreamHTTP)

	userService := service.NewUserService(repo, cacheClient, cacheClient, tokens, metricsRecorder, logger)
	generatorService := service.NewGeneratorService(
		repo,
		generation,
		service.ModelSettings{Model: cfg.LLMModel, Temperature: cfg.LLMTemperature, MaxTokens: cfg.LLMMaxTokens},
		service.ModelSettings{Model: cfg.WebsiteModel, Temperature: cfg.LLMTemperature, MaxTokens: cfg.WebsiteMaxTokens},
		metricsRecorder,
		logger,
	)
	imageService := service.NewImageService(
		repo,
		vision,
		service.ModelSettings{Model: cfg.VisionModel, Temperature: cfg.VisionTemperature, MaxTokens: cfg.VisionMaxTokens},
		cfg.VisionAPIKey,
		cfg.MaxUploadSize,
		metricsRecorder,
		logger,
	)

	// Handlers
	handlers := routeHandlers{
		root:     handler.New(serviceName, serviceVersion),
		health:   handler.NewHealthHandler(repo, cacheClient, logger),
		metrics:  handler.NewMetricsHandler(metricsRecorder),
		users:    handler.NewUserHandler(userService, logger),
		generate: handler.NewGenerateHandler(generatorService, metricsRecorder, logger),
		images:   handler.NewImageHandler(imageService, logger),
	}

	r := setupRouter(handlers, userService, cfg, logger)

	srv := server.New(r, server.Config{
		Port:            cfg.AppPort,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, logger)

	srv.OnShutdown("postgres", func(context.Context) error {
		repo.Close()
		return nil
	})
	srv.OnShutdown("redis", func(context.Context) error {
		return cacheClient.Close()
	})
	srv.OnShutdown("upstream", func(context.Context) error {
		upstreamHTTP.CloseIdleConnections()
		return nil
	})

	logger.Info("starting server",
		"port", cfg.AppPort,
		"env", cfg.AppEnv,
		"llm_base_url", cfg.LLMBaseURL,
		"llm_model", cfg.LLMModel,
		"website_model", cfg.WebsiteModel,
		"vision_model", cfg.VisionModel,
		"vision_key_configured", cfg.VisionAPIKey != "",
	)

	if err := srv.Run(ctx); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	var h slog.Handler

	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}

	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s]+`)

func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}

	if parsed.User != nil {
		username := parsed.User.Username()
		if username == "" {
			parsed.User = url.User("redacted")
		} else {
			parsed.User = url.User(username)
		}
	}

	return parsed.String()
}

func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		redacted := redactURL(secret)
		if redacted == "" {
			redacted = "[redacted]"
		}
		msg = strings.ReplaceAll(msg, secret, redacted)
	}

	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}
