package main

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/webagent/webagent/internal/config"
	"github.com/webagent/webagent/internal/handler"
	"github.com/webagent/webagent/internal/middleware"
)

// routeHandlers groups the handlers mounted by setupRouter.
type routeHandlers struct {
	root     *handler.Handler
	health   *handler.HealthHandler
	metrics  *handler.MetricsHandler
	users    *handler.UserHandler
	generate *handler.GenerateHandler
	images   *handler.ImageHandler
}

// uploadOverhead leaves room for multipart framing around an image.
const uploadOverhead = 1 << 20

// setupRouter configures the chi router with all routes and middleware.
func setupRouter(h routeHandlers, authn middleware.Authenticator, cfg *config.Config, logger *slog.Logger) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recoverer(logger, cfg.IsDevelopment()))
	r.Use(middleware.Security(middleware.SecurityConfig{
		IsDevelopment: cfg.IsDevelopment(),
	}))

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = cfg.GetCORSAllowedOrigins()
	r.Use(middleware.CORS(corsCfg))

	// Health and service endpoints (no auth required)
	r.Get("/", h.root.Root)
	r.Get("/healthz", h.health.Healthz)
	r.Get("/readyz", h.health.Readyz)
	r.Get("/metrics", h.metrics.Metrics)

	requireAuth := middleware.Auth(middleware.AuthConfig{
		Logger:        logger,
		Authenticator: authn,
	})
	jsonLimit := middleware.MaxBodySize(cfg.MaxRequestBodySize)

	r.Route("/api", func(r chi.Router) {
		r.Route("/users", func(r chi.Router) {
			r.With(jsonLimit).Post("/register", h.users.Register)
			r.With(jsonLimit).Post("/login", h.users.Login)
			r.With(jsonLimit).Post("/refresh", h.users.Refresh)

			r.With(requireAuth).Get("/me", h.users.Me)
			r.With(requireAuth, jsonLimit).Post("/update-api-key", h.users.UpdateAPIKey)
		})

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)

			r.With(jsonLimit).Post("/generate", h.generate.Generate)
			r.With(jsonLimit).Post("/generate-website", h.generate.Website)
			r.With(middleware.MaxBodySize(cfg.MaxUploadSize+uploadOverhead)).Post("/analyze-image", h.images.Analyze)
		})
	})

	// 404 and 405 handlers
	r.NotFound(h.root.NotFound)
	r.MethodNotAllowed(h.root.MethodNotAllowed)

	return r
}
