// Package config provides application configuration management.
// Configuration is loaded from environment variables following 12-factor principles.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds all application configuration.
// All fields are populated from environment variables.
type Config struct {
	// Application settings
	AppEnv  string `env:"APP_ENV" envDefault:"development"`
	AppPort int    `env:"APP_PORT" envDefault:"8000"`

	// Database (PostgreSQL)
	DatabaseURL string `env:"DATABASE_URL,required"`

	// Cache (Redis)
	RedisURL string `env:"REDIS_URL,required"`

	// Token signing (HS256)
	JWTSecretKey       string        `env:"JWT_SECRET_KEY,required"`
	AccessTokenExpire  time.Duration `env:"ACCESS_TOKEN_EXPIRE" envDefault:"120m"`
	RefreshTokenExpire time.Duration `env:"REFRESH_TOKEN_EXPIRE" envDefault:"168h"`

	// Upstream chat-completions provider used for HTML generation.
	// The bearer key is the per-user API key stored at registration.
	LLMBaseURL               string        `env:"LLM_BASE_URL" envDefault:"https://integrate.api.nvidia.com/v1"`
	LLMModel                 string        `env:"LLM_MODEL" envDefault:"deepseek-ai/deepseek-r1-0528"`
	LLMTemperature           float64       `env:"LLM_TEMPERATURE" envDefault:"0.2"`
	LLMMaxTokens             int           `env:"LLM_MAX_TOKENS" envDefault:"150000"`
	LLMResponseHeaderTimeout time.Duration `env:"LLM_RESPONSE_HEADER_TIMEOUT" envDefault:"60s"`

	// Website-from-description generation
	WebsiteModel     string `env:"WEBSITE_MODEL" envDefault:"moonshotai/kimi-k2-instruct"`
	WebsiteMaxTokens int    `env:"WEBSITE_MAX_TOKENS" envDefault:"85000"`

	// Vision model for screenshot analysis.
	// VisionAPIKey is a server-side key; when empty the caller's key is used.
	VisionBaseURL     string  `env:"VISION_BASE_URL" envDefault:"https://openrouter.ai/api/v1"`
	VisionModel       string  `env:"VISION_MODEL" envDefault:"Qwen/Qwen2.5-VL-72B-Instruct"`
	VisionAPIKey      string  `env:"VISION_API_KEY"`
	VisionMaxTokens   int     `env:"VISION_MAX_TOKENS" envDefault:"1000"`
	VisionTemperature float64 `env:"VISION_TEMPERATURE" envDefault:"0.7"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Server timeouts.
	// WriteTimeout of zero disables the deadline; generation streams run for minutes.
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"0s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// CORS configuration
	// Comma-separated list of allowed origins, "*" allows any origin.
	CORSAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS" envDefault:"http://localhost:5173"`

	// Request body size limit in bytes for JSON endpoints (default 4MB)
	MaxRequestBodySize int64 `env:"MAX_REQUEST_BODY_SIZE" envDefault:"4194304"`

	// Image upload limit in bytes (default 10MB)
	MaxUploadSize int64 `env:"MAX_UPLOAD_SIZE" envDefault:"10485760"`
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// GetCORSAllowedOrigins parses the comma-separated origins string into a slice.
func (c *Config) GetCORSAllowedOrigins() []string {
	if c.CORSAllowedOrigins == "" {
		return nil
	}

	origins := strings.Split(c.CORSAllowedOrigins, ",")
	result := make([]string, 0, len(origins))

	for _, origin := range origins {
		trimmed := strings.TrimSpace(origin)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}

// Load parses environment variables and returns a Config.
// Returns an error if required variables are missing.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.LLMMaxTokens <= 0 || cfg.WebsiteMaxTokens <= 0 || cfg.VisionMaxTokens <= 0 {
		return nil, fmt.Errorf("failed to parse config: max token settings must be positive")
	}
	return cfg, nil
}

// TokenConfig is the subset of Config needed to sign session tokens
// outside the API process.
type TokenConfig struct {
	JWTSecretKey       string        `env:"JWT_SECRET_KEY"`
	AccessTokenExpire  time.Duration `env:"ACCESS_TOKEN_EXPIRE" envDefault:"120m"`
	RefreshTokenExpire time.Duration `env:"REFRESH_TOKEN_EXPIRE" envDefault:"168h"`
}

// LoadTokens parses the token settings. An empty secret is not an error here;
// callers that sign tokens must check it.
func LoadTokens() (*TokenConfig, error) {
	cfg := &TokenConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse token config: %w", err)
	}
	return cfg, nil
}
