// Package app holds runtime configuration for the extraction service.
// Configuration is read-only after startup; it is the only process-wide
// state the pipeline shares.
package app

import (
	"os"
	"strings"
	"time"
)

// Config holds runtime configuration. Zero values fall back to the
// defaults from Default().
type Config struct {
	// Addr is the HTTP listen address for serve mode.
	Addr string

	// AllowedOrigins configures CORS for the browser catalog frontend.
	// Empty means allow all origins.
	AllowedOrigins []string

	// GeminiAPIKey is the provider credential. Required; its absence is a
	// fatal condition surfaced on first use.
	GeminiAPIKey string
	// GeminiModel, when set, is an operator override: exactly this model
	// is tried and discovery is skipped.
	GeminiModel string
	// ModelsBaseURL is the provider's native model-listing base.
	ModelsBaseURL string
	// GenerateBaseURL is the provider's OpenAI-compatible generation base.
	GenerateBaseURL string
	// FallbackModels overrides the compiled-in static fallback list.
	FallbackModels []string

	// UserAgent identifies the page fetcher to listing origins.
	UserAgent string

	FetchTimeout     time.Duration
	DiscoveryTimeout time.Duration
	GenerateTimeout  time.Duration

	Verbose bool
}

// Default returns the baseline configuration.
func Default() Config {
	return Config{
		Addr:             ":8520",
		FetchTimeout:     15 * time.Second,
		DiscoveryTimeout: 10 * time.Second,
		GenerateTimeout:  60 * time.Second,
	}
}

// ApplyEnv overlays environment variables onto the configuration. File and
// flag values win over defaults; environment wins over the file for the
// credential and override, matching how the surrounding catalog deploys.
func (c *Config) ApplyEnv() {
	if v := strings.TrimSpace(os.Getenv("GEMINI_API_KEY")); v != "" {
		c.GeminiAPIKey = v
	}
	if v := strings.TrimSpace(os.Getenv("GEMINI_MODEL_NAME")); v != "" {
		c.GeminiModel = v
	}
	if v := strings.TrimSpace(os.Getenv("NAZOREKI_ADDR")); v != "" {
		c.Addr = v
	}
}
