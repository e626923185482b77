package app

import (
	"fmt"
	"os"
	"time"

	yaml "gopkg.in/yaml.v3"
)

// FileConfig is the single-file YAML configuration schema. Nested sections
// map naturally onto Config fields.
type FileConfig struct {
	Addr string `yaml:"addr"`

	CORS struct {
		AllowedOrigins []string `yaml:"allowedOrigins"`
	} `yaml:"cors"`

	Gemini struct {
		APIKey         string   `yaml:"key"`
		Model          string   `yaml:"model"`
		ModelsBase     string   `yaml:"modelsBase"`
		GenerateBase   string   `yaml:"generateBase"`
		FallbackModels []string `yaml:"fallbackModels"`
	} `yaml:"gemini"`

	Fetch struct {
		UserAgent string        `yaml:"userAgent"`
		Timeout   time.Duration `yaml:"timeout"`
	} `yaml:"fetch"`

	Timeouts struct {
		Discovery time.Duration `yaml:"discovery"`
		Generate  time.Duration `yaml:"generate"`
	} `yaml:"timeouts"`

	Verbose bool `yaml:"verbose"`
}

// LoadFile reads a YAML config file and overlays its non-zero values onto
// cfg. A missing path is not an error so the service runs config-free.
func LoadFile(path string, cfg *Config) error {
	if path == "" {
		return nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	var fc FileConfig
	if err := yaml.Unmarshal(b, &fc); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}

	if fc.Addr != "" {
		cfg.Addr = fc.Addr
	}
	if len(fc.CORS.AllowedOrigins) > 0 {
		cfg.AllowedOrigins = fc.CORS.AllowedOrigins
	}
	if fc.Gemini.APIKey != "" {
		cfg.GeminiAPIKey = fc.Gemini.APIKey
	}
	if fc.Gemini.Model != "" {
		cfg.GeminiModel = fc.Gemini.Model
	}
	if fc.Gemini.ModelsBase != "" {
		cfg.ModelsBaseURL = fc.Gemini.ModelsBase
	}
	if fc.Gemini.GenerateBase != "" {
		cfg.GenerateBaseURL = fc.Gemini.GenerateBase
	}
	if len(fc.Gemini.FallbackModels) > 0 {
		cfg.FallbackModels = fc.Gemini.FallbackModels
	}
	if fc.Fetch.UserAgent != "" {
		cfg.UserAgent = fc.Fetch.UserAgent
	}
	if fc.Fetch.Timeout > 0 {
		cfg.FetchTimeout = fc.Fetch.Timeout
	}
	if fc.Timeouts.Discovery > 0 {
		cfg.DiscoveryTimeout = fc.Timeouts.Discovery
	}
	if fc.Timeouts.Generate > 0 {
		cfg.GenerateTimeout = fc.Timeouts.Generate
	}
	if fc.Verbose {
		cfg.Verbose = true
	}
	return nil
}
