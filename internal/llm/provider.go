// Package llm provides the provider-client abstraction the extraction
// pipeline calls, plus typed classification of provider failures so callers
// dispatch on a kind instead of matching free-text messages.
package llm

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// DefaultBaseURL is the provider's OpenAI-compatible surface used for
// content generation.
const DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai"

// ErrMissingAPIKey indicates the provider credential was never configured.
// The condition is fatal and surfaced on first use.
var ErrMissingAPIKey = errors.New("provider API key is not configured")

// Client is the minimal interface the pipeline needs to call a chat model.
// It mirrors the CreateChatCompletion method so that any OpenAI-compatible
// backend, or a test fake, can stand in.
type Client interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Provider adapts *openai.Client to the Client interface.
type Provider struct {
	Inner *openai.Client
}

// New builds a Provider against the given credential and base URL. An empty
// baseURL selects the default provider endpoint.
func New(apiKey, baseURL string, timeout time.Duration) *Provider {
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = DefaultBaseURL
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if timeout > 0 {
		cfg.HTTPClient = &http.Client{Timeout: timeout}
	}
	return &Provider{Inner: openai.NewClientWithConfig(cfg)}
}

func (p *Provider) CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	return p.Inner.CreateChatCompletion(ctx, request)
}

// Outcome is the typed classification of a failed generation call.
type Outcome int

const (
	// OutcomeUnavailable means the provider rejected the model identifier
	// as unknown or unsupported. The only recoverable kind: the caller may
	// try the next candidate.
	OutcomeUnavailable Outcome = iota
	// OutcomeCredential means the credential was absent or rejected.
	OutcomeCredential
	// OutcomeRejected covers every other provider-side failure (quota,
	// generic errors). Not specific to the chosen model.
	OutcomeRejected
)

func (o Outcome) String() string {
	switch o {
	case OutcomeUnavailable:
		return "unavailable"
	case OutcomeCredential:
		return "credential"
	default:
		return "rejected"
	}
}

// Classify maps a generation-call error to a typed outcome. Dispatch is on
// HTTP status where one exists; the message text is consulted only as a
// last resort and is otherwise preserved for diagnostics.
func Classify(err error) Outcome {
	if errors.Is(err, ErrMissingAPIKey) {
		return OutcomeCredential
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return OutcomeCredential
		case http.StatusNotFound:
			return OutcomeUnavailable
		}
		if mentionsUnknownModel(apiErr.Message) {
			return OutcomeUnavailable
		}
		return OutcomeRejected
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		switch reqErr.HTTPStatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return OutcomeCredential
		case http.StatusNotFound:
			return OutcomeUnavailable
		}
	}
	if err != nil && mentionsUnknownModel(err.Error()) {
		return OutcomeUnavailable
	}
	return OutcomeRejected
}

// mentionsUnknownModel covers providers whose compatibility layer reports
// unknown models with a generic status but a NOT_FOUND style message.
func mentionsUnknownModel(msg string) bool {
	m := strings.ToLower(msg)
	return strings.Contains(m, "not found") || strings.Contains(m, "not_found") ||
		strings.Contains(m, "is not supported")
}
