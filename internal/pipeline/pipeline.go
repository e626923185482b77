// Package pipeline drives one extraction end to end: fetch the page,
// derive its content, resolve model candidates, and cascade generation
// calls across candidates until one yields a schema-valid event.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"

	"github.com/nazoreki/nazoreki-api/internal/catalog"
	"github.com/nazoreki/nazoreki-api/internal/event"
	"github.com/nazoreki/nazoreki-api/internal/extract"
	"github.com/nazoreki/nazoreki-api/internal/fetch"
	"github.com/nazoreki/nazoreki-api/internal/llm"
	"github.com/nazoreki/nazoreki-api/internal/metrics"
	"github.com/nazoreki/nazoreki-api/internal/prompt"
	"github.com/nazoreki/nazoreki-api/internal/repair"
)

// Fetcher retrieves raw HTML for one URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// CandidateResolver produces the ordered, never-empty candidate list.
type CandidateResolver interface {
	Candidates(ctx context.Context) []catalog.Candidate
}

// ExhaustedError is the terminal failure when every candidate was rejected
// as unavailable. It names each candidate tried and the last underlying
// provider error.
type ExhaustedError struct {
	Candidates []string
	LastErr    error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("no usable model found; tried %s; last error: %v",
		strings.Join(e.Candidates, ", "), e.LastErr)
}

func (e *ExhaustedError) Unwrap() error { return e.LastErr }

// Extractor composes the extraction pipeline. All collaborators are
// injected so the candidate cascade is testable without network access.
// Values are read-only after construction; every call is self-contained.
type Extractor struct {
	Fetcher  Fetcher
	Resolver CandidateResolver
	Client   llm.Client
	Repairer *repair.Repairer
	// APIKey is checked before any provider call. Absence is fatal.
	APIKey string
	// Timeout bounds each generation call. Zero disables the bound.
	Timeout time.Duration
}

// Extract runs the whole pipeline for one listing URL. It returns either a
// fully schema-valid event or a classified failure, never a partially
// valid result. Candidates are tried strictly in order; only a provider
// rejection of the model identifier itself advances the loop.
func (x *Extractor) Extract(ctx context.Context, sourceURL string) (event.Extracted, error) {
	start := time.Now()
	ev, err := x.extract(ctx, sourceURL)
	metrics.Duration.Observe(time.Since(start).Seconds())
	metrics.ExtractionsTotal.WithLabelValues(outcomeLabel(err)).Inc()
	return ev, err
}

func (x *Extractor) extract(ctx context.Context, sourceURL string) (event.Extracted, error) {
	if strings.TrimSpace(x.APIKey) == "" {
		return event.Extracted{}, llm.ErrMissingAPIKey
	}
	base, err := url.Parse(sourceURL)
	if err != nil {
		return event.Extracted{}, &fetch.Error{URL: sourceURL, Err: err}
	}

	html, err := x.Fetcher.Fetch(ctx, sourceURL)
	if err != nil {
		return event.Extracted{}, err
	}
	content, err := extract.FromHTML(html, base)
	if err != nil {
		// Unparseable HTML means no data is recoverable from this page.
		return event.Extracted{}, &fetch.Error{URL: sourceURL, Err: err}
	}

	p := prompt.Build(sourceURL, content.Text)
	candidates := x.Resolver.Candidates(ctx)

	var tried []string
	var lastErr error
	for _, cand := range candidates {
		tried = append(tried, cand.Identifier)
		log.Debug().Str("model", cand.Identifier).Stringer("origin", cand.Origin).Msg("trying candidate")

		raw, err := x.generate(ctx, cand.Identifier, p)
		if err != nil {
			switch kind := llm.Classify(err); kind {
			case llm.OutcomeUnavailable:
				// Recoverable: this identifier only.
				metrics.AttemptsTotal.WithLabelValues("unavailable").Inc()
				log.Warn().Err(err).Str("model", cand.Identifier).Msg("model unavailable, trying next candidate")
				lastErr = err
				continue
			case llm.OutcomeCredential:
				metrics.AttemptsTotal.WithLabelValues("credential").Inc()
				return event.Extracted{}, fmt.Errorf("provider rejected credential: %w", err)
			default:
				// Not specific to the chosen model: abort outright.
				metrics.AttemptsTotal.WithLabelValues("rejected").Inc()
				return event.Extracted{}, fmt.Errorf("provider call failed for model %s: %w", cand.Identifier, err)
			}
		}

		ev, err := x.Repairer.RepairAndValidate(raw, sourceURL, content.ImageURL)
		if err != nil {
			// A malformed or invalid response is not model-specific;
			// retrying another candidate will not reliably help.
			metrics.AttemptsTotal.WithLabelValues("invalid_response").Inc()
			return event.Extracted{}, err
		}

		metrics.AttemptsTotal.WithLabelValues("success").Inc()
		log.Info().Str("model", cand.Identifier).Str("title", ev.Title).Msg("event extracted")
		return ev, nil
	}

	return event.Extracted{}, &ExhaustedError{Candidates: tried, LastErr: lastErr}
}

// generate issues one content-generation call addressed to a candidate
// model and returns the raw response text.
func (x *Extractor) generate(ctx context.Context, model, userPrompt string) (string, error) {
	if x.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, x.Timeout)
		defer cancel()
	}
	resp, err := x.Client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
		Temperature: 0.1,
		N:           1,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no choices in provider response")
	}
	return resp.Choices[0].Message.Content, nil
}

func outcomeLabel(err error) string {
	if err == nil {
		return "success"
	}
	if errors.Is(err, llm.ErrMissingAPIKey) {
		return "credential_error"
	}
	var ferr *fetch.Error
	var perr *repair.ParseError
	var verr *event.ValidationError
	var xerr *ExhaustedError
	switch {
	case errors.As(err, &ferr):
		return "fetch_error"
	case errors.As(err, &perr):
		return "parse_error"
	case errors.As(err, &verr):
		return "validation_error"
	case errors.As(err, &xerr):
		return "exhausted"
	case llm.Classify(err) == llm.OutcomeCredential:
		return "credential_error"
	default:
		return "provider_error"
	}
}
