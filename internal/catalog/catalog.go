// Package catalog resolves the ordered list of candidate model identifiers
// the orchestrator may try for one extraction.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultBaseURL is the provider's native model-listing surface. The
// OpenAI-compatible surface does not expose supported generation methods,
// so discovery speaks the native API.
const DefaultBaseURL = "https://generativelanguage.googleapis.com/v1"

// Origin records how a candidate entered the list.
type Origin int

const (
	// OriginExplicit is an operator override; it short-circuits discovery
	// and fallback entirely.
	OriginExplicit Origin = iota
	// OriginDiscovered comes from a live provider query.
	OriginDiscovered
	// OriginStaticFallback is the fixed known-good list used when
	// discovery fails or yields nothing.
	OriginStaticFallback
)

func (o Origin) String() string {
	switch o {
	case OriginExplicit:
		return "explicit"
	case OriginDiscovered:
		return "discovered"
	default:
		return "static-fallback"
	}
}

// Candidate is one model identifier the orchestrator may address.
type Candidate struct {
	Identifier string
	Origin     Origin
}

// DefaultFallback is the hand-maintained ordered list of known-good model
// identifiers. Provider catalogs churn; this list guarantees the resolver
// never returns an empty sequence.
var DefaultFallback = []string{
	"gemini-1.5-flash-latest",
	"gemini-1.5-pro-latest",
	"gemini-1.5-flash-002",
	"gemini-1.5-flash",
	"gemini-1.5-pro-002",
	"gemini-1.5-pro",
	"gemini-pro",
}

// Resolver produces candidate lists. The explicit override, when set, wins
// outright; otherwise a live discovery query runs, with Fallback (or
// DefaultFallback) covering discovery failure. All fields are read-only
// after construction.
type Resolver struct {
	// Explicit, when non-empty, is returned as the sole candidate.
	Explicit   string
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
	// Timeout bounds the discovery call. Zero disables the bound.
	Timeout time.Duration
	// Fallback overrides DefaultFallback when non-nil.
	Fallback []string
}

// Candidates resolves the ordered candidate list. It never returns an
// empty slice: discovery failures degrade to the static fallback list.
func (r *Resolver) Candidates(ctx context.Context) []Candidate {
	if id := strings.TrimSpace(r.Explicit); id != "" {
		return []Candidate{{Identifier: id, Origin: OriginExplicit}}
	}

	discovered, err := r.discover(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("model discovery failed, using static fallback")
	} else if len(discovered) == 0 {
		log.Warn().Msg("model discovery returned no usable models, using static fallback")
	} else {
		out := make([]Candidate, 0, len(discovered))
		for _, id := range discovered {
			out = append(out, Candidate{Identifier: id, Origin: OriginDiscovered})
		}
		return out
	}

	fallback := r.Fallback
	if fallback == nil {
		fallback = DefaultFallback
	}
	out := make([]Candidate, 0, len(fallback))
	for _, id := range fallback {
		out = append(out, Candidate{Identifier: id, Origin: OriginStaticFallback})
	}
	return out
}

// discover queries the provider's model-listing endpoint and filters to
// models usable for free-form content generation, preserving the
// provider's returned order.
func (r *Resolver) discover(ctx context.Context) ([]string, error) {
	base := r.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	u, err := url.Parse(base)
	if err != nil {
		return nil, err
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/models"
	q := u.Query()
	q.Set("key", r.APIKey)
	u.RawQuery = q.Encode()

	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	hc := r.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("models endpoint status: %d", resp.StatusCode)
	}

	var mr modelsResponse
	if err := json.NewDecoder(resp.Body).Decode(&mr); err != nil {
		return nil, err
	}
	out := make([]string, 0, len(mr.Models))
	for _, m := range mr.Models {
		if m.Name == "" || !supportsGeneration(m.SupportedGenerationMethods) {
			continue
		}
		if isEmbeddingModel(m.Name) {
			continue
		}
		out = append(out, strings.TrimPrefix(m.Name, "models/"))
	}
	return out, nil
}

type modelsResponse struct {
	Models []struct {
		Name                       string   `json:"name"`
		SupportedGenerationMethods []string `json:"supportedGenerationMethods"`
	} `json:"models"`
}

func supportsGeneration(methods []string) bool {
	for _, m := range methods {
		if m == "generateContent" {
			return true
		}
	}
	return false
}

func isEmbeddingModel(name string) bool {
	n := strings.ToLower(name)
	return strings.Contains(n, "embedding") || strings.Contains(n, "embed")
}
