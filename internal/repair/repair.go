// Package repair normalizes raw provider output into a validated event:
// fence stripping, JSON parsing, deterministic defaulting and image URL
// resolution, followed by schema validation.
package repair

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/nazoreki/nazoreki-api/internal/event"
)

// TitlePlaceholder is substituted when the provider omits the title.
// A degraded success is preferred over a failed extraction; together with
// the start-date default this means a softly failed extraction can yield a
// record with fabricated required fields. That trade-off is deliberate and
// documented rather than fixed.
const TitlePlaceholder = "Untitled event"

// ParseError indicates the provider response was not valid JSON even after
// fence stripping. Not candidate-specific: retrying another model is no
// reliable cure, so the pipeline treats it as fatal.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("provider response is not valid JSON: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Repairer applies the repair-and-validate contract. Now is injectable for
// deterministic start-date defaulting in tests; nil means time.Now.
type Repairer struct {
	Now func() time.Time
}

// RepairAndValidate turns raw model output into a schema-valid event.
// fallbackImage is the candidate image found during content extraction; it
// fills image_url when the payload omits one, and backstops failed
// resolution of a relative payload value against sourceURL.
func (r *Repairer) RepairAndValidate(raw, sourceURL, fallbackImage string) (event.Extracted, error) {
	var ev event.Extracted
	if err := json.Unmarshal([]byte(stripFences(raw)), &ev); err != nil {
		return event.Extracted{}, &ParseError{Err: err}
	}

	// Backfill policy: title and start_date are the only fields ever
	// synthesized. Everything else stays null when absent.
	if strings.TrimSpace(ev.Title) == "" {
		ev.Title = TitlePlaceholder
	}
	if strings.TrimSpace(ev.StartDate) == "" {
		now := r.Now
		if now == nil {
			now = time.Now
		}
		ev.StartDate = now().Format("2006-01-02")
	}

	ev.ImageURL = resolveImage(ev.ImageURL, sourceURL, fallbackImage)

	if err := event.Validate(ev); err != nil {
		return event.Extracted{}, err
	}
	return ev, nil
}

// resolveImage applies the image_url policy: absent values take the
// extractor's fallback, relative values resolve against the source URL,
// and failed resolution degrades to the fallback instead of erroring.
func resolveImage(payload *string, sourceURL, fallbackImage string) *string {
	if payload == nil || strings.TrimSpace(*payload) == "" {
		if fallbackImage != "" {
			return &fallbackImage
		}
		return nil
	}
	img := strings.TrimSpace(*payload)
	if strings.HasPrefix(img, "http://") || strings.HasPrefix(img, "https://") {
		return &img
	}
	base, err := url.Parse(sourceURL)
	if err == nil {
		if resolved, rerr := base.Parse(img); rerr == nil && resolved.IsAbs() {
			s := resolved.String()
			return &s
		}
	}
	if fallbackImage != "" {
		return &fallbackImage
	}
	return &img
}

// stripFences removes Markdown code-fence wrapping, which providers
// sometimes add despite the JSON-only instruction.
func stripFences(s string) string {
	t := strings.TrimSpace(s)
	if !strings.HasPrefix(t, "```") {
		return t
	}
	t = strings.TrimPrefix(t, "```")
	t = strings.TrimPrefix(t, "json")
	if i := strings.LastIndex(t, "```"); i >= 0 {
		t = t[:i]
	}
	return strings.TrimSpace(t)
}
