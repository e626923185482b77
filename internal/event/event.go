// Package event defines the structured event record the extraction
// pipeline produces and the schema checks applied before one is returned.
package event

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Extracted is a single event as extracted from a listing page. Title and
// StartDate are always present in a value returned by the pipeline; every
// other field is nullable and marshals as JSON null when unknown.
type Extracted struct {
	Title     string  `json:"title"`
	StartDate string  `json:"start_date"`
	EndDate   *string `json:"end_date"`
	Location  *string `json:"location"`
	Area      *string `json:"area"`
	// Type is a free-form label such as "strolling" or "online". Provider
	// output varies too much to constrain it to a closed set.
	Type        *string `json:"type"`
	Maker       *string `json:"maker"`
	Price       *string `json:"price"`
	Description *string `json:"description"`
	ImageURL    *string `json:"image_url"`
}

// ValidationError reports every schema violation found in an extracted
// event, one message per offending field.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "extracted event failed validation: " + strings.Join(e.Fields, "; ")
}

const dateLayout = "2006-01-02"

// Validate checks an extracted event against the schema: non-empty title,
// calendar dates in YYYY-MM-DD form, and a well-formed absolute URL for
// image_url when present. It returns a *ValidationError listing all
// offending fields, or nil.
func Validate(ev Extracted) error {
	var fields []string
	if strings.TrimSpace(ev.Title) == "" {
		fields = append(fields, "title: must be a non-empty string")
	}
	if strings.TrimSpace(ev.StartDate) == "" {
		fields = append(fields, "start_date: must be a non-empty string")
	} else if _, err := time.Parse(dateLayout, ev.StartDate); err != nil {
		fields = append(fields, fmt.Sprintf("start_date: %q is not a YYYY-MM-DD date", ev.StartDate))
	}
	if ev.EndDate != nil && strings.TrimSpace(*ev.EndDate) != "" {
		if _, err := time.Parse(dateLayout, *ev.EndDate); err != nil {
			fields = append(fields, fmt.Sprintf("end_date: %q is not a YYYY-MM-DD date", *ev.EndDate))
		}
	}
	if ev.ImageURL != nil && *ev.ImageURL != "" {
		if u, err := url.Parse(*ev.ImageURL); err != nil || !u.IsAbs() || u.Host == "" {
			fields = append(fields, fmt.Sprintf("image_url: %q is not an absolute URL", *ev.ImageURL))
		}
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}
