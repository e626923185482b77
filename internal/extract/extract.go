// Package extract derives plain text and a best-effort primary image URL
// from listing-page HTML.
package extract

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// MaxTextRunes bounds the extracted page text. Truncation is positional,
// not smart; the cap keeps provider cost and latency in check.
const MaxTextRunes = 10000

// Content is the usable part of one fetched page. ImageURL is empty when
// the page offers neither an Open Graph image nor an <img> element.
type Content struct {
	Text     string
	ImageURL string
}

// FromHTML parses a page and extracts its visible text and primary image.
// Image resolution prefers the Open Graph image meta value and falls back
// to the first <img> in document order; relative values are resolved
// against base. Script, style, nav, footer and header subtrees are dropped
// before text collection, and whitespace runs collapse to single spaces.
func FromHTML(input []byte, base *url.URL) (Content, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(input))
	if err != nil {
		return Content{}, fmt.Errorf("parse html: %w", err)
	}

	imageURL := ""
	if og, ok := doc.Find(`meta[property="og:image"]`).Attr("content"); ok && strings.TrimSpace(og) != "" {
		imageURL = resolveRef(base, strings.TrimSpace(og))
	}
	if imageURL == "" {
		if src, ok := doc.Find("img").First().Attr("src"); ok && strings.TrimSpace(src) != "" {
			imageURL = resolveRef(base, strings.TrimSpace(src))
		}
	}

	doc.Find("script, style, nav, footer, header").Remove()
	text := collapseWhitespace(doc.Find("body").Text())
	if runes := []rune(text); len(runes) > MaxTextRunes {
		text = string(runes[:MaxTextRunes])
	}

	return Content{Text: text, ImageURL: imageURL}, nil
}

// resolveRef joins ref against base. Absolute refs pass through unchanged;
// unresolvable refs are returned as-is rather than dropped, leaving the
// final judgement to schema validation.
func resolveRef(base *url.URL, ref string) string {
	if base == nil {
		return ref
	}
	u, err := base.Parse(ref)
	if err != nil {
		return ref
	}
	return u.String()
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
