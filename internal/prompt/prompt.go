// Package prompt renders the extraction instructions sent to the provider.
package prompt

import "strings"

// instructions is the fixed field contract. title and start_date must
// always come back as strings; the remaining fields are nullable.
const instructions = `Extract the mystery-solving event described by the web page text below and return it as a single JSON object.

Required fields (always return a string, never null):
- title: event name or title
- start_date: first day in YYYY-MM-DD form; when no date can be determined, return today's date or a reasonable estimate

Optional fields (return null when unknown):
- end_date: last day in YYYY-MM-DD form, or null for permanent runs
- location: venue or meeting point
- area: prefecture or major area (e.g. Tokyo, Kanagawa, Kansai)
- type: event style (e.g. strolling, hall, room, online; free text)
- maker: producing company or organizer (e.g. SCRAP, NAZO)
- price: price information (e.g. 3,500 yen, reservation required)
- description: story or summary
- image_url: main visual image URL in absolute form

Respond with the JSON object only. No explanation or surrounding text.
title and start_date must always be returned as strings.`

// Build renders the full prompt for one extraction. It is pure and
// deterministic: the source URL and extracted page text are embedded
// verbatim between the instruction block.
func Build(sourceURL, text string) string {
	var sb strings.Builder
	sb.WriteString(instructions)
	sb.WriteString("\n\nURL: ")
	sb.WriteString(sourceURL)
	sb.WriteString("\n\nText:\n")
	sb.WriteString(text)
	sb.WriteString("\n")
	return sb.String()
}
