// Package search holds web search result types.
package search

import "strings"

// Result is a single web search hit.
type Result struct {
	Title   string
	URL     string
	Snippet string
}

// NoResults is the observation returned to the model when a search finds nothing.
const NoResults = "No good DuckDuckGo Search Result was found"

// Render flattens results into the raw text handed to the model: snippets joined by spaces.
func Render(results []Result) string {
	parts := make([]string, 0, len(results))
	for _, r := range results {
		text := strings.TrimSpace(r.Snippet)
		if text == "" {
			text = strings.TrimSpace(r.Title)
		}
		if text != "" {
			parts = append(parts, text)
		}
	}
	if len(parts) == 0 {
		return NoResults
	}
	return strings.Join(parts, " ")
}
