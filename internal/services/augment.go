package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/campushub/campushub-backend/internal/search"
)

// SearchProvider is the external web search capability consumed by the chat
// pipeline. *search.Client implements it.
type SearchProvider interface {
	Search(ctx context.Context, query string, opts search.Options) ([]search.Result, error)
}

// searchTriggers is the fixed list of phrases that cause a message to be
// augmented with web search context. Plain substring containment, not an
// intent classifier; false positives and negatives are acceptable.
var searchTriggers = []string{
	"search for",
	"search the web",
	"what is",
	"what are",
	"who is",
	"how to",
	"tell me about",
	"latest news about",
	"current status of",
	"recent developments in",
	"look up",
	"find information",
}

// needsWebSearch reports whether a message matches any trigger phrase
func needsWebSearch(message string) bool {
	lower := strings.ToLower(message)
	for _, trigger := range searchTriggers {
		if strings.Contains(lower, trigger) {
			return true
		}
	}
	return false
}

// formatSearchContext renders results as a suffix block for the prompt copy
// of the user's message. The persisted message is never modified.
func formatSearchContext(results []search.Result) string {
	if len(results) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("\n\nRelevant web results:\n")
	for i, r := range results {
		b.WriteString(fmt.Sprintf("\n%d. %s (%s)\n%s\n", i+1, r.Title, r.Source, r.Snippet))
	}
	return b.String()
}
