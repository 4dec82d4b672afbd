// Package webcontext builds a formatted context block from URLs in the
// query and web search results, for grounding answers in live web content.
package webcontext

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/rag-engine/ragctl/internal/errors"
	"github.com/rag-engine/ragctl/internal/logger"
)

const (
	// WebSnippetMax is how many search results are considered.
	WebSnippetMax = 8
	// WebFetchMax is how many of those results get a full-page fetch
	// attempt rather than just their snippet body.
	WebFetchMax = 3
	// fetchMaxChars is the first-stage truncation applied to a fetched
	// page body.
	fetchMaxChars = 8000
	// insertMaxChars is the second-stage truncation applied just before a
	// body is inserted into the context block.
	insertMaxChars = 4000
)

var urlPattern = regexp.MustCompile(`https?://[^\s)\]"']+`)

// ExtractURLs returns the unique, order-preserved HTTP/HTTPS URLs found in
// text, with trailing punctuation stripped.
func ExtractURLs(text string) []string {
	found := urlPattern.FindAllString(text, -1)
	seen := make(map[string]bool, len(found))
	out := make([]string, 0, len(found))
	for _, u := range found {
		u = strings.TrimRight(u, ".,;:!?)")
		if seen[u] {
			continue
		}
		seen[u] = true
		out = append(out, u)
	}
	return out
}

// SearchResult is one hit from a web search provider.
type SearchResult struct {
	Title string
	Href  string
	Body  string
}

// SearchProvider looks up web search results for a query.
type SearchProvider interface {
	Search(ctx context.Context, query string, maxResults int) ([]SearchResult, error)
}

// Fetcher retrieves and extracts the main text content of a page.
type Fetcher interface {
	Fetch(ctx context.Context, pageURL string) (string, error)
}

// part is one segment of the assembled context block.
type part struct {
	url   string
	title string
	body  string
}

// Builder assembles the web-context block per spec §4.F's ordering: URLs
// named in the query are fetched first and get priority placement, then
// search results fill out the remainder.
type Builder struct {
	search  SearchProvider
	fetcher Fetcher
}

// New builds a Builder over the given search provider and fetcher.
func New(search SearchProvider, fetcher Fetcher) *Builder {
	return &Builder{search: search, fetcher: fetcher}
}

// Build returns the formatted context block for query, or "" if nothing
// could be gathered.
func (b *Builder) Build(ctx context.Context, query string) string {
	var parts []part
	seen := make(map[string]bool)

	for _, u := range ExtractURLs(query) {
		if seen[u] {
			continue
		}
		seen[u] = true
		text, err := b.fetcher.Fetch(ctx, u)
		if err != nil {
			logger.Event("fetch_url_error", map[string]any{"url": truncate(u, 80), "error": errors.FetchError(err).Error()})
			continue
		}
		title := hostOf(u)
		if text == "" {
			continue
		}
		if len(text) > 50 {
			parts = append(parts, part{url: u, title: title, body: truncate(text, insertMaxChars)})
		} else {
			parts = append(parts, part{url: u, title: title, body: text})
		}
	}

	results, err := b.search.Search(ctx, query, WebSnippetMax)
	if err != nil {
		logger.Event("web_search_error", map[string]any{"query": truncate(query, 50), "error": errors.WebSearchError(err).Error()})
		results = nil
	}
	fetchAttempts := 0
	for _, r := range results {
		href := strings.TrimSpace(r.Href)
		title := strings.TrimSpace(r.Title)
		if href == "" || seen[href] {
			continue
		}
		seen[href] = true

		var body string
		if fetchAttempts < WebFetchMax {
			fetchAttempts++
			if text, err := b.fetcher.Fetch(ctx, href); err == nil && len(text) > 200 {
				body = truncate(text, insertMaxChars)
			} else {
				body = strings.TrimSpace(r.Body)
			}
		} else {
			body = strings.TrimSpace(r.Body)
		}
		if body != "" {
			parts = append(parts, part{url: href, title: title, body: body})
		}
	}

	if len(parts) == 0 {
		return ""
	}
	segments := make([]string, len(parts))
	for i, p := range parts {
		segments[i] = fmt.Sprintf("[%d] [url: %s] [title: %s]\n%s", i+1, p.url, p.title, p.body)
	}
	return strings.Join(segments, "\n\n---\n\n")
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return rawURL
	}
	return u.Host
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
