package webcontext

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/go-shiori/go-readability"
)

const fetchTimeout = 10 * time.Second

// DuckDuckGoProvider implements SearchProvider against DuckDuckGo's HTML
// lite search results, since no API key is required for it.
type DuckDuckGoProvider struct {
	client *http.Client
}

// NewDuckDuckGoProvider builds a DuckDuckGoProvider.
func NewDuckDuckGoProvider() *DuckDuckGoProvider {
	return &DuckDuckGoProvider{client: &http.Client{Timeout: fetchTimeout}}
}

var _ SearchProvider = (*DuckDuckGoProvider)(nil)

// Search queries DuckDuckGo's HTML search endpoint and scrapes up to
// maxResults hits from the result markup.
func (p *DuckDuckGoProvider) Search(ctx context.Context, query string, maxResults int) ([]SearchResult, error) {
	endpoint := "https://html.duckduckgo.com/html/?q=" + url.QueryEscape(query)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "ragctl/1.0")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("duckduckgo returned %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return parseDuckDuckGoHTML(string(body), maxResults), nil
}

var (
	resultBlockPattern = regexp.MustCompile(`(?s)<a[^>]+class="result__a"[^>]+href="([^"]+)"[^>]*>(.*?)</a>.*?<a[^>]+class="result__snippet"[^>]*>(.*?)</a>`)
	tagStripPattern    = regexp.MustCompile(`<[^>]+>`)
)

func parseDuckDuckGoHTML(html string, maxResults int) []SearchResult {
	matches := resultBlockPattern.FindAllStringSubmatch(html, -1)
	results := make([]SearchResult, 0, len(matches))
	for _, m := range matches {
		if len(results) >= maxResults {
			break
		}
		results = append(results, SearchResult{
			Href:  html_unescape(m[1]),
			Title: stripTags(m[2]),
			Body:  stripTags(m[3]),
		})
	}
	return results
}

func stripTags(s string) string {
	return strings.TrimSpace(tagStripPattern.ReplaceAllString(s, ""))
}

func html_unescape(s string) string {
	replacer := strings.NewReplacer("&amp;", "&", "&lt;", "<", "&gt;", ">", "&quot;", `"`, "&#39;", "'")
	return replacer.Replace(s)
}

// jinaReaderBase is the Jina Reader proxy: fetching <base><url> returns a
// cleaned, LLM-friendly text rendering of the page.
const jinaReaderBase = "https://r.jina.ai/"

// JinaFetcher fetches pages through the Jina Reader proxy, falling back to
// a direct fetch (DirectFetcher) when the proxy's output is too short.
type JinaFetcher struct {
	client *http.Client
	direct *DirectFetcher
}

// NewJinaFetcher builds a JinaFetcher with a direct-fetch fallback.
func NewJinaFetcher() *JinaFetcher {
	return &JinaFetcher{client: &http.Client{Timeout: fetchTimeout}, direct: NewDirectFetcher()}
}

var _ Fetcher = (*JinaFetcher)(nil)

// Fetch tries the Jina Reader proxy first and falls back to a direct fetch
// if the proxy's stripped body is 100 characters or fewer, or it fails.
func (f *JinaFetcher) Fetch(ctx context.Context, pageURL string) (string, error) {
	text, err := f.fetchViaJina(ctx, pageURL)
	if err == nil && len(strings.TrimSpace(text)) > 100 {
		return truncate(text, fetchMaxChars), nil
	}
	return f.direct.Fetch(ctx, pageURL)
}

func (f *JinaFetcher) fetchViaJina(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, jinaReaderBase+pageURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", "ragctl/1.0")
	req.Header.Set("Accept", "text/markdown")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("jina reader returned %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// DirectFetcher fetches a page directly and extracts its main text via
// go-readability, falling back to a crude tag-strip on extraction failure.
type DirectFetcher struct {
	client *http.Client
}

// NewDirectFetcher builds a DirectFetcher.
func NewDirectFetcher() *DirectFetcher {
	return &DirectFetcher{client: &http.Client{Timeout: fetchTimeout}}
}

var _ Fetcher = (*DirectFetcher)(nil)

var (
	scriptPattern = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	stylePattern  = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
	spacePattern  = regexp.MustCompile(`\s+`)
)

// Fetch retrieves pageURL and extracts its main readable text.
func (f *DirectFetcher) Fetch(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", "ragctl/1.0")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch %s returned %d", pageURL, resp.StatusCode)
	}

	parsed, err := url.Parse(pageURL)
	if err != nil {
		return "", err
	}

	article, err := readability.FromReader(resp.Body, parsed)
	if err == nil && strings.TrimSpace(article.TextContent) != "" {
		return truncate(article.TextContent, fetchMaxChars), nil
	}

	// readability failed to extract a usable body; re-fetch and strip tags
	// crudely as a last resort.
	req2, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", err
	}
	resp2, err := f.client.Do(req2)
	if err != nil {
		return "", err
	}
	defer resp2.Body.Close()
	raw, err := io.ReadAll(resp2.Body)
	if err != nil {
		return "", err
	}
	text := scriptPattern.ReplaceAllString(string(raw), "")
	text = stylePattern.ReplaceAllString(text, "")
	text = tagStripPattern.ReplaceAllString(text, " ")
	text = spacePattern.ReplaceAllString(text, " ")
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("no extractable text at %s", pageURL)
	}
	return truncate(text, fetchMaxChars), nil
}
