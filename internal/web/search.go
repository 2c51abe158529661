// Package web implements the search and fetch collaborators used by the
// Web Search and RAG features.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"
)

const (
	searchTimeout     = 30 * time.Second
	defaultMaxResults = 5
	maxResultsCap     = 20
)

// Default search endpoints, one per backend.
const (
	TavilyEndpoint     = "https://api.tavily.com/search"
	ExaEndpoint        = "https://api.exa.ai/search"
	JinaEndpoint       = "https://s.jina.ai"
	DuckDuckGoEndpoint = "https://html.duckduckgo.com/html/"
)

// Result is one ranked search hit.
type Result struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet,omitempty"`
}

// Searcher searches the web using a configurable backend.
type Searcher struct {
	Provider   string // "tavily", "exa", "jina" or "duckduckgo"
	APIKey     string
	MaxResults int

	// Endpoint overrides the backend's default URL.
	Endpoint string
	Client   *http.Client
}

// NewSearcher creates a Searcher.
// Provider priority: explicit > tavily (if key set) > duckduckgo (keyless fallback).
func NewSearcher(provider, apiKey string, maxResults int) *Searcher {
	if provider == "" {
		if apiKey != "" {
			provider = "tavily"
		} else {
			provider = "duckduckgo"
		}
	}
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}
	if maxResults > maxResultsCap {
		maxResults = maxResultsCap
	}
	return &Searcher{Provider: provider, APIKey: apiKey, MaxResults: maxResults}
}

// Search returns ranked results for query.
func (s *Searcher) Search(ctx context.Context, query string) ([]Result, error) {
	if strings.TrimSpace(query) == "" {
		return nil, errors.New("query is required")
	}
	limit := s.MaxResults
	if limit <= 0 {
		limit = defaultMaxResults
	}

	ctx, cancel := context.WithTimeout(ctx, searchTimeout)
	defer cancel()

	switch s.Provider {
	case "tavily":
		return s.searchTavily(ctx, query, limit)
	case "exa":
		return s.searchExa(ctx, query, limit)
	case "jina":
		return s.searchJina(ctx, query, limit)
	case "duckduckgo", "ddg":
		return s.searchDuckDuckGo(ctx, query, limit)
	default:
		return nil, fmt.Errorf("unknown search provider %q", s.Provider)
	}
}

func (s *Searcher) client() *http.Client {
	if s.Client != nil {
		return s.Client
	}
	return http.DefaultClient
}

func (s *Searcher) endpoint(def string) string {
	if s.Endpoint != "" {
		return s.Endpoint
	}
	return def
}

func (s *Searcher) do(req *http.Request, backend string) (*http.Response, error) {
	resp, err := s.client().Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s search request failed: %w", backend, err)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		resp.Body.Close()
		return nil, fmt.Errorf("%s API error (HTTP %d): %s", backend, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return resp, nil
}

// searchTavily queries the Tavily search API.
func (s *Searcher) searchTavily(ctx context.Context, query string, maxResults int) ([]Result, error) {
	if s.APIKey == "" {
		return nil, errors.New("tavily API key not configured; set web.search_api_key or TAVILY_API_KEY")
	}

	reqBody, _ := json.Marshal(map[string]any{
		"query":        query,
		"max_results":  maxResults,
		"search_depth": "basic",
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint(TavilyEndpoint), strings.NewReader(string(reqBody)))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.APIKey)

	resp, err := s.do(req, "tavily")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var result struct {
		Results []struct {
			Title   string `json:"title"`
			URL     string `json:"url"`
			Content string `json:"content"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to parse tavily response: %w", err)
	}

	results := make([]Result, 0, len(result.Results))
	for _, r := range result.Results {
		results = append(results, Result{Title: r.Title, URL: r.URL, Snippet: r.Content})
	}
	return results, nil
}

// searchExa queries the Exa search API.
func (s *Searcher) searchExa(ctx context.Context, query string, maxResults int) ([]Result, error) {
	if s.APIKey == "" {
		return nil, errors.New("exa API key not configured; set web.search_api_key or EXA_API_KEY")
	}

	reqBody, _ := json.Marshal(map[string]any{
		"query":      query,
		"numResults": maxResults,
		"type":       "auto",
		"contents": map[string]any{
			"text": map[string]any{
				"maxCharacters": 300,
			},
		},
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint(ExaEndpoint), strings.NewReader(string(reqBody)))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", s.APIKey)

	resp, err := s.do(req, "exa")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var result struct {
		Results []struct {
			Title string `json:"title"`
			URL   string `json:"url"`
			Text  string `json:"text"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to parse exa response: %w", err)
	}

	results := make([]Result, 0, len(result.Results))
	for _, r := range result.Results {
		results = append(results, Result{Title: r.Title, URL: r.URL, Snippet: r.Text})
	}
	return results, nil
}

// searchJina queries the Jina Search API. A key is optional.
func (s *Searcher) searchJina(ctx context.Context, query string, maxResults int) ([]Result, error) {
	searchURL := strings.TrimRight(s.endpoint(JinaEndpoint), "/") + "/" + url.PathEscape(query)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", fetchUserAgent)
	if s.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.APIKey)
	}

	resp, err := s.do(req, "jina")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var result struct {
		Data []struct {
			Title       string `json:"title"`
			URL         string `json:"url"`
			Description string `json:"description"`
			Content     string `json:"content"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to parse jina response: %w", err)
	}

	results := make([]Result, 0, maxResults)
	for i, item := range result.Data {
		if i >= maxResults {
			break
		}
		snippet := item.Description
		if snippet == "" {
			snippet = item.Content
			if len(snippet) > 300 {
				snippet = snippet[:300] + "..."
			}
		}
		results = append(results, Result{Title: item.Title, URL: item.URL, Snippet: snippet})
	}
	return results, nil
}

// searchDuckDuckGo scrapes the DuckDuckGo HTML interface. No key required.
func (s *Searcher) searchDuckDuckGo(ctx context.Context, query string, maxResults int) ([]Result, error) {
	searchURL := s.endpoint(DuckDuckGoEndpoint) + "?q=" + url.QueryEscape(query)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := s.do(req, "duckduckgo")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return parseDuckDuckGoResults(string(body), maxResults)
}

// parseDuckDuckGoResults extracts results from the DuckDuckGo HTML page.
func parseDuckDuckGoResults(page string, maxResults int) ([]Result, error) {
	doc, err := html.Parse(strings.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	var results []Result
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if len(results) >= maxResults {
			return
		}
		if n.Type == html.ElementNode && n.Data == "div" && hasClass(n, "result") && hasClass(n, "results_links") {
			if r := extractResult(n); r.URL != "" && r.Title != "" {
				results = append(results, r)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return results, nil
}

func extractResult(n *html.Node) Result {
	var r Result
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			switch {
			case hasClass(n, "result__a"):
				r.URL = attr(n, "href")
				r.Title = textContent(n)
			case hasClass(n, "result__snippet"):
				r.Snippet = textContent(n)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	r.URL = unwrapRedirect(r.URL)
	return r
}

// unwrapRedirect turns "//duckduckgo.com/l/?uddg=<target>&rut=..." into <target>.
func unwrapRedirect(raw string) string {
	if !strings.Contains(raw, "duckduckgo.com/l/") {
		return raw
	}
	if strings.HasPrefix(raw, "//") {
		raw = "https:" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	if target := u.Query().Get("uddg"); target != "" {
		return target
	}
	return raw
}

func hasClass(n *html.Node, class string) bool {
	for _, f := range strings.Fields(attr(n, "class")) {
		if f == class {
			return true
		}
	}
	return false
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	var parts []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				parts = append(parts, t)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(parts, " ")
}

// FormatResults renders results as a numbered list for display.
func FormatResults(query string, results []Result) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Search results for: %s\n\n", query)
	if len(results) == 0 {
		sb.WriteString("No results found.")
		return sb.String()
	}
	for i, r := range results {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, r.Title)
		fmt.Fprintf(&sb, "   URL: %s\n", r.URL)
		if r.Snippet != "" {
			fmt.Fprintf(&sb, "   %s\n", r.Snippet)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
