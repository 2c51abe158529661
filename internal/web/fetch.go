package web

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
)

const (
	DefaultFetchTimeout = 10 * time.Second
	fetchMaxBodySize    = 5 * 1024 * 1024 // 5MB
	fetchUserAgent      = "fr3kai/1.0 (terminal assistant)"
	fetchCacheTTL       = 15 * time.Minute
	fetchCacheMax       = 100
)

type fetchCacheEntry struct {
	content   string
	fetchedAt time.Time
}

// Fetcher retrieves a URL and returns its readable text. HTML is converted to
// markdown; plain text passes through. Results are cached for 15 minutes.
type Fetcher struct {
	Timeout time.Duration
	Client  *http.Client

	mu    sync.Mutex
	cache map[string]fetchCacheEntry
}

// NewFetcher returns a Fetcher with the given per-request timeout (0 = 10s).
func NewFetcher(timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	return &Fetcher{Timeout: timeout}
}

// FetchText fetches rawURL. Network errors, timeouts and non-2xx statuses are errors.
func (f *Fetcher) FetchText(ctx context.Context, rawURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("invalid URL %q: only http and https are supported", rawURL)
	}
	if u.Host == "" {
		return "", fmt.Errorf("invalid URL %q: missing host", rawURL)
	}
	fetchURL := u.String()

	if cached, ok := f.cacheGet(fetchURL); ok {
		return cached, nil
	}

	timeout := f.Timeout
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fetchURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", fetchUserAgent)
	req.Header.Set("Accept", "text/html,text/plain,text/markdown,application/xhtml+xml")

	client := f.Client
	if client == nil {
		client = &http.Client{
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return errors.New("too many redirects")
				}
				return nil
			},
		}
	}

	resp, err := client.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("fetch %s: timed out after %s", fetchURL, timeout)
		}
		return "", fmt.Errorf("fetch %s: %w", fetchURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("fetch %s: HTTP %d %s", fetchURL, resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, fetchMaxBodySize+1))
	if err != nil {
		return "", fmt.Errorf("fetch %s: failed to read response: %w", fetchURL, err)
	}
	if len(body) > fetchMaxBodySize {
		body = body[:fetchMaxBodySize]
	}

	content, err := toText(resp.Header.Get("Content-Type"), body)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", fetchURL, err)
	}

	f.cacheSet(fetchURL, content)
	return content, nil
}

// toText converts a response body according to its content type.
func toText(contentType string, body []byte) (string, error) {
	switch {
	case strings.Contains(contentType, "text/html"),
		strings.Contains(contentType, "application/xhtml"):
		md, err := htmltomarkdown.ConvertString(string(body))
		if err != nil {
			return string(body), nil
		}
		return md, nil
	case strings.Contains(contentType, "text/"),
		strings.Contains(contentType, "application/json"):
		return string(body), nil
	default:
		if len(body) == 0 || isLikelyText(body) {
			return string(body), nil
		}
		return "", fmt.Errorf("unsupported content type: %s", contentType)
	}
}

func (f *Fetcher) cacheGet(key string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.cache[key]
	if !ok || time.Since(e.fetchedAt) > fetchCacheTTL {
		if ok {
			delete(f.cache, key)
		}
		return "", false
	}
	return e.content, true
}

func (f *Fetcher) cacheSet(key, content string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cache == nil {
		f.cache = make(map[string]fetchCacheEntry)
	}
	// Evict expired entries when the cache grows large.
	if len(f.cache) > fetchCacheMax {
		now := time.Now()
		for k, e := range f.cache {
			if now.Sub(e.fetchedAt) > fetchCacheTTL {
				delete(f.cache, k)
			}
		}
	}
	f.cache[key] = fetchCacheEntry{content: content, fetchedAt: time.Now()}
}

// isLikelyText checks if content is likely text (not binary).
func isLikelyText(data []byte) bool {
	check := data
	if len(check) > 512 {
		check = check[:512]
	}
	for _, b := range check {
		if b == 0 {
			return false
		}
	}
	return true
}
