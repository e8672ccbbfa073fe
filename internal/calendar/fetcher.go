package calendar

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

const (
	fetchTimeout = 15 * time.Second
	// maxFeedBytes caps a single feed download; anything past a few megabytes
	// is not a personal calendar.
	maxFeedBytes = 8 << 20
)

// FetchResult is the outcome of pulling one feed.
type FetchResult struct {
	Source    Source
	Body      []byte
	FromCache bool
}

// cacheEntry keeps the conditional-request state for one feed URL.
type cacheEntry struct {
	etag         string
	lastModified string
	body         []byte
}

// Fetcher downloads ICS feeds with ETag/Last-Modified revalidation and falls
// back to the last good body when a feed is temporarily unreachable.
type Fetcher struct {
	client *http.Client
	logger *slog.Logger

	mu    sync.Mutex
	cache map[string]cacheEntry
}

// NewFetcher builds a fetcher. A nil client gets a sane default timeout.
func NewFetcher(client *http.Client, logger *slog.Logger) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: fetchTimeout}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{
		client: client,
		logger: logger,
		cache:  make(map[string]cacheEntry),
	}
}

// FetchAll pulls every source, collecting per-source failures instead of
// aborting the batch: one broken feed must not hide the others.
func (f *Fetcher) FetchAll(ctx context.Context, sources []Source) ([]FetchResult, []error) {
	results := make([]FetchResult, 0, len(sources))
	var errs []error
	for _, src := range sources {
		res, err := f.FetchOne(ctx, src)
		if err != nil {
			errs = append(errs, fmt.Errorf("source %s: %w", src.Name, err))
			f.logger.Error("calendar fetch failed", "source", src.Name, "url", redactURL(src.URL), "error", err)
			continue
		}
		results = append(results, res)
	}
	return results, errs
}

// FetchOne downloads a single feed, honoring conditional request headers.
func (f *Fetcher) FetchOne(ctx context.Context, src Source) (FetchResult, error) {
	if src.URL == "" {
		return FetchResult{}, errors.New("calendar: source url is empty")
	}

	f.mu.Lock()
	cached, hasCache := f.cache[src.URL]
	f.mu.Unlock()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.FetchURL(), nil)
	if err != nil {
		return FetchResult{}, err
	}
	if cached.etag != "" {
		req.Header.Set("If-None-Match", cached.etag)
	}
	if cached.lastModified != "" {
		req.Header.Set("If-Modified-Since", cached.lastModified)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		if hasCache && len(cached.body) > 0 {
			f.logger.Warn("calendar fetch failed, serving cached body", "source", src.Name, "url", redactURL(src.URL), "error", err)
			return FetchResult{Source: src, Body: cached.body, FromCache: true}, nil
		}
		return FetchResult{}, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		body, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBytes))
		if err != nil {
			return FetchResult{}, err
		}
		f.mu.Lock()
		f.cache[src.URL] = cacheEntry{
			etag:         resp.Header.Get("ETag"),
			lastModified: resp.Header.Get("Last-Modified"),
			body:         body,
		}
		f.mu.Unlock()
		return FetchResult{Source: src, Body: body}, nil

	case http.StatusNotModified:
		if !hasCache || len(cached.body) == 0 {
			return FetchResult{}, errors.New("calendar: 304 received without a cached body")
		}
		return FetchResult{Source: src, Body: cached.body, FromCache: true}, nil

	default:
		if hasCache && len(cached.body) > 0 {
			f.logger.Warn("calendar fetch returned non-OK status, serving cached body", "source", src.Name, "url", redactURL(src.URL), "status", resp.StatusCode)
			return FetchResult{Source: src, Body: cached.body, FromCache: true}, nil
		}
		return FetchResult{}, fmt.Errorf("calendar: unexpected status %s", resp.Status)
	}
}
