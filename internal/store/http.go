package store

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPFetcher fetches blob bytes from signed URLs over plain HTTP(S).
// Expired or revoked links come back as ErrLinkExpired so the caller can
// surface a load error instead of a crash.
type HTTPFetcher struct {
	client   *http.Client
	maxBytes int64
}

// NewHTTPFetcher creates a fetcher bounded to maxBytes per download.
func NewHTTPFetcher(maxBytes int64) *HTTPFetcher {
	return &HTTPFetcher{
		client:   &http.Client{Timeout: 60 * time.Second},
		maxBytes: maxBytes,
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch document: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusForbidden, http.StatusGone, http.StatusUnauthorized:
		return nil, fmt.Errorf("fetch %s: status %d: %w", url, resp.StatusCode, ErrLinkExpired)
	default:
		return nil, fmt.Errorf("fetch %s: unexpected status %d", url, resp.StatusCode)
	}

	limit := f.maxBytes
	if limit <= 0 {
		limit = 100 * 1024 * 1024
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read document body: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("document exceeds size limit of %d bytes", limit)
	}
	return data, nil
}
