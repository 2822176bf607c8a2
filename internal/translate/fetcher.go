package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"
)

// HTTPFetcher asks a translation endpoint for labels with
// GET <endpoint>?locale=<locale>&tag=<a>&tag=<b> and expects
// {"translations": {"<tag>": "<label>"}}.
type HTTPFetcher struct {
	endpoint string
	client   *http.Client
	limiter  *rate.Limiter
}

// NewHTTPFetcher creates a fetcher for endpoint.
func NewHTTPFetcher(endpoint string) *HTTPFetcher {
	return &HTTPFetcher{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 10 * time.Second},
		limiter:  rate.NewLimiter(rate.Every(250*time.Millisecond), 2),
	}
}

// Fetch implements Fetcher.
func (f *HTTPFetcher) Fetch(ctx context.Context, tags []string, locale string) (map[string]string, error) {
	if len(tags) == 0 {
		return map[string]string{}, nil
	}
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	u, err := url.Parse(f.endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse endpoint: %w", err)
	}
	q := u.Query()
	q.Set("locale", locale)
	for _, t := range tags {
		q.Add("tag", t)
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("request cancelled: %w", ctx.Err())
		}
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("translation endpoint returned %d", resp.StatusCode)
	}
	var parsed struct {
		Translations map[string]string `json:"translations"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	if parsed.Translations == nil {
		parsed.Translations = map[string]string{}
	}
	return parsed.Translations, nil
}
