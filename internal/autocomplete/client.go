// Package autocomplete fetches tag suggestions for the live search box and
// serializes those requests so that at most one is in flight.
package autocomplete

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"
)

// Candidate is one suggestion returned by the endpoint.
type Candidate struct {
	Tag   string
	Label string
}

// Client looks up candidates for a keyword.
type Client interface {
	Complete(ctx context.Context, keyword string) ([]Candidate, error)
}

// ErrEmptyKeyword is returned when Complete is asked for nothing.
var ErrEmptyKeyword = errors.New("autocomplete: empty keyword")

// HTTPClient queries an autocomplete endpoint with GET <endpoint>?keyword=.
type HTTPClient struct {
	endpoint string
	client   *http.Client
	limiter  *rate.Limiter
}

// NewHTTPClient creates a client for the endpoint. Requests are paced to at
// most one every 200ms so a fast typist cannot hammer the server.
func NewHTTPClient(endpoint string) *HTTPClient {
	return &HTTPClient{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 10 * time.Second},
		limiter:  rate.NewLimiter(rate.Every(200*time.Millisecond), 1),
	}
}

type response struct {
	Error      bool   `json:"error"`
	Message    string `json:"message"`
	Candidates []struct {
		TagName        string `json:"tag_name"`
		TagTranslation string `json:"tag_translation"`
	} `json:"candidates"`
}

// Complete implements Client.
func (c *HTTPClient) Complete(ctx context.Context, keyword string) ([]Candidate, error) {
	if keyword == "" {
		return nil, ErrEmptyKeyword
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	u, err := url.Parse(c.endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse endpoint: %w", err)
	}
	q := u.Query()
	q.Set("keyword", keyword)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
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
		return nil, fmt.Errorf("autocomplete returned %d", resp.StatusCode)
	}

	var parsed response
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	if parsed.Error {
		return nil, fmt.Errorf("autocomplete error: %s", parsed.Message)
	}
	out := make([]Candidate, 0, len(parsed.Candidates))
	for _, cand := range parsed.Candidates {
		if cand.TagName == "" {
			continue
		}
		out = append(out, Candidate{Tag: cand.TagName, Label: cand.TagTranslation})
	}
	return out, nil
}
