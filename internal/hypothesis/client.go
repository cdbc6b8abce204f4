package hypothesis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/kpauljoseph/annotanki/pkg/logger"
	"github.com/kpauljoseph/annotanki/pkg/version"
)

var (
	ErrUnauthorized = errors.New("hypothesis API rejected the token")
	ErrRateLimited  = errors.New("hypothesis API rate limit reached")
)

// StatusError is returned for any non-200 search response. It unwraps to
// ErrUnauthorized or ErrRateLimited when the status says so.
type StatusError struct {
	StatusCode int
	Body       string
	RetryAfter time.Duration
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("hypothesis API error: %d - %s", e.StatusCode, e.Body)
	if e.RetryAfter > 0 {
		msg += fmt.Sprintf(" (retry after %s)", e.RetryAfter)
	}
	return msg
}

func (e *StatusError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrUnauthorized
	case http.StatusTooManyRequests:
		return ErrRateLimited
	}
	return nil
}

type SearchParams struct {
	Group string
	Limit int
	// Since is the checkpoint; only annotations created at or after it are returned.
	Since string
}

type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *logger.Logger
}

func NewClient(baseURL, token string, httpClient *http.Client, logger *logger.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL:    baseURL,
		token:      token,
		httpClient: httpClient,
		logger:     logger,
	}
}

// Search fetches a single page of annotations sorted by creation time,
// oldest first.
func (c *Client) Search(ctx context.Context, params SearchParams) ([]Annotation, error) {
	query := url.Values{
		"sort":  {"created"},
		"order": {"asc"},
		"query": {`created:>="` + params.Since + `"`},
	}
	if params.Limit > 0 {
		query.Set("limit", strconv.Itoa(params.Limit))
	}
	if params.Group != "" {
		query.Set("group", params.Group)
	}

	reqURL := c.baseURL + "?" + query.Encode()
	c.logger.Debug("Searching annotations: %s", reqURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach hypothesis API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &StatusError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
		}
	}

	var sr searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("failed to parse search response: %w", err)
	}

	c.logger.Debug("Fetched %d annotations (total matching: %d)", len(sr.Rows), sr.Total)
	return sr.Rows, nil
}

func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d.Round(time.Second)
		}
	}
	return 0
}
