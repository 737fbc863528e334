package vercel

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

	"github.com/threadspace/threadspace/internal/connectors/registry"
)

const (
	DefaultBaseURL = "https://api.vercel.com"

	defaultTimeout   = 10 * time.Second
	maxRetriesOn429  = 2
	maxErrorBodySize = 1 << 20 // 1 MiB
	maxBodySize      = 8 << 20
)

// Client is a read-only Vercel REST client scoped to one token and
// optional team.
type Client struct {
	BaseURL string
	Token   string
	TeamID  string
	HTTP    *http.Client
}

// New validates baseURL and token. An empty baseURL selects DefaultBaseURL.
func New(baseURL, token, teamID string) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, errors.New("vercel api token is required")
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("vercel base URL: %w", err)
	}
	return &Client{
		BaseURL: base,
		Token:   token,
		TeamID:  strings.TrimSpace(teamID),
		HTTP:    &http.Client{Timeout: defaultTimeout},
	}, nil
}

// APIError is a non-2xx Vercel response. It unwraps to the registry error
// kind matching its status.
type APIError struct {
	StatusCode int
	Status     string
	Message    string
	Path       string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("vercel api %s: %s: %s", e.Path, e.Status, e.Message)
	}
	return fmt.Sprintf("vercel api %s: %s", e.Path, e.Status)
}

func (e *APIError) Unwrap() error {
	switch {
	case e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden:
		return registry.ErrProviderCredentialsInvalid
	case e.StatusCode == http.StatusNotFound:
		return registry.ErrNotFound
	default:
		return registry.ErrExternalServiceUnavailable
	}
}

func (c *Client) ensureClient() error {
	if c == nil || c.BaseURL == "" {
		return errors.New("vercel base URL is required")
	}
	if c.Token == "" {
		return errors.New("vercel api token is required")
	}
	if c.HTTP == nil {
		return errors.New("vercel http client is not configured")
	}
	return nil
}

func (c *Client) endpoint(path string, query url.Values) (string, error) {
	// path segments arrive escaped already
	u, err := url.Parse(strings.TrimRight(c.BaseURL, "/") + path)
	if err != nil {
		return "", err
	}
	q := url.Values{}
	for k, v := range query {
		q[k] = v
	}
	if c.TeamID != "" {
		q.Set("teamId", c.TeamID)
	}
	u.RawQuery = q.Encode()
	u.Fragment = ""
	return u.String(), nil
}

// getJSON issues a GET and decodes the body into dst. Rate-limited
// responses are retried with Retry-After.
func (c *Client) getJSON(ctx context.Context, path string, query url.Values, dst any) error {
	if err := c.ensureClient(); err != nil {
		return err
	}
	endpoint, err := c.endpoint(path, query)
	if err != nil {
		return err
	}

	for attempt := 0; ; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+c.Token)
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", "threadspace")

		resp, err := c.HTTP.Do(req)
		if err != nil {
			return fmt.Errorf("%w: vercel api %s: %w", registry.ErrExternalServiceUnavailable, path, err)
		}

		if resp.StatusCode == http.StatusTooManyRequests && attempt < maxRetriesOn429 {
			_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBodySize))
			resp.Body.Close()
			wait, ok := retryAfterDuration(resp.Header.Get("Retry-After"))
			if !ok {
				wait = time.Second
			}
			if err := sleep(ctx, wait); err != nil {
				return fmt.Errorf("%w: vercel api %s: %w", registry.ErrExternalServiceUnavailable, path, err)
			}
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
			resp.Body.Close()
			return &APIError{
				StatusCode: resp.StatusCode,
				Status:     resp.Status,
				Message:    extractAPIErrorMessage(body),
				Path:       path,
			}
		}

		err = json.NewDecoder(io.LimitReader(resp.Body, maxBodySize)).Decode(dst)
		resp.Body.Close()
		if err != nil {
			return fmt.Errorf("%w: decode vercel %s response: %w", registry.ErrExternalServiceUnavailable, path, err)
		}
		return nil
	}
}

func extractAPIErrorMessage(body []byte) string {
	var payload struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if msg := strings.TrimSpace(payload.Error.Message); msg != "" {
			return msg
		}
		if code := strings.TrimSpace(payload.Error.Code); code != "" {
			return code
		}
	}
	return ""
}

func retryAfterDuration(header string) (time.Duration, bool) {
	header = strings.TrimSpace(header)
	if header == "" {
		return 0, false
	}
	secs, err := strconv.Atoi(header)
	if err != nil || secs < 0 {
		return 0, false
	}
	return time.Duration(secs) * time.Second, true
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
