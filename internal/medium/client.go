package medium

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/blacktop/medium-mcp/internal/logutil"
	"github.com/blacktop/medium-mcp/internal/metrics"
	"github.com/hashicorp/go-cleanhttp"
)

const (
	DefaultBaseURL     = "https://api.medium.com/v1"
	DefaultTimeout     = 60 * time.Second
	DefaultMaxAttempts = 3

	maxBodyBytes = 4 << 20
	userAgent    = "medium-mcp/1"
)

// Config configures a Client.
type Config struct {
	Token       string
	BaseURL     string
	Timeout     time.Duration // per attempt
	MaxAttempts int
	HTTPClient  *http.Client
}

// Client talks to the Medium API. It is safe for concurrent use.
type Client struct {
	token       string
	baseURL     string
	timeout     time.Duration
	maxAttempts int
	http        *http.Client
}

// NewClient validates cfg and constructs a Client. A blank token fails
// construction.
func NewClient(cfg Config) (*Client, error) {
	token := strings.TrimSpace(cfg.Token)
	if token == "" {
		return nil, ErrMissingToken
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	attempts := cfg.MaxAttempts
	if attempts <= 0 {
		attempts = DefaultMaxAttempts
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = cleanhttp.DefaultPooledClient()
	}

	return &Client{
		token:       token,
		baseURL:     baseURL,
		timeout:     timeout,
		maxAttempts: attempts,
		http:        httpClient,
	}, nil
}

// Me resolves the account the token acts for.
func (c *Client) Me(ctx context.Context) (User, error) {
	data, err := c.call(ctx, "me", http.MethodGet, "/me", nil)
	if err != nil {
		return User{}, err
	}
	var rec map[string]any
	if err := json.Unmarshal(data, &rec); err != nil {
		return User{}, fmt.Errorf("decode user: %w", err)
	}
	id, _ := rec["id"].(string)
	if strings.TrimSpace(id) == "" {
		return User{}, ErrNoUserID
	}
	str := func(key string) string {
		v, _ := rec[key].(string)
		return v
	}
	return User{ID: id, Username: str("username"), Name: str("name"), URL: str("url")}, nil
}

// CreatePost creates a post under userID and returns the upstream post record.
func (c *Client) CreatePost(ctx context.Context, userID string, payload Payload) (json.RawMessage, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode post: %w", err)
	}
	return c.call(ctx, "create_post", http.MethodPost, "/users/"+url.PathEscape(userID)+"/posts", body)
}

type attempt struct {
	outcome Outcome
	status  int
	body    []byte
	err     error
	fatal   error
}

// call runs one logical request with its own retry budget and returns the
// contents of the response's data envelope.
func (c *Client) call(ctx context.Context, name, method, path string, body []byte) (json.RawMessage, error) {
	endpoint := c.baseURL + path

	for n := 1; ; n++ {
		logutil.Debugf("request %s %s attempt %d", method, endpoint, n)
		a := c.roundTrip(ctx, method, endpoint, body)
		cancelled := a.err != nil && ctx.Err() != nil

		action := Decide(a.status, a.err, n, c.maxAttempts)
		if a.fatal != nil || cancelled {
			action = ActionFail
		}
		// The attempt that ends the call is counted as terminal.
		label := a.outcome
		if action == ActionFail {
			label = OutcomeTerminal
		}
		metrics.UpstreamAttempts.WithLabelValues(name, label.String()).Inc()

		if a.fatal != nil {
			return nil, a.fatal
		}
		if cancelled {
			// The caller gave up; the retry budget no longer applies.
			return nil, &UpstreamError{Transport: true, Message: ctx.Err().Error(), Attempts: n}
		}

		switch action {
		case ActionSucceed:
			return unwrapEnvelope(a.body)
		case ActionRetry:
			if a.err != nil {
				logutil.Warnf("network error on %s %s: %v, retrying", method, path, a.err)
			} else {
				logutil.Warnf("retrying %s %s after server error %d: %s", method, path, a.status, errorMessage(a.status, a.body))
			}
			continue
		default:
			uerr := &UpstreamError{Status: a.status, Retryable: a.outcome == OutcomeRetryable, Attempts: n}
			if a.err != nil {
				uerr.Transport = true
				uerr.Message = a.err.Error()
			} else {
				uerr.Message = errorMessage(a.status, a.body)
			}
			return nil, uerr
		}
	}
}

func (c *Client) roundTrip(ctx context.Context, method, endpoint string, body []byte) attempt {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return attempt{outcome: OutcomeTerminal, fatal: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Charset", "utf-8")
	req.Header.Set("User-Agent", userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return attempt{outcome: Classify(0, err), err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		err = fmt.Errorf("read response: %w", err)
		return attempt{outcome: Classify(0, err), err: err}
	}

	return attempt{outcome: Classify(resp.StatusCode, nil), status: resp.StatusCode, body: data}
}

// unwrapEnvelope extracts the "data" field. A missing or null envelope is
// treated as an empty object.
func unwrapEnvelope(body []byte) (json.RawMessage, error) {
	empty := json.RawMessage(`{}`)
	if len(bytes.TrimSpace(body)) == 0 {
		return empty, nil
	}
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("decode response envelope: %w", err)
	}
	if len(env.Data) == 0 || bytes.Equal(env.Data, []byte("null")) {
		return empty, nil
	}
	return env.Data, nil
}

// errorMessage prefers a structured message from the body and falls back to
// the raw body text.
func errorMessage(status int, body []byte) string {
	var structured struct {
		Message string `json:"message"`
		Errors  []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := json.Unmarshal(body, &structured); err == nil {
		if msg := strings.TrimSpace(structured.Message); msg != "" {
			return msg
		}
		for _, e := range structured.Errors {
			if msg := strings.TrimSpace(e.Message); msg != "" {
				return msg
			}
		}
	}
	if text := strings.TrimSpace(string(body)); text != "" {
		return text
	}
	if text := http.StatusText(status); text != "" {
		return text
	}
	return "unknown error"
}
