// Package line is a client for the messaging platform's bot API.
package line

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sony/gobreaker"

	"github.com/soyeahso/scambot/internal/domain"
	"github.com/soyeahso/scambot/internal/logging"
	"github.com/soyeahso/scambot/internal/version"
)

// ErrNoMessages is returned when Reply or Push is called without messages.
var ErrNoMessages = errors.New("line: no messages")

// APIError is a non-200 response from the platform.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("line api: status %d", e.StatusCode)
	}
	return fmt.Sprintf("line api: status %d: %s", e.StatusCode, e.Body)
}

// Options configures a Client.
type Options struct {
	AccessToken string
	APIBase     string // https://api.line.me
	DataBase    string // https://api-data.line.me, defaults to APIBase
	Timeout     time.Duration
	RetryMax    int
	RetryWait   time.Duration // minimum backoff, 0 uses the library default

	BreakerEnabled      bool
	BreakerFailures     int
	BreakerOpenDuration time.Duration

	Logger *logging.Logger
}

// Client calls the platform's reply, push, profile and content endpoints.
// Every call shares one timeout, retry and circuit breaker policy.
type Client struct {
	token    string
	apiBase  string
	dataBase string
	http     *retryablehttp.Client
	cb       *gobreaker.CircuitBreaker
	log      *logging.Logger
}

// New creates a Client.
func New(opts Options) *Client {
	log := opts.Logger
	if log == nil {
		log = logging.New(nil, "silent")
	}
	log = log.Sub("line")

	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.DataBase == "" {
		opts.DataBase = opts.APIBase
	}

	rc := retryablehttp.NewClient()
	rc.HTTPClient = &http.Client{Timeout: opts.Timeout}
	rc.RetryMax = opts.RetryMax
	if opts.RetryWait > 0 {
		rc.RetryWaitMin = opts.RetryWait
		rc.RetryWaitMax = 4 * opts.RetryWait
	}
	rc.CheckRetry = checkRetry
	rc.Logger = logging.NewRetryLogger(log)
	// Hand the last response back so callers see the real status code.
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler

	c := &Client{
		token:    opts.AccessToken,
		apiBase:  strings.TrimRight(opts.APIBase, "/"),
		dataBase: strings.TrimRight(opts.DataBase, "/"),
		http:     rc,
		log:      log,
	}

	if opts.BreakerEnabled {
		failures := opts.BreakerFailures
		if failures <= 0 {
			failures = 5
		}
		open := opts.BreakerOpenDuration
		if open <= 0 {
			open = 30 * time.Second
		}
		c.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "line-api",
			MaxRequests: 1,
			Interval:    60 * time.Second,
			Timeout:     open,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= uint32(failures)
			},
			IsSuccessful: func(err error) bool {
				// Client errors mean the platform is up.
				var apiErr *APIError
				if errors.As(err, &apiErr) {
					return apiErr.StatusCode < 500 && apiErr.StatusCode != http.StatusTooManyRequests
				}
				return err == nil
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
			},
		})
	}

	return c
}

// checkRetry is the default policy except for message sends. A reply
// token is single use and a push may already have been delivered, so a
// POST that got a response is retried only on 429.
func checkRetry(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if err == nil && resp != nil && resp.Request != nil && resp.Request.Method == http.MethodPost {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		return resp.StatusCode == http.StatusTooManyRequests, nil
	}
	return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
}

// BreakerState reports the circuit breaker state, or "disabled".
func (c *Client) BreakerState() string {
	if c.cb == nil {
		return "disabled"
	}
	return c.cb.State().String()
}

// Reply answers an event through its one-time reply token.
func (c *Client) Reply(ctx context.Context, replyToken string, messages ...Message) error {
	if len(messages) == 0 {
		return ErrNoMessages
	}
	return c.postJSON(ctx, c.apiBase+"/v2/bot/message/reply", replyRequest{
		ReplyToken: replyToken,
		Messages:   messages,
	})
}

// Push sends messages to a user without a reply token.
func (c *Client) Push(ctx context.Context, to string, messages ...Message) error {
	if len(messages) == 0 {
		return ErrNoMessages
	}
	return c.postJSON(ctx, c.apiBase+"/v2/bot/message/push", pushRequest{
		To:       to,
		Messages: messages,
	})
}

// Profile looks up a user's public profile.
func (c *Client) Profile(ctx context.Context, userID string) (*domain.Profile, error) {
	resp, err := c.do(ctx, http.MethodGet, c.apiBase+"/v2/bot/profile/"+url.PathEscape(userID), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var p domain.Profile
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return nil, fmt.Errorf("line: decode profile: %w", err)
	}
	if p.UserID == "" {
		p.UserID = userID
	}
	return &p, nil
}

// Content opens the binary content of a message. The caller must close
// the returned body.
func (c *Client) Content(ctx context.Context, messageID string) (io.ReadCloser, error) {
	resp, err := c.do(ctx, http.MethodGet, c.dataBase+"/v2/bot/message/"+url.PathEscape(messageID)+"/content", nil)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

func (c *Client) postJSON(ctx context.Context, endpoint string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("line: marshal request: %w", err)
	}
	resp, err := c.do(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return err
	}
	io.Copy(io.Discard, resp.Body)
	return resp.Body.Close()
}

// do sends a request through the breaker. Any status other than 200 is
// returned as *APIError with the body already closed.
func (c *Client) do(ctx context.Context, method, endpoint string, body []byte) (*http.Response, error) {
	call := func() (*http.Response, error) {
		var raw interface{}
		if body != nil {
			raw = body
		}
		req, err := retryablehttp.NewRequestWithContext(ctx, method, endpoint, raw)
		if err != nil {
			return nil, fmt.Errorf("line: build request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+c.token)
		req.Header.Set("User-Agent", version.UserAgent())
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		start := time.Now()
		resp, err := c.http.Do(req)
		if err != nil {
			return nil, fmt.Errorf("line: %s %s: %w", method, req.URL.Path, err)
		}
		c.log.Debug().
			Str("method", method).
			Str("path", req.URL.Path).
			Int("status", resp.StatusCode).
			Dur("duration", time.Since(start)).
			Msg("platform call")

		if resp.StatusCode != http.StatusOK {
			defer resp.Body.Close()
			msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			return nil, &APIError{StatusCode: resp.StatusCode, Body: string(bytes.TrimSpace(msg))}
		}
		return resp, nil
	}

	if c.cb == nil {
		return call()
	}
	out, err := c.cb.Execute(func() (interface{}, error) {
		return call()
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("line: %w", err)
		}
		return nil, err
	}
	return out.(*http.Response), nil
}
