// Package apiclient is the REST client for the scoreboard backend.
package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
)

// HeaderProvider supplies per-request headers.
type HeaderProvider func() map[string]string

// StatusError is a non-2xx response.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("scoreboard api error: status=%d body=%s", e.Status, truncate(e.Body, 512))
}

// IsStatus reports whether err is a StatusError with the given code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Status == code
}

type Client struct {
	baseURL string
	user    string
	http    *fasthttp.Client
	headers HeaderProvider

	defaultTimeout time.Duration
	retryMax       int
}

type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.defaultTimeout = d }
}

func WithMaxConnsPerHost(n int) Option {
	return func(c *Client) { c.http.MaxConnsPerHost = n }
}

func WithHeaderProvider(h HeaderProvider) Option {
	return func(c *Client) { c.headers = h }
}

func WithRetry(max int) Option {
	return func(c *Client) { c.retryMax = max }
}

// WithUser sets the user whose room games RoomGames reads.
func WithUser(user string) Option {
	return func(c *Client) { c.user = strings.TrimSpace(user) }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		http:           &fasthttp.Client{ReadTimeout: 30 * time.Second, WriteTimeout: 30 * time.Second, MaxConnsPerHost: 32},
		defaultTimeout: 10 * time.Second,
		retryMax:       3,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL is the backend root without a trailing slash.
func (c *Client) BaseURL() string { return c.baseURL }

type request struct {
	method      string
	path        string
	body        []byte
	contentType string
	retry       bool
}

// response is the part of a reply the callers read after the fasthttp
// buffers are released.
type response struct {
	status      int
	contentType string
	body        []byte
}

func (c *Client) url(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.baseURL + path
}

func (c *Client) do(ctx context.Context, r request) (response, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer func() {
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
	}()

	req.Header.SetMethod(r.method)
	req.SetRequestURI(c.url(r.path))
	if r.contentType != "" {
		req.Header.SetContentType(r.contentType)
	}
	if c.headers != nil {
		for k, v := range c.headers() {
			if strings.TrimSpace(k) != "" && strings.TrimSpace(v) != "" {
				req.Header.Set(k, v)
			}
		}
	}
	if r.body != nil {
		req.SetBody(r.body)
	}

	attempts := 1
	if r.retry && c.retryMax > 1 {
		attempts = c.retryMax
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return response{}, err
		}
		err := c.http.DoDeadline(req, resp, c.computeDeadline(ctx))
		if err != nil {
			lastErr = fmt.Errorf("%s %s: %w", r.method, r.path, err)
			if attempt == attempts {
				return response{}, lastErr
			}
			if sleepErr := c.sleepWithContext(ctx, backoffDuration(attempt)); sleepErr != nil {
				return response{}, lastErr
			}
			continue
		}

		status := resp.StatusCode()
		if status < 200 || status >= 300 {
			lastErr = &StatusError{Status: status, Body: string(resp.Body())}
			if attempt == attempts || !shouldRetryStatus(status) {
				return response{}, lastErr
			}
			if sleepErr := c.sleepWithContext(ctx, backoffDuration(attempt)); sleepErr != nil {
				return response{}, lastErr
			}
			continue
		}
		return response{
			status:      status,
			contentType: string(resp.Header.ContentType()),
			body:        append([]byte(nil), resp.Body()...),
		}, nil
	}

	if lastErr == nil {
		lastErr = errors.New("unknown error")
	}
	return response{}, lastErr
}

// doJSON sends in as JSON and decodes the reply into out. GETs are retried
// on transport errors and 5xx answers.
func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	r := request{method: method, path: path, retry: method == fasthttp.MethodGet}
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		r.body = payload
		r.contentType = "application/json"
	}
	resp, err := c.do(ctx, r)
	if err != nil {
		return err
	}
	return decode(resp, out)
}

// decode reads a JSON reply. A 2xx reply carrying {"error": ...} is a
// failure too.
func decode(resp response, out any) error {
	if len(resp.body) == 0 {
		return nil
	}
	var probe struct {
		Error any `json:"error"`
	}
	if json.Unmarshal(resp.body, &probe) == nil && hasError(probe.Error) {
		return &StatusError{Status: resp.status, Body: string(resp.body)}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func hasError(v any) bool {
	switch e := v.(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(e) != ""
	case bool:
		return e
	default:
		return true
	}
}

func (c *Client) computeDeadline(ctx context.Context) time.Time {
	clientDL := time.Now().Add(c.defaultTimeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(clientDL) {
		return dl
	}
	return clientDL
}

func (c *Client) sleepWithContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func backoffDuration(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if attempt > 6 {
		attempt = 6
	}
	return time.Duration(1<<uint(attempt-1)) * 100 * time.Millisecond
}

func shouldRetryStatus(code int) bool {
	switch code {
	case 500, 502, 503, 504:
		return true
	default:
		return false
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
