// Package api is the authenticated request gateway for the OpsDeck REST API.
// Every call goes through one Client, which carries the session cookie and
// runs the response interceptor.
package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	oderrors "github.com/wsciaroni/opsdeck-cli/internal/errors"
	"github.com/wsciaroni/opsdeck-cli/internal/log"
	"github.com/wsciaroni/opsdeck-cli/internal/shell"
	"github.com/wsciaroni/opsdeck-cli/internal/version"
)

const (
	// DefaultBasePath is prefixed to every API path
	DefaultBasePath = "/api"

	// MePath is the identity probe. A 401 here means "not logged in".
	MePath = "/me"

	// LogoutPath is served outside the API base path
	LogoutPath = "/auth/logout"

	// RequestIDHeader correlates client logs with server logs
	RequestIDHeader = "X-Request-ID"

	defaultTimeout    = 30 * time.Second
	defaultRetryDelay = 200 * time.Millisecond
)

var userAgent = version.GetInfo().UserAgent()

// Options configures a Client.
type Options struct {
	// ServerURL is the scheme and host of the OpsDeck server
	ServerURL string

	// BasePath defaults to /api
	BasePath string

	// Timeout bounds a single HTTP attempt (default 30s)
	Timeout time.Duration

	// Attempts is the number of tries for GET requests that fail before
	// a response arrives. Values below 1 mean a single try.
	Attempts uint

	// RetryDelay is the initial backoff between GET attempts
	RetryDelay time.Duration

	// Jar holds the session cookie. A fresh jar is created when nil.
	Jar http.CookieJar

	// Transport overrides the HTTP transport (tests install httpmock here)
	Transport http.RoundTripper

	Notifier  shell.Notifier
	Navigator shell.Navigator
	Logger    *log.Logger
}

// Client is the single shared request executor.
type Client struct {
	serverURL  string
	baseURL    string
	http       *http.Client
	attempts   uint
	retryDelay time.Duration
	notifier   shell.Notifier
	navigator  shell.Navigator
	logger     *log.Logger
}

// NewClient creates a Client. Notifier and Navigator are required; they are
// how the interceptor reaches the user.
func NewClient(opts Options) (*Client, error) {
	serverURL := strings.TrimRight(opts.ServerURL, "/")
	u, err := url.Parse(serverURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, oderrors.New(oderrors.ErrCodeConfigInvalid, fmt.Sprintf("invalid server URL: %q", opts.ServerURL)).
			WithSuggestion("Set OPSDECK_SERVER_URL or pass --server, e.g. https://opsdeck.example.com")
	}
	if opts.Notifier == nil || opts.Navigator == nil {
		return nil, oderrors.New(oderrors.ErrCodeConfigInvalid, "api client requires a notifier and a navigator")
	}

	basePath := opts.BasePath
	if basePath == "" {
		basePath = DefaultBasePath
	}
	basePath = "/" + strings.Trim(basePath, "/")

	jar := opts.Jar
	if jar == nil {
		jar, err = cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create cookie jar: %w", err)
		}
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	attempts := opts.Attempts
	if attempts < 1 {
		attempts = 1
	}

	retryDelay := opts.RetryDelay
	if retryDelay <= 0 {
		retryDelay = defaultRetryDelay
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.DefaultLogger()
	}

	return &Client{
		serverURL: serverURL,
		baseURL:   serverURL + basePath,
		http: &http.Client{
			Timeout:   timeout,
			Jar:       jar,
			Transport: opts.Transport,
		},
		attempts:   attempts,
		retryDelay: retryDelay,
		notifier:   opts.Notifier,
		navigator:  opts.Navigator,
		logger:     logger.WithGroup("api"),
	}, nil
}

// ServerURL returns the server origin without the API base path.
func (c *Client) ServerURL() string {
	return c.serverURL
}

// Jar returns the cookie jar carrying the session.
func (c *Client) Jar() http.CookieJar {
	return c.http.Jar
}

// LoginURL is the server-side login entry point.
func (c *Client) LoginURL() string {
	return c.serverURL + string(shell.RouteLoginEntry)
}

// call describes one request.
type call struct {
	method string
	path   string
	query  url.Values
	body   any

	// outsideBase resolves path against the server origin instead of the API base
	outsideBase bool
	// quiet skips notifications and navigation; failures are still returned
	quiet bool
}

func (c *call) target(base, server string) string {
	root := base
	if c.outsideBase {
		root = server
	}
	u := root + c.path
	if len(c.query) > 0 {
		u += "?" + c.query.Encode()
	}
	return u
}

// Get performs a GET against the API base path and decodes the JSON response into out.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, &call{method: http.MethodGet, path: path, query: query}, out)
}

// Post performs a POST with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, &call{method: http.MethodPost, path: path, body: body}, out)
}

// Put performs a PUT with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, &call{method: http.MethodPut, path: path, body: body}, out)
}

// Patch performs a PATCH with a JSON body.
func (c *Client) Patch(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, &call{method: http.MethodPatch, path: path, body: body}, out)
}

// Delete performs a DELETE.
func (c *Client) Delete(ctx context.Context, path string) error {
	return c.do(ctx, &call{method: http.MethodDelete, path: path}, nil)
}

// GetRaw performs a GET and returns the body unparsed (CSV exports).
func (c *Client) GetRaw(ctx context.Context, path string, query url.Values) ([]byte, error) {
	var buf bytes.Buffer
	err := c.do(ctx, &call{method: http.MethodGet, path: path, query: query}, &buf)
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (c *Client) do(ctx context.Context, cl *call, out any) error {
	resp, requestID, err := c.send(ctx, cl)
	if err := c.intercept(ctx, cl, requestID, resp, err); err != nil {
		return err
	}
	defer resp.Body.Close()

	return decodeBody(cl, requestID, resp, out)
}

// send executes the request, retrying GETs that fail before a response.
func (c *Client) send(ctx context.Context, cl *call) (*http.Response, string, error) {
	var payload []byte
	if cl.body != nil {
		var err error
		payload, err = json.Marshal(cl.body)
		if err != nil {
			return nil, "", oderrors.Wrap(oderrors.ErrCodeAPIRequest, "failed to marshal request body", err)
		}
	}

	requestID := uuid.NewString()
	target := cl.target(c.baseURL, c.serverURL)

	attempts := uint(1)
	if cl.method == http.MethodGet {
		attempts = c.attempts
	}

	var resp *http.Response
	err := retry.Do(
		func() error {
			var body io.Reader
			if payload != nil {
				body = bytes.NewReader(payload)
			}
			req, err := http.NewRequestWithContext(ctx, cl.method, target, body)
			if err != nil {
				return retry.Unrecoverable(oderrors.Wrap(oderrors.ErrCodeAPIRequest, "failed to create request", err))
			}
			req.Header.Set("Accept", "application/json")
			req.Header.Set(RequestIDHeader, requestID)
			req.Header.Set("User-Agent", userAgent)
			if payload != nil {
				req.Header.Set("Content-Type", "application/json")
			}

			r, err := c.http.Do(req)
			if err != nil {
				return err
			}
			resp = r
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(c.retryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return retry.IsRecoverable(err) && ctx.Err() == nil
		}),
		retry.OnRetry(func(n uint, err error) {
			c.logger.ForRequest(cl.method, cl.path).Debug("request attempt failed", "attempt", n+1, "error", err)
		}),
	)
	if err != nil {
		return nil, requestID, err
	}

	c.logger.ForRequest(cl.method, cl.path).Debug("request completed", "status", resp.StatusCode, "request_id", requestID)
	return resp, requestID, nil
}

// intercept applies the uniform failure policy. It never turns a failure
// into success; on success it returns nil and leaves resp open.
func (c *Client) intercept(ctx context.Context, cl *call, requestID string, resp *http.Response, sendErr error) error {
	if sendErr != nil {
		var odErr *oderrors.OpsDeckError
		if errors.As(sendErr, &odErr) && resp == nil && odErr.Code == oderrors.ErrCodeAPIRequest {
			return sendErr
		}

		apiErr := &Error{
			Method:    cl.method,
			Path:      cl.path,
			Message:   genericMessage,
			RequestID: requestID,
			Cause:     sendErr,
		}
		c.logger.ForRequest(cl.method, cl.path).WithError(sendErr).Warn("request failed")

		// A cancelled command is the user's own doing; it is not worth a notification.
		if !cl.quiet && ctx.Err() != context.Canceled {
			c.notifier.Error(apiErr.Message)
			apiErr.Notified = true
		}
		return apiErr
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	apiErr := errorFromResponse(cl, requestID, resp)
	c.logger.ForRequest(cl.method, cl.path).Debug("request rejected", "status", apiErr.Status, "message", apiErr.Message)

	if cl.quiet {
		return apiErr
	}

	if apiErr.Status == http.StatusUnauthorized && IsProbe(cl.path) {
		return apiErr
	}

	c.notifier.Error(apiErr.Message)
	apiErr.Notified = true

	if apiErr.Status == http.StatusUnauthorized && c.navigator.Current() != shell.RouteLogin {
		c.navigator.Navigate(shell.RouteLogin)
	}

	return apiErr
}

// IsProbe reports whether path is the identity probe.
func IsProbe(path string) bool {
	return strings.HasSuffix(strings.TrimRight(path, "/"), MePath)
}

func decodeBody(cl *call, requestID string, resp *http.Response, out any) error {
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body) //nolint:errcheck // drain for connection reuse
		return nil
	}

	if w, ok := out.(io.Writer); ok {
		if _, err := io.Copy(w, resp.Body); err != nil {
			return oderrors.Wrap(oderrors.ErrCodeAPIResponse, fmt.Sprintf("failed to read %s %s", cl.method, cl.path), err)
		}
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return oderrors.Wrap(oderrors.ErrCodeAPIResponse,
			fmt.Sprintf("failed to decode response from %s %s (request %s)", cl.method, cl.path, requestID), err)
	}
	return nil
}
