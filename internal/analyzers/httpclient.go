package analyzers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"candidatelens/internal/config"
	"candidatelens/internal/errors"
)

// Client is the outbound HTTP client shared by every platform analyzer.
// Transient failures (connection errors, 429 and 5xx) are retried with backoff.
type Client struct {
	http      *retryablehttp.Client
	userAgent string
	logger    *errors.Logger
}

// NewClient creates the shared platform client
func NewClient(cfg config.HTTPConfig, logger *errors.Logger) *Client {
	if logger == nil {
		logger = errors.Discard()
	}

	rc := retryablehttp.NewClient()
	rc.RetryMax = cfg.MaxRetries
	rc.RetryWaitMin = 500 * time.Millisecond
	rc.RetryWaitMax = 5 * time.Second
	rc.HTTPClient.Timeout = cfg.Timeout
	rc.Logger = leveledLogger{logger}
	// hand the final response back instead of a "giving up" error so callers
	// can report the status code
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler

	return &Client{http: rc, userAgent: cfg.UserAgent, logger: logger}
}

// Page is a fetched document
type Page struct {
	URL        string
	StatusCode int
	Body       []byte
	Elapsed    time.Duration
	Truncated  bool
}

// Fetch GETs url and reads at most maxBytes of the body
func (c *Client) Fetch(ctx context.Context, url string, headers map[string]string, maxBytes int64) (*Page, error) {
	start := time.Now()
	resp, err := c.do(ctx, url, headers)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	reader := io.Reader(resp.Body)
	if maxBytes > 0 {
		reader = io.LimitReader(resp.Body, maxBytes+1)
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, errors.NewNetworkError(errors.ErrCodePlatformUnavailable,
			fmt.Sprintf("failed to read response from %s", url), err)
	}

	page := &Page{
		URL:        resp.Request.URL.String(),
		StatusCode: resp.StatusCode,
		Elapsed:    time.Since(start),
	}
	if maxBytes > 0 && int64(len(body)) > maxBytes {
		body = body[:maxBytes]
		page.Truncated = true
	}
	page.Body = body
	return page, nil
}

// GetJSON GETs url and decodes a 2xx JSON body into out. A 404 is reported
// as ErrCodeProfileNotFound, other failures as ErrCodePlatformUnavailable.
func (c *Client) GetJSON(ctx context.Context, url string, headers map[string]string, out any) error {
	resp, err := c.do(ctx, url, headers)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := checkStatus(url, resp.StatusCode); err != nil {
		return err
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.NewNetworkError(errors.ErrCodePlatformUnavailable,
			fmt.Sprintf("invalid JSON from %s", url), err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, url string, headers map[string]string) (*http.Response, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("invalid URL %q", url), err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, errors.NewNetworkError(errors.ErrCodePlatformUnavailable,
			fmt.Sprintf("request to %s failed", url), err)
	}
	return resp, nil
}

func checkStatus(url string, status int) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusNotFound:
		return errors.NewNotFoundError(errors.ErrCodeProfileNotFound,
			fmt.Sprintf("%s not found", url), nil)
	default:
		return errors.NewNetworkError(errors.ErrCodePlatformUnavailable,
			fmt.Sprintf("%s returned HTTP %d", url, status), nil)
	}
}

// leveledLogger routes retryablehttp logging into the application logger
type leveledLogger struct {
	l *errors.Logger
}

func (l leveledLogger) Error(msg string, keysAndValues ...any) { l.l.Warn(msg, keysAndValues...) }
func (l leveledLogger) Info(msg string, keysAndValues ...any)  { l.l.Debug(msg, keysAndValues...) }
func (l leveledLogger) Debug(msg string, keysAndValues ...any) { l.l.Debug(msg, keysAndValues...) }
func (l leveledLogger) Warn(msg string, keysAndValues ...any)  { l.l.Warn(msg, keysAndValues...) }
