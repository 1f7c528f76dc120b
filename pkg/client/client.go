// Package client is a Go client for the af3portal HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/af3-portal/pkg/errors"
)

const Version = "0.1.0"

// DefaultIdentityHeader is the header the portal reads the user id from.
const DefaultIdentityHeader = "HTTP_UID"

// Logger is the logging interface used by the Client.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

type noopLogger struct{}

func (noopLogger) Debugf(format string, args ...interface{}) {}
func (noopLogger) Infof(format string, args ...interface{})  {}
func (noopLogger) Errorf(format string, args ...interface{}) {}

// Client talks to one portal instance.
type Client struct {
	baseURL        string
	httpClient     *http.Client
	identityHeader string
	user           string
	userAgent      string
	logger         Logger
	retryMax       int
	retryWaitMin   time.Duration
	retryWaitMax   time.Duration
}

// APIError is an error response of the portal.  Code is the portal error
// code such as SUB_001 or JOB_008.
type APIError struct {
	StatusCode int    `json:"status_code"`
	Code       string `json:"code"`
	Message    string `json:"message"`
	RequestID  string `json:"request_id"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("af3portal: %s (HTTP %d): %s [request_id=%s]", e.Code, e.StatusCode, e.Message, e.RequestID)
}

func (e *APIError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// IsValidation reports whether the form or request was incomplete.
func (e *APIError) IsValidation() bool {
	return e.StatusCode == http.StatusUnprocessableEntity
}

func (e *APIError) IsRateLimited() bool {
	return e.StatusCode == http.StatusTooManyRequests
}

func (e *APIError) IsServerError() bool {
	return e.StatusCode >= 500 && e.StatusCode < 600
}

// NewClient returns a client for the portal at baseURL, e.g.
// "https://af3.example.org".
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New(errors.ErrCodeValidation, "baseURL is required")
	}
	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeValidation, "invalid baseURL")
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return nil, errors.New(errors.ErrCodeValidation, "baseURL scheme must be http or https")
	}

	c := &Client{
		baseURL:        strings.TrimSuffix(baseURL, "/"),
		httpClient:     &http.Client{Timeout: 90 * time.Second},
		identityHeader: DefaultIdentityHeader,
		userAgent:      fmt.Sprintf("af3portal-go-client/%s", Version),
		logger:         noopLogger{},
		retryMax:       3,
		retryWaitMin:   500 * time.Millisecond,
		retryWaitMax:   5 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// do sends a JSON request and decodes a JSON response into result.  Only
// GET is retried; a repeated POST /jobs would submit twice.
func (c *Client) do(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	resp, err := c.send(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if result == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil && err != io.EOF {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to decode response")
	}
	return nil
}

// send returns a response with status below 400.  The caller closes its body.
func (c *Client) send(ctx context.Context, method, path string, body interface{}) (*http.Response, error) {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	fullURL := c.baseURL + path

	var payload []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode request body")
		}
		payload = b
	}

	retries := 0
	if method == http.MethodGet {
		retries = c.retryMax
	}

	var lastErr error
	for attempt := 0; attempt <= retries; attempt++ {
		if attempt > 0 {
			backoff := c.calculateBackoff(attempt)
			c.logger.Debugf("retry attempt %d after %v", attempt, backoff)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		var bodyReader io.Reader
		if payload != nil {
			bodyReader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, fullURL, bodyReader)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeBadRequest, "failed to create request")
		}
		requestID := uuid.New().String()
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", c.userAgent)
		req.Header.Set("X-Request-ID", requestID)
		if c.user != "" {
			req.Header.Set(c.identityHeader, c.user)
		}

		start := time.Now()
		resp, err := c.httpClient.Do(req)
		if err != nil {
			c.logger.Errorf("%s %s failed: %v", method, path, err)
			lastErr = errors.Wrap(err, errors.ErrCodeExternalService, "request failed")
			continue
		}
		c.logger.Debugf("%s %s %d (%v)", method, path, resp.StatusCode, time.Since(start))

		if resp.StatusCode < 400 {
			return resp, nil
		}

		apiErr := decodeAPIError(resp, requestID)
		resp.Body.Close()
		lastErr = apiErr
		if !apiErr.IsServerError() {
			return nil, apiErr
		}
	}
	return nil, lastErr
}

func decodeAPIError(resp *http.Response, requestID string) *APIError {
	apiErr := &APIError{StatusCode: resp.StatusCode, RequestID: requestID}
	if id := resp.Header.Get("X-Request-ID"); id != "" {
		apiErr.RequestID = id
	}
	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if len(respBody) == 0 {
		return apiErr
	}
	var errResp struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Message != "" {
		apiErr.Code = errResp.Code
		apiErr.Message = errResp.Message
	} else {
		apiErr.Message = string(respBody)
	}
	return apiErr
}

func (c *Client) calculateBackoff(attempt int) time.Duration {
	backoff := c.retryWaitMin * time.Duration(1<<uint(attempt-1))
	if backoff > c.retryWaitMax {
		backoff = c.retryWaitMax
	}
	if quarter := int64(backoff / 4); quarter > 0 {
		backoff += time.Duration(rand.Int64N(quarter))
	}
	return backoff
}
