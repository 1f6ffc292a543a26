// Package telemetry implements the client for the central log collector:
// plain HTTP calls for logger registration, log delivery and queries, and a
// WebSocket stream for live log tailing.
package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/RMHEDGE/screens-native/internal/models"
)

// DefaultTimeout bounds every HTTP call unless overridden.
const DefaultTimeout = 5000 * time.Millisecond

// Options configures a Client.
type Options struct {
	BaseURL string
	Timeout time.Duration // 0 means DefaultTimeout
}

// Client talks to the log collector. It owns no domain state: each HTTP
// call is independent and carries its own deadline.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	timeout    time.Duration
}

// NewClient creates a collector client.
func NewClient(opts Options) (*Client, error) {
	base, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("base URL must be absolute: %q", opts.BaseURL)
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL:    base,
		httpClient: &http.Client{},
		timeout:    timeout,
	}, nil
}

// RegisterAck is the collector's response to register/unregister.
type RegisterAck struct {
	Message string `json:"message"`
}

// SendAck is the collector's response to a delivered log entry.
type SendAck struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

// Register establishes a logger identity with the collector. Idempotent.
func (c *Client) Register(ctx context.Context, loggerID string) (*RegisterAck, error) {
	if loggerID == "" {
		return nil, NewValidationError("logger ID")
	}
	var ack RegisterAck
	if err := c.do(ctx, http.MethodPost, "/register/"+url.PathEscape(loggerID), nil, &ack); err != nil {
		return nil, err
	}
	return &ack, nil
}

// Unregister removes a logger identity from the collector. Idempotent.
func (c *Client) Unregister(ctx context.Context, loggerID string) (*RegisterAck, error) {
	if loggerID == "" {
		return nil, NewValidationError("logger ID")
	}
	var ack RegisterAck
	if err := c.do(ctx, http.MethodPost, "/unregister/"+url.PathEscape(loggerID), nil, &ack); err != nil {
		return nil, err
	}
	return &ack, nil
}

// Send delivers one log entry under (loggerID, projectID). Level and
// message are validated locally; a ValidationError issues no request.
func (c *Client) Send(ctx context.Context, loggerID, projectID string, data models.LogEntryData) (*SendAck, error) {
	if loggerID == "" {
		return nil, NewValidationError("logger ID")
	}
	if projectID == "" {
		return nil, NewValidationError("project ID")
	}
	if data.Level == "" {
		return nil, NewValidationError("log level")
	}
	if data.Message == "" {
		return nil, NewValidationError("log message")
	}
	path := "/log/" + url.PathEscape(loggerID) + "/" + url.PathEscape(projectID)
	var ack SendAck
	if err := c.do(ctx, http.MethodPost, path, data, &ack); err != nil {
		return nil, err
	}
	return &ack, nil
}

// Query fetches stored log entries. Unset options are omitted from the
// request so the collector applies its own defaults.
func (c *Client) Query(ctx context.Context, opts models.QueryOptions) (*models.QueryResponse, error) {
	params := url.Values{}
	if opts.Hours != nil {
		params.Set("hours", strconv.Itoa(*opts.Hours))
	}
	if opts.Offset != nil {
		params.Set("offset", strconv.Itoa(*opts.Offset))
	}
	if opts.Limit != nil {
		params.Set("limit", strconv.Itoa(*opts.Limit))
	}
	if opts.ProjectID != "" {
		params.Set("projectId", opts.ProjectID)
	}
	path := "/api/logs"
	if encoded := params.Encode(); encoded != "" {
		path += "?" + encoded
	}
	var resp models.QueryResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// do issues one HTTP call with the client's deadline. A deadline that
// elapses cancels the in-flight request and yields a TimeoutError; every
// other failure is a TransportError carrying the server's message when one
// was provided.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	ref, err := url.Parse(path)
	if err != nil {
		return fmt.Errorf("building request URL: %w", err)
	}
	u := c.baseURL.ResolveReference(ref)

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	tctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(tctx, method, u.String(), reqBody)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return &TimeoutError{After: c.timeout}
		}
		return &TransportError{Message: err.Error()}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return &TimeoutError{After: c.timeout}
		}
		return &TransportError{Message: err.Error()}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &TransportError{
			Status:  resp.StatusCode,
			Message: serverErrorMessage(respBody),
		}
	}

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return &TransportError{
				Status:  resp.StatusCode,
				Message: fmt.Sprintf("decoding response: %v", err),
			}
		}
	}
	return nil
}

// serverErrorMessage extracts the collector's error text from a failure
// body, falling back to the raw body.
func serverErrorMessage(body []byte) string {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Error != "" {
			return payload.Error
		}
		if payload.Message != "" {
			return payload.Message
		}
	}
	return string(body)
}
