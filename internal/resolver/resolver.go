// Package resolver fetches display configurations from the remote config
// host by device ID.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/RMHEDGE/screens-native/internal/models"
)

// ErrNotFound reports a device ID the config host has no document for. Any
// non-success status is treated uniformly as an invalid config ID.
var ErrNotFound = errors.New("invalid config ID")

// Resolver fetches and parses display config documents. It never retries;
// the caller owns retry policy.
type Resolver struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
}

// New creates a resolver against a base URL. Documents live at
// <base>/<deviceID>.json.
func New(baseURL string, timeout time.Duration) *Resolver {
	return &Resolver{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{},
		timeout:    timeout,
	}
}

// Fetch retrieves and parses the display tree for a device. It fails with
// ErrNotFound on any non-success status and with
// models.MalformedConfigError when the body is not a valid display tree.
func (r *Resolver) Fetch(ctx context.Context, deviceID string) (models.DisplayNode, error) {
	if deviceID == "" {
		return nil, ErrNotFound
	}

	tctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	target := r.baseURL + "/" + url.PathEscape(deviceID) + ".json"
	req, err := http.NewRequestWithContext(tctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("building config request: %w", err)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching config %s: %w", deviceID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, ErrNotFound
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", deviceID, err)
	}

	node, err := models.ParseDisplayNode(body)
	if err != nil {
		return nil, err
	}
	return node, nil
}
