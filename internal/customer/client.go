// Package customer talks to the customer service to find out whether a
// customer exists before an account is opened for them.
package customer

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Client checks customer existence against the customer service REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a Client rooted at baseURL
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Exists calls GET {base}/customers/{id}.
// 200 means the customer exists, 404 means it does not; anything else is an error.
func (c *Client) Exists(ctx context.Context, customerID uuid.UUID) (bool, error) {
	endpoint := c.baseURL + "/customers/" + url.PathEscape(customerID.String())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false, fmt.Errorf("failed to build customer request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("failed to reach customer service: %w", err)
	}
	defer resp.Body.Close()
	// Drain so the connection can be reused.
	io.Copy(io.Discard, resp.Body)

	switch resp.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, fmt.Errorf("customer service returned status %d", resp.StatusCode)
	}
}
