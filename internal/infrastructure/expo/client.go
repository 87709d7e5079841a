// Package expo implements application.Pusher against the Expo push API.
package expo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tailmates/notification/internal/application"
)

// DefaultEndpoint is the public Expo push send endpoint.
const DefaultEndpoint = "https://exp.host/--/api/v2/push/send"

// Client posts push messages to the Expo push API.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// New creates a Client with a 10-second request timeout. An empty endpoint
// falls back to DefaultEndpoint.
func New(endpoint string) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Send delivers one push message. The response body is not inspected beyond
// the status code; per-token receipts are not tracked.
func (c *Client) Send(ctx context.Context, msg application.PushMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal push message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("expo push: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("expo push: status %d", resp.StatusCode)
	}
	return nil
}
