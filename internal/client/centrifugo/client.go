// Package centrifugo pushes feed events out to browsers over the Centrifugo
// HTTP API. Conversation channels carry message inserts, the shared presence
// channel carries availability flips.
package centrifugo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/quietline/chat-service/internal/config"
	"github.com/quietline/chat-service/internal/model"
)

const publishMethod = "publish"

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func New(cfg *config.Config) *Client {
	return &Client{
		baseURL: cfg.Centrifuge.BaseURL,
		apiKey:  cfg.Centrifuge.APIKey,
		httpClient: &http.Client{
			Timeout: cfg.Centrifuge.Timeout,
		},
	}
}

func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}

// Publish sends data to the named channel. The payload is whatever the
// caller hands over: a message row, a presence update.
func (c *Client) Publish(ctx context.Context, channel string, data interface{}) error {
	body, err := json.Marshal(model.CentrifugoEvent{
		Method: publishMethod,
		Params: model.CentrifugoEventParams{
			Channel: channel,
			Data:    data,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to marshal publish payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build publish request: %w", err)
	}
	req.Header.Set("Authorization", "apikey "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach centrifugo: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // .

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("centrifugo responded %d", resp.StatusCode)
	}

	var apiResp struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return fmt.Errorf("failed to decode centrifugo response: %w", err)
	}
	if len(apiResp.Error) > 0 && string(apiResp.Error) != "null" {
		return fmt.Errorf("centrifugo error: %s", apiResp.Error)
	}

	return nil
}
