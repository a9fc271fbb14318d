// Package centrifugo mirrors negotiation events to Centrifugo channels for web
// clients that do not hold a socket to this service.
package centrifugo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/agrilink/negotiation-service/internal/config"
	"github.com/agrilink/negotiation-service/internal/model"
)

const publishPath = "/api/publish"

type Client struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
}

func New(cfg *config.Config) *Client {
	return &Client{
		endpoint: strings.TrimRight(cfg.Centrifuge.BaseURL, "/") + publishPath,
		apiKey:   cfg.Centrifuge.APIKey,
		httpClient: &http.Client{
			Timeout: cfg.Centrifuge.Timeout,
		},
	}
}

func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}

// Publish sends event to channel. Retried publications of the same event share
// an idempotency key, so Centrifugo delivers them once.
func (c *Client) Publish(ctx context.Context, channel string, event model.RealtimeEvent) error {
	payload := model.CentrifugoPublishRequest{
		Channel:        channel,
		Data:           event,
		IdempotencyKey: idempotencyKey(event),
		Tags:           map[string]string{"kind": string(event.Kind)},
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("X-API-Key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to publish to %s: %w", channel, err)
	}
	defer resp.Body.Close() //nolint:errcheck // .

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var reply model.CentrifugoReply
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if reply.Error != nil {
		return fmt.Errorf("centrifugo error %d on %s: %s", reply.Error.Code, channel, reply.Error.Message)
	}

	return nil
}

func idempotencyKey(event model.RealtimeEvent) string {
	switch {
	case event.Message != nil:
		return "message:" + event.Message.ID
	case event.Status != nil:
		return fmt.Sprintf("status:%s:%s:%d", event.ChatID, event.Status.Status, event.Status.UpdatedAt.UnixNano())
	default:
		return ""
	}
}
