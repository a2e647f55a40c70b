// Package push sends mobile push notifications through a provider-agnostic
// HTTP gateway.
package push

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Client talks to the push gateway configured for the deployment. The
// gateway abstracts the concrete provider (FCM, APNs, web push).
type Client struct {
	gatewayURL string
	apiKey     string
	client     *http.Client
}

func NewClient(gatewayURL, apiKey string) *Client {
	return &Client{
		gatewayURL: gatewayURL,
		apiKey:     apiKey,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

// sendRequest is the gateway payload. Platform sections are forwarded
// as-is so the gateway can apply android/ios/web specifics.
type sendRequest struct {
	Token    string          `json:"token"`
	Title    string          `json:"title"`
	Body     string          `json:"body,omitempty"`
	Data     json.RawMessage `json:"data,omitempty"`
	Priority string          `json:"priority,omitempty"`
	Sound    string          `json:"sound,omitempty"`
}

func (c *Client) Send(ctx context.Context, token, title, body string, data json.RawMessage, priority, sound string) error {
	reqBody := sendRequest{
		Token:    token,
		Title:    title,
		Body:     body,
		Data:     data,
		Priority: priority,
		Sound:    sound,
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.gatewayURL+"/v1/send", bytes.NewBuffer(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("push gateway error: %s", resp.Status)
	}

	return nil
}
