package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// GatewayClient talks to the upstream SMS provider HTTP API.
type GatewayClient struct {
	url      string
	senderID string
	http     *http.Client
}

// SendRequest is the provider submit payload.
type SendRequest struct {
	MessageID string `json:"message_id"`
	Sender    string `json:"sender,omitempty"`
	To        string `json:"to"`
	Body      string `json:"body"`
}

type sendResponse struct {
	Accepted bool   `json:"accepted"`
	Detail   string `json:"detail"`
}

func NewGatewayClient(url, senderID string, timeout time.Duration) *GatewayClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &GatewayClient{
		url:      url,
		senderID: senderID,
		http:     &http.Client{Timeout: timeout},
	}
}

// Submit hands one message to the provider. A non-2xx status or an explicit
// rejection in the body is an error; the consumer decides whether to retry.
func (c *GatewayClient) Submit(ctx context.Context, req SendRequest) error {
	if c.url == "" {
		return fmt.Errorf("sms gateway url not configured")
	}
	req.Sender = c.senderID
	payload, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal gateway request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build gateway request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return fmt.Errorf("gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("gateway returned %d: %s", resp.StatusCode, string(body))
	}
	var sr sendResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		// some providers answer 200 with an empty body
		return nil
	}
	if !sr.Accepted && sr.Detail != "" {
		return fmt.Errorf("gateway rejected message: %s", sr.Detail)
	}
	return nil
}
