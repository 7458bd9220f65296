// Package notify posts the rendered update to a Slack channel.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"
)

const defaultEndpoint = "https://slack.com/api/chat.postMessage"

// Slack delivers messages via chat.postMessage. A client without a token is
// valid and skips every send.
type Slack struct {
	httpClient *http.Client
	endpoint   string
	token      string
	channel    string
}

// NewSlack builds a notifier. endpoint overrides the API URL for tests; empty
// means the public API.
func NewSlack(token, channel, endpoint string) *Slack {
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	return &Slack{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		endpoint:   endpoint,
		token:      token,
		channel:    channel,
	}
}

type postMessageRequest struct {
	Channel string `json:"channel"`
	Text    string `json:"text"`
}

type postMessageResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

// Send posts msg to the configured channel. Missing token or empty message
// skip the send without error.
func (s *Slack) Send(ctx context.Context, msg string) error {
	if s.token == "" {
		log.Print("notify: no slack token provided, skipping notification")
		return nil
	}
	if msg == "" {
		return nil
	}

	body, err := json.Marshal(postMessageRequest{Channel: s.channel, Text: msg})
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.token)
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("post message: unexpected status %d", resp.StatusCode)
	}

	var result postMessageResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if !result.OK {
		return fmt.Errorf("post message rejected: %s", result.Error)
	}
	return nil
}
