// Package discord delivers messages to Discord channels through webhook
// URLs. Delivery is fire-and-forget with a bounded timeout; the caller never
// retries and failures are the caller's to log.
package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

type Sender struct {
	Client *http.Client
}

func NewSender() *Sender {
	return &Sender{Client: &http.Client{Timeout: 10 * time.Second}}
}

// Embed is the subset of Discord's embed object the bot uses.
type Embed struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Color       int    `json:"color,omitempty"`
}

type webhookMessage struct {
	Content string  `json:"content,omitempty"`
	Embeds  []Embed `json:"embeds,omitempty"`
}

// Send posts a plain message to a channel webhook.
func (s *Sender) Send(ctx context.Context, webhookURL, content string) error {
	return s.post(ctx, webhookURL, webhookMessage{Content: content})
}

// SendEmbed posts an embed to a channel webhook.
func (s *Sender) SendEmbed(ctx context.Context, webhookURL string, embed Embed) error {
	return s.post(ctx, webhookURL, webhookMessage{Embeds: []Embed{embed}})
}

func (s *Sender) post(ctx context.Context, webhookURL string, msg webhookMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("discord: marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("discord: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.Client.Do(req)
	if err != nil {
		return fmt.Errorf("discord: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("discord: unexpected status %d", resp.StatusCode)
	}
	return nil
}
