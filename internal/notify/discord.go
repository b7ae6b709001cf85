package notify

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"daily_quest/internal/model"

	"github.com/goccy/go-json"
)

const (
	DefaultTimeout = 10 * time.Second

	discordColor = 0x5865F2
)

type DiscordConfig struct {
	WebhookURL string
	Timeout    time.Duration
}

// Discord posts feedback as an embed to a Discord webhook.
type Discord struct {
	url    string
	client *http.Client
}

func NewDiscord(cfg DiscordConfig) *Discord {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Discord{
		url:    strings.TrimSpace(cfg.WebhookURL),
		client: &http.Client{Timeout: timeout},
	}
}

type discordPayload struct {
	Embeds []discordEmbed `json:"embeds"`
}

type discordEmbed struct {
	Title     string         `json:"title"`
	Color     int            `json:"color"`
	Fields    []discordField `json:"fields"`
	Timestamp string         `json:"timestamp"`
	Footer    discordFooter  `json:"footer"`
}

type discordField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type discordFooter struct {
	Text string `json:"text"`
}

func newDiscordPayload(feedback model.Feedback) discordPayload {
	createdAt := feedback.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	return discordPayload{
		Embeds: []discordEmbed{{
			Title: feedbackTitle,
			Color: discordColor,
			Fields: []discordField{
				{Name: "Session", Value: sessionLabel(feedback), Inline: true},
				{Name: "Message", Value: truncate(feedback.Message, MaxMessageLength), Inline: false},
			},
			Timestamp: createdAt.UTC().Format(time.RFC3339),
			Footer:    discordFooter{Text: feedbackFooter},
		}},
	}
}

func (d *Discord) Notify(ctx context.Context, feedback model.Feedback) error {
	if d.url == "" {
		return fmt.Errorf("discord: %w", ErrNotConfigured)
	}

	body, err := json.Marshal(newDiscordPayload(feedback))
	if err != nil {
		return fmt.Errorf("discord: encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("discord: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("discord: send: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &statusError{channel: "discord", status: resp.StatusCode}
	}
	return nil
}
