// Package telex is the HTTP client for the Telex.im messaging API:
// outbound text messages and best-effort typing indicators.
package telex

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"orunmila/internal/domain"
)

const (
	sendTimeout   = 10 * time.Second
	typingTimeout = 5 * time.Second
)

// Client talks to the Telex REST API. Read-only after construction and
// safe for concurrent use.
type Client struct {
	apiBase string
	apiKey  string
	botID   string
	client  *http.Client
	logger  *slog.Logger
}

type Config struct {
	APIBase string
	APIKey  string
	BotID   string
	Logger  *slog.Logger
}

func New(cfg Config) *Client {
	if cfg.APIBase == "" {
		cfg.APIBase = "https://api.telex.im/v1"
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Client{
		apiBase: cfg.APIBase,
		apiKey:  cfg.APIKey,
		botID:   cfg.BotID,
		client:  &http.Client{Timeout: sendTimeout},
		logger:  cfg.Logger,
	}
}

// SendMessage posts an outbound message. Returns a DeliveryError on any
// network failure or non-2xx status; the caller decides whether to retry
// or report.
func (c *Client) SendMessage(ctx context.Context, msg domain.OutboundMessage) (domain.DeliveryResult, error) {
	jsonBody, err := json.Marshal(msg)
	if err != nil {
		return nil, &domain.DeliveryError{Err: fmt.Errorf("marshal: %w", err)}
	}

	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "POST", c.apiBase+"/messages", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, &domain.DeliveryError{Err: err}
	}
	c.setHeaders(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &domain.DeliveryError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &domain.DeliveryError{Status: resp.StatusCode, Body: string(body)}
	}

	var result domain.DeliveryResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &domain.DeliveryError{Status: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}

	c.logger.Info("message sent", "chat_id", msg.ChatID, "reply_to", msg.ReplyToMessageID)
	return result, nil
}

// SendText sends a plain text reply to a chat.
func (c *Client) SendText(ctx context.Context, chatID, text, replyToMessageID string) (domain.DeliveryResult, error) {
	return c.SendMessage(ctx, domain.OutboundMessage{
		ChatID:           chatID,
		Text:             text,
		ReplyToMessageID: replyToMessageID,
		ParseMode:        "Markdown",
	})
}

// SendTyping shows the bot as typing in a chat. Best-effort: a failed
// typing indicator must never abort message delivery, so errors are
// logged and swallowed.
func (c *Client) SendTyping(ctx context.Context, chatID string) {
	jsonBody, _ := json.Marshal(map[string]string{"chat_id": chatID, "action": "typing"})

	ctx, cancel := context.WithTimeout(ctx, typingTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "POST", c.apiBase+"/actions", bytes.NewReader(jsonBody))
	if err != nil {
		c.logger.Warn("typing indicator failed", "chat_id", chatID, "err", err)
		return
	}
	c.setHeaders(req)

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Warn("typing indicator failed", "chat_id", chatID, "err", err)
		return
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("typing indicator rejected", "chat_id", chatID, "status", resp.StatusCode)
		return
	}
	c.logger.Debug("typing indicator sent", "chat_id", chatID)
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}
