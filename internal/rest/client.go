// Package rest is a minimal Discord REST client covering the two surfaces
// the engine needs: interaction webhook calls (follow-ups, edits, deletes)
// and out-of-band command registration.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/gosuda/hookcord/internal/discord"
)

// DefaultBaseURL is the versioned Discord HTTP API root.
const DefaultBaseURL = "https://discord.com/api/v10"

// APIError is a non-2xx response from the Discord API.
type APIError struct {
	Status  int    `json:"-"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("rest: discord api error: status %d code %d: %s", e.Status, e.Code, e.Message)
}

// Client talks to the Discord HTTP API. The bot token is only required for
// registration calls; webhook calls authenticate with the interaction token
// embedded in their URL.
type Client struct {
	baseURL  string
	botToken string
	http     *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API root, mainly for tests.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// New creates a Client. botToken may be empty for webhook-only use.
func New(botToken string, opts ...Option) *Client {
	c := &Client{
		baseURL:  DefaultBaseURL,
		botToken: botToken,
		http:     &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// do performs one JSON round trip. out may be nil when the response body is
// irrelevant; body may be nil for bodyless requests.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("rest.Client.do: marshal body: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("rest.Client.do: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.botToken != "" {
		req.Header.Set("Authorization", "Bot "+c.botToken)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("rest.Client.do: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	log.Debug().Str("method", method).Str("path", path).Int("status", resp.StatusCode).Msg("discord api call")

	if resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		_ = json.NewDecoder(resp.Body).Decode(apiErr)
		return apiErr
	}

	if out != nil && resp.StatusCode != http.StatusNoContent {
		if decodeErr := json.NewDecoder(resp.Body).Decode(out); decodeErr != nil {
			return fmt.Errorf("rest.Client.do: decode response: %w", decodeErr)
		}
	}

	return nil
}

func webhookURL(applicationID, token string) string {
	return fmt.Sprintf("/webhooks/%s/%s", applicationID, token)
}

// ExecuteWebhook creates a follow-up message on the interaction webhook.
func (c *Client) ExecuteWebhook(ctx context.Context, applicationID, token string, params *discord.WebhookParams) (*discord.Message, error) {
	var msg discord.Message
	err := c.do(ctx, http.MethodPost, webhookURL(applicationID, token)+"?wait=true", params, &msg)
	if err != nil {
		return nil, fmt.Errorf("rest.Client.ExecuteWebhook: %w", err)
	}
	return &msg, nil
}

// GetOriginalMessage fetches the initial interaction response message.
func (c *Client) GetOriginalMessage(ctx context.Context, applicationID, token string) (*discord.Message, error) {
	var msg discord.Message
	err := c.do(ctx, http.MethodGet, webhookURL(applicationID, token)+"/messages/@original", nil, &msg)
	if err != nil {
		return nil, fmt.Errorf("rest.Client.GetOriginalMessage: %w", err)
	}
	return &msg, nil
}

// EditOriginalMessage edits the initial interaction response message.
func (c *Client) EditOriginalMessage(ctx context.Context, applicationID, token string, params *discord.WebhookParams) (*discord.Message, error) {
	var msg discord.Message
	err := c.do(ctx, http.MethodPatch, webhookURL(applicationID, token)+"/messages/@original", params, &msg)
	if err != nil {
		return nil, fmt.Errorf("rest.Client.EditOriginalMessage: %w", err)
	}
	return &msg, nil
}

// DeleteOriginalMessage deletes the initial interaction response message.
func (c *Client) DeleteOriginalMessage(ctx context.Context, applicationID, token string) error {
	err := c.do(ctx, http.MethodDelete, webhookURL(applicationID, token)+"/messages/@original", nil, nil)
	if err != nil {
		return fmt.Errorf("rest.Client.DeleteOriginalMessage: %w", err)
	}
	return nil
}

// EditMessage edits a follow-up message by ID.
func (c *Client) EditMessage(ctx context.Context, applicationID, token, messageID string, params *discord.WebhookParams) (*discord.Message, error) {
	var msg discord.Message
	err := c.do(ctx, http.MethodPatch, fmt.Sprintf("%s/messages/%s", webhookURL(applicationID, token), messageID), params, &msg)
	if err != nil {
		return nil, fmt.Errorf("rest.Client.EditMessage: %w", err)
	}
	return &msg, nil
}

// DeleteMessage deletes a follow-up message by ID.
func (c *Client) DeleteMessage(ctx context.Context, applicationID, token, messageID string) error {
	err := c.do(ctx, http.MethodDelete, fmt.Sprintf("%s/messages/%s", webhookURL(applicationID, token), messageID), nil, nil)
	if err != nil {
		return fmt.Errorf("rest.Client.DeleteMessage: %w", err)
	}
	return nil
}

// GetUser fetches a user by ID. Requires a bot token.
func (c *Client) GetUser(ctx context.Context, userID string) (*discord.User, error) {
	var user discord.User
	err := c.do(ctx, http.MethodGet, "/users/"+userID, nil, &user)
	if err != nil {
		return nil, fmt.Errorf("rest.Client.GetUser: %w", err)
	}
	return &user, nil
}

// GetChannel fetches a channel by ID. Requires a bot token.
func (c *Client) GetChannel(ctx context.Context, channelID string) (*discord.Channel, error) {
	var ch discord.Channel
	err := c.do(ctx, http.MethodGet, "/channels/"+channelID, nil, &ch)
	if err != nil {
		return nil, fmt.Errorf("rest.Client.GetChannel: %w", err)
	}
	return &ch, nil
}

// CurrentApplication fetches the application that owns the bot token.
func (c *Client) CurrentApplication(ctx context.Context) (*discord.Application, error) {
	var app discord.Application
	err := c.do(ctx, http.MethodGet, "/oauth2/applications/@me", nil, &app)
	if err != nil {
		return nil, fmt.Errorf("rest.Client.CurrentApplication: %w", err)
	}
	return &app, nil
}

// RegisterCommands bulk-overwrites the application's global commands. This
// mirrors the platform's upsert semantics and runs outside the per-request
// hot path.
func (c *Client) RegisterCommands(ctx context.Context, applicationID string, commands []discord.ApplicationCommand) error {
	err := c.do(ctx, http.MethodPut, fmt.Sprintf("/applications/%s/commands", applicationID), commands, nil)
	if err != nil {
		return fmt.Errorf("rest.Client.RegisterCommands: %w", err)
	}

	log.Info().Int("count", len(commands)).Msg("registered application commands")

	return nil
}
