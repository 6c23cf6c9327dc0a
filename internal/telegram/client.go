// Package telegram is a minimal Telegram Bot API client covering the calls
// the discovery engine needs: chat lookup, member count, sending a post and
// the bot identity check.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultBaseURL is the public Bot API endpoint.
const DefaultBaseURL = "https://api.telegram.org"

var (
	// ErrNotFound is returned when the Bot API reports that a chat does not exist.
	ErrNotFound = errors.New("chat not found")
	// ErrUnauthorized matches responses that reject the bot token itself:
	// 401 for a revoked token, 404 for a malformed one.
	ErrUnauthorized = errors.New("bot token rejected")
)

// APIError is a non-ok Bot API response.
type APIError struct {
	Method      string
	Code        int
	Description string
	RetryAfter  time.Duration
}

func (e *APIError) Error() string {
	return fmt.Sprintf("telegram %s: %d %s", e.Method, e.Code, e.Description)
}

// Is makes errors.Is(err, ErrNotFound) true for "chat not found" style
// 400 responses and errors.Is(err, ErrUnauthorized) true for 401 and 404.
func (e *APIError) Is(target error) bool {
	if target == ErrUnauthorized {
		return e.Code == http.StatusUnauthorized || e.Code == http.StatusNotFound
	}
	if target != ErrNotFound {
		return false
	}
	if e.Code != http.StatusBadRequest {
		return false
	}
	d := strings.ToLower(e.Description)
	return strings.Contains(d, "not found") ||
		strings.Contains(d, "username_invalid") ||
		strings.Contains(d, "username_not_occupied") ||
		strings.Contains(d, "invalid")
}

// Chat is the subset of the Bot API Chat object used here.
type Chat struct {
	ID       int64  `json:"id"`
	Type     string `json:"type"`
	Title    string `json:"title"`
	Username string `json:"username"`
}

// User is the subset of the Bot API User object returned by getMe.
type User struct {
	ID        int64  `json:"id"`
	IsBot     bool   `json:"is_bot"`
	FirstName string `json:"first_name"`
	Username  string `json:"username"`
}

// InlineButton is a single URL button of an inline keyboard.
type InlineButton struct {
	Text string `json:"text"`
	URL  string `json:"url"`
}

// SendMessageRequest is the body of a sendMessage call.
type SendMessageRequest struct {
	ChatID    string
	Text      string
	ParseMode string
	Keyboard  [][]InlineButton
	NoPreview bool
}

type envelope struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result"`
	ErrorCode   int             `json:"error_code"`
	Description string          `json:"description"`
	Parameters  *struct {
		RetryAfter int `json:"retry_after"`
	} `json:"parameters"`
}

// Client talks to the Bot API over HTTPS.
type Client struct {
	token   string
	baseURL string
	http    *http.Client
}

// Option customizes a Client.
type Option func(*Client)

// WithBaseURL overrides the API endpoint (tests, local Bot API servers).
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// NewClient creates a client for the given bot token.
func NewClient(token string, opts ...Option) *Client {
	c := &Client{
		token:   token,
		baseURL: DefaultBaseURL,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetChat resolves a public chat by @username.
func (c *Client) GetChat(ctx context.Context, username string) (*Chat, error) {
	var chat Chat
	if err := c.call(ctx, "getChat", map[string]any{"chat_id": "@" + strings.TrimPrefix(username, "@")}, &chat); err != nil {
		return nil, err
	}
	return &chat, nil
}

// GetChatMemberCount returns the number of members of a chat.
func (c *Client) GetChatMemberCount(ctx context.Context, chatID int64) (int64, error) {
	var n int64
	if err := c.call(ctx, "getChatMemberCount", map[string]any{"chat_id": chatID}, &n); err != nil {
		return 0, err
	}
	return n, nil
}

// GetMe returns the identity of the bot the token belongs to.
func (c *Client) GetMe(ctx context.Context) (*User, error) {
	var u User
	if err := c.call(ctx, "getMe", map[string]any{}, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// SendMessage posts a message to a chat.
func (c *Client) SendMessage(ctx context.Context, msg SendMessageRequest) error {
	body := map[string]any{
		"chat_id": msg.ChatID,
		"text":    msg.Text,
	}
	if msg.ParseMode != "" {
		body["parse_mode"] = msg.ParseMode
	}
	if msg.NoPreview {
		body["link_preview_options"] = map[string]any{"is_disabled": true}
	}
	if len(msg.Keyboard) > 0 {
		body["reply_markup"] = map[string]any{"inline_keyboard": msg.Keyboard}
	}
	return c.call(ctx, "sendMessage", body, nil)
}

func (c *Client) call(ctx context.Context, method string, params map[string]any, out any) error {
	payload, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("encode %s: %w", method, err)
	}

	endpoint := fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		// The request URL embeds the bot token; keep it out of errors and logs.
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return fmt.Errorf("telegram %s: %w", method, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read %s response: %w", method, err)
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("telegram %s: HTTP %d: decode response: %w", method, resp.StatusCode, err)
	}

	if !env.OK {
		apiErr := &APIError{Method: method, Code: env.ErrorCode, Description: env.Description}
		if apiErr.Code == 0 {
			apiErr.Code = resp.StatusCode
		}
		if env.Parameters != nil && env.Parameters.RetryAfter > 0 {
			apiErr.RetryAfter = time.Duration(env.Parameters.RetryAfter) * time.Second
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(env.Result, out); err != nil {
		return fmt.Errorf("decode %s result: %w", method, err)
	}
	return nil
}
