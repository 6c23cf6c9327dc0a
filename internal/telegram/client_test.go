package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAPI routes /bot<token>/<method> to per-method handlers and records the
// decoded request bodies.
type fakeAPI struct {
	t        *testing.T
	handlers map[string]func(body map[string]any) (int, string)
	bodies   map[string]map[string]any
}

func newFakeAPI(t *testing.T) (*fakeAPI, *Client) {
	t.Helper()
	f := &fakeAPI{
		t:        t,
		handlers: make(map[string]func(map[string]any) (int, string)),
		bodies:   make(map[string]map[string]any),
	}
	srv := httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(srv.Close)
	return f, NewClient("123:secret", WithBaseURL(srv.URL))
}

func (f *fakeAPI) serve(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/"), "/")
	if len(parts) != 2 || parts[0] != "bot123:secret" {
		http.Error(w, "bad path", http.StatusNotFound)
		return
	}
	method := parts[1]

	var body map[string]any
	_ = json.NewDecoder(r.Body).Decode(&body)
	f.bodies[method] = body

	h, ok := f.handlers[method]
	if !ok {
		f.t.Errorf("unexpected method %s", method)
		w.WriteHeader(http.StatusNotImplemented)
		return
	}
	status, resp := h(body)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(resp))
}

func TestGetChat(t *testing.T) {
	api, c := newFakeAPI(t)
	api.handlers["getChat"] = func(map[string]any) (int, string) {
		return 200, `{"ok":true,"result":{"id":-1001,"type":"supergroup","title":"Bitcoin Talk","username":"bitcoin"}}`
	}

	chat, err := c.GetChat(context.Background(), "bitcoin")
	require.NoError(t, err)

	assert.Equal(t, int64(-1001), chat.ID)
	assert.Equal(t, "supergroup", chat.Type)
	assert.Equal(t, "Bitcoin Talk", chat.Title)
	assert.Equal(t, "@bitcoin", api.bodies["getChat"]["chat_id"])
}

func TestGetChat_NotFound(t *testing.T) {
	api, c := newFakeAPI(t)
	api.handlers["getChat"] = func(map[string]any) (int, string) {
		return 400, `{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`
	}

	_, err := c.GetChat(context.Background(), "nosuchchannel")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 400, apiErr.Code)
}

func TestGetChat_RateLimited(t *testing.T) {
	api, c := newFakeAPI(t)
	api.handlers["getChat"] = func(map[string]any) (int, string) {
		return 429, `{"ok":false,"error_code":429,"description":"Too Many Requests: retry after 7","parameters":{"retry_after":7}}`
	}

	_, err := c.GetChat(context.Background(), "busy")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNotFound), "429 is transient, not not-found")

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 7*time.Second, apiErr.RetryAfter)
}

func TestGetChat_RejectedToken(t *testing.T) {
	tests := []struct {
		name string
		body string
		code int
	}{
		{"revoked", `{"ok":false,"error_code":401,"description":"Unauthorized"}`, 401},
		{"malformed", `{"ok":false,"error_code":404,"description":"Not Found"}`, 404},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api, c := newFakeAPI(t)
			api.handlers["getChat"] = func(map[string]any) (int, string) { return tt.code, tt.body }

			_, err := c.GetChat(context.Background(), "golang")
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrUnauthorized))
			assert.False(t, errors.Is(err, ErrNotFound), "a refused token is not a missing chat")
		})
	}

	notFound := &APIError{Method: "getChat", Code: 400, Description: "Bad Request: chat not found"}
	assert.False(t, errors.Is(notFound, ErrUnauthorized))
}

func TestGetChatMemberCount(t *testing.T) {
	api, c := newFakeAPI(t)
	api.handlers["getChatMemberCount"] = func(map[string]any) (int, string) {
		return 200, `{"ok":true,"result":48213}`
	}

	n, err := c.GetChatMemberCount(context.Background(), -1001)
	require.NoError(t, err)

	assert.Equal(t, int64(48213), n)
	assert.Equal(t, float64(-1001), api.bodies["getChatMemberCount"]["chat_id"])
}

func TestSendMessage(t *testing.T) {
	api, c := newFakeAPI(t)
	api.handlers["sendMessage"] = func(map[string]any) (int, string) {
		return 200, `{"ok":true,"result":{"message_id":1}}`
	}

	err := c.SendMessage(context.Background(), SendMessageRequest{
		ChatID:    "@target",
		Text:      "<b>hi</b>",
		ParseMode: "HTML",
		Keyboard:  [][]InlineButton{{{Text: "Join", URL: "https://t.me/x"}}},
	})
	require.NoError(t, err)

	body := api.bodies["sendMessage"]
	assert.Equal(t, "@target", body["chat_id"])
	assert.Equal(t, "HTML", body["parse_mode"])
	markup, ok := body["reply_markup"].(map[string]any)
	require.True(t, ok)
	assert.Len(t, markup["inline_keyboard"], 1)
}

func TestGetMe(t *testing.T) {
	api, c := newFakeAPI(t)
	api.handlers["getMe"] = func(map[string]any) (int, string) {
		return 200, `{"ok":true,"result":{"id":42,"is_bot":true,"first_name":"Finder","username":"finder_bot"}}`
	}

	me, err := c.GetMe(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "finder_bot", me.Username)
}

func TestCall_ErrorDoesNotLeakToken(t *testing.T) {
	c := NewClient("123:secret", WithBaseURL("http://127.0.0.1:1"))

	_, err := c.GetChat(context.Background(), "x")
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "secret")
}

func TestCall_ContextCancelled(t *testing.T) {
	api, c := newFakeAPI(t)
	api.handlers["getChat"] = func(map[string]any) (int, string) {
		return 200, `{"ok":true,"result":{}}`
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.GetChat(ctx, "x")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
