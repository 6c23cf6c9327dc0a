package service

import (
	"context"
	"errors"
	"math/rand/v2"
	"net/http"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mathieu-neron/channelfinder/internal/telegram"
)

type fixedEstimate int64

func (f fixedEstimate) Estimate() int64 { return int64(f) }

func TestVerify(t *testing.T) {
	api := &fakeChatAPI{
		chats: map[string]*telegram.Chat{
			"golang":     {ID: 1, Type: "channel", Title: "Go News"},
			"gophers":    {ID: 2, Type: "supergroup", Title: "  "},
			"someperson": {ID: 3, Type: "private"},
			"oldgroup":   {ID: 4, Type: "group", Title: "Old group"},
		},
		counts: map[int64]int64{1: 250000},
	}
	v := NewVerifier(api, fixedEstimate(7777), zerolog.Nop())

	tests := []struct {
		name       string
		input      string
		valid      bool
		display    string
		population int64
		estimated  bool
	}{
		{"channel with count", "golang", true, "Go News", 250000, false},
		{"normalizes prefix", "https://t.me/GoLang", true, "Go News", 250000, false},
		{"supergroup empty title falls back", "gophers", true, "gophers", 7777, true},
		{"private chat rejected", "someperson", false, "", 0, false},
		{"basic group rejected", "oldgroup", false, "", 0, false},
		{"not found", "missing_channel", false, "", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := v.Verify(context.Background(), tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.valid, res.Valid)
			assert.Equal(t, tt.display, res.DisplayName)
			assert.Equal(t, tt.population, res.Population)
			assert.Equal(t, tt.estimated, res.Estimated)
		})
	}
}

func TestVerify_ShortIdentifierSkipsLookup(t *testing.T) {
	api := &fakeChatAPI{}
	v := NewVerifier(api, fixedEstimate(1), zerolog.Nop())

	for _, id := range []string{"", "@a", "ab", "  x "} {
		res, err := v.Verify(context.Background(), id)
		require.NoError(t, err)
		assert.False(t, res.Valid, id)
	}
	assert.Zero(t, api.getChatHits)
}

func TestVerify_TransientErrorIsReturned(t *testing.T) {
	throttled := &telegram.APIError{Method: "getChat", Code: http.StatusTooManyRequests, Description: "Too Many Requests", RetryAfter: 5 * time.Second}
	api := &fakeChatAPI{chatErr: throttled}
	v := NewVerifier(api, fixedEstimate(1), zerolog.Nop())

	res, err := v.Verify(context.Background(), "golang")
	require.Error(t, err)
	assert.False(t, res.Valid)

	var apiErr *telegram.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 5*time.Second, apiErr.RetryAfter)
}

func TestUniformEstimator_Range(t *testing.T) {
	e := NewUniformEstimator(5000, 105000, rand.NewPCG(1, 2))
	for i := 0; i < 10000; i++ {
		n := e.Estimate()
		if n < 5000 || n >= 105000 {
			t.Fatalf("estimate %d outside [5000, 105000)", n)
		}
	}
}

func TestUniformEstimator_EmptyRange(t *testing.T) {
	e := NewUniformEstimator(10, 10, nil)
	assert.Equal(t, int64(10), e.Estimate())
}
