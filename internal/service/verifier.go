package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/mathieu-neron/channelfinder/internal/model"
	"github.com/mathieu-neron/channelfinder/internal/telegram"
)

// MinIdentifierLen is the shortest username the Bot API can resolve.
const MinIdentifierLen = 3

// Chat kinds that count as a discoverable channel.
var acceptedKinds = map[string]bool{
	"channel":    true,
	"supergroup": true,
}

// ChatLookup is the part of the Bot API the verifier needs.
type ChatLookup interface {
	GetChat(ctx context.Context, username string) (*telegram.Chat, error)
	GetChatMemberCount(ctx context.Context, chatID int64) (int64, error)
}

// EstimationPolicy supplies a member count when the real one is unavailable.
type EstimationPolicy interface {
	Estimate() int64
}

// Verification is the outcome of probing one identifier.
type Verification struct {
	Valid       bool
	Identifier  string
	DisplayName string
	Kind        string
	Population  int64
	Estimated   bool
}

// UniformEstimator draws estimates uniformly from [Min, Max).
type UniformEstimator struct {
	Min, Max int64

	mu  sync.Mutex
	rng *rand.Rand
}

// NewUniformEstimator returns an estimator over [min, max). A nil src seeds
// from the clock.
func NewUniformEstimator(min, max int64, src rand.Source) *UniformEstimator {
	if src == nil {
		now := uint64(time.Now().UnixNano())
		src = rand.NewPCG(now, now>>17)
	}
	if max <= min {
		max = min + 1
	}
	return &UniformEstimator{Min: min, Max: max, rng: rand.New(src)}
}

func (e *UniformEstimator) Estimate() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.Min + e.rng.Int64N(e.Max-e.Min)
}

// Verifier checks candidate identifiers against the Bot API.
type Verifier struct {
	api      ChatLookup
	estimate EstimationPolicy
	logger   zerolog.Logger
}

func NewVerifier(api ChatLookup, estimate EstimationPolicy, logger zerolog.Logger) *Verifier {
	return &Verifier{
		api:      api,
		estimate: estimate,
		logger:   logger.With().Str("component", "verifier").Logger(),
	}
}

// Verify resolves identifier and reports whether it is a public channel or
// supergroup. A "not found" answer is an invalid result, not an error. Any
// other lookup failure yields an invalid result plus the error so callers
// can count it.
func (v *Verifier) Verify(ctx context.Context, identifier string) (Verification, error) {
	id := model.NormalizeIdentifier(identifier)
	res := Verification{Identifier: id}
	if len(id) < MinIdentifierLen {
		return res, nil
	}

	chat, err := v.api.GetChat(ctx, id)
	if err != nil {
		if errors.Is(err, telegram.ErrNotFound) {
			return res, nil
		}
		return res, fmt.Errorf("verify @%s: %w", id, err)
	}

	res.Kind = chat.Type
	if !acceptedKinds[chat.Type] {
		return res, nil
	}

	res.Valid = true
	res.DisplayName = strings.TrimSpace(chat.Title)
	if res.DisplayName == "" {
		res.DisplayName = id
	}

	n, err := v.api.GetChatMemberCount(ctx, chat.ID)
	if err != nil || n < 0 {
		v.logger.Debug().Err(err).Str("identifier", id).Msg("member count unavailable, estimating")
		res.Population = v.estimate.Estimate()
		res.Estimated = true
		return res, nil
	}
	res.Population = n
	return res, nil
}
