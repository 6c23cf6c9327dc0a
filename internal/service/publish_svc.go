package service

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/mathieu-neron/channelfinder/internal/metrics"
	"github.com/mathieu-neron/channelfinder/internal/model"
	"github.com/mathieu-neron/channelfinder/internal/telegram"
)

// ErrNoTarget is returned when publishing without a configured target channel.
var ErrNoTarget = errors.New("no target channel configured")

// MessageSender posts a message through the Bot API.
type MessageSender interface {
	SendMessage(ctx context.Context, msg telegram.SendMessageRequest) error
}

// ChannelGetter loads one stored channel.
type ChannelGetter interface {
	Get(ctx context.Context, id int64) (*model.Channel, error)
}

// PublishService sends a stored channel to the target channel as a
// recommendation post.
type PublishService struct {
	channels ChannelGetter
	sender   MessageSender
	labels   CategoryLabeler
	target   string
	metrics  *metrics.Metrics
	logger   zerolog.Logger
	printer  *message.Printer
}

func NewPublishService(channels ChannelGetter, sender MessageSender, labels CategoryLabeler, target string, m *metrics.Metrics, logger zerolog.Logger) *PublishService {
	return &PublishService{
		channels: channels,
		sender:   sender,
		labels:   labels,
		target:   strings.TrimSpace(target),
		metrics:  m,
		logger:   logger.With().Str("component", "publish").Logger(),
		printer:  message.NewPrinter(language.English),
	}
}

// Target returns the chat the posts go to.
func (s *PublishService) Target() string {
	return s.target
}

// Publish loads channel id and posts it to the target channel.
func (s *PublishService) Publish(ctx context.Context, id int64) (*model.Channel, error) {
	if s.target == "" {
		return nil, ErrNoTarget
	}
	ch, err := s.channels.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.sender.SendMessage(ctx, s.Post(ch)); err != nil {
		return nil, fmt.Errorf("publish @%s to %s: %w", ch.Identifier, s.target, err)
	}
	s.metrics.Published()
	s.logger.Info().Str("identifier", ch.Identifier).Str("target", s.target).Msg("recommendation posted")
	return ch, nil
}

// Post renders the recommendation message for ch.
func (s *PublishService) Post(ch *model.Channel) telegram.SendMessageRequest {
	var b strings.Builder
	b.WriteString("📢 <b>Channel Recommendation</b>\n\n")
	fmt.Fprintf(&b, "📝 <b>Name:</b> %s\n", html.EscapeString(ch.DisplayName))
	fmt.Fprintf(&b, "🏷 <b>Category:</b> %s\n", html.EscapeString(s.labels.Label(ch.Category)))
	members := s.printer.Sprintf("%d", ch.Population)
	if ch.PopulationEstimated {
		members = "~" + members
	}
	fmt.Fprintf(&b, "👥 <b>Members:</b> %s\n\n", members)
	fmt.Fprintf(&b, "👉 <b>Channel:</b> @%s\n\n", html.EscapeString(ch.Identifier))
	b.WriteString("✅ Verified public channel\n")
	b.WriteString("━━━━━━━━━━━━━━━━━━━")

	keyboard := [][]telegram.InlineButton{
		{{Text: fmt.Sprintf("📢 @%s - Join", ch.Identifier), URL: ch.Link()}},
	}
	if own, ok := publicLink(s.target); ok {
		keyboard = append(keyboard, []telegram.InlineButton{{Text: "⭐ Our Channel", URL: own}})
	}

	return telegram.SendMessageRequest{
		ChatID:    s.target,
		Text:      b.String(),
		ParseMode: "HTML",
		Keyboard:  keyboard,
		NoPreview: true,
	}
}

// publicLink turns an @username target into its t.me URL. Numeric chat ids
// have no public link.
func publicLink(target string) (string, bool) {
	if !strings.HasPrefix(target, "@") {
		return "", false
	}
	return "https://t.me/" + strings.TrimPrefix(target, "@"), true
}
