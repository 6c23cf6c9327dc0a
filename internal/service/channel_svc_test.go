package service

import (
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mathieu-neron/channelfinder/internal/catalog"
	"github.com/mathieu-neron/channelfinder/internal/discovery"
	"github.com/mathieu-neron/channelfinder/internal/model"
	"github.com/mathieu-neron/channelfinder/internal/repository"
	"github.com/mathieu-neron/channelfinder/internal/telegram"
)

type fakeReader struct {
	channels  map[int64]*model.Channel
	lastLimit int
	listed    []model.Channel
}

func (f *fakeReader) ListByCategory(_ context.Context, _ model.Category, limit int) ([]model.Channel, error) {
	f.lastLimit = limit
	return f.listed, nil
}

func (f *fakeReader) GetByID(_ context.Context, id int64) (*model.Channel, error) {
	if ch, ok := f.channels[id]; ok {
		return ch, nil
	}
	return nil, repository.ErrChannelNotFound
}

func (f *fakeReader) Stats(context.Context) (*model.StatsResponse, error) {
	stats := repository.NewEmptyStats()
	stats.TotalChannels = 3
	stats.Categories[model.CategoryNews] = 2
	stats.Categories[model.CategorySport] = 1
	return stats, nil
}

func newChannelService(reader *fakeReader) *ChannelService {
	return NewChannelService(reader, NewCacheService("", zerolog.Nop(), nil), catalog.Default(), zerolog.Nop())
}

func TestChannelService_List(t *testing.T) {
	reader := &fakeReader{}
	svc := newChannelService(reader)

	resp, err := svc.List(context.Background(), model.CategoryNews, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, reader.lastLimit, "zero lists the whole category")
	assert.Equal(t, "📰 News", resp.Label)
	assert.NotNil(t, resp.Channels, "empty listing should encode as []")

	_, err = svc.List(context.Background(), model.CategoryNews, 5000)
	require.NoError(t, err)
	assert.Equal(t, 5000, reader.lastLimit, "large limits reach the store unchanged")
}

func TestChannelService_ListUnknownCategory(t *testing.T) {
	svc := newChannelService(&fakeReader{})
	_, err := svc.List(context.Background(), "cooking", 10)
	assert.ErrorIs(t, err, discovery.ErrUnknownCategory)
}

func TestChannelService_GetNotFound(t *testing.T) {
	svc := newChannelService(&fakeReader{channels: map[int64]*model.Channel{}})
	_, err := svc.Get(context.Background(), 9)
	assert.ErrorIs(t, err, repository.ErrChannelNotFound)
}

func TestChannelService_Categories(t *testing.T) {
	svc := newChannelService(&fakeReader{})

	cats, err := svc.Categories(context.Background())
	require.NoError(t, err)
	require.Len(t, cats, len(model.Categories))
	assert.Equal(t, model.CategoryBusiness, cats[0].Key)
	assert.Equal(t, 2, cats[2].Count)
	assert.Equal(t, "📰 News", cats[2].Label)
}

type recordingSender struct {
	sent []telegram.SendMessageRequest
}

func (r *recordingSender) SendMessage(_ context.Context, msg telegram.SendMessageRequest) error {
	r.sent = append(r.sent, msg)
	return nil
}

func TestPublishService_Publish(t *testing.T) {
	reader := &fakeReader{channels: map[int64]*model.Channel{
		7: {ID: 7, Identifier: "bitcoin", DisplayName: "Bitcoin <Talk> & more", Category: model.CategoryBusiness, Population: 1234567, PopulationEstimated: true},
	}}
	sender := &recordingSender{}
	svc := NewPublishService(newChannelService(reader), sender, catalog.Default(), "@foydali_uz_botlar", nil, zerolog.Nop())

	ch, err := svc.Publish(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "bitcoin", ch.Identifier)

	require.Len(t, sender.sent, 1)
	msg := sender.sent[0]
	assert.Equal(t, "@foydali_uz_botlar", msg.ChatID)
	assert.Equal(t, "HTML", msg.ParseMode)
	assert.Contains(t, msg.Text, "Bitcoin &lt;Talk&gt; &amp; more")
	assert.Contains(t, msg.Text, "~1,234,567")
	assert.Contains(t, msg.Text, "💰 Business")
	assert.True(t, strings.Contains(msg.Text, "@bitcoin"))

	require.Len(t, msg.Keyboard, 2)
	assert.Equal(t, "https://t.me/bitcoin", msg.Keyboard[0][0].URL)
	assert.Equal(t, "https://t.me/foydali_uz_botlar", msg.Keyboard[1][0].URL)
}

func TestPublishService_NumericTargetHasNoOwnButton(t *testing.T) {
	svc := NewPublishService(nil, nil, catalog.Default(), "-1001234567890", nil, zerolog.Nop())
	msg := svc.Post(&model.Channel{Identifier: "golang", DisplayName: "Go", Category: model.CategoryTechnology, Population: 10})
	assert.Len(t, msg.Keyboard, 1)
	assert.Contains(t, msg.Text, "👥 <b>Members:</b> 10\n")
}

func TestPublishService_NoTarget(t *testing.T) {
	svc := NewPublishService(nil, nil, catalog.Default(), "  ", nil, zerolog.Nop())
	_, err := svc.Publish(context.Background(), 1)
	assert.ErrorIs(t, err, ErrNoTarget)
}

func TestPublishService_MissingChannel(t *testing.T) {
	sender := &recordingSender{}
	svc := NewPublishService(newChannelService(&fakeReader{channels: map[int64]*model.Channel{}}), sender, catalog.Default(), "@target", nil, zerolog.Nop())
	_, err := svc.Publish(context.Background(), 42)
	assert.ErrorIs(t, err, repository.ErrChannelNotFound)
	assert.Empty(t, sender.sent)
}
