package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/mathieu-neron/channelfinder/internal/discovery"
	"github.com/mathieu-neron/channelfinder/internal/model"
)

// ChannelReader is the read side of the channel store.
type ChannelReader interface {
	ListByCategory(ctx context.Context, category model.Category, limit int) ([]model.Channel, error)
	GetByID(ctx context.Context, id int64) (*model.Channel, error)
	Stats(ctx context.Context) (*model.StatsResponse, error)
}

// CategoryLabeler returns display labels and the known categories in order.
type CategoryLabeler interface {
	Order() []model.Category
	Label(cat model.Category) string
}

type ChannelService struct {
	repo   ChannelReader
	cache  *CacheService
	labels CategoryLabeler
	logger zerolog.Logger
}

func NewChannelService(repo ChannelReader, cache *CacheService, labels CategoryLabeler, logger zerolog.Logger) *ChannelService {
	return &ChannelService{
		repo:   repo,
		cache:  cache,
		labels: labels,
		logger: logger.With().Str("component", "channels").Logger(),
	}
}

// List returns the top channels of a category by population. The limit is
// passed through as given; limit <= 0 lists the whole category.
// Uses cache-aside: check Redis first, fall back to DB, then populate cache.
func (s *ChannelService) List(ctx context.Context, category model.Category, limit int) (*model.ChannelListResponse, error) {
	if !category.Valid() {
		return nil, fmt.Errorf("%w: %q", discovery.ErrUnknownCategory, category)
	}
	var resp model.ChannelListResponse
	if hit, err := s.cache.GetList(ctx, category, limit, &resp); err != nil {
		s.logger.Warn().Err(err).Msg("cache: list get error")
	} else if hit {
		return &resp, nil
	}

	channels, err := s.repo.ListByCategory(ctx, category, limit)
	if err != nil {
		return nil, err
	}
	if channels == nil {
		channels = []model.Channel{}
	}
	resp = model.ChannelListResponse{
		Category: category,
		Label:    s.labels.Label(category),
		Channels: channels,
	}

	if err := s.cache.SetList(ctx, category, limit, resp); err != nil {
		s.logger.Warn().Err(err).Msg("cache: list set error")
	}
	return &resp, nil
}

// Get returns a single channel by id.
func (s *ChannelService) Get(ctx context.Context, id int64) (*model.Channel, error) {
	var ch model.Channel
	if hit, err := s.cache.GetChannel(ctx, id, &ch); err != nil {
		s.logger.Warn().Err(err).Msg("cache: channel get error")
	} else if hit {
		return &ch, nil
	}

	found, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.cache.SetChannel(ctx, id, found); err != nil {
		s.logger.Warn().Err(err).Msg("cache: channel set error")
	}
	return found, nil
}

// Stats returns the aggregate statistics.
func (s *ChannelService) Stats(ctx context.Context) (*model.StatsResponse, error) {
	var stats model.StatsResponse
	if hit, err := s.cache.GetStats(ctx, &stats); err != nil {
		s.logger.Warn().Err(err).Msg("cache: stats get error")
	} else if hit {
		return &stats, nil
	}

	fresh, err := s.repo.Stats(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.cache.SetStats(ctx, fresh); err != nil {
		s.logger.Warn().Err(err).Msg("cache: stats set error")
	}
	return fresh, nil
}

// Categories lists every category with its label and stored channel count.
func (s *ChannelService) Categories(ctx context.Context) ([]model.CategoryInfo, error) {
	stats, err := s.Stats(ctx)
	if err != nil {
		return nil, err
	}
	order := s.labels.Order()
	out := make([]model.CategoryInfo, 0, len(order))
	for _, c := range order {
		out = append(out, model.CategoryInfo{Key: c, Label: s.labels.Label(c), Count: stats.Categories[c]})
	}
	return out, nil
}

// Label returns the display label of a category.
func (s *ChannelService) Label(c model.Category) string {
	return s.labels.Label(c)
}
