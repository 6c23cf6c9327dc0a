package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/mathieu-neron/channelfinder/internal/model"
)

// PopularSweeper runs one curated sweep.
type PopularSweeper interface {
	RunPopularSweep(ctx context.Context) (*model.RunSummary, error)
}

// DiscoveryWorker is a periodic background job that re-verifies the curated
// list, refreshing member counts and categories of known channels.
type DiscoveryWorker struct {
	sweeper  PopularSweeper
	interval time.Duration
	logger   zerolog.Logger
	stopCh   chan struct{}
}

// NewDiscoveryWorker creates a worker that ticks every interval.
func NewDiscoveryWorker(sweeper PopularSweeper, interval time.Duration, logger zerolog.Logger) *DiscoveryWorker {
	return &DiscoveryWorker{
		sweeper:  sweeper,
		interval: interval,
		logger:   logger.With().Str("component", "discovery-worker").Logger(),
		stopCh:   make(chan struct{}),
	}
}

// Start begins the periodic sweep loop. It runs one tick immediately, then
// every interval, until ctx is done or Stop is called.
func (w *DiscoveryWorker) Start(ctx context.Context) {
	w.logger.Info().Dur("interval", w.interval).Msg("starting")

	w.tick(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.tick(ctx)
		case <-ctx.Done():
			w.logger.Info().Msg("stopping (context cancelled)")
			return
		case <-w.stopCh:
			w.logger.Info().Msg("stopping (stop signal)")
			return
		}
	}
}

// Stop signals the worker to stop.
func (w *DiscoveryWorker) Stop() {
	close(w.stopCh)
}

func (w *DiscoveryWorker) tick(ctx context.Context) {
	summary, err := w.sweeper.RunPopularSweep(ctx)
	if errors.Is(err, ErrRunInProgress) {
		w.logger.Info().Msg("tick skipped, a run is already in progress")
		return
	}
	if err != nil {
		w.logger.Error().Err(err).Msg("tick failed")
		return
	}
	w.logger.Info().
		Str("run_id", summary.RunID).
		Int("stored", summary.Stored).
		Int("failed", summary.Failed).
		Dur("elapsed", summary.Elapsed).
		Msg("tick complete")
}
