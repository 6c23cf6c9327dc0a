package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mathieu-neron/channelfinder/internal/discovery"
	"github.com/mathieu-neron/channelfinder/internal/metrics"
	"github.com/mathieu-neron/channelfinder/internal/model"
	"github.com/mathieu-neron/channelfinder/internal/telegram"
	"github.com/mathieu-neron/channelfinder/pkg/hash"
)

var (
	// ErrRunInProgress is returned when a run is requested while another is active.
	ErrRunInProgress = errors.New("discovery run already in progress")
	// ErrEmptyCandidates is returned when a run has nothing to verify.
	ErrEmptyCandidates = errors.New("no candidates to verify")
	// ErrNotVerified is returned by AddManual when the identifier is not a
	// public channel or supergroup.
	ErrNotVerified = errors.New("identifier is not a public channel")
)

// ChannelStore persists verified channels.
type ChannelStore interface {
	Upsert(ctx context.Context, ch *model.Channel) (inserted bool, err error)
}

// ChannelVerifier checks one identifier against the Bot API.
type ChannelVerifier interface {
	Verify(ctx context.Context, identifier string) (Verification, error)
}

// ChannelClassifier assigns a category from an identifier and title.
type ChannelClassifier interface {
	Classify(identifier, displayName string) model.Category
}

// CandidateGenerator expands a category into candidate identifiers.
type CandidateGenerator interface {
	Generate(category string, limit int) ([]string, error)
}

// PopularSource provides the curated candidate list.
type PopularSource interface {
	Popular() []string
}

// CacheInvalidator drops cached read models after writes.
type CacheInvalidator interface {
	InvalidateChannels(ctx context.Context) error
}

// DiscoveryDeps are the collaborators of a DiscoveryService. Cache and
// Metrics may be nil.
type DiscoveryDeps struct {
	Store      ChannelStore
	Verifier   ChannelVerifier
	Classifier ChannelClassifier
	Generator  CandidateGenerator
	Popular    PopularSource
	Cache      CacheInvalidator
	Metrics    *metrics.Metrics
	Pacer      *Pacer
}

// DiscoveryConfig tunes the sweep loop.
type DiscoveryConfig struct {
	Cap           int
	ProgressEvery int
	// OnProgress, if set, is called from the run goroutine every ProgressEvery candidates.
	OnProgress func(model.RunProgress)
}

// DiscoveryService runs discovery sweeps: verify each candidate, classify
// the survivors and upsert them. One run at a time.
type DiscoveryService struct {
	deps   DiscoveryDeps
	cfg    DiscoveryConfig
	logger zerolog.Logger
	newID  func() string

	mu     sync.Mutex
	status model.RunStatus
}

func NewDiscoveryService(deps DiscoveryDeps, cfg DiscoveryConfig, logger zerolog.Logger) *DiscoveryService {
	if cfg.Cap <= 0 {
		cfg.Cap = 50
	}
	if cfg.ProgressEvery <= 0 {
		cfg.ProgressEvery = 10
	}
	if deps.Pacer == nil {
		deps.Pacer = NewPacer(2*time.Second, nil)
	}
	return &DiscoveryService{
		deps:   deps,
		cfg:    cfg,
		logger: logger.With().Str("component", "discovery").Logger(),
		newID:  uuid.NewString,
		status: model.RunStatus{State: model.RunStateIdle},
	}
}

// sweepRequest parameterizes the single sweep loop shared by every entry point.
type sweepRequest struct {
	mode       model.RunMode
	category   string
	source     model.SourceTag
	candidates func() ([]string, error)
}

// run is the mutable state of one sweep, owned by the run goroutine.
type run struct {
	summary model.RunSummary
	stored  []model.Channel
	lastErr error
}

// RunTopicSweep verifies generator output for category (or "all") and
// stores the hits with source tag topic-sweep.
func (s *DiscoveryService) RunTopicSweep(ctx context.Context, category string) (*model.RunSummary, error) {
	r, err := s.runSync(ctx, s.topicRequest(category))
	if err != nil {
		return nil, err
	}
	return &r.summary, nil
}

// RunPopularSweep verifies the curated list with source tag curated-popular.
func (s *DiscoveryService) RunPopularSweep(ctx context.Context) (*model.RunSummary, error) {
	r, err := s.runSync(ctx, s.popularRequest())
	if err != nil {
		return nil, err
	}
	return &r.summary, nil
}

// StartTopicSweep validates and reserves a topic run, then sweeps in the
// background. ctx bounds the background run, not the call.
func (s *DiscoveryService) StartTopicSweep(ctx context.Context, category string) (string, error) {
	return s.runAsync(ctx, s.topicRequest(category))
}

// StartPopularSweep is the background variant of RunPopularSweep.
func (s *DiscoveryService) StartPopularSweep(ctx context.Context) (string, error) {
	return s.runAsync(ctx, s.popularRequest())
}

// AddManual verifies and stores a single operator-supplied identifier.
func (s *DiscoveryService) AddManual(ctx context.Context, identifier string) (*model.Channel, error) {
	id := model.NormalizeIdentifier(identifier)
	r, err := s.runSync(ctx, sweepRequest{
		mode:   model.RunModeManual,
		source: model.SourceManual,
		candidates: func() ([]string, error) {
			if id == "" {
				return nil, nil
			}
			return []string{id}, nil
		},
	})
	if err != nil {
		return nil, err
	}
	if len(r.stored) > 0 {
		ch := r.stored[0]
		return &ch, nil
	}
	if r.lastErr != nil {
		return nil, r.lastErr
	}
	if r.summary.Cancelled {
		return nil, ctx.Err()
	}
	return nil, fmt.Errorf("%w: @%s", ErrNotVerified, id)
}

// Status returns a snapshot of the engine state.
func (s *DiscoveryService) Status() model.RunStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.status
	if st.Current != nil {
		cur := *st.Current
		st.Current = &cur
	}
	if st.LastRun != nil {
		last := *st.LastRun
		st.LastRun = &last
	}
	return st
}

func (s *DiscoveryService) topicRequest(category string) sweepRequest {
	return sweepRequest{
		mode:     model.RunModeTopic,
		category: category,
		source:   model.SourceTopicSweep,
		candidates: func() ([]string, error) {
			return s.deps.Generator.Generate(category, s.cfg.Cap)
		},
	}
}

func (s *DiscoveryService) popularRequest() sweepRequest {
	return sweepRequest{
		mode:   model.RunModePopular,
		source: model.SourceCuratedPopular,
		candidates: func() ([]string, error) {
			return s.deps.Popular.Popular(), nil
		},
	}
}

func (s *DiscoveryService) runSync(ctx context.Context, req sweepRequest) (*run, error) {
	r, candidates, log, err := s.prepare(req)
	if err != nil {
		return nil, err
	}
	if err := s.complete(ctx, log, r, candidates); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *DiscoveryService) runAsync(ctx context.Context, req sweepRequest) (string, error) {
	r, candidates, log, err := s.prepare(req)
	if err != nil {
		return "", err
	}
	go s.complete(ctx, log, r, candidates)
	return r.summary.RunID, nil
}

// prepare reserves the engine and materializes the candidate list. On error
// the engine is back to idle.
func (s *DiscoveryService) prepare(req sweepRequest) (*run, []string, zerolog.Logger, error) {
	runID := s.newID()
	if err := s.begin(runID); err != nil {
		return nil, nil, s.logger, err
	}

	r := &run{summary: model.RunSummary{
		RunID:     runID,
		Mode:      req.mode,
		Category:  req.category,
		SourceTag: req.source,
		StartedAt: time.Now().UTC(),
	}}
	log := s.logger.With().Str("run_id", runID).Str("mode", string(req.mode)).Logger()

	candidates, err := req.candidates()
	if err == nil && len(candidates) == 0 {
		err = ErrEmptyCandidates
	}
	if err != nil {
		err = fmt.Errorf("%s run: %w", req.mode, err)
		log.Error().Err(err).Msg("discovery run rejected")
		s.end(nil, err)
		return nil, nil, log, err
	}

	r.summary.Generated = len(candidates)
	if len(candidates) > s.cfg.Cap {
		candidates = candidates[:s.cfg.Cap]
	}
	return r, candidates, log, nil
}

// complete sweeps the candidates and reports. The returned error is a
// run-level failure; the partial summary is still recorded as LastRun.
func (s *DiscoveryService) complete(ctx context.Context, log zerolog.Logger, r *run, candidates []string) error {
	log.Info().
		Str("category", r.summary.Category).
		Int("candidates", len(candidates)).
		Int("generated", r.summary.Generated).
		Str("fingerprint", hash.Fingerprint(candidates)).
		Msg("discovery run started")

	done := s.deps.Metrics.SweepStarted(string(r.summary.Mode))
	waitedBefore := s.deps.Pacer.Waited()

	runErr := s.sweep(ctx, log, r, candidates)

	s.setState(model.RunStateReporting)
	if r.summary.Stored > 0 && s.deps.Cache != nil {
		if err := s.deps.Cache.InvalidateChannels(context.WithoutCancel(ctx)); err != nil {
			log.Warn().Err(err).Msg("cache invalidation failed")
		}
	}
	done()

	r.summary.FinishedAt = time.Now().UTC()
	r.summary.Elapsed = r.summary.FinishedAt.Sub(r.summary.StartedAt)
	r.summary.Paced = s.deps.Pacer.Waited() - waitedBefore
	r.summary.ElapsedMs = r.summary.Elapsed.Milliseconds()
	r.summary.PacedMs = r.summary.Paced.Milliseconds()

	evt := log.Info()
	msg := "discovery run finished"
	if runErr != nil {
		evt, msg = log.Error().Err(runErr), "discovery run aborted"
	}
	evt.
		Int("tested", r.summary.Tested).
		Int("verified", r.summary.Verified).
		Int("stored", r.summary.Stored).
		Int("failed", r.summary.Failed).
		Bool("cancelled", r.summary.Cancelled).
		Dur("elapsed", r.summary.Elapsed).
		Dur("paced", r.summary.Paced).
		Msg(msg)

	s.end(&r.summary, runErr)
	return runErr
}

func (s *DiscoveryService) sweep(ctx context.Context, log zerolog.Logger, r *run, candidates []string) error {
	for _, candidate := range candidates {
		if err := s.deps.Pacer.Wait(ctx); err != nil {
			r.summary.Cancelled = true
			return nil
		}
		more, err := s.attempt(ctx, log, r, candidate)
		if err != nil {
			return fmt.Errorf("%s run: %w", r.summary.Mode, err)
		}
		if !more {
			r.summary.Cancelled = true
			return nil
		}
		if r.summary.Tested%s.cfg.ProgressEvery == 0 {
			s.progress(log, r, len(candidates))
		} else {
			s.updateProgress(r, len(candidates))
		}
	}
	return nil
}

// attempt verifies, classifies and stores one candidate. It returns false
// when ctx was cancelled, and an error when the bot token is rejected since
// every later candidate would fail the same way. The pacing delay starts
// once the attempt, including the store write, is over.
func (s *DiscoveryService) attempt(ctx context.Context, log zerolog.Logger, r *run, candidate string) (bool, error) {
	defer s.deps.Pacer.Mark()

	s.setState(model.RunStateVerifying)
	v, err := s.deps.Verifier.Verify(ctx, candidate)
	r.summary.Tested++

	if err != nil {
		if ctx.Err() != nil {
			return false, nil
		}
		if errors.Is(err, telegram.ErrUnauthorized) {
			r.summary.Failed++
			s.deps.Metrics.Failure("unauthorized")
			return false, err
		}
		var apiErr *telegram.APIError
		if errors.As(err, &apiErr) && apiErr.RetryAfter > 0 {
			s.deps.Pacer.Defer(apiErr.RetryAfter)
		}
		r.summary.Failed++
		r.lastErr = err
		s.deps.Metrics.Failure("transient")
		log.Warn().Err(err).Str("candidate", candidate).Msg("verification failed")
		return true, nil
	}

	s.deps.Metrics.Tested(string(r.summary.SourceTag), v.Valid, v.Estimated)
	if !v.Valid {
		log.Debug().Str("candidate", candidate).Str("kind", v.Kind).Msg("candidate rejected")
		return true, nil
	}
	r.summary.Verified++
	if ctx.Err() != nil {
		return false, nil
	}

	s.setState(model.RunStateClassifying)
	ch := model.Channel{
		Identifier:          v.Identifier,
		DisplayName:         v.DisplayName,
		Category:            s.deps.Classifier.Classify(v.Identifier, v.DisplayName),
		Population:          v.Population,
		PopulationEstimated: v.Estimated,
		SourceTag:           r.summary.SourceTag,
		Verified:            true,
	}

	s.setState(model.RunStatePersisting)
	inserted, err := s.deps.Store.Upsert(ctx, &ch)
	if err != nil {
		if ctx.Err() != nil {
			return false, nil
		}
		r.summary.Failed++
		r.lastErr = err
		s.deps.Metrics.Failure("store")
		log.Error().Err(err).Str("identifier", ch.Identifier).Msg("store channel failed")
		return true, nil
	}

	r.summary.Stored++
	r.stored = append(r.stored, ch)
	s.deps.Metrics.Stored(inserted)
	log.Info().
		Str("identifier", ch.Identifier).
		Str("category", string(ch.Category)).
		Int64("population", ch.Population).
		Bool("estimated", ch.PopulationEstimated).
		Bool("inserted", inserted).
		Msg("channel stored")
	return true, nil
}

func (s *DiscoveryService) progress(log zerolog.Logger, r *run, total int) {
	p := s.updateProgress(r, total)
	log.Info().Int("tested", p.Tested).Int("verified", p.Verified).Int("total", p.Total).Msg("discovery progress")
	if s.cfg.OnProgress != nil {
		s.cfg.OnProgress(p)
	}
}

func (s *DiscoveryService) updateProgress(r *run, total int) model.RunProgress {
	p := model.RunProgress{
		RunID:    r.summary.RunID,
		Tested:   r.summary.Tested,
		Verified: r.summary.Verified,
		Total:    total,
	}
	s.mu.Lock()
	cur := p
	s.status.Current = &cur
	s.mu.Unlock()
	return p
}

func (s *DiscoveryService) begin(runID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status.State != model.RunStateIdle {
		return ErrRunInProgress
	}
	s.status.State = model.RunStateGenerating
	s.status.Current = &model.RunProgress{RunID: runID}
	return nil
}

func (s *DiscoveryService) setState(state model.RunState) {
	s.mu.Lock()
	s.status.State = state
	s.mu.Unlock()
}

func (s *DiscoveryService) end(summary *model.RunSummary, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status.State = model.RunStateIdle
	s.status.Current = nil
	if summary != nil {
		last := *summary
		s.status.LastRun = &last
	}
	s.status.LastErr = ""
	if err != nil {
		s.status.LastErr = err.Error()
	}
}

// IsRunLevelError reports whether err failed a whole run: rejected before
// any candidate was tried, or aborted because the bot token was refused.
func IsRunLevelError(err error) bool {
	return errors.Is(err, discovery.ErrUnknownCategory) ||
		errors.Is(err, ErrEmptyCandidates) ||
		errors.Is(err, telegram.ErrUnauthorized)
}
