// Package metrics holds the Prometheus collectors for the API and the
// discovery engine.
package metrics

import (
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics groups every collector. A nil *Metrics is valid and records nothing.
type Metrics struct {
	RequestDuration  *prometheus.HistogramVec
	RequestsInFlight prometheus.Gauge
	CacheHits        prometheus.Counter
	CacheMisses      prometheus.Counter

	CandidatesTested   *prometheus.CounterVec
	CandidatesVerified *prometheus.CounterVec
	SweepFailures      *prometheus.CounterVec
	PopulationEstimate prometheus.Counter
	ChannelsStored     *prometheus.CounterVec
	SweepDuration      *prometheus.HistogramVec
	SweepRunning       prometheus.Gauge
	PostsPublished     prometheus.Counter
}

// New registers all collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		RequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "channelfinder_api_request_duration_seconds",
			Help:    "HTTP request duration in seconds, by endpoint and method.",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint", "method", "status"}),
		RequestsInFlight: f.NewGauge(prometheus.GaugeOpts{
			Name: "channelfinder_requests_in_flight",
			Help: "Number of HTTP requests currently being served.",
		}),
		CacheHits: f.NewCounter(prometheus.CounterOpts{
			Name: "channelfinder_cache_hits_total",
			Help: "Total Redis cache hits.",
		}),
		CacheMisses: f.NewCounter(prometheus.CounterOpts{
			Name: "channelfinder_cache_misses_total",
			Help: "Total Redis cache misses.",
		}),
		CandidatesTested: f.NewCounterVec(prometheus.CounterOpts{
			Name: "channelfinder_candidates_tested_total",
			Help: "Candidates submitted to verification, by source.",
		}, []string{"source"}),
		CandidatesVerified: f.NewCounterVec(prometheus.CounterOpts{
			Name: "channelfinder_candidates_verified_total",
			Help: "Candidates that resolved to a public channel, by source.",
		}, []string{"source"}),
		SweepFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "channelfinder_sweep_failures_total",
			Help: "Per-candidate failures, by kind (transient, store, unauthorized).",
		}, []string{"kind"}),
		PopulationEstimate: f.NewCounter(prometheus.CounterOpts{
			Name: "channelfinder_population_estimates_total",
			Help: "Verified channels whose member count had to be estimated.",
		}),
		ChannelsStored: f.NewCounterVec(prometheus.CounterOpts{
			Name: "channelfinder_channels_stored_total",
			Help: "Upserted channel records, by outcome (inserted, updated).",
		}, []string{"outcome"}),
		SweepDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "channelfinder_sweep_duration_seconds",
			Help:    "Wall-clock duration of discovery runs, by mode.",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}, []string{"mode"}),
		SweepRunning: f.NewGauge(prometheus.GaugeOpts{
			Name: "channelfinder_sweep_running",
			Help: "1 while a discovery run is in flight.",
		}),
		PostsPublished: f.NewCounter(prometheus.CounterOpts{
			Name: "channelfinder_posts_published_total",
			Help: "Recommendation posts sent to the target channel.",
		}),
	}
}

// RegisterPool exposes live pgxpool connection counts.
func RegisterPool(reg prometheus.Registerer, pool *pgxpool.Pool) {
	if pool == nil {
		return
	}
	f := promauto.With(reg)
	f.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "channelfinder_db_connection_pool_active",
		Help: "Number of active database connections.",
	}, func() float64 {
		return float64(pool.Stat().AcquiredConns())
	})
	f.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "channelfinder_db_connection_pool_idle",
		Help: "Number of idle database connections.",
	}, func() float64 {
		return float64(pool.Stat().IdleConns())
	})
}

func (m *Metrics) ObserveRequest(endpoint, method, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.RequestDuration.WithLabelValues(endpoint, method, status).Observe(d.Seconds())
}

func (m *Metrics) RequestStarted() {
	if m != nil {
		m.RequestsInFlight.Inc()
	}
}

func (m *Metrics) RequestFinished() {
	if m != nil {
		m.RequestsInFlight.Dec()
	}
}

func (m *Metrics) CacheHit() {
	if m != nil {
		m.CacheHits.Inc()
	}
}

func (m *Metrics) CacheMiss() {
	if m != nil {
		m.CacheMisses.Inc()
	}
}

// Tested records one verification attempt and whether it succeeded.
func (m *Metrics) Tested(source string, verified, estimated bool) {
	if m == nil {
		return
	}
	m.CandidatesTested.WithLabelValues(source).Inc()
	if verified {
		m.CandidatesVerified.WithLabelValues(source).Inc()
	}
	if estimated {
		m.PopulationEstimate.Inc()
	}
}

func (m *Metrics) Failure(kind string) {
	if m != nil {
		m.SweepFailures.WithLabelValues(kind).Inc()
	}
}

func (m *Metrics) Stored(inserted bool) {
	if m == nil {
		return
	}
	outcome := "updated"
	if inserted {
		outcome = "inserted"
	}
	m.ChannelsStored.WithLabelValues(outcome).Inc()
}

// SweepStarted marks a run as in flight. Call the returned func when it ends.
func (m *Metrics) SweepStarted(mode string) func() {
	if m == nil {
		return func() {}
	}
	start := time.Now()
	m.SweepRunning.Set(1)
	return func() {
		m.SweepRunning.Set(0)
		m.SweepDuration.WithLabelValues(mode).Observe(time.Since(start).Seconds())
	}
}

func (m *Metrics) Published() {
	if m != nil {
		m.PostsPublished.Inc()
	}
}
