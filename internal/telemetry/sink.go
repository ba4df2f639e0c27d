// Package telemetry is the isolated failure boundary for side-channel
// observability writes. Every method logs and continues on failure; nothing
// in here may affect pipeline control flow.
package telemetry

import (
	"context"
	"time"

	"server/internal/adapter/repo"
	"server/internal/infra"
)

// CounterStore is the subset of the analytics repository the sink needs.
type CounterStore interface {
	IncrementCounters(ctx context.Context, day string, c repo.DailyCounters) error
	IncrementCountryRequests(ctx context.Context, day, country string, n int) error
}

// Sink records usage counters on a best-effort basis.
type Sink struct {
	store  CounterStore
	logger infra.Logger
	now    func() time.Time
}

func NewSink(store CounterStore, logger infra.Logger) *Sink {
	return &Sink{store: store, logger: logger, now: time.Now}
}

func (s *Sink) Record(ctx context.Context, c repo.DailyCounters) {
	if s == nil || s.store == nil {
		return
	}
	day := s.now().UTC().Format("2006-01-02")
	if err := s.store.IncrementCounters(ctx, day, c); err != nil {
		s.logger.Warn().Err(err).Msg("telemetry: counter write failed")
	}
}

// RequestSeen counts one inbound request. A non-empty country, as resolved by
// the geoip lookup, also bumps that country's daily total.
func (s *Sink) RequestSeen(ctx context.Context, country string) {
	s.Record(ctx, repo.DailyCounters{Requests: 1})
	if s == nil || s.store == nil || country == "" {
		return
	}
	day := s.now().UTC().Format("2006-01-02")
	if err := s.store.IncrementCountryRequests(ctx, day, country, 1); err != nil {
		s.logger.Warn().Err(err).Str("country", country).Msg("telemetry: country counter write failed")
	}
}

func (s *Sink) PageQueued(ctx context.Context) {
	s.Record(ctx, repo.DailyCounters{PagesQueued: 1})
}

func (s *Sink) PageCompleted(ctx context.Context) {
	s.Record(ctx, repo.DailyCounters{PagesCompleted: 1})
}

func (s *Sink) PageFailed(ctx context.Context) {
	s.Record(ctx, repo.DailyCounters{PagesFailed: 1})
}

func (s *Sink) FallbackAnalysisUsed(ctx context.Context) {
	s.Record(ctx, repo.DailyCounters{FallbackAnalyses: 1})
}
