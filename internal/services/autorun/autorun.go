// Package autorun drives sync and summarization on fixed intervals
package autorun

import (
	"context"
	"sync/atomic"
	"time"

	"lifesync/internal/platform/config"
	"lifesync/internal/platform/logger"
	sumdom "lifesync/internal/services/summarize/domain"
	syncdom "lifesync/internal/services/sync/domain"
)

// SyncRunner is the sync surface the timers need
type SyncRunner interface {
	Start(ctx context.Context, req syncdom.Request) (syncdom.Outcome, error)
	Active() bool
}

// SummaryRunner is the summary surface the timers need
type SummaryRunner interface {
	SummarizeAll(ctx context.Context, force bool) (sumdom.Outcome, error)
	Active() bool
	Enabled() bool
	ValidateCredential(ctx context.Context) sumdom.CredentialCheck
}

// Config holds the timer intervals. A zero interval disables that timer
type Config struct {
	SyncEvery    time.Duration
	SummaryEvery time.Duration
	// OnStart runs an incremental sync as soon as Run is called
	OnStart bool
}

// FromConfig reads CORE_AUTORUN_ON_START. Intervals come from the sync and
// summary options
func FromConfig(cfg config.Conf, syncEvery, summaryEvery time.Duration) Config {
	return Config{
		SyncEvery:    syncEvery,
		SummaryEvery: summaryEvery,
		OnStart:      cfg.Prefix("CORE_AUTORUN_").MayBool("ON_START", true),
	}
}

// Service owns the two ticker loops
type Service struct {
	Sync    SyncRunner
	Summary SummaryRunner
	Cfg     Config

	// gate is set once the LLM credential checked out
	gate atomic.Bool
	log  logger.Logger
}

// New constructs the timers
func New(s SyncRunner, sum SummaryRunner, cfg Config) *Service {
	if s == nil || sum == nil {
		panic("autorun.Service requires sync and summary runners")
	}
	return &Service{Sync: s, Summary: sum, Cfg: cfg, log: *logger.Named("autorun")}
}

// Run blocks until ctx is done. Ticks that land while a run is active are skipped
func (s *Service) Run(ctx context.Context) error {
	s.log.Info().
		Dur("sync_every", s.Cfg.SyncEvery).
		Dur("summary_every", s.Cfg.SummaryEvery).
		Bool("summaries", s.Summary.Enabled()).
		Msg("autorun started")

	if s.Summary.Enabled() && s.Cfg.SummaryEvery > 0 {
		s.checkGate(ctx)
	}
	if s.Cfg.OnStart {
		s.syncTick(ctx)
	}

	done := make(chan struct{}, 2)
	go func() { s.loop(ctx, s.Cfg.SyncEvery, s.syncTick); done <- struct{}{} }()
	go func() { s.loop(ctx, s.Cfg.SummaryEvery, s.summaryTick); done <- struct{}{} }()
	<-done
	<-done
	return ctx.Err()
}

func (s *Service) loop(ctx context.Context, every time.Duration, tick func(context.Context)) {
	if every <= 0 {
		<-ctx.Done()
		return
	}
	t := time.NewTicker(every)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			tick(ctx)
		}
	}
}

func (s *Service) syncTick(ctx context.Context) {
	if s.Sync.Active() {
		s.log.Debug().Msg("sync tick skipped, run active")
		return
	}
	if _, err := s.Sync.Start(ctx, syncdom.Request{Mode: syncdom.Incremental}); err != nil {
		s.log.Warn().Err(err).Msg("scheduled sync failed")
	}
}

func (s *Service) summaryTick(ctx context.Context) {
	if !s.Summary.Enabled() {
		return
	}
	if s.Summary.Active() {
		s.log.Debug().Msg("summary tick skipped, run active")
		return
	}
	if !s.gate.Load() && !s.checkGate(ctx) {
		return
	}
	if _, err := s.Summary.SummarizeAll(ctx, false); err != nil {
		s.log.Warn().Err(err).Msg("scheduled summarization failed")
	}
}

// checkGate validates the LLM credential and opens the gate when usable
func (s *Service) checkGate(ctx context.Context) bool {
	chk := s.Summary.ValidateCredential(ctx)
	if !chk.Usable() {
		s.log.Warn().Str("status", string(chk.Status)).Msg("automatic summaries held until the LLM credential validates")
		return false
	}
	s.gate.Store(true)
	return true
}
