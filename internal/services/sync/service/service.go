// Package service implements the lifelog sync engine: day aggregation,
// document writes and the worker pool that drives them
package service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"lifesync/internal/adapters/lifelog"
	"lifesync/internal/core/dates"
	"lifesync/internal/core/runstate"
	perr "lifesync/internal/platform/errors"
	"lifesync/internal/platform/logger"
	"lifesync/internal/platform/notify"
	statedom "lifesync/internal/services/state/domain"
	"lifesync/internal/services/sync/domain"

	"github.com/google/uuid"
)

// Config holds the scheduler options
type Config struct {
	// Workers is the number of days processed in parallel; <=0 -> 1
	Workers int
	// Delay paces each worker between days
	Delay time.Duration

	// DayRetries is how many extra attempts a day gets after a storage failure
	DayRetries int
	// RetryBase is the base backoff between day attempts; <=0 -> 500ms
	RetryBase time.Duration

	// Overwrite makes incremental runs replace documents instead of merging
	Overwrite bool

	// StartDate is the configured start; zero means seven days before today
	StartDate time.Time

	// Location buckets entries into days
	Location *time.Location
}

// Service runs sync. One run is active at a time
type Service struct {
	API    domain.Lifelogs
	Agg    *Aggregator
	Writer *Writer
	State  domain.State
	Notify notify.Notifier
	Cfg    Config

	run   runstate.State
	now   func() time.Time
	sleep func(context.Context, time.Duration) error
}

// New constructs the sync service
func New(api domain.Lifelogs, agg *Aggregator, w *Writer, st domain.State, n notify.Notifier, cfg Config) *Service {
	if api == nil || agg == nil || w == nil || st == nil {
		panic("sync.Service requires api, aggregator, writer and state")
	}
	if n == nil {
		n = notify.Nop
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	s := &Service{API: api, Agg: agg, Writer: w, State: st, Notify: n, Cfg: cfg, now: time.Now, sleep: sleepCtx}
	agg.Checkpoint = s.run.Checkpoint
	return s
}

var _ domain.Runner = (*Service)(nil)

type dayResult struct {
	date     string
	entries  int
	written  domain.WriteResult
	maxTS    time.Time
	err      error
	canceled bool
	elapsed  time.Duration
}

// Start runs a sync to completion and returns its outcome. A second Start
// while a run is active returns a skipped outcome and a nil error
func (s *Service) Start(ctx context.Context, req domain.Request) (domain.Outcome, error) {
	if req.Mode == "" {
		req.Mode = domain.Incremental
	}
	runID := uuid.NewString()
	runCtx, cancel := context.WithCancel(logger.WithRun(ctx, runID, "sync"))
	defer cancel()

	if !s.run.Begin(runID, string(req.Mode), cancel, s.now()) {
		s.notice(ctx, notify.LevelInfo, "Sync already running")
		return domain.Outcome{Skipped: true, Phase: s.run.Snapshot().Phase, Message: "sync already running"}, nil
	}
	log := logger.C(runCtx)
	log.Info().Str("mode", string(req.Mode)).Str("start", req.Start).Msg("sync started")

	days, err := s.prepare(runCtx, req)
	if err != nil {
		out := domain.Outcome{Phase: runstate.Failed, Message: "Sync failed: " + err.Error(), FinishedAt: s.now()}
		out = s.run.Finish(out)
		s.notice(ctx, notify.LevelError, out.Message)
		log.Error().Stack().Err(err).Msg("sync setup failed")
		return out, err
	}

	s.run.Run(len(days), fmt.Sprintf("Syncing 0/%d days", len(days)))
	overwrite := req.Mode == domain.Full || s.Cfg.Overwrite
	results := s.runPool(runCtx, days, req.Mode, overwrite)

	out := s.summarize(results, len(days))
	out.FinishedAt = s.now()
	cancelled := s.run.CancelRequested() || ctx.Err() != nil

	switch {
	case cancelled:
		out.Phase = runstate.Cancelled
		out.Message = fmt.Sprintf("Sync cancelled: %d of %d days, %d entries", out.Done, out.Units, out.Items)
	default:
		out.Phase = runstate.Completed
		out.Message = fmt.Sprintf("Sync complete: %d entries across %d days", out.Items, out.Done)
		if out.Failed > 0 {
			out.Message += fmt.Sprintf(" (%d days failed)", out.Failed)
		}
		if req.Mode == domain.Incremental {
			s.advanceCursor(runCtx, results)
		}
	}

	out = s.run.Finish(out)
	level := notify.LevelInfo
	if out.Failed > 0 {
		level = notify.LevelWarn
	}
	s.notice(ctx, level, out.Message)
	log.Info().Str("phase", string(out.Phase)).Int("days", out.Done).Int("entries", out.Items).Int("failed", out.Failed).Msg("sync finished")
	return out, nil
}

// prepare validates the run and lists its days
func (s *Service) prepare(ctx context.Context, req domain.Request) ([]string, error) {
	if !s.API.HasKey() {
		return nil, perr.InvalidArgf("lifelog API key is not configured, set SERVICE_LIFELOG_KEY")
	}
	loc := s.Cfg.Location
	now := s.now().In(loc)

	start := s.Cfg.StartDate
	if start.IsZero() {
		start = dates.StartOfDay(now, loc).AddDate(0, 0, -7)
	}
	if req.Start != "" {
		t, err := dates.ParseStart(req.Start, now)
		if err != nil {
			return nil, err
		}
		start = t
	}
	if req.Mode == domain.Incremental {
		cur, err := s.State.Cursor(ctx)
		if err != nil {
			return nil, err
		}
		if !cur.IsZero() {
			start = cur
		}
	}
	if start.After(now) {
		return nil, perr.InvalidArgf("start date %s is in the future", dates.Day(start, loc))
	}
	return dates.Range(start, now, loc), nil
}

// runPool processes days on a fixed pool; each worker claims the next index
func (s *Service) runPool(ctx context.Context, days []string, mode domain.Mode, overwrite bool) []dayResult {
	results := make([]dayResult, len(days))
	if len(days) == 0 {
		return results
	}
	w := min(max(s.Cfg.Workers, 1), len(days))
	var next atomic.Int64
	var wg sync.WaitGroup
	sem := make(chan struct{}, w)

	worker := func() {
		defer func() { <-sem; wg.Done() }()
		for {
			if s.run.Checkpoint(ctx) != nil {
				return
			}
			i := int(next.Add(1)) - 1
			if i >= len(days) {
				return
			}
			results[i] = s.runDayWithRetry(ctx, days[i], mode, overwrite)
			done := s.run.Step()
			s.run.SetStatus(fmt.Sprintf("Syncing %d/%d days (%d%%)", done, len(days), runstate.Percent(done, len(days))))
			if s.Cfg.Delay > 0 {
				_ = s.sleep(ctx, s.Cfg.Delay)
			}
		}
	}

	for n := 0; n < w; n++ {
		sem <- struct{}{}
		wg.Add(1)
		go worker()
	}
	wg.Wait()
	return results
}

func (s *Service) runDayWithRetry(ctx context.Context, date string, mode domain.Mode, overwrite bool) dayResult {
	attempts := max(s.Cfg.DayRetries, 0) + 1
	base := s.Cfg.RetryBase
	if base <= 0 {
		base = 500 * time.Millisecond
	}
	began := s.now()
	var res dayResult
	for i := 0; i < attempts; i++ {
		res = s.runDay(ctx, date, overwrite)
		if res.err == nil || res.canceled || !perr.IsCode(res.err, perr.ErrorCodeStorage) || i == attempts-1 {
			break
		}
		logger.C(ctx).Warn().Err(res.err).Str("date", date).Int("attempt", i+1).Msg("day write failed, retrying")
		if s.sleep(ctx, min(base<<i, 30*time.Second)) != nil {
			res.canceled = true
			break
		}
	}
	res.elapsed = s.now().Sub(began)
	s.record(ctx, res, mode)
	return res
}

// runDay fetches and writes one day. Partial days are discarded
func (s *Service) runDay(ctx context.Context, date string, overwrite bool) dayResult {
	res := dayResult{date: date}
	bucket, err := s.Agg.FetchDay(ctx, date, s.Cfg.Location)
	if err != nil {
		res.err = err
		logger.C(ctx).Error().Err(err).Str("date", date).Msg("day fetch failed")
		return res
	}
	if bucket.Partial || s.run.CancelRequested() {
		res.canceled = true
		return res
	}
	if len(bucket.Entries) == 0 {
		return res
	}

	written, err := s.Writer.WriteDay(ctx, date, bucket.Entries, overwrite)
	if err != nil {
		res.err = err
		logger.C(ctx).Error().Err(err).Str("date", date).Msg("day write failed")
		return res
	}
	res.entries = len(bucket.Entries)
	res.written = written
	for _, e := range bucket.Entries {
		if e.Timestamp.After(res.maxTS) {
			res.maxTS = e.Timestamp
		}
	}
	logger.C(ctx).Debug().Str("date", date).Int("entries", res.entries).Str("written", string(written)).Msg("day synced")
	return res
}

func (s *Service) record(ctx context.Context, res dayResult, mode domain.Mode) {
	if res.date == "" {
		return
	}
	rec := statedom.DayRecord{
		Date:       res.date,
		Entries:    res.entries,
		Written:    string(res.written),
		Mode:       string(mode),
		Status:     statedom.DayOK,
		ElapsedMS:  res.elapsed.Milliseconds(),
		FinishedAt: s.now().UTC(),
	}
	switch {
	case res.canceled:
		rec.Status = statedom.DayCanceled
	case res.err != nil:
		rec.Status = statedom.DayFailed
		rec.Error = res.err.Error()
	case res.entries == 0:
		rec.Status = statedom.DayEmpty
	}
	// the ledger is informational, a failed write never fails the day
	if err := s.State.RecordDay(context.WithoutCancel(ctx), rec); err != nil {
		logger.C(ctx).Warn().Err(err).Str("date", res.date).Msg("record day failed")
	}
}

// summarize folds per-day results in date order
func (s *Service) summarize(results []dayResult, total int) domain.Outcome {
	out := domain.Outcome{Units: total}
	for _, r := range results {
		switch {
		case r.date == "" || r.canceled:
			continue
		case r.err != nil:
			out.Failed++
		}
		out.Done++
		out.Items += r.entries
	}
	return out
}

// advanceCursor moves the watermark to the newest entry written before the
// first failed or unprocessed day, so a later incremental run revisits it
func (s *Service) advanceCursor(ctx context.Context, results []dayResult) {
	var newest time.Time
	for _, r := range results {
		if r.date == "" || r.canceled || r.err != nil {
			break
		}
		if r.maxTS.After(newest) {
			newest = r.maxTS
		}
	}
	if newest.IsZero() {
		return
	}
	ok, err := s.State.AdvanceCursor(ctx, newest)
	if err != nil {
		logger.C(ctx).Error().Stack().Err(err).Msg("advance cursor failed")
		return
	}
	if ok {
		logger.C(ctx).Info().Time("cursor", newest).Msg("sync cursor advanced")
	}
}

// Launch validates req and runs it in the background. It reports false
// when a run is already active
func (s *Service) Launch(ctx context.Context, req domain.Request) (bool, error) {
	if req.Start != "" {
		if _, err := dates.ParseStart(req.Start, s.now().In(s.Cfg.Location)); err != nil {
			return false, err
		}
	}
	if s.Active() {
		return false, nil
	}
	bg := context.WithoutCancel(ctx)
	go func() {
		if _, err := s.Start(bg, req); err != nil {
			logger.C(bg).Warn().Err(err).Msg("background sync failed")
		}
	}()
	return true, nil
}

// Cancel requests cancellation of the active run and aborts its in-flight
// requests. It returns false when nothing is running
func (s *Service) Cancel() bool {
	if !s.run.RequestCancel() {
		return false
	}
	n := s.API.CancelAll()
	logger.Named("sync").Info().Int("requests", n).Msg("sync cancel requested")
	return true
}

// Snapshot returns the observable run state
func (s *Service) Snapshot() domain.Snapshot { return s.run.Snapshot() }

// Active reports whether a run is in progress
func (s *Service) Active() bool { return s.run.Snapshot().Active }

// Cursor returns the stored watermark
func (s *Service) Cursor(ctx context.Context) (time.Time, error) { return s.State.Cursor(ctx) }

// ResetCursor clears the watermark. It is refused while a run is active
func (s *Service) ResetCursor(ctx context.Context) error {
	if s.Active() {
		return perr.Conflictf("cannot reset the cursor while a sync is running")
	}
	if err := s.State.ResetCursor(ctx); err != nil {
		return err
	}
	s.notice(ctx, notify.LevelInfo, "Sync cursor reset")
	return nil
}

// RecentDays returns the newest day ledger rows
func (s *Service) RecentDays(ctx context.Context, limit int) ([]statedom.DayRecord, error) {
	return s.State.RecentDays(ctx, limit)
}

// CheckCredential tests the configured API key
func (s *Service) CheckCredential(ctx context.Context) lifelog.Check {
	var chk lifelog.Check
	if c, ok := s.API.(interface {
		CheckCredential(context.Context) lifelog.Check
	}); ok {
		chk = c.CheckCredential(ctx)
	} else if !s.API.HasKey() {
		chk = lifelog.Check{Status: lifelog.CheckMissing}
	} else {
		chk = lifelog.Check{Status: lifelog.CheckOK}
	}
	level := notify.LevelInfo
	msg := fmt.Sprintf("Lifelog API credential ok (%d entries in the last day)", chk.Entries)
	switch chk.Status {
	case lifelog.CheckUnauthorized:
		level, msg = notify.LevelError, "Lifelog API key was rejected, check SERVICE_LIFELOG_KEY"
	case lifelog.CheckUnreachable:
		level, msg = notify.LevelWarn, "Lifelog API unreachable: "+chk.Detail
	case lifelog.CheckMissing:
		level, msg = notify.LevelError, "Lifelog API key is not configured"
	}
	s.Notify.Notify(ctx, notify.Notice{Kind: notify.KindCheck, Level: level, Message: msg})
	return chk
}

func (s *Service) notice(ctx context.Context, level notify.Level, msg string) {
	s.Notify.Notify(ctx, notify.Notice{Kind: notify.KindSync, Level: level, Message: msg})
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
