// Package runstate holds the observable state of a long-running operation.
// A State allows one active run at a time and moves through
// idle -> preparing -> running -> {completed, cancelled, failed} -> idle
package runstate

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	perr "lifesync/internal/platform/errors"
)

// Phase is a step of the run state machine
type Phase string

const (
	Idle      Phase = "idle"
	Preparing Phase = "preparing"
	Running   Phase = "running"
	Completed Phase = "completed"
	Cancelled Phase = "cancelled"
	Failed    Phase = "failed"
)

// Terminal reports whether p ends a run
func (p Phase) Terminal() bool { return p == Completed || p == Cancelled || p == Failed }

// Outcome describes a finished (or skipped) run
type Outcome struct {
	RunID      string    `json:"run_id,omitempty"`
	Mode       string    `json:"mode,omitempty"`
	Phase      Phase     `json:"phase"`
	Skipped    bool      `json:"skipped,omitempty"`
	Units      int       `json:"units"`
	Done       int       `json:"done"`
	Failed     int       `json:"failed"`
	Items      int       `json:"items"`
	Message    string    `json:"message"`
	StartedAt  time.Time `json:"started_at,omitempty"`
	FinishedAt time.Time `json:"finished_at,omitempty"`
}

// Snapshot is a read-only copy of the state for observers
type Snapshot struct {
	Phase           Phase     `json:"phase"`
	Active          bool      `json:"active"`
	CancelRequested bool      `json:"cancel_requested"`
	RunID           string    `json:"run_id,omitempty"`
	Mode            string    `json:"mode,omitempty"`
	Current         int       `json:"current"`
	Total           int       `json:"total"`
	Percent         int       `json:"percent"`
	Status          string    `json:"status"`
	StartedAt       time.Time `json:"started_at,omitempty"`
	Last            *Outcome  `json:"last,omitempty"`
}

// State is safe for concurrent use. The zero value is idle
type State struct {
	mu       sync.Mutex
	phase    Phase
	runID    string
	mode     string
	status   string
	started  time.Time
	total    int
	cancelFn context.CancelFunc
	last     *Outcome

	current atomic.Int64
	cancel  atomic.Bool
}

// Begin moves an idle state to preparing. It returns false when a run is
// already active; the caller must not start another one
func (s *State) Begin(runID, mode string, cancel context.CancelFunc, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != "" && s.phase != Idle {
		return false
	}
	s.phase = Preparing
	s.runID = runID
	s.mode = mode
	s.status = "Preparing"
	s.started = now
	s.total = 0
	s.cancelFn = cancel
	s.current.Store(0)
	s.cancel.Store(false)
	return true
}

// Run moves preparing to running with total units
func (s *State) Run(total int, status string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.phase = Running
	s.total = total
	s.status = status
}

// Step marks one unit done and returns the completed count
func (s *State) Step() int { return int(s.current.Add(1)) }

// SetStatus replaces the live status text
func (s *State) SetStatus(status string) {
	s.mu.Lock()
	s.status = status
	s.mu.Unlock()
}

// RequestCancel raises the cancellation flag and cancels the run context.
// It returns false when no run is active
func (s *State) RequestCancel() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase == "" || s.phase == Idle {
		return false
	}
	if s.cancel.Swap(true) {
		return true
	}
	s.status = "Cancelling"
	if s.cancelFn != nil {
		s.cancelFn()
	}
	return true
}

// CancelRequested reports whether RequestCancel was called for this run
func (s *State) CancelRequested() bool { return s.cancel.Load() }

// Checkpoint is polled before each unit of work. It fails with a Canceled
// error once cancellation was requested or ctx is done
func (s *State) Checkpoint(ctx context.Context) error {
	if s.cancel.Load() {
		return perr.New(perr.ErrorCodeCanceled, "run cancelled")
	}
	if err := ctx.Err(); err != nil {
		return perr.Wrap(err, perr.ErrorCodeCanceled, "run cancelled")
	}
	return nil
}

// Finish records the terminal outcome, returns the state to idle and
// hands back the outcome stamped with the run identity
func (s *State) Finish(out Outcome) Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	out.RunID = s.runID
	out.Mode = s.mode
	out.StartedAt = s.started
	s.last = &out
	s.phase = Idle
	s.status = out.Message
	s.cancelFn = nil
	return out
}

// Snapshot returns a copy of the current state
func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	phase := s.phase
	if phase == "" {
		phase = Idle
	}
	snap := Snapshot{
		Phase:           phase,
		Active:          phase != Idle,
		CancelRequested: s.cancel.Load(),
		Status:          s.status,
	}
	if snap.Active {
		snap.RunID = s.runID
		snap.Mode = s.mode
		snap.StartedAt = s.started
		snap.Total = s.total
		snap.Current = int(s.current.Load())
		snap.Percent = Percent(snap.Current, snap.Total)
	}
	if s.last != nil {
		last := *s.last
		snap.Last = &last
	}
	return snap
}

// Percent is floor(done/total*100), 0 when total is 0
func Percent(done, total int) int {
	if total <= 0 {
		return 0
	}
	return min(done*100/total, 100)
}
