package domain

import (
	"context"
	"time"

	"lifesync/internal/adapters/lifelog"
	statedom "lifesync/internal/services/state/domain"
)

// Lifelogs is the remote API surface sync needs
type Lifelogs interface {
	FetchPage(ctx context.Context, f lifelog.Filter, cursor string) (lifelog.Page, error)
	CancelAll() int
	HasKey() bool
}

// Documents is the document store surface sync needs
type Documents interface {
	EnsureDir(ctx context.Context, dir string) error
	Read(ctx context.Context, path string) (string, bool, error)
	Write(ctx context.Context, path, content string) error
}

// State is the persisted state sync needs
type State interface {
	statedom.CursorStore
	statedom.DayLedger
}

// Runner is the port other modules use to drive sync
type Runner interface {
	Start(ctx context.Context, req Request) (Outcome, error)
	Launch(ctx context.Context, req Request) (bool, error)
	Cancel() bool
	Snapshot() Snapshot
	Active() bool
	Cursor(ctx context.Context) (time.Time, error)
	ResetCursor(ctx context.Context) error
	RecentDays(ctx context.Context, limit int) ([]statedom.DayRecord, error)
	CheckCredential(ctx context.Context) lifelog.Check
}
