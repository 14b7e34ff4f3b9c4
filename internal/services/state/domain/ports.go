package domain

import (
	"context"
	"time"
)

// CursorStore persists the incremental sync watermark
type CursorStore interface {
	// Cursor returns the stored watermark, zero when unset
	Cursor(ctx context.Context) (time.Time, error)

	// AdvanceCursor stores t only when it is strictly newer than the stored
	// value and reports whether it did
	AdvanceCursor(ctx context.Context, t time.Time) (bool, error)

	// ResetCursor clears the watermark
	ResetCursor(ctx context.Context) error
}

// HashStore persists the digest of each document as of its last summary
type HashStore interface {
	Hashes(ctx context.Context) (map[string]string, error)
	PutHash(ctx context.Context, path, digest string) error
}

// DayLedger keeps the latest outcome per synced day
type DayLedger interface {
	RecordDay(ctx context.Context, rec DayRecord) error
	RecentDays(ctx context.Context, limit int) ([]DayRecord, error)
}

// Store is the full state surface a backend provides
type Store interface {
	CursorStore
	HashStore
	DayLedger
}
