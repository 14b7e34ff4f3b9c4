// Package repo provides the file and postgres backends for sync state
package repo

import (
	"context"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"lifesync/internal/adapters/docstore"
	"lifesync/internal/services/state/domain"
)

const (
	stateFile  = "state.json"
	hashesFile = "summary-hashes.json"

	// maxLedgerDays bounds the ledger kept in state.json
	maxLedgerDays = 400
)

// File keeps state as JSON side files in one folder
type File struct {
	fs  *docstore.FS
	dir string

	mu sync.Mutex
}

type fileState struct {
	LastSyncTimestamp *time.Time         `json:"lastSyncTimestamp,omitempty"`
	Days              []domain.DayRecord `json:"days,omitempty"`
}

// NewFile returns a file backend rooted at dir
func NewFile(fs *docstore.FS, dir string) *File {
	return &File{fs: fs, dir: dir}
}

var _ domain.Store = (*File)(nil)

func (f *File) path(name string) string { return filepath.Join(f.dir, name) }

func (f *File) load(ctx context.Context) (fileState, error) {
	var st fileState
	if _, err := f.fs.ReadJSON(ctx, f.path(stateFile), &st); err != nil {
		return fileState{}, err
	}
	return st, nil
}

func (f *File) save(ctx context.Context, st fileState) error {
	if err := f.fs.EnsureDir(ctx, f.dir); err != nil {
		return err
	}
	return f.fs.WriteJSON(ctx, f.path(stateFile), st)
}

// Cursor implements domain.CursorStore
func (f *File) Cursor(ctx context.Context) (time.Time, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	st, err := f.load(ctx)
	if err != nil || st.LastSyncTimestamp == nil {
		return time.Time{}, err
	}
	return st.LastSyncTimestamp.UTC(), nil
}

// AdvanceCursor implements domain.CursorStore
func (f *File) AdvanceCursor(ctx context.Context, t time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	st, err := f.load(ctx)
	if err != nil {
		return false, err
	}
	if t.IsZero() || (st.LastSyncTimestamp != nil && !t.After(*st.LastSyncTimestamp)) {
		return false, nil
	}
	ts := t.UTC()
	st.LastSyncTimestamp = &ts
	if err := f.save(ctx, st); err != nil {
		return false, err
	}
	return true, nil
}

// ResetCursor implements domain.CursorStore
func (f *File) ResetCursor(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	st, err := f.load(ctx)
	if err != nil {
		return err
	}
	st.LastSyncTimestamp = nil
	return f.save(ctx, st)
}

// Hashes implements domain.HashStore
func (f *File) Hashes(ctx context.Context) (map[string]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[string]string{}
	if _, err := f.fs.ReadJSON(ctx, f.path(hashesFile), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// PutHash implements domain.HashStore
func (f *File) PutHash(ctx context.Context, path, digest string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	m := map[string]string{}
	if _, err := f.fs.ReadJSON(ctx, f.path(hashesFile), &m); err != nil {
		return err
	}
	m[path] = digest
	if err := f.fs.EnsureDir(ctx, f.dir); err != nil {
		return err
	}
	return f.fs.WriteJSON(ctx, f.path(hashesFile), m)
}

// RecordDay implements domain.DayLedger. The latest record per date wins
func (f *File) RecordDay(ctx context.Context, rec domain.DayRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	st, err := f.load(ctx)
	if err != nil {
		return err
	}
	days := st.Days[:0]
	for _, d := range st.Days {
		if d.Date != rec.Date {
			days = append(days, d)
		}
	}
	days = append(days, rec)
	if len(days) > maxLedgerDays {
		days = days[len(days)-maxLedgerDays:]
	}
	st.Days = days
	return f.save(ctx, st)
}

// RecentDays implements domain.DayLedger, newest first
func (f *File) RecentDays(ctx context.Context, limit int) ([]domain.DayRecord, error) {
	f.mu.Lock()
	st, err := f.load(ctx)
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	days := st.Days
	sort.SliceStable(days, func(i, j int) bool { return days[i].FinishedAt.After(days[j].FinishedAt) })
	if limit > 0 && len(days) > limit {
		days = days[:limit]
	}
	return days, nil
}
