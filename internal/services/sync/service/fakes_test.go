package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"lifesync/internal/adapters/lifelog"
	perr "lifesync/internal/platform/errors"
	"lifesync/internal/platform/notify"
	statedom "lifesync/internal/services/state/domain"
)

// fakeAPI serves scripted pages per date
type fakeAPI struct {
	mu      sync.Mutex
	pages   map[string][]lifelog.Page
	errs    map[string]error
	calls   []string
	noKey   bool
	block   chan struct{}
	started chan string
	aborted int
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{pages: map[string][]lifelog.Page{}, errs: map[string]error{}}
}

// day serves entries as a single page for date
func (f *fakeAPI) day(date string, ls ...lifelog.Lifelog) *fakeAPI {
	f.pages[date] = append(f.pages[date], lifelog.Page{Lifelogs: ls})
	return f
}

func (f *fakeAPI) FetchPage(ctx context.Context, flt lifelog.Filter, cursor string) (lifelog.Page, error) {
	f.mu.Lock()
	f.calls = append(f.calls, flt.Date+"#"+cursor)
	block, started := f.block, f.started
	f.mu.Unlock()

	if started != nil {
		select {
		case started <- flt.Date:
		default:
		}
	}
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return lifelog.Page{}, perr.Wrap(ctx.Err(), perr.ErrorCodeCanceled, "request canceled")
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.errs[flt.Date]; err != nil {
		return lifelog.Page{}, err
	}
	pages := f.pages[flt.Date]
	idx := 0
	if cursor != "" {
		_, _ = fmt.Sscanf(cursor, "p%d", &idx)
	}
	if idx >= len(pages) {
		return lifelog.Page{}, nil
	}
	p := pages[idx]
	if idx+1 < len(pages) && p.NextCursor == "" {
		p.NextCursor = fmt.Sprintf("p%d", idx+1)
	}
	return p, nil
}

func (f *fakeAPI) CancelAll() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.aborted++
	return 1
}

func (f *fakeAPI) HasKey() bool { return !f.noKey }

func (f *fakeAPI) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// memDocs is an in-memory document store
type memDocs struct {
	mu       sync.Mutex
	files    map[string]string
	writes   map[string]int
	failNext map[string]int
}

func newMemDocs() *memDocs {
	return &memDocs{files: map[string]string{}, writes: map[string]int{}, failNext: map[string]int{}}
}

func (m *memDocs) EnsureDir(context.Context, string) error { return nil }

func (m *memDocs) Read(_ context.Context, path string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.files[path]
	return s, ok, nil
}

func (m *memDocs) Write(_ context.Context, path, content string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failNext[path] > 0 {
		m.failNext[path]--
		return perr.Storagef("disk full writing %s", path)
	}
	m.files[path] = content
	m.writes[path]++
	return nil
}

func (m *memDocs) written() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for p := range m.writes {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// memState is an in-memory cursor and ledger
type memState struct {
	mu     sync.Mutex
	cursor time.Time
	sets   int
	days   []statedom.DayRecord
}

func (m *memState) Cursor(context.Context) (time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cursor, nil
}

func (m *memState) AdvanceCursor(_ context.Context, t time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sets++
	if !t.After(m.cursor) {
		return false, nil
	}
	m.cursor = t
	return true, nil
}

func (m *memState) ResetCursor(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cursor = time.Time{}
	return nil
}

func (m *memState) RecordDay(_ context.Context, rec statedom.DayRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.days = append(m.days, rec)
	return nil
}

func (m *memState) RecentDays(_ context.Context, limit int) ([]statedom.DayRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]statedom.DayRecord(nil), m.days...), nil
}

// notices collects notifications
type notices struct {
	mu  sync.Mutex
	got []notify.Notice
}

func (n *notices) Notify(_ context.Context, x notify.Notice) {
	n.mu.Lock()
	n.got = append(n.got, x)
	n.mu.Unlock()
}

func (n *notices) all() []notify.Notice {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notify.Notice(nil), n.got...)
}

// entry builds a lifelog with one content block starting at ts
func entry(id string, ts time.Time, text string) lifelog.Lifelog {
	return lifelog.Lifelog{
		ID:        id,
		Title:     "t-" + id,
		Markdown:  text,
		StartTime: ts.Format(time.RFC3339),
		Contents: []lifelog.Content{
			{Type: "heading1", Content: text, StartTime: ts.Format(time.RFC3339)},
		},
	}
}
