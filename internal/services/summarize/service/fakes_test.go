package service

import (
	"context"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	perr "lifesync/internal/platform/errors"
	"lifesync/internal/platform/notify"
)

type fakeLLM struct {
	mu      sync.Mutex
	noKey   bool
	fail    map[string]error // keyed by a substring of the document
	models  []string
	listErr error
	chats   []string
	block   chan struct{}
	started chan struct{}
	aborted int
}

func (f *fakeLLM) Chat(ctx context.Context, system, user string) (string, error) {
	f.mu.Lock()
	f.chats = append(f.chats, user)
	block, started := f.block, f.started
	f.mu.Unlock()

	if started != nil {
		select {
		case started <- struct{}{}:
		default:
		}
	}
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return "", perr.Wrap(ctx.Err(), perr.ErrorCodeCanceled, "llm request canceled")
		}
	}
	for needle, err := range f.fail {
		if strings.Contains(user, needle) {
			return "", err
		}
	}
	return "summary of " + firstLine(user), nil
}

func (f *fakeLLM) ListModels(context.Context) ([]string, error) { return f.models, f.listErr }
func (f *fakeLLM) Model() string                                { return "gpt-test" }
func (f *fakeLLM) HasKey() bool                                 { return !f.noKey }

func (f *fakeLLM) CancelAll() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.aborted++
	return 1
}

func (f *fakeLLM) chatCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.chats)
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}

// memDocs is a flat in-memory document tree
type memDocs struct {
	mu    sync.Mutex
	files map[string]string
	fail  map[string]bool
}

func newMemDocs(files map[string]string) *memDocs {
	return &memDocs{files: files, fail: map[string]bool{}}
}

func (m *memDocs) EnsureDir(context.Context, string) error { return nil }

func (m *memDocs) Read(_ context.Context, p string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.files[p]
	return s, ok, nil
}

func (m *memDocs) Write(_ context.Context, p, content string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail[p] {
		return perr.Storagef("write %s", p)
	}
	m.files[p] = content
	return nil
}

func (m *memDocs) List(_ context.Context, dir string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for p := range m.files {
		if filepath.Dir(p) == filepath.Clean(dir) {
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out, nil
}

type memHashes struct {
	mu sync.Mutex
	m  map[string]string
}

func (h *memHashes) Hashes(context.Context) (map[string]string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make(map[string]string, len(h.m))
	for k, v := range h.m {
		out[k] = v
	}
	return out, nil
}

func (h *memHashes) PutHash(_ context.Context, p, d string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.m == nil {
		h.m = map[string]string{}
	}
	h.m[p] = d
	return nil
}

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
