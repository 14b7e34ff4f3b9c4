// Package docstore is the filesystem document store the sync and summary
// services write to. All paths are plain OS paths
package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	perr "lifesync/internal/platform/errors"
)

// FS stores documents as files
type FS struct {
	// Perm is used for new files, DirPerm for new folders
	Perm    os.FileMode
	DirPerm os.FileMode
}

// New returns an FS with 0644 files and 0755 folders
func New() *FS { return &FS{Perm: 0o644, DirPerm: 0o755} }

// EnsureDir creates dir and its parents; an existing folder is success
func (s *FS) EnsureDir(_ context.Context, dir string) error {
	if err := os.MkdirAll(dir, s.DirPerm); err != nil {
		// a file racing into the same name is the only real failure
		if errors.Is(err, fs.ErrExist) {
			if st, serr := os.Stat(dir); serr == nil && st.IsDir() {
				return nil
			}
		}
		return perr.Wrapf(err, perr.ErrorCodeStorage, "create folder %s", dir)
	}
	return nil
}

// Read returns the document content and whether it exists
func (s *FS) Read(_ context.Context, path string) (string, bool, error) {
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, perr.Wrapf(err, perr.ErrorCodeStorage, "read %s", path)
	}
	return string(b), true, nil
}

// Write replaces the document atomically (temp file + rename)
func (s *FS) Write(ctx context.Context, path, content string) error {
	return s.writeBytes(ctx, path, []byte(content))
}

// List returns the regular files directly under dir, sorted. A missing dir is empty
func (s *FS) List(_ context.Context, dir string) ([]string, error) {
	ents, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeStorage, "list %s", dir)
	}
	out := make([]string, 0, len(ents))
	for _, e := range ents {
		if e.Type().IsRegular() {
			out = append(out, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(out)
	return out, nil
}

// ReadJSON decodes a JSON side file into v and reports whether it existed
func (s *FS) ReadJSON(ctx context.Context, path string, v any) (bool, error) {
	raw, ok, err := s.Read(ctx, path)
	if err != nil || !ok {
		return ok, err
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return true, perr.Wrapf(err, perr.ErrorCodeJSON, "decode %s", path)
	}
	return true, nil
}

// WriteJSON encodes v as indented JSON and writes it atomically
func (s *FS) WriteJSON(ctx context.Context, path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return perr.Wrapf(err, perr.ErrorCodeJSON, "encode %s", path)
	}
	return s.writeBytes(ctx, path, append(b, '\n'))
}

func (s *FS) writeBytes(ctx context.Context, path string, b []byte) error {
	if err := s.EnsureDir(ctx, filepath.Dir(path)); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return perr.Wrapf(err, perr.ErrorCodeStorage, "create temp for %s", path)
	}
	name := tmp.Name()
	cleanup := func() { _ = os.Remove(name) }

	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		cleanup()
		return perr.Wrapf(err, perr.ErrorCodeStorage, "write %s", path)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return perr.Wrapf(err, perr.ErrorCodeStorage, "close %s", path)
	}
	if err := os.Chmod(name, s.Perm); err != nil {
		cleanup()
		return perr.Wrapf(err, perr.ErrorCodeStorage, "chmod %s", path)
	}
	if err := os.Rename(name, path); err != nil {
		cleanup()
		return perr.Wrapf(err, perr.ErrorCodeStorage, "replace %s", path)
	}
	return nil
}
