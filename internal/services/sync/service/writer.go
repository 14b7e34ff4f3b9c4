package service

import (
	"context"
	"path/filepath"
	"strings"

	"lifesync/internal/services/sync/domain"
)

// Writer persists day documents as {Dir}/{date}.md
type Writer struct {
	Docs   domain.Documents
	Dir    string
	Render Renderer
}

// Path returns the document path for date
func (w *Writer) Path(date string) string {
	return filepath.Join(w.Dir, date+".md")
}

// WriteDay writes entries for date. Without overwrite an existing document
// is merged: a body already present is left alone, otherwise everything from
// the entries marker on is replaced, or a new section is appended when the
// marker is gone. Store failures come back as Storage errors
func (w *Writer) WriteDay(ctx context.Context, date string, entries []domain.Entry, overwrite bool) (domain.WriteResult, error) {
	if err := w.Docs.EnsureDir(ctx, w.Dir); err != nil {
		return "", err
	}
	body, err := w.Render.Body(entries)
	if err != nil {
		return "", err
	}
	path := w.Path(date)

	current, exists, err := w.Docs.Read(ctx, path)
	if err != nil {
		return "", err
	}

	if overwrite || !exists {
		doc, err := w.Render.Document(date, body)
		if err != nil {
			return "", err
		}
		if exists && doc == current {
			return domain.Unchanged, nil
		}
		if err := w.Docs.Write(ctx, path, doc); err != nil {
			return "", err
		}
		if exists {
			return domain.Overwritten, nil
		}
		return domain.Created, nil
	}

	if strings.Contains(current, body) {
		return domain.Unchanged, nil
	}

	var next string
	result := domain.Merged
	if i := strings.Index(current, EntriesMarker); i >= 0 {
		next = current[:i] + body
	} else {
		next = strings.TrimRight(current, "\n") + "\n\n" + body
		result = domain.Appended
	}
	if err := w.Docs.Write(ctx, path, next); err != nil {
		return "", err
	}
	return result, nil
}
