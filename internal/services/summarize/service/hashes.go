package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
	"strings"

	"lifesync/internal/platform/logger"
	"lifesync/internal/services/summarize/domain"
)

// Tracker decides which documents need a new summary by comparing content
// digests against the ones recorded at the last successful summary
type Tracker struct {
	Docs       domain.Documents
	Hashes     domain.Hashes
	Dir        string
	SummaryDir string
}

// Digest is the hex SHA-256 of content
func Digest(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// Eligible lists the markdown documents directly under Dir, skipping
// anything inside SummaryDir and existing companions
func (t *Tracker) Eligible(ctx context.Context) ([]string, error) {
	paths, err := t.Docs.List(ctx, t.Dir)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if !strings.EqualFold(filepath.Ext(p), ".md") || t.inSummaryDir(p) || strings.HasSuffix(p, summarySuffix) {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (t *Tracker) inSummaryDir(p string) bool {
	// companions next to their sources are caught by the suffix check
	if t.SummaryDir == "" || filepath.Clean(t.SummaryDir) == filepath.Clean(t.Dir) {
		return false
	}
	rel, err := filepath.Rel(filepath.Clean(t.SummaryDir), filepath.Clean(p))
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// ChangedDocuments returns the eligible documents whose digest differs from
// the stored one. With forceAll every eligible document is returned
func (t *Tracker) ChangedDocuments(ctx context.Context, forceAll bool) ([]string, error) {
	docs, err := t.Eligible(ctx)
	if err != nil || forceAll {
		return docs, err
	}
	stored, err := t.Hashes.Hashes(ctx)
	if err != nil {
		return nil, err
	}

	changed := make([]string, 0, len(docs))
	for _, p := range docs {
		content, ok, err := t.Docs.Read(ctx, p)
		if err != nil {
			logger.C(ctx).Warn().Err(err).Str("doc", p).Msg("skipping unreadable document")
			continue
		}
		if !ok {
			continue
		}
		if stored[p] != Digest(content) {
			changed = append(changed, p)
		}
	}
	return changed, nil
}

// RecordHash stores the digest of content for id. Call it only after the
// summary for that content was written
func (t *Tracker) RecordHash(ctx context.Context, id, content string) error {
	return t.Hashes.PutHash(ctx, id, Digest(content))
}
