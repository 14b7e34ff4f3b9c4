package service

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"lifesync/internal/adapters/docstore"
	perr "lifesync/internal/platform/errors"
	"lifesync/internal/platform/testkit"
	"lifesync/internal/services/sync/domain"

	"gopkg.in/yaml.v3"
)

func sampleEntries() []domain.Entry {
	day := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	return []domain.Entry{
		{ID: "a", Timestamp: day.Add(9 * time.Hour), Markdown: "# Standup\nDiscussed the release", Type: "heading1",
			Metadata: map[string]any{"title": "Standup"}},
		{ID: "b", Timestamp: day.Add(13*time.Hour + 5*time.Second), Text: "Lunch with Ana", Type: "blockquote"},
	}
}

func newFSWriter(t *testing.T) (*Writer, string) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "lifelogs")
	return &Writer{Docs: docstore.New(), Dir: dir, Render: Renderer{Loc: time.UTC}}, dir
}

func TestWriteDay_FreshDocumentLayout(t *testing.T) {
	w, dir := newFSWriter(t)
	res, err := w.WriteDay(context.Background(), "2024-06-01", sampleEntries(), false)
	if err != nil || res != domain.Created {
		t.Fatalf("WriteDay = %s, %v", res, err)
	}
	raw, err := os.ReadFile(filepath.Join(dir, "2024-06-01.md"))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	doc := string(raw)

	if !strings.HasPrefix(doc, "---\n") {
		t.Fatalf("missing frontmatter: %q", doc)
	}
	parts := strings.SplitN(doc, "---\n", 3)
	var fm frontmatter
	if err := yaml.Unmarshal([]byte(parts[1]), &fm); err != nil || fm.Date != "2024-06-01" || fm.Source != "lifelog" {
		t.Fatalf("frontmatter = %+v, %v", fm, err)
	}
	testkit.MustContain(t, doc, "# Lifelogs 2024-06-01\n\n## Entries\n")
	testkit.MustContain(t, doc, "- 09:00:00 # Standup\n  Discussed the release\n")
	testkit.MustContain(t, doc, "- 13:00:05 Lunch with Ana\n")
}

func TestWriteDay_IdempotentMerge(t *testing.T) {
	w, dir := newFSWriter(t)
	ctx := context.Background()
	path := filepath.Join(dir, "2024-06-01.md")

	if _, err := w.WriteDay(ctx, "2024-06-01", sampleEntries(), false); err != nil {
		t.Fatalf("first write: %v", err)
	}
	first, _ := os.ReadFile(path)

	res, err := w.WriteDay(ctx, "2024-06-01", sampleEntries(), false)
	if err != nil || res != domain.Unchanged {
		t.Fatalf("second write = %s, %v", res, err)
	}
	second, _ := os.ReadFile(path)
	if string(first) != string(second) {
		t.Fatalf("document changed on identical write")
	}
}

func TestWriteDay_MergeReplacesFromMarkerAndKeepsUserNotes(t *testing.T) {
	docs := newMemDocs()
	w := &Writer{Docs: docs, Dir: "out", Render: Renderer{Loc: time.UTC}}
	path := w.Path("2024-06-01")
	docs.files[path] = "# My day\n\nnotes I wrote\n\n## Entries\n\n- 08:00:00 stale\n"

	res, err := w.WriteDay(context.Background(), "2024-06-01", sampleEntries(), false)
	if err != nil || res != domain.Merged {
		t.Fatalf("WriteDay = %s, %v", res, err)
	}
	got := docs.files[path]
	if !strings.HasPrefix(got, "# My day\n\nnotes I wrote\n\n## Entries\n") {
		t.Fatalf("user notes lost: %q", got)
	}
	if strings.Contains(got, "stale") || strings.Count(got, EntriesMarker) != 1 {
		t.Fatalf("entries section not replaced: %q", got)
	}

	// merging again is a no-op
	before := docs.writes[path]
	if res, _ := w.WriteDay(context.Background(), "2024-06-01", sampleEntries(), false); res != domain.Unchanged || docs.writes[path] != before {
		t.Fatalf("second merge = %s writes=%d", res, docs.writes[path])
	}
}

func TestWriteDay_AppendsWhenMarkerRemoved(t *testing.T) {
	docs := newMemDocs()
	w := &Writer{Docs: docs, Dir: "out", Render: Renderer{Loc: time.UTC}}
	path := w.Path("2024-06-01")
	docs.files[path] = "hand edited\n\n\n"

	res, err := w.WriteDay(context.Background(), "2024-06-01", sampleEntries(), false)
	if err != nil || res != domain.Appended {
		t.Fatalf("WriteDay = %s, %v", res, err)
	}
	if !strings.HasPrefix(docs.files[path], "hand edited\n\n## Entries\n") {
		t.Fatalf("appended doc = %q", docs.files[path])
	}
}

func TestWriteDay_OverwriteReplacesWholesale(t *testing.T) {
	docs := newMemDocs()
	w := &Writer{Docs: docs, Dir: "out", Render: Renderer{Loc: time.UTC}}
	path := w.Path("2024-06-01")
	docs.files[path] = "old content"

	res, err := w.WriteDay(context.Background(), "2024-06-01", sampleEntries(), true)
	if err != nil || res != domain.Overwritten {
		t.Fatalf("WriteDay = %s, %v", res, err)
	}
	if strings.Contains(docs.files[path], "old content") {
		t.Fatalf("overwrite kept old content")
	}
	if res, _ := w.WriteDay(context.Background(), "2024-06-01", sampleEntries(), true); res != domain.Unchanged {
		t.Fatalf("identical overwrite = %s", res)
	}
}

func TestWriteDay_StorageFailure(t *testing.T) {
	docs := newMemDocs()
	w := &Writer{Docs: docs, Dir: "out", Render: Renderer{Loc: time.UTC}}
	docs.failNext[w.Path("2024-06-01")] = 1

	_, err := w.WriteDay(context.Background(), "2024-06-01", sampleEntries(), false)
	if !perr.IsCode(err, perr.ErrorCodeStorage) {
		t.Fatalf("want Storage, got %v", err)
	}
}

func TestRenderer_DebugBlocks(t *testing.T) {
	body, err := Renderer{Loc: time.UTC, Debug: true}.Body(sampleEntries())
	if err != nil {
		t.Fatalf("Body: %v", err)
	}
	testkit.MustContain(t, body, "\n  ```yaml\n  id: a\n  type: heading1\n  timestamp: \"2024-06-01T09:00:00Z\"\n")
	testkit.MustContain(t, body, "  metadata:\n    title: Standup\n")
	if strings.Count(body, "```yaml") != 2 {
		t.Fatalf("want one block per entry: %q", body)
	}
}
