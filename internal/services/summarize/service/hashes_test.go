package service

import (
	"context"
	"reflect"
	"testing"
)

func newTracker(files map[string]string) (*Tracker, *memDocs, *memHashes) {
	docs := newMemDocs(files)
	h := &memHashes{}
	return &Tracker{Docs: docs, Hashes: h, Dir: "out", SummaryDir: "out/summaries"}, docs, h
}

func TestDigest(t *testing.T) {
	// sha256("abc")
	if got := Digest("abc"); got != "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad" {
		t.Fatalf("Digest = %s", got)
	}
}

func TestEligible_FiltersNonMarkdownAndSummaries(t *testing.T) {
	tr, _, _ := newTracker(map[string]string{
		"out/2024-06-01.md":                   "a",
		"out/2024-06-02.MD":                   "b",
		"out/notes.txt":                       "x",
		"out/2024-05-31-summary.md":           "old companion",
		"out/summaries/2024-06-01-summary.md": "s",
		"out/nested/2024-06-03.md":            "deep",
	})
	got, err := tr.Eligible(context.Background())
	if err != nil {
		t.Fatalf("Eligible: %v", err)
	}
	want := []string{"out/2024-06-01.md", "out/2024-06-02.MD"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("eligible = %v, want %v", got, want)
	}
}

func TestEligible_SummaryDirSameAsOutput(t *testing.T) {
	tr, _, _ := newTracker(map[string]string{
		"out/2024-06-01.md":         "a",
		"out/2024-06-01-summary.md": "s",
	})
	tr.SummaryDir = "out"
	got, _ := tr.Eligible(context.Background())
	if !reflect.DeepEqual(got, []string{"out/2024-06-01.md"}) {
		t.Fatalf("only the companion should be skipped, got %v", got)
	}
}

func TestChangedDocuments_HashGated(t *testing.T) {
	ctx := context.Background()
	tr, docs, _ := newTracker(map[string]string{
		"out/a.md": "alpha",
		"out/b.md": "beta",
	})

	got, _ := tr.ChangedDocuments(ctx, false)
	if len(got) != 2 {
		t.Fatalf("nothing recorded yet, got %v", got)
	}

	if err := tr.RecordHash(ctx, "out/a.md", "alpha"); err != nil {
		t.Fatalf("RecordHash: %v", err)
	}
	got, _ = tr.ChangedDocuments(ctx, false)
	if !reflect.DeepEqual(got, []string{"out/b.md"}) {
		t.Fatalf("unchanged a should be excluded, got %v", got)
	}

	docs.files["out/a.md"] = "alpha, edited"
	got, _ = tr.ChangedDocuments(ctx, false)
	if !reflect.DeepEqual(got, []string{"out/a.md", "out/b.md"}) {
		t.Fatalf("mutated a should be included, got %v", got)
	}

	_ = tr.RecordHash(ctx, "out/a.md", "alpha, edited")
	_ = tr.RecordHash(ctx, "out/b.md", "beta")
	if got, _ = tr.ChangedDocuments(ctx, false); len(got) != 0 {
		t.Fatalf("all recorded, got %v", got)
	}
	if got, _ = tr.ChangedDocuments(ctx, true); len(got) != 2 {
		t.Fatalf("force should return every eligible document, got %v", got)
	}
}
