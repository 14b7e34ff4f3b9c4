package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"lifesync/internal/adapters/lifelog"
	"lifesync/internal/core/dates"
	perr "lifesync/internal/platform/errors"
)

func TestFetchDay_FollowsCursorsFiltersAndSorts(t *testing.T) {
	day := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	api := newFakeAPI()
	api.pages["2024-06-01"] = []lifelog.Page{
		{Lifelogs: []lifelog.Lifelog{
			entry("c", day.Add(15*time.Hour), "third"),
			entry("blank", day.Add(time.Hour), "  \u200b "),
		}},
		{Lifelogs: []lifelog.Lifelog{
			entry("a", day.Add(9*time.Hour), "first"),
			entry("late", day.AddDate(0, 0, 1).Add(time.Hour), "tomorrow"),
		}},
		{Lifelogs: []lifelog.Lifelog{entry("b", day.Add(10*time.Hour), "second")}},
	}

	agg := NewAggregator(api)
	b, err := agg.FetchDay(context.Background(), "2024-06-01", time.UTC)
	if err != nil {
		t.Fatalf("FetchDay: %v", err)
	}
	if b.Pages != 3 || b.Partial || b.Dropped != 2 {
		t.Fatalf("bucket = pages %d partial %v dropped %d", b.Pages, b.Partial, b.Dropped)
	}
	ids := []string{}
	for _, e := range b.Entries {
		ids = append(ids, e.ID)
	}
	if len(ids) != 3 || ids[0] != "a" || ids[1] != "b" || ids[2] != "c" {
		t.Fatalf("order = %v, want [a b c]", ids)
	}

	agg.Descending = true
	b, _ = agg.FetchDay(context.Background(), "2024-06-01", time.UTC)
	if b.Entries[0].ID != "c" {
		t.Fatalf("descending order starts with %s", b.Entries[0].ID)
	}
}

func TestFetchDay_BucketsByLocalDate(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skip("tzdata unavailable")
	}
	api := newFakeAPI()
	// 2024-06-02T02:00Z is 2024-06-01 22:00 in New York
	api.day("2024-06-01",
		entry("evening", time.Date(2024, 6, 2, 2, 0, 0, 0, time.UTC), "evening"),
		entry("utc-next", time.Date(2024, 6, 2, 5, 0, 0, 0, time.UTC), "next day local"),
		entry("morning", time.Date(2024, 6, 1, 13, 0, 0, 0, time.UTC), "morning"),
	)

	agg := NewAggregator(api)
	agg.Timezone = "America/New_York"
	b, err := agg.FetchDay(context.Background(), "2024-06-01", ny)
	if err != nil {
		t.Fatalf("FetchDay: %v", err)
	}
	if len(b.Entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(b.Entries))
	}
	for _, e := range b.Entries {
		if got := dates.Day(e.Timestamp, ny); got != "2024-06-01" {
			t.Fatalf("entry %s on %s, want 2024-06-01", e.ID, got)
		}
	}
}

func TestFetchDay_NoHintBucketsByUTC(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skip("tzdata unavailable")
	}
	api := newFakeAPI()
	// without a hint the API files this under its UTC date
	api.day("2024-06-02", entry("late", time.Date(2024, 6, 2, 2, 0, 0, 0, time.UTC), "late evening"))

	agg := NewAggregator(api)
	got := map[string]int{}
	for _, d := range []string{"2024-06-01", "2024-06-02"} {
		b, err := agg.FetchDay(context.Background(), d, ny)
		if err != nil {
			t.Fatalf("FetchDay %s: %v", d, err)
		}
		if b.Dropped != 0 {
			t.Fatalf("%s dropped %d entries", d, b.Dropped)
		}
		got[d] = len(b.Entries)
	}
	if got["2024-06-01"] != 0 || got["2024-06-02"] != 1 {
		t.Fatalf("entries per day = %v, want the entry on 2024-06-02", got)
	}
}

func TestToEntry_TimestampDerivation(t *testing.T) {
	now := time.Date(2024, 6, 1, 23, 0, 0, 0, time.UTC)
	agg := NewAggregator(newFakeAPI())
	agg.now = func() time.Time { return now }

	multi := lifelog.Lifelog{
		ID:        "m",
		StartTime: "2024-06-01T08:00:00Z",
		Contents: []lifelog.Content{
			{Type: "blockquote", Content: "later", StartTime: "2024-06-01T10:00:00Z", SpeakerName: "Ana"},
			{Type: "blockquote", Content: "earlier", StartTime: "2024-06-01T09:30:00Z", SpeakerName: "Ben",
				Children: []lifelog.Content{{Content: "nested", StartTime: "2024-06-01T09:00:00Z", SpeakerName: "Ana"}}},
		},
	}
	e, ok := agg.toEntry(multi)
	if !ok || !e.Timestamp.Equal(time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)) {
		t.Fatalf("min content start = %v ok=%v", e.Timestamp, ok)
	}
	if e.Type != "blockquote" || e.Text != "later\nearlier\nnested" {
		t.Fatalf("type=%q text=%q", e.Type, e.Text)
	}
	if sp, _ := e.Metadata["speakers"].([]string); len(sp) != 2 {
		t.Fatalf("speakers = %v", e.Metadata["speakers"])
	}

	own := lifelog.Lifelog{ID: "o", StartTime: "2024-06-01T07:00:00Z", Markdown: "body"}
	if e, _ := agg.toEntry(own); !e.Timestamp.Equal(time.Date(2024, 6, 1, 7, 0, 0, 0, time.UTC)) || e.Type != "lifelog" {
		t.Fatalf("entry start fallback = %v type %q", e.Timestamp, e.Type)
	}

	bare := lifelog.Lifelog{ID: "b", Markdown: "body"}
	if e, _ := agg.toEntry(bare); !e.Timestamp.Equal(now) {
		t.Fatalf("now fallback = %v", e.Timestamp)
	}
}

func TestFetchDay_CancelReturnsPartial(t *testing.T) {
	api := newFakeAPI()
	day := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	api.pages["2024-06-01"] = []lifelog.Page{
		{Lifelogs: []lifelog.Lifelog{entry("a", day.Add(time.Hour), "one")}},
		{Lifelogs: []lifelog.Lifelog{entry("b", day.Add(2*time.Hour), "two")}},
	}
	agg := NewAggregator(api)
	checks := 0
	agg.Checkpoint = func(context.Context) error {
		checks++
		if checks > 1 {
			return perr.New(perr.ErrorCodeCanceled, "stop")
		}
		return nil
	}

	b, err := agg.FetchDay(context.Background(), "2024-06-01", time.UTC)
	if err != nil {
		t.Fatalf("cancellation should not be an error: %v", err)
	}
	if !b.Partial || len(b.Entries) != 1 || api.callCount() != 1 {
		t.Fatalf("partial=%v entries=%d calls=%d", b.Partial, len(b.Entries), api.callCount())
	}
}

func TestFetchDay_RepeatedCursorStops(t *testing.T) {
	api := newFakeAPI()
	api.pages["2024-06-01"] = []lifelog.Page{
		{NextCursor: "p1"},
		{NextCursor: "p1"},
	}
	b, err := NewAggregator(api).FetchDay(context.Background(), "2024-06-01", time.UTC)
	if err != nil || b.Pages != 2 {
		t.Fatalf("pages = %d err = %v", b.Pages, err)
	}
}

func TestFetchDay_ErrorsPropagate(t *testing.T) {
	api := newFakeAPI()
	api.errs["2024-06-01"] = perr.Wrap(errors.New("503"), perr.ErrorCodeUnavailable, "server error")
	_, err := NewAggregator(api).FetchDay(context.Background(), "2024-06-01", time.UTC)
	if !perr.IsCode(err, perr.ErrorCodeUnavailable) {
		t.Fatalf("want Unavailable, got %v", err)
	}
}

func TestFetchDay_SendsTimezoneHint(t *testing.T) {
	api := &hintAPI{}
	agg := NewAggregator(api)
	agg.Timezone = "Europe/Berlin"
	_, _ = agg.FetchDay(context.Background(), "2024-06-01", time.UTC)
	if api.got.Timezone != "Europe/Berlin" || api.got.Date != "2024-06-01" || !api.got.Since.IsZero() {
		t.Fatalf("filter = %+v", api.got)
	}
}

type hintAPI struct{ got lifelog.Filter }

func (h *hintAPI) FetchPage(_ context.Context, f lifelog.Filter, _ string) (lifelog.Page, error) {
	h.got = f
	return lifelog.Page{}, nil
}
func (h *hintAPI) CancelAll() int { return 0 }
func (h *hintAPI) HasKey() bool   { return true }
