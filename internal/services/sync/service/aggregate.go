package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"lifesync/internal/adapters/lifelog"
	"lifesync/internal/core/dates"
	"lifesync/internal/core/normalize"
	perr "lifesync/internal/platform/errors"
	"lifesync/internal/platform/logger"
	"lifesync/internal/services/sync/domain"
)

// Aggregator collects one day of lifelogs across all pages
type Aggregator struct {
	API  domain.Lifelogs
	Norm *normalize.Normalizer

	// Timezone is sent as the API timezone hint when non-empty
	Timezone string
	// Descending sorts newest first
	Descending bool

	// Checkpoint runs before every page and after accumulation
	Checkpoint func(context.Context) error

	now func() time.Time
}

// NewAggregator returns an Aggregator over api
func NewAggregator(api domain.Lifelogs) *Aggregator {
	return &Aggregator{API: api, Norm: normalize.New(), now: time.Now}
}

func (a *Aggregator) checkpoint(ctx context.Context) error {
	if a.Checkpoint != nil {
		return a.Checkpoint(ctx)
	}
	if err := ctx.Err(); err != nil {
		return perr.Wrap(err, perr.ErrorCodeCanceled, "fetch cancelled")
	}
	return nil
}

// FetchDay follows the page cursor for date and returns the entries whose
// local date in loc equals date. Without a timezone hint the API buckets by
// UTC, so loc is ignored and entries are matched on their UTC date.
// Cancellation returns what was collected so far with Partial set and a nil error
func (a *Aggregator) FetchDay(ctx context.Context, date string, loc *time.Location) (domain.DayBucket, error) {
	b := domain.DayBucket{Date: date}
	if a.Timezone == "" {
		loc = time.UTC
	}
	log := logger.C(ctx).With().Str("date", date).Logger()
	seen := map[string]bool{}
	cursor := ""

	for {
		if a.checkpoint(ctx) != nil {
			b.Partial = true
			return b, nil
		}
		page, err := a.API.FetchPage(ctx, lifelog.Filter{Date: date, Timezone: a.Timezone}, cursor)
		if err != nil {
			if perr.IsCanceled(err) {
				b.Partial = true
				return b, nil
			}
			return b, err
		}
		b.Pages++

		for _, l := range page.Lifelogs {
			e, ok := a.toEntry(l)
			if !ok {
				b.Dropped++
				log.Debug().Str("id", l.ID).Msg("skipping lifelog with empty body")
				continue
			}
			if day := dates.Day(e.Timestamp, loc); day != date {
				b.Dropped++
				log.Warn().Str("id", l.ID).Str("entry_date", day).Msg("lifelog outside requested day dropped")
				continue
			}
			b.Entries = append(b.Entries, e)
		}

		cursor = page.NextCursor
		if cursor == "" {
			break
		}
		if seen[cursor] {
			log.Warn().Str("cursor", cursor).Msg("pagination cursor repeated, stopping")
			break
		}
		seen[cursor] = true
	}

	if a.checkpoint(ctx) != nil {
		b.Partial = true
	}
	sortEntries(b.Entries, a.Descending)
	return b, nil
}

func sortEntries(es []domain.Entry, desc bool) {
	sort.SliceStable(es, func(i, j int) bool {
		ti, tj := es[i].Timestamp, es[j].Timestamp
		if ti.Equal(tj) {
			return es[i].ID < es[j].ID
		}
		if desc {
			return ti.After(tj)
		}
		return ti.Before(tj)
	})
}

// toEntry normalizes a remote lifelog. It reports false when nothing renderable is left
func (a *Aggregator) toEntry(l lifelog.Lifelog) (domain.Entry, bool) {
	var text []string
	var speakers []string
	seen := map[string]bool{}
	var earliest time.Time
	walkContents(l.Contents, func(c lifelog.Content) {
		if s := strings.TrimSpace(c.Content); s != "" {
			text = append(text, s)
		}
		if c.SpeakerName != "" && !seen[c.SpeakerName] {
			seen[c.SpeakerName] = true
			speakers = append(speakers, c.SpeakerName)
		}
		if t, ok := parseTime(c.StartTime); ok && (earliest.IsZero() || t.Before(earliest)) {
			earliest = t
		}
	})

	e := domain.Entry{
		ID:       l.ID,
		Title:    strings.TrimSpace(l.Title),
		Markdown: a.Norm.Normalize(l.Markdown),
		Text:     a.Norm.Normalize(strings.Join(text, "\n")),
		Type:     "lifelog",
	}
	if e.Body() == "" {
		return e, false
	}
	if len(l.Contents) > 0 && l.Contents[0].Type != "" {
		e.Type = l.Contents[0].Type
	}

	switch {
	case !earliest.IsZero():
		e.Timestamp = earliest
	default:
		if t, ok := parseTime(l.StartTime); ok {
			e.Timestamp = t
		} else {
			e.Timestamp = a.now()
		}
	}

	md := map[string]any{}
	if e.Title != "" {
		md["title"] = e.Title
	}
	if l.StartTime != "" {
		md["startTime"] = l.StartTime
	}
	if l.EndTime != "" {
		md["endTime"] = l.EndTime
	}
	if l.UpdatedAt != "" {
		md["updatedAt"] = l.UpdatedAt
	}
	if l.IsStarred {
		md["isStarred"] = true
	}
	if len(speakers) > 0 {
		md["speakers"] = speakers
	}
	e.Metadata = md
	return e, true
}

func walkContents(cs []lifelog.Content, fn func(lifelog.Content)) {
	for _, c := range cs {
		fn(c)
		walkContents(c.Children, fn)
	}
}

func parseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999999"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
