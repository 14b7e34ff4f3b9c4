// Package dates handles civil days: parsing start dates, bucketing instants
// into local days and enumerating day ranges
package dates

import (
	"strings"
	"sync"
	"time"

	perr "lifesync/internal/platform/errors"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

// Layout is the civil day format used for buckets and document names
const Layout = time.DateOnly

var (
	parserOnce sync.Once
	parser     *when.Parser
)

func natural() *when.Parser {
	parserOnce.Do(func() {
		parser = when.New(nil)
		parser.Add(en.All...)
		parser.Add(common.All...)
	})
	return parser
}

// ParseDay parses a strict YYYY-MM-DD into midnight of that day in loc
func ParseDay(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation(Layout, strings.TrimSpace(s), loc)
	if err != nil {
		return time.Time{}, perr.Wrapf(err, perr.ErrorCodeInvalidArgument, "invalid date %q, want YYYY-MM-DD", s)
	}
	return t, nil
}

// ParseStart accepts YYYY-MM-DD or a natural phrase such as "2 weeks ago" or
// "last monday" and returns the start of that day in now's location
func ParseStart(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, perr.InvalidArgf("empty start date")
	}
	if t, err := ParseDay(s, now.Location()); err == nil {
		return t, nil
	}
	r, err := natural().Parse(s, now)
	if err != nil {
		return time.Time{}, perr.Wrapf(err, perr.ErrorCodeInvalidArgument, "could not read start date %q", s)
	}
	if r == nil {
		return time.Time{}, perr.InvalidArgf("could not read start date %q, use YYYY-MM-DD or a phrase like \"2 weeks ago\"", s)
	}
	return StartOfDay(r.Time, now.Location()), nil
}

// StartOfDay returns local midnight of t's day in loc
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// Day formats the local civil day of t in loc
func Day(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(Layout)
}

// Range lists every civil day from start to end inclusive, in loc. It is
// empty when start is after end
func Range(start, end time.Time, loc *time.Location) []string {
	if loc == nil {
		loc = time.Local
	}
	sy, sm, sd := start.In(loc).Date()
	ey, em, ed := end.In(loc).Date()
	// civil arithmetic in UTC avoids DST gaps
	from := time.Date(sy, sm, sd, 0, 0, 0, 0, time.UTC)
	to := time.Date(ey, em, ed, 0, 0, 0, 0, time.UTC)
	if from.After(to) {
		return nil
	}
	out := make([]string, 0, int(to.Sub(from).Hours()/24)+1)
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		out = append(out, d.Format(Layout))
	}
	return out
}
