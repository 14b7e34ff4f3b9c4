package dates

import (
	"reflect"
	"testing"
	"time"

	perr "lifesync/internal/platform/errors"
)

func TestParseDay(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		t.Skip("tzdata not available")
	}
	got, err := ParseDay(" 2024-06-01 ", berlin)
	if err != nil {
		t.Fatalf("ParseDay: %v", err)
	}
	if got.Location() != berlin || got.Hour() != 0 || got.Day() != 1 {
		t.Fatalf("ParseDay = %v", got)
	}

	for _, bad := range []string{"2024-13-01", "06/01/2024", ""} {
		if _, err := ParseDay(bad, time.UTC); !perr.IsCode(err, perr.ErrorCodeInvalidArgument) {
			t.Fatalf("ParseDay(%q) err = %v, want InvalidArgument", bad, err)
		}
	}
}

func TestParseStart(t *testing.T) {
	now := time.Date(2024, 6, 15, 14, 30, 0, 0, time.UTC)

	cases := []struct {
		in   string
		want string
	}{
		{"2024-01-01", "2024-01-01"},
		{"2 weeks ago", "2024-06-01"},
		{"3 days ago", "2024-06-12"},
		{"yesterday", "2024-06-14"},
	}
	for _, tc := range cases {
		got, err := ParseStart(tc.in, now)
		if err != nil {
			t.Fatalf("ParseStart(%q): %v", tc.in, err)
		}
		if d := got.Format(Layout); d != tc.want || got.Hour() != 0 {
			t.Fatalf("ParseStart(%q) = %v, want %s midnight", tc.in, got, tc.want)
		}
	}

	for _, bad := range []string{"", "   ", "banana"} {
		if _, err := ParseStart(bad, now); !perr.IsCode(err, perr.ErrorCodeInvalidArgument) {
			t.Fatalf("ParseStart(%q) err = %v, want InvalidArgument", bad, err)
		}
	}
}

func TestDayBucketsInLocation(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skip("tzdata not available")
	}
	instant := time.Date(2024, 6, 2, 2, 0, 0, 0, time.UTC) // 22:00 on the 1st in New York
	if got := Day(instant, ny); got != "2024-06-01" {
		t.Fatalf("Day = %s, want 2024-06-01", got)
	}
	if got := Day(instant, time.UTC); got != "2024-06-02" {
		t.Fatalf("Day UTC = %s", got)
	}
	if sod := StartOfDay(instant, ny); sod.Format(time.RFC3339) != "2024-06-01T00:00:00-04:00" {
		t.Fatalf("StartOfDay = %s", sod.Format(time.RFC3339))
	}
}

func TestRange(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skip("tzdata not available")
	}
	// spans the March DST switch
	start := time.Date(2024, 3, 9, 12, 0, 0, 0, ny)
	end := time.Date(2024, 3, 11, 1, 0, 0, 0, ny)
	want := []string{"2024-03-09", "2024-03-10", "2024-03-11"}
	if got := Range(start, end, ny); !reflect.DeepEqual(got, want) {
		t.Fatalf("Range = %v, want %v", got, want)
	}

	if got := Range(end, start, ny); len(got) != 0 {
		t.Fatalf("reversed Range = %v, want empty", got)
	}
	single := Range(start, start, ny)
	if len(single) != 1 || single[0] != "2024-03-09" {
		t.Fatalf("single Range = %v", single)
	}
}
