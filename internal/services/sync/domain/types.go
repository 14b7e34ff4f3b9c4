// Package domain holds the lifelog sync types and ports
package domain

import (
	"time"

	"lifesync/internal/core/runstate"
)

// Mode selects how a run picks its date range
type Mode string

const (
	// Incremental starts at the stored cursor and advances it on success
	Incremental Mode = "incremental"
	// Full starts at the configured date and never touches the cursor
	Full Mode = "full"
)

// Entry is one lifelog after normalization
type Entry struct {
	ID        string
	Timestamp time.Time
	Title     string
	Text      string
	Markdown  string
	Type      string
	Metadata  map[string]any
}

// Body is the text rendered for the entry
func (e Entry) Body() string {
	if e.Markdown != "" {
		return e.Markdown
	}
	return e.Text
}

// DayBucket holds the entries whose local date equals Date
type DayBucket struct {
	Date    string
	Entries []Entry

	// Partial is set when cancellation cut pagination short
	Partial bool
	Pages   int
	Dropped int
}

// WriteResult tells what WriteDay did with the document
type WriteResult string

const (
	Created     WriteResult = "created"
	Overwritten WriteResult = "overwritten"
	Merged      WriteResult = "merged"
	Appended    WriteResult = "appended"
	Unchanged   WriteResult = "unchanged"
)

// Request starts a sync run
type Request struct {
	Mode Mode `json:"mode" validate:"omitempty,oneof=incremental full"`

	// Start overrides the configured start date, YYYY-MM-DD or a phrase like "2 weeks ago"
	Start string `json:"start" validate:"omitempty,max=64"`
}

type (
	// Outcome is the terminal result of a run
	Outcome = runstate.Outcome
	// Snapshot is the observable run state
	Snapshot = runstate.Snapshot
)
