package lifelog

import "time"

// Lifelog is one remote record as returned by the API
type Lifelog struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Markdown  string    `json:"markdown"`
	StartTime string    `json:"startTime"`
	EndTime   string    `json:"endTime"`
	IsStarred bool      `json:"isStarred"`
	UpdatedAt string    `json:"updatedAt"`
	Contents  []Content `json:"contents"`
}

// Content is a typed block inside a lifelog (heading, blockquote, ...)
type Content struct {
	Type              string    `json:"type"`
	Content           string    `json:"content"`
	StartTime         string    `json:"startTime,omitempty"`
	EndTime           string    `json:"endTime,omitempty"`
	StartOffsetMs     int64     `json:"startOffsetMs,omitempty"`
	EndOffsetMs       int64     `json:"endOffsetMs,omitempty"`
	SpeakerName       string    `json:"speakerName,omitempty"`
	SpeakerIdentifier string    `json:"speakerIdentifier,omitempty"`
	Children          []Content `json:"children,omitempty"`
}

// Filter scopes a page fetch. Date wins over Since when both are set
type Filter struct {
	Since    time.Time
	Date     string // YYYY-MM-DD
	Timezone string // IANA name
}

// Page is one page of results
type Page struct {
	Lifelogs   []Lifelog
	NextCursor string
	Count      int
}

type listResponse struct {
	Data struct {
		Lifelogs []Lifelog `json:"lifelogs"`
	} `json:"data"`
	Meta struct {
		Lifelogs struct {
			NextCursor string `json:"nextCursor"`
			Count      int    `json:"count"`
		} `json:"lifelogs"`
	} `json:"meta"`
}

// CheckStatus is the outcome of a credential check
type CheckStatus string

const (
	CheckOK           CheckStatus = "ok"
	CheckUnauthorized CheckStatus = "unauthorized"
	CheckUnreachable  CheckStatus = "unreachable"
	CheckMissing      CheckStatus = "missing"
)

// Check reports whether the configured key works
type Check struct {
	Status  CheckStatus `json:"status"`
	Entries int         `json:"entries"`
	Detail  string      `json:"detail,omitempty"`
}
