// Package domain holds the persisted sync state shapes
package domain

import "time"

// DayRecord is the ledger row written after each day task
type DayRecord struct {
	Date       string    `json:"date"`
	Entries    int       `json:"entries"`
	Written    string    `json:"written"`
	Mode       string    `json:"mode"`
	Status     string    `json:"status"`
	Error      string    `json:"error,omitempty"`
	ElapsedMS  int64     `json:"elapsed_ms"`
	FinishedAt time.Time `json:"finished_at"`
}

// Day statuses
const (
	DayOK       = "ok"
	DayEmpty    = "empty"
	DayFailed   = "failed"
	DayCanceled = "canceled"
)
