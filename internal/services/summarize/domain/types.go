// Package domain holds the summarization types and ports
package domain

import "lifesync/internal/core/runstate"

// CredentialStatus is the result of checking the LLM key
type CredentialStatus string

const (
	CredentialValid       CredentialStatus = "valid"
	CredentialInvalid     CredentialStatus = "invalid"
	CredentialMissing     CredentialStatus = "missing"
	CredentialUnreachable CredentialStatus = "unreachable"
)

// CredentialCheck is a typed credential result. Models is set when valid
type CredentialCheck struct {
	Status CredentialStatus `json:"status"`
	Models []string         `json:"models"`
	Detail string           `json:"detail,omitempty"`
}

// Usable reports whether summaries can run with this credential
func (c CredentialCheck) Usable() bool { return c.Status == CredentialValid }

// Request starts a summarization pass
type Request struct {
	// Force summarizes every eligible document regardless of its hash
	Force bool `json:"force"`
}

type (
	// Outcome is the terminal result of a pass
	Outcome = runstate.Outcome
	// Snapshot is the observable pass state
	Snapshot = runstate.Snapshot
)
