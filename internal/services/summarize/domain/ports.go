package domain

import (
	"context"

	statedom "lifesync/internal/services/state/domain"
)

// LLM is the chat completion surface summaries need
type LLM interface {
	Chat(ctx context.Context, system, user string) (string, error)
	ListModels(ctx context.Context) ([]string, error)
	Model() string
	HasKey() bool
	CancelAll() int
}

// Documents is the document store surface summaries need
type Documents interface {
	EnsureDir(ctx context.Context, dir string) error
	Read(ctx context.Context, path string) (string, bool, error)
	Write(ctx context.Context, path, content string) error
	List(ctx context.Context, dir string) ([]string, error)
}

// Hashes persists the digest of each document's last summarized content
type Hashes = statedom.HashStore

// Runner is the port other modules use to drive summaries
type Runner interface {
	SummarizeAll(ctx context.Context, force bool) (Outcome, error)
	Launch(ctx context.Context, req Request) (bool, error)
	Cancel() bool
	Snapshot() Snapshot
	Active() bool
	Enabled() bool
	ValidateCredential(ctx context.Context) CredentialCheck
	Models(ctx context.Context) ([]string, error)
}
