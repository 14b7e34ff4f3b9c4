// Package repokit holds the types SQL repositories are written against
package repokit

import (
	"context"

	"lifesync/internal/platform/store"
)

type (
	// Queryer runs statements, inside or outside a transaction
	Queryer = store.RowQuerier
	// TxRunner is a Queryer that can open transactions
	TxRunner   = store.TxRunner
	Rows       = store.Rows
	Row        = store.Row
	CommandTag = store.CommandTag
)

// Binder binds a domain repository to a Queryer
type Binder[T any] interface {
	Bind(Queryer) T
}

// MustBind binds b to q. A nil q is a wiring bug
func MustBind[T any](b Binder[T], q Queryer) T {
	if q == nil {
		panic("repokit: nil Queryer")
	}
	return b.Bind(q)
}

// Step runs inside a transaction before the caller's work
type Step func(ctx context.Context, q Queryer) error

// WithTx runs before and then fn in one transaction. The first error rolls
// everything back
func WithTx(ctx context.Context, tx TxRunner, fn func(q Queryer) error, before ...Step) error {
	return tx.Tx(ctx, func(q Queryer) error {
		for _, step := range before {
			if err := step(ctx, q); err != nil {
				return err
			}
		}
		return fn(q)
	})
}
