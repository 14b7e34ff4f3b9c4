// Package net holds transport helpers shared by the http layer
package net

import (
	"context"

	chimw "github.com/go-chi/chi/v5/middleware"
)

type ctxKey string

const keyOperator ctxKey = "operator"

// WithOperator records the authenticated operator on ctx
func WithOperator(ctx context.Context, name string) context.Context {
	if name == "" {
		return ctx
	}
	return context.WithValue(ctx, keyOperator, name)
}

// Operator returns the authenticated operator or ""
func Operator(ctx context.Context) string {
	v, _ := ctx.Value(keyOperator).(string)
	return v
}

// RequestID returns the chi request id or ""
func RequestID(ctx context.Context) string {
	return chimw.GetReqID(ctx)
}
