// Package httpkit provides handler and routing helpers that alias the platform http package
// use these from modules so they do not import internal/platform/net/http directly
package httpkit

import (
	"net/http"

	phttp "lifesync/internal/platform/net/http"
	"lifesync/internal/platform/net/http/bind"
)

type (
	// Response is the HTTP response type
	Response = phttp.Response

	// Handler is the platform handler type
	Handler = phttp.Handler

	// Router is a re-export of the platform router seam
	Router = phttp.Router
)

// OK returns a 200 response
func OK(data any) Response { return phttp.OK(data) }

// Accepted returns a 202 response
func Accepted(data any) Response { return phttp.Accepted(data) }

// NoContent returns a 204 response
func NoContent() Response { return phttp.NoContent() }

// Error returns an error response
func Error(err error) Response { return phttp.Error(err) }

// bodyOpts accepts an empty body as the zero value so control endpoints can
// be triggered without a payload
var bodyOpts = bind.JSONOptions{MaxBytes: 64 << 10, DisallowUnknown: true, AllowEmptyBody: true}

// JSON decodes and validates T, then wraps the result. A returned Response
// passes through untouched; any other value is sent as 200
func JSON[T any](fn func(*http.Request, T) (any, error)) Handler {
	return Handle(func(r *http.Request) Response {
		in, err := bind.ParseJSON[T](r, bodyOpts)
		if err != nil {
			return phttp.Error(err)
		}
		return wrap(fn(r, in))
	})
}

// Call wraps a handler without a body
func Call(fn func(*http.Request) (any, error)) Handler {
	return Handle(func(r *http.Request) Response { return wrap(fn(r)) })
}

// Handle adapts a Response producing func
func Handle(fn func(*http.Request) Response) Handler {
	return phttp.Handle(fn)
}

func wrap(out any, err error) Response {
	if err != nil {
		return phttp.Error(err)
	}
	if resp, ok := out.(phttp.Response); ok {
		return resp
	}
	return phttp.OK(out)
}
