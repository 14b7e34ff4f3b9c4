// Package http hosts the control api server, its router seam and the
// envelope writer handlers return through
package http

import (
	"encoding/json"
	stdhttp "net/http"

	pnet "lifesync/internal/platform/net"
)

// Envelope is the body of every control api response
type Envelope = pnet.Wire

// JSON writes v as application/json with the given status
func JSON(w stdhttp.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Response is what return-style handlers produce. A Body that is an error
// is written as an error envelope with the status its code maps to
type Response struct {
	Status int
	Body   any
	Header stdhttp.Header
}

// Handle adapts a Response producing func to net/http
func Handle(h func(r *stdhttp.Request) Response) stdhttp.HandlerFunc {
	return func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
		h(r).write(w, r)
	}
}

func (resp Response) write(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	for k, vv := range resp.Header {
		for _, v := range vv {
			w.Header().Add(k, v)
		}
	}
	status := resp.Status
	if status == 0 {
		status = stdhttp.StatusOK
	}
	if status == stdhttp.StatusNoContent {
		w.WriteHeader(status)
		return
	}

	reqID := pnet.RequestID(r.Context())
	body := any(nil)
	if err, ok := resp.Body.(error); ok && err != nil {
		status, body = pnet.Error(err, reqID)
	} else {
		status, body = pnet.Reply(status, resp.Body, reqID)
	}
	JSON(w, status, body)
}

// OK returns a 200 response
func OK(data any) Response { return Response{Status: stdhttp.StatusOK, Body: data} }

// Accepted returns a 202 response for a run that continues in the background
func Accepted(data any) Response { return Response{Status: stdhttp.StatusAccepted, Body: data} }

// NoContent returns a 204 response
func NoContent() Response { return Response{Status: stdhttp.StatusNoContent} }

// Error returns a response mapping err to its status and envelope
func Error(err error) Response { return Response{Body: err} }
