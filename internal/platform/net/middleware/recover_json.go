package middleware

import (
	"net/http"
	"runtime/debug"

	perr "lifesync/internal/platform/errors"
	"lifesync/internal/platform/logger"
	pnet "lifesync/internal/platform/net"
)

// RecoverJSON turns a handler panic into the standard 500 envelope and logs the stack
func RecoverJSON(write func(w http.ResponseWriter, status int, body any)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				v := recover()
				if v == nil {
					return
				}
				if v == http.ErrAbortHandler {
					panic(v)
				}
				reqID := pnet.RequestID(r.Context())
				logger.C(r.Context()).Error().
					Interface("panic", v).
					Bytes("stack", debug.Stack()).
					Msg("panic recovered")

				if reqID != "" {
					w.Header().Set("X-Request-ID", reqID)
				}
				status, body := pnet.Error(perr.PanicErrf("internal error"), reqID)
				write(w, status, body)
			}()
			next.ServeHTTP(w, r)
		})
	}
}
