// Package middleware holds the HTTP middleware used by the api stack
package middleware

import (
	"net/http"
	"time"

	"lifesync/internal/platform/logger"
	pnet "lifesync/internal/platform/net"
)

// AccessLogOptions configures AccessLog
type AccessLogOptions struct {
	// Slow logs requests taking at least Slow at warn level, 0 disables it
	Slow time.Duration
}

type captureWriter struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (cw *captureWriter) WriteHeader(code int) {
	cw.status = code
	cw.ResponseWriter.WriteHeader(code)
}

func (cw *captureWriter) Write(b []byte) (int, error) {
	n, err := cw.ResponseWriter.Write(b)
	cw.bytes += n
	return n, err
}

// AccessLog tags the request context with its request id so handler logs
// carry it, then logs one line per request once the handler returns.
// Mount it after RequestID
func AccessLog(opt AccessLogOptions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if id := pnet.RequestID(ctx); id != "" {
				ctx = logger.WithRequest(ctx, id)
				r = r.WithContext(ctx)
			}
			cw := &captureWriter{ResponseWriter: w, status: http.StatusOK}
			start := time.Now()

			next.ServeHTTP(cw, r)

			elapsed := time.Since(start)
			log := logger.C(ctx)
			evt := log.Info()
			switch {
			case cw.status >= 500:
				evt = log.Error()
			case opt.Slow > 0 && elapsed >= opt.Slow:
				evt = log.Warn()
			}
			if op := pnet.Operator(r.Context()); op != "" {
				evt = evt.Str("operator", op)
			}
			evt.Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", cw.status).
				Int("bytes", cw.bytes).
				Dur("elapsed", elapsed).
				Msg("request done")
		})
	}
}
