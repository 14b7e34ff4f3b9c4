package httpkit

import (
	"compress/flate"
	"net/http"
	"time"

	phttp "lifesync/internal/platform/net/http"
	"lifesync/internal/platform/net/middleware"
)

// CommonStack returns the middleware every control api route runs behind
func CommonStack() []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		middleware.RequestID(),
		middleware.RealIP(),
		middleware.AccessLog(middleware.AccessLogOptions{Slow: 500 * time.Millisecond}),
		middleware.RecoverJSON(phttp.JSON),
		middleware.NoCache(),
		middleware.CORS(middleware.CORSOptions{}),
		middleware.Compress(flate.BestSpeed),
		middleware.Heartbeat("/health"),
		middleware.StripSlashes(),
		middleware.Timeout(30 * time.Second),
	}
}

// Auth wires the auth middleware to the platform JSON writer
func Auth(p middleware.AuthPort) func(http.Handler) http.Handler {
	return middleware.Auth(p, phttp.JSON)
}
