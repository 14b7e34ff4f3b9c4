package httpkit

import "lifesync/internal/platform/net/middleware"

// Protected groups routes behind bearer auth. With a nil port the routes are
// mounted open, which is how a loopback-only daemon runs
func Protected(r Router, p *TokenPort, fn func(Router)) {
	r.Group(func(gr Router) {
		if p != nil {
			gr.Use(Auth(p))
		}
		fn(gr)
	})
}

var _ middleware.AuthPort = (*TokenPort)(nil)
