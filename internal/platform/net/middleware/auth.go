package middleware

import (
	"net/http"

	pnet "lifesync/internal/platform/net"
)

// AuthPort resolves the operator behind a request
type AuthPort interface {
	Parse(r *http.Request) (operator string, err error)
}

// Auth rejects requests the port cannot authenticate and stores the operator
// on the context. A nil port lets everything through
func Auth(p AuthPort, write func(w http.ResponseWriter, status int, body any)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if p == nil {
				next.ServeHTTP(w, r)
				return
			}
			op, err := p.Parse(r)
			if err != nil {
				status, body := pnet.Error(err, pnet.RequestID(r.Context()))
				write(w, status, body)
				return
			}
			next.ServeHTTP(w, r.WithContext(pnet.WithOperator(r.Context(), op)))
		})
	}
}
