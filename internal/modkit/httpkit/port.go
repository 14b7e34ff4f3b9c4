package httpkit

import (
	"crypto/subtle"
	"net/http"
	"strings"

	perrs "lifesync/internal/platform/errors"
)

// TokenPort implements middleware.AuthPort against a fixed table of
// operator bearer tokens
type TokenPort struct {
	tokens map[string]string // operator -> token
}

// NewTokenPort builds a port from "name=token" pairs. A bare token is
// registered under the name "operator". It returns nil when no token is
// usable so the routes stay open
func NewTokenPort(pairs ...string) *TokenPort {
	p := &TokenPort{tokens: map[string]string{}}
	for _, pair := range pairs {
		name, tok, ok := strings.Cut(pair, "=")
		if !ok {
			name, tok = "operator", pair
		}
		name, tok = strings.TrimSpace(name), strings.TrimSpace(tok)
		if name != "" && tok != "" {
			p.tokens[name] = tok
		}
	}
	if len(p.tokens) == 0 {
		return nil
	}
	return p
}

// Parse extracts the bearer token and returns the operator it belongs to
func (p *TokenPort) Parse(r *http.Request) (string, error) {
	s := strings.TrimSpace(r.Header.Get("Authorization"))
	const prefix = "bearer"
	if len(s) < len(prefix) || !strings.EqualFold(s[:len(prefix)], prefix) {
		return "", perrs.Unauthorizedf("missing bearer token")
	}
	raw := strings.TrimSpace(s[len(prefix):])
	if raw == "" {
		return "", perrs.Unauthorizedf("missing bearer token")
	}
	for name, tok := range p.tokens {
		if subtle.ConstantTimeCompare([]byte(raw), []byte(tok)) == 1 {
			return name, nil
		}
	}
	return "", perrs.Unauthorizedf("invalid bearer token")
}
