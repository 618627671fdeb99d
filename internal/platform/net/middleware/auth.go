package middleware

import (
	"net/http"

	pnet "darkroom/internal/platform/net"
)

// AuthPort is the seam the token verifier module implements for http auth
type AuthPort interface {
	// Parse returns the authenticated user id and subject or an error
	Parse(r *http.Request) (userID string, subject string, err error)
}

// Auth verifies each request through the port and stores the identity on
// context. A nil port passes everything through
func Auth(p AuthPort, write func(w http.ResponseWriter, status int, body any)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if p == nil {
				next.ServeHTTP(w, r)
				return
			}
			uid, sub, err := p.Parse(r)
			if err != nil {
				status, body := pnet.Error(err, pnet.RequestID(r.Context()))
				write(w, status, body)
				return
			}
			ctx := pnet.WithIdentity(r.Context(), uid, sub)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
