package httpapi

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// bearerAuth gates mutating routes behind one of the configured bearer
// tokens: all public reads stay unauthenticated, mutating operations
// require a bearer token validated here with a constant-time compare
// against the configured list.
func (s *Server) bearerAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if len(s.BearerTokens) == 0 {
			writeError(w, http.StatusServiceUnavailable, "invalid_input", "no bearer tokens configured")
			return
		}

		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			writeError(w, http.StatusUnauthorized, "invalid_input", "missing bearer token")
			return
		}

		for _, valid := range s.BearerTokens {
			if subtle.ConstantTimeCompare([]byte(token), []byte(valid)) == 1 {
				next.ServeHTTP(w, r)
				return
			}
		}
		writeError(w, http.StatusUnauthorized, "invalid_input", "invalid bearer token")
	})
}
