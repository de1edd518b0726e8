package middleware

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"
)

// BearerToken returns a middleware that rejects requests whose Authorization
// header does not carry "Bearer <token>". An empty token rejects everything.
func BearerToken(token string, logger *logrus.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || token == "" || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
				logger.WithFields(logrus.Fields{
					"path":        r.URL.Path,
					"remote_addr": r.RemoteAddr,
				}).Warn("Rejected request with missing or invalid token")
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("WWW-Authenticate", "Bearer")
				w.WriteHeader(http.StatusUnauthorized)
				_ = json.NewEncoder(w).Encode(map[string]string{"error": "invalid or missing token"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
