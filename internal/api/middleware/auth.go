package middleware

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"
)

// APIKeyAuth guards routes behind a single shared API key, compared by
// SHA-256 digest in constant time. An empty expected key disables the
// check, which is the development default.
func APIKeyAuth(expectedKey string) func(http.Handler) http.Handler {
	expected := sha256.Sum256([]byte(expectedKey))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if expectedKey == "" {
				next.ServeHTTP(w, r)
				return
			}

			key := requestAPIKey(r)
			if key == "" {
				writeError(w, http.StatusUnauthorized, "missing API key")
				return
			}

			got := sha256.Sum256([]byte(key))
			if subtle.ConstantTimeCompare(got[:], expected[:]) != 1 {
				writeError(w, http.StatusUnauthorized, "invalid API key")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// requestAPIKey pulls the key from a Bearer authorization header, falling
// back to the X-API-Key header.
func requestAPIKey(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return r.Header.Get("X-API-Key")
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
