package ports

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/Amund211/stillhere/internal/logging"
)

// candidateSecrets returns every secret the request presents.
// Schedulers differ in where they put it.
func candidateSecrets(r *http.Request) []string {
	candidates := make([]string, 0, 3)

	if secret := r.URL.Query().Get("secret"); secret != "" {
		candidates = append(candidates, secret)
	}

	if token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok && token != "" {
		candidates = append(candidates, token)
	}

	if secret := r.Header.Get("X-Vercel-Cron-Auth"); secret != "" {
		candidates = append(candidates, secret)
	}

	return candidates
}

func secretMatches(secret string, r *http.Request) bool {
	if secret == "" {
		// An unset secret must not let empty credentials through
		return false
	}

	matched := false
	for _, candidate := range candidateSecrets(r) {
		// Check every candidate to keep the timing independent of which one matches
		if subtle.ConstantTimeCompare([]byte(candidate), []byte(secret)) == 1 {
			matched = true
		}
	}
	return matched
}

// BuildCronSecretMiddleware rejects requests that do not present the shared scheduler secret
func BuildCronSecretMiddleware(secret string) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if !secretMatches(secret, r) {
				ctx := r.Context()
				logging.FromContext(ctx).WarnContext(ctx, "Rejected request with missing or invalid secret")
				writeFailure(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			next(w, r)
		}
	}
}
