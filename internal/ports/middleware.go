package ports

import (
	"encoding/json"
	"net/http"
	"slices"

	"github.com/Amund211/stillhere/internal/ratelimiting"
)

func NewRateLimitMiddleware(rateLimiter ratelimiting.RequestRateLimiter, onLimitExceeded http.HandlerFunc) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if !rateLimiter.Consume(r) {
				onLimitExceeded(w, r)
				return
			}
			next(w, r)
		}
	}
}

// ComposeMiddlewares chains middlewares so the first one sees the request first
func ComposeMiddlewares(middlewares ...func(http.HandlerFunc) http.HandlerFunc) func(http.HandlerFunc) http.HandlerFunc {
	return func(handler http.HandlerFunc) http.HandlerFunc {
		for _, middleware := range slices.Backward(middlewares) {
			handler = middleware(handler)
		}
		return handler
	}
}

type failureResponse struct {
	Success bool   `json:"success"`
	Cause   string `json:"cause"`
}

// writeFailure responds with {"success":false,"cause":cause}. cause is shown to the caller.
func writeFailure(w http.ResponseWriter, statusCode int, cause string) {
	body, err := json.Marshal(failureResponse{Success: false, Cause: cause})
	if err != nil {
		body = []byte(`{"success":false}`)
	}
	writeJSON(w, statusCode, body)
}

func writeJSON(w http.ResponseWriter, statusCode int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_, _ = w.Write(body)
}
