// SPDX-License-Identifier: MIT

package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/httprate"
)

// rateLimitedBody uses the same envelope as the API's other error responses.
const rateLimitedBody = `{"error":"rate_limited","message":"Too many requests. Please try again later."}` + "\n"

// APIRateLimit limits every client IP to rps requests in a sliding
// one-second window. Rejected requests get 429 with Retry-After: 1.
func APIRateLimit(rps int) func(http.Handler) http.Handler {
	return httprate.Limit(
		rps,
		time.Second,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(rateLimitedBody))
		}),
	)
}
