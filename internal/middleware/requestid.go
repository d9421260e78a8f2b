package middleware

import (
	"context"
	"net/http"
	"regexp"

	"github.com/google/uuid"
)

// HeaderXRequestID is the request ID header.
const HeaderXRequestID = "X-Request-ID"

// Inbound IDs are kept only when they look safe for logs and headers.
var safeRequestID = regexp.MustCompile(`^[a-zA-Z0-9\-_]{1,128}$`)

// RequestID returns a middleware that tags each request with a unique
// ID, reusing a valid inbound X-Request-ID when present.
func RequestID() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(HeaderXRequestID)
			if !safeRequestID.MatchString(id) {
				id = uuid.NewString()
			}

			w.Header().Set(HeaderXRequestID, id)
			ctx := context.WithValue(r.Context(), RequestIDKey, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
