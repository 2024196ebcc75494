package server

import (
	"context"
	"net/http"
	"strings"

	"NovaFM/core/auth"
	sync "NovaFM/core/sync"

	"github.com/google/uuid"
)

type contextKey string

const sessionKey contextKey = "session"
const requestIDKey contextKey = "requestID"

// SessionMiddleware extracts an optional session from the Authorization
// header. A missing or invalid bearer token is not an error: the request
// proceeds in anonymous local-only mode with a nil session.
func SessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			next.ServeHTTP(w, r)
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			next.ServeHTTP(w, r)
			return
		}

		claims, err := auth.ParseToken(parts[1])
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		sess := &sync.Session{UserID: claims.UserID, Username: claims.Username}
		ctx := context.WithValue(r.Context(), sessionKey, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// SessionFromContext returns the authenticated session or nil.
func SessionFromContext(ctx context.Context) *sync.Session {
	sess, _ := ctx.Value(sessionKey).(*sync.Session)
	return sess
}

// RequestIDMiddleware tags each request with an id, echoed in the
// X-Request-ID response header.
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		ctx := context.WithValue(r.Context(), requestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// CORSMiddleware mirrors the permissive cross-origin policy the mobile and
// web clients expect.
func CORSMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Max-Age", "86400")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
