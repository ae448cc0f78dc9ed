package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"
)

// userIDHeader carries the resolved identity from the upstream auth proxy.
// The engine never sees credentials; identity resolution happens before
// requests reach it.
const userIDHeader = "X-User-ID"

type contextKey string

const userIDKey contextKey = "user_id"

// Identity resolves the requesting identity from the X-User-ID header and
// stores it on the request context. Requests without the header run as the
// demo identity: they see demo files, cannot upload, and cannot delete.
func Identity(demoUserID string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := strings.TrimSpace(r.Header.Get(userIDHeader))
			if userID == "" {
				userID = demoUserID
			}
			ctx := context.WithValue(r.Context(), userIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserID returns the identity resolved by the Identity middleware, or ""
// when the middleware did not run.
func UserID(ctx context.Context) string {
	userID, _ := ctx.Value(userIDKey).(string)
	return userID
}

// ClientIP extracts the originating client address for audit logging,
// preferring the first X-Forwarded-For hop when a proxy set one.
func ClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		return strings.TrimSpace(parts[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
