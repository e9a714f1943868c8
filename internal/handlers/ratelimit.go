package handlers

import (
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/creativecanvas/backend/internal/auth"
)

// RateLimiter is the minimal interface required to guard the generation endpoints.
type RateLimiter interface {
	Allow(key string) bool
}

func allowRequest(limiter RateLimiter, r *http.Request, scope string) bool {
	if limiter == nil {
		return true
	}
	return limiter.Allow(rateLimitKey(r, scope))
}

// rateLimitKey buckets authenticated callers by user id. Guests share one identity,
// so they are told apart by address instead.
func rateLimitKey(r *http.Request, scope string) string {
	caller := auth.UserFromContext(r.Context()).ID
	if caller == auth.Guest.ID {
		caller = "ip:" + clientIP(r)
	} else {
		caller = "user:" + caller
	}
	if scope == "" {
		return caller
	}
	return fmt.Sprintf("%s:%s", scope, caller)
}

// clientIP takes the right-most X-Forwarded-For hop, the one appended by the proxy in
// front of the service. Entries to its left are supplied by the client.
func clientIP(r *http.Request) string {
	if forwarded := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		if hop := strings.TrimSpace(parts[len(parts)-1]); hop != "" {
			return hop
		}
	}

	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil && host != "" {
		return host
	}
	return strings.TrimSpace(r.RemoteAddr)
}
