package middleware

import (
	"net"
	"net/http"

	"go.uber.org/zap"

	"nodetree/pkg/ratelimit"
)

// MessageTooManyRequests is the error body message for throttled calls
const MessageTooManyRequests = "Too many requests"

// StatusWriter writes an error body with a fixed status
type StatusWriter interface {
	HandleStatus(w http.ResponseWriter, r *http.Request, status int, message string)
}

// RateLimit throttles callers by client IP. Limiter failures let the
// request through.
func RateLimit(limiter ratelimit.Limiter, errs StatusWriter, logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := "ip:" + clientIP(r)

			allowed, err := limiter.Allow(r.Context(), key)
			if err != nil {
				logger.Warn("Rate limiter failed", zap.String("key", key), zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}
			if !allowed {
				errs.HandleStatus(w, r, http.StatusTooManyRequests, MessageTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
