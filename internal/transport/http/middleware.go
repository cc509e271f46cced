package http

import (
	"context"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/jhleal91/rifas-app-sub000/internal/ratelimit"
)

// RequestLogger logs basic request details and latency.
func RequestLogger(logger *log.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = log.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			logger.Printf(
				"request method=%s path=%s status=%d duration=%s",
				r.Method,
				r.URL.Path,
				rec.status,
				time.Since(start),
			)
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// organizerHeader carries the authenticated organizer identity supplied by
// the upstream auth collaborator. The engine trusts it; verifying it is out
// of scope here.
const organizerHeader = "X-Organizer-Id"

type organizerKey struct{}

// RequireOrganizer guards organizer-only routes.
func RequireOrganizer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(organizerHeader)
		if id == "" {
			writeError(w, http.StatusUnauthorized, codeOrganizerIdentityRequired, "organizer identity required")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), organizerKey{}, id)))
	})
}

func organizerID(ctx context.Context) string {
	id, _ := ctx.Value(organizerKey{}).(string)
	return id
}

// RateLimit rejects callers exceeding the per-IP reservation budget. Best
// effort only; availability is decided by the storage transaction.
func RateLimit(limiter *ratelimit.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limiter != nil && !limiter.Allow(clientIP(r)) {
				writeError(w, http.StatusTooManyRequests, codeRateLimited, "too many requests")
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
