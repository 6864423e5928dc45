package handlers

import (
	"net/http"
	"strconv"
	"time"

	"genealogy/internal/auth"
	"genealogy/internal/logging"
	"genealogy/internal/metrics"
	"genealogy/internal/security"
)

// Middleware holds dependencies for middleware functions
type Middleware struct {
	issuer  *auth.Issuer
	limiter *security.RateLimiter
	logger  *logging.Logger
	metrics *metrics.Metrics
}

// NewMiddleware creates a new middleware instance. limiter and m may be nil.
func NewMiddleware(issuer *auth.Issuer, limiter *security.RateLimiter, logger *logging.Logger, m *metrics.Metrics) *Middleware {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Middleware{issuer: issuer, limiter: limiter, logger: logger, metrics: m}
}

// statusRecorder captures the status a handler wrote
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// RequestID tags the request context and response with a correlation id
func (m *Middleware) RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := security.RequestID(r)
		w.Header().Set(security.RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(logging.WithRequestID(r.Context(), id)))
	})
}

// SecurityHeaders adds the headers every JSON response carries
func (m *Middleware) SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Cache-Control", "no-store")
		if security.IsSecureRequest(r) {
			w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}
		next.ServeHTTP(w, r)
	})
}

// Logging logs each request and records its metrics
func (m *Middleware) Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		elapsed := time.Since(start)
		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		m.metrics.ObserveRequest(r.Method, route, rec.status, elapsed)
		m.logger.Info(r.Context(), "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", strconv.Itoa(rec.status),
			"duration", elapsed.String(),
			"ip", security.GetClientIP(r))
	})
}

// RequireActor authenticates the bearer token and puts the actor on the context
func (m *Middleware) RequireActor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := security.BearerToken(r)
		if token == "" {
			respondFailure(w, http.StatusUnauthorized, MsgAuthRequired)
			return
		}

		actor, err := m.issuer.Parse(token)
		if err != nil {
			m.logger.Debug(r.Context(), "rejected token", "err", err)
			respondFailure(w, http.StatusUnauthorized, MsgAuthRequired)
			return
		}

		next.ServeHTTP(w, r.WithContext(auth.WithActor(r.Context(), actor)))
	})
}

// RateLimit throttles mutating requests per actor, or per client IP before
// authentication
func (m *Middleware) RateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.limiter == nil || isReadOnly(r.Method) {
			next.ServeHTTP(w, r)
			return
		}

		key := "ip:" + security.GetClientIP(r)
		if actor, ok := auth.FromContext(r.Context()); ok {
			key = "actor:" + strconv.FormatInt(actor.ID, 10)
		}
		if !m.limiter.Allow(key) {
			m.logger.Warn(r.Context(), "rate limit exceeded", "key", key)
			w.Header().Set("Retry-After", "60")
			respondFailure(w, http.StatusTooManyRequests, MsgRateLimited)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func isReadOnly(method string) bool {
	return method == http.MethodGet || method == http.MethodHead || method == http.MethodOptions
}

// actorFrom returns the authenticated actor. Routes behind RequireActor always have one.
func actorFrom(r *http.Request) auth.Actor {
	actor, _ := auth.FromContext(r.Context())
	return actor
}
