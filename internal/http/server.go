package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"studiostats/internal/cache"
	"studiostats/internal/dataset"
	applog "studiostats/internal/log"
)

// Options tunes server-side limits, logging, and caching.
type Options struct {
	MaxUploadBytes   int64
	CacheTTL         time.Duration
	CacheSize        int
	RateLimitPerMin  int
	RateLimitCleanup time.Duration
	Logger           *applog.Logger
}

func (o Options) withDefaults() Options {
	if o.MaxUploadBytes <= 0 {
		o.MaxUploadBytes = 20 << 20
	}
	if o.CacheTTL <= 0 {
		o.CacheTTL = 5 * time.Minute
	}
	if o.CacheSize <= 0 {
		o.CacheSize = 200
	}
	if o.RateLimitPerMin <= 0 {
		o.RateLimitPerMin = 60
	}
	if o.RateLimitCleanup <= 0 {
		o.RateLimitCleanup = 5 * time.Minute
	}
	if o.Logger == nil {
		o.Logger = applog.New(applog.DefaultConfig())
	}
	return o
}

type Server struct {
	http.Server
	store       *dataset.Store
	rateLimiter *rateLimiter
	metrics     *securityMetrics

	maxUploadBytes int64

	// Report responses are cached as serialized JSON. Datasets are immutable
	// once stored, so entries only ever age out.
	reportCache *cache.LRUCache[[]byte]

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, store *dataset.Store, opts Options) *Server {
	opts = opts.withDefaults()
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: applog.Middleware(opts.Logger)(mux),
		},
		store:          store,
		rateLimiter:    newRateLimiter(opts.RateLimitPerMin, opts.RateLimitCleanup),
		metrics:        &securityMetrics{},
		maxUploadBytes: opts.MaxUploadBytes,
		reportCache:    cache.NewLRUCache[[]byte](opts.CacheSize, opts.CacheTTL),
	}

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("POST /api/datasets", s.withSecurityHeaders(s.handleUpload))
	mux.HandleFunc("GET /api/datasets/{id}", s.withSecurityHeaders(s.handleDatasetMeta))
	mux.HandleFunc("DELETE /api/datasets/{id}", s.withSecurityHeaders(s.handleDatasetDelete))

	mux.HandleFunc("GET /api/datasets/{id}/reports/frequency", s.withSecurityHeaders(s.handleFrequency))
	mux.HandleFunc("GET /api/datasets/{id}/reports/thresholds", s.withSecurityHeaders(s.handleThresholds))
	mux.HandleFunc("GET /api/datasets/{id}/reports/series", s.withSecurityHeaders(s.handleSeries))
	mux.HandleFunc("GET /api/datasets/{id}/reports/top-bookers", s.withSecurityHeaders(s.handleTopBookers))
	mux.HandleFunc("GET /api/datasets/{id}/reports/distribution", s.withSecurityHeaders(s.handleDistribution))
	mux.HandleFunc("GET /api/datasets/{id}/reports/stats", s.withSecurityHeaders(s.handleStats))
	mux.HandleFunc("GET /api/datasets/{id}/export", s.withSecurityHeaders(s.handleExport))

	return s
}

// ReportCache exposes the response cache so it can be registered with the
// cleanup manager.
func (s *Server) ReportCache() *cache.LRUCache[[]byte] {
	return s.reportCache
}

// Shutdown gracefully shuts down the server and cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

// withSecurityHeaders adds security headers, rate limiting, and request
// logging to responses.
func (s *Server) withSecurityHeaders(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := extractClientIP(r, s.metrics)
		requestID := generateRequestID()

		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		r = r.WithContext(ctx)

		logger := applog.FromContext(ctx)
		structured := applog.NewStructuredLogger(logger)
		structured.LogHTTPStart(ctx, r, clientIP, requestID)

		if detectSuspiciousRequest(r, s.metrics) {
			logger.WarnContext(ctx, "Suspicious request pattern",
				applog.FieldRequestID, requestID,
				applog.FieldClientIP, clientIP,
				applog.FieldPath, r.URL.String())
		}

		// Uploads are the expensive path; only POSTs are rate limited.
		if r.Method == http.MethodPost && !s.rateLimiter.allow(clientIP, s.metrics) {
			logger.WarnContext(ctx, "Rate limit exceeded",
				applog.FieldClientIP, clientIP,
				applog.FieldMethod, r.Method,
				applog.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate_limited", "rate limit exceeded, try again later")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		structured.LogHTTPEnd(ctx, r, rw.statusCode, time.Since(start).Milliseconds(), clientIP, requestID)
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
