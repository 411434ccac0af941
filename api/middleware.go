package api

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/vikiai/newsletter/config"
	"github.com/vikiai/newsletter/metrics"
	"github.com/vikiai/newsletter/webutil"
)

const (
	msgTooManyRequests = "Too many requests. Please try again later."
	unmatchedRoute     = "unmatched"
)

// CORS lets the client shell be served from another origin.
func CORS(cfg config.CORSConfig) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", webutil.HeaderContentType, middleware.RequestIDHeader},
		ExposedHeaders: []string{middleware.RequestIDHeader},
		MaxAge:         300,
	})
}

// RateLimit limits calls per client IP. Each call returns an independent
// limiter. A disabled limit is a no-op.
func RateLimit(cfg config.RateLimitConfig) func(http.Handler) http.Handler {
	if cfg.Disabled {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	retryAfter := strconv.Itoa(int(math.Ceil(cfg.Window.Seconds())))

	return httprate.Limit(
		cfg.Requests,
		cfg.Window,
		httprate.WithKeyFuncs(httprate.KeyByRealIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set(webutil.HeaderRetryAfter, retryAfter)
			webutil.RespondWithMessage(w, http.StatusTooManyRequests, msgTooManyRequests)
		}),
	)
}

// Metrics records request latency labelled by the matched route pattern, so
// path values never become label values.
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		route := unmatchedRoute
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		metrics.RecordHTTPRequestDuration(r.Method, route, strconv.Itoa(status), time.Since(start))
	})
}
