package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vikiai/newsletter/config"
	"github.com/vikiai/newsletter/logging"
	rh "github.com/vikiai/newsletter/route-handlers"
	"github.com/vikiai/newsletter/webutil"
)

const (
	apiBasePath     = "/api"
	subscribePath   = "/subscribe"
	unsubscribePath = "/unsubscribe"
	seedPath        = "/seed"

	homePath        = "/"
	unsubscribePage = "/unsubscribe"

	healthPath  = "/healthz"
	readyPath   = "/readyz"
	metricsPath = "/metrics"

	readyTimeout = 2 * time.Second
)

// StoreStatus is what the readiness check asks of the store.
type StoreStatus interface {
	Ping(ctx context.Context) error
	Count(ctx context.Context) (int64, error)
}

type Handlers struct {
	Subscription *rh.SubscriptionHandler
	Pages        *rh.PageHandler
	Store        StoreStatus
}

type readiness struct {
	Status      string `json:"status"`
	Subscribers *int64 `json:"subscribers,omitempty"`
}

func SetupRoutes(cfg *config.Config, h Handlers) http.Handler {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(Metrics)
	r.Use(middleware.Timeout(cfg.Server.RequestTimeout))

	r.Route(apiBasePath, func(r chi.Router) {
		r.Use(CORS(cfg.CORS))
		r.Use(RateLimit(cfg.RateLimit))
		configureSubscriptionRoutes(r, cfg, h.Subscription)
	})

	configurePageRoutes(r, cfg, h.Pages)

	r.Get(healthPath, handleHealthCheck)
	r.Get(readyPath, handleReadyCheck(h.Store))
	r.Handle(metricsPath, promhttp.Handler())

	return r
}

// --- Subscription API Routes ---
func configureSubscriptionRoutes(r chi.Router, cfg *config.Config, handler *rh.SubscriptionHandler) {
	r.Post(subscribePath, webutil.MakeHandler(handler.HandleSubscribe))
	r.Post(unsubscribePath, webutil.MakeHandler(handler.HandleUnsubscribe))

	if cfg.Server.EnableSeed && !cfg.IsProduction() {
		r.Get(seedPath, webutil.MakeHandler(handler.HandleSeed))
	}
}

// --- Widget Page Routes ---
// Form posts reach the store like API calls and share the per-IP limit
// settings, with a limiter of their own.
func configurePageRoutes(r chi.Router, cfg *config.Config, handler *rh.PageHandler) {
	r.Get(homePath, webutil.MakeHandler(handler.HandleSubscribePage))
	r.Get(unsubscribePage, webutil.MakeHandler(handler.HandleUnsubscribePage))

	r.Group(func(r chi.Router) {
		r.Use(RateLimit(cfg.RateLimit))
		r.Post(homePath, webutil.MakeHandler(handler.HandleSubscribeForm))
		r.Post(unsubscribePage, webutil.MakeHandler(handler.HandleUnsubscribeForm))
	})
}

// --- Utility Functions ---

// handleHealthCheck responds to a health check request.
func handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set(webutil.HeaderContentType, webutil.ContentTypeTextPlainUTF8)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handleReadyCheck reports the subscriber count, or 503 while the store
// cannot be reached.
func handleReadyCheck(store StoreStatus) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()

		err := store.Ping(ctx)
		var count int64
		if err == nil {
			count, err = store.Count(ctx)
		}
		if err != nil {
			logging.Ctx(r.Context()).Warn().Err(err).Msg("Readiness check failed")
			webutil.RespondWithJSON(w, http.StatusServiceUnavailable, readiness{Status: "unavailable"})
			return
		}
		webutil.RespondWithJSON(w, http.StatusOK, readiness{Status: "ok", Subscribers: &count})
	}
}
