package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nikhilbhutani/scholarrag/internal/api/handlers"
	"github.com/nikhilbhutani/scholarrag/internal/api/middleware"
	"github.com/nikhilbhutani/scholarrag/internal/citation"
	"github.com/nikhilbhutani/scholarrag/internal/config"
	"github.com/nikhilbhutani/scholarrag/internal/observability"
	"github.com/nikhilbhutani/scholarrag/internal/rag"
)

type Router struct {
	mux      *chi.Mux
	cfg      *config.Config
	store    *rag.Store
	matcher  *citation.Matcher
	enqueuer handlers.Enqueuer
	checks   []handlers.Check
	limiter  *middleware.RateLimiter
}

// NewRouter wires the HTTP surface. enqueuer may be nil, in which case the
// async ingestion route answers 503.
func NewRouter(cfg *config.Config, store *rag.Store, enqueuer handlers.Enqueuer, checks ...handlers.Check) *Router {
	return &Router{
		mux:      chi.NewRouter(),
		cfg:      cfg,
		store:    store,
		matcher:  citation.NewMatcher(store, citation.WithThreshold(cfg.Search.CitationThreshold), citation.WithTopK(cfg.Search.CitationTopK)),
		enqueuer: enqueuer,
		checks:   checks,
	}
}

func (rt *Router) Setup() http.Handler {
	r := rt.mux

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging)
	r.Use(chimiddleware.Recoverer)
	r.Use(observability.MetricsMiddleware)
	r.Use(middleware.CORS(rt.cfg.Server.CORSOrigins))

	if rt.cfg.Server.RateLimitRPS > 0 {
		rt.limiter = middleware.NewRateLimiter(float64(rt.cfg.Server.RateLimitRPS), rt.cfg.Server.RateLimitBurst)
		r.Use(rt.limiter.Limit)
	}

	health := handlers.NewHealthHandler(rt.checks...)
	r.Get("/healthz", health.Healthz)
	r.Get("/readyz", health.Readyz)
	r.Handle("/metrics", promhttp.Handler())

	paperH := handlers.NewPaperHandler(rt.store, rt.enqueuer, rt.cfg.Server.MaxUploadMB)
	searchH := handlers.NewSearchHandler(rt.store, rt.matcher, handlers.SearchDefaults{
		K:       rt.cfg.Search.DefaultK,
		KFine:   rt.cfg.Search.DefaultKFine,
		KCoarse: rt.cfg.Search.DefaultKCoarse,
	})
	collectionH := handlers.NewCollectionHandler(rt.store)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/papers", func(r chi.Router) {
			r.Post("/", paperH.Ingest)
			r.Post("/upload", paperH.Upload)
			r.Post("/async", paperH.Enqueue)
		})

		r.Route("/search", func(r chi.Router) {
			r.Post("/", searchH.Search)
			r.Post("/fine", searchH.SearchFine)
			r.Post("/coarse", searchH.SearchCoarse)
		})
		r.Post("/suggest-citation", searchH.SuggestCitation)

		r.Route("/collections", func(r chi.Router) {
			r.Get("/stats", collectionH.Stats)
			r.Get("/{granularity}/chunks", collectionH.ListChunks)
			r.Delete("/", collectionH.DeleteAll)
		})
	})

	return r
}

// Close stops background work owned by the router.
func (rt *Router) Close() {
	if rt.limiter != nil {
		rt.limiter.Stop()
	}
}
