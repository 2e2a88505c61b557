// Package http exposes the budget ledger as a JSON API.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"tally/internal/cache"
	"tally/internal/config"
	"tally/internal/core"
	"tally/internal/ledger"
	"tally/internal/log"
	"tally/internal/services"
)

type Server struct {
	http.Server

	budget *services.BudgetService
	store  *ledger.Store
	logger *log.Logger

	rateLimiter *rateLimiter

	// Month views are recomputed on every ledger change; between changes the
	// LRU answers repeated dashboard polls.
	balanceCache *cache.LRUCache[core.MonthBalance]
	summaryCache *cache.LRUCache[[]core.CategorySummary]
	cacheManager *cache.Manager

	started      time.Time
	shutdownOnce sync.Once
}

// NewServer configures routes and caches, returning a ready-to-run server.
func NewServer(cfg *config.Config, budget *services.BudgetService, store *ledger.Store, logger *log.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:              ":" + cfg.Port,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
		budget:       budget,
		store:        store,
		logger:       logger.WithComponent(log.ComponentHTTP),
		rateLimiter:  newRateLimiter(),
		balanceCache: cache.NewLRUCache[core.MonthBalance](cfg.SummaryCacheSize, cfg.SummaryCacheTTL),
		summaryCache: cache.NewLRUCache[[]core.CategorySummary](cfg.SummaryCacheSize, cfg.SummaryCacheTTL),
		cacheManager: cache.NewManager(),
		started:      time.Now(),
	}

	s.cacheManager.Register(s.balanceCache)
	s.cacheManager.Register(s.summaryCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /api/transactions", s.withAPI(s.handleListTransactions))
	mux.HandleFunc("POST /api/transactions", s.withAPI(s.handleCreateTransaction))
	mux.HandleFunc("PUT /api/transactions/{id}", s.withAPI(s.handleUpdateTransaction))
	mux.HandleFunc("DELETE /api/transactions/{id}", s.withAPI(s.handleDeleteTransaction))
	mux.HandleFunc("GET /api/transactions/search", s.withAPI(s.handleSearch))

	mux.HandleFunc("GET /api/months/balance", s.withAPI(s.handleMonthBalance))
	mux.HandleFunc("GET /api/months/categories", s.withAPI(s.handleMonthCategories))

	mux.HandleFunc("DELETE /api/series/{id}/occurrence", s.withAPI(s.handleDeleteOccurrence))
	mux.HandleFunc("DELETE /api/series/{id}/onward", s.withAPI(s.handleDeleteOnward))
	mux.HandleFunc("DELETE /api/series/{id}", s.withAPI(s.handleDeleteSeries))
	mux.HandleFunc("PUT /api/series/{id}/occurrence", s.withAPI(s.handleEditOccurrence))
	mux.HandleFunc("PUT /api/series/{id}/onward", s.withAPI(s.handleEditOnward))
	mux.HandleFunc("PUT /api/series/{id}", s.withAPI(s.handleEditSeries))

	mux.HandleFunc("GET /api/categories", s.withAPI(s.handleListCategories))
	mux.HandleFunc("POST /api/categories", s.withAPI(s.handleCreateCategory))
	mux.HandleFunc("PUT /api/categories/{id}", s.withAPI(s.handleUpdateCategory))
	mux.HandleFunc("DELETE /api/categories/{id}", s.withAPI(s.handleDeleteCategory))

	mux.HandleFunc("GET /api/export/csv", s.withAPI(s.handleExportCSV))
	mux.HandleFunc("POST /api/import/csv", s.withAPI(s.handleImportCSV))

	mux.HandleFunc("POST /api/reset", s.withAPI(s.handleReset))
	mux.HandleFunc("POST /api/reconcile", s.withAPI(s.handleReconcile))

	return s
}

// withAPI adds security headers, rate limiting and request logging.
func (s *Server) withAPI(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ip := clientIP(r)
		if !s.rateLimiter.allow(ip) {
			s.logger.Warn("rate limit exceeded", "client_ip", ip, "path", r.URL.Path)
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Cache-Control", "no-store")

		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		r = r.WithContext(ctx)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(rec, r)

		s.logger.InfoContext(ctx, "request completed",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
			"client_ip", ip)
	}
}

// invalidateMonthCaches drops all cached month views after a mutation.
// Recurring expansion can touch months far from the one edited, so selective
// invalidation is not worth the bookkeeping.
func (s *Server) invalidateMonthCaches() {
	s.balanceCache.Purge()
	s.summaryCache.Purge()
}

// Shutdown stops background cleanup and drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.rateLimiter.stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
