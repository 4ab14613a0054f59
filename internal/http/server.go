// Package http exposes the JSON API.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"finanzas/internal/cache"
	applog "finanzas/internal/log"
	"finanzas/internal/middleware/ratelimit"
	"finanzas/internal/middleware/security"
	"finanzas/internal/services"
	"finanzas/internal/storage"
)

type Server struct {
	http.Server

	store     storage.Store
	svc       *services.TransactionService
	jwtSecret string
	tokenTTL  time.Duration

	limiter        *ratelimit.Limiter
	dashboardCache *cache.LRUCache[dashboardResponse]
	cacheManager   *cache.Manager
	shutdownOnce   sync.Once
}

// NewServer wires routes, middleware and caches into a ready-to-run server.
func NewServer(addr string, store storage.Store, svc *services.TransactionService, jwtSecret string, tokenTTL time.Duration, logger *applog.Logger) *Server {
	s := &Server{
		store:          store,
		svc:            svc,
		jwtSecret:      jwtSecret,
		tokenTTL:       tokenTTL,
		limiter:        ratelimit.NewLimiter(ratelimit.DefaultConfig()),
		dashboardCache: cache.NewLRUCache[dashboardResponse](200, 5*time.Minute),
		cacheManager:   cache.NewManager(),
	}
	s.cacheManager.Register(s.dashboardCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	writeLimit := s.limiter.Middleware(clientIPFrom, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "60")
		writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
	})

	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(applog.RequestLogger(logger))
	r.Use(security.Headers(security.DefaultHeadersConfig()))

	r.Get("/healthz", handleHealth)
	r.Get("/readyz", handleReady)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(writeLimit).Post("/signup", s.handleSignup)
			r.With(writeLimit).Post("/login", s.handleLogin)
		})

		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)

			r.Get("/transactions", s.handleListTransactions)
			r.With(writeLimit).Post("/transactions", s.handleCreateTransaction)
			r.With(writeLimit).Patch("/transactions/{id}", s.handleUpdateTransaction)
			r.With(writeLimit).Delete("/transactions/{id}", s.handleDeleteTransaction)

			r.Get("/categories", s.handleListCategories)
			r.With(writeLimit).Post("/categories", s.handleCreateCategory)

			r.Get("/summary", s.handleSummary)
			r.Get("/months", s.handleMonths)
			r.Get("/dashboard", s.handleDashboard)
		})
	})

	s.Server = http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s
}

// Shutdown stops background cleanup goroutines and the HTTP listener.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		if s.cacheManager != nil {
			s.cacheManager.Stop()
		}
		if s.limiter != nil {
			s.limiter.Stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

// invalidateDashboards drops every cached dashboard for the owner. Writes can
// move a transaction across months, so the whole owner scope goes.
func (s *Server) invalidateDashboards(owner string) {
	s.dashboardCache.DeletePrefix(owner + "|")
}

func dashboardCacheKey(owner, month string) string {
	return owner + "|" + month
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
