// Package http exposes the loan ledger and its interest summaries as a JSON API.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"lendx/internal/log"
	"lendx/internal/metrics"
	"lendx/internal/middleware/ratelimit"
	"lendx/internal/middleware/security"
	"lendx/internal/middleware/trace"
	"lendx/internal/services"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// Options configures optional server collaborators.
type Options struct {
	Metrics *metrics.Metrics
	Logger  *log.Logger
	// Ready backs /readyz; nil means always ready.
	Ready              func(context.Context) error
	RateLimitPerMinute int
	TrustedProxies     []string
}

type Server struct {
	http.Server
	svc      *services.LoanService
	ready    func(context.Context) error
	metrics  *metrics.Metrics
	logger   *log.Logger
	limiter  *ratelimit.Limiter
	detector *security.Detector

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run http.Server.
func NewServer(addr string, svc *services.LoanService, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig()).WithComponent(log.ComponentHTTP)
	}

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		svc:      svc,
		ready:    opts.Ready,
		metrics:  opts.Metrics,
		logger:   logger,
		limiter:  ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		detector: security.NewDetector(),
	}
	for _, cidr := range opts.TrustedProxies {
		if err := s.detector.AddTrustedProxy(cidr); err != nil {
			logger.Warn("Ignoring trusted proxy", "cidr", cidr, "error", err)
		}
	}

	s.Handler = s.routes()
	return s
}

func (s *Server) routes() http.Handler {
	tracer := trace.NewMiddleware(s.logger, s.metrics, s.detector.ExtractClientIP)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(log.Middleware(s.logger))
	r.Use(log.RequestIDMiddleware(trace.RequestID))
	r.Use(tracer.Handler)
	r.Use(middleware.Recoverer)
	r.Use(security.Headers(security.DefaultHeadersConfig()))
	r.Use(s.detector.Middleware)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(s.limiter.Middleware(s.detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
		}))
		r.Use(middleware.AllowContentType("application/json"))

		r.Get("/portfolio", s.handlePortfolio)

		r.Route("/borrowers", func(r chi.Router) {
			r.Get("/", s.handleListBorrowers)
			r.Post("/", s.handleCreateBorrower)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetBorrower)
				r.Patch("/", s.handleUpdateBorrower)
				r.Delete("/", s.handleDeleteBorrower)

				r.Get("/summary", s.handleSummary)
				r.Get("/statement", s.handleStatement)

				r.Post("/transactions", s.handleAddTransaction)
				r.Patch("/transactions/{tx}", s.handleUpdateTransaction)
				r.Delete("/transactions/{tx}", s.handleDeleteTransaction)
			})
		})
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.ready(ctx); err != nil {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", log.FieldError, err)
			writeError(w, http.StatusServiceUnavailable, "not ready")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// Shutdown stops the rate limiter and gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
