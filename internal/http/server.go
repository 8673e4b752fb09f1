package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"budgetviz/internal/log"
	"budgetviz/internal/middleware/ratelimit"
	"budgetviz/internal/middleware/security"
	"budgetviz/internal/middleware/trace"
	"budgetviz/internal/services"
)

const requestTimeout = 30 * time.Second

// Server is the JSON API over a BudgetService.
type Server struct {
	http.Server
	svc      *services.BudgetService
	logger   *log.Logger
	limiter  *ratelimit.Limiter
	detector *security.Detector
	ready    func(context.Context) error

	rateLimit    int
	shutdownOnce sync.Once
}

type ServerOption func(*Server)

// WithLogger sets the base request logger.
func WithLogger(l *log.Logger) ServerOption {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithReadiness makes /readyz run check, typically a store ping.
func WithReadiness(check func(context.Context) error) ServerOption {
	return func(s *Server) { s.ready = check }
}

// WithRateLimit caps mutating requests per client per minute.
func WithRateLimit(perMinute int) ServerOption {
	return func(s *Server) { s.rateLimit = perMinute }
}

// WithTrustedProxy trusts forwarded headers from peers in cidr.
func WithTrustedProxy(cidr string) ServerOption {
	return func(s *Server) {
		if err := s.detector.AddTrustedProxy(cidr); err != nil {
			s.logger.Warn("Ignoring trusted proxy", log.FieldError, err)
		}
	}
}

// NewServer wires routes and middleware, returning a ready-to-run server.
func NewServer(addr string, svc *services.BudgetService, opts ...ServerOption) *Server {
	s := &Server{
		svc:       svc,
		logger:    log.New(log.Config{Component: log.ComponentHTTP}),
		detector:  security.NewDetector(),
		rateLimit: ratelimit.DefaultConfig().RequestsPerMinute,
	}
	for _, opt := range opts {
		opt(s)
	}

	cfg := ratelimit.DefaultConfig()
	cfg.RequestsPerMinute = s.rateLimit
	s.limiter = ratelimit.NewLimiter(cfg)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(trace.Middleware(s.logger, s.detector.ExtractClientIP))
	r.Use(middleware.Recoverer)
	r.Use(s.detector.Middleware)
	r.Use(security.Headers(security.APIHeadersConfig()))

	r.Get("/healthz", handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Timeout(requestTimeout))
		r.Use(s.limiter.Middleware(s.detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
				log.FieldClientIP, s.detector.ExtractClientIP(r),
				log.FieldMethod, r.Method,
				log.FieldPath, r.URL.Path)
			TooManyRequestsError().Write(w)
		}))

		r.Get("/month", s.handleMonth)
		r.Post("/month/{direction}", s.handleNavigate)

		r.Post("/transactions", s.handleCreateTransaction)
		r.Get("/transactions/{id}", s.handleGetTransaction)
		r.Put("/transactions/{id}", s.handleEditTransaction)
		r.Delete("/transactions/{id}", s.handleDeleteTransaction)
		r.Get("/series/{id}", s.handleSeries)

		r.Get("/budget", s.handleGetBudget)
		r.Get("/budget/draft", s.handleBudgetDraft)
		r.Put("/budget", s.handleSaveBudget)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		NotFoundError("no such endpoint").Write(w)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		ErrorResponse(http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed").Write(w)
	})
	return r
}

// Shutdown stops the rate limiter and drains the HTTP server. Only the first
// call does any work.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		if err := s.ready(r.Context()); err != nil {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", log.FieldError, err)
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
