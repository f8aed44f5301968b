package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"motocusto/internal/auth"
	applog "motocusto/internal/log"
	"motocusto/internal/middleware/ratelimit"
	"motocusto/internal/middleware/security"
	"motocusto/internal/middleware/trace"
	"motocusto/internal/services"
)

// Pinger is the readiness probe of the storage backend.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependencies are the services the handlers call.
type Dependencies struct {
	Store     Pinger
	Auth      *auth.Service
	Entries   *services.EntryService
	Dashboard *services.DashboardService
	Advice    *services.AdviceService
	Logger    *applog.Logger
}

// Options tunes the transport concerns around the handlers.
type Options struct {
	CORSAllowedOrigins []string
	RateLimit          ratelimit.Config
	TrustedProxies     []string
}

// Server wraps the standard http.Server with the API routes and the
// resources they own.
type Server struct {
	http.Server

	deps     Dependencies
	logger   *applog.Logger
	limiter  *ratelimit.Limiter
	clientIP *security.ClientIPResolver
	tracer   *trace.Middleware
	started  time.Time
	now      func() time.Time

	shutdownOnce sync.Once
}

// NewServer builds the router and returns a server listening on addr.
func NewServer(addr string, deps Dependencies, opts Options) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}

	s := &Server{
		deps:     deps,
		logger:   logger.WithComponent(applog.ComponentHTTP),
		limiter:  ratelimit.NewLimiter(opts.RateLimit),
		clientIP: security.NewClientIPResolver(),
		started:  time.Now(),
		now:      time.Now,
	}
	for _, cidr := range opts.TrustedProxies {
		if err := s.clientIP.AddTrustedProxy(cidr); err != nil {
			s.logger.Warn("Ignoring trusted proxy", applog.FieldError, err)
		}
	}
	s.tracer = trace.NewMiddleware(logger, s.clientIP.ClientIP)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.routes(opts),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *Server) routes(opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(s.tracer.Middleware)
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", trace.RequestIDHeader},
		ExposedHeaders:   []string{trace.RequestIDHeader, "Retry-After"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(s.limiter.Middleware(s.clientIP.ClientIP, true, func(w http.ResponseWriter, _ *http.Request) {
		TooManyRequestsError(w, "rate limit exceeded, try again later")
	}))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		NotFoundError(w, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		ErrorResponse(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", s.handleRegister)
		r.Post("/sign-in", s.handleSignIn)
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(s.deps.Auth.Middleware)

		r.Get("/settings", s.handleGetSettings)
		r.Put("/settings", s.handlePutSettings)

		r.Route("/entries", func(r chi.Router) {
			r.Get("/", s.handleListEntries)
			r.Post("/", s.handleCreateEntry)
			r.Get("/{id}", s.handleGetEntry)
			r.Put("/{id}", s.handleUpdateEntry)
			r.Delete("/{id}", s.handleDeleteEntry)
			r.Get("/{id}/breakdown", s.handleEntryBreakdown)
		})

		r.Get("/dashboard", s.handleDashboard)
		r.Get("/week", s.handleWeek)
		r.Post("/suggestions", s.handleSuggestions)
		r.Get("/export.xlsx", s.handleExport)
	})

	return r
}

// Shutdown stops accepting requests, waits for in-flight ones and releases
// the rate limiter. It is safe to call more than once.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.logger.InfoContext(ctx, "Shutting down HTTP server", applog.FieldOperation, applog.OpShutdown)
		err = s.Server.Shutdown(ctx)
		s.limiter.Stop()
	})
	return err
}
