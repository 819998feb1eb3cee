package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/mandatohub/mandato/internal/audit"
	"github.com/mandatohub/mandato/internal/handler"
	"github.com/mandatohub/mandato/internal/model"
	"github.com/mandatohub/mandato/internal/ratelimit"
	"github.com/mandatohub/mandato/internal/server/middleware"
	"github.com/mandatohub/mandato/internal/service"
	"github.com/mandatohub/mandato/internal/store"
)

// Config holds the HTTP server configuration.
type Config struct {
	Host            string
	Port            int
	ShutdownTimeout time.Duration
	CORSOrigins     []string

	// Per-API-key fixed-window limiter for the public capture API.
	RateLimitMax    int
	RateLimitWindow time.Duration

	// IP-keyed limit on the unauthenticated login/register endpoints.
	LoginRatePerMinute int

	// Queue depth of the async usage log writer.
	AuditBuffer int
}

// DefaultConfig returns a Config with sensible production defaults.
func DefaultConfig() Config {
	return Config{
		Host:               "0.0.0.0",
		Port:               8080,
		ShutdownTimeout:    30 * time.Second,
		CORSOrigins:        []string{"*"},
		RateLimitMax:       100,
		RateLimitWindow:    time.Minute,
		LoginRatePerMinute: 10,
		AuditBuffer:        256,
	}
}

// Server is the top-level HTTP server. It owns the Chi router, the store,
// the authentication service, the per-key rate limiter, and the async usage
// recorder.
type Server struct {
	cfg        Config
	router     chi.Router
	store      *store.Store
	authSvc    *service.AuthService
	limiter    *ratelimit.Limiter
	recorder   *audit.Recorder
	stopSweep  func()
	httpServer *http.Server
	logger     *slog.Logger
	closeOnce  sync.Once
}

// New creates a new Server, wires up all routes and middleware, and returns
// it ready to listen. Call ListenAndServe to start accepting connections,
// and Close to release the limiter janitor and audit worker.
func New(cfg Config, st *store.Store, authSvc *service.AuthService, logger *slog.Logger) *Server {
	s := &Server{
		cfg:      cfg,
		store:    st,
		authSvc:  authSvc,
		limiter:  ratelimit.New(cfg.RateLimitMax, cfg.RateLimitWindow),
		recorder: audit.NewRecorder(st, logger, cfg.AuditBuffer),
		logger:   logger,
	}
	s.stopSweep = s.limiter.StartJanitor(cfg.RateLimitWindow)
	s.setupRouter()
	return s
}

func (s *Server) setupRouter() {
	r := chi.NewRouter()

	// --- Global middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(s.logger))
	r.Use(middleware.Recover(s.logger))
	r.Use(chimw.RealIP)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposedHeaders:   []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(chimw.Compress(5))

	// --- Health checks (no auth required) ---
	r.Get("/healthz", s.handleHealthz)
	r.Get("/readyz", s.handleReadyz)

	authHandler := handler.NewAuthHandler(s.authSvc)
	userHandler := handler.NewUserHandler(s.store)
	keyHandler := handler.NewAPIKeyHandler(s.store, s.authSvc)
	contactHandler := handler.NewContactHandler(s.store)
	demandHandler := handler.NewDemandHandler(s.store)
	eventHandler := handler.NewEventHandler(s.store)
	publicHandler := handler.NewPublicHandler(s.store)

	// --- Staff API (session token auth) ---
	r.Route("/api/v1", func(r chi.Router) {

		// Unauthenticated entry points, throttled per IP.
		r.Group(func(r chi.Router) {
			r.Use(middleware.LoginRateLimit(s.cfg.LoginRatePerMinute))
			r.Post("/auth/register", authHandler.Register)
			r.Post("/auth/login", authHandler.Login)
		})

		// Everything below requires a valid session token. The role stored
		// in the token is advisory only: the middleware re-reads the user
		// record on every request.
		r.Group(func(r chi.Router) {
			r.Use(middleware.SessionAuth(s.authSvc))

			r.Get("/auth/me", authHandler.Me)

			// Admin-only management surface.
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(model.RoleAdmin))

				r.Get("/users", userHandler.List)
				r.Post("/users", userHandler.Create)
				r.Put("/users/{userId}/role", userHandler.UpdateRole)
				r.Put("/users/{userId}/permissions", userHandler.UpdatePermissions)
				r.Delete("/users/{userId}", userHandler.Delete)

				r.Get("/api-keys", keyHandler.List)
				r.Post("/api-keys", keyHandler.Create)
				r.Delete("/api-keys/{keyId}", keyHandler.Revoke)
				r.Get("/api-keys/{keyId}/usage", keyHandler.Usage)
			})

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequirePermission(model.PermContatos))
				r.Get("/contacts", contactHandler.List)
				r.Post("/contacts", contactHandler.Create)
				r.Get("/contacts/{contactId}", contactHandler.Get)
				r.Put("/contacts/{contactId}", contactHandler.Update)
				r.Delete("/contacts/{contactId}", contactHandler.Delete)
			})

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequirePermission(model.PermDemandas))
				r.Get("/demands", demandHandler.List)
				r.Post("/demands", demandHandler.Create)
				r.Get("/demands/{demandId}", demandHandler.Get)
				r.Put("/demands/{demandId}", demandHandler.Update)
				r.Patch("/demands/{demandId}/status", demandHandler.UpdateStatus)
				r.Delete("/demands/{demandId}", demandHandler.Delete)
			})

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequirePermission(model.PermAgenda))
				r.Get("/events", eventHandler.List)
				r.Post("/events", eventHandler.Create)
				r.Get("/events/{eventId}", eventHandler.Get)
				r.Put("/events/{eventId}", eventHandler.Update)
				r.Delete("/events/{eventId}", eventHandler.Delete)
			})

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequirePermission(model.PermCampanhas))
				r.Get("/leads", publicHandler.ListLeads)
			})
		})
	})

	// --- Public capture API (API key auth, per-key rate limit) ---
	r.Route("/api/public/v1", func(r chi.Router) {
		r.Use(middleware.APIKeyAuth(s.authSvc, s.limiter, s.recorder))

		r.Post("/leads", publicHandler.CreateLead)
		r.Post("/surveys/{surveySlug}/responses", publicHandler.CreateSurveyResponse)
	})

	s.router = r
}

// handleHealthz is a liveness probe. Returns 200 if the process is running.
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

// handleReadyz is a readiness probe. Returns 200 when the database is
// reachable, 503 otherwise.
func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	httpStatus := http.StatusOK
	checks := make(map[string]string)

	if err := s.store.Ping(r.Context()); err != nil {
		checks["database"] = "error: " + err.Error()
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["database"] = "ok"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status": status,
		"checks": checks,
	})
}

// ListenAndServe starts the HTTP server and blocks until a SIGINT or SIGTERM
// is received. It then performs a graceful shutdown, draining in-flight
// requests and flushing the usage log queue before returning.
func (s *Server) ListenAndServe() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "addr", addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server listen: %w", err)
	case <-ctx.Done():
		s.logger.Info("shutdown signal received, draining connections...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	s.Close()
	s.logger.Info("server stopped")
	return nil
}

// Close stops the limiter janitor and drains the usage log queue. Safe to
// call more than once.
func (s *Server) Close() {
	s.closeOnce.Do(func() {
		s.stopSweep()
		s.recorder.Close()
	})
}

// Router returns the underlying Chi router, useful for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// ServeHTTP implements http.Handler, delegating to the router.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
