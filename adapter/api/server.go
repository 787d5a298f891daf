// Package api provides the HTTP API for the venturebridge platform.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/venturebridge/venturebridge/pkg/observability"
)

// Server is the platform HTTP server.
type Server struct {
	mux         *http.ServeMux
	server      *http.Server
	logger      *slog.Logger
	billing     *BillingHandler
	connections *ConnectionsHandler
	discovery   *DiscoveryHandler
	auth        *AuthMiddleware
	health      *observability.HealthRegistry
	registry    *prometheus.Registry
}

// ServerConfig holds configuration for the HTTP server.
type ServerConfig struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DefaultServerConfig returns the default server configuration.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:         "0.0.0.0:8080",
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// ServerDeps holds the handlers and middleware the server routes to.
type ServerDeps struct {
	Billing     *BillingHandler
	Connections *ConnectionsHandler
	Discovery   *DiscoveryHandler
	Auth        *AuthMiddleware
	Health      *observability.HealthRegistry
	Registry    *prometheus.Registry
	Logger      *slog.Logger
}

// NewServer creates the platform API server.
func NewServer(cfg ServerConfig, deps ServerDeps) *Server {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	s := &Server{
		mux:         http.NewServeMux(),
		logger:      deps.Logger,
		billing:     deps.Billing,
		connections: deps.Connections,
		discovery:   deps.Discovery,
		auth:        deps.Auth,
		health:      deps.Health,
		registry:    deps.Registry,
	}
	s.registerRoutes()

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.mux,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	if s.registry != nil {
		s.mux.Handle("GET /metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	}

	// Payment trust endpoints. The callback carries its own HMAC proof;
	// the webhook is provider-to-server. Neither goes through the user
	// auth stack.
	s.mux.HandleFunc("POST /api/v1/billing/callback", s.billing.HandleCallback)
	s.mux.HandleFunc("POST /api/v1/billing/webhook", s.billing.HandleWebhook)

	authed := s.auth.Authenticate
	gated := func(h http.HandlerFunc) http.HandlerFunc {
		return s.auth.Authenticate(s.auth.WithEntitlement(s.auth.RequireEntitlement(h)))
	}

	s.mux.HandleFunc("GET /api/v1/billing/plans", s.billing.ListPlans)
	s.mux.HandleFunc("POST /api/v1/billing/checkout", authed(s.billing.StartCheckout))
	s.mux.HandleFunc("POST /api/v1/subscriptions", authed(s.billing.Subscribe))
	s.mux.HandleFunc("GET /api/v1/subscriptions/me", authed(s.billing.GetMySubscription))

	// Discovery is visible to every authenticated caller; tier only
	// decides how much of it is unlocked, so no gate here.
	s.mux.HandleFunc("GET /api/v1/discovery", authed(s.auth.WithEntitlement(s.discovery.Browse)))
	s.mux.HandleFunc("POST /api/v1/ideas", authed(s.discovery.ListIdea))

	s.mux.HandleFunc("POST /api/v1/connections/requests", gated(s.connections.SendRequest))
	s.mux.HandleFunc("POST /api/v1/connections/requests/{requestID}/respond", gated(s.connections.RespondRequest))
	s.mux.HandleFunc("GET /api/v1/connections/requests", gated(s.connections.PendingInbox))
	s.mux.HandleFunc("GET /api/v1/connections/requests/sent", gated(s.connections.SentRequests))
	s.mux.HandleFunc("GET /api/v1/connections/requests/{requestID}", gated(s.connections.GetRequest))
	s.mux.HandleFunc("GET /api/v1/connections", gated(s.connections.ListConnections))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	code := http.StatusOK
	var checks map[string]observability.HealthCheckResult
	if s.health != nil {
		checks = s.health.Check(r.Context())
		for _, result := range checks {
			if result.Status != observability.HealthStatusHealthy {
				status = "unhealthy"
				code = http.StatusServiceUnavailable
				break
			}
		}
	}
	writeJSON(w, code, map[string]any{
		"status": status,
		"checks": checks,
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// Handler exposes the routing mux, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.Info("starting api server", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down api server")
	return s.server.Shutdown(ctx)
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode JSON response", "error", err)
		}
	}
}
