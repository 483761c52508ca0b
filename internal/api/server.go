package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"

	"github.com/ramonehamilton/OPTCG-Meta/internal/api/handlers"
	"github.com/ramonehamilton/OPTCG-Meta/internal/config"
	"github.com/ramonehamilton/OPTCG-Meta/internal/logger"
	"github.com/ramonehamilton/OPTCG-Meta/internal/metrics"
)

// Store is the persistence surface the routes read from.
type Store interface {
	handlers.LeaderStore
	handlers.DeckStore
	handlers.MatchupStore
	handlers.CardStore
}

// Views is the metagame surface the routes compute derived views with.
type Views interface {
	handlers.TierListView
	handlers.DeckView
	handlers.MatchupView
	handlers.CardView
	handlers.PriceView
}

// Pinger reports whether the database is reachable.
type Pinger interface {
	Ping() error
}

// Deps holds everything the server routes to.
type Deps struct {
	Store   Store
	Views   Views
	DB      Pinger
	Metrics *metrics.Metrics // nil disables /metrics and request instrumentation
	Logger  *logger.Logger
	Prices  handlers.PriceDefaults
}

// Server represents the REST API server.
type Server struct {
	router     *chi.Mux
	httpServer *http.Server
	port       int
	cfg        *Config

	deps    Deps
	log     *logger.Logger
	limiter *rate.Limiter
}

// Config holds configuration for the API server.
type Config struct {
	Port           int
	RequestTimeout time.Duration
	AllowedOrigins []string
	RateLimitRPS   float64 // 0 disables rate limiting
	RateLimitBurst int
}

// DefaultConfig returns the default API server configuration.
func DefaultConfig() *Config {
	return &Config{
		Port:           8000,
		RequestTimeout: 30 * time.Second,
		AllowedOrigins: []string{"http://localhost:*", "http://127.0.0.1:*"},
		RateLimitRPS:   20,
		RateLimitBurst: 40,
	}
}

// ConfigFromSettings converts the [server] section of the configuration file.
func ConfigFromSettings(s config.ServerConfig) (*Config, error) {
	timeout, err := time.ParseDuration(s.RequestTimeout)
	if err != nil {
		return nil, fmt.Errorf("invalid request timeout %q: %w", s.RequestTimeout, err)
	}
	return &Config{
		Port:           s.Port,
		RequestTimeout: timeout,
		AllowedOrigins: s.AllowedOrigins,
		RateLimitRPS:   s.RateLimitRPS,
		RateLimitBurst: s.RateLimitBurst,
	}, nil
}

// NewServer creates a new API server.
func NewServer(cfg *Config, deps Deps) *Server {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if deps.Logger == nil {
		deps.Logger = logger.Nop()
	}
	if deps.Prices == (handlers.PriceDefaults{}) {
		deps.Prices = handlers.DefaultPriceDefaults()
	}

	s := &Server{
		router: chi.NewRouter(),
		port:   cfg.Port,
		cfg:    cfg,
		deps:   deps,
		log:    deps.Logger.With("component", "api"),
	}
	if cfg.RateLimitRPS > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// setupMiddleware configures the middleware stack.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.requestLogger)
	s.router.Use(middleware.Recoverer)

	if s.deps.Metrics != nil {
		s.router.Use(s.instrument)
	}

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	if s.limiter != nil {
		s.router.Use(s.rateLimit)
	}

	if s.cfg.RequestTimeout > 0 {
		s.router.Use(middleware.Timeout(s.cfg.RequestTimeout))
	}
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start binds the listener and serves in a goroutine. Bind errors are returned.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.port))
	if err != nil {
		return fmt.Errorf("failed to listen on port %d: %w", s.port, err)
	}

	s.httpServer = &http.Server{
		Handler:           s.router,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      s.cfg.RequestTimeout + 30*time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		s.log.Info("API server starting", "port", s.port)
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}

	s.log.Info("shutting down API server")
	return s.httpServer.Shutdown(ctx)
}

// Port returns the port the server is configured to listen on.
func (s *Server) Port() int {
	return s.port
}
