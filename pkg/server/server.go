package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/carlosbarrancotena/practica5/pkg/config"
	"github.com/carlosbarrancotena/practica5/pkg/logging"
	"github.com/carlosbarrancotena/practica5/pkg/middleware"
	"github.com/carlosbarrancotena/practica5/pkg/monitoring"
)

// Config represents server configuration
type Config struct {
	Host            string
	Port            string
	ServiceName     string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// DefaultConfig returns default server configuration. The port is taken as
// given; it is not overridable from the environment.
func DefaultConfig(serviceName, port string) Config {
	return Config{
		Port:            port,
		ServiceName:     serviceName,
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    30 * time.Second,
		IdleTimeout:     120 * time.Second,
		ShutdownTimeout: 30 * time.Second,
	}
}

// SetupRouterWithService creates a Gin router with common middleware
func SetupRouterWithService(logger logging.Logger, serviceName string) *gin.Engine {
	if config.GetEnv("GIN_MODE", "debug") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware(logger))
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.CORSMiddleware())

	return router
}

// SetupServiceRouter creates a router with common middleware plus the
// /health and /metrics endpoints backed by the given monitors.
func SetupServiceRouter(logger logging.Logger, serviceName string, hc *monitoring.HealthChecker, mc *monitoring.MetricsCollector) *gin.Engine {
	router := SetupRouterWithService(logger, serviceName)

	if mc != nil {
		router.Use(mc.MetricsMiddleware())
		router.GET("/metrics", mc.Handler())
	}

	if hc != nil {
		router.GET("/health", hc.Handler())
	} else {
		router.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": monitoring.StatusHealthy, "service": serviceName})
		})
	}

	return router
}

// State is the lifecycle state of a Server
type State int

const (
	StateStarting State = iota
	StateServing
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateStarting:
		return "starting"
	case StateServing:
		return "serving"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Server owns one HTTP listener. It moves from Starting to Serving once the
// socket is bound and to Stopped after Shutdown.
type Server struct {
	cfg     Config
	logger  logging.Logger
	httpSrv *http.Server

	mu       sync.RWMutex
	state    State
	listener net.Listener
	ready    chan struct{}
}

// New creates a server for handler. Nothing is bound until Listen or Run.
func New(cfg Config, handler http.Handler, logger logging.Logger) *Server {
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}
	return &Server{
		cfg:    cfg,
		logger: logger,
		httpSrv: &http.Server{
			Handler:      handler,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  cfg.IdleTimeout,
		},
		state: StateStarting,
		ready: make(chan struct{}),
	}
}

// Listen binds the listener and moves the server to Serving.
func (s *Server) Listen() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateStarting {
		return fmt.Errorf("server is %s, cannot listen", s.state)
	}

	ln, err := net.Listen("tcp", net.JoinHostPort(s.cfg.Host, s.cfg.Port))
	if err != nil {
		return fmt.Errorf("bind %s:%s: %w", s.cfg.Host, s.cfg.Port, err)
	}
	s.listener = ln
	s.state = StateServing
	close(s.ready)

	s.logger.WithFields(logging.Fields{
		"service": s.cfg.ServiceName,
		"url":     listenURL(ln.Addr()),
	}).Infof("GraphQL server ready at %s", listenURL(ln.Addr()))
	return nil
}

// Serve blocks serving requests on the bound listener.
func (s *Server) Serve() error {
	s.mu.RLock()
	ln := s.listener
	s.mu.RUnlock()
	if ln == nil {
		return errors.New("server is not listening")
	}

	if err := s.httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}

// Run binds, serves, and shuts down gracefully once ctx is done.
func (s *Server) Run(ctx context.Context) error {
	if err := s.Listen(); err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() { errCh <- s.Serve() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.WithField("service", s.cfg.ServiceName).Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	if err := s.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	if err := <-errCh; err != nil {
		return err
	}

	s.logger.WithField("service", s.cfg.ServiceName).Info("Server stopped")
	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	if s.state == StateStopped {
		s.mu.Unlock()
		return nil
	}
	s.state = StateStopped
	s.mu.Unlock()

	return s.httpSrv.Shutdown(ctx)
}

// State returns the current lifecycle state.
func (s *Server) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Ready is closed once the listener is bound.
func (s *Server) Ready() <-chan struct{} {
	return s.ready
}

// URL returns the resolved listen URL, or "" before Listen.
func (s *Server) URL() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener == nil {
		return ""
	}
	return listenURL(s.listener.Addr())
}

// Start runs the server until SIGINT or SIGTERM.
func Start(cfg Config, router *gin.Engine, logger logging.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return New(cfg, router, logger).Run(ctx)
}

func listenURL(addr net.Addr) string {
	host, port, err := net.SplitHostPort(addr.String())
	if err != nil {
		return "http://" + addr.String() + "/"
	}
	if ip := net.ParseIP(host); host == "" || (ip != nil && ip.IsUnspecified()) {
		host = "localhost"
	}
	return "http://" + net.JoinHostPort(host, port) + "/"
}
