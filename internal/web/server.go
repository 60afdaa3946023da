package web

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/giftlink/backend/internal/config"
	"github.com/giftlink/backend/internal/metrics"
	"github.com/giftlink/backend/internal/web/handlers"
	"github.com/giftlink/backend/internal/web/middleware"
)

// GiftsPrefix is where the gift routes are mounted
const GiftsPrefix = "/api/gifts"

// Server represents the web server
type Server struct {
	port       int
	bind       string
	allowedNet *net.IPNet
	timeouts   *config.TimeoutConfig
	router     *chi.Mux
	handlers   *handlers.Handlers
	metrics    *metrics.Metrics
}

// NewServer creates a new web server
func NewServer(h *handlers.Handlers, m *metrics.Metrics, port int, bind string, allowedNet *net.IPNet) *Server {
	s := &Server{
		port:       port,
		bind:       bind,
		allowedNet: allowedNet,
		timeouts:   config.GetTimeouts(),
		router:     chi.NewRouter(),
		handlers:   h,
		metrics:    m,
	}

	s.setupRoutes()

	return s
}

// Router returns the configured router
func (s *Server) Router() http.Handler {
	return s.router
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	r := s.router

	r.Use(chimiddleware.RequestID)
	// AllowSubnet must come BEFORE RealIP so we check the actual connection source
	r.Use(middleware.AllowSubnet(s.allowedNet))
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger)
	if s.metrics != nil {
		r.Use(middleware.Metrics(s.metrics))
	}
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", s.handlers.Healthz)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler())
	}

	r.Group(func(r chi.Router) {
		r.Use(chimiddleware.Timeout(s.timeouts.Request))
		r.Mount(GiftsPrefix, s.handlers.GiftsRouter())
	})
}

// Addr returns the listen address
func (s *Server) Addr() string {
	if s.bind != "" {
		return net.JoinHostPort(s.bind, fmt.Sprint(s.port))
	}
	return fmt.Sprintf(":%d", s.port)
}

// Start serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	addr := s.Addr()

	server := &http.Server{
		Addr:        addr,
		Handler:     s.router,
		ReadTimeout: s.timeouts.HTTPRead,
		IdleTimeout: s.timeouts.HTTPIdle,
	}

	errChan := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("Shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.timeouts.Shutdown)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errChan:
		return err
	}
}
