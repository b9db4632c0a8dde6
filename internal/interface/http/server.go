// Package http serves the webhook endpoint the chat platform delivers
// events to, plus health and certificate lookup endpoints.
package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/hackathonweekly/checkin-hub/internal/interface/http/handlers"
)

// Config contains HTTP server configuration.
type Config struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DefaultConfig returns default server configuration.
func DefaultConfig() Config {
	return Config{
		Host:         "0.0.0.0",
		Port:         8080,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// Server is the HTTP transport for the bot.
type Server struct {
	config Config
	server *http.Server
	logger *slog.Logger
}

// NewServer wires the handlers into a server.
func NewServer(
	config Config,
	webhook *handlers.WebhookHandler,
	health *handlers.HealthHandler,
	certificates *handlers.CertificateHandler,
	logger *slog.Logger,
) *Server {
	mux := http.NewServeMux()
	mux.Handle("/webhook/event", webhook)
	mux.Handle("/health", health)
	mux.Handle("/api/v1/certificates", certificates)

	return &Server{
		config: config,
		logger: logger,
		server: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", config.Host, config.Port),
			Handler:      mux,
			ReadTimeout:  config.ReadTimeout,
			WriteTimeout: config.WriteTimeout,
			IdleTimeout:  config.IdleTimeout,
		},
	}
}

// Start begins serving. Blocks until the listener fails or Shutdown is
// called.
func (s *Server) Start() error {
	s.logger.Info("http server listening", slog.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
