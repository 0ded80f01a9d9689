package http

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"
)

// Server is the HTTP front-end: prediction API, form page, training
// endpoint and websocket.
type Server struct {
	server *http.Server
	config ServerConfig
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port           int
	Timeout        time.Duration
	MaxRequestSize int64
	AllowedOrigins []string
}

// DefaultServerConfig returns the serving defaults.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Port:           8080,
		Timeout:        30 * time.Second,
		MaxRequestSize: 16 << 20,
		AllowedOrigins: []string{"*"},
	}
}

// NewServer wires all handlers and the middleware chain.
func NewServer(config ServerConfig, training *TrainingManager) *Server {
	mux := http.NewServeMux()

	RegisterPredictHandlers(mux)
	RegisterOptionsHandlers(mux)
	RegisterFormHandler(mux)
	if training != nil {
		training.RegisterTrainingHandlers(mux)
	}

	chain := Chain(
		RecoveryMiddleware,
		LoggerMiddleware,
		SecurityHeadersMiddleware,
		CORSMiddleware(config.AllowedOrigins),
		TimeoutMiddleware(config.Timeout),
		RequestSizeMiddleware(config.MaxRequestSize),
	)

	return &Server{
		server: &http.Server{
			Addr:         fmt.Sprintf(":%d", config.Port),
			Handler:      chain(mux),
			ReadTimeout:  config.Timeout,
			WriteTimeout: config.Timeout,
			IdleTimeout:  120 * time.Second,
		},
		config: config,
	}
}

// Start blocks serving requests until Stop.
func (s *Server) Start() error {
	log.Printf("starting HTTP server on %s", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// Stop shuts the server down gracefully.
func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	log.Println("shutting down HTTP server...")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	return nil
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return s.server.Addr
}
