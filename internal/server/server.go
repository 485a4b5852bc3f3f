// Package server provides the HTTP and WebSocket API for gyojeong.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/hyperjump/gyojeong/internal/config"
	"github.com/hyperjump/gyojeong/internal/models"
)

// Version is reported by the root endpoint.
const Version = "1.0.0"

// ChatService runs chat turns and reads history.
type ChatService interface {
	Turn(ctx context.Context, req models.TurnRequest) (*models.TurnResponse, error)
	StreamTurn(ctx context.Context, req models.TurnRequest, emit func(models.StreamEvent) error) error
	History(ctx context.Context, sessionID string, limit int) ([]*models.HistoryEntry, error)
}

// ReadinessChecker reports whether the retrieval index can serve queries.
type ReadinessChecker interface {
	Ready() error
}

// Server is the HTTP server for the gyojeong API.
type Server struct {
	chat      ChatService
	readiness ReadinessChecker
	config    *config.ServerConfig
	dataPaths []string
	logger    *zap.Logger
	server    *http.Server
}

// Option configures a Server.
type Option func(*Server)

// WithDataPaths sets the files and directories whose size /health reports.
func WithDataPaths(paths ...string) Option {
	return func(s *Server) { s.dataPaths = paths }
}

// NewServer creates a server with the given dependencies. readiness may be nil.
func NewServer(chat ChatService, readiness ReadinessChecker, cfg *config.ServerConfig, logger *zap.Logger, opts ...Option) *Server {
	s := &Server{
		chat:      chat,
		readiness: readiness,
		config:    cfg,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	return s
}

// Handler returns the router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// WebSocket connections are long-lived; keep them out of the timeout group.
	r.Get("/api/ws/chat", s.handleChatWebSocket)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(120 * time.Second))
		r.Use(middleware.Compress(5))

		r.Get("/", s.handleRoot)
		r.Get("/health", s.handleHealth)
		r.Get("/ready", s.handleReady)
		r.Handle("/metrics", promhttp.Handler())

		r.Post("/api/chat", s.handleChat)
		r.Get("/api/chat/history/{session_id}", s.handleHistory)
	})
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
