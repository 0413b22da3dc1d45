// Package server provides the HTTP API for Tamesu.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/hyperjump/tamesu/internal/agent"
	"github.com/hyperjump/tamesu/internal/config"
	"github.com/hyperjump/tamesu/internal/embedding"
	"github.com/hyperjump/tamesu/internal/indexer"
	"github.com/hyperjump/tamesu/internal/kb"
	"github.com/hyperjump/tamesu/internal/storage"
	"github.com/hyperjump/tamesu/internal/vector"
)

// Server is the HTTP server for the Tamesu API.
type Server struct {
	kb           *kb.KnowledgeBase
	agent        *agent.Agent
	indexer      *indexer.Indexer
	storage      storage.Storage
	vector       vector.VectorIndex
	embedderKind embedding.Kind
	config       *config.Config
	logger       *zap.Logger
	server       *http.Server
}

// NewServer creates a server with the given dependencies.
func NewServer(
	kbase *kb.KnowledgeBase,
	agnt *agent.Agent,
	idx *indexer.Indexer,
	store storage.Storage,
	vecIdx vector.VectorIndex,
	embedderKind embedding.Kind,
	cfg *config.Config,
	logger *zap.Logger,
) *Server {
	return &Server{
		kb:           kbase,
		agent:        agnt,
		indexer:      idx,
		storage:      store,
		vector:       vecIdx,
		embedderKind: embedderKind,
		config:       cfg,
		logger:       logger,
	}
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	// Generation calls can run for minutes on a cold backend.
	r.Use(middleware.Timeout(180 * time.Second))
	r.Use(middleware.Compress(5))

	r.Get("/health", s.handleHealth)
	r.Get("/api/v1/status", s.handleStatus)
	r.Post("/api/v1/documents", s.handleUploadDocuments)
	r.Get("/api/v1/documents", s.handleListDocuments)
	r.Get("/api/v1/documents/{id}", s.handleGetDocument)
	r.Delete("/api/v1/documents/{id}", s.handleDeleteDocument)
	r.Post("/api/v1/kb/build", s.handleBuildKB)
	r.Post("/api/v1/kb/query", s.handleKBQuery)
	r.Post("/api/v1/testcases", s.handleGenerateTestCases)
	r.Post("/api/v1/scripts/selenium", s.handleGenerateSelenium)

	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: r,
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
