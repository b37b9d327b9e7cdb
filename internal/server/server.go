// Package server exposes the record store over a local HTTP API.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mcpdepot/mcpdepot/pkg/store"
)

const readTimeout = 30 * time.Second

// Server serves the HTTP API backed by a record store
type Server struct {
	store  *store.Store
	logger *slog.Logger
	router *chi.Mux
	server *http.Server
}

// NewServer creates a server bound to the given listen address
func NewServer(listen string, s *store.Store, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	srv := &Server{
		store:  s,
		logger: logger,
	}

	router := chi.NewRouter()
	router.Use(Recovery(logger))
	router.Use(Logger(logger))

	router.Get("/health", srv.handleHealth)

	router.Route("/api", func(r chi.Router) {
		r.Get("/mcps", srv.handleListMCPs)
		r.Post("/mcps", srv.handleAddMCP)
		r.Put("/mcps", srv.handleReplaceMCPs)
		r.Post("/mcps/import", srv.handleImportMCPs)
		r.Get("/mcps/export", srv.handleExportMCPs)
		r.Get("/mcps/{id}", srv.handleGetMCP)
		r.Put("/mcps/{id}", srv.handleUpdateMCP)
		r.Delete("/mcps/{id}", srv.handleDeleteMCP)
		r.Post("/mcps/{id}/toggle", srv.handleToggleMCP)
		r.Post("/mcps/{id}/duplicate", srv.handleDuplicateMCP)

		r.Get("/profiles", srv.handleListProfiles)
		r.Post("/profiles", srv.handleCreateProfile)
		r.Put("/profiles", srv.handleReplaceProfiles)
		r.Post("/profiles/import", srv.handleImportProfile)
		r.Get("/profiles/{id}", srv.handleGetProfile)
		r.Put("/profiles/{id}", srv.handleUpdateProfile)
		r.Delete("/profiles/{id}", srv.handleDeleteProfile)
		r.Post("/profiles/{id}/load", srv.handleLoadProfile)
		r.Get("/profiles/{id}/export", srv.handleExportProfile)

		r.Get("/settings", srv.handleGetSettings)
		r.Put("/settings", srv.handleUpdateSettings)

		r.Get("/backups", srv.handleListBackups)
		r.Post("/backups", srv.handleCreateBackup)
		r.Post("/backups/{id}/restore", srv.handleRestoreBackup)

		r.Get("/storage/info", srv.handleStorageInfo)
		r.Post("/storage/clear", srv.handleClearStorage)
	})

	srv.router = router
	srv.server = &http.Server{
		Addr:        listen,
		Handler:     router,
		ReadTimeout: readTimeout,
	}
	return srv
}

// Router returns the underlying handler, mainly for tests
func (s *Server) Router() http.Handler {
	return s.router
}

// Start begins serving. It blocks until the listener fails or Shutdown
// is called.
func (s *Server) Start() error {
	s.logger.Info("http api listening", "addr", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
}
