// Package web serves the rostree HTTP API. Endpoints mirror the CLI:
// package listing, dependency trees, and rendered graphs.
package web

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/rostree/rostree/pkg/cache"
	"github.com/rostree/rostree/pkg/errors"
	"github.com/rostree/rostree/pkg/tree"
	"github.com/rostree/rostree/pkg/workspace"
)

// Server exposes the discovery and tree engine over HTTP.
type Server struct {
	router    chi.Router
	finder    *workspace.Finder
	builder   *tree.Builder
	memo      *tree.Memo
	artifacts cache.Cache
	logger    *log.Logger
	scanRoots []string
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithArtifactCache sets the cache for rendered graph artifacts.
// Without it, every render runs graphviz.
func WithArtifactCache(c cache.Cache) ServerOption {
	return func(s *Server) { s.artifacts = c }
}

// WithLogger sets the request logger.
func WithLogger(l *log.Logger) ServerOption {
	return func(s *Server) { s.logger = l }
}

// WithScanRoots overrides the roots searched by the workspaces
// endpoint.
func WithScanRoots(roots []string) ServerOption {
	return func(s *Server) { s.scanRoots = roots }
}

// NewServer wires a server around a finder and its shared memo. The
// memo is what the watch integration invalidates when manifests
// change.
func NewServer(finder *workspace.Finder, memo *tree.Memo, opts ...ServerOption) *Server {
	s := &Server{
		finder:    finder,
		memo:      memo,
		artifacts: cache.NewNullCache(),
		logger:    log.Default(),
		scanRoots: workspace.DefaultScanRoots(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.builder = tree.NewBuilder(finder, tree.WithMemo(memo), tree.WithLogger(s.logger))
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(cors)

	r.Get("/healthz", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/packages", s.handlePackages)
		r.Get("/packages/sources", s.handleSources)
		r.Get("/tree/{name}", s.handleTree)
		r.Get("/graph/{name}", s.handleGraph)
		r.Get("/workspaces", s.handleWorkspaces)
	})
	return r
}

// Handler returns the root HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler { return s.router }

// Run serves on addr until ctx is canceled, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.logger.Info("http server listening", "addr", addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// writeJSON writes v with the given status. Encoding failures are
// logged, not surfaced; headers are already out.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encode response", "err", err)
	}
}

// writeError maps an error code to an HTTP status and emits a JSON
// error body.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch errors.GetCode(err) {
	case errors.ErrCodePackageNotFound, errors.ErrCodeNotFound, errors.ErrCodeWorkspaceNotFound:
		status = http.StatusNotFound
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidPackage, errors.ErrCodeInvalidFormat:
		status = http.StatusBadRequest
	}
	s.writeJSON(w, status, map[string]string{"error": errors.UserMessage(err)})
}
