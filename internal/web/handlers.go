package web

import (
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/rostree/rostree/pkg/cache"
	"github.com/rostree/rostree/pkg/errors"
	"github.com/rostree/rostree/pkg/graph"
	"github.com/rostree/rostree/pkg/tree"
	"github.com/rostree/rostree/pkg/workspace"
)

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handlePackages lists every discoverable package name.
func (s *Server) handlePackages(w http.ResponseWriter, _ *http.Request) {
	all := s.finder.ListAll()
	names := make([]string, 0, len(all))
	for name := range all {
		names = append(names, name)
	}
	sort.Strings(names)
	s.writeJSON(w, http.StatusOK, map[string]any{
		"count":    len(names),
		"packages": names,
	})
}

// handleSources lists packages grouped by where they were found.
func (s *Server) handleSources(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"sources": s.finder.ListBySource(nil),
	})
}

// handleTree builds and returns the dependency tree for one package.
// An unknown root is a 404; unresolved inner dependencies are part of
// the tree, not errors.
func (s *Server) handleTree(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	opts, err := treeOptions(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	root := s.builder.Build(r.Context(), name, opts)
	if root.Status == tree.StatusNotFound {
		s.writeError(w, errors.New(errors.ErrCodePackageNotFound,
			"package '%s' not found", name))
		return
	}
	s.writeJSON(w, http.StatusOK, root)
}

// handleGraph returns the flattened graph for one package in the
// requested format: json (default), dot, mermaid, svg, or png.
// Rendered formats go through the artifact cache.
func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "json"
	}

	opts, err := treeOptions(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	root := s.builder.Build(r.Context(), name, opts)
	if root.Status == tree.StatusNotFound {
		s.writeError(w, errors.New(errors.ErrCodePackageNotFound,
			"package '%s' not found", name))
		return
	}
	g := graph.FromTree(root)

	switch format {
	case "json":
		s.writeJSON(w, http.StatusOK, g)
	case "dot":
		w.Header().Set("Content-Type", "text/vnd.graphviz")
		_, _ = w.Write([]byte(graph.ToDOT(g, graph.DOTOptions{})))
	case "mermaid":
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte(graph.ToMermaid(g)))
	case "svg", "png":
		dot := graph.ToDOT(g, graph.DOTOptions{})
		key := cache.ArtifactKey(format, cache.Hash([]byte(dot)))

		if data, ok, cacheErr := s.artifacts.Get(r.Context(), key); cacheErr == nil && ok {
			w.Header().Set("Content-Type", contentType(format))
			_, _ = w.Write(data)
			return
		}

		var data []byte
		var renderErr error
		if format == "svg" {
			data, renderErr = graph.RenderSVG(r.Context(), dot)
		} else {
			data, renderErr = graph.RenderPNG(r.Context(), dot)
		}
		if renderErr != nil {
			s.writeError(w, renderErr)
			return
		}
		if err := s.artifacts.Set(r.Context(), key, data, cache.DefaultTTL); err != nil {
			s.logger.Warn("artifact cache write failed", "err", err)
		}
		w.Header().Set("Content-Type", contentType(format))
		_, _ = w.Write(data)
	default:
		s.writeError(w, errors.New(errors.ErrCodeInvalidFormat,
			"unsupported format %q", format))
	}
}

// handleWorkspaces scans for colcon workspaces on the host.
func (s *Server) handleWorkspaces(w http.ResponseWriter, _ *http.Request) {
	found := workspace.ScanWorkspaces(s.scanRoots, workspace.ScanOptions{Logger: s.logger})
	s.writeJSON(w, http.StatusOK, map[string]any{
		"count":      len(found),
		"workspaces": found,
	})
}

// treeOptions parses the shared tree-shaping query parameters.
func treeOptions(r *http.Request) (tree.Options, error) {
	q := r.URL.Query()
	opts := tree.Options{Filter: tree.FilterFull}

	if v := q.Get("max_depth"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return opts, errors.New(errors.ErrCodeInvalidInput,
				"max_depth must be a non-negative integer")
		}
		opts.MaxDepth = n
	}
	if v := q.Get("max_nodes"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return opts, errors.New(errors.ErrCodeInvalidInput,
				"max_nodes must be a positive integer")
		}
		opts.MaxNodes = n
	}
	if boolParam(q.Get("runtime_only")) {
		opts.Filter = tree.FilterRuntime
	}
	opts.IncludeBuildTool = boolParam(q.Get("include_buildtool"))
	opts.Refresh = boolParam(q.Get("refresh"))
	return opts, nil
}

func boolParam(v string) bool {
	switch strings.ToLower(v) {
	case "1", "true", "yes":
		return true
	}
	return false
}

func contentType(format string) string {
	if format == "png" {
		return "image/png"
	}
	return "image/svg+xml"
}
