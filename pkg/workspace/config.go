// Package workspace discovers ROS 2 packages across install spaces and
// source trees.
//
// An install space is a colcon/ament prefix laid out as
// <prefix>/share/<package>/package.xml. A source space is a workspace
// src tree discovered by walking for package.xml files. Install spaces
// always take priority over source spaces.
//
// The search configuration is an explicit value built once at the
// process boundary (see internal/config); the engine itself never
// reads environment variables, so independent configurations can
// coexist in one process and tests need no environment mutation.
package workspace

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rostree/rostree/pkg/errors"
)

// SearchConfig describes where packages are looked up.
type SearchConfig struct {
	// InstallPrefixes are colcon/ament install prefixes, in priority
	// order. Conventionally these come from AMENT_PREFIX_PATH followed
	// by COLCON_PREFIX_PATH.
	InstallPrefixes []string

	// WorkspaceRoots are explicit workspace paths. Each contributes its
	// src subdirectory if present, otherwise the path itself.
	WorkspaceRoots []string
}

// Validate checks the configuration for malformed entries. A malformed
// search path is the only error class that fails hard before any
// resolution begins; everything later degrades to per-node statuses.
func (c SearchConfig) Validate() error {
	for _, p := range append(append([]string{}, c.InstallPrefixes...), c.WorkspaceRoots...) {
		if strings.TrimSpace(p) == "" {
			return errors.New(errors.ErrCodeInvalidConfig, "empty search path entry")
		}
		if strings.ContainsRune(p, '\x00') {
			return errors.New(errors.ErrCodeInvalidConfig, "search path contains NUL: %q", p)
		}
	}
	return nil
}

// SourceRoots derives the source-space roots for this configuration,
// merged with extra roots supplied per call. Roots come from three
// places, in order:
//
//  1. Inferred: for every install prefix whose parent directory is
//     named "install" (a colcon output layout), the sibling src
//     directory of the same workspace.
//  2. Explicit: each WorkspaceRoots entry, taking its src
//     subdirectory when that exists.
//  3. Extra: per-call roots, same src rule.
//
// Duplicates are removed, first occurrence wins. Roots that do not
// exist on disk are dropped.
func (c SearchConfig) SourceRoots(extra []string) []string {
	var roots []string

	for _, prefix := range c.InstallPrefixes {
		parent := filepath.Dir(prefix)
		if filepath.Base(parent) != "install" {
			continue
		}
		src := filepath.Join(filepath.Dir(parent), "src")
		if isDir(src) {
			roots = append(roots, src)
		}
	}

	for _, root := range append(append([]string{}, c.WorkspaceRoots...), extra...) {
		if src := filepath.Join(root, "src"); isDir(src) {
			roots = append(roots, src)
		} else if isDir(root) {
			roots = append(roots, root)
		}
	}

	return dedupePaths(roots)
}

// dedupePaths removes duplicate paths, keeping first occurrences.
// Paths are compared in cleaned absolute form.
func dedupePaths(paths []string) []string {
	seen := make(map[string]bool, len(paths))
	out := paths[:0:0]
	for _, p := range paths {
		key := p
		if abs, err := filepath.Abs(p); err == nil {
			key = abs
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, p)
	}
	return out
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
