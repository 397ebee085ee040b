package workspace

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
)

// DefaultScanDepth is how deep ScanWorkspaces recurses below each root.
const DefaultScanDepth = 4

// WorkspaceInfo describes one discovered ROS 2 workspace.
type WorkspaceInfo struct {
	Path       string   `json:"path"`
	HasSrc     bool     `json:"has_src"`
	HasInstall bool     `json:"has_install"`
	HasBuild   bool     `json:"has_build"`
	Packages   []string `json:"packages"`
}

// Valid reports whether the directory looks like a usable workspace.
func (w WorkspaceInfo) Valid() bool {
	return w.HasSrc || w.HasInstall
}

// ScanOptions configures a workspace scan.
type ScanOptions struct {
	// MaxDepth limits recursion below each scan root; zero uses
	// DefaultScanDepth.
	MaxDepth int
	// Logger receives skipped-entry diagnostics; nil uses the default.
	Logger *log.Logger
}

// DefaultScanRoots returns the conventional places workspaces live:
// well-known directories under the home directory plus the installed
// ROS distributions under /opt/ros.
func DefaultScanRoots() []string {
	var roots []string

	if home, err := os.UserHomeDir(); err == nil {
		for _, pattern := range []string{"ros*_ws", "catkin_ws", "colcon_ws", "*_ws"} {
			if matches, err := filepath.Glob(filepath.Join(home, pattern)); err == nil {
				roots = append(roots, matches...)
			}
		}
		for _, sub := range []string{"dev", "src", "projects", "workspace", "workspaces"} {
			if candidate := filepath.Join(home, sub); isDir(candidate) {
				roots = append(roots, candidate)
			}
		}
	}

	if entries, err := os.ReadDir("/opt/ros"); err == nil {
		for _, e := range entries {
			if e.IsDir() {
				roots = append(roots, filepath.Join("/opt/ros", e.Name()))
			}
		}
	}

	return dedupePaths(roots)
}

// ScanWorkspaces searches the given roots for ROS 2 workspaces: any
// directory with a src, install, or share layout. Scanning does not
// descend into a discovered workspace. Unreadable directories are
// skipped; partial results are preferable to aborting the scan.
func ScanWorkspaces(roots []string, opts ScanOptions) []WorkspaceInfo {
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultScanDepth
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}

	var found []WorkspaceInfo
	seen := make(map[string]bool)

	var scan func(dir string, depth int)
	scan = func(dir string, depth int) {
		if depth > opts.MaxDepth || !isDir(dir) {
			return
		}
		if ws, ok := inspectWorkspace(dir, seen); ok {
			found = append(found, ws)
			return
		}
		entries, err := os.ReadDir(dir)
		if err != nil {
			opts.Logger.Debug("skipping unreadable directory", "path", dir, "err", err)
			return
		}
		for _, e := range entries {
			if e.IsDir() && !strings.HasPrefix(e.Name(), ".") {
				scan(filepath.Join(dir, e.Name()), depth+1)
			}
		}
	}

	for _, root := range dedupePaths(roots) {
		scan(root, 0)
	}
	return found
}

// inspectWorkspace checks whether dir is a workspace root and, if so,
// enumerates its packages.
func inspectWorkspace(dir string, seen map[string]bool) (WorkspaceInfo, bool) {
	key := dir
	if abs, err := filepath.Abs(dir); err == nil {
		key = abs
	}
	if seen[key] {
		return WorkspaceInfo{}, false
	}

	hasSrc := isDir(filepath.Join(dir, "src"))
	hasInstall := isDir(filepath.Join(dir, "install"))
	hasShare := isDir(filepath.Join(dir, "share")) // /opt/ros distro layout
	if !hasSrc && !hasInstall && !hasShare {
		return WorkspaceInfo{}, false
	}
	seen[key] = true

	ws := WorkspaceInfo{
		Path:       key,
		HasSrc:     hasSrc,
		HasInstall: hasInstall || hasShare,
		HasBuild:   isDir(filepath.Join(dir, "build")),
	}

	// Enumerate via the same finder machinery the engine uses.
	f := &Finder{logger: log.Default()}
	switch {
	case hasSrc:
		names := make(map[string]bool)
		f.walkSource(filepath.Join(dir, "src"), func(name, _ string) {
			names[name] = true
		})
		for name := range names {
			ws.Packages = append(ws.Packages, name)
		}
	case hasShare:
		for name := range f.listPrefix(dir) {
			ws.Packages = append(ws.Packages, name)
		}
	default:
		prefixes, _ := filepath.Glob(filepath.Join(dir, "install", "*"))
		names := make(map[string]bool)
		for _, prefix := range prefixes {
			for name := range f.listPrefix(prefix) {
				names[name] = true
			}
		}
		// Merged-install layout keeps share directly under install.
		for name := range f.listPrefix(filepath.Join(dir, "install")) {
			names[name] = true
		}
		for name := range names {
			ws.Packages = append(ws.Packages, name)
		}
	}

	sort.Strings(ws.Packages)
	return ws, true
}
