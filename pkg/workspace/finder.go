package workspace

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/rostree/rostree/pkg/errors"
	"github.com/rostree/rostree/pkg/manifest"
)

// manifestFile is the conventional manifest filename.
const manifestFile = "package.xml"

// Finder locates package manifests across the configured search spaces.
// Install prefixes are probed first in configuration order; source
// roots are walked only when no install-space match exists.
//
// Finder is safe for concurrent use: it holds no mutable state and
// treats the filesystem as read-only.
type Finder struct {
	cfg    SearchConfig
	logger *log.Logger

	// fallback is the optional tertiary resolution strategy consulted
	// when both install and source spaces miss (ros2 CLI lookup).
	fallback *CommandResolver
}

// Option configures a Finder.
type Option func(*Finder)

// WithLogger sets the logger used for skipped-entry diagnostics.
func WithLogger(l *log.Logger) Option {
	return func(f *Finder) { f.logger = l }
}

// WithCommandFallback makes the finder consult r when filesystem
// discovery misses. Disabled when nil.
func WithCommandFallback(r *CommandResolver) Option {
	return func(f *Finder) { f.fallback = r }
}

// NewFinder creates a Finder for the given search configuration.
// It fails with INVALID_CONFIG when the configuration is malformed.
func NewFinder(cfg SearchConfig, opts ...Option) (*Finder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	f := &Finder{cfg: cfg, logger: log.Default()}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// Config returns the finder's search configuration.
func (f *Finder) Config() SearchConfig { return f.cfg }

// Resolve locates the manifest for a package name. It returns the
// manifest path and true, or "" and false when the package is not
// discoverable. Not-found is a normal outcome, not an error.
func (f *Finder) Resolve(name string) (string, bool) {
	return f.ResolveIn(name, nil)
}

// ResolveIn is Resolve with additional source roots merged into the
// search, used for user-added paths.
func (f *Finder) ResolveIn(name string, extraRoots []string) (string, bool) {
	if err := errors.ValidatePackageName(name); err != nil {
		return "", false
	}

	// Install space first, in prefix order.
	for _, prefix := range f.cfg.InstallPrefixes {
		candidate := filepath.Join(prefix, "share", name, manifestFile)
		if isFile(candidate) {
			return candidate, true
		}
	}

	// Source space: walk each root for a manifest declaring the name.
	for _, root := range f.cfg.SourceRoots(extraRoots) {
		if path, ok := f.findInSource(root, name); ok {
			return path, true
		}
	}

	if f.fallback != nil {
		if path, ok := f.fallback.Resolve(name); ok {
			return path, true
		}
	}

	return "", false
}

// ListAll collects every discoverable package, mapping name to
// manifest path. Install-space entries always win over source-space
// entries of the same name, and earlier prefixes win over later ones.
func (f *Finder) ListAll() map[string]string {
	return f.ListAllIn(nil)
}

// ListAllIn is ListAll with additional source roots.
func (f *Finder) ListAllIn(extraRoots []string) map[string]string {
	result := make(map[string]string)

	for _, prefix := range f.cfg.InstallPrefixes {
		for name, path := range f.listPrefix(prefix) {
			if _, ok := result[name]; !ok {
				result[name] = path
			}
		}
	}

	for _, root := range f.cfg.SourceRoots(extraRoots) {
		f.walkSource(root, func(name, path string) {
			if _, ok := result[name]; !ok {
				result[name] = path
			}
		})
	}

	return result
}

// SourceKind classifies where a group of packages was discovered.
type SourceKind string

const (
	// SourceSystem is a ROS distribution under /opt/ros.
	SourceSystem SourceKind = "system"
	// SourceWorkspace is the first non-system install space.
	SourceWorkspace SourceKind = "workspace"
	// SourceOther is any further install space.
	SourceOther SourceKind = "other"
	// SourceSource is an unbuilt source tree.
	SourceSource SourceKind = "source"
	// SourceAdded is a user-supplied extra root.
	SourceAdded SourceKind = "added"
)

// SourceGroup is one discovery source and the packages visible in it
// that no higher-priority source already provides.
type SourceGroup struct {
	Kind     SourceKind `json:"kind"`
	Root     string     `json:"root"`
	Packages []string   `json:"packages"`
}

// ListBySource groups discoverable packages by where they come from:
// the ROS distro, the user's workspace, other install spaces, unbuilt
// source trees, and user-added roots. A name appears only in its
// highest-priority group. Package lists are sorted.
func (f *Finder) ListBySource(extraRoots []string) []SourceGroup {
	var groups []SourceGroup
	seen := make(map[string]bool)
	index := make(map[string]int) // root -> groups index

	add := func(kind SourceKind, root, name string) {
		if seen[name] {
			return
		}
		seen[name] = true
		i, ok := index[root]
		if !ok {
			i = len(groups)
			index[root] = i
			groups = append(groups, SourceGroup{Kind: kind, Root: root})
		}
		groups[i].Packages = append(groups[i].Packages, name)
	}

	var workspaceRoot string
	for _, prefix := range f.cfg.InstallPrefixes {
		kind := SourceOther
		root := workspaceRootOf(prefix)
		switch {
		case isSystemPrefix(prefix):
			kind, root = SourceSystem, prefix
		case workspaceRoot == "" || root == workspaceRoot:
			kind = SourceWorkspace
			workspaceRoot = root
		}
		for name := range f.listPrefix(prefix) {
			add(kind, root, name)
		}
	}

	inferred := f.cfg.SourceRoots(nil)
	for _, root := range inferred {
		f.walkSource(root, func(name, _ string) {
			add(SourceSource, root, name)
		})
	}

	for _, root := range f.cfg.SourceRoots(extraRoots) {
		if containsPath(inferred, root) {
			continue
		}
		f.walkSource(root, func(name, _ string) {
			add(SourceAdded, root, name)
		})
	}

	for i := range groups {
		sort.Strings(groups[i].Packages)
	}
	return groups
}

// listPrefix enumerates the packages installed under one prefix: every
// immediate share subdirectory holding a manifest.
func (f *Finder) listPrefix(prefix string) map[string]string {
	share := filepath.Join(prefix, "share")
	entries, err := os.ReadDir(share)
	if err != nil {
		if !os.IsNotExist(err) {
			f.logger.Debug("skipping install prefix", "prefix", prefix, "err", err)
		}
		return nil
	}

	result := make(map[string]string)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		path := filepath.Join(share, entry.Name(), manifestFile)
		if isFile(path) {
			result[entry.Name()] = path
		}
	}
	return result
}

// findInSource walks one source root looking for a manifest whose
// declared name matches. Returns on the first match.
func (f *Finder) findInSource(root, name string) (string, bool) {
	var found string
	f.walkSource(root, func(pkgName, path string) {
		if found == "" && pkgName == name {
			found = path
		}
	})
	return found, found != ""
}

// walkSource walks a source root and invokes visit for every parseable
// manifest. Filesystem errors and unparseable manifests are logged and
// skipped; a partial listing beats aborting the whole discovery pass.
func (f *Finder) walkSource(root string, visit func(name, path string)) {
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			f.logger.Debug("skipping unreadable entry", "path", path, "err", err)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != root {
				return fs.SkipDir
			}
			return nil
		}
		if d.Name() != manifestFile {
			return nil
		}

		// The structural parser is the single source of package names;
		// an empty kind set skips dependency collection.
		pkg, perr := manifest.ParseFile(path, manifest.NewKindSet())
		if perr != nil {
			f.logger.Debug("skipping unparseable manifest", "path", path, "err", perr)
			return nil
		}
		visit(pkg.Name, path)
		return nil
	})
	if err != nil {
		f.logger.Debug("source walk aborted", "root", root, "err", err)
	}
}

// workspaceRootOf maps an install prefix to its workspace root for
// display grouping: <ws>/install/<pkg> and <ws>/install both map to
// <ws>; anything else maps to the prefix itself.
func workspaceRootOf(prefix string) string {
	for dir := prefix; dir != filepath.Dir(dir); dir = filepath.Dir(dir) {
		if filepath.Base(dir) == "install" {
			return filepath.Dir(dir)
		}
	}
	return prefix
}

// isSystemPrefix reports whether the prefix belongs to a ROS
// distribution install (/opt/ros/<distro>).
func isSystemPrefix(prefix string) bool {
	clean := filepath.Clean(prefix)
	return clean == "/opt/ros" || strings.HasPrefix(clean, "/opt/ros"+string(filepath.Separator))
}

func containsPath(paths []string, p string) bool {
	for _, q := range paths {
		if q == p {
			return true
		}
	}
	return false
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
