// Package manifest parses ROS 2 package.xml manifests.
//
// A manifest (REP 149 format 2 or 3) declares a package's identity and
// its dependencies on other packages. This package is the single place
// in rostree that derives package names and dependency declarations
// from manifest content; no other component scans package.xml text.
package manifest

import (
	"strings"
)

// Kind identifies the dependency tag a declaration came from.
type Kind string

// Dependency kinds, named after their package.xml elements.
const (
	// KindDepend covers both build and run time.
	KindDepend Kind = "depend"
	// KindBuild is needed at build time only.
	KindBuild Kind = "build_depend"
	// KindBuildExport is exported to downstream builds.
	KindBuildExport Kind = "build_export_depend"
	// KindExec is needed at run time.
	KindExec Kind = "exec_depend"
	// KindTest is needed for tests only.
	KindTest Kind = "test_depend"
	// KindBuildTool is a build toolchain dependency (ament_cmake and
	// friends). Excluded by default everywhere: it drags an entire
	// unrelated toolchain subgraph into every tree.
	KindBuildTool Kind = "buildtool_depend"
)

// kinds in the order declarations of equal document position sort; this
// is also the complete tag vocabulary the parser reads.
var allKinds = []Kind{
	KindDepend,
	KindBuild,
	KindBuildExport,
	KindExec,
	KindTest,
	KindBuildTool,
}

// kindForTag maps a package.xml element name to its Kind.
func kindForTag(tag string) (Kind, bool) {
	for _, k := range allKinds {
		if string(k) == tag {
			return k, true
		}
	}
	return "", false
}

// KindSet is a set of dependency kinds used to filter declarations.
// A nil KindSet matches every kind.
type KindSet map[Kind]struct{}

// NewKindSet builds a KindSet from the given kinds.
func NewKindSet(kinds ...Kind) KindSet {
	s := make(KindSet, len(kinds))
	for _, k := range kinds {
		s[k] = struct{}{}
	}
	return s
}

// Has reports whether k is in the set. A nil set contains every kind.
func (s KindSet) Has(k Kind) bool {
	if s == nil {
		return true
	}
	_, ok := s[k]
	return ok
}

// With returns a copy of the set extended by the given kinds.
// The receiver is not modified.
func (s KindSet) With(kinds ...Kind) KindSet {
	out := make(KindSet, len(s)+len(kinds))
	for k := range s {
		out[k] = struct{}{}
	}
	for _, k := range kinds {
		out[k] = struct{}{}
	}
	return out
}

// Key returns a stable string form of the set, usable as a cache key.
// Kinds appear in vocabulary order; a nil set yields "all".
func (s KindSet) Key() string {
	if s == nil {
		return "all"
	}
	parts := make([]string, 0, len(s))
	for _, k := range allKinds {
		if _, ok := s[k]; ok {
			parts = append(parts, string(k))
		}
	}
	return strings.Join(parts, ",")
}

// RuntimeKinds returns the kinds relevant at run time: depend and
// exec_depend.
func RuntimeKinds() KindSet {
	return NewKindSet(KindDepend, KindExec)
}

// FullKinds returns every kind except buildtool_depend.
func FullKinds() KindSet {
	return NewKindSet(KindDepend, KindBuild, KindBuildExport, KindExec, KindTest)
}

// Dependency is one declaration in a manifest: a package name and the
// kind of the tag that declared it.
type Dependency struct {
	Name string
	Kind Kind
}

// Package holds the metadata parsed from one package.xml.
type Package struct {
	Name         string
	Version      string
	Description  string
	Path         string // manifest file path; empty for in-memory parses
	Dependencies []Dependency
}

// DependencyNames returns the declared dependency names in order.
func (p *Package) DependencyNames() []string {
	names := make([]string, len(p.Dependencies))
	for i, d := range p.Dependencies {
		names[i] = d.Name
	}
	return names
}

// IsPackageName reports whether name follows the ROS package naming
// convention: lowercase letters, digits, and underscores, starting with
// a letter. Names that fail this heuristic are system or foreign
// ecosystem dependencies (python3-pytest, libboost-dev, ...) and are
// not resolvable in rostree's universe. The lib prefix is rejected as
// well; it marks system libraries in rosdep keys.
func IsPackageName(name string) bool {
	if name == "" || strings.HasPrefix(name, "lib") {
		return false
	}
	for i, r := range name {
		switch {
		case r >= 'a' && r <= 'z':
		case r == '_' && i > 0:
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}
