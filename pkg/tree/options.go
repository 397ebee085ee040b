package tree

import (
	"github.com/rostree/rostree/pkg/manifest"
)

// DefaultMaxNodes caps the total tree size when the caller does not
// set a budget. Deep ROS dependency closures routinely reach thousands
// of nodes; resolution must stop rather than run unbounded.
const DefaultMaxNodes = 5000

// Filter selects which dependency kinds become tree edges.
type Filter string

const (
	// FilterRuntime follows depend and exec_depend only.
	FilterRuntime Filter = "runtime"
	// FilterFull follows everything except buildtool_depend.
	FilterFull Filter = "full"
)

// Options configures one Build call.
type Options struct {
	// MaxDepth bounds the tree in edges from the root; zero or
	// negative means unlimited. Dependencies beyond the bound become
	// truncated leaves.
	MaxDepth int

	// MaxNodes bounds the total node count; zero uses
	// DefaultMaxNodes. Once exhausted, remaining children become
	// truncated leaves.
	MaxNodes int

	// Filter selects runtime-only or full edges. Empty means full.
	Filter Filter

	// IncludeBuildTool adds buildtool_depend edges on top of the
	// filter. Off by default: the build toolchain subgraph bloats
	// every tree without adding dependency information.
	IncludeBuildTool bool

	// ExtraSourceRoots are additional source trees searched after the
	// configured spaces.
	ExtraSourceRoots []string

	// Refresh discards memoized finder and parser results before the
	// build, forcing a fresh filesystem pass.
	Refresh bool
}

// WithDefaults returns a copy of Options with zero values replaced by
// defaults.
func (o Options) WithDefaults() Options {
	opts := o
	if opts.MaxNodes <= 0 {
		opts.MaxNodes = DefaultMaxNodes
	}
	if opts.Filter == "" {
		opts.Filter = FilterFull
	}
	return opts
}

// kinds maps the filter settings to the manifest kind set handed to
// the parser.
func (o Options) kinds() manifest.KindSet {
	var set manifest.KindSet
	switch o.Filter {
	case FilterRuntime:
		set = manifest.RuntimeKinds()
	default:
		set = manifest.FullKinds()
	}
	if o.IncludeBuildTool {
		set = set.With(manifest.KindBuildTool)
	}
	return set
}
