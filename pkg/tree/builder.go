package tree

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/rostree/rostree/pkg/manifest"
)

// Finder resolves a package name to its manifest path. Implemented by
// workspace.Finder; tests substitute fakes.
type Finder interface {
	// ResolveIn locates the manifest for name, searching extraRoots
	// after the configured spaces. Not-found is reported via the bool,
	// never as an error.
	ResolveIn(name string, extraRoots []string) (string, bool)
}

// parseFunc matches manifest.ParseFile; replaced in tests.
type parseFunc func(path string, include manifest.KindSet) (*manifest.Package, error)

// Builder assembles dependency trees. It is safe for concurrent use:
// each Build call threads its own traversal state, and the shared memo
// is internally synchronized.
type Builder struct {
	finder Finder
	memo   *Memo
	logger *log.Logger
	parse  parseFunc
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithMemo makes the builder share a long-lived memo across Build
// calls. Without it, each build gets a fresh session-scoped memo.
func WithMemo(m *Memo) BuilderOption {
	return func(b *Builder) { b.memo = m }
}

// WithLogger sets the logger for per-node diagnostics.
func WithLogger(l *log.Logger) BuilderOption {
	return func(b *Builder) { b.logger = l }
}

// NewBuilder creates a Builder over the given finder.
func NewBuilder(finder Finder, opts ...BuilderOption) *Builder {
	b := &Builder{
		finder: finder,
		logger: log.Default(),
		parse:  manifest.ParseFile,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build assembles the dependency tree rooted at rootName. It always
// returns a node: a root that cannot be found yields a single
// not-found node, a valid outcome distinct from a failure. The
// returned tree is finite for every input, including cyclic dependency
// graphs.
//
// Context cancellation is honored between node expansions: once ctx is
// done, unexpanded children are marked truncated rather than resolved.
func (b *Builder) Build(ctx context.Context, rootName string, opts Options) *Node {
	opts = opts.WithDefaults()

	memo := b.memo
	if memo == nil {
		memo = NewMemo()
	} else if opts.Refresh {
		memo.Invalidate()
	}

	s := &session{
		builder:   b,
		opts:      opts,
		kinds:     opts.kinds(),
		memo:      memo,
		ancestors: make(map[string]struct{}),
	}
	return s.expand(ctx, rootName, 0)
}

// session is the state of one Build call. The ancestor set is a single
// mutable map shared down the recursion: names are added before
// descending into a subtree and removed after returning, giving
// O(depth) space and O(nodes) set operations instead of a copy per
// recursive step.
type session struct {
	builder   *Builder
	opts      Options
	kinds     manifest.KindSet
	memo      *Memo
	ancestors map[string]struct{}
	count     int
}

// expand resolves one package occurrence at the given depth and
// recurses into its dependencies.
func (s *session) expand(ctx context.Context, name string, depth int) *Node {
	s.count++

	path, ok := s.memo.Resolve(resolveKey(name, s.opts.ExtraSourceRoots), func() (string, bool) {
		return s.builder.finder.ResolveIn(name, s.opts.ExtraSourceRoots)
	})
	if !ok {
		return newLeaf(name, StatusNotFound)
	}

	pkg, err := s.memo.Parse(path, s.kinds, func() (*manifest.Package, error) {
		return s.builder.parse(path, s.kinds)
	})
	if err != nil {
		s.builder.logger.Debug("manifest parse failed", "package", name, "path", path, "err", err)
		node := newLeaf(name, StatusParseError)
		node.Path = path
		return node
	}

	node := &Node{
		Name:        pkg.Name,
		Version:     pkg.Version,
		Description: pkg.Description,
		Path:        path,
		Status:      StatusResolved,
		Children:    []*Node{},
	}

	s.ancestors[name] = struct{}{}
	for _, dep := range pkg.Dependencies {
		node.Children = append(node.Children, s.child(ctx, dep.Name, depth))
	}
	delete(s.ancestors, name)

	return node
}

// child produces the node for one declared dependency of a parent at
// the given depth, applying the cycle, depth, and budget policies in
// that order.
func (s *session) child(ctx context.Context, name string, parentDepth int) *Node {
	if _, isAncestor := s.ancestors[name]; isAncestor {
		return newLeaf(name, StatusCycle)
	}
	if s.opts.MaxDepth > 0 && parentDepth >= s.opts.MaxDepth {
		return newLeaf(name, StatusTruncated)
	}
	if s.count >= s.opts.MaxNodes || ctx.Err() != nil {
		return newLeaf(name, StatusTruncated)
	}
	return s.expand(ctx, name, parentDepth+1)
}
