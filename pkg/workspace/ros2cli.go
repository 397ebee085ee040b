package workspace

import (
	"context"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/rostree/rostree/pkg/errors"
	"github.com/rostree/rostree/pkg/manifest"
)

// DefaultCommandTimeout bounds a single ros2 CLI invocation.
const DefaultCommandTimeout = 5 * time.Second

// CommandResolver resolves packages by querying the ros2 command-line
// tool. It is a tertiary strategy behind the same Finder contract,
// useful when a package is registered in the sourced environment but
// its prefix is not part of the configured search paths.
//
// The resolver is opt-in (see WithCommandFallback) and never required:
// filesystem discovery alone satisfies the Finder contract.
type CommandResolver struct {
	// Timeout bounds each subprocess invocation.
	Timeout time.Duration

	// run executes the ros2 subcommand; replaced in tests.
	run func(ctx context.Context, args ...string) ([]byte, error)
}

// NewCommandResolver creates a resolver shelling out to "ros2".
func NewCommandResolver() *CommandResolver {
	return &CommandResolver{
		Timeout: DefaultCommandTimeout,
		run: func(ctx context.Context, args ...string) ([]byte, error) {
			return exec.CommandContext(ctx, "ros2", args...).Output()
		},
	}
}

// Resolve runs "ros2 pkg prefix <name>" and maps the reported prefix
// to its conventional manifest path. Any subprocess failure is a miss,
// never an error: the CLI being absent is an expected condition.
func (r *CommandResolver) Resolve(name string) (string, bool) {
	if err := errors.ValidatePackageName(name); err != nil {
		return "", false
	}

	ctx, cancel := context.WithTimeout(context.Background(), r.timeout())
	defer cancel()

	out, err := r.run(ctx, "pkg", "prefix", name)
	if err != nil {
		return "", false
	}
	prefix := strings.TrimSpace(string(out))
	if prefix == "" {
		return "", false
	}

	path := filepath.Join(prefix, "share", name, manifestFile)
	if !isFile(path) {
		return "", false
	}
	return path, true
}

// Manifest runs "ros2 pkg xml <name>" and parses the emitted document
// with the in-memory manifest parser.
func (r *CommandResolver) Manifest(name string, include manifest.KindSet) (*manifest.Package, error) {
	if err := errors.ValidatePackageName(name); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), r.timeout())
	defer cancel()

	out, err := r.run(ctx, "pkg", "xml", name)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodePackageNotFound, err, "ros2 pkg xml %s", name)
	}
	return manifest.Parse(out, include)
}

func (r *CommandResolver) timeout() time.Duration {
	if r.Timeout > 0 {
		return r.Timeout
	}
	return DefaultCommandTimeout
}
