package workspace

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/rostree/rostree/pkg/manifest"
)

func fakeRunner(prefixes map[string]string, xml map[string]string) func(context.Context, ...string) ([]byte, error) {
	return func(_ context.Context, args ...string) ([]byte, error) {
		if len(args) != 3 || args[0] != "pkg" {
			return nil, fmt.Errorf("unexpected args %v", args)
		}
		switch args[1] {
		case "prefix":
			if p, ok := prefixes[args[2]]; ok {
				return []byte(p + "\n"), nil
			}
		case "xml":
			if x, ok := xml[args[2]]; ok {
				return []byte(x), nil
			}
		}
		return nil, fmt.Errorf("package not found")
	}
}

func TestCommandResolverResolve(t *testing.T) {
	prefix := t.TempDir()
	want := installPkg(t, prefix, "rclcpp")

	r := NewCommandResolver()
	r.run = fakeRunner(map[string]string{"rclcpp": prefix}, nil)

	got, ok := r.Resolve("rclcpp")
	if !ok || got != want {
		t.Errorf("Resolve = %q, %v; want %q, true", got, ok, want)
	}

	if _, ok := r.Resolve("unknown_pkg"); ok {
		t.Error("missing package should be a miss, not a hit")
	}
	if _, ok := r.Resolve("../evil"); ok {
		t.Error("unsafe names are rejected before the subprocess runs")
	}
}

func TestCommandResolverResolveStalePrefix(t *testing.T) {
	// The CLI reports a prefix whose manifest no longer exists.
	r := NewCommandResolver()
	r.run = fakeRunner(map[string]string{"gone_pkg": filepath.Join(t.TempDir(), "nope")}, nil)

	if _, ok := r.Resolve("gone_pkg"); ok {
		t.Error("prefix without a manifest should be a miss")
	}
}

func TestCommandResolverManifest(t *testing.T) {
	doc := `<package format="2"><name>tf2_ros</name><version>0.36.0</version><exec_depend>rclcpp</exec_depend></package>`
	r := NewCommandResolver()
	r.run = fakeRunner(nil, map[string]string{"tf2_ros": doc})

	pkg, err := r.Manifest("tf2_ros", manifest.RuntimeKinds())
	if err != nil {
		t.Fatalf("Manifest: %v", err)
	}
	if pkg.Name != "tf2_ros" || pkg.Version != "0.36.0" {
		t.Errorf("pkg = %+v", pkg)
	}
	if len(pkg.Dependencies) != 1 || pkg.Dependencies[0].Name != "rclcpp" {
		t.Errorf("deps = %v", pkg.Dependencies)
	}

	if _, err := r.Manifest("unknown_pkg", nil); err == nil {
		t.Error("Manifest should fail for unknown packages")
	}
}

func TestFinderCommandFallback(t *testing.T) {
	prefix := t.TempDir()
	want := installPkg(t, prefix, "cli_only_pkg")

	r := NewCommandResolver()
	r.run = fakeRunner(map[string]string{"cli_only_pkg": prefix}, nil)

	f, err := NewFinder(SearchConfig{}, WithCommandFallback(r))
	if err != nil {
		t.Fatal(err)
	}

	got, ok := f.Resolve("cli_only_pkg")
	if !ok || got != want {
		t.Errorf("Resolve = %q, %v; want %q, true", got, ok, want)
	}
}

func TestCommandResolverTimeoutDefault(t *testing.T) {
	r := &CommandResolver{}
	if r.timeout() != DefaultCommandTimeout {
		t.Errorf("timeout = %v, want default", r.timeout())
	}
	r.Timeout = DefaultCommandTimeout * 2
	if r.timeout() != DefaultCommandTimeout*2 {
		t.Errorf("timeout = %v", r.timeout())
	}
}
