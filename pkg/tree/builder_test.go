package tree

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// fixtureFinder serves manifests written into a temp dir, keyed by
// package name, and records how often each name is resolved.
type fixtureFinder struct {
	paths    map[string]string
	resolves map[string]int
}

func (f *fixtureFinder) ResolveIn(name string, _ []string) (string, bool) {
	f.resolves[name]++
	path, ok := f.paths[name]
	return path, ok
}

// writeFixtures lays out one package.xml per entry. Each value is the
// list of dependency tags for the manifest body.
func writeFixtures(t *testing.T, pkgs map[string][]string) *fixtureFinder {
	t.Helper()
	dir := t.TempDir()
	f := &fixtureFinder{paths: make(map[string]string), resolves: make(map[string]int)}
	for name, deps := range pkgs {
		pkgDir := filepath.Join(dir, name)
		if err := os.MkdirAll(pkgDir, 0o755); err != nil {
			t.Fatal(err)
		}
		var b strings.Builder
		fmt.Fprintf(&b, "<?xml version=\"1.0\"?>\n<package format=\"3\">\n  <name>%s</name>\n  <version>1.0.0</version>\n  <description>%s fixture</description>\n", name, name)
		for _, dep := range deps {
			b.WriteString("  " + dep + "\n")
		}
		b.WriteString("</package>\n")
		path := filepath.Join(pkgDir, "package.xml")
		if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
			t.Fatal(err)
		}
		f.paths[name] = path
	}
	return f
}

func childNames(n *Node) []string {
	names := make([]string, 0, len(n.Children))
	for _, c := range n.Children {
		names = append(names, c.Name)
	}
	return names
}

func findChild(t *testing.T, n *Node, name string) *Node {
	t.Helper()
	for _, c := range n.Children {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("node %q has no child %q (children: %v)", n.Name, name, childNames(n))
	return nil
}

func TestBuildFilters(t *testing.T) {
	finder := writeFixtures(t, map[string][]string{
		"pkg_a": {
			"<depend>pkg_b</depend>",
			"<test_depend>pkg_c</test_depend>",
			"<buildtool_depend>ament_cmake</buildtool_depend>",
		},
		"pkg_b":       {},
		"pkg_c":       {},
		"ament_cmake": {},
	})
	b := NewBuilder(finder)

	tests := []struct {
		name string
		opts Options
		want []string
	}{
		{"runtime", Options{Filter: FilterRuntime}, []string{"pkg_b"}},
		{"full", Options{Filter: FilterFull}, []string{"pkg_b", "pkg_c"}},
		{"full with buildtool", Options{Filter: FilterFull, IncludeBuildTool: true}, []string{"pkg_b", "pkg_c", "ament_cmake"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := b.Build(context.Background(), "pkg_a", tt.opts)
			if root.Status != StatusResolved {
				t.Fatalf("root status = %q, want %q", root.Status, StatusResolved)
			}
			got := childNames(root)
			if len(got) != len(tt.want) {
				t.Fatalf("children = %v, want %v", got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("child[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestBuildDeclarationOrder(t *testing.T) {
	finder := writeFixtures(t, map[string][]string{
		"top": {
			"<exec_depend>zeta</exec_depend>",
			"<depend>alpha</depend>",
			"<exec_depend>mid</exec_depend>",
		},
		"zeta":  {},
		"alpha": {},
		"mid":   {},
	})
	root := NewBuilder(finder).Build(context.Background(), "top", Options{})
	want := []string{"zeta", "alpha", "mid"}
	got := childNames(root)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("children = %v, want %v", got, want)
		}
	}
}

func TestBuildCycle(t *testing.T) {
	finder := writeFixtures(t, map[string][]string{
		"pkg_x": {"<depend>pkg_y</depend>"},
		"pkg_y": {"<depend>pkg_x</depend>"},
	})
	root := NewBuilder(finder).Build(context.Background(), "pkg_x", Options{})

	y := findChild(t, root, "pkg_y")
	if y.Status != StatusResolved {
		t.Fatalf("pkg_y status = %q, want %q", y.Status, StatusResolved)
	}
	back := findChild(t, y, "pkg_x")
	if back.Status != StatusCycle {
		t.Errorf("back-edge status = %q, want %q", back.Status, StatusCycle)
	}
	if len(back.Children) != 0 {
		t.Errorf("cycle node has %d children, want 0", len(back.Children))
	}
	if back.Children == nil {
		t.Error("cycle node children is nil, want empty slice")
	}
}

func TestBuildDiamondIsNotCycle(t *testing.T) {
	// common appears under both branches; neither occurrence is a
	// strict ancestor of itself, so both resolve.
	finder := writeFixtures(t, map[string][]string{
		"root":   {"<depend>left</depend>", "<depend>right</depend>"},
		"left":   {"<depend>common</depend>"},
		"right":  {"<depend>common</depend>"},
		"common": {},
	})
	root := NewBuilder(finder).Build(context.Background(), "root", Options{})
	for _, branch := range root.Children {
		c := findChild(t, branch, "common")
		if c.Status != StatusResolved {
			t.Errorf("common under %q: status = %q, want resolved", branch.Name, c.Status)
		}
	}
}

func TestBuildRootNotFound(t *testing.T) {
	finder := writeFixtures(t, map[string][]string{})
	root := NewBuilder(finder).Build(context.Background(), "ghost", Options{})
	if root.Status != StatusNotFound {
		t.Fatalf("status = %q, want %q", root.Status, StatusNotFound)
	}
	if root.Name != "ghost" {
		t.Errorf("name = %q, want ghost", root.Name)
	}
	if len(root.Children) != 0 {
		t.Errorf("not-found root has children: %v", childNames(root))
	}
}

func TestBuildMissingDependency(t *testing.T) {
	finder := writeFixtures(t, map[string][]string{
		"pkg_a": {"<depend>absent_pkg</depend>"},
	})
	root := NewBuilder(finder).Build(context.Background(), "pkg_a", Options{})
	missing := findChild(t, root, "absent_pkg")
	if missing.Status != StatusNotFound {
		t.Errorf("status = %q, want %q", missing.Status, StatusNotFound)
	}
}

func TestBuildParseError(t *testing.T) {
	finder := writeFixtures(t, map[string][]string{
		"pkg_a":  {"<depend>broken</depend>"},
		"broken": {},
	})
	if err := os.WriteFile(finder.paths["broken"], []byte("not xml at all"), 0o644); err != nil {
		t.Fatal(err)
	}
	root := NewBuilder(finder).Build(context.Background(), "pkg_a", Options{})
	broken := findChild(t, root, "broken")
	if broken.Status != StatusParseError {
		t.Fatalf("status = %q, want %q", broken.Status, StatusParseError)
	}
	if broken.Path == "" {
		t.Error("parse-error node should retain the manifest path")
	}
}

func TestBuildMaxDepth(t *testing.T) {
	finder := writeFixtures(t, map[string][]string{
		"d0": {"<depend>d1</depend>"},
		"d1": {"<depend>d2</depend>"},
		"d2": {"<depend>d3</depend>"},
		"d3": {},
	})
	root := NewBuilder(finder).Build(context.Background(), "d0", Options{MaxDepth: 2})

	d1 := findChild(t, root, "d1")
	if d1.Status != StatusResolved {
		t.Fatalf("d1 status = %q", d1.Status)
	}
	// Nodes at exactly MaxDepth edges from the root still resolve; only
	// their children are cut off.
	d2 := findChild(t, d1, "d2")
	if d2.Status != StatusResolved {
		t.Fatalf("d2 status = %q, want %q", d2.Status, StatusResolved)
	}
	d3 := findChild(t, d2, "d3")
	if d3.Status != StatusTruncated {
		t.Errorf("d3 status = %q, want %q (depth bound, not missing)", d3.Status, StatusTruncated)
	}
	if len(d3.Children) != 0 {
		t.Errorf("truncated node has children: %v", childNames(d3))
	}
}

func TestBuildNodeBudget(t *testing.T) {
	// wide: one root with many resolvable children; a tight budget
	// truncates the tail but the tree stays complete in shape.
	pkgs := map[string][]string{"wide": nil}
	for i := 0; i < 10; i++ {
		name := fmt.Sprintf("leaf_%c", 'a'+i)
		pkgs["wide"] = append(pkgs["wide"], "<depend>"+name+"</depend>")
		pkgs[name] = []string{}
	}
	finder := writeFixtures(t, pkgs)
	root := NewBuilder(finder).Build(context.Background(), "wide", Options{MaxNodes: 4})

	if got := len(root.Children); got != 10 {
		t.Fatalf("children = %d, want 10", got)
	}
	var resolved, truncated int
	for _, c := range root.Children {
		switch c.Status {
		case StatusResolved:
			resolved++
		case StatusTruncated:
			truncated++
		default:
			t.Errorf("child %q has status %q", c.Name, c.Status)
		}
	}
	if resolved != 3 || truncated != 7 {
		t.Errorf("resolved/truncated = %d/%d, want 3/7", resolved, truncated)
	}
}

func TestBuildContextCancel(t *testing.T) {
	finder := writeFixtures(t, map[string][]string{
		"pkg_a": {"<depend>pkg_b</depend>"},
		"pkg_b": {},
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	root := NewBuilder(finder).Build(ctx, "pkg_a", Options{})
	if root.Status != StatusResolved {
		t.Fatalf("root status = %q", root.Status)
	}
	b := findChild(t, root, "pkg_b")
	if b.Status != StatusTruncated {
		t.Errorf("status = %q, want %q after cancellation", b.Status, StatusTruncated)
	}
}

func TestBuildIdempotent(t *testing.T) {
	finder := writeFixtures(t, map[string][]string{
		"pkg_a": {"<depend>pkg_b</depend>"},
		"pkg_b": {"<depend>pkg_c</depend>"},
		"pkg_c": {},
	})
	b := NewBuilder(finder, WithMemo(NewMemo()))

	first := b.Build(context.Background(), "pkg_a", Options{})
	second := b.Build(context.Background(), "pkg_a", Options{})

	if first.Count() != second.Count() || first.Height() != second.Height() {
		t.Fatalf("shape changed between builds: %d/%d vs %d/%d",
			first.Count(), first.Height(), second.Count(), second.Height())
	}
	// With a shared memo, resolution happens once per name.
	for name, n := range finder.resolves {
		if n != 1 {
			t.Errorf("resolve(%q) called %d times, want 1", name, n)
		}
	}
}

func TestBuildRefreshInvalidatesMemo(t *testing.T) {
	finder := writeFixtures(t, map[string][]string{"pkg_a": {}})
	b := NewBuilder(finder, WithMemo(NewMemo()))

	b.Build(context.Background(), "pkg_a", Options{})
	b.Build(context.Background(), "pkg_a", Options{Refresh: true})

	if n := finder.resolves["pkg_a"]; n != 2 {
		t.Errorf("resolve called %d times, want 2 after refresh", n)
	}
}

func TestNodeWalkDepths(t *testing.T) {
	finder := writeFixtures(t, map[string][]string{
		"pkg_a": {"<depend>pkg_b</depend>"},
		"pkg_b": {"<depend>pkg_c</depend>"},
		"pkg_c": {},
	})
	root := NewBuilder(finder).Build(context.Background(), "pkg_a", Options{})

	depths := make(map[string]int)
	root.Walk(func(n *Node, depth int) {
		depths[n.Name] = depth
	})
	want := map[string]int{"pkg_a": 0, "pkg_b": 1, "pkg_c": 2}
	for name, d := range want {
		if depths[name] != d {
			t.Errorf("depth(%s) = %d, want %d", name, depths[name], d)
		}
	}
}
