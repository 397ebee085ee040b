package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

func writeManifest(t *testing.T, dir string) string {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "package.xml")
	body := "<?xml version=\"1.0\"?>\n<package format=\"3\"><name>x</name><version>1.0.0</version><description>d</description></package>\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestWatcherReportsManifestChanges(t *testing.T) {
	root := t.TempDir()
	manifest := writeManifest(t, filepath.Join(root, "src", "pkg_a"))

	w, err := New([]string{root}, log.New(os.Stderr))
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(manifest, []byte("<package format=\"3\"><name>x</name></package>"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case ev := <-w.Events():
		found := false
		for _, p := range ev.Paths {
			if p == manifest {
				found = true
			}
		}
		if !found {
			t.Errorf("batch %v does not contain %s", ev.Paths, manifest)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no change event delivered")
	}
}

func TestWatcherIgnoresOtherFiles(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "src", "pkg_a")
	writeManifest(t, dir)

	w, err := New([]string{root}, log.New(os.Stderr))
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case ev, ok := <-w.Events():
		if ok {
			t.Errorf("unexpected event for non-manifest change: %v", ev.Paths)
		}
	case <-time.After(500 * time.Millisecond):
	}
}

func TestWatcherClosesOnCancel(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, filepath.Join(root, "src", "pkg_a"))

	w, err := New([]string{root}, log.New(os.Stderr))
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	cancel()

	select {
	case _, ok := <-w.Events():
		if ok {
			t.Error("expected closed channel after cancel")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("events channel not closed")
	}
}
