package workspace

import (
	"os"
	"path/filepath"
	"testing"
)

func TestScanWorkspaces(t *testing.T) {
	root := t.TempDir()

	// projects/ws1 is a source workspace with two packages.
	ws1 := filepath.Join(root, "projects", "ws1")
	sourcePkg(t, filepath.Join(ws1, "src"), "pkg_one")
	sourcePkg(t, filepath.Join(ws1, "src"), "pkg_two")
	if err := os.MkdirAll(filepath.Join(ws1, "build"), 0755); err != nil {
		t.Fatal(err)
	}

	// distro mimics /opt/ros/<distro>: share layout, no src.
	distro := filepath.Join(root, "distro")
	installPkg(t, distro, "rclcpp")

	// notws has none of the markers.
	if err := os.MkdirAll(filepath.Join(root, "notws", "stuff"), 0755); err != nil {
		t.Fatal(err)
	}

	found := ScanWorkspaces([]string{root}, ScanOptions{})

	byPath := make(map[string]WorkspaceInfo)
	for _, ws := range found {
		byPath[filepath.Base(ws.Path)] = ws
	}

	ws, ok := byPath["ws1"]
	if !ok {
		t.Fatalf("ws1 not discovered; found %v", found)
	}
	if !ws.HasSrc || !ws.HasBuild || ws.HasInstall {
		t.Errorf("ws1 markers = src:%v install:%v build:%v", ws.HasSrc, ws.HasInstall, ws.HasBuild)
	}
	if len(ws.Packages) != 2 || ws.Packages[0] != "pkg_one" || ws.Packages[1] != "pkg_two" {
		t.Errorf("ws1 packages = %v", ws.Packages)
	}
	if !ws.Valid() {
		t.Error("ws1 should be valid")
	}

	d, ok := byPath["distro"]
	if !ok {
		t.Fatalf("distro not discovered; found %v", found)
	}
	if !d.HasInstall || d.HasSrc {
		t.Errorf("distro markers = src:%v install:%v", d.HasSrc, d.HasInstall)
	}
	if len(d.Packages) != 1 || d.Packages[0] != "rclcpp" {
		t.Errorf("distro packages = %v", d.Packages)
	}

	if _, ok := byPath["notws"]; ok {
		t.Error("plain directory should not be reported as a workspace")
	}
}

func TestScanDepthLimit(t *testing.T) {
	root := t.TempDir()
	deep := filepath.Join(root, "a", "b", "c", "d", "e", "ws")
	sourcePkg(t, filepath.Join(deep, "src"), "deep_pkg")

	found := ScanWorkspaces([]string{root}, ScanOptions{MaxDepth: 2})
	if len(found) != 0 {
		t.Errorf("workspace beyond depth limit should be invisible, found %v", found)
	}

	found = ScanWorkspaces([]string{root}, ScanOptions{MaxDepth: 10})
	if len(found) != 1 {
		t.Errorf("deep workspace should be found with a larger limit, found %v", found)
	}
}

func TestScanRootIsWorkspace(t *testing.T) {
	ws := t.TempDir()
	sourcePkg(t, filepath.Join(ws, "src"), "root_pkg")

	found := ScanWorkspaces([]string{ws}, ScanOptions{})
	if len(found) != 1 {
		t.Fatalf("found = %v, want the root itself", found)
	}
	if len(found[0].Packages) != 1 || found[0].Packages[0] != "root_pkg" {
		t.Errorf("packages = %v", found[0].Packages)
	}
}

func TestScanInstallLayout(t *testing.T) {
	ws := t.TempDir()
	prefix := filepath.Join(ws, "install", "pkg_a")
	installPkg(t, prefix, "pkg_a")

	found := ScanWorkspaces([]string{ws}, ScanOptions{})
	if len(found) != 1 {
		t.Fatalf("found = %v", found)
	}
	if !found[0].HasInstall {
		t.Error("install marker missing")
	}
	if len(found[0].Packages) != 1 || found[0].Packages[0] != "pkg_a" {
		t.Errorf("packages = %v", found[0].Packages)
	}
}
