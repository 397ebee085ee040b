package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/pflag"

	"github.com/rostree/rostree/pkg/errors"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "absent.toml"), nil)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Port != 8080 {
		t.Errorf("port = %d, want 8080", cfg.Port)
	}
	if cfg.Cache != "file" {
		t.Errorf("cache = %q, want file", cfg.Cache)
	}
	if cfg.Verbosity != "info" {
		t.Errorf("verbosity = %q, want info", cfg.Verbosity)
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rostree.toml")
	body := "port = 9090\nworkspace_roots = [\"/ws1\", \"/ws2\"]\nros2_fallback = true\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Port != 9090 {
		t.Errorf("port = %d, want 9090", cfg.Port)
	}
	if len(cfg.WorkspaceRoots) != 2 || cfg.WorkspaceRoots[0] != "/ws1" {
		t.Errorf("workspace_roots = %v", cfg.WorkspaceRoots)
	}
	if !cfg.Ros2Fallback {
		t.Error("ros2_fallback not set")
	}
}

func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rostree.toml")
	if err := os.WriteFile(path, []byte("port = ["), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := LoadFile(path, nil)
	if errors.GetCode(err) != errors.ErrCodeInvalidConfig {
		t.Errorf("err = %v, want INVALID_CONFIG", err)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rostree.toml")
	if err := os.WriteFile(path, []byte("port = 9090\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("ROSTREE_PORT", "7000")

	cfg, err := LoadFile(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Port != 7000 {
		t.Errorf("port = %d, want env value 7000", cfg.Port)
	}
}

func TestLoadFlagsOverrideEnv(t *testing.T) {
	t.Setenv("ROSTREE_PORT", "7000")
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int("port", 8080, "")
	if err := flags.Parse([]string{"--port", "6000"}); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(filepath.Join(t.TempDir(), "absent.toml"), flags)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Port != 6000 {
		t.Errorf("port = %d, want flag value 6000", cfg.Port)
	}
}

func TestFromEnvironment(t *testing.T) {
	sep := string(os.PathListSeparator)
	t.Setenv("AMENT_PREFIX_PATH", strings.Join([]string{"/opt/ros/jazzy", "/ws/install/pkg_a"}, sep))
	t.Setenv("COLCON_PREFIX_PATH", "/ws/install/pkg_a"+sep+"/other/install")
	t.Setenv("ROS2_WORKSPACE", "/ws")
	t.Setenv("COLCON_WORKSPACE", "")

	cfg := FromEnvironment()
	wantPrefixes := []string{"/opt/ros/jazzy", "/ws/install/pkg_a", "/other/install"}
	if len(cfg.InstallPrefixes) != len(wantPrefixes) {
		t.Fatalf("prefixes = %v, want %v", cfg.InstallPrefixes, wantPrefixes)
	}
	for i := range wantPrefixes {
		if cfg.InstallPrefixes[i] != wantPrefixes[i] {
			t.Errorf("prefix[%d] = %q, want %q", i, cfg.InstallPrefixes[i], wantPrefixes[i])
		}
	}
	if len(cfg.WorkspaceRoots) != 1 || cfg.WorkspaceRoots[0] != "/ws" {
		t.Errorf("roots = %v, want [/ws]", cfg.WorkspaceRoots)
	}
}

func TestSearchConfigMergesConfiguredFirst(t *testing.T) {
	t.Setenv("AMENT_PREFIX_PATH", "/opt/ros/jazzy")
	t.Setenv("COLCON_PREFIX_PATH", "")
	t.Setenv("ROS2_WORKSPACE", "")
	t.Setenv("COLCON_WORKSPACE", "")

	cfg := &Config{InstallPrefixes: []string{"/custom/install"}}
	sc := cfg.SearchConfig()
	if len(sc.InstallPrefixes) != 2 || sc.InstallPrefixes[0] != "/custom/install" {
		t.Errorf("prefixes = %v, want configured first", sc.InstallPrefixes)
	}
}
