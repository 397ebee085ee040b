// Package config loads rostree configuration from defaults, an
// optional TOML file, environment variables, and command-line flags,
// in increasing priority.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/rostree/rostree/pkg/errors"
	"github.com/rostree/rostree/pkg/workspace"
)

// DefaultFile is the config file name looked up in the working
// directory.
const DefaultFile = "rostree.toml"

// EnvPrefix namespaces rostree's own environment variables, e.g.
// ROSTREE_PORT=9090. ROS conventions (AMENT_PREFIX_PATH and friends)
// are read separately, see FromEnvironment.
const EnvPrefix = "ROSTREE_"

// Config holds all settings for the CLI and the web backend.
type Config struct {
	// InstallPrefixes are install spaces searched before source trees,
	// in priority order. Merged with the ROS environment.
	InstallPrefixes []string `koanf:"install_prefixes"`

	// WorkspaceRoots are workspace roots whose src trees are searched.
	WorkspaceRoots []string `koanf:"workspace_roots"`

	// Ros2Fallback enables resolving through the ros2 CLI when the
	// filesystem search misses.
	Ros2Fallback bool `koanf:"ros2_fallback"`

	// MaxDepth and MaxNodes bound tree construction.
	MaxDepth int `koanf:"max_depth"`
	MaxNodes int `koanf:"max_nodes"`

	// Cache selects the artifact cache backend: file, redis, or none.
	Cache     string `koanf:"cache"`
	CacheDir  string `koanf:"cache_dir"`
	RedisAddr string `koanf:"redis_addr"`

	// Host and Port configure the web server.
	Host string `koanf:"host"`
	Port int    `koanf:"port"`

	// Watch re-scans workspaces on filesystem changes while serving.
	Watch bool `koanf:"watch"`

	// Verbosity is the log level name (debug, info, warn, error).
	Verbosity string `koanf:"verbosity"`
}

// Load builds a Config. Priority: flags > environment > config file >
// defaults. A missing config file is not an error; a malformed one is.
func Load(flags *pflag.FlagSet) (*Config, error) {
	return LoadFile(DefaultFile, flags)
}

// LoadFile is Load with an explicit config file path.
func LoadFile(path string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	defaults := map[string]interface{}{
		"install_prefixes": []string{},
		"workspace_roots":  []string{},
		"ros2_fallback":    false,
		"max_depth":        0,
		"max_nodes":        0,
		"cache":            "file",
		"cache_dir":        defaultCacheDir(),
		"redis_addr":       "localhost:6379",
		"host":             "127.0.0.1",
		"port":             8080,
		"watch":            false,
		"verbosity":        "info",
	}
	if err := k.Load(mapProvider(defaults), nil); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "load defaults")
	}

	if _, statErr := os.Stat(path); statErr == nil {
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err,
				"parse config file %s", path)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(
			strings.TrimPrefix(s, EnvPrefix)), "_", ".")
	}), nil); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "load environment")
	}

	if flags != nil {
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "load flags")
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "unmarshal config")
	}
	return &cfg, nil
}

// SearchConfig merges configured search locations with the ROS
// environment into the finder's configuration. Configured prefixes
// come first so explicit settings outrank the ambient overlay.
func (c *Config) SearchConfig() workspace.SearchConfig {
	ambient := FromEnvironment()
	return workspace.SearchConfig{
		InstallPrefixes: dedupe(append(append([]string{}, c.InstallPrefixes...), ambient.InstallPrefixes...)),
		WorkspaceRoots:  dedupe(append(append([]string{}, c.WorkspaceRoots...), ambient.WorkspaceRoots...)),
	}
}

// FromEnvironment reads the ROS workspace conventions:
// AMENT_PREFIX_PATH and COLCON_PREFIX_PATH as list-separated install
// prefixes, ROS2_WORKSPACE and COLCON_WORKSPACE as workspace roots.
// This is the only place rostree reads these variables.
func FromEnvironment() workspace.SearchConfig {
	var cfg workspace.SearchConfig
	for _, name := range []string{"AMENT_PREFIX_PATH", "COLCON_PREFIX_PATH"} {
		for _, p := range filepath.SplitList(os.Getenv(name)) {
			if p != "" {
				cfg.InstallPrefixes = append(cfg.InstallPrefixes, p)
			}
		}
	}
	for _, name := range []string{"ROS2_WORKSPACE", "COLCON_WORKSPACE"} {
		if root := os.Getenv(name); root != "" {
			cfg.WorkspaceRoots = append(cfg.WorkspaceRoots, root)
		}
	}
	cfg.InstallPrefixes = dedupe(cfg.InstallPrefixes)
	cfg.WorkspaceRoots = dedupe(cfg.WorkspaceRoots)
	return cfg
}

func dedupe(paths []string) []string {
	seen := make(map[string]struct{}, len(paths))
	out := paths[:0]
	for _, p := range paths {
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}

func defaultCacheDir() string {
	if base, err := os.UserCacheDir(); err == nil {
		return filepath.Join(base, "rostree")
	}
	return filepath.Join(os.TempDir(), "rostree-cache")
}

// confMap adapts a plain map to koanf's Provider interface.
type confMap struct {
	m map[string]interface{}
}

func mapProvider(m map[string]interface{}) *confMap { return &confMap{m: m} }

func (p *confMap) Read() (map[string]interface{}, error) { return p.m, nil }

func (p *confMap) ReadBytes() ([]byte, error) {
	return nil, fmt.Errorf("not implemented")
}
