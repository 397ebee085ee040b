// Package cli implements the rostree command-line interface.
package cli

import (
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/rostree/rostree/internal/config"
	"github.com/rostree/rostree/pkg/buildinfo"
	"github.com/rostree/rostree/pkg/cache"
	"github.com/rostree/rostree/pkg/tree"
	"github.com/rostree/rostree/pkg/workspace"
)

// appName is the application name used for directories and display.
const appName = "rostree"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// memo is shared across commands within one invocation so that,
	// e.g., tree following info reuses resolution work.
	memo *tree.Memo
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		memo:   tree.NewMemo(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands
// registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "rostree inspects ROS 2 package dependency trees",
		Long:         `rostree discovers ROS 2 packages across install spaces and workspace source trees, resolves their dependency trees from package.xml manifests, and renders the result as text, JSON, or graphs.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	root.AddCommand(c.listCommand())
	root.AddCommand(c.infoCommand())
	root.AddCommand(c.treeCommand())
	root.AddCommand(c.graphCommand())
	root.AddCommand(c.scanCommand())
	root.AddCommand(c.tuiCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// loadConfig loads the layered configuration, letting the command's
// flags take highest priority.
func (c *CLI) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	return config.Load(cmd.Flags())
}

// newFinder builds the package finder from configuration.
func (c *CLI) newFinder(cfg *config.Config) (*workspace.Finder, error) {
	opts := []workspace.Option{workspace.WithLogger(c.Logger)}
	if cfg.Ros2Fallback {
		opts = append(opts, workspace.WithCommandFallback(workspace.NewCommandResolver()))
	}
	return workspace.NewFinder(cfg.SearchConfig(), opts...)
}

// newBuilder builds the tree builder over a finder, sharing the
// invocation-wide memo.
func (c *CLI) newBuilder(finder *workspace.Finder) *tree.Builder {
	return tree.NewBuilder(finder, tree.WithMemo(c.memo), tree.WithLogger(c.Logger))
}

// artifactCache selects the cache backend for rendered graphs,
// honoring the configured backend the same way serve does.
func artifactCache(cmd *cobra.Command, cfg *config.Config, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	return serveCache(cmd, cfg.Cache, cfg.CacheDir, cfg.RedisAddr)
}
