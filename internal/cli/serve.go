package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rostree/rostree/internal/watch"
	"github.com/rostree/rostree/internal/web"
	"github.com/rostree/rostree/pkg/cache"
	"github.com/rostree/rostree/pkg/tree"
)

// serveCommand creates the "serve" command.
func (c *CLI) serveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the rostree HTTP API",
		Long:  `Start the HTTP API that backs the web frontend: package listing, dependency trees, and rendered graphs. With --watch, manifest changes in workspace source trees invalidate resolution state so responses stay fresh.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := loggerFromContext(cmd.Context())
			cfg, err := c.loadConfig(cmd)
			if err != nil {
				return err
			}
			finder, err := c.newFinder(cfg)
			if err != nil {
				return err
			}

			memo := tree.NewMemo()
			artifacts, err := serveCache(cmd, cfg.Cache, cfg.CacheDir, cfg.RedisAddr)
			if err != nil {
				return err
			}
			defer artifacts.Close()

			server := web.NewServer(finder, memo,
				web.WithArtifactCache(artifacts),
				web.WithLogger(logger),
			)

			if cfg.Watch {
				roots := finder.Config().SourceRoots(nil)
				watcher, err := watch.New(roots, logger)
				if err != nil {
					return err
				}
				if err := watcher.Start(cmd.Context()); err != nil {
					return err
				}
				go func() {
					for range watcher.Events() {
						logger.Info("workspace changed, invalidating resolution state")
						memo.Invalidate()
					}
				}()
			}

			addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
			printInfo("Serving on http://%s", addr)
			return server.Run(cmd.Context(), addr)
		},
	}

	cmd.Flags().String("host", "127.0.0.1", "listen address")
	cmd.Flags().Int("port", 8080, "listen port")
	cmd.Flags().Bool("watch", false, "invalidate state when workspace manifests change")
	return cmd
}

// serveCache picks the server-side artifact cache backend.
func serveCache(cmd *cobra.Command, backend, dir, redisAddr string) (cache.Cache, error) {
	switch backend {
	case "none":
		return cache.NewNullCache(), nil
	case "redis":
		return cache.NewRedisCache(cmd.Context(), redisAddr)
	default:
		return cache.NewFileCache(dir)
	}
}
