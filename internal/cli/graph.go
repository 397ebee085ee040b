package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rostree/rostree/pkg/cache"
	"github.com/rostree/rostree/pkg/errors"
	"github.com/rostree/rostree/pkg/graph"
	"github.com/rostree/rostree/pkg/tree"
)

// graphCommand creates the "graph" command.
func (c *CLI) graphCommand() *cobra.Command {
	var (
		format   string
		output   string
		maxDepth int
		runtime  bool
		detailed bool
		noCache  bool
		srcRoots []string
	)

	cmd := &cobra.Command{
		Use:   "graph <package>",
		Short: "Export a package's dependency graph",
		Long:  `Flatten a package's dependency tree into a node-link graph and export it as DOT, Mermaid, SVG, or PNG. Rendered formats are cached by content hash.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			cfg, err := c.loadConfig(cmd)
			if err != nil {
				return err
			}
			finder, err := c.newFinder(cfg)
			if err != nil {
				return err
			}
			builder := c.newBuilder(finder)

			opts := tree.Options{MaxDepth: maxDepth, ExtraSourceRoots: srcRoots}
			if runtime {
				opts.Filter = tree.FilterRuntime
			}

			spin := newSpinnerWithContext(cmd.Context(), "resolving dependencies")
			spin.Start()
			root := builder.Build(cmd.Context(), name, opts)
			spin.Stop()

			if root.Status == tree.StatusNotFound {
				return errors.New(errors.ErrCodePackageNotFound,
					"package '%s' not found", name)
			}

			g := graph.FromTree(root)
			dot := graph.ToDOT(g, graph.DOTOptions{Detailed: detailed})

			var data []byte
			var cached bool
			switch format {
			case "dot":
				data = []byte(dot)
			case "mermaid":
				data = []byte(graph.ToMermaid(g))
			case "svg", "png":
				store, err := artifactCache(cmd, cfg, noCache)
				if err != nil {
					return err
				}
				spin := newSpinnerWithContext(cmd.Context(), fmt.Sprintf("rendering %s", format))
				spin.Start()
				data, cached, err = c.renderCached(cmd, store, format, dot)
				if err != nil {
					spin.StopWithError("Rendering failed")
					return err
				}
				spin.Stop()
			default:
				return errors.New(errors.ErrCodeInvalidFormat,
					"unsupported format '%s' (dot, mermaid, svg, png)", format)
			}

			if output == "" || output == "-" {
				if format == "svg" || format == "png" {
					return errors.New(errors.ErrCodeInvalidInput,
						"rendered formats need --output")
				}
				fmt.Print(string(data))
				return nil
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return err
			}
			printSuccess("Exported %s graph for %s", format, StyleHighlight.Render(name))
			printFile(output)
			printStats(len(g.Nodes), len(g.Edges), cached)
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "dot", "output format: dot, mermaid, svg, png")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout for text formats)")
	cmd.Flags().IntVarP(&maxDepth, "depth", "d", 0, "maximum tree depth in edges (0 = unlimited)")
	cmd.Flags().BoolVar(&runtime, "runtime", false, "follow runtime dependencies only")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "include versions in node labels")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "bypass the artifact cache")
	cmd.Flags().StringSliceVar(&srcRoots, "src", nil, "additional source roots to search")
	return cmd
}

// renderCached renders DOT to the requested format through the
// artifact cache.
func (c *CLI) renderCached(cmd *cobra.Command, store cache.Cache, format, dot string) ([]byte, bool, error) {
	defer store.Close()

	key := cache.ArtifactKey(format, cache.Hash([]byte(dot)))
	if data, ok, err := store.Get(cmd.Context(), key); err == nil && ok {
		return data, true, nil
	}

	var data []byte
	var err error
	if format == "svg" {
		data, err = graph.RenderSVG(cmd.Context(), dot)
	} else {
		data, err = graph.RenderPNG(cmd.Context(), dot)
	}
	if err != nil {
		return nil, false, err
	}
	if err := store.Set(cmd.Context(), key, data, cache.DefaultTTL); err != nil {
		c.Logger.Warn("artifact cache write failed", "err", err)
	}
	return data, false, nil
}
