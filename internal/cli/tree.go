package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rostree/rostree/pkg/tree"
)

// treeCommand creates the "tree" command.
func (c *CLI) treeCommand() *cobra.Command {
	var (
		maxDepth  int
		maxNodes  int
		runtime   bool
		buildtool bool
		refresh   bool
		asJSON    bool
		srcRoots  []string
	)

	cmd := &cobra.Command{
		Use:   "tree <package>",
		Short: "Show a package's dependency tree",
		Long:  `Resolve and display the recursive dependency tree of a package. Missing dependencies, cycles, and manifests that fail to parse are annotated inline rather than aborting the tree.`,
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

			opts := tree.Options{
				MaxDepth:         maxDepth,
				MaxNodes:         maxNodes,
				IncludeBuildTool: buildtool,
				ExtraSourceRoots: srcRoots,
				Refresh:          refresh,
			}
			if maxDepth == 0 {
				opts.MaxDepth = cfg.MaxDepth
			}
			if maxNodes == 0 {
				opts.MaxNodes = cfg.MaxNodes
			}
			if runtime {
				opts.Filter = tree.FilterRuntime
			}

			p := newProgress(c.Logger)
			spin := newSpinnerWithContext(cmd.Context(), "resolving dependencies")
			spin.Start()
			root := builder.Build(cmd.Context(), name, opts)
			spin.Stop()
			p.done(fmt.Sprintf("Resolved %d nodes", root.Count()))

			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(root)
			}

			renderTree(os.Stdout, root)
			printNewline()
			printStats(root.Count(), root.Count()-1, false)
			return nil
		},
	}

	cmd.Flags().IntVarP(&maxDepth, "depth", "d", 0, "maximum tree depth in edges (0 = unlimited)")
	cmd.Flags().IntVar(&maxNodes, "max-nodes", 0, "maximum number of tree nodes")
	cmd.Flags().BoolVar(&runtime, "runtime", false, "follow runtime dependencies only")
	cmd.Flags().BoolVar(&buildtool, "buildtool", false, "include buildtool dependencies")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "discard memoized results before resolving")
	cmd.Flags().BoolVar(&asJSON, "json", false, "output JSON")
	cmd.Flags().StringSliceVar(&srcRoots, "src", nil, "additional source roots to search")
	return cmd
}

// renderTree writes the tree with box-drawing connectors.
func renderTree(w io.Writer, root *tree.Node) {
	fmt.Fprintln(w, nodeLine(root))
	renderChildren(w, root, "")
}

func renderChildren(w io.Writer, n *tree.Node, prefix string) {
	for i, child := range n.Children {
		connector, childPrefix := "├── ", prefix+"│   "
		if i == len(n.Children)-1 {
			connector, childPrefix = "└── ", prefix+"    "
		}
		fmt.Fprintln(w, prefix+connector+nodeLine(child))
		renderChildren(w, child, childPrefix)
	}
}

// nodeLine formats one node: name, version if known, and a status
// annotation for anything unresolved.
func nodeLine(n *tree.Node) string {
	var b strings.Builder
	b.WriteString(n.Name)
	if n.Version != "" {
		b.WriteString(" " + StyleDim.Render(n.Version))
	}
	if note := statusNote(n.Status); note != "" {
		b.WriteString(" " + note)
	}
	return b.String()
}

func statusNote(s tree.Status) string {
	switch s {
	case tree.StatusNotFound:
		return StyleError.Render("(not found)")
	case tree.StatusCycle:
		return StyleWarning.Render("(cycle)")
	case tree.StatusParseError:
		return StyleError.Render("(parse error)")
	case tree.StatusTruncated:
		return StyleDim.Render("(truncated)")
	}
	return ""
}
