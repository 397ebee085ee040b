package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rostree/rostree/pkg/workspace"
)

// scanCommand creates the "scan" command.
func (c *CLI) scanCommand() *cobra.Command {
	var (
		depth  int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "scan [root...]",
		Short: "Find colcon workspaces on this machine",
		Long:  `Scan well-known locations (or the given roots) for colcon workspaces: directories with a src tree of manifests or a built install space.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			roots := args
			if len(roots) == 0 {
				roots = workspace.DefaultScanRoots()
			}

			spin := newSpinnerWithContext(cmd.Context(), "scanning for workspaces")
			spin.Start()
			found := workspace.ScanWorkspaces(roots, workspace.ScanOptions{
				MaxDepth: depth,
				Logger:   c.Logger,
			})
			spin.Stop()

			if asJSON {
				return json.NewEncoder(os.Stdout).Encode(found)
			}

			if len(found) == 0 {
				printInfo("No workspaces found")
				return nil
			}
			for _, ws := range found {
				markers := ""
				if ws.HasSrc {
					markers += " src"
				}
				if ws.HasInstall {
					markers += " install"
				}
				if ws.HasBuild {
					markers += " build"
				}
				fmt.Println(StyleHighlight.Render(ws.Path) + StyleDim.Render(markers))
				printDetail("%d packages", len(ws.Packages))
			}
			printNewline()
			printNextStep("Inspect a workspace", "rostree list --src <path>/src")
			return nil
		},
	}

	cmd.Flags().IntVarP(&depth, "depth", "d", 0, "maximum scan depth below each root")
	cmd.Flags().BoolVar(&asJSON, "json", false, "output JSON")
	return cmd
}
