package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"
)

// listCommand creates the "list" command.
func (c *CLI) listCommand() *cobra.Command {
	var (
		bySource  bool
		showPaths bool
		asJSON    bool
		srcRoots  []string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List discoverable ROS 2 packages",
		Long:  `List every package discoverable through the configured install spaces, workspace source trees, and the ROS environment. Install spaces win when a package appears in both.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig(cmd)
			if err != nil {
				return err
			}
			finder, err := c.newFinder(cfg)
			if err != nil {
				return err
			}

			if bySource {
				groups := finder.ListBySource(srcRoots)
				if asJSON {
					return json.NewEncoder(os.Stdout).Encode(groups)
				}
				for _, g := range groups {
					printNewline()
					fmt.Println(StyleTitle.Render(string(g.Kind)) + " " + StyleDim.Render(g.Root))
					for _, name := range g.Packages {
						fmt.Println("  " + name)
					}
					printDetail("%d packages", len(g.Packages))
				}
				return nil
			}

			all := finder.ListAllIn(srcRoots)
			names := make([]string, 0, len(all))
			for name := range all {
				names = append(names, name)
			}
			sort.Strings(names)

			if asJSON {
				return json.NewEncoder(os.Stdout).Encode(names)
			}
			for _, name := range names {
				if showPaths {
					fmt.Println(name + " " + StyleDim.Render(all[name]))
				} else {
					fmt.Println(name)
				}
			}
			printDetail("%d packages", len(names))
			return nil
		},
	}

	cmd.Flags().BoolVar(&bySource, "by-source", false, "group packages by where they were found")
	cmd.Flags().BoolVar(&showPaths, "paths", false, "show manifest paths")
	cmd.Flags().BoolVar(&asJSON, "json", false, "output JSON")
	cmd.Flags().StringSliceVar(&srcRoots, "src", nil, "additional source roots to search")
	return cmd
}
