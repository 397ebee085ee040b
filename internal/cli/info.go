package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rostree/rostree/pkg/errors"
	"github.com/rostree/rostree/pkg/manifest"
)

// infoCommand creates the "info" command.
func (c *CLI) infoCommand() *cobra.Command {
	var (
		asJSON   bool
		srcRoots []string
	)

	cmd := &cobra.Command{
		Use:   "info <package>",
		Short: "Show a package's manifest details",
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

			path, ok := finder.ResolveIn(name, srcRoots)
			if !ok {
				return errors.New(errors.ErrCodePackageNotFound,
					"package '%s' not found", name)
			}

			// nil kind set keeps every declared dependency,
			// buildtool included.
			pkg, err := manifest.ParseFile(path, nil)
			if err != nil {
				return err
			}

			if asJSON {
				return json.NewEncoder(os.Stdout).Encode(pkg)
			}

			printKeyValue("name", pkg.Name)
			printKeyValue("version", pkg.Version)
			printKeyValue("description", pkg.Description)
			printKeyValue("manifest", path)
			printNewline()

			byKind := make(map[manifest.Kind][]string)
			for _, d := range pkg.Dependencies {
				byKind[d.Kind] = append(byKind[d.Kind], d.Name)
			}
			for _, kind := range []manifest.Kind{
				manifest.KindDepend,
				manifest.KindBuild,
				manifest.KindBuildExport,
				manifest.KindExec,
				manifest.KindTest,
				manifest.KindBuildTool,
			} {
				deps := byKind[kind]
				if len(deps) == 0 {
					continue
				}
				fmt.Println(StyleTitle.Render(string(kind)))
				for _, d := range deps {
					fmt.Println("  " + d)
				}
			}
			if len(pkg.Dependencies) == 0 {
				printDetail("no declared dependencies")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "output JSON")
	cmd.Flags().StringSliceVar(&srcRoots, "src", nil, "additional source roots to search")
	return cmd
}
