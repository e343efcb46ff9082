package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/seanpm2001/atom/internal/schema"
)

func newCheckCmd(c *cli) *cobra.Command {
	var members bool

	cmd := &cobra.Command{
		Use:   "check [path...]",
		Short: "Validate class definition files",
		Long: `Parses and builds every class defined in the given files or
directories. Directories are searched for .toml, .yaml and .yml files.
Without arguments the configured schema.paths are checked.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := c.schemaPaths(args)
			if err != nil {
				return err
			}

			reg := c.newRegistry(nil)
			res, err := schema.LoadInto(reg, paths...)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, name := range reg.Classes() {
				cls, err := reg.Class(name)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%s\t%d members\n", name, cls.Len())
				if !members {
					continue
				}
				for _, m := range cls.Members() {
					line := fmt.Sprintf("  %s\t%s", m.Name(), m.ValidateMode().Kind())
					if deps := cls.Dependents(m.Name()); len(deps) > 0 {
						line += "\t-> " + strings.Join(deps, ", ")
					}
					fmt.Fprintln(out, line)
				}
			}
			fmt.Fprintf(out, "%d classes in %d files\n", reg.Len(), len(res.Files))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&members, "members", "m", false, "list the members of each class")
	return cmd
}
