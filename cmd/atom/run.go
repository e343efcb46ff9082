package main

import (
	"errors"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/seanpm2001/atom/internal/logging"
	"github.com/seanpm2001/atom/internal/schema"
	"github.com/seanpm2001/atom/internal/script"
)

func newRunCmd(c *cli) *cobra.Command {
	var (
		schemas []string
		code    string
	)

	cmd := &cobra.Command{
		Use:   "run [script.lua]",
		Short: "Run a Lua script against the loaded classes",
		Long: `Loads class definitions, then runs a Lua script with the global
atom table available. Definitions come from --schema or, when it is not
given, the configured schema.paths.

Example:
  atom run --schema defs/ -e 'local p = atom.new("Point") p.x = 3 print(p.x)'`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if (len(args) == 0) == (code == "") {
				return errors.New("give exactly one of a script file or --exec")
			}

			reg := c.newRegistry(nil)
			paths := schemas
			if len(paths) == 0 {
				paths = c.cfg.Schema.Paths
			}
			if len(paths) > 0 {
				res, err := schema.LoadInto(reg, paths...)
				if err != nil {
					return err
				}
				c.logger.Debug("Definitions loaded",
					zap.Int("files", len(res.Files)),
					zap.Int("classes", reg.Len()))
			}

			host, err := script.New(reg,
				script.WithTimeout(c.cfg.Script.Timeout.Std()),
				script.WithCallStackSize(c.cfg.Script.CallStackSize),
				script.WithLogger(logging.Component(c.logger, "script")),
				script.WithOutput(cmd.OutOrStdout()),
			)
			if err != nil {
				return err
			}
			defer host.Close()

			if code != "" {
				return host.DoString(cmd.Context(), "exec", code)
			}
			return host.DoFile(cmd.Context(), args[0])
		},
	}

	cmd.Flags().StringSliceVarP(&schemas, "schema", "s", nil, "definition files or directories")
	cmd.Flags().StringVarP(&code, "exec", "e", "", "run this Lua chunk instead of a file")
	return cmd
}
