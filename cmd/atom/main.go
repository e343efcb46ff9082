// Package main is the entry point for the atom command.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/seanpm2001/atom/internal/atom"
	"github.com/seanpm2001/atom/internal/config"
	"github.com/seanpm2001/atom/internal/logging"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

// cli holds state shared by every subcommand.
type cli struct {
	configPath string
	logLevel   string

	cfg    *config.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:   "atom",
		Short: "Observable atom runtime tools",
		Long: `atom loads class definitions written in TOML or YAML, checks them,
and runs Lua scripts against the resulting classes.

Configuration is read from --config, then overridden by ATOM_*
environment variables.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if c.logger != nil {
				_ = c.logger.Sync()
			}
		},
	}

	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "path to configuration file")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	root.AddCommand(
		newCheckCmd(c),
		newRunCmd(c),
		newWatchCmd(c),
		newVersionCmd(),
	)
	return root
}

func (c *cli) setup() error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	if c.logLevel != "" {
		cfg.Log.Level = c.logLevel
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	c.cfg = cfg
	c.logger = logger
	return nil
}

// newRegistry creates an empty class registry configured from c.cfg.
func (c *cli) newRegistry(instr atom.Instrumentation) *atom.Registry {
	opts := []atom.RegistryOption{
		atom.WithRegistryLogger(logging.Component(c.logger, "atom")),
		atom.WithRegistryMaxDepth(c.cfg.Engine.MaxDepth),
	}
	if instr != nil {
		opts = append(opts, atom.WithRegistryInstrumentation(instr))
	}
	return atom.NewRegistry(opts...)
}

var errNoSchemaPaths = errors.New("no definition paths: pass them as arguments or set schema.paths")

// schemaPaths returns args when given, else the configured paths.
func (c *cli) schemaPaths(args []string) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}
	if len(c.cfg.Schema.Paths) > 0 {
		return c.cfg.Schema.Paths, nil
	}
	return nil, errNoSchemaPaths
}
