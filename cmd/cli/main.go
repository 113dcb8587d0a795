package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"gostatsplot/internal"
	"gostatsplot/internal/config"
	"gostatsplot/internal/container"
)

// cli carries the state shared by every subcommand
type cli struct {
	configPath string
	verbose    bool

	cfg    *config.Config
	logger *internal.Logger
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	rootCmd := &cobra.Command{
		Use:           "gostatsplot",
		Short:         "Statistical plots annotated with the test that backs them",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.load()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if c.logger != nil {
				c.logger.Sync()
			}
		},
	}
	rootCmd.PersistentFlags().StringVar(&c.configPath, "config", "", "YAML configuration file")
	rootCmd.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "Log at debug level")

	rootCmd.AddCommand(
		newPlotCmd(c),
		newDemoDataCmd(c),
		newMigrateCmd(c),
		newRunsCmd(c),
		newReportCmd(c),
	)
	return rootCmd
}

func (c *cli) load() error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	if c.verbose {
		cfg.LogLevel = "DEBUG"
	}
	c.cfg = cfg
	c.logger = internal.NewLogger(internal.ParseLogLevel(cfg.LogLevel))
	return nil
}

// container wires the stores; callers must Close it
func (c *cli) container(ctx context.Context) (*container.Container, error) {
	return container.New(ctx, c.cfg, c.logger)
}
