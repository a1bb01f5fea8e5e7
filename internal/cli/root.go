package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/rustyeddy/orb/internal/cli/backtest"
	"github.com/rustyeddy/orb/internal/cli/config"
	"github.com/rustyeddy/orb/internal/cli/data"
	"github.com/rustyeddy/orb/internal/cli/results"
)

// Version is set at build time with -ldflags "-X".
var Version = "dev"

func NewRootCmd() *cobra.Command {
	rc := &config.RootConfig{}

	cmd := &cobra.Command{
		Use:           "orb",
		Short:         "ORB: opening range breakout backtesting and parameter sweeps",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global / persistent flags
	cmd.PersistentFlags().StringVar(&rc.ConfigPath, "config", "", "Path to config file (optional, YAML or JSON)")
	cmd.PersistentFlags().StringVar(&rc.DBPath, "db", "", "SQLite journal database (overrides journal.db_path)")
	cmd.PersistentFlags().StringVar(&rc.LogLevel, "log-level", "", "Log level: debug|info|warn|error")
	cmd.PersistentFlags().BoolVar(&rc.NoColor, "no-color", false, "Disable colored output")

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if rc.NoColor {
			text.DisableColors()
		}
		return nil
	}

	// Subcommands
	cmd.AddCommand(
		backtest.NewSimulateCmd(rc),
		backtest.NewSweepCmd(rc),
		results.New(rc),
		data.New(rc),
		config.New(rc),
	)

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "orb %s\n", Version)
		},
	})

	return cmd
}

// Execute runs the root command. An interrupt cancels the running command;
// a sweep then journals what it finished.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}
