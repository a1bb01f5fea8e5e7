package config

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	orbcfg "github.com/rustyeddy/orb/config"
)

// New returns the config command group.
func New(rc *RootConfig) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Create and check configuration files",
	}
	cmd.AddCommand(newInitCmd(), newValidateCmd(rc))
	return cmd
}

func newInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init <path>",
		Short: "Write a default config (YAML for .yaml/.yml, JSON otherwise)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s exists (use --force to overwrite)", path)
			}
			if err := orbcfg.Default().SaveToFile(path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")
	return cmd
}

func newValidateCmd(rc *RootConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [path]",
		Short: "Load a config and report the sweep it describes",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				rc.ConfigPath = args[0]
			}
			cfg, err := rc.Load()
			if err != nil {
				return err
			}
			inst, _ := cfg.Instrument.Resolve()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "ok: %s %s, %d configs, data=%s\n",
				inst.Symbol, cfg.Session.Label, len(cfg.Configs()), cfg.Data.Kind)
			return nil
		},
	}
}
