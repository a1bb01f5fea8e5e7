package backtest

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rustyeddy/orb/backtest"
	"github.com/rustyeddy/orb/internal/cli/config"
)

// NewSimulateCmd returns the single-day simulation command.
func NewSimulateCmd(rc *config.RootConfig) *cobra.Command {
	var (
		dateStr string
		asJSON  bool
		ef      execFlags
	)

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Simulate one opening range breakout trade for a day",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if dateStr == "" {
				return fmt.Errorf("--date is required")
			}
			day, err := parseDay(dateStr)
			if err != nil {
				return err
			}

			cfg, err := rc.Load()
			if err != nil {
				return err
			}
			log, err := rc.Logger(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			exec := ef.apply(cmd, cfg.Execution)
			if err := exec.Validate(); err != nil {
				return err
			}

			ctx := cmd.Context()
			s, store, err := openSimulator(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer store.Close()

			res, err := s.Simulate(ctx, day, cfg.Session, exec)
			if err != nil {
				return err
			}
			log.Debug("simulated",
				zap.String("day", dateStr),
				zap.String("mode", string(exec.Mode)),
				zap.String("outcome", string(res.Outcome)),
			)

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}
			backtest.PrintResult(out, res)
			return nil
		},
	}

	cmd.Flags().StringVar(&dateStr, "date", "", "Trading day (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the result as JSON")
	ef.register(cmd, backtest.DefaultExecution())

	return cmd
}
