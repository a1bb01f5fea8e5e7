// Package backtest holds the simulate and sweep commands.
package backtest

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rustyeddy/orb/backtest"
	"github.com/rustyeddy/orb/barstore"
	orbcfg "github.com/rustyeddy/orb/config"
	"github.com/rustyeddy/orb/fill"
)

const dateLayout = "2006-01-02"

// openSimulator opens the configured bar store and builds a simulator over
// it. The caller closes the store.
func openSimulator(ctx context.Context, cfg *orbcfg.Config, log *zap.Logger) (*backtest.Simulator, barstore.Store, error) {
	inst, err := cfg.Instrument.Resolve()
	if err != nil {
		return nil, nil, err
	}
	store, err := barstore.Open(ctx, cfg.Data)
	if err != nil {
		return nil, nil, fmt.Errorf("open bars: %w", err)
	}
	return &backtest.Simulator{
		Bars:       store,
		Ranges:     barstore.Ranges(store),
		Instrument: inst,
		Logger:     log,
	}, store, nil
}

// execFlags overrides single execution fields from the command line.
type execFlags struct {
	mode       string
	rr         float64
	stopFrac   float64
	confirm    int
	delay      int
	slippage   float64
	commission float64
}

func (f *execFlags) register(cmd *cobra.Command, base backtest.ExecutionConfig) {
	cmd.Flags().StringVar(&f.mode, "mode", string(base.Mode), "Fill mode: market_on_close|limit_at_edge|limit_on_retrace")
	cmd.Flags().Float64Var(&f.rr, "rr", base.RRTarget, "Target as a multiple of risk")
	cmd.Flags().Float64Var(&f.stopFrac, "stop-frac", base.StopFraction, "Stop distance as a fraction of the range")
	cmd.Flags().IntVar(&f.confirm, "confirm", base.ConfirmBars, "Closes beyond the edge required to signal")
	cmd.Flags().IntVar(&f.delay, "delay", base.EntryDelayBars, "Bars between signal and market entry")
	cmd.Flags().Float64Var(&f.slippage, "slippage", base.SlippageTicks, "Slippage ticks for market fills")
	cmd.Flags().Float64Var(&f.commission, "commission", base.CommissionPerContract, "Round-turn commission per contract")
}

func (f *execFlags) apply(cmd *cobra.Command, c backtest.ExecutionConfig) backtest.ExecutionConfig {
	fl := cmd.Flags()
	if fl.Changed("mode") {
		c.Mode = fill.Mode(f.mode)
	}
	if fl.Changed("rr") {
		c.RRTarget = f.rr
	}
	if fl.Changed("stop-frac") {
		c.StopFraction = f.stopFrac
	}
	if fl.Changed("confirm") {
		c.ConfirmBars = f.confirm
	}
	if fl.Changed("delay") {
		c.EntryDelayBars = f.delay
	}
	if fl.Changed("slippage") {
		c.SlippageTicks = f.slippage
	}
	if fl.Changed("commission") {
		c.CommissionPerContract = f.commission
	}
	return c
}

func parseDay(s string) (time.Time, error) {
	d, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad date %q: want YYYY-MM-DD", s)
	}
	return d, nil
}
