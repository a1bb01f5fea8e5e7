package backtest

import (
	"errors"
	"fmt"

	"github.com/rustyeddy/orb/fill"
	"github.com/rustyeddy/orb/market"
	"github.com/rustyeddy/orb/orb"
	"github.com/rustyeddy/orb/risk"
)

var ErrInvalidConfig = errors.New("invalid execution config")

// ExecutionConfig fully determines how one (day, range) pair is simulated.
// It is a value; copies are independent.
type ExecutionConfig struct {
	Mode                  fill.Mode      `json:"mode" yaml:"mode"`
	RRTarget              float64        `json:"rr_target" yaml:"rr_target"`
	StopFraction          float64        `json:"stop_fraction" yaml:"stop_fraction"`
	ConfirmBars           int            `json:"confirm_bars" yaml:"confirm_bars"`
	EntryDelayBars        int            `json:"entry_delay_bars" yaml:"entry_delay_bars"`
	SlippageTicks         float64        `json:"slippage_ticks" yaml:"slippage_ticks"`
	CommissionPerContract float64        `json:"commission_per_contract" yaml:"commission_per_contract"`
	MaxStopTicks          float64        `json:"max_stop_ticks" yaml:"max_stop_ticks"` // 0 = unlimited
	SizeFilter            orb.SizeFilter `json:"orb_size_filter" yaml:"orb_size_filter"`
	RetraceLookaheadBars  int            `json:"retrace_lookahead_bars" yaml:"retrace_lookahead_bars"` // 0 = to session end
	MaxHoldBars           int            `json:"max_hold_bars" yaml:"max_hold_bars"`                   // 0 = to session end
}

// DefaultExecution is a market-on-close 2R setup with the stop on the
// opposite edge.
func DefaultExecution() ExecutionConfig {
	return ExecutionConfig{
		Mode:                  fill.MarketOnClose,
		RRTarget:              2,
		StopFraction:          1,
		ConfirmBars:           1,
		SlippageTicks:         1,
		CommissionPerContract: 2.5,
		RetraceLookaheadBars:  30,
	}
}

// Validate checks caller-supplied values. An unknown mode is reported as
// fill.ErrUnknownMode. A market fill always pays, so market-on-close with
// neither slippage nor commission is rejected.
func (c ExecutionConfig) Validate() error {
	if _, err := fill.New(c.Mode); err != nil {
		return err
	}
	switch {
	case c.RRTarget <= 0:
		return fmt.Errorf("%w: rr_target must be positive", ErrInvalidConfig)
	case c.StopFraction <= 0 || c.StopFraction > 1:
		return fmt.Errorf("%w: stop_fraction must be in (0, 1]", ErrInvalidConfig)
	case c.ConfirmBars < 1:
		return fmt.Errorf("%w: confirm_bars must be at least 1", ErrInvalidConfig)
	case c.EntryDelayBars < 0:
		return fmt.Errorf("%w: entry_delay_bars must not be negative", ErrInvalidConfig)
	case c.SlippageTicks < 0:
		return fmt.Errorf("%w: slippage_ticks must not be negative", ErrInvalidConfig)
	case c.CommissionPerContract < 0:
		return fmt.Errorf("%w: commission_per_contract must not be negative", ErrInvalidConfig)
	case c.MaxStopTicks < 0:
		return fmt.Errorf("%w: max_stop_ticks must not be negative", ErrInvalidConfig)
	case c.RetraceLookaheadBars < 0:
		return fmt.Errorf("%w: retrace_lookahead_bars must not be negative", ErrInvalidConfig)
	case c.MaxHoldBars < 0:
		return fmt.Errorf("%w: max_hold_bars must not be negative", ErrInvalidConfig)
	case c.SizeFilter.MaxTicks > 0 && c.SizeFilter.MinTicks > c.SizeFilter.MaxTicks:
		return fmt.Errorf("%w: orb_size_filter min above max", ErrInvalidConfig)
	case c.Mode == fill.MarketOnClose && c.SlippageTicks == 0 && c.CommissionPerContract == 0:
		return fmt.Errorf("%w: market_on_close needs slippage_ticks or commission_per_contract above zero", ErrInvalidConfig)
	}
	return nil
}

// FillParams projects the config onto what the fill simulators read.
func (c ExecutionConfig) FillParams(inst market.Instrument) fill.Params {
	p := fill.Params{
		ConfirmBars:          c.ConfirmBars,
		TickSize:             inst.TickSize,
		RetraceLookaheadBars: c.RetraceLookaheadBars,
	}
	// only the market protocol slips or waits
	if c.Mode == fill.MarketOnClose {
		p.SlippageTicks = c.SlippageTicks
		p.EntryDelayBars = c.EntryDelayBars
	}
	return p
}

func (c ExecutionConfig) Filters() risk.Filters {
	return risk.Filters{MaxStopTicks: c.MaxStopTicks, RangeSize: c.SizeFilter}
}
