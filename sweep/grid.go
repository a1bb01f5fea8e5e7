// Package sweep runs a grid of execution configs over a range of days.
package sweep

import (
	"github.com/rustyeddy/orb/backtest"
	"github.com/rustyeddy/orb/fill"
)

// Grid lists candidate values per parameter. An empty axis keeps the base
// config's value.
type Grid struct {
	Modes          []fill.Mode `json:"modes,omitempty" yaml:"modes,omitempty"`
	RRTargets      []float64   `json:"rr_targets,omitempty" yaml:"rr_targets,omitempty"`
	StopFractions  []float64   `json:"stop_fractions,omitempty" yaml:"stop_fractions,omitempty"`
	ConfirmBars    []int       `json:"confirm_bars,omitempty" yaml:"confirm_bars,omitempty"`
	EntryDelayBars []int       `json:"entry_delay_bars,omitempty" yaml:"entry_delay_bars,omitempty"`
	SlippageTicks  []float64   `json:"slippage_ticks,omitempty" yaml:"slippage_ticks,omitempty"`
}

// Expand returns the cartesian product over base in a fixed order, with
// modes varying slowest. Configs that simulate identically (limit modes
// ignore slippage and entry delay) appear once.
func (g Grid) Expand(base backtest.ExecutionConfig) []backtest.ExecutionConfig {
	modes := g.Modes
	if len(modes) == 0 {
		modes = []fill.Mode{base.Mode}
	}
	rrs := orBase(g.RRTargets, base.RRTarget)
	fracs := orBase(g.StopFractions, base.StopFraction)
	confirms := orBase(g.ConfirmBars, base.ConfirmBars)
	delays := orBase(g.EntryDelayBars, base.EntryDelayBars)
	slips := orBase(g.SlippageTicks, base.SlippageTicks)

	seen := make(map[string]bool)
	var out []backtest.ExecutionConfig
	for _, m := range modes {
		for _, rr := range rrs {
			for _, f := range fracs {
				for _, cb := range confirms {
					for _, d := range delays {
						for _, s := range slips {
							c := base
							c.Mode = m
							c.RRTarget = rr
							c.StopFraction = f
							c.ConfirmBars = cb
							c.EntryDelayBars = d
							c.SlippageTicks = s
							c = Normalize(c)

							k := ConfigKey(c)
							if seen[k] {
								continue
							}
							seen[k] = true
							out = append(out, c)
						}
					}
				}
			}
		}
	}
	return out
}

// Size is the number of grid points before duplicates are removed.
func (g Grid) Size() int {
	n := 1
	for _, l := range []int{len(g.Modes), len(g.RRTargets), len(g.StopFractions),
		len(g.ConfirmBars), len(g.EntryDelayBars), len(g.SlippageTicks)} {
		if l > 0 {
			n *= l
		}
	}
	return n
}

// Normalize zeroes fields the config's mode does not read.
func Normalize(c backtest.ExecutionConfig) backtest.ExecutionConfig {
	switch c.Mode {
	case fill.LimitAtEdge:
		c.SlippageTicks = 0
		c.EntryDelayBars = 0
		c.ConfirmBars = 1
		c.RetraceLookaheadBars = 0
		c.CommissionPerContract = 0
	case fill.LimitOnRetrace:
		c.SlippageTicks = 0
		c.EntryDelayBars = 0
		c.CommissionPerContract = 0
	case fill.MarketOnClose:
		c.RetraceLookaheadBars = 0
	}
	return c
}

func orBase[T any](vals []T, base T) []T {
	if len(vals) == 0 {
		return []T{base}
	}
	return vals
}
