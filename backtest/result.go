package backtest

import (
	"time"

	"github.com/rustyeddy/orb/fill"
	"github.com/rustyeddy/orb/market"
	"github.com/rustyeddy/orb/sim"
)

// TradeResult is the single artifact of one (day, session, config)
// simulation. It is built once and never modified.
//
// RMultiple is canonical: +RRTarget, -1 or 0, independent of costs. CostR is
// reported next to it so callers can derive cost-adjusted figures.
type TradeResult struct {
	Date       time.Time
	Session    string
	Instrument string

	Outcome    sim.Outcome
	SkipReason string // set for SKIPPED_NO_ENTRY
	Direction  market.Direction

	RangeHigh float64
	RangeLow  float64

	EntryPrice   float64
	EntryTime    time.Time
	StopPrice    float64
	TargetPrice  float64
	StopDistance float64 // canonical risk in price units
	RealRisk     float64 // |entry - stop|, risk actually carried from the fill

	RMultiple float64
	MAER      float64
	MFER      float64

	ExitPrice float64
	ExitTime  time.Time

	ExecutionMode fill.Mode
	SlippageTicks float64
	Commission    float64
	CostR         float64
	FillTime      time.Time
}

// Filled reports whether an entry happened.
func (t TradeResult) Filled() bool { return t.Outcome != sim.SkippedNoEntry }

// NetR is the cost-adjusted R of the trade.
func (t TradeResult) NetR() float64 { return t.RMultiple - t.CostR }

func (t TradeResult) RangeSize() float64 { return t.RangeHigh - t.RangeLow }

// Skip reasons for SKIPPED_NO_ENTRY results.
const (
	SkipDegenerateRange = "DEGENERATE_RANGE"
	SkipNoFill          = "NO_FILL"
)
