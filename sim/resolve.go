// Package sim walks bars forward from a fill and resolves the trade.
package sim

import (
	"time"

	"github.com/rustyeddy/orb/market"
	"github.com/rustyeddy/orb/risk"
)

// Resolution is the result of walking a filled trade to its end.
type Resolution struct {
	Outcome   Outcome
	RMultiple float64
	MAER      float64 // most adverse excursion in R, <= 0
	MFER      float64 // most favorable excursion in R, >= 0
	ExitIndex int     // -1 when unresolved
	ExitTime  time.Time
	ExitPrice float64
	BarsHeld  int
}

// Resolve walks bars strictly after fillIndex and checks each bar against
// the plan's stop and target. A bar crossing both is a loss: the order of
// prices inside a bar is unknown, so the adverse path is assumed, and MFE
// keeps only what bars before the stop bar reached.
//
// maxHoldBars limits how many bars are examined; 0 means to the end of bars.
// A trade that reaches neither level is NO_OUTCOME, not an error.
func Resolve(bars []market.Bar, fillIndex int, p risk.Plan, maxHoldBars int) Resolution {
	res := Resolution{Outcome: NoOutcome, ExitIndex: -1}

	last := len(bars) - 1
	if maxHoldBars > 0 && fillIndex+maxHoldBars < last {
		last = fillIndex + maxHoldBars
	}

	for i := fillIndex + 1; i <= last; i++ {
		b := bars[i]
		res.BarsHeld++

		stop := hitStop(p, b)
		target := hitTarget(p, b)
		adverse, favorable := excursion(p, b)

		switch {
		case stop:
			res.Outcome = Loss
			res.RMultiple = -1
			res.MAER = -1
			// the stop bar is taken as moving straight to the stop, so its
			// favorable wick never counts
			res.ExitPrice = p.Stop
		case target:
			res.Outcome = Win
			res.RMultiple = p.RR
			res.MFER = p.RR
			res.MAER = minf(res.MAER, maxf(adverse, -1))
			res.ExitPrice = p.Target
		default:
			res.MAER = minf(res.MAER, adverse)
			res.MFER = maxf(res.MFER, favorable)
			continue
		}

		res.ExitIndex = i
		res.ExitTime = b.Time
		return res
	}

	if last > fillIndex && last < len(bars) {
		res.ExitPrice = bars[last].Close
		res.ExitTime = bars[last].Time
	}
	return res
}

func minf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
