package sim

import (
	"github.com/rustyeddy/orb/market"
	"github.com/rustyeddy/orb/risk"
)

// hitStop reports whether bar b trades through the plan's stop.
func hitStop(p risk.Plan, b market.Bar) bool {
	if p.Direction == market.Up {
		return b.Low <= p.Stop
	}
	return b.High >= p.Stop
}

// hitTarget reports whether bar b trades through the plan's target.
func hitTarget(p risk.Plan, b market.Bar) bool {
	if p.Direction == market.Up {
		return b.High >= p.Target
	}
	return b.Low <= p.Target
}

// excursion returns the bar's adverse and favorable extremes in R, measured
// from the edge. adverse <= 0 <= favorable only when the bar straddles it.
func excursion(p risk.Plan, b market.Bar) (adverse, favorable float64) {
	if p.Direction == market.Up {
		return (b.Low - p.Edge) / p.Risk, (b.High - p.Edge) / p.Risk
	}
	return (p.Edge - b.High) / p.Risk, (p.Edge - b.Low) / p.Risk
}
