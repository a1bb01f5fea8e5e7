package risk

import (
	"errors"
	"fmt"

	"github.com/rustyeddy/orb/market"
)

var (
	ErrZeroRisk    = errors.New("risk is zero")
	ErrNoDirection = errors.New("no breakout direction")
)

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

// Plan holds the stop and target of a trade, both anchored to the broken
// range edge. Risk is the canonical stop distance in price units.
type Plan struct {
	Direction market.Direction
	Edge      float64
	Stop      float64
	Target    float64
	Risk      float64
	RR        float64
}

// Levels computes the plan for a breakout through edge:
//
//	risk   = stopFraction * rangeSize
//	stop   = edge - dir*risk
//	target = edge + dir*rr*risk
//
// The fill price never enters this calculation, so every fill protocol
// yields the same stop and target for the same range and config.
func Levels(edge float64, dir market.Direction, rangeSize, stopFraction, rr float64) (Plan, error) {
	if dir == market.None {
		return Plan{}, ErrNoDirection
	}
	risk := stopFraction * rangeSize
	if risk <= 0 {
		return Plan{}, fmt.Errorf("range %.6f x fraction %.4f: %w", rangeSize, stopFraction, ErrZeroRisk)
	}
	s := dir.Sign()
	return Plan{
		Direction: dir,
		Edge:      edge,
		Stop:      edge - s*risk,
		Target:    edge + s*rr*risk,
		Risk:      risk,
		RR:        rr,
	}, nil
}

// RR is the reward:risk ratio seen from an arbitrary entry price.
func RR(entry, stop, takeProfit float64) float64 {
	risk := abs(entry - stop)
	reward := abs(takeProfit - entry)
	if risk == 0 {
		return 0
	}
	return reward / risk
}

// RealRisk is the stop distance actually carried from a (possibly slipped)
// fill, as opposed to the canonical plan risk.
func RealRisk(fill, stop float64) float64 {
	return abs(fill - stop)
}
