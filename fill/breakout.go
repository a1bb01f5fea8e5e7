package fill

import (
	"github.com/rustyeddy/orb/market"
	"github.com/rustyeddy/orb/orb"
)

// confirmBreakout returns the first bar index at which confirm consecutive
// closes lie strictly beyond one edge. A close back inside the range resets
// both counts.
func confirmBreakout(bars []market.Bar, r orb.OpeningRange, confirm int) (int, market.Direction) {
	if confirm < 1 {
		confirm = 1
	}
	up, down := 0, 0
	for i, b := range bars {
		switch {
		case b.Close > r.High:
			up++
			down = 0
		case b.Close < r.Low:
			down++
			up = 0
		default:
			up, down = 0, 0
		}
		if up >= confirm {
			return i, market.Up
		}
		if down >= confirm {
			return i, market.Down
		}
	}
	return -1, market.None
}

// A touch is inclusive: trading exactly at price counts.
func touchesAbove(b market.Bar, price float64) bool { return b.High >= price }
func touchesBelow(b market.Bar, price float64) bool { return b.Low <= price }
