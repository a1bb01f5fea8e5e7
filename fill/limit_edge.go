package fill

import (
	"math"

	"github.com/rustyeddy/orb/market"
	"github.com/rustyeddy/orb/orb"
)

// limitAtEdge rests one-cancels-other orders on both edges from the end of
// the formation window. A touch is enough; the fill is the edge itself.
type limitAtEdge struct{}

func (limitAtEdge) Mode() Mode { return LimitAtEdge }

func (limitAtEdge) AttemptFill(bars []market.Bar, r orb.OpeningRange, _ Params) Result {
	for i, b := range bars {
		up := touchesAbove(b, r.High)
		down := touchesBelow(b, r.Low)

		var dir market.Direction
		switch {
		case up && down:
			dir = firstTouched(b, r)
		case up:
			dir = market.Up
		case down:
			dir = market.Down
		default:
			continue
		}

		return Result{
			Filled:      true,
			Direction:   dir,
			Price:       r.Edge(dir),
			Time:        b.Time,
			BarIndex:    i,
			SignalIndex: -1,
		}
	}
	return noFill
}

// firstTouched picks the edge nearer the bar open when one bar spans the
// whole range: open, then the nearest extreme. Equal distances go UP.
func firstTouched(b market.Bar, r orb.OpeningRange) market.Direction {
	distUp := math.Abs(r.High - b.Open)
	distDown := math.Abs(b.Open - r.Low)
	if distDown < distUp {
		return market.Down
	}
	return market.Up
}
