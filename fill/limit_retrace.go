package fill

import (
	"github.com/rustyeddy/orb/market"
	"github.com/rustyeddy/orb/orb"
)

// limitOnRetrace waits for a confirmed close-based breakout, then for a bar
// that trades back to the broken edge within the lookahead.
type limitOnRetrace struct{}

func (limitOnRetrace) Mode() Mode { return LimitOnRetrace }

func (limitOnRetrace) AttemptFill(bars []market.Bar, r orb.OpeningRange, p Params) Result {
	signal, dir := confirmBreakout(bars, r, p.ConfirmBars)
	if dir == market.None {
		return noFill
	}

	edge := r.Edge(dir)
	last := len(bars) - 1
	if p.RetraceLookaheadBars > 0 && signal+p.RetraceLookaheadBars < last {
		last = signal + p.RetraceLookaheadBars
	}

	for i := signal + 1; i <= last; i++ {
		b := bars[i]
		retraced := dir == market.Up && touchesBelow(b, edge) ||
			dir == market.Down && touchesAbove(b, edge)
		if !retraced {
			continue
		}
		return Result{
			Filled:      true,
			Direction:   dir,
			Price:       edge,
			Time:        b.Time,
			BarIndex:    i,
			SignalIndex: signal,
		}
	}

	res := noFill
	res.SignalIndex = signal
	return res
}
