package fill

import (
	"github.com/rustyeddy/orb/market"
	"github.com/rustyeddy/orb/orb"
)

// marketOnClose enters at the close of the confirming bar, or of the bar
// EntryDelayBars later, shifted adversely by the configured slippage.
type marketOnClose struct{}

func (marketOnClose) Mode() Mode { return MarketOnClose }

func (marketOnClose) AttemptFill(bars []market.Bar, r orb.OpeningRange, p Params) Result {
	signal, dir := confirmBreakout(bars, r, p.ConfirmBars)
	if dir == market.None {
		return noFill
	}

	delay := p.EntryDelayBars
	if delay < 0 {
		delay = 0
	}
	idx := signal + delay
	if idx >= len(bars) {
		res := noFill
		res.SignalIndex = signal
		return res
	}

	b := bars[idx]
	slip := p.SlippageTicks * p.TickSize
	return Result{
		Filled:        true,
		Direction:     dir,
		Price:         b.Close + dir.Sign()*slip,
		Time:          b.Time,
		BarIndex:      idx,
		SignalIndex:   signal,
		SlippageTicks: p.SlippageTicks,
	}
}
