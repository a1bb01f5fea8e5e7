// Package fill decides if, when and at what price a breakout order fills.
//
// Each fill protocol is a Simulator. Simulators are stateless; the same value
// may be shared by any number of goroutines.
package fill

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rustyeddy/orb/market"
	"github.com/rustyeddy/orb/orb"
)

var ErrUnknownMode = errors.New("unknown execution mode")

// Mode names a fill protocol.
type Mode string

const (
	MarketOnClose  Mode = "market_on_close"
	LimitAtEdge    Mode = "limit_at_edge"
	LimitOnRetrace Mode = "limit_on_retrace"
)

// IsLimit reports whether the protocol rests a limit order at the edge.
func (m Mode) IsLimit() bool { return m == LimitAtEdge || m == LimitOnRetrace }

// Params are the execution settings a simulator reads.
type Params struct {
	ConfirmBars          int     // consecutive closes beyond the edge, min 1
	EntryDelayBars       int     // market-on-close only
	SlippageTicks        float64 // market-on-close only
	TickSize             float64
	RetraceLookaheadBars int // limit-on-retrace only; 0 = rest of window
}

// Result is the outcome of one fill attempt.
type Result struct {
	Filled        bool
	Direction     market.Direction
	Price         float64
	Time          time.Time
	BarIndex      int // index into the bars passed to AttemptFill, -1 if not filled
	SignalIndex   int // confirmed breakout bar, -1 if none or not applicable
	SlippageTicks float64
}

var noFill = Result{BarIndex: -1, SignalIndex: -1}

// Simulator is one fill protocol.
type Simulator interface {
	Mode() Mode
	// AttemptFill scans bars, which start right after the formation window.
	AttemptFill(bars []market.Bar, r orb.OpeningRange, p Params) Result
}

var registry = map[Mode]Simulator{
	MarketOnClose:  marketOnClose{},
	LimitAtEdge:    limitAtEdge{},
	LimitOnRetrace: limitOnRetrace{},
}

// New returns the simulator registered for mode.
func New(mode Mode) (Simulator, error) {
	s, ok := registry[mode]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, string(mode))
	}
	return s, nil
}

// Modes lists the registered protocols in stable order.
func Modes() []Mode {
	out := make([]Mode, 0, len(registry))
	for m := range registry {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
