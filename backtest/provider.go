package backtest

import (
	"context"
	"time"

	"github.com/rustyeddy/orb/market"
	"github.com/rustyeddy/orb/orb"
)

// BarProvider returns ordered 1-minute bars for symbol with from <= Time < to.
// Implementations are read-only and safe for concurrent use.
type BarProvider interface {
	Bars(ctx context.Context, symbol string, from, to time.Time) ([]market.Bar, error)
}

// RangeProvider supplies precomputed opening ranges. ok=false falls back to
// extracting the range from bars.
type RangeProvider interface {
	Range(ctx context.Context, symbol, session string, day time.Time) (r orb.OpeningRange, ok bool, err error)
}

// StaticBars serves bars held in memory. The slice must not be modified
// after construction. Bars is a filter that keeps the slice's order, so
// out-of-order input reaches the caller and fails market.ValidateBars.
type StaticBars []market.Bar

func (s StaticBars) Bars(_ context.Context, _ string, from, to time.Time) ([]market.Bar, error) {
	var out []market.Bar
	for _, b := range s {
		if !b.Time.Before(from) && b.Time.Before(to) {
			out = append(out, b)
		}
	}
	return out, nil
}
