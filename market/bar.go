package market

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrNonMonotonic = errors.New("bar timestamps not increasing")
	ErrDuplicateBar = errors.New("duplicate bar timestamp")
	ErrBadBar       = errors.New("bar high below low")
)

// Bar is one OHLCV minute bar as produced by the upstream bar store.
type Bar struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// ValidateBars fails fast on data that would silently corrupt R-multiples:
// duplicate or out-of-order timestamps and inverted bars.
func ValidateBars(bars []Bar) error {
	for i, b := range bars {
		if b.High < b.Low {
			return fmt.Errorf("bar %d at %s: %w", i, b.Time.Format(time.RFC3339), ErrBadBar)
		}
		if i == 0 {
			continue
		}
		prev := bars[i-1].Time
		switch {
		case b.Time.Equal(prev):
			return fmt.Errorf("bar %d at %s: %w", i, b.Time.Format(time.RFC3339), ErrDuplicateBar)
		case b.Time.Before(prev):
			return fmt.Errorf("bar %d at %s after %s: %w", i,
				b.Time.Format(time.RFC3339), prev.Format(time.RFC3339), ErrNonMonotonic)
		}
	}
	return nil
}

// Between returns the sub-slice of bars with from <= Time < to.
// bars must already be ordered.
func Between(bars []Bar, from, to time.Time) []Bar {
	lo := 0
	for lo < len(bars) && bars[lo].Time.Before(from) {
		lo++
	}
	hi := lo
	for hi < len(bars) && bars[hi].Time.Before(to) {
		hi++
	}
	return bars[lo:hi]
}
