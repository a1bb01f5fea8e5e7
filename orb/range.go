// Package orb derives the opening range of a session from its first bars.
package orb

import (
	"errors"
	"fmt"
	"time"

	"github.com/rustyeddy/orb/market"
)

var ErrInsufficientData = errors.New("insufficient bars for opening range")

// InsufficientDataError reports a formation window with fewer bars than the
// configured formation length, e.g. a holiday-shortened session.
type InsufficientDataError struct {
	Session string
	Date    time.Time
	Want    int
	Got     int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("%s %s: want %d formation bars, got %d",
		e.Session, e.Date.Format("2006-01-02"), e.Want, e.Got)
}

func (e *InsufficientDataError) Unwrap() error { return ErrInsufficientData }

// OpeningRange is the high/low boundary formed over a session's first minutes.
type OpeningRange struct {
	Date           time.Time
	Session        string
	High           float64
	Low            float64
	FormationStart time.Time
	FormationEnd   time.Time
	Bars           int
}

func (r OpeningRange) Size() float64 { return r.High - r.Low }

// Degenerate ranges are valid but cannot be traded.
func (r OpeningRange) Degenerate() bool { return r.Size() <= 0 }

// Edge returns the boundary a breakout in dir crosses.
func (r OpeningRange) Edge(dir market.Direction) float64 {
	if dir == market.Down {
		return r.Low
	}
	return r.High
}

// Split separates a day's bars into the formation window and the bars that
// follow it up to session end.
func Split(bars []market.Bar, s market.Session, day time.Time) (formation, after []market.Bar, err error) {
	w, err := s.Window(day)
	if err != nil {
		return nil, nil, err
	}
	formation = market.Between(bars, w.Start, w.FormationEnd)
	after = market.Between(bars, w.FormationEnd, w.End)
	return formation, after, nil
}

// Extract computes the opening range for day from bars, which may cover more
// than the formation window.
func Extract(bars []market.Bar, s market.Session, day time.Time) (OpeningRange, error) {
	w, err := s.Window(day)
	if err != nil {
		return OpeningRange{}, err
	}
	formation := market.Between(bars, w.Start, w.FormationEnd)
	if len(formation) < s.FormationMinutes {
		return OpeningRange{}, &InsufficientDataError{
			Session: s.Label,
			Date:    day,
			Want:    s.FormationMinutes,
			Got:     len(formation),
		}
	}

	r := OpeningRange{
		Date:           day,
		Session:        s.Label,
		High:           formation[0].High,
		Low:            formation[0].Low,
		FormationStart: w.Start,
		FormationEnd:   w.FormationEnd,
		Bars:           len(formation),
	}
	for _, b := range formation[1:] {
		if b.High > r.High {
			r.High = b.High
		}
		if b.Low < r.Low {
			r.Low = b.Low
		}
	}
	return r, nil
}

// SizeFilter bounds the tradable range size in ticks. A zero bound is open.
type SizeFilter struct {
	MinTicks float64 `json:"min_ticks,omitempty" yaml:"min_ticks,omitempty"`
	MaxTicks float64 `json:"max_ticks,omitempty" yaml:"max_ticks,omitempty"`
}

func (f SizeFilter) Enabled() bool { return f.MinTicks > 0 || f.MaxTicks > 0 }

func (f SizeFilter) Allows(r OpeningRange, inst market.Instrument) bool {
	ticks := inst.Ticks(r.Size())
	if f.MinTicks > 0 && ticks < f.MinTicks {
		return false
	}
	if f.MaxTicks > 0 && ticks > f.MaxTicks {
		return false
	}
	return true
}
