package risk

import (
	"fmt"

	"github.com/rustyeddy/orb/market"
	"github.com/rustyeddy/orb/orb"
)

const (
	CodeRangeSize = "RANGE_SIZE_FILTER"
	CodeMaxStop   = "MAX_STOP_TICKS"
)

type Violation struct {
	Code string
	Msg  string
}

// Decision says whether a planned trade may be entered.
type Decision struct {
	Allowed    bool
	Violations []Violation

	StopTicks  float64
	RangeTicks float64
}

func (d *Decision) add(code, msg string) {
	d.Violations = append(d.Violations, Violation{Code: code, Msg: msg})
	d.Allowed = false
}

// Reason joins violation codes, empty when allowed.
func (d Decision) Reason() string {
	if len(d.Violations) == 0 {
		return ""
	}
	s := d.Violations[0].Code
	for _, v := range d.Violations[1:] {
		s += "," + v.Code
	}
	return s
}

// Filters are the entry rules applied before a trade is taken.
type Filters struct {
	MaxStopTicks float64 // 0 = unlimited
	RangeSize    orb.SizeFilter
}

// Evaluate applies the filters to a range and its plan.
func Evaluate(f Filters, r orb.OpeningRange, p Plan, inst market.Instrument) Decision {
	d := Decision{
		Allowed:    true,
		StopTicks:  inst.Ticks(p.Risk),
		RangeTicks: inst.Ticks(r.Size()),
	}

	if f.RangeSize.Enabled() && !f.RangeSize.Allows(r, inst) {
		d.add(CodeRangeSize, fmt.Sprintf("range %.1f ticks outside [%.1f, %.1f]",
			d.RangeTicks, f.RangeSize.MinTicks, f.RangeSize.MaxTicks))
	}
	// small epsilon: tick counts come from float division
	if f.MaxStopTicks > 0 && d.StopTicks > f.MaxStopTicks+1e-9 {
		d.add(CodeMaxStop, fmt.Sprintf("stop %.1f ticks > max %.1f", d.StopTicks, f.MaxStopTicks))
	}
	return d
}
