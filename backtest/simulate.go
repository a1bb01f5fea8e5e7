package backtest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/rustyeddy/orb/cost"
	"github.com/rustyeddy/orb/fill"
	"github.com/rustyeddy/orb/market"
	"github.com/rustyeddy/orb/orb"
	"github.com/rustyeddy/orb/risk"
	"github.com/rustyeddy/orb/sim"
)

// Simulator runs single-trade simulations against a bar source. Its fields
// are read-only after construction, so one Simulator may serve many
// goroutines.
type Simulator struct {
	Bars       BarProvider
	Ranges     RangeProvider // optional
	Instrument market.Instrument
	Logger     *zap.Logger // optional
}

// SimulateTrade simulates one day and session with a fresh Simulator.
func SimulateTrade(ctx context.Context, day time.Time, session market.Session, exec ExecutionConfig,
	inst market.Instrument, bars BarProvider) (TradeResult, error) {
	s := &Simulator{Bars: bars, Instrument: inst}
	return s.Simulate(ctx, day, session, exec)
}

// Simulate produces the TradeResult for day. Data conditions that prevent a
// trade (degenerate range, no fill, entry filters) are results, not errors.
// Errors are returned for invalid configs, bad bar data and short formation
// windows (orb.ErrInsufficientData).
func (s *Simulator) Simulate(ctx context.Context, day time.Time, session market.Session, exec ExecutionConfig) (TradeResult, error) {
	if s.Bars == nil {
		return TradeResult{}, fmt.Errorf("backtest: Bars is required")
	}
	if err := exec.Validate(); err != nil {
		return TradeResult{}, err
	}
	if err := s.Instrument.Validate(); err != nil {
		return TradeResult{}, err
	}
	protocol, err := fill.New(exec.Mode)
	if err != nil {
		return TradeResult{}, err
	}

	w, err := session.Window(day)
	if err != nil {
		return TradeResult{}, err
	}
	bars, err := s.Bars.Bars(ctx, s.Instrument.Symbol, w.Start, w.End)
	if err != nil {
		return TradeResult{}, fmt.Errorf("load bars %s %s: %w", s.Instrument.Symbol, day.Format("2006-01-02"), err)
	}
	if err := market.ValidateBars(bars); err != nil {
		return TradeResult{}, fmt.Errorf("%s %s: %w", s.Instrument.Symbol, day.Format("2006-01-02"), err)
	}

	r, err := s.openingRange(ctx, bars, session, day)
	if err != nil {
		return TradeResult{}, err
	}
	_, after, err := orb.Split(bars, session, day)
	if err != nil {
		return TradeResult{}, err
	}

	res := TradeResult{
		Date:          day,
		Session:       session.Label,
		Instrument:    s.Instrument.Symbol,
		Outcome:       sim.SkippedNoEntry,
		RangeHigh:     r.High,
		RangeLow:      r.Low,
		ExecutionMode: exec.Mode,
	}

	if r.Degenerate() {
		return s.skip(res, SkipDegenerateRange), nil
	}
	// risk depends only on the range and the fraction, so a zero risk is
	// known before any fill is attempted
	if _, err := risk.Levels(r.High, market.Up, r.Size(), exec.StopFraction, exec.RRTarget); err != nil {
		if errors.Is(err, risk.ErrZeroRisk) {
			return s.skip(res, SkipDegenerateRange), nil
		}
		return TradeResult{}, err
	}

	f := protocol.AttemptFill(after, r, exec.FillParams(s.Instrument))
	if !f.Filled {
		return s.skip(res, SkipNoFill), nil
	}

	plan, err := risk.Levels(r.Edge(f.Direction), f.Direction, r.Size(), exec.StopFraction, exec.RRTarget)
	if err != nil {
		return TradeResult{}, err
	}

	res.Direction = f.Direction
	res.StopPrice = plan.Stop
	res.TargetPrice = plan.Target
	res.StopDistance = plan.Risk

	if d := risk.Evaluate(exec.Filters(), r, plan, s.Instrument); !d.Allowed {
		return s.skip(res, d.Reason()), nil
	}

	outcome := sim.Resolve(after, f.BarIndex, plan, exec.MaxHoldBars)

	c, err := cost.ForInstrument(s.Instrument).Apply(!exec.Mode.IsLimit(), f.SlippageTicks, exec.CommissionPerContract, plan.Risk)
	if err != nil {
		return TradeResult{}, err
	}

	res.Outcome = outcome.Outcome
	res.EntryPrice = f.Price
	res.EntryTime = f.Time
	res.FillTime = f.Time
	res.RealRisk = risk.RealRisk(f.Price, plan.Stop)
	res.RMultiple = outcome.RMultiple
	res.MAER = outcome.MAER
	res.MFER = outcome.MFER
	res.ExitPrice = outcome.ExitPrice
	res.ExitTime = outcome.ExitTime
	res.SlippageTicks = f.SlippageTicks
	res.Commission = c.Commission
	res.CostR = c.R
	return res, nil
}

func (s *Simulator) openingRange(ctx context.Context, bars []market.Bar, session market.Session, day time.Time) (orb.OpeningRange, error) {
	if s.Ranges != nil {
		r, ok, err := s.Ranges.Range(ctx, s.Instrument.Symbol, session.Label, day)
		if err != nil {
			return orb.OpeningRange{}, err
		}
		if ok {
			if r.High < r.Low {
				return orb.OpeningRange{}, fmt.Errorf("opening range high %.6f below low %.6f", r.High, r.Low)
			}
			return r, nil
		}
	}
	return orb.Extract(bars, session, day)
}

func (s *Simulator) skip(res TradeResult, reason string) TradeResult {
	res.Outcome = sim.SkippedNoEntry
	res.SkipReason = reason
	if s.Logger != nil {
		s.Logger.Debug("trade skipped",
			zap.String("instrument", res.Instrument),
			zap.String("session", res.Session),
			zap.Time("date", res.Date),
			zap.String("mode", string(res.ExecutionMode)),
			zap.String("reason", reason),
		)
	}
	return res
}
