package backtest

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/rustyeddy/orb/fill"
	"github.com/rustyeddy/orb/market"
	"github.com/rustyeddy/orb/orb"
	"github.com/rustyeddy/orb/risk"
	"github.com/rustyeddy/orb/sim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testDay     = time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	testSession = market.Session{Label: "NY", Start: "14:30", End: "21:00", FormationMinutes: 5}
	// tick 0.1 worth $1, so one point is worth $10
	testInst = market.Instrument{Symbol: "TEST", TickSize: 0.1, TickValue: 1, PointValue: 10}
)

func at(i int) time.Time {
	return time.Date(2024, 3, 4, 14, 30, 0, 0, time.UTC).Add(time.Duration(i) * time.Minute)
}

// formation builds five bars with range 100..102.
func formation() []market.Bar {
	return []market.Bar{
		{Time: at(0), Open: 101, High: 101.5, Low: 100, Close: 101},
		{Time: at(1), Open: 101, High: 102, Low: 100.5, Close: 101.5},
		{Time: at(2), Open: 101.5, High: 101.8, Low: 100.6, Close: 101},
		{Time: at(3), Open: 101, High: 101.6, Low: 100.4, Close: 101.2},
		{Time: at(4), Open: 101.2, High: 101.9, Low: 100.8, Close: 101.4},
	}
}

// day appends bars after the formation window, given as o,h,l,c tuples.
func day(after ...[4]float64) StaticBars {
	bars := formation()
	for i, b := range after {
		bars = append(bars, market.Bar{Time: at(5 + i), Open: b[0], High: b[1], Low: b[2], Close: b[3]})
	}
	return StaticBars(bars)
}

// breakoutDay fills upward under every protocol and then reaches 106.
func breakoutDay() StaticBars {
	return day(
		[4]float64{101, 103.2, 101, 103},     // close beyond 102, high touches 102
		[4]float64{103, 103.5, 101.9, 102.5}, // retrace to the edge
		[4]float64{102.5, 104, 102, 103.8},
		[4]float64{103.8, 106.5, 103, 106},
	)
}

func execFor(mode fill.Mode) ExecutionConfig {
	return ExecutionConfig{
		Mode:                  mode,
		RRTarget:              2,
		StopFraction:          1,
		ConfirmBars:           1,
		SlippageTicks:         1.5,
		CommissionPerContract: 2.5,
		RetraceLookaheadBars:  30,
	}
}

func simulate(t *testing.T, bars BarProvider, exec ExecutionConfig) TradeResult {
	t.Helper()
	res, err := SimulateTrade(context.Background(), testDay, testSession, exec, testInst, bars)
	require.NoError(t, err)
	return res
}

func TestLevelsAnchoredToRangeEdge(t *testing.T) {
	t.Parallel()

	exec := execFor(fill.LimitAtEdge)
	exec.RRTarget = 8
	res := simulate(t, breakoutDay(), exec)

	assert.Equal(t, market.Up, res.Direction)
	assert.Equal(t, 100.0, res.StopPrice)
	assert.Equal(t, 2.0, res.StopDistance)
	assert.Equal(t, 118.0, res.TargetPrice)
}

func TestMarketOnCloseSlippedEntry(t *testing.T) {
	t.Parallel()

	res := simulate(t, breakoutDay(), execFor(fill.MarketOnClose))

	assert.InDelta(t, 103.15, res.EntryPrice, 1e-9)
	assert.Equal(t, 1.5, res.SlippageTicks)
	assert.Greater(t, res.CostR, 0.0)
	// (1.5*1 + 2.5) / (2*10)
	assert.InDelta(t, 0.2, res.CostR, 1e-12)
	assert.Equal(t, 2.5, res.Commission)
	assert.InDelta(t, 3.15, res.RealRisk, 1e-9)
	// canonical levels ignore the slipped fill
	assert.Equal(t, 100.0, res.StopPrice)
	assert.Equal(t, 106.0, res.TargetPrice)
}

func TestLimitAtEdgeFillsAtEdge(t *testing.T) {
	t.Parallel()

	res := simulate(t, breakoutDay(), execFor(fill.LimitAtEdge))
	assert.Equal(t, 102.0, res.EntryPrice)
	assert.Zero(t, res.SlippageTicks)
	assert.Zero(t, res.CostR)

	down := simulate(t, day([4]float64{101, 101.5, 99.5, 100.2}), execFor(fill.LimitAtEdge))
	assert.Equal(t, market.Down, down.Direction)
	assert.Equal(t, 100.0, down.EntryPrice)
}

func TestSameBarStopAndTargetIsLoss(t *testing.T) {
	t.Parallel()

	bars := day(
		[4]float64{101, 103.2, 101, 103},
		[4]float64{103, 107, 99, 104}, // spans stop 100 and target 106
	)
	for _, mode := range []fill.Mode{fill.MarketOnClose, fill.LimitAtEdge} {
		for i := 0; i < 20; i++ {
			res := simulate(t, bars, execFor(mode))
			require.Equal(t, sim.Loss, res.Outcome, mode)
			assert.Equal(t, -1.0, res.RMultiple)
		}
	}
}

func TestLevelsInvariantAcrossModes(t *testing.T) {
	t.Parallel()

	var results []TradeResult
	for _, mode := range fill.Modes() {
		res := simulate(t, breakoutDay(), execFor(mode))
		require.True(t, res.Filled(), mode)
		results = append(results, res)
	}
	for _, r := range results[1:] {
		assert.Equal(t, results[0].StopPrice, r.StopPrice)
		assert.Equal(t, results[0].TargetPrice, r.TargetPrice)
		assert.Equal(t, results[0].StopDistance, r.StopDistance)
		assert.Equal(t, sim.Win, r.Outcome)
		assert.Equal(t, 2.0, r.RMultiple)
	}
}

func TestCostByProtocol(t *testing.T) {
	t.Parallel()

	for _, mode := range fill.Modes() {
		res := simulate(t, breakoutDay(), execFor(mode))
		require.True(t, res.Filled())
		if mode.IsLimit() {
			assert.Zero(t, res.CostR, mode)
			assert.Zero(t, res.SlippageTicks, mode)
		} else {
			assert.Greater(t, res.CostR, 0.0, mode)
		}
	}
}

func TestDeterministic(t *testing.T) {
	t.Parallel()

	for _, mode := range fill.Modes() {
		a := simulate(t, breakoutDay(), execFor(mode))
		b := simulate(t, breakoutDay(), execFor(mode))
		assert.Equal(t, a, b)

		ja, err := json.Marshal(a)
		require.NoError(t, err)
		jb, err := json.Marshal(b)
		require.NoError(t, err)
		assert.Equal(t, ja, jb)
	}
}

func TestOutcomeAlwaysOneOfFour(t *testing.T) {
	t.Parallel()

	rnd := rand.New(rand.NewSource(7))
	for n := 0; n < 200; n++ {
		var after [][4]float64
		price := 101.0
		for i := 0; i < 60; i++ {
			o := price
			c := o + rnd.NormFloat64()*0.6
			h := max(o, c) + rnd.Float64()*0.5
			l := min(o, c) - rnd.Float64()*0.5
			after = append(after, [4]float64{o, h, l, c})
			price = c
		}
		bars := day(after...)
		for _, mode := range fill.Modes() {
			exec := execFor(mode)
			exec.StopFraction = []float64{0.2, 0.5, 1}[n%3]
			exec.ConfirmBars = 1 + n%3
			res := simulate(t, bars, exec)
			require.True(t, res.Outcome.Valid(), "outcome %q", res.Outcome)
			if res.Filled() {
				assert.InDelta(t, exec.StopFraction*2, res.StopDistance, 1e-9)
				assert.LessOrEqual(t, res.MAER, 0.0)
				assert.GreaterOrEqual(t, res.MFER, 0.0)
			}
		}
	}
}

func TestSkippedResults(t *testing.T) {
	t.Parallel()

	t.Run("no fill", func(t *testing.T) {
		t.Parallel()
		res := simulate(t, day([4]float64{101, 101.5, 100.5, 101}), execFor(fill.MarketOnClose))
		assert.Equal(t, sim.SkippedNoEntry, res.Outcome)
		assert.Equal(t, SkipNoFill, res.SkipReason)
		assert.Zero(t, res.CostR)
	})

	t.Run("degenerate range", func(t *testing.T) {
		t.Parallel()
		var bars StaticBars
		for i := 0; i < 8; i++ {
			bars = append(bars, market.Bar{Time: at(i), Open: 100, High: 100, Low: 100, Close: 100})
		}
		res := simulate(t, bars, execFor(fill.LimitAtEdge))
		assert.Equal(t, sim.SkippedNoEntry, res.Outcome)
		assert.Equal(t, SkipDegenerateRange, res.SkipReason)
	})

	t.Run("session ends before retrace", func(t *testing.T) {
		t.Parallel()
		bars := day(
			[4]float64{101, 103.2, 101, 103},
			[4]float64{103, 104, 102.5, 103.8},
		)
		res := simulate(t, bars, execFor(fill.LimitOnRetrace))
		assert.Equal(t, sim.SkippedNoEntry, res.Outcome)
	})

	t.Run("max stop ticks", func(t *testing.T) {
		t.Parallel()
		exec := execFor(fill.LimitAtEdge)
		exec.MaxStopTicks = 10 // risk is 20 ticks
		res := simulate(t, breakoutDay(), exec)
		assert.Equal(t, sim.SkippedNoEntry, res.Outcome)
		assert.Equal(t, risk.CodeMaxStop, res.SkipReason)
	})

	t.Run("range size filter", func(t *testing.T) {
		t.Parallel()
		exec := execFor(fill.LimitAtEdge)
		exec.SizeFilter = orb.SizeFilter{MaxTicks: 15}
		res := simulate(t, breakoutDay(), exec)
		assert.Equal(t, sim.SkippedNoEntry, res.Outcome)
		assert.Equal(t, risk.CodeRangeSize, res.SkipReason)
	})
}

func TestNoOutcome(t *testing.T) {
	t.Parallel()

	bars := day(
		[4]float64{101, 103.2, 101, 103},
		[4]float64{103, 104, 102.5, 103.8},
		[4]float64{103.8, 105, 103, 104.5},
	)
	res := simulate(t, bars, execFor(fill.MarketOnClose))
	assert.Equal(t, sim.NoOutcome, res.Outcome)
	assert.Zero(t, res.RMultiple)
	assert.Equal(t, 104.5, res.ExitPrice)
	assert.InDelta(t, -0.2, res.NetR(), 1e-12)
}

func TestSimulateErrors(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("unknown mode fails before loading bars", func(t *testing.T) {
		t.Parallel()
		exec := execFor("iceberg")
		_, err := SimulateTrade(ctx, testDay, testSession, exec, testInst, failingBars{})
		assert.ErrorIs(t, err, fill.ErrUnknownMode)
	})

	t.Run("insufficient data", func(t *testing.T) {
		t.Parallel()
		bars := StaticBars(formation()[:3])
		_, err := SimulateTrade(ctx, testDay, testSession, execFor(fill.MarketOnClose), testInst, bars)
		assert.ErrorIs(t, err, orb.ErrInsufficientData)
	})

	t.Run("duplicate timestamps", func(t *testing.T) {
		t.Parallel()
		bars := breakoutDay()
		bars[6].Time = bars[5].Time
		_, err := SimulateTrade(ctx, testDay, testSession, execFor(fill.MarketOnClose), testInst, bars)
		assert.ErrorIs(t, err, market.ErrDuplicateBar)
	})

	t.Run("out of order bar", func(t *testing.T) {
		t.Parallel()
		bars := breakoutDay()
		bars[5], bars[6] = bars[6], bars[5]
		_, err := SimulateTrade(ctx, testDay, testSession, execFor(fill.MarketOnClose), testInst, bars)
		assert.ErrorIs(t, err, market.ErrNonMonotonic)
	})

	t.Run("out of order bar before the window", func(t *testing.T) {
		t.Parallel()
		// a bar from the evening before sits mid-day in the slice
		bars := breakoutDay()
		stray := bars[6]
		stray.Time = at(0).Add(-16 * time.Hour)
		bars = append(bars[:6], append(StaticBars{stray}, bars[6:]...)...)
		res, err := SimulateTrade(ctx, testDay, testSession, execFor(fill.MarketOnClose), testInst, bars)
		require.NoError(t, err)
		assert.Equal(t, simulate(t, breakoutDay(), execFor(fill.MarketOnClose)), res)
	})

	t.Run("provider error", func(t *testing.T) {
		t.Parallel()
		_, err := SimulateTrade(ctx, testDay, testSession, execFor(fill.MarketOnClose), testInst, failingBars{})
		assert.ErrorIs(t, err, errBarStore)
	})

	t.Run("invalid config", func(t *testing.T) {
		t.Parallel()
		exec := execFor(fill.MarketOnClose)
		exec.StopFraction = 1.5
		_, err := SimulateTrade(ctx, testDay, testSession, exec, testInst, breakoutDay())
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})

	t.Run("nil provider", func(t *testing.T) {
		t.Parallel()
		_, err := (&Simulator{Instrument: testInst}).Simulate(ctx, testDay, testSession, execFor(fill.MarketOnClose))
		require.Error(t, err)
		assert.Equal(t, "backtest: Bars is required", err.Error())
	})
}

func TestRangeProvider(t *testing.T) {
	t.Parallel()

	s := &Simulator{
		Bars:       breakoutDay(),
		Instrument: testInst,
		Ranges:     fixedRange{r: orb.OpeningRange{High: 103.1, Low: 100.5}},
	}
	res, err := s.Simulate(context.Background(), testDay, testSession, execFor(fill.LimitAtEdge))
	require.NoError(t, err)
	assert.Equal(t, 103.1, res.RangeHigh)
	assert.Equal(t, 103.1, res.EntryPrice)
	assert.InDelta(t, 100.5, res.StopPrice, 1e-9)
}

func TestExecutionConfigValidate(t *testing.T) {
	t.Parallel()

	require.NoError(t, DefaultExecution().Validate())

	tests := []struct {
		name   string
		mutate func(*ExecutionConfig)
		errMsg string
	}{
		{"rr", func(c *ExecutionConfig) { c.RRTarget = 0 }, "rr_target must be positive"},
		{"fraction zero", func(c *ExecutionConfig) { c.StopFraction = 0 }, "stop_fraction"},
		{"confirm", func(c *ExecutionConfig) { c.ConfirmBars = 0 }, "confirm_bars"},
		{"delay", func(c *ExecutionConfig) { c.EntryDelayBars = -1 }, "entry_delay_bars"},
		{"slippage", func(c *ExecutionConfig) { c.SlippageTicks = -1 }, "slippage_ticks"},
		{"commission", func(c *ExecutionConfig) { c.CommissionPerContract = -1 }, "commission_per_contract"},
		{"max stop", func(c *ExecutionConfig) { c.MaxStopTicks = -1 }, "max_stop_ticks"},
		{"filter", func(c *ExecutionConfig) { c.SizeFilter = orb.SizeFilter{MinTicks: 10, MaxTicks: 5} }, "orb_size_filter"},
		{"free market fill", func(c *ExecutionConfig) { c.SlippageTicks, c.CommissionPerContract = 0, 0 }, "market_on_close needs"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := DefaultExecution()
			tt.mutate(&c)
			err := c.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidConfig)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestExecutionConfigCostFreeModes(t *testing.T) {
	t.Parallel()

	moc := execFor(fill.MarketOnClose)
	moc.SlippageTicks = 0
	require.NoError(t, moc.Validate())
	res := simulate(t, breakoutDay(), moc)
	require.True(t, res.Filled())
	assert.Greater(t, res.CostR, 0.0)

	moc.CommissionPerContract = 0
	_, err := SimulateTrade(context.Background(), testDay, testSession, moc, testInst, breakoutDay())
	assert.ErrorIs(t, err, ErrInvalidConfig)

	for _, m := range []fill.Mode{fill.LimitAtEdge, fill.LimitOnRetrace} {
		c := execFor(m)
		c.SlippageTicks, c.CommissionPerContract = 0, 0
		assert.NoError(t, c.Validate(), m)
	}
}

func TestFillParamsLimitIgnoresSlippage(t *testing.T) {
	t.Parallel()

	c := execFor(fill.LimitOnRetrace)
	c.EntryDelayBars = 3
	p := c.FillParams(testInst)
	assert.Zero(t, p.SlippageTicks)
	assert.Zero(t, p.EntryDelayBars)
	assert.Equal(t, 0.1, p.TickSize)

	c.Mode = fill.MarketOnClose
	p = c.FillParams(testInst)
	assert.Equal(t, 1.5, p.SlippageTicks)
	assert.Equal(t, 3, p.EntryDelayBars)
}

var errBarStore = errors.New("bar store down")

type failingBars struct{}

func (failingBars) Bars(context.Context, string, time.Time, time.Time) ([]market.Bar, error) {
	return nil, errBarStore
}

type fixedRange struct{ r orb.OpeningRange }

func (f fixedRange) Range(context.Context, string, string, time.Time) (orb.OpeningRange, bool, error) {
	return f.r, true, nil
}
