package sweep

import (
	"context"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/orb/backtest"
	"github.com/rustyeddy/orb/fill"
	"github.com/rustyeddy/orb/internal/observability"
	"github.com/rustyeddy/orb/market"
	"github.com/rustyeddy/orb/orb"
)

var (
	session = market.Session{Label: "NY", Start: "14:30", End: "21:00", FormationMinutes: 5}
	inst    = market.Instrument{Symbol: "TEST", TickSize: 0.1, TickValue: 1, PointValue: 10}
)

func tradingDays(n int) []time.Time {
	start := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	out := make([]time.Time, n)
	for i := range out {
		out[i] = start.AddDate(0, 0, i)
	}
	return out
}

// dayBars is a 100..102 range followed by an upside breakout to 106.
// short days stop after three formation bars.
func dayBars(day time.Time, short bool) []market.Bar {
	open := day.Add(14*time.Hour + 30*time.Minute)
	rows := [][4]float64{
		{101, 101.5, 100, 101},
		{101, 102, 100.5, 101.5},
		{101.5, 101.8, 100.6, 101},
		{101, 101.6, 100.4, 101.2},
		{101.2, 101.9, 100.8, 101.4},
		{101, 103.2, 101, 103},
		{103, 103.5, 101.9, 102.5},
		{102.5, 104, 102, 103.8},
		{103.8, 106.5, 103, 106},
	}
	if short {
		rows = rows[:3]
	}
	bars := make([]market.Bar, len(rows))
	for i, r := range rows {
		bars[i] = market.Bar{Time: open.Add(time.Duration(i) * time.Minute), Open: r[0], High: r[1], Low: r[2], Close: r[3]}
	}
	return bars
}

func barsFor(days []time.Time, shortDay int) backtest.StaticBars {
	var all []market.Bar
	for i, d := range days {
		all = append(all, dayBars(d, i == shortDay)...)
	}
	return backtest.StaticBars(all)
}

type countingBars struct {
	backtest.BarProvider
	calls atomic.Int64
	delay time.Duration
}

func (c *countingBars) Bars(ctx context.Context, symbol string, from, to time.Time) ([]market.Bar, error) {
	c.calls.Add(1)
	if c.delay > 0 {
		time.Sleep(c.delay)
	}
	return c.BarProvider.Bars(ctx, symbol, from, to)
}

func newRunner(bars backtest.BarProvider) *Runner {
	return &Runner{
		Sim:     &backtest.Simulator{Bars: bars, Instrument: inst},
		Workers: 4,
		NewID:   func() string { return "01HRUN" },
	}
}

func TestGridExpand(t *testing.T) {
	t.Parallel()

	g := Grid{
		Modes:         []fill.Mode{fill.MarketOnClose, fill.LimitAtEdge},
		RRTargets:     []float64{1, 2},
		SlippageTicks: []float64{0, 1},
	}
	assert.Equal(t, 8, g.Size())

	cfgs := g.Expand(backtest.DefaultExecution())
	// slippage collapses for the limit mode
	require.Len(t, cfgs, 6)

	assert.Equal(t, fill.MarketOnClose, cfgs[0].Mode)
	assert.Equal(t, 1.0, cfgs[0].RRTarget)
	assert.Equal(t, 0.0, cfgs[0].SlippageTicks)
	assert.Equal(t, 1.0, cfgs[1].SlippageTicks)
	assert.Equal(t, fill.LimitAtEdge, cfgs[4].Mode)
	for _, c := range cfgs {
		require.NoError(t, c.Validate())
	}

	assert.Equal(t, cfgs, g.Expand(backtest.DefaultExecution()))
	assert.Len(t, Grid{}.Expand(backtest.DefaultExecution()), 1)
}

func TestKey(t *testing.T) {
	t.Parallel()

	days := tradingDays(3)
	scope := Scope{Symbol: "ES", Session: "NY", From: days[0], To: days[2]}
	base := backtest.DefaultExecution()

	assert.Equal(t, Key(scope, base), Key(scope, base))
	assert.Len(t, Key(scope, base), 64)

	other := base
	other.RRTarget = 3
	assert.NotEqual(t, Key(scope, base), Key(scope, other))

	wider := scope
	wider.To = days[2].AddDate(0, 0, 1)
	assert.NotEqual(t, Key(scope, base), Key(wider, base))

	a, b := base, base
	a.Mode, b.Mode = fill.LimitOnRetrace, fill.LimitOnRetrace
	a.SlippageTicks, b.SlippageTicks = 0, 4
	assert.Equal(t, Key(scope, a), Key(scope, b))
}

func TestRunnerCollectsDayErrors(t *testing.T) {
	t.Parallel()

	days := tradingDays(4)
	r := newRunner(barsFor(days, 2))
	r.Memo = NewMemoryMemo()
	r.Metrics = observability.NewMetrics()

	configs := Grid{Modes: []fill.Mode{fill.MarketOnClose, fill.LimitAtEdge, fill.LimitOnRetrace}}.
		Expand(backtest.DefaultExecution())
	rep, err := r.Run(context.Background(), session, days, configs)
	require.NoError(t, err)

	assert.Equal(t, "01HRUN", rep.RunID)
	assert.False(t, rep.Partial)
	assert.Equal(t, 12, rep.Simulated)
	require.Len(t, rep.Errors, 3)
	for _, e := range rep.Errors {
		assert.Equal(t, KindInsufficientData, e.Kind)
		assert.ErrorIs(t, e, orb.ErrInsufficientData)
		assert.Equal(t, days[2], e.Day)
	}

	require.Len(t, rep.Configs, 3)
	for _, c := range rep.Configs {
		assert.True(t, c.Complete)
		require.Len(t, c.Results, 3)
		assert.Equal(t, 3, c.Stats.Wins)
		assert.Equal(t, days[0], c.Results[0].Date)
		assert.Equal(t, days[3], c.Results[2].Date)
	}
	assert.Len(t, rep.Results(), 9)

	// nothing is remembered until the report is committed
	memo := r.Memo.(*MemoryMemo)
	assert.Zero(t, memo.Len())
	require.Len(t, rep.MemoEntries(), 3)
	require.NoError(t, Commit(context.Background(), memo, rep))
	assert.Equal(t, 3, memo.Len())
	e, ok := memo.Get(rep.Configs[0].Key)
	require.True(t, ok)
	assert.Equal(t, "01HRUN", e.RunID)
	assert.Equal(t, rep.Started.Add(rep.Elapsed).UTC(), e.TestedAt)

	assert.Equal(t, 3.0, testutil.ToFloat64(r.Metrics.SimulationErrors.WithLabelValues(KindInsufficientData)))
	assert.Equal(t, 3.0, testutil.ToFloat64(r.Metrics.Simulations.WithLabelValues("limit_at_edge", "WIN")))
}

func TestRunnerMemoSkipsTestedConfigs(t *testing.T) {
	t.Parallel()

	days := tradingDays(2)
	bars := &countingBars{BarProvider: barsFor(days, -1)}
	r := newRunner(bars)
	r.Memo = NewMemoryMemo()
	r.Metrics = observability.NewMetrics()

	configs := []backtest.ExecutionConfig{backtest.DefaultExecution()}
	first, err := r.Run(context.Background(), session, days, configs)
	require.NoError(t, err)
	require.Equal(t, int64(2), bars.calls.Load())
	require.NoError(t, Commit(context.Background(), r.Memo, first))

	e, ok := r.Memo.(*MemoryMemo).Get(Key(Scope{Symbol: "TEST", Session: "NY", From: days[0], To: days[1]}, configs[0]))
	require.True(t, ok)
	assert.Equal(t, 2, e.Stats.Trades)

	rep, err := r.Run(context.Background(), session, days, configs)
	require.NoError(t, err)
	assert.Equal(t, 1, rep.MemoHits)
	assert.Zero(t, rep.Simulated)
	assert.True(t, rep.Configs[0].MemoHit)
	assert.Equal(t, int64(2), bars.calls.Load())
	assert.Equal(t, 1.0, testutil.ToFloat64(r.Metrics.MemoHits))

	// memo hits are not remembered again
	assert.Empty(t, rep.MemoEntries())
}

func TestRunnerDeterministicAcrossWorkerCounts(t *testing.T) {
	t.Parallel()

	days := tradingDays(5)
	configs := Grid{
		Modes:     fill.Modes(),
		RRTargets: []float64{1, 2, 3},
	}.Expand(backtest.DefaultExecution())

	one := newRunner(barsFor(days, -1))
	one.Workers = 1
	a, err := one.Run(context.Background(), session, days, configs)
	require.NoError(t, err)

	many := newRunner(barsFor(days, -1))
	many.Workers = 16
	b, err := many.Run(context.Background(), session, days, configs)
	require.NoError(t, err)

	assert.Equal(t, a.Results(), b.Results())
}

func TestRunnerBudget(t *testing.T) {
	t.Parallel()

	days := tradingDays(200)
	bars := &countingBars{BarProvider: barsFor(days, -1), delay: 5 * time.Millisecond}
	r := newRunner(bars)
	r.Workers = 2
	r.Budget = 20 * time.Millisecond
	r.Memo = NewMemoryMemo()

	rep, err := r.Run(context.Background(), session, days, []backtest.ExecutionConfig{backtest.DefaultExecution()})
	require.NoError(t, err)
	assert.True(t, rep.Partial)
	assert.Less(t, rep.Simulated, len(days))
	assert.Greater(t, rep.Simulated, 0)
	assert.False(t, rep.Configs[0].Complete)
	assert.Len(t, rep.Configs[0].Results, rep.Simulated)
	// incomplete configs are not remembered
	assert.Empty(t, rep.MemoEntries())
	require.NoError(t, Commit(context.Background(), r.Memo, rep))
	assert.Zero(t, r.Memo.(*MemoryMemo).Len())
}

func TestRunnerRejectsBadConfigBeforeWork(t *testing.T) {
	t.Parallel()

	days := tradingDays(2)
	bars := &countingBars{BarProvider: barsFor(days, -1)}
	r := newRunner(bars)

	bad := backtest.DefaultExecution()
	bad.Mode = "twap"
	_, err := r.Run(context.Background(), session, days, []backtest.ExecutionConfig{backtest.DefaultExecution(), bad})
	assert.ErrorIs(t, err, fill.ErrUnknownMode)
	assert.Zero(t, bars.calls.Load())

	_, err = r.Run(context.Background(), session, nil, []backtest.ExecutionConfig{backtest.DefaultExecution()})
	assert.Error(t, err)
}

func TestRunnerRejectsCostFreeMarketGrid(t *testing.T) {
	t.Parallel()

	days := tradingDays(2)
	bars := &countingBars{BarProvider: barsFor(days, -1)}
	r := newRunner(bars)

	base := backtest.DefaultExecution()
	base.CommissionPerContract = 0
	g := Grid{
		Modes:         []fill.Mode{fill.MarketOnClose, fill.LimitAtEdge},
		SlippageTicks: []float64{0, 1},
	}
	cfgs := g.Expand(base)
	require.Len(t, cfgs, 3)
	assert.ErrorIs(t, cfgs[0].Validate(), backtest.ErrInvalidConfig)
	assert.NoError(t, cfgs[1].Validate())
	assert.NoError(t, cfgs[2].Validate())

	_, err := r.Run(context.Background(), session, days, cfgs)
	assert.ErrorIs(t, err, backtest.ErrInvalidConfig)
	assert.Zero(t, bars.calls.Load())
}

func TestRunnerCancelled(t *testing.T) {
	t.Parallel()

	days := tradingDays(3)
	r := newRunner(barsFor(days, -1))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rep, err := r.Run(ctx, session, days, []backtest.ExecutionConfig{backtest.DefaultExecution()})
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, rep)
}

func TestReportRankedAndPrint(t *testing.T) {
	t.Parallel()

	rep := &Report{
		RunID: "01HRUN",
		Scope: Scope{Symbol: "ES", Session: "NY", From: tradingDays(1)[0], To: tradingDays(2)[1]},
		Configs: []ConfigResult{
			{Key: "bbbbbbbbbbbb", Exec: backtest.DefaultExecution(), Stats: backtest.Stats{Trades: 2, TotalNetR: 1}, Complete: true},
			{Key: "aaaaaaaaaaaa", Exec: backtest.DefaultExecution(), Stats: backtest.Stats{Trades: 2, TotalNetR: 3}, Complete: true},
			{Key: "cccccccccccc", MemoHit: true},
			{Key: "dddddddddddd", Exec: backtest.DefaultExecution(), Stats: backtest.Stats{TotalNetR: 3}},
		},
		MemoHits: 1,
		Partial:  true,
	}

	ranked := rep.Ranked()
	require.Len(t, ranked, 3)
	assert.Equal(t, "aaaaaaaaaaaa", ranked[0].Key)
	assert.Equal(t, "dddddddddddd", ranked[1].Key)
	assert.Equal(t, "bbbbbbbbbbbb", ranked[2].Key)

	var buf strings.Builder
	PrintReport(&buf, rep, 2)
	out := buf.String()
	assert.Contains(t, out, "run 01HRUN")
	assert.Contains(t, out, "aaaaaaaa")
	assert.Contains(t, out, "dddddddd*")
	assert.NotContains(t, out, "bbbbbbbb")
	assert.NotContains(t, out, "cccccccc")
	assert.Contains(t, out, "+3.00")
}
