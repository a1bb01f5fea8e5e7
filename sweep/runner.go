package sweep

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/rustyeddy/orb/backtest"
	"github.com/rustyeddy/orb/internal/logging"
	"github.com/rustyeddy/orb/internal/observability"
	"github.com/rustyeddy/orb/market"
	"github.com/rustyeddy/orb/orb"
	"github.com/rustyeddy/orb/pkg/id"
)

// Error kinds reported per simulated day.
const (
	KindInsufficientData = "insufficient_data"
	KindBadData          = "bad_data"
	KindSource           = "source"
)

// Runner fans simulations out to a pool of workers. Budget bounds the
// wall-clock time: it is checked after every completed simulation, and once
// exceeded no new simulations start and the report is marked Partial.
type Runner struct {
	Sim     *backtest.Simulator
	Workers int           // default runtime.NumCPU()
	Budget  time.Duration // 0 = unbounded
	Memo    Memo          // optional
	Logger  *zap.Logger
	Metrics *observability.Metrics
	NewID   func() string // default id.New
}

// ConfigResult collects one config's day results.
type ConfigResult struct {
	Key      string
	Exec     backtest.ExecutionConfig
	Results  []backtest.TradeResult // in day order
	Stats    backtest.Stats
	MemoHit  bool
	Complete bool // every day was simulated or failed with a data error
}

// DayError is a simulation that failed for data reasons. It does not stop
// the sweep.
type DayError struct {
	Key  string
	Exec backtest.ExecutionConfig
	Day  time.Time
	Kind string
	Err  error
}

func (e DayError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Exec.Mode, e.Day.Format("2006-01-02"), e.Err)
}

func (e DayError) Unwrap() error { return e.Err }

// Report is the outcome of one sweep run. Partial is set when the budget or
// a cancelled context left some config-day pairs unsimulated.
type Report struct {
	RunID     string
	Scope     Scope
	Configs   []ConfigResult
	Errors    []DayError
	MemoHits  int
	Simulated int
	Partial   bool
	Started   time.Time
	Elapsed   time.Duration
}

// Results flattens every simulated day, config by config.
func (r *Report) Results() []backtest.TradeResult {
	var out []backtest.TradeResult
	for _, c := range r.Configs {
		out = append(out, c.Results...)
	}
	return out
}

// MemoEntries returns one Entry per config that was simulated on every day
// of this run. Memo hits and incomplete configs are left out.
func (r *Report) MemoEntries() []Entry {
	tested := r.Started.Add(r.Elapsed).UTC()
	var out []Entry
	for _, c := range r.Configs {
		if !c.Complete || c.MemoHit {
			continue
		}
		out = append(out, Entry{Key: c.Key, RunID: r.RunID, Scope: r.Scope, Exec: c.Exec, Stats: c.Stats, TestedAt: tested})
	}
	return out
}

// Commit records rep's complete configs in m. Call it only after rep's
// results are stored, so the memo never points at results that were lost.
func Commit(ctx context.Context, m Memo, rep *Report) error {
	for _, e := range rep.MemoEntries() {
		if err := m.Record(ctx, e.Key, e); err != nil {
			return fmt.Errorf("memo record %s: %w", e.Key, err)
		}
	}
	return nil
}

type job struct {
	cfg int
	day int
}

type done struct {
	job
	res backtest.TradeResult
	err error
}

type slot struct {
	res  backtest.TradeResult
	err  error
	done bool
}

// Run simulates every config on every day for session. Invalid configs fail
// before any work starts. Per-day data errors are collected in the report.
// Run only reads the memo; complete configs are remembered once the report
// is stored (see Commit and Report.MemoEntries).
func (r *Runner) Run(ctx context.Context, session market.Session, days []time.Time, configs []backtest.ExecutionConfig) (*Report, error) {
	if r.Sim == nil || r.Sim.Bars == nil {
		return nil, errors.New("sweep: simulator with a bar provider is required")
	}
	if len(days) == 0 {
		return nil, errors.New("sweep: no days")
	}
	if err := r.Sim.Instrument.Validate(); err != nil {
		return nil, err
	}
	if err := session.Validate(); err != nil {
		return nil, err
	}
	for i, c := range configs {
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("config %d: %w", i, err)
		}
	}

	log := logging.OrNop(r.Logger)
	newID := r.NewID
	if newID == nil {
		newID = id.New
	}

	started := time.Now()
	rep := &Report{
		RunID:   newID(),
		Scope:   scopeOf(r.Sim.Instrument.Symbol, session.Label, days),
		Configs: make([]ConfigResult, len(configs)),
		Started: started,
	}

	for i, c := range configs {
		rep.Configs[i] = ConfigResult{Key: Key(rep.Scope, c), Exec: c}
		if r.Memo == nil {
			continue
		}
		seen, err := r.Memo.Seen(ctx, rep.Configs[i].Key)
		if err != nil {
			return nil, fmt.Errorf("memo lookup: %w", err)
		}
		if seen {
			rep.Configs[i].MemoHit = true
			rep.MemoHits++
			r.Metrics.RecordMemoHit()
		}
	}

	log.Info("sweep started",
		zap.String("run_id", rep.RunID),
		zap.String("symbol", rep.Scope.Symbol),
		zap.String("session", rep.Scope.Session),
		zap.Int("configs", len(configs)),
		zap.Int("days", len(days)),
		zap.Int("memo_hits", rep.MemoHits),
		zap.Duration("budget", r.Budget),
	)

	slots := make([][]slot, len(configs))
	for i := range slots {
		slots[i] = make([]slot, len(days))
	}

	runErr := r.pool(ctx, session, days, configs, rep, slots, started)

	for i := range rep.Configs {
		c := &rep.Configs[i]
		if c.MemoHit {
			continue
		}
		c.Complete = true
		for d, s := range slots[i] {
			if !s.done {
				c.Complete = false
				rep.Partial = true
				continue
			}
			if s.err != nil {
				rep.Errors = append(rep.Errors, DayError{Key: c.Key, Exec: c.Exec, Day: days[d], Kind: errorKind(s.err), Err: s.err})
				continue
			}
			c.Results = append(c.Results, s.res)
		}
		c.Stats = backtest.Summarize(c.Results)
	}

	rep.Elapsed = time.Since(started)
	r.Metrics.RecordSweep(rep.Elapsed.Seconds())

	log.Info("sweep finished",
		zap.String("run_id", rep.RunID),
		zap.Int("simulated", rep.Simulated),
		zap.Int("errors", len(rep.Errors)),
		zap.Bool("partial", rep.Partial),
		zap.Duration("elapsed", rep.Elapsed),
	)
	return rep, runErr
}

func (r *Runner) pool(ctx context.Context, session market.Session, days []time.Time, configs []backtest.ExecutionConfig,
	rep *Report, slots [][]slot, started time.Time) error {
	workers := r.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	var stop atomic.Bool
	jobs := make(chan job)
	results := make(chan done, workers)

	go func() {
		defer close(jobs)
		for ci := range configs {
			if rep.Configs[ci].MemoHit {
				continue
			}
			for di := range days {
				if stop.Load() {
					return
				}
				select {
				case jobs <- job{cfg: ci, day: di}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				res, err := r.Sim.Simulate(ctx, days[j.day], session, configs[j.cfg])
				results <- done{job: j, res: res, err: err}
			}
		}()
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	log := logging.OrNop(r.Logger)
	for d := range results {
		if d.err != nil && ctx.Err() != nil && errors.Is(d.err, ctx.Err()) {
			continue
		}
		slots[d.cfg][d.day] = slot{res: d.res, err: d.err, done: true}
		rep.Simulated++

		if d.err != nil {
			kind := errorKind(d.err)
			r.Metrics.RecordError(kind)
			log.Warn("simulation failed",
				zap.String("mode", string(configs[d.cfg].Mode)),
				zap.Time("day", days[d.day]),
				zap.String("kind", kind),
				zap.Error(d.err),
			)
		} else {
			r.Metrics.RecordSimulation(string(d.res.ExecutionMode), string(d.res.Outcome))
		}

		if r.Budget > 0 && !stop.Load() && time.Since(started) > r.Budget {
			stop.Store(true)
			log.Warn("sweep budget exhausted",
				zap.Duration("budget", r.Budget),
				zap.Int("simulated", rep.Simulated),
			)
		}
	}

	return ctx.Err()
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, orb.ErrInsufficientData):
		return KindInsufficientData
	case errors.Is(err, market.ErrNonMonotonic), errors.Is(err, market.ErrDuplicateBar), errors.Is(err, market.ErrBadBar):
		return KindBadData
	default:
		return KindSource
	}
}

func scopeOf(symbol, session string, days []time.Time) Scope {
	s := Scope{Symbol: symbol, Session: session, From: days[0], To: days[0]}
	for _, d := range days[1:] {
		if d.Before(s.From) {
			s.From = d
		}
		if d.After(s.To) {
			s.To = d
		}
	}
	return s
}
