// Package journal stores sweep runs, their trade results and the memo of
// tested configurations.
package journal

import (
	"time"

	"github.com/rustyeddy/orb/backtest"
	"github.com/rustyeddy/orb/sweep"
)

// Run mirrors the runs table.
type Run struct {
	RunID     string
	Created   time.Time
	Symbol    string
	Session   string
	From      time.Time
	To        time.Time
	Configs   int
	Simulated int
	Errors    int
	MemoHits  int
	Partial   bool
	Elapsed   time.Duration
}

// Record is one stored trade result.
type Record struct {
	RunID     string
	ConfigKey string
	Result    backtest.TradeResult
}

// TestedConfig mirrors the tested_configs table.
type TestedConfig struct {
	Key       string
	RunID     string
	Scope     sweep.Scope
	Exec      backtest.ExecutionConfig
	Trades    int
	Wins      int
	Losses    int
	AvgNetR   float64
	TotalNetR float64
	MaxDDR    float64
	TestedAt  time.Time
}

// RunFromReport summarizes a sweep report as a run row.
func RunFromReport(rep *sweep.Report) Run {
	return Run{
		RunID:     rep.RunID,
		Created:   rep.Started.UTC(),
		Symbol:    rep.Scope.Symbol,
		Session:   rep.Scope.Session,
		From:      rep.Scope.From,
		To:        rep.Scope.To,
		Configs:   len(rep.Configs),
		Simulated: rep.Simulated,
		Errors:    len(rep.Errors),
		MemoHits:  rep.MemoHits,
		Partial:   rep.Partial,
		Elapsed:   rep.Elapsed,
	}
}

// Results drops the journal columns.
func Results(recs []Record) []backtest.TradeResult {
	out := make([]backtest.TradeResult, len(recs))
	for i, r := range recs {
		out[i] = r.Result
	}
	return out
}
