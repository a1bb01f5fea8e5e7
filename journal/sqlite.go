package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/rustyeddy/orb/backtest"
	"github.com/rustyeddy/orb/sweep"
)

const dayLayout = "2006-01-02"

// SQLite is the run journal. It also serves as the sweep memo.
type SQLite struct {
	db *sql.DB
}

var _ sweep.Memo = (*SQLite)(nil)

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLite{db: db}, nil
}

// SaveReport stores the run row, every trade result and the tested config
// entries of rep in one transaction. When it fails the memo is unchanged.
func (j *SQLite) SaveReport(ctx context.Context, rep *sweep.Report) error {
	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := insertRun(ctx, tx, RunFromReport(rep)); err != nil {
		return err
	}
	for _, c := range rep.Configs {
		if err := insertResults(ctx, tx, rep.RunID, c.Key, c.Results); err != nil {
			return err
		}
	}
	for _, e := range rep.MemoEntries() {
		if err := insertTested(ctx, tx, e); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (j *SQLite) RecordRun(ctx context.Context, r Run) error {
	return insertRun(ctx, j.db, r)
}

// RecordResults stores results for one config of a run.
func (j *SQLite) RecordResults(ctx context.Context, runID, configKey string, results []backtest.TradeResult) error {
	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := insertResults(ctx, tx, runID, configKey, results); err != nil {
		return err
	}
	return tx.Commit()
}

// Seen reports whether key was fully tested by an earlier run.
func (j *SQLite) Seen(ctx context.Context, key string) (bool, error) {
	var one int
	err := j.db.QueryRowContext(ctx, `SELECT 1 FROM tested_configs WHERE config_key = ?`, key).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Record remembers a fully tested config.
func (j *SQLite) Record(ctx context.Context, key string, e sweep.Entry) error {
	e.Key = key
	return insertTested(ctx, j.db, e)
}

func (j *SQLite) Close() error {
	return j.db.Close()
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertTested(ctx context.Context, db execer, e sweep.Entry) error {
	exec, err := json.Marshal(e.Exec)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `
		INSERT OR REPLACE INTO tested_configs
		(config_key, run_id, symbol, session, from_day, to_day, exec_json,
		 trades, wins, losses, avg_net_r, total_net_r, max_dd_r, tested_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.Key, e.RunID, e.Scope.Symbol, e.Scope.Session,
		e.Scope.From.Format(dayLayout), e.Scope.To.Format(dayLayout), string(exec),
		e.Stats.Trades, e.Stats.Wins, e.Stats.Losses, e.Stats.AvgNetR, e.Stats.TotalNetR, e.Stats.MaxDDR,
		e.TestedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert tested config %s: %w", e.Key, err)
	}
	return nil
}

func insertRun(ctx context.Context, db execer, r Run) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO runs
		(run_id, created, symbol, session, from_day, to_day, configs, simulated, errors, memo_hits, partial, elapsed_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, r.Created.UTC(), r.Symbol, r.Session,
		r.From.Format(dayLayout), r.To.Format(dayLayout),
		r.Configs, r.Simulated, r.Errors, r.MemoHits, r.Partial, r.Elapsed.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", r.RunID, err)
	}
	return nil
}

func insertResults(ctx context.Context, tx *sql.Tx, runID, configKey string, results []backtest.TradeResult) error {
	if len(results) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO trade_results
		(run_id, config_key, day, session, instrument, mode, outcome, skip_reason, direction,
		 range_high, range_low, entry_price, entry_time, stop_price, target_price, stop_distance, real_risk,
		 r_multiple, mae_r, mfe_r, exit_price, exit_time, slippage_ticks, commission, cost_r)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, t := range results {
		_, err := stmt.ExecContext(ctx,
			runID, configKey, t.Date.Format(dayLayout), t.Session, t.Instrument,
			string(t.ExecutionMode), string(t.Outcome), t.SkipReason, int(t.Direction),
			t.RangeHigh, t.RangeLow, t.EntryPrice, nullTime(t.EntryTime),
			t.StopPrice, t.TargetPrice, t.StopDistance, t.RealRisk,
			t.RMultiple, t.MAER, t.MFER, t.ExitPrice, nullTime(t.ExitTime),
			t.SlippageTicks, t.Commission, t.CostR,
		)
		if err != nil {
			return fmt.Errorf("insert result %s %s: %w", configKey[:min(8, len(configKey))], t.Date.Format(dayLayout), err)
		}
	}
	return nil
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC()
}
