package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rustyeddy/orb/fill"
	"github.com/rustyeddy/orb/market"
	"github.com/rustyeddy/orb/sim"
)

const runColumns = `run_id, created, symbol, session, from_day, to_day, configs, simulated, errors, memo_hits, partial, elapsed_ms`

// GetRun returns a single run by ID.
func (j *SQLite) GetRun(ctx context.Context, runID string) (Run, error) {
	row := j.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE run_id = ?`, runID)
	r, err := scanRun(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return Run{}, fmt.Errorf("run %q not found", runID)
		}
		return Run{}, err
	}
	return r, nil
}

// ListRuns returns runs newest first.
func (j *SQLite) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := j.db.QueryContext(ctx, `SELECT `+runColumns+` FROM runs ORDER BY run_id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListResultsByRun returns a run's results ordered by config, then day.
func (j *SQLite) ListResultsByRun(ctx context.Context, runID string) ([]Record, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT run_id, config_key, day, session, instrument, mode, outcome, skip_reason, direction,
		       range_high, range_low, entry_price, entry_time, stop_price, target_price, stop_distance, real_risk,
		       r_multiple, mae_r, mfe_r, exit_price, exit_time, slippage_ticks, commission, cost_r
		FROM trade_results
		WHERE run_id = ?
		ORDER BY rowid ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var (
			rec                 Record
			day, mode, outcome  string
			dir                 int
			entryTime, exitTime sql.NullTime
		)
		t := &rec.Result
		if err := rows.Scan(
			&rec.RunID, &rec.ConfigKey, &day, &t.Session, &t.Instrument, &mode, &outcome, &t.SkipReason, &dir,
			&t.RangeHigh, &t.RangeLow, &t.EntryPrice, &entryTime, &t.StopPrice, &t.TargetPrice, &t.StopDistance, &t.RealRisk,
			&t.RMultiple, &t.MAER, &t.MFER, &t.ExitPrice, &exitTime, &t.SlippageTicks, &t.Commission, &t.CostR,
		); err != nil {
			return nil, err
		}
		if t.Date, err = time.Parse(dayLayout, day); err != nil {
			return nil, err
		}
		if t.Outcome, err = sim.ParseOutcome(outcome); err != nil {
			return nil, err
		}
		t.ExecutionMode = fill.Mode(mode)
		t.Direction = market.Direction(dir)
		if entryTime.Valid {
			t.EntryTime = entryTime.Time.UTC()
			t.FillTime = t.EntryTime
		}
		if exitTime.Valid {
			t.ExitTime = exitTime.Time.UTC()
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListTestedConfigs returns memo entries for symbol and session, best total
// net R first.
func (j *SQLite) ListTestedConfigs(ctx context.Context, symbol, session string) ([]TestedConfig, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT config_key, run_id, symbol, session, from_day, to_day, exec_json,
		       trades, wins, losses, avg_net_r, total_net_r, max_dd_r, tested_at
		FROM tested_configs
		WHERE symbol = ? AND session = ?
		ORDER BY total_net_r DESC, config_key ASC`, symbol, session)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TestedConfig
	for rows.Next() {
		var (
			tc       TestedConfig
			from, to string
			exec     string
		)
		if err := rows.Scan(
			&tc.Key, &tc.RunID, &tc.Scope.Symbol, &tc.Scope.Session, &from, &to, &exec,
			&tc.Trades, &tc.Wins, &tc.Losses, &tc.AvgNetR, &tc.TotalNetR, &tc.MaxDDR, &tc.TestedAt,
		); err != nil {
			return nil, err
		}
		if tc.Scope.From, err = time.Parse(dayLayout, from); err != nil {
			return nil, err
		}
		if tc.Scope.To, err = time.Parse(dayLayout, to); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(exec), &tc.Exec); err != nil {
			return nil, fmt.Errorf("config %s: %w", tc.Key, err)
		}
		out = append(out, tc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (Run, error) {
	var (
		r         Run
		from, to  string
		elapsedMS int64
	)
	if err := s.Scan(&r.RunID, &r.Created, &r.Symbol, &r.Session, &from, &to,
		&r.Configs, &r.Simulated, &r.Errors, &r.MemoHits, &r.Partial, &elapsedMS); err != nil {
		return Run{}, err
	}
	var err error
	if r.From, err = time.Parse(dayLayout, from); err != nil {
		return Run{}, err
	}
	if r.To, err = time.Parse(dayLayout, to); err != nil {
		return Run{}, err
	}
	r.Created = r.Created.UTC()
	r.Elapsed = time.Duration(elapsedMS) * time.Millisecond
	return r, nil
}
