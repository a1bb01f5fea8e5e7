package journal

const Schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id TEXT PRIMARY KEY,
	created DATETIME NOT NULL,
	symbol TEXT NOT NULL,
	session TEXT NOT NULL,
	from_day TEXT NOT NULL,
	to_day TEXT NOT NULL,
	configs INTEGER NOT NULL,
	simulated INTEGER NOT NULL,
	errors INTEGER NOT NULL,
	memo_hits INTEGER NOT NULL,
	partial INTEGER NOT NULL,
	elapsed_ms INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS trade_results (
	run_id TEXT NOT NULL REFERENCES runs(run_id),
	config_key TEXT NOT NULL,
	day TEXT NOT NULL,
	session TEXT NOT NULL,
	instrument TEXT NOT NULL,
	mode TEXT NOT NULL,
	outcome TEXT NOT NULL,
	skip_reason TEXT NOT NULL,
	direction INTEGER NOT NULL,
	range_high REAL NOT NULL,
	range_low REAL NOT NULL,
	entry_price REAL NOT NULL,
	entry_time DATETIME,
	stop_price REAL NOT NULL,
	target_price REAL NOT NULL,
	stop_distance REAL NOT NULL,
	real_risk REAL NOT NULL,
	r_multiple REAL NOT NULL,
	mae_r REAL NOT NULL,
	mfe_r REAL NOT NULL,
	exit_price REAL NOT NULL,
	exit_time DATETIME,
	slippage_ticks REAL NOT NULL,
	commission REAL NOT NULL,
	cost_r REAL NOT NULL,
	PRIMARY KEY (run_id, config_key, day)
);

CREATE INDEX IF NOT EXISTS idx_trade_results_config ON trade_results(config_key);

CREATE TABLE IF NOT EXISTS tested_configs (
	config_key TEXT PRIMARY KEY,
	run_id TEXT NOT NULL,
	symbol TEXT NOT NULL,
	session TEXT NOT NULL,
	from_day TEXT NOT NULL,
	to_day TEXT NOT NULL,
	exec_json TEXT NOT NULL,
	trades INTEGER NOT NULL,
	wins INTEGER NOT NULL,
	losses INTEGER NOT NULL,
	avg_net_r REAL NOT NULL,
	total_net_r REAL NOT NULL,
	max_dd_r REAL NOT NULL,
	tested_at DATETIME NOT NULL
);
`
