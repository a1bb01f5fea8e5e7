package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/orb/fill"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.NotNil(t, cfg)
	assert.Equal(t, "ES", cfg.Instrument.Symbol)
	assert.Equal(t, "NY", cfg.Session.Label)
	assert.Equal(t, fill.MarketOnClose, cfg.Execution.Mode)
	assert.Equal(t, "sqlite", cfg.Data.Kind)
	assert.NoError(t, cfg.Validate())
	assert.Len(t, cfg.Configs(), 8)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		errMsg string
	}{
		{
			name:   "valid config",
			mutate: func(c *Config) {},
		},
		{
			name:   "missing symbol",
			mutate: func(c *Config) { c.Instrument.Symbol = "" },
			errMsg: "instrument.symbol is required",
		},
		{
			name:   "unknown symbol without overrides",
			mutate: func(c *Config) { c.Instrument.Symbol = "ZZ" },
			errMsg: "instrument.tick_size must be positive",
		},
		{
			name: "unknown symbol with overrides",
			mutate: func(c *Config) {
				c.Instrument = InstrumentConfig{Symbol: "ZZ", TickSize: 0.5, TickValue: 5, PointValue: 10}
			},
		},
		{
			name:   "bad session",
			mutate: func(c *Config) { c.Session.FormationMinutes = 0 },
			errMsg: "session.formation_minutes must be positive",
		},
		{
			name:   "bad execution",
			mutate: func(c *Config) { c.Execution.RRTarget = 0 },
			errMsg: "rr_target must be positive",
		},
		{
			name:   "unknown data kind",
			mutate: func(c *Config) { c.Data.Kind = "parquet" },
			errMsg: "unknown bar source",
		},
		{
			name:   "missing journal path",
			mutate: func(c *Config) { c.Journal.DBPath = "" },
			errMsg: "journal.db_path is required",
		},
		{
			name:   "negative workers",
			mutate: func(c *Config) { c.Sweep.Workers = -1 },
			errMsg: "sweep.workers must not be negative",
		},
		{
			name:   "bad budget",
			mutate: func(c *Config) { c.Sweep.Budget = "soon" },
			errMsg: "sweep.budget",
		},
		{
			name:   "bad from date",
			mutate: func(c *Config) { c.Sweep.From, c.Sweep.To = "03/04/2024", "2024-03-08" },
			errMsg: "sweep.from",
		},
		{
			name:   "weekend only",
			mutate: func(c *Config) { c.Sweep.From, c.Sweep.To = "2024-03-09", "2024-03-10" },
			errMsg: "no weekdays",
		},
		{
			name:   "bad grid value",
			mutate: func(c *Config) { c.Sweep.Grid.StopFractions = []float64{1.5} },
			errMsg: "sweep.grid",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestResolveOverrides(t *testing.T) {
	inst, err := InstrumentConfig{Symbol: "ES", TickValue: 1.25}.Resolve()
	require.NoError(t, err)
	assert.Equal(t, 0.25, inst.TickSize)
	assert.Equal(t, 1.25, inst.TickValue)
	assert.Equal(t, 50.0, inst.PointValue)
}

func TestSweepDays(t *testing.T) {
	s := SweepConfig{From: "2024-03-08", To: "2024-03-12"}
	days, err := s.Days()
	require.NoError(t, err)
	require.Len(t, days, 3)
	assert.Equal(t, time.Date(2024, 3, 8, 0, 0, 0, 0, time.UTC), days[0])
	assert.Equal(t, time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC), days[1])
	assert.Equal(t, time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC), days[2])

	budget, err := SweepConfig{Budget: "90s"}.ParseBudget()
	require.NoError(t, err)
	assert.Equal(t, 90*time.Second, budget)
}

func TestSaveAndLoad(t *testing.T) {
	for _, name := range []string{"config.yaml", "config.yml", "config.json"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)

			cfg := Default()
			cfg.Execution.Mode = fill.LimitOnRetrace
			cfg.Sweep.Grid.Modes = []fill.Mode{fill.MarketOnClose, fill.LimitAtEdge}
			cfg.Sweep.From, cfg.Sweep.To = "2024-03-04", "2024-03-08"
			require.NoError(t, cfg.SaveToFile(path))

			loaded, err := LoadFromFile(path)
			require.NoError(t, err)
			assert.Equal(t, cfg.Execution, loaded.Execution)
			assert.Equal(t, cfg.Session, loaded.Session)
			assert.Equal(t, cfg.Sweep, loaded.Sweep)
			assert.Equal(t, cfg.Data, loaded.Data)
		})
	}
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orb.yaml")
	require.NoError(t, os.WriteFile(path, []byte("instrument:\n  symbol: NQ\nexecution:\n  rr_target: 3\n"), 0644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "NQ", cfg.Instrument.Symbol)
	assert.Equal(t, 3.0, cfg.Execution.RRTarget)
	assert.Equal(t, 1.0, cfg.Execution.StopFraction)
	assert.Equal(t, "NY", cfg.Session.Label)
}

func TestLoadInvalid(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadFromFile(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config file")

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"execution": {"rr_target": -1}}`), 0644))
	_, err = LoadFromFile(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")

	garbage := filepath.Join(dir, "garbage.json")
	require.NoError(t, os.WriteFile(garbage, []byte("{{{"), 0644))
	_, err = LoadFromFile(garbage)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tried YAML and JSON")
}

func TestApplyEnv(t *testing.T) {
	t.Setenv(EnvDataKind, "clickhouse")
	t.Setenv(EnvClickHouseDSN, "clickhouse://localhost:9000/market")
	t.Setenv(EnvJournalPath, "/tmp/j.db")
	t.Setenv(EnvLogLevel, "debug")

	cfg := Default()
	cfg.ApplyEnv()
	assert.Equal(t, "clickhouse", cfg.Data.Kind)
	assert.Equal(t, "clickhouse://localhost:9000/market", cfg.Data.DSN)
	assert.Equal(t, "./bars.db", cfg.Data.Path)
	assert.Equal(t, "/tmp/j.db", cfg.Journal.DBPath)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.NoError(t, cfg.Validate())
}
