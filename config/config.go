package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"
	_ "time/tzdata" // session timezones on hosts without zoneinfo

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/orb/backtest"
	"github.com/rustyeddy/orb/barstore"
	"github.com/rustyeddy/orb/market"
	"github.com/rustyeddy/orb/sweep"
)

const dateLayout = "2006-01-02"

// Config represents a complete backtest configuration
type Config struct {
	Instrument InstrumentConfig         `json:"instrument" yaml:"instrument"`
	Session    market.Session           `json:"session" yaml:"session"`
	Execution  backtest.ExecutionConfig `json:"execution" yaml:"execution"`
	Sweep      SweepConfig              `json:"sweep" yaml:"sweep"`
	Data       barstore.Source          `json:"data" yaml:"data"`
	Journal    JournalConfig            `json:"journal" yaml:"journal"`
	LogLevel   string                   `json:"log_level,omitempty" yaml:"log_level,omitempty"`
}

// InstrumentConfig names a known instrument. Non-zero overrides replace
// the table values, and are required for symbols not in the table.
type InstrumentConfig struct {
	Symbol     string  `json:"symbol" yaml:"symbol"`
	TickSize   float64 `json:"tick_size,omitempty" yaml:"tick_size,omitempty"`
	TickValue  float64 `json:"tick_value,omitempty" yaml:"tick_value,omitempty"`
	PointValue float64 `json:"point_value,omitempty" yaml:"point_value,omitempty"`
}

// SweepConfig contains sweep parameters
type SweepConfig struct {
	Grid    sweep.Grid `json:"grid" yaml:"grid"`
	From    string     `json:"from,omitempty" yaml:"from,omitempty"` // 2006-01-02
	To      string     `json:"to,omitempty" yaml:"to,omitempty"`
	Budget  string     `json:"budget,omitempty" yaml:"budget,omitempty"` // e.g. "10m", empty = unbounded
	Workers int        `json:"workers,omitempty" yaml:"workers,omitempty"`
}

// JournalConfig contains journaling parameters
type JournalConfig struct {
	DBPath string `json:"db_path" yaml:"db_path"`
}

// Resolve returns the instrument with overrides applied.
func (ic InstrumentConfig) Resolve() (market.Instrument, error) {
	inst, err := market.LookupInstrument(ic.Symbol)
	if err != nil {
		inst = market.Instrument{Symbol: ic.Symbol}
	}
	if ic.TickSize > 0 {
		inst.TickSize = ic.TickSize
	}
	if ic.TickValue > 0 {
		inst.TickValue = ic.TickValue
	}
	if ic.PointValue > 0 {
		inst.PointValue = ic.PointValue
	}
	if err := inst.Validate(); err != nil {
		return market.Instrument{}, fmt.Errorf("instrument %q: %w", ic.Symbol, err)
	}
	return inst, nil
}

// ParseBudget converts the budget string to time.Duration
func (s SweepConfig) ParseBudget() (time.Duration, error) {
	if s.Budget == "" {
		return 0, nil
	}
	return time.ParseDuration(s.Budget)
}

// Days returns every weekday between From and To inclusive.
func (s SweepConfig) Days() ([]time.Time, error) {
	from, err := time.Parse(dateLayout, s.From)
	if err != nil {
		return nil, fmt.Errorf("sweep.from: %w", err)
	}
	to, err := time.Parse(dateLayout, s.To)
	if err != nil {
		return nil, fmt.Errorf("sweep.to: %w", err)
	}
	return Weekdays(from, to), nil
}

// Weekdays lists Monday to Friday dates in [from, to] at UTC midnight.
func Weekdays(from, to time.Time) []time.Time {
	var out []time.Time
	from = time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		if wd := d.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		out = append(out, d)
	}
	return out
}

// LoadFromFile loads configuration from a file (JSON or YAML based on extension)
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()

	// Try YAML first, fall back to JSON
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		cfg = Default()
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	cfg.ApplyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveToFile saves configuration to a file (JSON or YAML based on extension)
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}

	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// Environment overrides, read after an optional .env file.
const (
	EnvDataKind      = "ORB_DATA_KIND"
	EnvDataPath      = "ORB_DATA_PATH"
	EnvClickHouseDSN = "ORB_CLICKHOUSE_DSN"
	EnvJournalPath   = "ORB_JOURNAL_PATH"
	EnvLogLevel      = "ORB_LOG_LEVEL"
)

// LoadEnv loads a .env file from the working directory if there is one.
func LoadEnv() {
	_ = godotenv.Load()
}

// ApplyEnv overwrites fields with any ORB_* variables that are set.
func (c *Config) ApplyEnv() {
	LoadEnv()
	if v := os.Getenv(EnvDataKind); v != "" {
		c.Data.Kind = v
	}
	if v := os.Getenv(EnvDataPath); v != "" {
		c.Data.Path = v
	}
	if v := os.Getenv(EnvClickHouseDSN); v != "" {
		c.Data.DSN = v
	}
	if v := os.Getenv(EnvJournalPath); v != "" {
		c.Journal.DBPath = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Instrument.Symbol == "" {
		return fmt.Errorf("instrument.symbol is required")
	}
	if _, err := c.Instrument.Resolve(); err != nil {
		return err
	}
	if err := c.Session.Validate(); err != nil {
		return err
	}
	if err := c.Execution.Validate(); err != nil {
		return fmt.Errorf("execution: %w", err)
	}
	if err := c.Data.Validate(); err != nil {
		return fmt.Errorf("data: %w", err)
	}
	if c.Journal.DBPath == "" {
		return fmt.Errorf("journal.db_path is required")
	}
	if c.Sweep.Workers < 0 {
		return fmt.Errorf("sweep.workers must not be negative")
	}
	if _, err := c.Sweep.ParseBudget(); err != nil {
		return fmt.Errorf("sweep.budget: %w", err)
	}
	if c.Sweep.From != "" || c.Sweep.To != "" {
		days, err := c.Sweep.Days()
		if err != nil {
			return err
		}
		if len(days) == 0 {
			return fmt.Errorf("sweep.from..sweep.to contains no weekdays")
		}
	}
	for _, ec := range c.Configs() {
		if err := ec.Validate(); err != nil {
			return fmt.Errorf("sweep.grid: %w", err)
		}
	}
	return nil
}

// Configs expands the sweep grid over the base execution config.
func (c *Config) Configs() []backtest.ExecutionConfig {
	return c.Sweep.Grid.Expand(c.Execution)
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	return &Config{
		Instrument: InstrumentConfig{Symbol: "ES"},
		Session: market.Session{
			Label:            "NY",
			Start:            "09:30",
			End:              "16:00",
			FormationMinutes: 15,
			Timezone:         "America/New_York",
		},
		Execution: backtest.DefaultExecution(),
		Sweep: SweepConfig{
			Grid: sweep.Grid{
				RRTargets:     []float64{1, 1.5, 2, 3},
				StopFractions: []float64{0.5, 1},
			},
		},
		Data: barstore.Source{
			Kind: "sqlite",
			Path: "./bars.db",
		},
		Journal: JournalConfig{
			DBPath: "./orb.db",
		},
		LogLevel: "info",
	}
}
