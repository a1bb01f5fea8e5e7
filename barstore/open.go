package barstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rustyeddy/orb/backtest"
	"github.com/rustyeddy/orb/market"
)

var ErrUnknownSource = errors.New("unknown bar source")

// Store is a closable bar provider.
type Store interface {
	Bars(ctx context.Context, symbol string, from, to time.Time) ([]market.Bar, error)
	Close() error
}

var (
	_ backtest.BarProvider   = (*CSV)(nil)
	_ backtest.BarProvider   = (*SQLite)(nil)
	_ backtest.RangeProvider = (*SQLite)(nil)
	_ backtest.BarProvider   = (*ClickHouse)(nil)
)

// Source selects and locates a bar store.
type Source struct {
	Kind  string `json:"kind" yaml:"kind"`                       // csv | sqlite | clickhouse
	Path  string `json:"path,omitempty" yaml:"path,omitempty"`   // csv and sqlite
	DSN   string `json:"dsn,omitempty" yaml:"dsn,omitempty"`     // clickhouse
	Table string `json:"table,omitempty" yaml:"table,omitempty"` // clickhouse
}

func (s Source) Validate() error {
	switch s.Kind {
	case "csv", "sqlite":
		if s.Path == "" {
			return fmt.Errorf("%s bar source requires path", s.Kind)
		}
	case "clickhouse":
		if s.DSN == "" {
			return errors.New("clickhouse bar source requires dsn")
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownSource, s.Kind)
	}
	return nil
}

// Open returns the store described by src.
func Open(ctx context.Context, src Source) (Store, error) {
	if err := src.Validate(); err != nil {
		return nil, err
	}
	switch src.Kind {
	case "csv":
		return LoadCSV(src.Path)
	case "sqlite":
		return OpenSQLite(src.Path)
	default:
		return OpenClickHouse(ctx, src.DSN, src.Table)
	}
}

// Ranges returns the store's precomputed ranges when it has any.
func Ranges(s Store) backtest.RangeProvider {
	if rp, ok := s.(backtest.RangeProvider); ok {
		return rp
	}
	return nil
}
