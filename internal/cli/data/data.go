// Package data holds the bar data loading commands.
package data

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rustyeddy/orb/barstore"
	orbcfg "github.com/rustyeddy/orb/config"
	"github.com/rustyeddy/orb/internal/cli/config"
	"github.com/rustyeddy/orb/market"
	"github.com/rustyeddy/orb/orb"
)

// New returns the data command group.
func New(rc *config.RootConfig) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "data",
		Short: "Bar data tools",
	}
	cmd.AddCommand(newImportCmd(rc))
	return cmd
}

func newImportCmd(rc *config.RootConfig) *cobra.Command {
	var (
		outPath string
		ranges  bool
	)

	cmd := &cobra.Command{
		Use:   "import <bars.csv>",
		Short: "Load a bar CSV (time,symbol,open,high,low,close[,volume]) into a SQLite bar store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := rc.Load()
			if err != nil {
				return err
			}
			if outPath == "" {
				if cfg.Data.Kind != "sqlite" {
					return fmt.Errorf("missing --out (data.kind is %q, not sqlite)", cfg.Data.Kind)
				}
				outPath = cfg.Data.Path
			}
			log, err := rc.Logger(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			src, err := barstore.LoadCSV(args[0])
			if err != nil {
				return err
			}
			dst, err := barstore.CreateSQLite(outPath)
			if err != nil {
				return err
			}
			defer dst.Close()

			ctx := cmd.Context()
			var session *market.Session
			if ranges {
				session = &cfg.Session
			}
			n, nr, err := Import(ctx, src, dst, session, log)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d bars, %d ranges into %s\n", n, nr, outPath)
			return nil
		},
	}
	cmd.Flags().StringVar(&outPath, "out", "", "SQLite bar store to write (default data.path)")
	cmd.Flags().BoolVar(&ranges, "ranges", false, "Also store the configured session's opening range per day")
	return cmd
}

// Import copies every symbol in src into dst. With a session it also stores
// the opening range of each weekday that has a full formation window.
func Import(ctx context.Context, src *barstore.CSV, dst *barstore.SQLite, session *market.Session, log *zap.Logger) (bars, ranges int, err error) {
	for _, sym := range src.Symbols() {
		all := src.All(sym)
		if err := market.ValidateBars(all); err != nil {
			return bars, ranges, fmt.Errorf("%s: %w", sym, err)
		}
		if err := dst.InsertBars(ctx, sym, all); err != nil {
			return bars, ranges, fmt.Errorf("%s: %w", sym, err)
		}
		bars += len(all)
		log.Info("imported bars", zap.String("symbol", sym), zap.Int("bars", len(all)))

		if session == nil || len(all) == 0 {
			continue
		}
		for _, day := range orbcfg.Weekdays(all[0].Time, all[len(all)-1].Time) {
			r, err := orb.Extract(all, *session, day)
			if errors.Is(err, orb.ErrInsufficientData) {
				continue
			}
			if err != nil {
				return bars, ranges, err
			}
			if err := dst.InsertRange(ctx, sym, r); err != nil {
				return bars, ranges, fmt.Errorf("%s %s: %w", sym, day.Format("2006-01-02"), err)
			}
			ranges++
		}
	}
	return bars, ranges, nil
}
