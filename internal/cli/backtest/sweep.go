package backtest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rustyeddy/orb/internal/cli/config"
	"github.com/rustyeddy/orb/internal/observability"
	"github.com/rustyeddy/orb/journal"
	"github.com/rustyeddy/orb/sweep"
)

// NewSweepCmd returns the grid sweep command.
func NewSweepCmd(rc *config.RootConfig) *cobra.Command {
	var (
		fromStr     string
		toStr       string
		budgetStr   string
		workers     int
		metricsAddr string
		top         int
		noMemo      bool
	)

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Run the configured parameter grid over a date range and journal the results",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := rc.Load()
			if err != nil {
				return err
			}
			if fromStr != "" {
				cfg.Sweep.From = fromStr
			}
			if toStr != "" {
				cfg.Sweep.To = toStr
			}
			if budgetStr != "" {
				cfg.Sweep.Budget = budgetStr
			}
			if workers > 0 {
				cfg.Sweep.Workers = workers
			}
			if cfg.Sweep.From == "" || cfg.Sweep.To == "" {
				return fmt.Errorf("a date range is required: set --from/--to or sweep.from/sweep.to")
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}
			days, _ := cfg.Sweep.Days()
			budget, _ := cfg.Sweep.ParseBudget()

			log, err := rc.Logger(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			ctx := cmd.Context()
			s, store, err := openSimulator(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer store.Close()

			j, err := journal.NewSQLite(cfg.Journal.DBPath)
			if err != nil {
				return fmt.Errorf("open journal: %w", err)
			}
			defer j.Close()

			metrics := observability.NewMetrics()
			if metricsAddr != "" {
				stop := serveMetrics(metricsAddr, metrics, log)
				defer stop()
			}

			runner := &sweep.Runner{
				Sim:     s,
				Workers: cfg.Sweep.Workers,
				Budget:  budget,
				Logger:  log,
				Metrics: metrics,
			}
			if !noMemo {
				runner.Memo = j
			}

			rep, runErr := runner.Run(ctx, cfg.Session, days, cfg.Configs())
			if rep == nil {
				return runErr
			}
			if err := j.SaveReport(context.WithoutCancel(ctx), rep); err != nil {
				return fmt.Errorf("save report: %w", err)
			}
			for _, e := range rep.Errors {
				log.Warn("day failed",
					zap.String("config", e.Key),
					zap.Time("day", e.Day),
					zap.String("kind", e.Kind),
					zap.Error(e.Err),
				)
			}

			sweep.PrintReport(cmd.OutOrStdout(), rep, top)
			return runErr
		},
	}

	cmd.Flags().StringVar(&fromStr, "from", "", "First day (YYYY-MM-DD)")
	cmd.Flags().StringVar(&toStr, "to", "", "Last day (YYYY-MM-DD), inclusive")
	cmd.Flags().StringVar(&budgetStr, "budget", "", "Wall-clock budget, e.g. 10m (empty = unbounded)")
	cmd.Flags().IntVar(&workers, "workers", 0, "Worker goroutines (0 = config or NumCPU)")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address while running, e.g. :9108")
	cmd.Flags().IntVar(&top, "top", 20, "Configs to print, best first (0 = all)")
	cmd.Flags().BoolVar(&noMemo, "no-memo", false, "Re-simulate configs already tested in the journal")

	return cmd
}

func serveMetrics(addr string, m *observability.Metrics, log *zap.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server", zap.Error(err))
		}
	}()
	log.Info("serving metrics", zap.String("addr", addr))

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}
