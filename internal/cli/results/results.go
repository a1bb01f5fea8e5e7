// Package results holds the commands that read the sweep journal.
package results

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/rustyeddy/orb/backtest"
	"github.com/rustyeddy/orb/internal/cli/config"
	"github.com/rustyeddy/orb/journal"
)

// New returns the results command group.
func New(rc *config.RootConfig) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "results",
		Short: "List journaled runs and export their results",
	}
	cmd.AddCommand(newListCmd(rc), newShowCmd(rc), newTestedCmd(rc))
	return cmd
}

func openJournal(rc *config.RootConfig) (*journal.SQLite, error) {
	cfg, err := rc.Load()
	if err != nil {
		return nil, err
	}
	j, err := journal.NewSQLite(cfg.Journal.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	return j, nil
}

func newListCmd(rc *config.RootConfig) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			j, err := openJournal(rc)
			if err != nil {
				return err
			}
			defer j.Close()

			runs, err := j.ListRuns(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("list runs: %w", err)
			}

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.SetStyle(table.StyleRounded)
			t.AppendHeader(table.Row{"Run", "Symbol", "Session", "From", "To", "Configs", "Simulated", "Errors", "Memo", "Partial"})
			for _, r := range runs {
				t.AppendRow(table.Row{r.RunID, r.Symbol, r.Session, r.From.Format("2006-01-02"), r.To.Format("2006-01-02"),
					r.Configs, r.Simulated, r.Errors, r.MemoHits, r.Partial})
			}
			t.Render()
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum runs to list")
	return cmd
}

func newShowCmd(rc *config.RootConfig) *cobra.Command {
	var (
		csvPath  string
		xlsxPath string
		org      bool
		notes    []string
	)

	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Summarize a run, optionally exporting CSV, XLSX or Org",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			j, err := openJournal(rc)
			if err != nil {
				return err
			}
			defer j.Close()

			ctx := cmd.Context()
			run, err := j.GetRun(ctx, args[0])
			if err != nil {
				return fmt.Errorf("get run: %w", err)
			}
			recs, err := j.ListResultsByRun(ctx, run.RunID)
			if err != nil {
				return fmt.Errorf("query results: %w", err)
			}

			out := cmd.OutOrStdout()
			if csvPath != "" {
				if err := journal.WriteCSVFile(csvPath, recs); err != nil {
					return fmt.Errorf("write csv: %w", err)
				}
				fmt.Fprintf(out, "wrote %s\n", csvPath)
			}
			if xlsxPath != "" {
				if err := journal.WriteXLSX(xlsxPath, run, recs); err != nil {
					return fmt.Errorf("write xlsx: %w", err)
				}
				fmt.Fprintf(out, "wrote %s\n", xlsxPath)
			}
			if org {
				return journal.WriteRunOrg(out, run, recs, notes...)
			}

			backtest.PrintStats(out, fmt.Sprintf("run %s  %s %s", run.RunID, run.Symbol, run.Session),
				backtest.Summarize(journal.Results(recs)))
			return nil
		},
	}
	cmd.Flags().StringVar(&csvPath, "csv", "", "Write results to this CSV file")
	cmd.Flags().StringVar(&xlsxPath, "xlsx", "", "Write results and a per-config summary to this workbook")
	cmd.Flags().BoolVar(&org, "org", false, "Print an Org-mode run summary")
	cmd.Flags().StringArrayVar(&notes, "note", nil, "Observation to add to the Org summary (repeatable)")
	return cmd
}

func newTestedCmd(rc *config.RootConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "tested <symbol> <session>",
		Short: "List configs already tested for a symbol and session",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			j, err := openJournal(rc)
			if err != nil {
				return err
			}
			defer j.Close()

			tcs, err := j.ListTestedConfigs(cmd.Context(), args[0], args[1])
			if err != nil {
				return fmt.Errorf("list tested configs: %w", err)
			}

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.SetStyle(table.StyleRounded)
			t.AppendHeader(table.Row{"Key", "Mode", "RR", "Stop", "From", "To", "Trades", "Wins", "Total Net R", "Max DD R"})
			for _, tc := range tcs {
				k := tc.Key
				if len(k) > 12 {
					k = k[:12]
				}
				t.AppendRow(table.Row{k, tc.Exec.Mode, tc.Exec.RRTarget, tc.Exec.StopFraction,
					tc.Scope.From.Format("2006-01-02"), tc.Scope.To.Format("2006-01-02"),
					tc.Trades, tc.Wins, fmt.Sprintf("%+.2f", tc.TotalNetR), fmt.Sprintf("%.2f", tc.MaxDDR)})
			}
			t.Render()
			return nil
		},
	}
}
