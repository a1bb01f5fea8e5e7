package backtest

import (
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// PrintResult writes one trade result as a two-column table.
func PrintResult(w io.Writer, r TradeResult) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle(fmt.Sprintf("%s %s %s", r.Instrument, r.Session, r.Date.Format("2006-01-02")))
	t.SetStyle(table.StyleRounded)

	t.AppendRows([]table.Row{
		{"Mode", r.ExecutionMode},
		{"Range", fmt.Sprintf("%.4f - %.4f (%.4f)", r.RangeLow, r.RangeHigh, r.RangeSize())},
		{"Outcome", r.Outcome},
	})
	if r.SkipReason != "" {
		t.AppendRow(table.Row{"Skip Reason", r.SkipReason})
	}
	if r.Filled() {
		t.AppendSeparator()
		t.AppendRows([]table.Row{
			{"Direction", r.Direction},
			{"Entry", fmt.Sprintf("%.4f @ %s", r.EntryPrice, r.EntryTime.Format(time.RFC3339))},
			{"Stop", fmt.Sprintf("%.4f", r.StopPrice)},
			{"Target", fmt.Sprintf("%.4f", r.TargetPrice)},
			{"Risk", fmt.Sprintf("%.4f (real %.4f)", r.StopDistance, r.RealRisk)},
			{"Exit", fmt.Sprintf("%.4f", r.ExitPrice)},
		})
		t.AppendSeparator()
		t.AppendRows([]table.Row{
			{"R", fmt.Sprintf("%+.2f", r.RMultiple)},
			{"MAE / MFE", fmt.Sprintf("%.2f / %.2f", r.MAER, r.MFER)},
			{"Slippage", fmt.Sprintf("%.2f ticks", r.SlippageTicks)},
			{"Commission", fmt.Sprintf("%.2f", r.Commission)},
			{"Cost R", fmt.Sprintf("%.4f", r.CostR)},
			{"Net R", fmt.Sprintf("%+.4f", r.NetR())},
		})
	}

	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, WidthMin: 12, Align: text.AlignLeft},
		{Number: 2, WidthMin: 30, Align: text.AlignLeft},
	})
	t.Render()
}

// PrintStats writes a summary table.
func PrintStats(w io.Writer, title string, s Stats) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle(title)
	t.SetStyle(table.StyleRounded)

	t.AppendRows([]table.Row{
		{"Results", s.Results},
		{"Trades", s.Trades},
		{"Wins", s.Wins},
		{"Losses", s.Losses},
		{"No Outcome", s.NoOutcome},
		{"Skipped", s.Skipped},
	})
	t.AppendSeparator()
	t.AppendRows([]table.Row{
		{"Win Rate", fmt.Sprintf("%.2f%%", s.WinRate)},
		{"Avg R", fmt.Sprintf("%+.3f", s.AvgR)},
		{"Avg Net R", fmt.Sprintf("%+.3f", s.AvgNetR)},
		{"Total Net R", fmt.Sprintf("%+.2f", s.TotalNetR)},
		{"Avg Cost R", fmt.Sprintf("%.4f", s.AvgCostR)},
		{"Max DD (R)", fmt.Sprintf("%.2f", s.MaxDDR)},
		{"Avg MAE / MFE", fmt.Sprintf("%.2f / %.2f", s.AvgMAER, s.AvgMFER)},
	})

	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, WidthMin: 14, Align: text.AlignLeft},
		{Number: 2, WidthMin: 12, Align: text.AlignRight},
	})
	t.Render()
}
