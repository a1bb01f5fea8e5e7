package journal

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/rustyeddy/orb/backtest"
)

const (
	resultsSheet = "Results"
	summarySheet = "Summary"
)

// WriteXLSX writes a workbook with one row per result and a per-config
// summary sheet.
func WriteXLSX(path string, run Run, recs []Record) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}

	fx := excelize.NewFile()
	defer fx.Close()

	if err := fx.SetSheetName(fx.GetSheetName(0), resultsSheet); err != nil {
		return err
	}
	if _, err := fx.NewSheet(summarySheet); err != nil {
		return err
	}

	header, err := fx.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"2F4F4F"}, Pattern: 1},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
		},
	})
	if err != nil {
		return err
	}
	rStyle, err := fx.NewStyle(&excelize.Style{NumFmt: 2}) // 0.00
	if err != nil {
		return err
	}

	if err := writeRows(fx, resultsSheet, header, csvHeader, len(recs), func(i int) []any {
		row := csvRow(recs[i])
		out := make([]any, len(row))
		for j, v := range row {
			out[j] = v
		}
		// numeric cells stay numeric
		t := recs[i].Result
		out[17], out[18], out[19], out[24], out[25] = t.RMultiple, t.MAER, t.MFER, t.CostR, t.NetR()
		return out
	}); err != nil {
		return err
	}
	last, _ := excelize.CoordinatesToCellName(26, len(recs)+1)
	if len(recs) > 0 {
		if err := fx.SetCellStyle(resultsSheet, "R2", last, rStyle); err != nil {
			return err
		}
	}

	groups := groupByConfig(recs)
	summaryHeader := []string{"config_key", "mode", "results", "trades", "wins", "losses", "win_rate_pct",
		"avg_net_r", "total_net_r", "max_dd_r", "avg_mae_r", "avg_mfe_r"}
	if err := writeRows(fx, summarySheet, header, summaryHeader, len(groups), func(i int) []any {
		g := groups[i]
		s := backtest.Summarize(g.results)
		return []any{g.key, string(g.results[0].ExecutionMode), s.Results, s.Trades, s.Wins, s.Losses,
			s.WinRate, s.AvgNetR, s.TotalNetR, s.MaxDDR, s.AvgMAER, s.AvgMFER}
	}); err != nil {
		return err
	}

	title := fmt.Sprintf("run %s  %s %s  %s..%s", run.RunID, run.Symbol, run.Session,
		run.From.Format(dayLayout), run.To.Format(dayLayout))
	if err := fx.SetCellValue(summarySheet, fmt.Sprintf("A%d", len(groups)+3), title); err != nil {
		return err
	}

	return fx.SaveAs(path)
}

func writeRows(fx *excelize.File, sheet string, headerStyle int, header []string, n int, row func(int) []any) error {
	for c, h := range header {
		cell, _ := excelize.CoordinatesToCellName(c+1, 1)
		if err := fx.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
	}
	first, _ := excelize.CoordinatesToCellName(1, 1)
	lastHdr, _ := excelize.CoordinatesToCellName(len(header), 1)
	if err := fx.SetCellStyle(sheet, first, lastHdr, headerStyle); err != nil {
		return err
	}

	for i := 0; i < n; i++ {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		vals := row(i)
		if err := fx.SetSheetRow(sheet, cell, &vals); err != nil {
			return err
		}
	}
	return fx.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})
}

type configGroup struct {
	key     string
	results []backtest.TradeResult
}

// groupByConfig keeps first-seen order.
func groupByConfig(recs []Record) []configGroup {
	idx := map[string]int{}
	var out []configGroup
	for _, r := range recs {
		i, ok := idx[r.ConfigKey]
		if !ok {
			i = len(out)
			idx[r.ConfigKey] = i
			out = append(out, configGroup{key: r.ConfigKey})
		}
		out[i].results = append(out[i].results, r.Result)
	}
	return out
}
