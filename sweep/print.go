package sweep

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// Ranked returns the simulated configs ordered by total net R, best first.
// Memo hits carry no results and are left out.
func (r *Report) Ranked() []ConfigResult {
	var out []ConfigResult
	for _, c := range r.Configs {
		if !c.MemoHit {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Stats.TotalNetR != out[j].Stats.TotalNetR {
			return out[i].Stats.TotalNetR > out[j].Stats.TotalNetR
		}
		return out[i].Key < out[j].Key
	})
	return out
}

// PrintReport writes the run header and the top configs. top <= 0 prints
// all of them.
func PrintReport(w io.Writer, rep *Report, top int) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.SetTitle(fmt.Sprintf("run %s  %s %s  %s..%s", rep.RunID, rep.Scope.Symbol, rep.Scope.Session,
		rep.Scope.From.Format("2006-01-02"), rep.Scope.To.Format("2006-01-02")))

	t.AppendHeader(table.Row{"Config", "Mode", "RR", "Stop", "Confirm", "Delay", "Slip", "Trades", "Win %", "Avg Net R", "Total Net R", "Max DD R"})

	ranked := rep.Ranked()
	if top > 0 && len(ranked) > top {
		ranked = ranked[:top]
	}
	for _, c := range ranked {
		key := c.Key
		if len(key) > 8 {
			key = key[:8]
		}
		if !c.Complete {
			key += "*"
		}
		e, s := c.Exec, c.Stats
		t.AppendRow(table.Row{
			key, e.Mode, e.RRTarget, e.StopFraction, e.ConfirmBars, e.EntryDelayBars, e.SlippageTicks,
			s.Trades,
			fmt.Sprintf("%.1f", s.WinRate),
			fmt.Sprintf("%+.3f", s.AvgNetR),
			fmt.Sprintf("%+.2f", s.TotalNetR),
			fmt.Sprintf("%.2f", s.MaxDDR),
		})
	}

	partial := "no"
	if rep.Partial {
		partial = "yes"
	}
	t.AppendFooter(table.Row{
		fmt.Sprintf("configs %d", len(rep.Configs)),
		fmt.Sprintf("simulated %d", rep.Simulated),
		fmt.Sprintf("errors %d", len(rep.Errors)),
		fmt.Sprintf("memo %d", rep.MemoHits),
		fmt.Sprintf("partial %s", partial),
		rep.Elapsed.Round(time.Millisecond).String(),
	})

	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft},
		{Number: 8, Align: text.AlignRight},
		{Number: 9, Align: text.AlignRight},
		{Number: 10, Align: text.AlignRight},
		{Number: 11, Align: text.AlignRight},
		{Number: 12, Align: text.AlignRight},
	})
	t.Render()
}
