package journal

import (
	"io"
	"text/template"
	"time"

	"github.com/rustyeddy/orb/backtest"
)

// OrgConfig is one config row of an Org run summary.
type OrgConfig struct {
	Key   string
	Mode  string
	Stats backtest.Stats
}

type orgRun struct {
	Run
	Configs []OrgConfig
	Notes   []string
}

var runOrgFuncs = template.FuncMap{
	"short": func(s string) string {
		if len(s) > 8 {
			return s[:8]
		}
		return s
	},
	// a run without a timestamp renders an empty date rather than the clock,
	// so the same run always renders the same block
	"stamp": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return "[" + t.UTC().Format("2006-01-02 Mon 15:04") + "]"
	},
}

var runOrgTemplate = template.Must(template.New("run").Funcs(runOrgFuncs).Parse(RunOrgTemplate))

// WriteRunOrg renders an Org-mode block for a run with per-config stats
// built from recs. The output depends only on its arguments.
func WriteRunOrg(w io.Writer, run Run, recs []Record, notes ...string) error {
	v := orgRun{Run: run, Notes: notes}
	for _, g := range groupByConfig(recs) {
		v.Configs = append(v.Configs, OrgConfig{
			Key:   g.key,
			Mode:  string(g.results[0].ExecutionMode),
			Stats: backtest.Summarize(g.results),
		})
	}
	return runOrgTemplate.Execute(w, v)
}

const RunOrgTemplate = `* SWEEP: ORB {{.Symbol}} {{.Session}}
:PROPERTIES:
:RUN_ID:     {{.RunID}}
:INSTRUMENT: {{.Symbol}}
:SESSION:    {{.Session}}
:START_DATE: {{.From.Format "2006-01-02"}}
:END_DATE:   {{.To.Format "2006-01-02"}}
:CONFIGS:    {{.Run.Configs}}
:SIMULATED:  {{.Simulated}}
:ERRORS:     {{.Errors}}
:MEMO_HITS:  {{.MemoHits}}
:PARTIAL:    {{if .Partial}}yes{{else}}no{{end}}
:CREATED:    {{stamp .Created}}
:END:

** Configurations
| Config   | Mode | Trades | Wins | Losses | Win % | Avg Net R | Total Net R | Max DD R |
|----------+------+--------+------+--------+-------+-----------+-------------+----------|
{{- range .Configs }}
| {{short .Key}} | {{.Mode}} | {{.Stats.Trades}} | {{.Stats.Wins}} | {{.Stats.Losses}} | {{printf "%.1f" .Stats.WinRate}} | {{printf "%+.3f" .Stats.AvgNetR}} | {{printf "%+.2f" .Stats.TotalNetR}} | {{printf "%.2f" .Stats.MaxDDR}} |
{{- end }}
{{- if .Notes }}

** Observations
{{- range .Notes }}
- {{.}}
{{- end }}
{{- end }}
`
