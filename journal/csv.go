package journal

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"time"
)

var csvHeader = []string{
	"run_id", "config_key", "date", "session", "instrument", "mode", "outcome", "skip_reason", "direction",
	"range_high", "range_low", "entry_price", "entry_time", "stop_price", "target_price", "stop_distance",
	"real_risk", "r_multiple", "mae_r", "mfe_r", "exit_price", "exit_time", "slippage_ticks", "commission",
	"cost_r", "net_r",
}

// WriteCSV writes records with a header row.
func WriteCSV(w io.Writer, recs []Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range recs {
		if err := cw.Write(csvRow(r)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCSVFile creates path and writes records to it.
func WriteCSVFile(path string, recs []Record) error {
	fh, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteCSV(fh, recs); err != nil {
		fh.Close()
		return err
	}
	return fh.Close()
}

func csvRow(r Record) []string {
	t := r.Result
	return []string{
		r.RunID,
		r.ConfigKey,
		t.Date.Format(dayLayout),
		t.Session,
		t.Instrument,
		string(t.ExecutionMode),
		string(t.Outcome),
		t.SkipReason,
		t.Direction.String(),
		f(t.RangeHigh),
		f(t.RangeLow),
		f(t.EntryPrice),
		ts(t.EntryTime),
		f(t.StopPrice),
		f(t.TargetPrice),
		f(t.StopDistance),
		f(t.RealRisk),
		f(t.RMultiple),
		f(t.MAER),
		f(t.MFER),
		f(t.ExitPrice),
		ts(t.ExitTime),
		f(t.SlippageTicks),
		f(t.Commission),
		f(t.CostR),
		f(t.NetR()),
	}
}

func f(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func ts(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
