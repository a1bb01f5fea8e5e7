package sweep

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rustyeddy/orb/backtest"
)

// Scope is what a config is tested against.
type Scope struct {
	Symbol  string
	Session string
	From    time.Time // first day
	To      time.Time // last day, inclusive
}

// Key identifies a config tested over a scope. It is a SHA-256 over sorted
// key=value pairs, so it does not depend on field order and two configs that
// simulate identically share a key.
func Key(s Scope, c backtest.ExecutionConfig) string {
	fields := configFields(Normalize(c))
	fields["symbol"] = s.Symbol
	fields["session"] = s.Session
	fields["from"] = s.From.UTC().Format("2006-01-02")
	fields["to"] = s.To.UTC().Format("2006-01-02")
	return hash(fields)
}

// ConfigKey is Key without a scope.
func ConfigKey(c backtest.ExecutionConfig) string {
	return hash(configFields(Normalize(c)))
}

func configFields(c backtest.ExecutionConfig) map[string]string {
	return map[string]string{
		"mode":                    string(c.Mode),
		"rr_target":               ff(c.RRTarget),
		"stop_fraction":           ff(c.StopFraction),
		"confirm_bars":            strconv.Itoa(c.ConfirmBars),
		"entry_delay_bars":        strconv.Itoa(c.EntryDelayBars),
		"slippage_ticks":          ff(c.SlippageTicks),
		"commission_per_contract": ff(c.CommissionPerContract),
		"max_stop_ticks":          ff(c.MaxStopTicks),
		"orb_size_filter.min":     ff(c.SizeFilter.MinTicks),
		"orb_size_filter.max":     ff(c.SizeFilter.MaxTicks),
		"retrace_lookahead_bars":  strconv.Itoa(c.RetraceLookaheadBars),
		"max_hold_bars":           strconv.Itoa(c.MaxHoldBars),
	}
}

func hash(fields map[string]string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(fields[k])
		b.WriteByte('\n')
	}
	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

func ff(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
