// Package barstore holds read-only sources of 1-minute bars.
package barstore

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rustyeddy/orb/market"
)

// CSV serves bars loaded from a file of rows:
//
//	time,symbol,open,high,low,close[,volume]
//
// where time is RFC3339 or unix seconds. A header row ("time,...") is
// allowed and empty rows are skipped. File order is kept so that
// out-of-order data reaches market.ValidateBars unchanged.
type CSV struct {
	bars map[string][]market.Bar
}

func LoadCSV(path string) (*CSV, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	c, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

func ReadCSV(src io.Reader) (*CSV, error) {
	r := csv.NewReader(src)
	r.FieldsPerRecord = -1

	c := &CSV{bars: make(map[string][]market.Bar)}
	for line := 1; ; line++ {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(row) == 0 {
			continue
		}
		if line == 1 && strings.EqualFold(strings.TrimSpace(row[0]), "time") {
			continue
		}

		sym, b, ok, err := parseBarRow(row)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if !ok {
			continue
		}
		c.bars[sym] = append(c.bars[sym], b)
	}
	return c, nil
}

// Symbols lists the symbols present in the file.
func (c *CSV) Symbols() []string {
	out := make([]string, 0, len(c.bars))
	for s := range c.bars {
		out = append(out, s)
	}
	return out
}

// All returns every bar for symbol in file order.
func (c *CSV) All(symbol string) []market.Bar { return c.bars[symbol] }

func (c *CSV) Bars(_ context.Context, symbol string, from, to time.Time) ([]market.Bar, error) {
	var out []market.Bar
	for _, b := range c.bars[symbol] {
		if inRange(b.Time, from, to) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (c *CSV) Close() error { return nil }

func parseBarRow(row []string) (string, market.Bar, bool, error) {
	// Need at least: time,symbol,open,high,low,close
	if len(row) < 6 {
		return "", market.Bar{}, false, nil
	}

	ts := strings.TrimSpace(row[0])
	if ts == "" {
		return "", market.Bar{}, false, nil
	}
	t, err := parseTime(ts)
	if err != nil {
		return "", market.Bar{}, false, err
	}

	sym := strings.TrimSpace(row[1])
	if sym == "" {
		return "", market.Bar{}, false, nil
	}

	var v [5]float64
	n := 4
	if len(row) > 6 {
		n = 5
	}
	for i := 0; i < n; i++ {
		s := strings.TrimSpace(row[2+i])
		v[i], err = strconv.ParseFloat(s, 64)
		if err != nil {
			return "", market.Bar{}, false, fmt.Errorf("bad price %q: %w", s, err)
		}
	}

	return sym, market.Bar{Time: t, Open: v[0], High: v[1], Low: v[2], Close: v[3], Volume: v[4]}, true, nil
}

func parseTime(s string) (time.Time, error) {
	if sec, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(sec, 0).UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t2, err2 := time.Parse(time.RFC3339Nano, s)
		if err2 != nil {
			return time.Time{}, fmt.Errorf("bad time %q: %w", s, err)
		}
		t = t2
	}
	return t.UTC(), nil
}

func inRange(t, from, to time.Time) bool {
	if !from.IsZero() && t.Before(from) {
		return false
	}
	if !to.IsZero() && !t.Before(to) {
		return false
	}
	return true
}
