package backtest

import "github.com/rustyeddy/orb/sim"

// Stats is a lightweight summary over a set of trade results.
type Stats struct {
	Results   int
	Trades    int // filled
	Wins      int
	Losses    int
	NoOutcome int
	Skipped   int

	WinRate   float64 // wins / (wins + losses), in percent
	AvgR      float64 // per filled trade
	AvgNetR   float64
	TotalR    float64
	TotalNetR float64
	AvgCostR  float64
	MaxDDR    float64 // deepest peak-to-trough of cumulative net R
	AvgMAER   float64
	AvgMFER   float64
}

// Summarize folds results in order. Order matters only for MaxDDR.
func Summarize(results []TradeResult) Stats {
	s := Stats{Results: len(results)}

	var cum, peak, costR, mae, mfe float64
	for _, r := range results {
		switch r.Outcome {
		case sim.Win:
			s.Wins++
		case sim.Loss:
			s.Losses++
		case sim.NoOutcome:
			s.NoOutcome++
		case sim.SkippedNoEntry:
			s.Skipped++
			continue
		}
		s.Trades++
		s.TotalR += r.RMultiple
		s.TotalNetR += r.NetR()
		costR += r.CostR
		mae += r.MAER
		mfe += r.MFER

		cum += r.NetR()
		if cum > peak {
			peak = cum
		}
		if dd := peak - cum; dd > s.MaxDDR {
			s.MaxDDR = dd
		}
	}

	if decided := s.Wins + s.Losses; decided > 0 {
		s.WinRate = float64(s.Wins) / float64(decided) * 100
	}
	if s.Trades > 0 {
		n := float64(s.Trades)
		s.AvgR = s.TotalR / n
		s.AvgNetR = s.TotalNetR / n
		s.AvgCostR = costR / n
		s.AvgMAER = mae / n
		s.AvgMFER = mfe / n
	}
	return s
}
