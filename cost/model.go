// Package cost converts slippage and commission into risk units.
package cost

import (
	"errors"

	"github.com/shopspring/decimal"

	"github.com/rustyeddy/orb/market"
)

var (
	ErrZeroRisk       = errors.New("cost: risk must be positive")
	ErrFreeMarketFill = errors.New("cost: market fill must carry slippage or commission")
)

// Model prices execution costs for one instrument.
type Model struct {
	TickValue  float64
	PointValue float64
}

func ForInstrument(inst market.Instrument) Model {
	return Model{TickValue: inst.TickValue, PointValue: inst.PointValue}
}

// Breakdown is the cost charged to one trade, per contract.
type Breakdown struct {
	Slippage   float64 // currency
	Commission float64 // currency
	Currency   float64 // Slippage + Commission
	R          float64 // Currency / (risk * point value)
}

// Apply prices a fill. Only market fills pay: a limit fill rests at the edge,
// so it carries neither slippage nor the taker commission, and its cost is 0.
//
//	currency = slippageTicks*tickValue + commission
//	R        = currency / (risk*pointValue)
//
// Sums are done in decimal so equal inputs give bit-identical R.
func (m Model) Apply(marketFill bool, slippageTicks, commission, risk float64) (Breakdown, error) {
	if risk <= 0 {
		return Breakdown{}, ErrZeroRisk
	}
	if !marketFill {
		return Breakdown{}, nil
	}

	slip := decimal.NewFromFloat(slippageTicks).Mul(decimal.NewFromFloat(m.TickValue))
	comm := decimal.NewFromFloat(commission)
	total := slip.Add(comm)
	if !total.IsPositive() {
		return Breakdown{}, ErrFreeMarketFill
	}
	riskCurrency := decimal.NewFromFloat(risk).Mul(decimal.NewFromFloat(m.PointValue))

	r, _ := total.DivRound(riskCurrency, 12).Float64()
	return Breakdown{
		Slippage:   slip.InexactFloat64(),
		Commission: comm.InexactFloat64(),
		Currency:   total.InexactFloat64(),
		R:          r,
	}, nil
}
