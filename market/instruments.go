// market/instruments.go
package market

import (
	"fmt"
	"math"
)

// Instrument carries the contract metadata every price and cost conversion
// needs. It is passed explicitly; nothing reads a process-wide tick size.
type Instrument struct {
	Symbol     string  `json:"symbol" yaml:"symbol"`
	TickSize   float64 `json:"tick_size" yaml:"tick_size"`     // price increment
	TickValue  float64 `json:"tick_value" yaml:"tick_value"`   // currency per tick per contract
	PointValue float64 `json:"point_value" yaml:"point_value"` // currency per 1.0 price move per contract
}

var Instruments = map[string]Instrument{
	"ES":  {Symbol: "ES", TickSize: 0.25, TickValue: 12.50, PointValue: 50},
	"MES": {Symbol: "MES", TickSize: 0.25, TickValue: 1.25, PointValue: 5},
	"NQ":  {Symbol: "NQ", TickSize: 0.25, TickValue: 5.00, PointValue: 20},
	"MNQ": {Symbol: "MNQ", TickSize: 0.25, TickValue: 0.50, PointValue: 2},
	"CL":  {Symbol: "CL", TickSize: 0.01, TickValue: 10.00, PointValue: 1000},
	"GC":  {Symbol: "GC", TickSize: 0.10, TickValue: 10.00, PointValue: 100},
}

func LookupInstrument(symbol string) (Instrument, error) {
	inst, ok := Instruments[symbol]
	if !ok {
		return Instrument{}, fmt.Errorf("unknown instrument: %s", symbol)
	}
	return inst, nil
}

func (i Instrument) Validate() error {
	if i.Symbol == "" {
		return fmt.Errorf("instrument.symbol is required")
	}
	if i.TickSize <= 0 {
		return fmt.Errorf("instrument.tick_size must be positive")
	}
	if i.TickValue <= 0 {
		return fmt.Errorf("instrument.tick_value must be positive")
	}
	if i.PointValue <= 0 {
		return fmt.Errorf("instrument.point_value must be positive")
	}
	return nil
}

// Ticks converts a price distance into ticks.
func (i Instrument) Ticks(distance float64) float64 {
	return math.Abs(distance) / i.TickSize
}

// Price converts ticks into a price distance.
func (i Instrument) Price(ticks float64) float64 {
	return ticks * i.TickSize
}
