package market

import "fmt"

// Direction of a breakout.
type Direction int8

const (
	None Direction = 0
	Up   Direction = +1
	Down Direction = -1
)

func (d Direction) Sign() float64 { return float64(d) }

func (d Direction) String() string {
	switch d {
	case Up:
		return "UP"
	case Down:
		return "DOWN"
	default:
		return "NONE"
	}
}

func ParseDirection(s string) (Direction, error) {
	switch s {
	case "UP":
		return Up, nil
	case "DOWN":
		return Down, nil
	case "NONE", "":
		return None, nil
	}
	return None, fmt.Errorf("unknown direction %q", s)
}
