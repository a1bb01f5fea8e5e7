package sim

import "fmt"

// Outcome classifies a simulated trade. There are exactly four.
type Outcome string

const (
	Win            Outcome = "WIN"
	Loss           Outcome = "LOSS"
	SkippedNoEntry Outcome = "SKIPPED_NO_ENTRY"
	NoOutcome      Outcome = "NO_OUTCOME"
)

var outcomes = []Outcome{Win, Loss, SkippedNoEntry, NoOutcome}

// Outcomes lists every outcome value.
func Outcomes() []Outcome {
	return append([]Outcome(nil), outcomes...)
}

func (o Outcome) String() string { return string(o) }

func (o Outcome) Valid() bool {
	for _, v := range outcomes {
		if o == v {
			return true
		}
	}
	return false
}

func ParseOutcome(s string) (Outcome, error) {
	o := Outcome(s)
	if !o.Valid() {
		return "", fmt.Errorf("unknown outcome %q", s)
	}
	return o, nil
}
