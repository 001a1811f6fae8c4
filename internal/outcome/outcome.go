// Package outcome classifies a run by its recorded test outcomes and
// accumulates pass/fail tallies across runs.
package outcome

import "errors"

var (
	// ErrNoOutcomes is returned when a run has no recorded outcomes.
	ErrNoOutcomes = errors.New("outcome: no test outcomes recorded")
	// ErrTooFewOutcomes is returned when a run failed its first attempt
	// but has no second attempt recorded.
	ErrTooFewOutcomes = errors.New("outcome: second attempt missing")
)

// Outcome is the classification of a single run.
type Outcome int

const (
	FirstTry Outcome = iota
	SecondTry
	Failure
)

func (o Outcome) String() string {
	switch o {
	case FirstTry:
		return "first-try"
	case SecondTry:
		return "second-try"
	case Failure:
		return "failure"
	default:
		return "unknown"
	}
}

// Included reports whether runs with this outcome go into the aggregate.
func (o Outcome) Included() bool {
	return o == Failure
}

// Classify decides the outcome of a run from its ordered attempt results.
// A run that passed on the first attempt may carry a single entry.
func Classify(outcomes []bool) (Outcome, error) {
	if len(outcomes) == 0 {
		return 0, ErrNoOutcomes
	}
	if outcomes[0] {
		return FirstTry, nil
	}
	if len(outcomes) < 2 {
		return 0, ErrTooFewOutcomes
	}
	if outcomes[1] {
		return SecondTry, nil
	}
	return Failure, nil
}

// Tally counts classified runs. SecondTry includes first-try successes,
// i.e. it is the eventual-success count.
type Tally struct {
	Total     int `json:"total"`
	FirstTry  int `json:"first_try"`
	SecondTry int `json:"second_try"`
	Failures  int `json:"failures"`
}

// Add records one classified run.
func (t *Tally) Add(o Outcome) {
	t.Total++
	switch o {
	case FirstTry:
		t.FirstTry++
		t.SecondTry++
	case SecondTry:
		t.SecondTry++
	case Failure:
		t.Failures++
	}
}

// Percentages holds tally counts as percentages of the total.
type Percentages struct {
	FirstTry  float64 `json:"first_try"`
	SecondTry float64 `json:"second_try"`
	Failures  float64 `json:"failures"`
}

// Percentages returns the tally as percentages. All values are zero when
// no runs were counted.
func (t Tally) Percentages() Percentages {
	if t.Total == 0 {
		return Percentages{}
	}
	total := float64(t.Total)
	return Percentages{
		FirstTry:  float64(t.FirstTry) / total * 100,
		SecondTry: float64(t.SecondTry) / total * 100,
		Failures:  float64(t.Failures) / total * 100,
	}
}
