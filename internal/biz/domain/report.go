package domain

import (
	"fmt"
	"time"
)

// UnitOutcome is the terminal state of one processed unit
type UnitOutcome string

const (
	OutcomeSkipped   UnitOutcome = "skipped"
	OutcomeFiltered  UnitOutcome = "filtered"
	OutcomeForwarded UnitOutcome = "forwarded"
	OutcomeHeld      UnitOutcome = "held"
)

// RunReport summarizes one engine invocation
type RunReport struct {
	Fetched   int
	Skipped   int
	Filtered  int
	Forwarded int

	HasWatermark   bool // false when the run started without any stored watermark
	StartWatermark int64
	EndWatermark   int64
	HeldAt         int64 // id of the unit left for retry, 0 when nothing was held

	StartedAt time.Time
	Duration  time.Duration
}

// Record counts a unit outcome
func (r *RunReport) Record(outcome UnitOutcome) {
	switch outcome {
	case OutcomeSkipped:
		r.Skipped++
	case OutcomeFiltered:
		r.Filtered++
	case OutcomeForwarded:
		r.Forwarded++
	}
}

// Held checks if the run stopped early to retry a unit later
func (r *RunReport) Held() bool {
	return r.HeldAt != 0
}

// Summary formats the report for operators
func (r *RunReport) Summary() string {
	s := fmt.Sprintf("fetched %d, forwarded %d, filtered %d, skipped %d, watermark %d -> %d",
		r.Fetched, r.Forwarded, r.Filtered, r.Skipped, r.StartWatermark, r.EndWatermark)
	if r.Held() {
		s += fmt.Sprintf(", held at %d", r.HeldAt)
	}
	return s
}
