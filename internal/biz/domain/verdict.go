package domain

import "fmt"

// PolarityScores is the sentiment breakdown of a text.
// Compound lies in [-1, 1]; negative means more negative.
type PolarityScores struct {
	Neg      float64 `json:"neg"`
	Neu      float64 `json:"neu"`
	Pos      float64 `json:"pos"`
	Compound float64 `json:"compound"`
}

// Clamp forces every score into its valid range
func (p PolarityScores) Clamp() PolarityScores {
	p.Neg = clamp(p.Neg, 0, 1)
	p.Neu = clamp(p.Neu, 0, 1)
	p.Pos = clamp(p.Pos, 0, 1)
	p.Compound = clamp(p.Compound, -1, 1)
	return p
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Rejection reasons
const (
	ReasonNoText         = "no text"
	ReasonEmptyAfterTrim = "empty after paragraph filter"
)

// FilterVerdict is the outcome of running a unit's text through the filter chain
type FilterVerdict struct {
	Forwardable bool
	Reason      string
}

// Accept returns a forwardable verdict
func Accept() FilterVerdict {
	return FilterVerdict{Forwardable: true}
}

// Reject returns a rejecting verdict with a reason
func Reject(reason string) FilterVerdict {
	return FilterVerdict{Reason: reason}
}

// RejectSentiment returns the verdict of the sentiment gate
func RejectSentiment(score, threshold float64) FilterVerdict {
	return Reject(fmt.Sprintf("sentiment %.4f <= %.4f", score, threshold))
}

// RejectBadword returns the verdict of the badword gate
func RejectBadword(word string) FilterVerdict {
	return Reject(fmt.Sprintf("badword %q", word))
}
