package models

import "time"

// Rating labels, from a step function over the total score.
const (
	RatingExcellent    = "Excellent"
	RatingGood         = "Good"
	RatingFair         = "Fair"
	RatingBelowAverage = "Below Average"
	RatingPoor         = "Poor"
)

// Breakdown holds the per-factor sub-scores, each in [0,100].
type Breakdown struct {
	Multiple     int
	ProfitMargin int
	PriceValue   int
	Age          int
	Traffic      int
}

// Score is the weighted 0-100 evaluation of a single listing. One score per
// listing; recomputing from the same listing yields the same score.
type Score struct {
	Total      int
	Breakdown  Breakdown
	Rating     string
	ComputedAt time.Time
}
