package utils

import (
	"log"
	"math"
)

// Round2 rounds to 2 decimal places, half-up. Deterministic regardless of
// summation order because callers round per video, never a divided aggregate.
func Round2(amount float64) float64 {
	return math.Floor(amount*100+0.5) / 100
}

// RoundDollars rounds to the nearest whole dollar. Used for the campaign-level
// budgetUsed aggregate, which is tracked in whole dollars unlike per-video
// earnings.
func RoundDollars(amount float64) float64 {
	return math.Round(amount)
}

// CalculateEarnings converts a view count into a dollar amount at the given
// rate per 1,000,000 views, capped at maxPerPost when set. Invalid input
// degrades to 0 with a logged anomaly; this sits in a hot aggregation loop
// where one bad record must not abort the batch.
func CalculateEarnings(ratePerMillion float64, views int64, maxPerPost *float64) float64 {
	if math.IsNaN(ratePerMillion) || math.IsInf(ratePerMillion, 0) || ratePerMillion < 0 {
		log.Printf("earnings: invalid rate %v, using 0", ratePerMillion)
		return 0
	}
	if views < 0 {
		log.Printf("earnings: negative view count %d, using 0", views)
		return 0
	}

	amount := Round2(ratePerMillion / 1_000_000 * float64(views))
	if maxPerPost != nil && amount > *maxPerPost {
		return *maxPerPost
	}
	return amount
}
