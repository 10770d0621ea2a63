package domain

import (
	"math/big"
	"strconv"
	"time"
)

// Professor is a rateable instructor. OverallRating is derived from the
// persisted review set and is nil while no reviews reference the professor.
type Professor struct {
	ID            string    `json:"id"`
	Slug          string    `json:"slug"`
	Name          string    `json:"name"`
	Department    string    `json:"department"`
	University    string    `json:"university"`
	OverallRating *float64  `json:"overall_rating,omitempty"`
	TotalRatings  int       `json:"total_ratings"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// RoundAverage rounds a review average to two fractional digits, half away
// from zero (HALF_UP for the non-negative means used here). Nil passes
// through so an absent aggregate stays absent.
//
// Rounding goes through the shortest decimal form of the float64, not the
// binary value: a mean like 41/40 is stored as a float64 fractionally below
// 1.025, but its decimal form is exactly "1.025" and must round to 1.03.
func RoundAverage(avg *float64) *float64 {
	if avg == nil {
		return nil
	}

	r, ok := new(big.Rat).SetString(strconv.FormatFloat(*avg, 'f', -1, 64))
	if !ok {
		return avg
	}

	r.Mul(r, big.NewRat(100, 1))
	half := big.NewRat(1, 2)
	if r.Sign() >= 0 {
		r.Add(r, half)
	} else {
		r.Sub(r, half)
	}

	// Truncation toward zero after shifting by a half is half-away-from-zero.
	hundredths := new(big.Int).Quo(r.Num(), r.Denom())
	rounded, _ := new(big.Rat).SetFrac(hundredths, big.NewInt(100)).Float64()
	return &rounded
}
