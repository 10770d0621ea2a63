package domain

import (
	"strings"
	"time"
)

// CourseClass is a rateable course offering, looked up by code. DifficultyAvg
// is derived from the reviews that carry a difficulty value and is nil while
// no such review exists; TotalRatings counts exactly those reviews.
type CourseClass struct {
	ID            string    `json:"id"`
	Code          string    `json:"code"`
	Title         string    `json:"title"`
	Department    string    `json:"department"`
	University    string    `json:"university"`
	DifficultyAvg *float64  `json:"difficulty_avg,omitempty"`
	TotalRatings  int       `json:"total_ratings"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// NormalizeCode reduces a class code to its loose-match form: lowercase with
// everything outside ASCII [a-z0-9] removed, so "CS 1234", "cs-1234", and
// "CS1234" all map to "cs1234". The store enforces uniqueness over this form
// with the same [a-z0-9] alphabet, so the two normalizations must stay in
// lockstep.
func NormalizeCode(code string) string {
	var b strings.Builder
	b.Grow(len(code))
	for _, r := range strings.ToLower(code) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
