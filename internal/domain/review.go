package domain

import (
	"time"
)

// Review is a user-submitted rating of a professor and/or a course class.
// A review is immutable once persisted and must reference at least one of
// the two entities.
type Review struct {
	ID          string    `json:"id"`
	ProfessorID *string   `json:"professor_id,omitempty"`
	ClassID     *string   `json:"class_id,omitempty"`
	UserID      *string   `json:"user_id,omitempty"`
	Rating      int       `json:"rating"`
	Difficulty  *int      `json:"difficulty,omitempty"`
	Comment     string    `json:"comment,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Rating bounds shared by rating and difficulty.
const (
	RatingMin = 1
	RatingMax = 5
)

// ValidRating reports whether r is inside the accepted rating scale.
func ValidRating(r int) bool {
	return r >= RatingMin && r <= RatingMax
}
