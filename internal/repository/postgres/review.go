package postgres

import (
	"context"
	"fmt"

	"github.com/theovalguide/review-service/internal/domain"
	"github.com/theovalguide/review-service/pkg/database"
)

// ReviewRepository implements review persistence using PostgreSQL.
type ReviewRepository struct {
	pool database.DBTX
}

// NewReviewRepository creates a new PostgreSQL-backed review repository.
func NewReviewRepository(pool database.DBTX) *ReviewRepository {
	return &ReviewRepository{pool: pool}
}

// Create inserts a new review.
func (r *ReviewRepository) Create(ctx context.Context, rev *domain.Review) error {
	query := `
		INSERT INTO reviews (id, professor_id, class_id, user_id, rating, difficulty, comment, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.pool.Exec(ctx, query,
		rev.ID,
		rev.ProfessorID,
		rev.ClassID,
		rev.UserID,
		rev.Rating,
		rev.Difficulty,
		rev.Comment,
		rev.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert review: %w", err)
	}

	return nil
}

// AverageRatingFor returns the mean rating across all reviews for the
// professor. AVG over zero rows is SQL NULL, which scans to nil.
func (r *ReviewRepository) AverageRatingFor(ctx context.Context, professorID string) (*float64, error) {
	query := `
		SELECT AVG(rating)::float8
		FROM reviews
		WHERE professor_id = $1`

	var avg *float64
	if err := r.pool.QueryRow(ctx, query, professorID).Scan(&avg); err != nil {
		return nil, fmt.Errorf("average rating: %w", err)
	}

	return avg, nil
}

// CountFor returns the number of reviews referencing the professor.
func (r *ReviewRepository) CountFor(ctx context.Context, professorID string) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM reviews
		WHERE professor_id = $1`

	var count int
	if err := r.pool.QueryRow(ctx, query, professorID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count reviews: %w", err)
	}

	return count, nil
}

// AverageDifficultyFor returns the mean difficulty across the class's reviews
// that carry a difficulty value. AVG ignores NULL difficulties, and over zero
// non-null rows scans to nil.
func (r *ReviewRepository) AverageDifficultyFor(ctx context.Context, classID string) (*float64, error) {
	query := `
		SELECT AVG(difficulty)::float8
		FROM reviews
		WHERE class_id = $1`

	var avg *float64
	if err := r.pool.QueryRow(ctx, query, classID).Scan(&avg); err != nil {
		return nil, fmt.Errorf("average difficulty: %w", err)
	}

	return avg, nil
}

// CountWithDifficultyFor returns the number of the class's reviews that carry
// a difficulty value. COUNT(difficulty) skips NULLs.
func (r *ReviewRepository) CountWithDifficultyFor(ctx context.Context, classID string) (int, error) {
	query := `
		SELECT COUNT(difficulty)
		FROM reviews
		WHERE class_id = $1`

	var count int
	if err := r.pool.QueryRow(ctx, query, classID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count difficulty reviews: %w", err)
	}

	return count, nil
}
