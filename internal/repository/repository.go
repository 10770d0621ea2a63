package repository

import (
	"context"

	"github.com/theovalguide/review-service/internal/domain"
)

// ProfessorRepository defines professor persistence operations.
type ProfessorRepository interface {
	// GetBySlug retrieves a professor by slug, case-insensitively.
	// Returns apperrors.ErrNotFound when no professor matches.
	GetBySlug(ctx context.Context, slug string) (*domain.Professor, error)

	// LockBySlug is GetBySlug with a row lock (FOR UPDATE). Used inside the
	// review unit of work so concurrent aggregate recomputes for one
	// professor serialize.
	LockBySlug(ctx context.Context, slug string) (*domain.Professor, error)

	// Create inserts a new professor. Returns apperrors.ErrAlreadyExists on
	// a slug collision.
	Create(ctx context.Context, p *domain.Professor) error

	// UpdateAggregates persists recomputed rating statistics for a professor.
	UpdateAggregates(ctx context.Context, id string, overallRating *float64, totalRatings int) error
}

// ClassRepository defines course-class persistence operations.
type ClassRepository interface {
	// GetByCode retrieves a class by exact code, case-insensitively on the
	// trimmed code. Returns apperrors.ErrNotFound when no class matches.
	GetByCode(ctx context.Context, code string) (*domain.CourseClass, error)

	// GetByLooseCode retrieves the class whose normalized code equals the
	// normalized form of the given code.
	GetByLooseCode(ctx context.Context, code string) (*domain.CourseClass, error)

	// LockByCode is GetByCode with a row lock (FOR UPDATE).
	LockByCode(ctx context.Context, code string) (*domain.CourseClass, error)

	// LockByLooseCode retrieves (and locks) the class whose normalized code
	// equals the normalized form of the given code. The store's uniqueness
	// invariant over normalized codes guarantees at most one candidate.
	LockByLooseCode(ctx context.Context, code string) (*domain.CourseClass, error)

	// Create inserts a new class. Returns apperrors.ErrAlreadyExists when a
	// class with a loosely-equivalent code already exists.
	Create(ctx context.Context, c *domain.CourseClass) error

	// UpdateAggregates persists recomputed difficulty statistics for a class.
	UpdateAggregates(ctx context.Context, id string, difficultyAvg *float64, totalRatings int) error
}

// ReviewRepository defines review persistence and aggregate queries.
type ReviewRepository interface {
	// Create inserts a new review.
	Create(ctx context.Context, r *domain.Review) error

	// AverageRatingFor returns the mean rating across all reviews for the
	// professor, or nil when none exist.
	AverageRatingFor(ctx context.Context, professorID string) (*float64, error)

	// CountFor returns the number of reviews referencing the professor.
	CountFor(ctx context.Context, professorID string) (int, error)

	// AverageDifficultyFor returns the mean difficulty across the class's
	// reviews that carry a difficulty value, or nil when none do.
	AverageDifficultyFor(ctx context.Context, classID string) (*float64, error)

	// CountWithDifficultyFor returns the number of the class's reviews that
	// carry a difficulty value.
	CountWithDifficultyFor(ctx context.Context, classID string) (int, error)
}

// Repositories bundles the transaction-scoped stores handed to a unit of work.
type Repositories struct {
	Professors ProfessorRepository
	Classes    ClassRepository
	Reviews    ReviewRepository
}

// UnitOfWork executes fn against transaction-scoped repositories. The
// transaction commits iff fn returns nil; any error (or panic) rolls back
// every write fn performed.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(Repositories) error) error
}
