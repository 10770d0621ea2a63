package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/theovalguide/review-service/internal/domain"
	"github.com/theovalguide/review-service/pkg/database"
	apperrors "github.com/theovalguide/review-service/pkg/errors"
)

// ClassRepository implements course-class persistence using PostgreSQL.
type ClassRepository struct {
	pool database.DBTX
}

// NewClassRepository creates a new PostgreSQL-backed class repository.
func NewClassRepository(pool database.DBTX) *ClassRepository {
	return &ClassRepository{pool: pool}
}

const classColumns = `id, code, title, department, university, difficulty_avg, total_ratings, created_at, updated_at`

func scanClass(row pgx.Row) (*domain.CourseClass, error) {
	var c domain.CourseClass
	err := row.Scan(
		&c.ID,
		&c.Code,
		&c.Title,
		&c.Department,
		&c.University,
		&c.DifficultyAvg,
		&c.TotalRatings,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// GetByCode retrieves a class by exact code, case-insensitively on the
// trimmed code.
func (r *ClassRepository) GetByCode(ctx context.Context, code string) (*domain.CourseClass, error) {
	return r.getByCode(ctx, code, false)
}

// LockByCode retrieves a class by exact code and locks the row for update.
func (r *ClassRepository) LockByCode(ctx context.Context, code string) (*domain.CourseClass, error) {
	return r.getByCode(ctx, code, true)
}

func (r *ClassRepository) getByCode(ctx context.Context, code string, forUpdate bool) (*domain.CourseClass, error) {
	query := `
		SELECT ` + classColumns + `
		FROM course_classes
		WHERE LOWER(TRIM(code)) = LOWER(TRIM($1))`
	if forUpdate {
		query += `
		FOR UPDATE`
	}

	c, err := scanClass(r.pool.QueryRow(ctx, query, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("class", code)
		}
		return nil, fmt.Errorf("get class by code: %w", err)
	}

	return c, nil
}

// GetByLooseCode retrieves the class whose normalized code matches the
// normalized form of the given code.
func (r *ClassRepository) GetByLooseCode(ctx context.Context, code string) (*domain.CourseClass, error) {
	return r.getByLooseCode(ctx, code, false)
}

// LockByLooseCode retrieves and locks the class whose normalized code matches
// the normalized form of the given code. The functional unique index over
// normalized codes guarantees at most one row can match.
func (r *ClassRepository) LockByLooseCode(ctx context.Context, code string) (*domain.CourseClass, error) {
	return r.getByLooseCode(ctx, code, true)
}

func (r *ClassRepository) getByLooseCode(ctx context.Context, code string, forUpdate bool) (*domain.CourseClass, error) {
	query := `
		SELECT ` + classColumns + `
		FROM course_classes
		WHERE regexp_replace(lower(code), '[^a-z0-9]', '', 'g') = $1`
	if forUpdate {
		query += `
		FOR UPDATE`
	}

	c, err := scanClass(r.pool.QueryRow(ctx, query, domain.NormalizeCode(code)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("class", code)
		}
		return nil, fmt.Errorf("get class by loose code: %w", err)
	}

	return c, nil
}

// Create inserts a new class. A loosely-equivalent code already present in
// the store surfaces as apperrors.ErrAlreadyExists via the unique index over
// normalized codes. Uses ON CONFLICT DO NOTHING so a conflict does not abort
// the surrounding transaction; callers re-resolve to the existing row.
func (r *ClassRepository) Create(ctx context.Context, c *domain.CourseClass) error {
	query := `
		INSERT INTO course_classes (id, code, title, department, university, difficulty_avg, total_ratings, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT DO NOTHING`

	tag, err := r.pool.Exec(ctx, query,
		c.ID,
		c.Code,
		c.Title,
		c.Department,
		c.University,
		c.DifficultyAvg,
		c.TotalRatings,
		c.CreatedAt,
		c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert class: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.AlreadyExists("class", "code", c.Code)
	}

	return nil
}

// UpdateAggregates persists recomputed difficulty statistics for a class.
func (r *ClassRepository) UpdateAggregates(ctx context.Context, id string, difficultyAvg *float64, totalRatings int) error {
	query := `
		UPDATE course_classes
		SET difficulty_avg = $1, total_ratings = $2, updated_at = NOW()
		WHERE id = $3`

	tag, err := r.pool.Exec(ctx, query, difficultyAvg, totalRatings, id)
	if err != nil {
		return fmt.Errorf("update class aggregates: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("class", id)
	}

	return nil
}
