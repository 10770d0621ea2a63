package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/theovalguide/review-service/internal/domain"
	"github.com/theovalguide/review-service/pkg/database"
	apperrors "github.com/theovalguide/review-service/pkg/errors"
)

// ProfessorRepository implements professor persistence using PostgreSQL.
type ProfessorRepository struct {
	pool database.DBTX
}

// NewProfessorRepository creates a new PostgreSQL-backed professor repository.
func NewProfessorRepository(pool database.DBTX) *ProfessorRepository {
	return &ProfessorRepository{pool: pool}
}

const professorColumns = `id, slug, name, department, university, overall_rating, total_ratings, created_at, updated_at`

func scanProfessor(row pgx.Row) (*domain.Professor, error) {
	var p domain.Professor
	err := row.Scan(
		&p.ID,
		&p.Slug,
		&p.Name,
		&p.Department,
		&p.University,
		&p.OverallRating,
		&p.TotalRatings,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetBySlug retrieves a professor by slug, case-insensitively.
func (r *ProfessorRepository) GetBySlug(ctx context.Context, slug string) (*domain.Professor, error) {
	return r.getBySlug(ctx, slug, false)
}

// LockBySlug retrieves a professor by slug and locks the row for update.
func (r *ProfessorRepository) LockBySlug(ctx context.Context, slug string) (*domain.Professor, error) {
	return r.getBySlug(ctx, slug, true)
}

func (r *ProfessorRepository) getBySlug(ctx context.Context, slug string, forUpdate bool) (*domain.Professor, error) {
	query := `
		SELECT ` + professorColumns + `
		FROM professors
		WHERE LOWER(slug) = LOWER($1)`
	if forUpdate {
		query += `
		FOR UPDATE`
	}

	p, err := scanProfessor(r.pool.QueryRow(ctx, query, slug))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("professor", slug)
		}
		return nil, fmt.Errorf("get professor by slug: %w", err)
	}

	return p, nil
}

// Create inserts a new professor.
func (r *ProfessorRepository) Create(ctx context.Context, p *domain.Professor) error {
	query := `
		INSERT INTO professors (id, slug, name, department, university, overall_rating, total_ratings, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.pool.Exec(ctx, query,
		p.ID,
		p.Slug,
		p.Name,
		p.Department,
		p.University,
		p.OverallRating,
		p.TotalRatings,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("professor", "slug", p.Slug)
		}
		return fmt.Errorf("insert professor: %w", err)
	}

	return nil
}

// UpdateAggregates persists recomputed rating statistics for a professor.
func (r *ProfessorRepository) UpdateAggregates(ctx context.Context, id string, overallRating *float64, totalRatings int) error {
	query := `
		UPDATE professors
		SET overall_rating = $1, total_ratings = $2, updated_at = NOW()
		WHERE id = $3`

	tag, err := r.pool.Exec(ctx, query, overallRating, totalRatings, id)
	if err != nil {
		return fmt.Errorf("update professor aggregates: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("professor", id)
	}

	return nil
}

// isUniqueViolation checks if the error is a PostgreSQL unique constraint
// violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "23505")
}
