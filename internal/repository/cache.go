package repository

import (
	"context"

	"github.com/theovalguide/review-service/internal/domain"
)

// ProfileCache caches resolved professor and class profiles outside the
// transactional store. Get methods return apperrors.ErrNotFound on a miss.
type ProfileCache interface {
	GetProfessor(ctx context.Context, slug string) (*domain.Professor, error)
	SetProfessor(ctx context.Context, p *domain.Professor) error
	InvalidateProfessor(ctx context.Context, slug string) error

	GetClass(ctx context.Context, code string) (*domain.CourseClass, error)
	SetClass(ctx context.Context, c *domain.CourseClass) error
	InvalidateClass(ctx context.Context, code string) error
}
