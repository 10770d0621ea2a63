package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/theovalguide/review-service/internal/domain"
	"github.com/theovalguide/review-service/internal/event"
	"github.com/theovalguide/review-service/internal/repository"
	apperrors "github.com/theovalguide/review-service/pkg/errors"
	"github.com/theovalguide/review-service/pkg/slug"
)

// CreateProfessorInput carries a professor registration.
type CreateProfessorInput struct {
	Name       string `json:"name" validate:"required"`
	Department string `json:"department" validate:"required"`
	University string `json:"university" validate:"required"`
}

// ProfessorService implements professor lookup and registration.
type ProfessorService struct {
	repo     repository.ProfessorRepository
	cache    repository.ProfileCache
	producer event.Publisher
	logger   *slog.Logger
}

// NewProfessorService creates a new professor service.
func NewProfessorService(
	repo repository.ProfessorRepository,
	cache repository.ProfileCache,
	producer event.Publisher,
	logger *slog.Logger,
) *ProfessorService {
	return &ProfessorService{
		repo:     repo,
		cache:    cache,
		producer: producer,
		logger:   logger,
	}
}

// GetProfessor retrieves a professor by slug, case-insensitively, consulting
// the cache first.
func (s *ProfessorService) GetProfessor(ctx context.Context, professorSlug string) (*domain.Professor, error) {
	professorSlug = strings.TrimSpace(professorSlug)
	if professorSlug == "" {
		return nil, apperrors.InvalidInput("slug is required")
	}

	if cached, err := s.cache.GetProfessor(ctx, professorSlug); err == nil {
		return cached, nil
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		s.logger.WarnContext(ctx, "professor cache read failed",
			slog.String("slug", professorSlug),
			slog.String("error", err.Error()),
		)
	}

	p, err := s.repo.GetBySlug(ctx, professorSlug)
	if err != nil {
		return nil, err
	}

	if err := s.cache.SetProfessor(ctx, p); err != nil {
		s.logger.WarnContext(ctx, "professor cache write failed",
			slog.String("slug", p.Slug),
			slog.String("error", err.Error()),
		)
	}

	return p, nil
}

// CreateProfessor registers a new professor with a slug derived from the name.
func (s *ProfessorService) CreateProfessor(ctx context.Context, input CreateProfessorInput) (*domain.Professor, error) {
	name := strings.TrimSpace(input.Name)
	department := strings.TrimSpace(input.Department)
	university := strings.TrimSpace(input.University)
	if name == "" || department == "" || university == "" {
		return nil, apperrors.InvalidInput("name, department, and university are required")
	}

	professorSlug := slug.Generate(name)
	if professorSlug == "" {
		return nil, apperrors.InvalidInput(fmt.Sprintf("name %q yields an empty slug", input.Name))
	}

	now := time.Now().UTC()
	p := &domain.Professor{
		ID:         uuid.New().String(),
		Slug:       professorSlug,
		Name:       name,
		Department: department,
		University: university,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}

	if err := s.producer.PublishProfessorCreated(ctx, p); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish professor.created event",
			slog.String("professor_id", p.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "professor created",
		slog.String("professor_id", p.ID),
		slog.String("slug", p.Slug),
	)

	return p, nil
}
