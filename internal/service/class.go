package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/theovalguide/review-service/internal/domain"
	"github.com/theovalguide/review-service/internal/event"
	"github.com/theovalguide/review-service/internal/repository"
	apperrors "github.com/theovalguide/review-service/pkg/errors"
)

// CreateClassInput carries a course-class registration.
type CreateClassInput struct {
	Code       string `json:"code" validate:"required"`
	Title      string `json:"title" validate:"required"`
	Department string `json:"department" validate:"required"`
	University string `json:"university" validate:"required"`
}

// ClassService implements course-class lookup and registration.
type ClassService struct {
	repo     repository.ClassRepository
	cache    repository.ProfileCache
	producer event.Publisher
	logger   *slog.Logger
}

// NewClassService creates a new class service.
func NewClassService(
	repo repository.ClassRepository,
	cache repository.ProfileCache,
	producer event.Publisher,
	logger *slog.Logger,
) *ClassService {
	return &ClassService{
		repo:     repo,
		cache:    cache,
		producer: producer,
		logger:   logger,
	}
}

// GetClass retrieves a class by code, consulting the cache first and falling
// back from exact to loose code matching, mirroring review resolution.
func (s *ClassService) GetClass(ctx context.Context, code string) (*domain.CourseClass, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, apperrors.InvalidInput("code is required")
	}

	if cached, err := s.cache.GetClass(ctx, code); err == nil {
		return cached, nil
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		s.logger.WarnContext(ctx, "class cache read failed",
			slog.String("code", code),
			slog.String("error", err.Error()),
		)
	}

	c, err := s.repo.GetByCode(ctx, code)
	if errors.Is(err, apperrors.ErrNotFound) {
		c, err = s.repo.GetByLooseCode(ctx, code)
	}
	if err != nil {
		return nil, err
	}

	if err := s.cache.SetClass(ctx, c); err != nil {
		s.logger.WarnContext(ctx, "class cache write failed",
			slog.String("code", c.Code),
			slog.String("error", err.Error()),
		)
	}

	return c, nil
}

// CreateClass registers a new course class. A loosely-equivalent code already
// in the store is a conflict.
func (s *ClassService) CreateClass(ctx context.Context, input CreateClassInput) (*domain.CourseClass, error) {
	code := strings.TrimSpace(input.Code)
	title := strings.TrimSpace(input.Title)
	department := strings.TrimSpace(input.Department)
	university := strings.TrimSpace(input.University)
	if code == "" || title == "" || department == "" || university == "" {
		return nil, apperrors.InvalidInput("code, title, department, and university are required")
	}
	if domain.NormalizeCode(code) == "" {
		return nil, apperrors.InvalidInput("code must contain at least one letter or digit")
	}

	now := time.Now().UTC()
	c := &domain.CourseClass{
		ID:         uuid.New().String(),
		Code:       code,
		Title:      title,
		Department: department,
		University: university,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}

	if err := s.producer.PublishClassCreated(ctx, c); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish class.created event",
			slog.String("class_id", c.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "class created",
		slog.String("class_id", c.ID),
		slog.String("code", c.Code),
	)

	return c, nil
}
