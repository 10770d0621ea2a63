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
)

// CreateReviewInput carries a review submission. Exactly the trimmed
// ProfessorSlug and ClassCode decide which entities the review attaches to;
// at least one must be present.
type CreateReviewInput struct {
	Rating     int    `json:"rating"`
	Difficulty *int   `json:"difficulty,omitempty"`
	Comment    string `json:"comment,omitempty"`

	ProfessorSlug string `json:"professorSlug,omitempty"`
	ClassCode     string `json:"classCode,omitempty"`

	// CreateIfMissing creates the class on the fly when no code matches.
	// The three descriptor fields are required in that case.
	CreateIfMissing bool   `json:"createIfMissing,omitempty"`
	ClassTitle      string `json:"classTitle,omitempty"`
	Department      string `json:"department,omitempty"`
	University      string `json:"university,omitempty"`

	// Tags are accepted for forward compatibility and ignored.
	Tags []string `json:"tags,omitempty"`
}

// ReviewService implements the review submission pipeline: validate, resolve
// the referenced entities, persist the review, and recompute the derived
// aggregates, all inside one transaction.
type ReviewService struct {
	uow      repository.UnitOfWork
	cache    repository.ProfileCache
	producer event.Publisher
	logger   *slog.Logger
}

// NewReviewService creates a new review service.
func NewReviewService(
	uow repository.UnitOfWork,
	cache repository.ProfileCache,
	producer event.Publisher,
	logger *slog.Logger,
) *ReviewService {
	return &ReviewService{
		uow:      uow,
		cache:    cache,
		producer: producer,
		logger:   logger,
	}
}

// CreateReview validates and persists a review and updates the aggregates of
// every entity it references. On any failure nothing is persisted.
func (s *ReviewService) CreateReview(ctx context.Context, input CreateReviewInput) (*domain.Review, error) {
	if !domain.ValidRating(input.Rating) {
		return nil, apperrors.InvalidInput("rating must be an integer 1..5")
	}
	if input.Difficulty != nil && !domain.ValidRating(*input.Difficulty) {
		return nil, apperrors.InvalidInput("difficulty must be 1..5 when provided")
	}

	slug := strings.TrimSpace(input.ProfessorSlug)
	code := strings.TrimSpace(input.ClassCode)
	if slug == "" && code == "" {
		return nil, apperrors.InvalidInput("professorSlug or classCode required")
	}

	var (
		review       *domain.Review
		createdClass *domain.CourseClass
	)

	err := s.uow.Do(ctx, func(repos repository.Repositories) error {
		var (
			professor *domain.Professor
			class     *domain.CourseClass
			err       error
		)

		if slug != "" {
			professor, err = repos.Professors.LockBySlug(ctx, slug)
			if err != nil {
				return err
			}
		}

		if code != "" {
			class, createdClass, err = s.resolveClass(ctx, repos, code, input)
			if err != nil {
				return err
			}
		}

		// Both lookups are guarded above, so this only trips if resolution
		// logic regresses.
		if professor == nil && class == nil {
			return apperrors.Internal(errors.New("review resolved to no entity"))
		}

		review = &domain.Review{
			ID:         uuid.New().String(),
			Rating:     input.Rating,
			Difficulty: input.Difficulty,
			Comment:    input.Comment,
			CreatedAt:  time.Now().UTC(),
		}
		if professor != nil {
			review.ProfessorID = &professor.ID
		}
		if class != nil {
			review.ClassID = &class.ID
		}

		if err := repos.Reviews.Create(ctx, review); err != nil {
			return err
		}

		if professor != nil {
			if err := s.recalcProfessor(ctx, repos, professor.ID); err != nil {
				return err
			}
		}
		if class != nil {
			if err := s.recalcClass(ctx, repos, class.ID); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.afterCommit(ctx, review, slug, code, createdClass)

	return review, nil
}

// resolveClass finds the class a trimmed code refers to: exact match first,
// then loose match over normalized codes, then creation when requested. The
// second return value is non-nil when this call created the class.
func (s *ReviewService) resolveClass(
	ctx context.Context,
	repos repository.Repositories,
	code string,
	input CreateReviewInput,
) (*domain.CourseClass, *domain.CourseClass, error) {
	class, err := repos.Classes.LockByCode(ctx, code)
	if err == nil {
		return class, nil, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, nil, err
	}

	class, err = repos.Classes.LockByLooseCode(ctx, code)
	if err == nil {
		return class, nil, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, nil, err
	}

	if !input.CreateIfMissing {
		return nil, nil, apperrors.NotFound("class", code)
	}

	title := strings.TrimSpace(input.ClassTitle)
	department := strings.TrimSpace(input.Department)
	university := strings.TrimSpace(input.University)
	if title == "" || department == "" || university == "" {
		return nil, nil, apperrors.InvalidInput("classTitle, department, and university are required when createIfMissing is true")
	}

	now := time.Now().UTC()
	created := &domain.CourseClass{
		ID:         uuid.New().String(),
		Code:       code,
		Title:      title,
		Department: department,
		University: university,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	err = repos.Classes.Create(ctx, created)
	if err == nil {
		return created, created, nil
	}
	if !errors.Is(err, apperrors.ErrAlreadyExists) {
		return nil, nil, err
	}

	// A concurrent submission created a loosely-equivalent class between our
	// lookup and insert. Attach to the winner's row.
	class, err = repos.Classes.LockByLooseCode(ctx, code)
	if err != nil {
		return nil, nil, err
	}

	return class, nil, nil
}

// recalcProfessor recomputes a professor's aggregates from its reviews.
func (s *ReviewService) recalcProfessor(ctx context.Context, repos repository.Repositories, professorID string) error {
	avg, err := repos.Reviews.AverageRatingFor(ctx, professorID)
	if err != nil {
		return fmt.Errorf("recalculate professor rating: %w", err)
	}
	count, err := repos.Reviews.CountFor(ctx, professorID)
	if err != nil {
		return fmt.Errorf("recalculate professor rating count: %w", err)
	}

	return repos.Professors.UpdateAggregates(ctx, professorID, domain.RoundAverage(avg), count)
}

// recalcClass recomputes a class's aggregates from the reviews that carry a
// difficulty value.
func (s *ReviewService) recalcClass(ctx context.Context, repos repository.Repositories, classID string) error {
	avg, err := repos.Reviews.AverageDifficultyFor(ctx, classID)
	if err != nil {
		return fmt.Errorf("recalculate class difficulty: %w", err)
	}
	count, err := repos.Reviews.CountWithDifficultyFor(ctx, classID)
	if err != nil {
		return fmt.Errorf("recalculate class difficulty count: %w", err)
	}

	return repos.Classes.UpdateAggregates(ctx, classID, domain.RoundAverage(avg), count)
}

// afterCommit performs the best-effort side effects of a committed review:
// cache invalidation and event publication. Failures are logged and never
// surface to the caller.
func (s *ReviewService) afterCommit(ctx context.Context, review *domain.Review, slug, code string, createdClass *domain.CourseClass) {
	if slug != "" {
		if err := s.cache.InvalidateProfessor(ctx, slug); err != nil {
			s.logger.WarnContext(ctx, "failed to invalidate professor cache",
				slog.String("slug", slug),
				slog.String("error", err.Error()),
			)
		}
	}
	if code != "" {
		if err := s.cache.InvalidateClass(ctx, code); err != nil {
			s.logger.WarnContext(ctx, "failed to invalidate class cache",
				slog.String("code", code),
				slog.String("error", err.Error()),
			)
		}
	}

	if createdClass != nil {
		if err := s.producer.PublishClassCreated(ctx, createdClass); err != nil {
			s.logger.ErrorContext(ctx, "failed to publish class.created event",
				slog.String("class_id", createdClass.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	if err := s.producer.PublishReviewCreated(ctx, review); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish review.created event",
			slog.String("review_id", review.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "review created",
		slog.String("review_id", review.ID),
		slog.Int("rating", review.Rating),
		slog.Bool("has_difficulty", review.Difficulty != nil),
		slog.Bool("created_class", createdClass != nil),
	)
}
