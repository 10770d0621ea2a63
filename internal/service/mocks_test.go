package service

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/mock"

	"github.com/theovalguide/review-service/internal/domain"
	"github.com/theovalguide/review-service/internal/repository"
)

// --- Mock repositories ---

type mockProfessorRepository struct {
	mock.Mock
}

func (m *mockProfessorRepository) GetBySlug(ctx context.Context, slug string) (*domain.Professor, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Professor), args.Error(1)
}

func (m *mockProfessorRepository) LockBySlug(ctx context.Context, slug string) (*domain.Professor, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Professor), args.Error(1)
}

func (m *mockProfessorRepository) Create(ctx context.Context, p *domain.Professor) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *mockProfessorRepository) UpdateAggregates(ctx context.Context, id string, overallRating *float64, totalRatings int) error {
	args := m.Called(ctx, id, overallRating, totalRatings)
	return args.Error(0)
}

type mockClassRepository struct {
	mock.Mock
}

func (m *mockClassRepository) GetByCode(ctx context.Context, code string) (*domain.CourseClass, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CourseClass), args.Error(1)
}

func (m *mockClassRepository) GetByLooseCode(ctx context.Context, code string) (*domain.CourseClass, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CourseClass), args.Error(1)
}

func (m *mockClassRepository) LockByCode(ctx context.Context, code string) (*domain.CourseClass, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CourseClass), args.Error(1)
}

func (m *mockClassRepository) LockByLooseCode(ctx context.Context, code string) (*domain.CourseClass, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CourseClass), args.Error(1)
}

func (m *mockClassRepository) Create(ctx context.Context, c *domain.CourseClass) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *mockClassRepository) UpdateAggregates(ctx context.Context, id string, difficultyAvg *float64, totalRatings int) error {
	args := m.Called(ctx, id, difficultyAvg, totalRatings)
	return args.Error(0)
}

type mockReviewRepository struct {
	mock.Mock
}

func (m *mockReviewRepository) Create(ctx context.Context, r *domain.Review) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

func (m *mockReviewRepository) AverageRatingFor(ctx context.Context, professorID string) (*float64, error) {
	args := m.Called(ctx, professorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*float64), args.Error(1)
}

func (m *mockReviewRepository) CountFor(ctx context.Context, professorID string) (int, error) {
	args := m.Called(ctx, professorID)
	return args.Int(0), args.Error(1)
}

func (m *mockReviewRepository) AverageDifficultyFor(ctx context.Context, classID string) (*float64, error) {
	args := m.Called(ctx, classID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*float64), args.Error(1)
}

func (m *mockReviewRepository) CountWithDifficultyFor(ctx context.Context, classID string) (int, error) {
	args := m.Called(ctx, classID)
	return args.Int(0), args.Error(1)
}

// --- Mock cache and publisher ---

type mockProfileCache struct {
	mock.Mock
}

func (m *mockProfileCache) GetProfessor(ctx context.Context, slug string) (*domain.Professor, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Professor), args.Error(1)
}

func (m *mockProfileCache) SetProfessor(ctx context.Context, p *domain.Professor) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *mockProfileCache) InvalidateProfessor(ctx context.Context, slug string) error {
	args := m.Called(ctx, slug)
	return args.Error(0)
}

func (m *mockProfileCache) GetClass(ctx context.Context, code string) (*domain.CourseClass, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CourseClass), args.Error(1)
}

func (m *mockProfileCache) SetClass(ctx context.Context, c *domain.CourseClass) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *mockProfileCache) InvalidateClass(ctx context.Context, code string) error {
	args := m.Called(ctx, code)
	return args.Error(0)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishReviewCreated(ctx context.Context, r *domain.Review) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

func (m *mockPublisher) PublishProfessorCreated(ctx context.Context, p *domain.Professor) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *mockPublisher) PublishClassCreated(ctx context.Context, c *domain.CourseClass) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

// --- Fake unit of work ---

// fakeUnitOfWork runs fn against the configured mock repositories and records
// whether the "transaction" committed or rolled back.
type fakeUnitOfWork struct {
	professors repository.ProfessorRepository
	classes    repository.ClassRepository
	reviews    repository.ReviewRepository

	beginErr   error
	committed  bool
	rolledBack bool
}

func (u *fakeUnitOfWork) Do(_ context.Context, fn func(repository.Repositories) error) error {
	if u.beginErr != nil {
		return u.beginErr
	}
	err := fn(repository.Repositories{
		Professors: u.professors,
		Classes:    u.classes,
		Reviews:    u.reviews,
	})
	if err != nil {
		u.rolledBack = true
		return err
	}
	u.committed = true
	return nil
}

// --- Shared helpers ---

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func floatPtr(f float64) *float64 { return &f }
func intPtr(i int) *int           { return &i }

func assertAllExpectations(t *testing.T, mocks ...interface{ AssertExpectations(mock.TestingT) bool }) {
	t.Helper()
	for _, m := range mocks {
		m.AssertExpectations(t)
	}
}
