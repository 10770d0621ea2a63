package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/theovalguide/review-service/internal/domain"
	apperrors "github.com/theovalguide/review-service/pkg/errors"
)

type reviewTestDeps struct {
	professors *mockProfessorRepository
	classes    *mockClassRepository
	reviews    *mockReviewRepository
	cache      *mockProfileCache
	publisher  *mockPublisher
	uow        *fakeUnitOfWork
}

func newReviewService(t *testing.T) (*ReviewService, *reviewTestDeps) {
	t.Helper()
	d := &reviewTestDeps{
		professors: new(mockProfessorRepository),
		classes:    new(mockClassRepository),
		reviews:    new(mockReviewRepository),
		cache:      new(mockProfileCache),
		publisher:  new(mockPublisher),
	}
	d.uow = &fakeUnitOfWork{
		professors: d.professors,
		classes:    d.classes,
		reviews:    d.reviews,
	}
	svc := NewReviewService(d.uow, d.cache, d.publisher, newTestLogger())
	return svc, d
}

func testProfessor() *domain.Professor {
	return &domain.Professor{
		ID:         "prof-1",
		Slug:       "jane-doe",
		Name:       "Jane Doe",
		Department: "Computer Science",
		University: "State University",
	}
}

func testClass() *domain.CourseClass {
	return &domain.CourseClass{
		ID:         "class-1",
		Code:       "CS 1234",
		Title:      "Intro to Programming",
		Department: "Computer Science",
		University: "State University",
	}
}

// expectProfessorRecalc wires the aggregate queries and update for a
// professor-referencing review.
func expectProfessorRecalc(d *reviewTestDeps, avg *float64, rounded *float64, count int) {
	d.reviews.On("AverageRatingFor", mock.Anything, "prof-1").Return(avg, nil)
	d.reviews.On("CountFor", mock.Anything, "prof-1").Return(count, nil)
	d.professors.On("UpdateAggregates", mock.Anything, "prof-1", mock.MatchedBy(func(got *float64) bool {
		if rounded == nil || got == nil {
			return rounded == nil && got == nil
		}
		return *got == *rounded
	}), count).Return(nil)
}

func expectClassRecalc(d *reviewTestDeps, avg *float64, rounded *float64, count int) {
	d.reviews.On("AverageDifficultyFor", mock.Anything, "class-1").Return(avg, nil)
	d.reviews.On("CountWithDifficultyFor", mock.Anything, "class-1").Return(count, nil)
	d.classes.On("UpdateAggregates", mock.Anything, "class-1", mock.MatchedBy(func(got *float64) bool {
		if rounded == nil || got == nil {
			return rounded == nil && got == nil
		}
		return *got == *rounded
	}), count).Return(nil)
}

func expectAfterCommit(d *reviewTestDeps, slug, code string) {
	if slug != "" {
		d.cache.On("InvalidateProfessor", mock.Anything, slug).Return(nil)
	}
	if code != "" {
		d.cache.On("InvalidateClass", mock.Anything, code).Return(nil)
	}
	d.publisher.On("PublishReviewCreated", mock.Anything, mock.AnythingOfType("*domain.Review")).Return(nil)
}

// ---------------------------------------------------------------------------
// validation
// ---------------------------------------------------------------------------

func TestCreateReview_AcceptsEveryRatingInScale(t *testing.T) {
	for rating := 1; rating <= 5; rating++ {
		t.Run(fmt.Sprintf("rating_%d", rating), func(t *testing.T) {
			svc, d := newReviewService(t)

			d.professors.On("LockBySlug", mock.Anything, "jane-doe").Return(testProfessor(), nil)
			d.reviews.On("Create", mock.Anything, mock.AnythingOfType("*domain.Review")).Return(nil)
			expectProfessorRecalc(d, floatPtr(float64(rating)), floatPtr(float64(rating)), 1)
			expectAfterCommit(d, "jane-doe", "")

			review, err := svc.CreateReview(context.Background(), CreateReviewInput{
				Rating:        rating,
				ProfessorSlug: "jane-doe",
			})
			require.NoError(t, err)
			assert.Equal(t, rating, review.Rating)
			assert.True(t, d.uow.committed)
		})
	}
}

func TestCreateReview_RejectsOutOfScaleRating(t *testing.T) {
	for _, rating := range []int{-1, 0, 6, 100} {
		t.Run(fmt.Sprintf("rating_%d", rating), func(t *testing.T) {
			svc, d := newReviewService(t)

			review, err := svc.CreateReview(context.Background(), CreateReviewInput{
				Rating:        rating,
				ProfessorSlug: "jane-doe",
			})
			assert.Nil(t, review)
			assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
			assert.Contains(t, err.Error(), "rating must be an integer 1..5")
			assert.False(t, d.uow.committed)
		})
	}
}

func TestCreateReview_RejectsOutOfScaleDifficulty(t *testing.T) {
	for _, difficulty := range []int{-1, 0, 6} {
		t.Run(fmt.Sprintf("difficulty_%d", difficulty), func(t *testing.T) {
			svc, d := newReviewService(t)

			review, err := svc.CreateReview(context.Background(), CreateReviewInput{
				Rating:        4,
				Difficulty:    intPtr(difficulty),
				ProfessorSlug: "jane-doe",
			})
			assert.Nil(t, review)
			assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
			assert.Contains(t, err.Error(), "difficulty must be 1..5 when provided")
			assert.False(t, d.uow.committed)
		})
	}
}

func TestCreateReview_OmittedDifficultyIsValid(t *testing.T) {
	svc, d := newReviewService(t)

	d.professors.On("LockBySlug", mock.Anything, "jane-doe").Return(testProfessor(), nil)
	d.reviews.On("Create", mock.Anything, mock.AnythingOfType("*domain.Review")).Return(nil)
	expectProfessorRecalc(d, floatPtr(4), floatPtr(4), 1)
	expectAfterCommit(d, "jane-doe", "")

	review, err := svc.CreateReview(context.Background(), CreateReviewInput{
		Rating:        4,
		ProfessorSlug: "jane-doe",
	})
	require.NoError(t, err)
	assert.Nil(t, review.Difficulty)
}

func TestCreateReview_RequiresAtLeastOneReference(t *testing.T) {
	for name, input := range map[string]CreateReviewInput{
		"both_empty":      {Rating: 3},
		"both_whitespace": {Rating: 3, ProfessorSlug: "   ", ClassCode: "\t"},
	} {
		t.Run(name, func(t *testing.T) {
			svc, d := newReviewService(t)

			review, err := svc.CreateReview(context.Background(), input)
			assert.Nil(t, review)
			assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
			assert.Contains(t, err.Error(), "professorSlug or classCode required")
			assert.False(t, d.uow.committed)
		})
	}
}

// ---------------------------------------------------------------------------
// resolution
// ---------------------------------------------------------------------------

func TestCreateReview_UnknownProfessorRollsBack(t *testing.T) {
	svc, d := newReviewService(t)

	d.professors.On("LockBySlug", mock.Anything, "nobody").
		Return(nil, apperrors.NotFound("professor", "nobody"))

	review, err := svc.CreateReview(context.Background(), CreateReviewInput{
		Rating:        3,
		ProfessorSlug: "nobody",
	})
	assert.Nil(t, review)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.True(t, d.uow.rolledBack)
	d.reviews.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	d.publisher.AssertNotCalled(t, "PublishReviewCreated", mock.Anything, mock.Anything)
}

func TestCreateReview_TrimsReferencesBeforeResolution(t *testing.T) {
	svc, d := newReviewService(t)

	d.professors.On("LockBySlug", mock.Anything, "jane-doe").Return(testProfessor(), nil)
	d.reviews.On("Create", mock.Anything, mock.AnythingOfType("*domain.Review")).Return(nil)
	expectProfessorRecalc(d, floatPtr(3), floatPtr(3), 1)
	expectAfterCommit(d, "jane-doe", "")

	_, err := svc.CreateReview(context.Background(), CreateReviewInput{
		Rating:        3,
		ProfessorSlug: "  jane-doe  ",
	})
	require.NoError(t, err)
	d.professors.AssertExpectations(t)
}

func TestCreateReview_ExactClassMatch(t *testing.T) {
	svc, d := newReviewService(t)

	c := testClass()
	d.classes.On("LockByCode", mock.Anything, "CS 1234").Return(c, nil)
	d.reviews.On("Create", mock.Anything, mock.AnythingOfType("*domain.Review")).Return(nil)
	expectClassRecalc(d, floatPtr(2), floatPtr(2), 1)
	expectAfterCommit(d, "", "CS 1234")

	review, err := svc.CreateReview(context.Background(), CreateReviewInput{
		Rating:     4,
		Difficulty: intPtr(2),
		ClassCode:  "CS 1234",
	})
	require.NoError(t, err)
	require.NotNil(t, review.ClassID)
	assert.Equal(t, "class-1", *review.ClassID)
	assert.Nil(t, review.ProfessorID)
	d.classes.AssertNotCalled(t, "LockByLooseCode", mock.Anything, mock.Anything)
	d.classes.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateReview_LooseClassMatchDoesNotCreateDuplicate(t *testing.T) {
	svc, d := newReviewService(t)

	c := testClass()
	d.classes.On("LockByCode", mock.Anything, "cs-1234").
		Return(nil, apperrors.NotFound("class", "cs-1234"))
	d.classes.On("LockByLooseCode", mock.Anything, "cs-1234").Return(c, nil)
	d.reviews.On("Create", mock.Anything, mock.AnythingOfType("*domain.Review")).Return(nil)
	expectClassRecalc(d, floatPtr(3), floatPtr(3), 1)
	expectAfterCommit(d, "", "cs-1234")

	review, err := svc.CreateReview(context.Background(), CreateReviewInput{
		Rating:          5,
		Difficulty:      intPtr(3),
		ClassCode:       "cs-1234",
		CreateIfMissing: true,
	})
	require.NoError(t, err)
	require.NotNil(t, review.ClassID)
	assert.Equal(t, "class-1", *review.ClassID)
	d.classes.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateReview_UnknownClassWithoutCreateIfMissing(t *testing.T) {
	svc, d := newReviewService(t)

	d.classes.On("LockByCode", mock.Anything, "NEW 101").
		Return(nil, apperrors.NotFound("class", "NEW 101"))
	d.classes.On("LockByLooseCode", mock.Anything, "NEW 101").
		Return(nil, apperrors.NotFound("class", "NEW 101"))

	review, err := svc.CreateReview(context.Background(), CreateReviewInput{
		Rating:    3,
		ClassCode: "NEW 101",
	})
	assert.Nil(t, review)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.True(t, d.uow.rolledBack)
}

func TestCreateReview_CreateIfMissingRequiresDescriptor(t *testing.T) {
	for name, input := range map[string]CreateReviewInput{
		"missing_title":      {Rating: 3, ClassCode: "NEW 101", CreateIfMissing: true, Department: "CS", University: "State"},
		"missing_department": {Rating: 3, ClassCode: "NEW 101", CreateIfMissing: true, ClassTitle: "New Course", University: "State"},
		"missing_university": {Rating: 3, ClassCode: "NEW 101", CreateIfMissing: true, ClassTitle: "New Course", Department: "CS"},
		"blank_title":        {Rating: 3, ClassCode: "NEW 101", CreateIfMissing: true, ClassTitle: "  ", Department: "CS", University: "State"},
	} {
		t.Run(name, func(t *testing.T) {
			svc, d := newReviewService(t)

			d.classes.On("LockByCode", mock.Anything, "NEW 101").
				Return(nil, apperrors.NotFound("class", "NEW 101"))
			d.classes.On("LockByLooseCode", mock.Anything, "NEW 101").
				Return(nil, apperrors.NotFound("class", "NEW 101"))

			review, err := svc.CreateReview(context.Background(), input)
			assert.Nil(t, review)
			assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
			assert.Contains(t, err.Error(), "classTitle, department, and university are required when createIfMissing is true")
			assert.True(t, d.uow.rolledBack)
			d.classes.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestCreateReview_CreateIfMissingCreatesClass(t *testing.T) {
	svc, d := newReviewService(t)

	d.classes.On("LockByCode", mock.Anything, "NEW 101").
		Return(nil, apperrors.NotFound("class", "NEW 101"))
	d.classes.On("LockByLooseCode", mock.Anything, "NEW 101").
		Return(nil, apperrors.NotFound("class", "NEW 101"))

	var created *domain.CourseClass
	d.classes.On("Create", mock.Anything, mock.AnythingOfType("*domain.CourseClass")).
		Run(func(args mock.Arguments) {
			created = args.Get(1).(*domain.CourseClass)
		}).
		Return(nil)

	d.reviews.On("Create", mock.Anything, mock.AnythingOfType("*domain.Review")).Return(nil)
	d.reviews.On("AverageDifficultyFor", mock.Anything, mock.AnythingOfType("string")).Return(floatPtr(4), nil)
	d.reviews.On("CountWithDifficultyFor", mock.Anything, mock.AnythingOfType("string")).Return(1, nil)
	d.classes.On("UpdateAggregates", mock.Anything, mock.AnythingOfType("string"), mock.AnythingOfType("*float64"), 1).Return(nil)

	d.cache.On("InvalidateClass", mock.Anything, "NEW 101").Return(nil)
	d.publisher.On("PublishClassCreated", mock.Anything, mock.AnythingOfType("*domain.CourseClass")).Return(nil)
	d.publisher.On("PublishReviewCreated", mock.Anything, mock.AnythingOfType("*domain.Review")).Return(nil)

	review, err := svc.CreateReview(context.Background(), CreateReviewInput{
		Rating:          4,
		Difficulty:      intPtr(4),
		ClassCode:       "NEW 101",
		CreateIfMissing: true,
		ClassTitle:      "  New Course  ",
		Department:      "CS",
		University:      "State",
	})
	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, "NEW 101", created.Code)
	assert.Equal(t, "New Course", created.Title)
	assert.NotEmpty(t, created.ID)
	assert.Nil(t, created.DifficultyAvg)
	assert.Zero(t, created.TotalRatings)
	require.NotNil(t, review.ClassID)
	assert.Equal(t, created.ID, *review.ClassID)
	assert.True(t, d.uow.committed)
}

func TestCreateReview_DuplicateCreationRaceAttachesToWinner(t *testing.T) {
	svc, d := newReviewService(t)

	winner := testClass()
	d.classes.On("LockByCode", mock.Anything, "cs 1234").
		Return(nil, apperrors.NotFound("class", "cs 1234")).Once()
	d.classes.On("LockByLooseCode", mock.Anything, "cs 1234").
		Return(nil, apperrors.NotFound("class", "cs 1234")).Once()
	d.classes.On("Create", mock.Anything, mock.AnythingOfType("*domain.CourseClass")).
		Return(apperrors.AlreadyExists("class", "code", "cs 1234")).Once()
	d.classes.On("LockByLooseCode", mock.Anything, "cs 1234").
		Return(winner, nil).Once()

	d.reviews.On("Create", mock.Anything, mock.MatchedBy(func(r *domain.Review) bool {
		return r.ClassID != nil && *r.ClassID == winner.ID
	})).Return(nil)
	expectClassRecalc(d, floatPtr(3), floatPtr(3), 1)
	expectAfterCommit(d, "", "cs 1234")

	review, err := svc.CreateReview(context.Background(), CreateReviewInput{
		Rating:          3,
		Difficulty:      intPtr(3),
		ClassCode:       "cs 1234",
		CreateIfMissing: true,
		ClassTitle:      "Intro",
		Department:      "CS",
		University:      "State",
	})
	require.NoError(t, err)
	require.NotNil(t, review.ClassID)
	assert.Equal(t, winner.ID, *review.ClassID)
	// The loser's insert never produced a second class, so no created event.
	d.publisher.AssertNotCalled(t, "PublishClassCreated", mock.Anything, mock.Anything)
	d.classes.AssertExpectations(t)
}

// ---------------------------------------------------------------------------
// aggregates
// ---------------------------------------------------------------------------

func TestCreateReview_RoundsProfessorAverageHalfUp(t *testing.T) {
	svc, d := newReviewService(t)

	d.professors.On("LockBySlug", mock.Anything, "jane-doe").Return(testProfessor(), nil)
	d.reviews.On("Create", mock.Anything, mock.AnythingOfType("*domain.Review")).Return(nil)
	// 4, 4, 5 -> 13/3 = 4.333... -> 4.33
	expectProfessorRecalc(d, floatPtr(13.0/3.0), floatPtr(4.33), 3)
	expectAfterCommit(d, "jane-doe", "")

	_, err := svc.CreateReview(context.Background(), CreateReviewInput{
		Rating:        5,
		ProfessorSlug: "jane-doe",
	})
	require.NoError(t, err)
	d.professors.AssertExpectations(t)
}

func TestCreateReview_ClassAggregatesCountOnlyDifficultyReviews(t *testing.T) {
	svc, d := newReviewService(t)

	c := testClass()
	d.classes.On("LockByCode", mock.Anything, "CS 1234").Return(c, nil)
	d.reviews.On("Create", mock.Anything, mock.AnythingOfType("*domain.Review")).Return(nil)
	// Two of five reviews carry difficulty: avg (2+3)/2 = 2.5, count 2.
	expectClassRecalc(d, floatPtr(2.5), floatPtr(2.5), 2)
	expectAfterCommit(d, "", "CS 1234")

	_, err := svc.CreateReview(context.Background(), CreateReviewInput{
		Rating:     4,
		Difficulty: intPtr(3),
		ClassCode:  "CS 1234",
	})
	require.NoError(t, err)
	d.classes.AssertExpectations(t)
}

func TestCreateReview_ClassWithoutDifficultiesGetsAbsentAggregate(t *testing.T) {
	svc, d := newReviewService(t)

	c := testClass()
	d.classes.On("LockByCode", mock.Anything, "CS 1234").Return(c, nil)
	d.reviews.On("Create", mock.Anything, mock.AnythingOfType("*domain.Review")).Return(nil)
	// The new review has no difficulty and neither does any prior one.
	expectClassRecalc(d, nil, nil, 0)
	expectAfterCommit(d, "", "CS 1234")

	_, err := svc.CreateReview(context.Background(), CreateReviewInput{
		Rating:    4,
		ClassCode: "CS 1234",
	})
	require.NoError(t, err)
	d.classes.AssertExpectations(t)
}

func TestCreateReview_UpdatesBothEntities(t *testing.T) {
	svc, d := newReviewService(t)

	d.professors.On("LockBySlug", mock.Anything, "jane-doe").Return(testProfessor(), nil)
	d.classes.On("LockByCode", mock.Anything, "CS 1234").Return(testClass(), nil)
	d.reviews.On("Create", mock.Anything, mock.MatchedBy(func(r *domain.Review) bool {
		return r.ProfessorID != nil && *r.ProfessorID == "prof-1" &&
			r.ClassID != nil && *r.ClassID == "class-1"
	})).Return(nil)
	expectProfessorRecalc(d, floatPtr(4.5), floatPtr(4.5), 2)
	expectClassRecalc(d, floatPtr(3), floatPtr(3), 1)
	expectAfterCommit(d, "jane-doe", "CS 1234")

	review, err := svc.CreateReview(context.Background(), CreateReviewInput{
		Rating:        5,
		Difficulty:    intPtr(3),
		ProfessorSlug: "jane-doe",
		ClassCode:     "CS 1234",
	})
	require.NoError(t, err)
	assert.NotNil(t, review.ProfessorID)
	assert.NotNil(t, review.ClassID)
	assertAllExpectations(t, d.professors, d.classes, d.reviews)
}

// ---------------------------------------------------------------------------
// failure handling
// ---------------------------------------------------------------------------

func TestCreateReview_InsertFailureRollsBack(t *testing.T) {
	svc, d := newReviewService(t)

	d.professors.On("LockBySlug", mock.Anything, "jane-doe").Return(testProfessor(), nil)
	d.reviews.On("Create", mock.Anything, mock.AnythingOfType("*domain.Review")).
		Return(errors.New("disk full"))

	review, err := svc.CreateReview(context.Background(), CreateReviewInput{
		Rating:        4,
		ProfessorSlug: "jane-doe",
	})
	assert.Nil(t, review)
	require.Error(t, err)
	assert.True(t, d.uow.rolledBack)
	d.professors.AssertNotCalled(t, "UpdateAggregates", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	d.publisher.AssertNotCalled(t, "PublishReviewCreated", mock.Anything, mock.Anything)
}

func TestCreateReview_AggregateFailureRollsBack(t *testing.T) {
	svc, d := newReviewService(t)

	d.professors.On("LockBySlug", mock.Anything, "jane-doe").Return(testProfessor(), nil)
	d.reviews.On("Create", mock.Anything, mock.AnythingOfType("*domain.Review")).Return(nil)
	d.reviews.On("AverageRatingFor", mock.Anything, "prof-1").
		Return(nil, errors.New("connection reset"))

	review, err := svc.CreateReview(context.Background(), CreateReviewInput{
		Rating:        4,
		ProfessorSlug: "jane-doe",
	})
	assert.Nil(t, review)
	require.Error(t, err)
	assert.True(t, d.uow.rolledBack)
}

func TestCreateReview_PublishFailureDoesNotFailRequest(t *testing.T) {
	svc, d := newReviewService(t)

	d.professors.On("LockBySlug", mock.Anything, "jane-doe").Return(testProfessor(), nil)
	d.reviews.On("Create", mock.Anything, mock.AnythingOfType("*domain.Review")).Return(nil)
	expectProfessorRecalc(d, floatPtr(4), floatPtr(4), 1)
	d.cache.On("InvalidateProfessor", mock.Anything, "jane-doe").Return(nil)
	d.publisher.On("PublishReviewCreated", mock.Anything, mock.AnythingOfType("*domain.Review")).
		Return(errors.New("broker down"))

	review, err := svc.CreateReview(context.Background(), CreateReviewInput{
		Rating:        4,
		ProfessorSlug: "jane-doe",
	})
	require.NoError(t, err)
	assert.NotNil(t, review)
}

func TestCreateReview_CacheInvalidationFailureDoesNotFailRequest(t *testing.T) {
	svc, d := newReviewService(t)

	d.professors.On("LockBySlug", mock.Anything, "jane-doe").Return(testProfessor(), nil)
	d.reviews.On("Create", mock.Anything, mock.AnythingOfType("*domain.Review")).Return(nil)
	expectProfessorRecalc(d, floatPtr(4), floatPtr(4), 1)
	d.cache.On("InvalidateProfessor", mock.Anything, "jane-doe").
		Return(errors.New("redis down"))
	d.publisher.On("PublishReviewCreated", mock.Anything, mock.AnythingOfType("*domain.Review")).Return(nil)

	_, err := svc.CreateReview(context.Background(), CreateReviewInput{
		Rating:        4,
		ProfessorSlug: "jane-doe",
	})
	require.NoError(t, err)
}

func TestCreateReview_TagsAreIgnored(t *testing.T) {
	svc, d := newReviewService(t)

	d.professors.On("LockBySlug", mock.Anything, "jane-doe").Return(testProfessor(), nil)
	d.reviews.On("Create", mock.Anything, mock.AnythingOfType("*domain.Review")).Return(nil)
	expectProfessorRecalc(d, floatPtr(4), floatPtr(4), 1)
	expectAfterCommit(d, "jane-doe", "")

	review, err := svc.CreateReview(context.Background(), CreateReviewInput{
		Rating:        4,
		ProfessorSlug: "jane-doe",
		Tags:          []string{"tough-grader", "engaging"},
	})
	require.NoError(t, err)
	assert.NotNil(t, review)
}
