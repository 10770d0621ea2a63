package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/theovalguide/review-service/internal/domain"
	pkgkafka "github.com/theovalguide/review-service/pkg/kafka"
)

// Kafka topic constants for review domain events.
const (
	TopicReviewCreated    = "theovalguide.review.created"
	TopicProfessorCreated = "theovalguide.professor.created"
	TopicClassCreated     = "theovalguide.class.created"
)

// Aggregate type constants.
const (
	AggregateTypeReview    = "review"
	AggregateTypeProfessor = "professor"
	AggregateTypeClass     = "class"
)

// Source identifier for events originating from the review service.
const SourceReviewService = "review-service"

// ReviewCreatedData is the payload for a review.created event.
type ReviewCreatedData struct {
	ID          string  `json:"id"`
	ProfessorID *string `json:"professor_id,omitempty"`
	ClassID     *string `json:"class_id,omitempty"`
	Rating      int     `json:"rating"`
	Difficulty  *int    `json:"difficulty,omitempty"`
}

// ProfessorCreatedData is the payload for a professor.created event.
type ProfessorCreatedData struct {
	ID         string `json:"id"`
	Slug       string `json:"slug"`
	Name       string `json:"name"`
	Department string `json:"department"`
	University string `json:"university"`
}

// ClassCreatedData is the payload for a class.created event.
type ClassCreatedData struct {
	ID         string `json:"id"`
	Code       string `json:"code"`
	Title      string `json:"title"`
	Department string `json:"department"`
	University string `json:"university"`
}

// Publisher publishes review domain events.
type Publisher interface {
	PublishReviewCreated(ctx context.Context, review *domain.Review) error
	PublishProfessorCreated(ctx context.Context, p *domain.Professor) error
	PublishClassCreated(ctx context.Context, c *domain.CourseClass) error
}

// Producer publishes review domain events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer for the review service.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishReviewCreated publishes a review.created event.
func (p *Producer) PublishReviewCreated(ctx context.Context, review *domain.Review) error {
	data := ReviewCreatedData{
		ID:          review.ID,
		ProfessorID: review.ProfessorID,
		ClassID:     review.ClassID,
		Rating:      review.Rating,
		Difficulty:  review.Difficulty,
	}

	event, err := pkgkafka.NewEvent(TopicReviewCreated, review.ID, AggregateTypeReview, SourceReviewService, data)
	if err != nil {
		return fmt.Errorf("create review.created event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicReviewCreated, event); err != nil {
		return fmt.Errorf("publish review.created event: %w", err)
	}

	p.logger.DebugContext(ctx, "published review.created event",
		slog.String("review_id", review.ID),
	)

	return nil
}

// PublishProfessorCreated publishes a professor.created event.
func (p *Producer) PublishProfessorCreated(ctx context.Context, prof *domain.Professor) error {
	data := ProfessorCreatedData{
		ID:         prof.ID,
		Slug:       prof.Slug,
		Name:       prof.Name,
		Department: prof.Department,
		University: prof.University,
	}

	event, err := pkgkafka.NewEvent(TopicProfessorCreated, prof.ID, AggregateTypeProfessor, SourceReviewService, data)
	if err != nil {
		return fmt.Errorf("create professor.created event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicProfessorCreated, event); err != nil {
		return fmt.Errorf("publish professor.created event: %w", err)
	}

	p.logger.DebugContext(ctx, "published professor.created event",
		slog.String("professor_id", prof.ID),
		slog.String("slug", prof.Slug),
	)

	return nil
}

// PublishClassCreated publishes a class.created event.
func (p *Producer) PublishClassCreated(ctx context.Context, class *domain.CourseClass) error {
	data := ClassCreatedData{
		ID:         class.ID,
		Code:       class.Code,
		Title:      class.Title,
		Department: class.Department,
		University: class.University,
	}

	event, err := pkgkafka.NewEvent(TopicClassCreated, class.ID, AggregateTypeClass, SourceReviewService, data)
	if err != nil {
		return fmt.Errorf("create class.created event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicClassCreated, event); err != nil {
		return fmt.Errorf("publish class.created event: %w", err)
	}

	p.logger.DebugContext(ctx, "published class.created event",
		slog.String("class_id", class.ID),
		slog.String("code", class.Code),
	)

	return nil
}
