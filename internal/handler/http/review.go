package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/theovalguide/review-service/internal/service"
	apperrors "github.com/theovalguide/review-service/pkg/errors"
	"github.com/theovalguide/review-service/pkg/httputil"
)

// ReviewHandler handles HTTP requests for review endpoints.
type ReviewHandler struct {
	service *service.ReviewService
	logger  *slog.Logger
}

// NewReviewHandler creates a new review HTTP handler.
func NewReviewHandler(svc *service.ReviewService, logger *slog.Logger) *ReviewHandler {
	return &ReviewHandler{
		service: svc,
		logger:  logger,
	}
}

// CreateReviewRequest is the JSON request body for submitting a review.
// Rating- and reference-level validation lives in the service so every
// transport shares one message contract.
type CreateReviewRequest struct {
	Rating     int    `json:"rating"`
	Difficulty *int   `json:"difficulty"`
	Comment    string `json:"comment"`

	ProfessorSlug string `json:"professorSlug"`
	ClassCode     string `json:"classCode"`

	CreateIfMissing bool   `json:"createIfMissing"`
	ClassTitle      string `json:"classTitle"`
	Department      string `json:"department"`
	University      string `json:"university"`

	Tags []string `json:"tags"`
}

// CreateReview handles POST /api/v1/reviews
func (h *ReviewHandler) CreateReview(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1 MB limit
	var req CreateReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, r, apperrors.InvalidInput("invalid request body: "+err.Error()), h.logger)
		return
	}

	review, err := h.service.CreateReview(r.Context(), service.CreateReviewInput{
		Rating:          req.Rating,
		Difficulty:      req.Difficulty,
		Comment:         req.Comment,
		ProfessorSlug:   req.ProfessorSlug,
		ClassCode:       req.ClassCode,
		CreateIfMissing: req.CreateIfMissing,
		ClassTitle:      req.ClassTitle,
		Department:      req.Department,
		University:      req.University,
		Tags:            req.Tags,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: review})
}
