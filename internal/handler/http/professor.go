package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/theovalguide/review-service/internal/service"
	apperrors "github.com/theovalguide/review-service/pkg/errors"
	"github.com/theovalguide/review-service/pkg/httputil"
	"github.com/theovalguide/review-service/pkg/validator"
)

// ProfessorHandler handles HTTP requests for professor endpoints.
type ProfessorHandler struct {
	service *service.ProfessorService
	logger  *slog.Logger
}

// NewProfessorHandler creates a new professor HTTP handler.
func NewProfessorHandler(svc *service.ProfessorService, logger *slog.Logger) *ProfessorHandler {
	return &ProfessorHandler{
		service: svc,
		logger:  logger,
	}
}

// CreateProfessorRequest is the JSON request body for registering a professor.
type CreateProfessorRequest struct {
	Name       string `json:"name" validate:"required,min=1,max=255"`
	Department string `json:"department" validate:"required,min=1,max=255"`
	University string `json:"university" validate:"required,min=1,max=255"`
}

// GetProfessor handles GET /api/v1/professors/{slug}
func (h *ProfessorHandler) GetProfessor(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	p, err := h.service.GetProfessor(r.Context(), slug)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: p})
}

// CreateProfessor handles POST /api/v1/professors
func (h *ProfessorHandler) CreateProfessor(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1 MB limit
	var req CreateProfessorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, r, apperrors.InvalidInput("invalid request body: "+err.Error()), h.logger)
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	p, err := h.service.CreateProfessor(r.Context(), service.CreateProfessorInput{
		Name:       req.Name,
		Department: req.Department,
		University: req.University,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: p})
}
