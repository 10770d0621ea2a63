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

// ClassHandler handles HTTP requests for course-class endpoints.
type ClassHandler struct {
	service *service.ClassService
	logger  *slog.Logger
}

// NewClassHandler creates a new class HTTP handler.
func NewClassHandler(svc *service.ClassService, logger *slog.Logger) *ClassHandler {
	return &ClassHandler{
		service: svc,
		logger:  logger,
	}
}

// CreateClassRequest is the JSON request body for registering a course class.
type CreateClassRequest struct {
	Code       string `json:"code" validate:"required,min=1,max=64"`
	Title      string `json:"title" validate:"required,min=1,max=255"`
	Department string `json:"department" validate:"required,min=1,max=255"`
	University string `json:"university" validate:"required,min=1,max=255"`
}

// GetClass handles GET /api/v1/classes/{code}
func (h *ClassHandler) GetClass(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	c, err := h.service.GetClass(r.Context(), code)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: c})
}

// CreateClass handles POST /api/v1/classes
func (h *ClassHandler) CreateClass(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1 MB limit
	var req CreateClassRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, r, apperrors.InvalidInput("invalid request body: "+err.Error()), h.logger)
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	c, err := h.service.CreateClass(r.Context(), service.CreateClassInput{
		Code:       req.Code,
		Title:      req.Title,
		Department: req.Department,
		University: req.University,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: c})
}
