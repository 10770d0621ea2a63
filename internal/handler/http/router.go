package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/theovalguide/review-service/internal/service"
	"github.com/theovalguide/review-service/pkg/health"
	"github.com/theovalguide/review-service/pkg/middleware"
)

// RouterConfig carries the router's non-service dependencies.
type RouterConfig struct {
	CORS              CORSConfig
	PprofAllowedCIDRs []string
}

// NewRouter creates a chi router with all review service routes registered.
func NewRouter(
	reviewService *service.ReviewService,
	professorService *service.ProfessorService,
	classService *service.ClassService,
	healthHandler *health.Handler,
	cfg RouterConfig,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(CORS(cfg.CORS))
	r.Use(middleware.Recovery(logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.Tracing("reviews"))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.PrometheusMetrics("reviews"))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	middleware.RegisterPprof(r, cfg.PprofAllowedCIDRs, logger)

	reviewHandler := NewReviewHandler(reviewService, logger)
	professorHandler := NewProfessorHandler(professorService, logger)
	classHandler := NewClassHandler(classService, logger)

	r.Route("/api/v1/reviews", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Post("/", reviewHandler.CreateReview)
	})

	r.Route("/api/v1/professors", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Post("/", professorHandler.CreateProfessor)
		r.Get("/{slug}", professorHandler.GetProfessor)
	})

	r.Route("/api/v1/classes", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Post("/", classHandler.CreateClass)
		r.Get("/{code}", classHandler.GetClass)
	})

	return r
}
