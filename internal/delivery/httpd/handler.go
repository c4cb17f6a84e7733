package httpd

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/RubachokBoss/prepai/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

type Handler struct {
	experienceService service.ExperienceService
	companyService    service.CompanyService
	roadmapService    service.RoadmapService
	maxLogoSize       int64
	logger            zerolog.Logger
}

func NewHandler(
	experienceService service.ExperienceService,
	companyService service.CompanyService,
	roadmapService service.RoadmapService,
	maxLogoSize int64,
	logger zerolog.Logger,
) *Handler {
	return &Handler{
		experienceService: experienceService,
		companyService:    companyService,
		roadmapService:    roadmapService,
		maxLogoSize:       maxLogoSize,
		logger:            logger,
	}
}

func (h *Handler) RegisterRoutes(router chi.Router) {
	router.Get("/health", h.HealthCheck)

	router.Route("/api/v1", func(api chi.Router) {
		api.Post("/experiences", h.SubmitExperience)

		api.Route("/companies", func(r chi.Router) {
			r.Get("/", h.ListCompanies)
			r.Get("/{name}", h.GetCompany)
			r.Get("/{name}/experiences", h.ListCompanyExperiences)
			r.With(RequireIdentity).Put("/{name}/logo", h.UploadLogo)
			r.With(RequireIdentity).Post("/{name}/refresh", h.RefreshCompany)
		})

		api.Post("/roadmaps", h.GenerateRoadmap)
	})
}

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":    "healthy",
		"service":   "prepai",
		"timestamp": time.Now().UTC(),
	}

	writeJSON(w, http.StatusOK, response)
}

func (h *Handler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error":        http.StatusText(http.StatusBadRequest),
			"message":      "Invalid data provided.",
			"field_errors": service.FieldErrors(err),
		})
	case errors.Is(err, service.ErrCompanyNotFound):
		writeError(w, http.StatusNotFound, "Company not found")
	case errors.Is(err, service.ErrUnauthenticated):
		writeError(w, http.StatusUnauthorized, service.MessageUnauthenticated)
	case errors.Is(err, service.ErrPermissionDenied):
		writeError(w, http.StatusForbidden, service.MessagePermissionDenied)
	case errors.Is(err, service.ErrInvalidData):
		writeError(w, http.StatusUnprocessableEntity, service.MessageInvalidStoredData)
	case errors.Is(err, service.ErrInvalidLogo):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrStorageDisabled):
		writeError(w, http.StatusServiceUnavailable, "Logo uploads are disabled")
	default:
		LoggerFromContext(r.Context(), h.logger).Error().Err(err).Msg("Service error")
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// statusFor выбирает HTTP-статус для ответа SubmitExperience.
func statusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusCreated
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrPermissionDenied):
		return http.StatusForbidden
	case errors.Is(err, service.ErrInvalidData):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{
		"error":   http.StatusText(status),
		"message": message,
	})
}

func writeSuccess(w http.ResponseWriter, data interface{}) {
	response := map[string]interface{}{
		"success": true,
		"data":    data,
	}
	writeJSON(w, http.StatusOK, response)
}
