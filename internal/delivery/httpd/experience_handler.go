package httpd

import (
	"net/http"

	"github.com/RubachokBoss/prepai/internal/models"
	"github.com/RubachokBoss/prepai/pkg/utils"
)

func (h *Handler) SubmitExperience(w http.ResponseWriter, r *http.Request) {
	var req models.SubmitExperienceRequest
	if err := utils.ReadJSON(w, r, &req, utils.DefaultMaxBodyBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, &models.ActionResponse{
			Success: false,
			Message: "Invalid request body: " + err.Error(),
		})
		return
	}

	resp, err := h.experienceService.SubmitExperience(r.Context(), &req, identityFromRequest(r))
	if err != nil {
		LoggerFromContext(r.Context(), h.logger).Warn().
			Err(err).
			Str("company", req.Company).
			Msg("Experience submission failed")
	}

	writeJSON(w, statusFor(err), resp)
}
