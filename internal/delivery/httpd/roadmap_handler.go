package httpd

import (
	"errors"
	"net/http"

	"github.com/RubachokBoss/prepai/internal/models"
	"github.com/RubachokBoss/prepai/internal/service"
	"github.com/RubachokBoss/prepai/pkg/utils"
)

func (h *Handler) GenerateRoadmap(w http.ResponseWriter, r *http.Request) {
	var profile models.CandidateProfile
	if err := utils.ReadJSON(w, r, &profile, utils.DefaultMaxBodyBytes); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	roadmap, err := h.roadmapService.GenerateRoadmap(r.Context(), &profile)
	if err != nil {
		if errors.Is(err, service.ErrRoadmapUnavailable) {
			writeError(w, http.StatusBadGateway, service.MessageRoadmapFailed)
			return
		}
		h.handleServiceError(w, r, err)
		return
	}

	writeSuccess(w, roadmap)
}
