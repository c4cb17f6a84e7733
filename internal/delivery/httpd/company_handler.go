package httpd

import (
	"io"
	"net/http"

	"github.com/RubachokBoss/prepai/internal/models"
	"github.com/go-chi/chi/v5"
)

func (h *Handler) ListCompanies(w http.ResponseWriter, r *http.Request) {
	response, err := h.companyService.ListCompanies(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeSuccess(w, response)
}

func (h *Handler) GetCompany(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if name == "" {
		writeError(w, http.StatusBadRequest, "Company name is required")
		return
	}

	company, err := h.companyService.GetCompanyAggregate(r.Context(), name)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeSuccess(w, company)
}

func (h *Handler) ListCompanyExperiences(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if name == "" {
		writeError(w, http.StatusBadRequest, "Company name is required")
		return
	}

	response, err := h.companyService.ListCompanyExperiences(r.Context(), name)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeSuccess(w, response)
}

func (h *Handler) UploadLogo(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if name == "" {
		writeError(w, http.StatusBadRequest, "Company name is required")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxLogoSize+(1<<20))
	if err := r.ParseMultipartForm(h.maxLogoSize); err != nil {
		writeError(w, http.StatusBadRequest, "Failed to parse form data")
		return
	}

	file, header, err := r.FormFile("logo")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Logo file is required")
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to read file")
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(content)
	}

	company, err := h.companyService.UploadLogo(r.Context(), &models.LogoUploadRequest{
		Company:     name,
		FileName:    header.Filename,
		ContentType: contentType,
		Size:        int64(len(content)),
		Content:     content,
	})
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeSuccess(w, company)
}

func (h *Handler) RefreshCompany(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	queued, err := h.companyService.RequestRefresh(r.Context(), name)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	if queued {
		writeJSON(w, http.StatusAccepted, map[string]interface{}{
			"success": true,
			"message": "Company refresh has been queued",
		})
		return
	}

	writeSuccess(w, map[string]interface{}{
		"message": "Company refreshed",
	})
}
