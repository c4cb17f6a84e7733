package models

// Data Transfer Objects

type SubmitExperienceRequest struct {
	Name    string   `json:"name" validate:"required,min=2"`
	College string   `json:"college" validate:"required,min=2"`
	CGPA    *float64 `json:"cgpa" validate:"required,gte=0,lte=10"`
	Branch  string   `json:"branch" validate:"required,min=2"`
	Company string   `json:"company" validate:"required,min=2"`
	Role    string   `json:"role" validate:"required,min=2"`
	Year    *int     `json:"year" validate:"required,gte=2000"`
	Round1  string   `json:"round1"`
	Round2  string   `json:"round2"`
	Round3  string   `json:"round3"`
}

type ActionResponse struct {
	Success     bool              `json:"success"`
	Message     string            `json:"message"`
	FieldErrors map[string]string `json:"field_errors,omitempty"`
}

type CompanyListResponse struct {
	Companies []Company `json:"companies"`
	Total     int       `json:"total"`
}

type CompanyExperiencesResponse struct {
	Company     Company      `json:"company"`
	Experiences []Experience `json:"experiences"`
}

type LogoUploadRequest struct {
	Company     string
	FileName    string
	ContentType string
	Size        int64
	Content     []byte
}
