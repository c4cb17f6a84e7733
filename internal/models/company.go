package models

import (
	"fmt"
	"time"

	"github.com/gosimple/slug"
)

const (
	DefaultAIHint = "company building"

	SummaryNeedsMoreData = "More experiences needed to generate a summary."
	SummaryUnavailable   = "Could not generate AI summary at this time."
)

type Company struct {
	Name           string    `json:"name" db:"name"`
	LogoURL        string    `json:"logo_url" db:"logo_url"`
	AIHint         string    `json:"ai_hint" db:"ai_hint"`
	NumExperiences int       `json:"num_experiences" db:"num_experiences"`
	AvgCGPA        float64   `json:"avg_cgpa" db:"avg_cgpa"`
	AISummary      string    `json:"ai_summary" db:"ai_summary"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

// ApplyDefaults заполняет отображаемые поля, которые еще не были заданы.
func (c *Company) ApplyDefaults() {
	if c.LogoURL == "" {
		c.LogoURL = DefaultLogoURL(c.Name)
	}
	if c.AIHint == "" {
		c.AIHint = DefaultAIHint
	}
}

func DefaultLogoURL(companyName string) string {
	return fmt.Sprintf("https://avatar.vercel.sh/%s.png?size=96", slug.Make(companyName))
}

// Aggregate holds the statistics recomputed from the full experience set.
type Aggregate struct {
	NumExperiences int     `json:"num_experiences"`
	AvgCGPA        float64 `json:"avg_cgpa"`
}
