package integration

import (
	"bytes"
	_ "embed"
	"fmt"
	"text/template"
)

//go:embed prompts/summary.md
var summaryPromptRaw string

//go:embed prompts/roadmap.md
var roadmapPromptRaw string

var (
	summaryTemplate = template.Must(template.New("summary").Parse(summaryPromptRaw))
	roadmapTemplate = template.Must(template.New("roadmap").Parse(roadmapPromptRaw))
)

type summaryPromptData struct {
	CompanyName string
	Experiences []string
}

// RoadmapPromptInput is the candidate profile plus the prepared experience context.
type RoadmapPromptInput struct {
	CGPA              string
	Branch            string
	College           string
	TargetCompany     string
	Role              string
	ExperienceContext string
}

func render(tmpl *template.Template, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render %s prompt: %w", tmpl.Name(), err)
	}
	return buf.String(), nil
}
