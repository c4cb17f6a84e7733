package models

type CandidateProfile struct {
	CGPA          *float64 `json:"cgpa" validate:"required,gte=0,lte=10"`
	Branch        string   `json:"branch" validate:"required"`
	College       string   `json:"college" validate:"required"`
	TargetCompany string   `json:"targetCompany" validate:"required"`
	Role          string   `json:"role" validate:"required"`
}

// Roadmap повторяет JSON-схему, которую возвращает модель.
type Roadmap struct {
	Reasoning          string          `json:"reasoning"`
	EstimatedTimeline  string          `json:"estimatedTimeline"`
	SuccessProbability string          `json:"successProbability"`
	KeyMilestones      []KeyMilestone  `json:"keyMilestones"`
	RoadmapBreakdown   []RoadmapPeriod `json:"roadmapBreakdown"`
}

type KeyMilestone struct {
	Milestone  string `json:"milestone"`
	TargetDate string `json:"targetDate"`
}

type RoadmapPeriod struct {
	Period string   `json:"period"`
	Title  string   `json:"title"`
	Tasks  []string `json:"tasks"`
}
