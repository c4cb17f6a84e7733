package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/RubachokBoss/prepai/internal/models"
	"github.com/RubachokBoss/prepai/internal/repository"
	"github.com/RubachokBoss/prepai/internal/service/integration"
	"github.com/rs/zerolog"
)

const (
	// MaxRoadmapExperiences ограничивает контекст запроса к модели.
	MaxRoadmapExperiences = 10

	NoExperienceContext  = "No past experiences found for this company. Your generated plan should be based on general knowledge for this role."
	MessageRoadmapFailed = "An unexpected error occurred. Please try again later."

	experienceSeparator = "\n\n---\n\n"
)

type RoadmapService interface {
	GenerateRoadmap(ctx context.Context, profile *models.CandidateProfile) (*models.Roadmap, error)
}

type roadmapService struct {
	experienceRepo repository.ExperienceRepository
	llmClient      integration.LLMClient
	logger         zerolog.Logger
}

func NewRoadmapService(
	experienceRepo repository.ExperienceRepository,
	llmClient integration.LLMClient,
	logger zerolog.Logger,
) RoadmapService {
	return &roadmapService{
		experienceRepo: experienceRepo,
		llmClient:      llmClient,
		logger:         logger,
	}
}

func (s *roadmapService) GenerateRoadmap(ctx context.Context, profile *models.CandidateProfile) (*models.Roadmap, error) {
	if err := ValidateProfile(profile); err != nil {
		return nil, err
	}

	experiences, err := s.experienceRepo.ListByCompany(ctx, profile.TargetCompany, MaxRoadmapExperiences)
	if err != nil {
		s.logger.Error().Err(err).Str("company", profile.TargetCompany).Msg("Failed to load experiences for roadmap")
		return nil, fmt.Errorf("%w: failed to list experiences: %w", ErrRoadmapUnavailable, err)
	}

	roadmap, err := s.llmClient.GenerateRoadmap(ctx, integration.RoadmapPromptInput{
		CGPA:              formatCGPA(*profile.CGPA),
		Branch:            profile.Branch,
		College:           profile.College,
		TargetCompany:     profile.TargetCompany,
		Role:              profile.Role,
		ExperienceContext: BuildRoadmapContext(experiences),
	})
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("company", profile.TargetCompany).
			Str("role", profile.Role).
			Msg("Roadmap generation failed")
		return nil, fmt.Errorf("%w: %w", ErrRoadmapUnavailable, err)
	}

	s.logger.Info().
		Str("company", profile.TargetCompany).
		Int("context_experiences", len(experiences)).
		Int("milestones", len(roadmap.KeyMilestones)).
		Msg("Roadmap generated")

	return roadmap, nil
}

// BuildRoadmapContext описывает до MaxRoadmapExperiences записей для промпта.
func BuildRoadmapContext(experiences []models.Experience) string {
	if len(experiences) == 0 {
		return NoExperienceContext
	}
	if len(experiences) > MaxRoadmapExperiences {
		experiences = experiences[:MaxRoadmapExperiences]
	}

	blocks := make([]string, 0, len(experiences))
	for _, e := range experiences {
		var b strings.Builder
		fmt.Fprintf(&b, "Student from %s (CGPA: %s, Branch: %s) applied for %s.\nExperience:", e.College, formatCGPA(e.CGPA), e.Branch, e.Role)
		for i, round := range e.Rounds() {
			fmt.Fprintf(&b, "\n- Round %d: %s", i+1, roundText(round))
		}
		blocks = append(blocks, b.String())
	}

	return strings.Join(blocks, experienceSeparator)
}

func formatCGPA(cgpa float64) string {
	return strconv.FormatFloat(cgpa, 'f', -1, 64)
}
