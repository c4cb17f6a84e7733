package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/RubachokBoss/prepai/internal/models"
	"github.com/RubachokBoss/prepai/internal/repository"
	"github.com/RubachokBoss/prepai/internal/service/integration"
	"github.com/rs/zerolog"
)

// CompanyAggregator пересчитывает агрегат компании по всем ее записям и сохраняет его.
type CompanyAggregator interface {
	RefreshCompany(ctx context.Context, name string) (*models.Company, error)
	RefreshAll(ctx context.Context) (int, error)
}

type companyAggregator struct {
	experienceRepo repository.ExperienceRepository
	companyRepo    repository.CompanyRepository
	llmClient      integration.LLMClient
	logger         zerolog.Logger
}

func NewCompanyAggregator(
	experienceRepo repository.ExperienceRepository,
	companyRepo repository.CompanyRepository,
	llmClient integration.LLMClient,
	logger zerolog.Logger,
) CompanyAggregator {
	return &companyAggregator{
		experienceRepo: experienceRepo,
		companyRepo:    companyRepo,
		llmClient:      llmClient,
		logger:         logger,
	}
}

func (a *companyAggregator) RefreshCompany(ctx context.Context, name string) (*models.Company, error) {
	experiences, err := a.experienceRepo.ListByCompany(ctx, name, 0)
	if err != nil {
		return nil, classifyStoreError(fmt.Errorf("failed to list experiences: %w", err))
	}

	aggregate := ComputeAggregate(experiences)
	summary := a.summarize(ctx, name, BuildSummaryBlocks(experiences))

	company, err := a.companyRepo.TransactionalUpsert(ctx, name, func(c *models.Company, exists bool) error {
		// запись компании появляется только вместе с первым опытом
		if !exists && aggregate.NumExperiences == 0 {
			return ErrCompanyNotFound
		}
		c.NumExperiences = aggregate.NumExperiences
		c.AvgCGPA = aggregate.AvgCGPA
		c.AISummary = summary
		c.ApplyDefaults()
		return nil
	})
	if errors.Is(err, ErrCompanyNotFound) {
		return nil, ErrCompanyNotFound
	}
	if err != nil {
		return nil, classifyStoreError(fmt.Errorf("failed to update company data: %w", err))
	}

	a.logger.Info().
		Str("company", name).
		Int("num_experiences", company.NumExperiences).
		Float64("avg_cgpa", company.AvgCGPA).
		Msg("Company aggregate refreshed")

	return company, nil
}

// summarize никогда не возвращает ошибку: сбой модели заменяется фиксированным текстом.
func (a *companyAggregator) summarize(ctx context.Context, name string, blocks []string) string {
	if len(blocks) == 0 {
		return models.SummaryNeedsMoreData
	}

	summary, err := a.llmClient.Summarize(ctx, name, blocks)
	if err != nil {
		a.logger.Error().
			Err(err).
			Str("company", name).
			Int("blocks", len(blocks)).
			Msg("AI summary generation failed")
		return models.SummaryUnavailable
	}

	return summary
}

// RefreshAll пересчитывает все компании, у которых есть хотя бы одна запись.
func (a *companyAggregator) RefreshAll(ctx context.Context) (int, error) {
	names, err := a.experienceRepo.ListCompanyNames(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list companies: %w", err)
	}

	var (
		refreshed int
		errs      []error
	)
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if _, err := a.RefreshCompany(ctx, name); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}
		refreshed++
	}

	return refreshed, errors.Join(errs...)
}

func classifyStoreError(err error) error {
	switch {
	case repository.IsPermissionDenied(err):
		return fmt.Errorf("%w: %w", ErrPermissionDenied, err)
	case repository.IsInvalidData(err):
		return fmt.Errorf("%w: %w", ErrInvalidData, err)
	}
	return err
}
