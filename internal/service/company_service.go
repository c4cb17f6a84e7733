package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/RubachokBoss/prepai/internal/models"
	"github.com/RubachokBoss/prepai/internal/repository"
	"github.com/RubachokBoss/prepai/internal/service/integration"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/rs/zerolog"
)

var logoExtensions = map[string]string{
	"image/png":     ".png",
	"image/jpeg":    ".jpg",
	"image/webp":    ".webp",
	"image/svg+xml": ".svg",
}

type CompanyService interface {
	GetCompanyAggregate(ctx context.Context, name string) (*models.Company, error)
	ListCompanies(ctx context.Context) (*models.CompanyListResponse, error)
	ListCompanyExperiences(ctx context.Context, name string) (*models.CompanyExperiencesResponse, error)
	UploadLogo(ctx context.Context, req *models.LogoUploadRequest) (*models.Company, error)
	// RequestRefresh возвращает true, если пересчет поставлен в очередь, и false, если выполнен сразу.
	RequestRefresh(ctx context.Context, name string) (bool, error)
}

type companyService struct {
	companyRepo    repository.CompanyRepository
	experienceRepo repository.ExperienceRepository
	logoStorage    repository.LogoStorage
	aggregator     CompanyAggregator
	rabbitmqClient integration.RabbitMQClient
	maxLogoSize    int64
	logger         zerolog.Logger
}

func NewCompanyService(
	companyRepo repository.CompanyRepository,
	experienceRepo repository.ExperienceRepository,
	logoStorage repository.LogoStorage,
	aggregator CompanyAggregator,
	rabbitmqClient integration.RabbitMQClient,
	maxLogoSize int64,
	logger zerolog.Logger,
) CompanyService {
	return &companyService{
		companyRepo:    companyRepo,
		experienceRepo: experienceRepo,
		logoStorage:    logoStorage,
		aggregator:     aggregator,
		rabbitmqClient: rabbitmqClient,
		maxLogoSize:    maxLogoSize,
		logger:         logger,
	}
}

func (s *companyService) GetCompanyAggregate(ctx context.Context, name string) (*models.Company, error) {
	company, err := s.companyRepo.GetByName(ctx, name)
	if err != nil {
		return nil, classifyStoreError(fmt.Errorf("failed to get company: %w", err))
	}
	if company == nil {
		return nil, ErrCompanyNotFound
	}

	company.ApplyDefaults()
	return company, nil
}

func (s *companyService) ListCompanies(ctx context.Context) (*models.CompanyListResponse, error) {
	companies, err := s.companyRepo.List(ctx)
	if err != nil {
		return nil, classifyStoreError(fmt.Errorf("failed to list companies: %w", err))
	}

	for i := range companies {
		companies[i].ApplyDefaults()
	}

	return &models.CompanyListResponse{
		Companies: companies,
		Total:     len(companies),
	}, nil
}

func (s *companyService) ListCompanyExperiences(ctx context.Context, name string) (*models.CompanyExperiencesResponse, error) {
	company, err := s.GetCompanyAggregate(ctx, name)
	if err != nil {
		return nil, err
	}

	experiences, err := s.experienceRepo.ListByCompany(ctx, name, 0)
	if err != nil {
		return nil, classifyStoreError(fmt.Errorf("failed to list experiences: %w", err))
	}

	return &models.CompanyExperiencesResponse{
		Company:     *company,
		Experiences: experiences,
	}, nil
}

func (s *companyService) UploadLogo(ctx context.Context, req *models.LogoUploadRequest) (*models.Company, error) {
	if s.logoStorage == nil {
		return nil, ErrStorageDisabled
	}

	ext, ok := logoExtensions[req.ContentType]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported content type %q", ErrInvalidLogo, req.ContentType)
	}
	if req.Size <= 0 || req.Size > s.maxLogoSize {
		return nil, fmt.Errorf("%w: size must be between 1 and %d bytes", ErrInvalidLogo, s.maxLogoSize)
	}

	existing, err := s.companyRepo.GetByName(ctx, req.Company)
	if err != nil {
		return nil, classifyStoreError(fmt.Errorf("failed to get company: %w", err))
	}
	if existing == nil {
		return nil, ErrCompanyNotFound
	}

	objectName := path.Join(slug.Make(req.Company), fmt.Sprintf("%d-%s%s", time.Now().Unix(), uuid.New().String()[:8], ext))
	logoURL, err := s.logoStorage.UploadLogo(ctx, objectName, req.ContentType, bytes.NewReader(req.Content), req.Size)
	if err != nil {
		return nil, fmt.Errorf("failed to store logo: %w", err)
	}

	company, err := s.companyRepo.TransactionalUpsert(ctx, req.Company, func(c *models.Company, exists bool) error {
		if !exists {
			return ErrCompanyNotFound
		}
		c.LogoURL = logoURL
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrCompanyNotFound) {
			return nil, err
		}
		return nil, classifyStoreError(fmt.Errorf("failed to update company logo: %w", err))
	}

	s.logger.Info().
		Str("company", req.Company).
		Str("logo_url", logoURL).
		Msg("Company logo updated")

	company.ApplyDefaults()
	return company, nil
}

func (s *companyService) RequestRefresh(ctx context.Context, name string) (bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return false, &ValidationError{Fields: map[string]string{"name": "is required"}}
	}

	known, err := s.companyKnown(ctx, name)
	if err != nil {
		return false, err
	}
	if !known {
		return false, ErrCompanyNotFound
	}

	if s.rabbitmqClient != nil {
		err := s.rabbitmqClient.PublishCompanyRefresh(ctx, &models.CompanyRefreshEvent{
			Company:   name,
			Reason:    models.RefreshReasonManual,
			Timestamp: time.Now().Unix(),
		})
		if err == nil {
			return true, nil
		}
		s.logger.Warn().Err(err).Str("company", name).Msg("Failed to enqueue refresh, refreshing inline")
	}

	if _, err := s.aggregator.RefreshCompany(ctx, name); err != nil {
		return false, err
	}
	return false, nil
}

// companyKnown: у компании есть запись или хотя бы один опыт (запись могла не сохраниться после сбоя).
func (s *companyService) companyKnown(ctx context.Context, name string) (bool, error) {
	company, err := s.companyRepo.GetByName(ctx, name)
	if err != nil {
		return false, classifyStoreError(fmt.Errorf("failed to get company: %w", err))
	}
	if company != nil {
		return true, nil
	}

	experiences, err := s.experienceRepo.ListByCompany(ctx, name, 1)
	if err != nil {
		return false, classifyStoreError(fmt.Errorf("failed to list experiences: %w", err))
	}
	return len(experiences) > 0, nil
}
