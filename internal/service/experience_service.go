package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/RubachokBoss/prepai/internal/models"
	"github.com/RubachokBoss/prepai/internal/repository"
	"github.com/RubachokBoss/prepai/internal/service/integration"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	MessageSubmitted          = "Your experience has been submitted successfully!"
	MessageInvalidInput       = "Invalid data provided."
	MessageUnauthenticated    = "Authentication required. Please sign in and try again."
	MessagePermissionDenied   = "Permission denied. Your account is not allowed to perform this action."
	MessageInvalidStoredData  = "Invalid data was sent. Please check the form and try again."
	MessageUnexpectedFailure  = "An unexpected error occurred. Please try again later."
	messageUnexpectedWithStep = "An unexpected error occurred: %s."
)

type ExperienceService interface {
	// SubmitExperience всегда возвращает ответ для клиента; error нужен для выбора HTTP-статуса.
	SubmitExperience(ctx context.Context, req *models.SubmitExperienceRequest, identity models.Identity) (*models.ActionResponse, error)
}

type experienceService struct {
	experienceRepo repository.ExperienceRepository
	aggregator     CompanyAggregator
	rabbitmqClient integration.RabbitMQClient
	now            func() time.Time
	logger         zerolog.Logger
}

func NewExperienceService(
	experienceRepo repository.ExperienceRepository,
	aggregator CompanyAggregator,
	rabbitmqClient integration.RabbitMQClient,
	logger zerolog.Logger,
) ExperienceService {
	return &experienceService{
		experienceRepo: experienceRepo,
		aggregator:     aggregator,
		rabbitmqClient: rabbitmqClient,
		now:            time.Now,
		logger:         logger,
	}
}

func (s *experienceService) SubmitExperience(ctx context.Context, req *models.SubmitExperienceRequest, identity models.Identity) (*models.ActionResponse, error) {
	if strings.TrimSpace(identity.UID) == "" {
		return failureResponse(ErrUnauthenticated), ErrUnauthenticated
	}

	normalizeSubmission(req)
	if err := ValidateSubmission(req, s.now()); err != nil {
		return failureResponse(err), err
	}

	experience := &models.Experience{
		ID:      uuid.New().String(),
		Name:    req.Name,
		College: req.College,
		Branch:  req.Branch,
		CGPA:    *req.CGPA,
		Company: req.Company,
		Role:    req.Role,
		Year:    *req.Year,
		Round1:  req.Round1,
		Round2:  req.Round2,
		Round3:  req.Round3,
		UID:     identity.UID,
		Email:   identity.Email,
	}

	if err := s.experienceRepo.Create(ctx, experience); err != nil {
		err = classifyStoreError(fmt.Errorf("failed to save experience: %w", err))
		s.logger.Error().Err(err).Str("company", experience.Company).Msg("Failed to save experience")
		return failureResponse(err), err
	}

	s.logger.Info().
		Str("experience_id", experience.ID).
		Str("company", experience.Company).
		Str("uid", identity.UID).
		Msg("Experience saved")

	if _, err := s.aggregator.RefreshCompany(ctx, experience.Company); err != nil {
		s.logger.Error().Err(err).Str("company", experience.Company).Msg("Failed to refresh company aggregate")
		s.enqueueRefresh(ctx, experience.Company)
		return failureResponse(err), err
	}

	return &models.ActionResponse{
		Success: true,
		Message: MessageSubmitted,
	}, nil
}

// enqueueRefresh ставит пересчет в очередь, чтобы агрегат догнал уже сохраненную запись.
func (s *experienceService) enqueueRefresh(ctx context.Context, company string) {
	if s.rabbitmqClient == nil {
		return
	}

	// запрос уже мог быть отменен, публикация от него не зависит
	publishCtx := context.WithoutCancel(ctx)
	event := &models.CompanyRefreshEvent{
		Company:   company,
		Reason:    models.RefreshReasonWriteFailed,
		Timestamp: s.now().Unix(),
	}
	if err := s.rabbitmqClient.PublishCompanyRefresh(publishCtx, event); err != nil {
		s.logger.Error().Err(err).Str("company", company).Msg("Failed to enqueue company refresh")
	}
}

// normalizeSubmission обрезает пробелы до валидации, чтобы "   " не проходило min=2.
func normalizeSubmission(req *models.SubmitExperienceRequest) {
	if req == nil {
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.College = strings.TrimSpace(req.College)
	req.Branch = strings.TrimSpace(req.Branch)
	req.Company = strings.TrimSpace(req.Company)
	req.Role = strings.TrimSpace(req.Role)
}

func failureResponse(err error) *models.ActionResponse {
	resp := &models.ActionResponse{Success: false}

	switch {
	case errors.Is(err, ErrValidation):
		resp.Message = MessageInvalidInput
		resp.FieldErrors = FieldErrors(err)
	case errors.Is(err, ErrUnauthenticated):
		resp.Message = MessageUnauthenticated
	case errors.Is(err, ErrPermissionDenied):
		resp.Message = MessagePermissionDenied
	case errors.Is(err, ErrInvalidData):
		resp.Message = MessageInvalidStoredData
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		resp.Message = MessageUnexpectedFailure
	default:
		resp.Message = fmt.Sprintf(messageUnexpectedWithStep, failedStep(err))
	}

	return resp
}

// failedStep берет верхний уровень сообщения ("failed to save experience"), без деталей драйвера.
func failedStep(err error) string {
	msg := err.Error()
	if i := strings.Index(msg, ":"); i > 0 {
		return msg[:i]
	}
	return msg
}
