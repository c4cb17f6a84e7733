package integration

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/RubachokBoss/prepai/internal/models"
	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"
)

var (
	ErrLLMNotConfigured = errors.New("llm api key is not configured")
	ErrInvalidResponse  = errors.New("llm response does not match the expected schema")
)

const systemPrompt = "You are a helpful assistant for students preparing for campus placements. Always answer with valid JSON only."

type LLMClient interface {
	Summarize(ctx context.Context, companyName string, experiences []string) (string, error)
	GenerateRoadmap(ctx context.Context, input RoadmapPromptInput) (*models.Roadmap, error)
}

type llmClient struct {
	client      *openai.Client
	models      []string
	temperature float32
	logger      zerolog.Logger
}

// NewLLMClient создает клиента OpenAI-совместимого API.
// Без ключа клиент не создается и каждый вызов возвращает ErrLLMNotConfigured.
func NewLLMClient(apiKey, baseURL string, modelNames []string, temperature float32, timeout time.Duration, logger zerolog.Logger) LLMClient {
	c := &llmClient{
		models:      modelNames,
		temperature: temperature,
		logger:      logger,
	}

	if apiKey == "" {
		logger.Warn().Msg("LLM API key is empty, AI features will fall back to defaults")
		return c
	}

	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	cfg.HTTPClient = &http.Client{Timeout: timeout}
	c.client = openai.NewClientWithConfig(cfg)

	return c
}

type summaryOutput struct {
	Summary string `json:"summary"`
}

func (c *llmClient) Summarize(ctx context.Context, companyName string, experiences []string) (string, error) {
	prompt, err := render(summaryTemplate, summaryPromptData{
		CompanyName: companyName,
		Experiences: experiences,
	})
	if err != nil {
		return "", err
	}

	content, err := c.complete(ctx, prompt)
	if err != nil {
		return "", err
	}

	var out summaryOutput
	if err := json.Unmarshal([]byte(content), &out); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if strings.TrimSpace(out.Summary) == "" {
		return "", fmt.Errorf("%w: empty summary", ErrInvalidResponse)
	}

	return strings.TrimSpace(out.Summary), nil
}

func (c *llmClient) GenerateRoadmap(ctx context.Context, input RoadmapPromptInput) (*models.Roadmap, error) {
	prompt, err := render(roadmapTemplate, input)
	if err != nil {
		return nil, err
	}

	content, err := c.complete(ctx, prompt)
	if err != nil {
		return nil, err
	}

	var roadmap models.Roadmap
	if err := json.Unmarshal([]byte(content), &roadmap); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if err := validateRoadmap(&roadmap); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	return &roadmap, nil
}

// complete перебирает модели по порядку, пока одна из них не ответит.
func (c *llmClient) complete(ctx context.Context, prompt string) (string, error) {
	if c.client == nil {
		return "", ErrLLMNotConfigured
	}

	var lastErr error
	for _, model := range c.models {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model: model,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
				{Role: openai.ChatMessageRoleUser, Content: prompt},
			},
			Temperature: c.temperature,
			ResponseFormat: &openai.ChatCompletionResponseFormat{
				Type: openai.ChatCompletionResponseFormatTypeJSONObject,
			},
		})
		if err != nil {
			lastErr = err
			c.logger.Warn().Err(err).Str("model", model).Msg("LLM call failed, trying next model")
			continue
		}
		if len(resp.Choices) == 0 {
			lastErr = fmt.Errorf("model %s returned no choices", model)
			c.logger.Warn().Str("model", model).Msg("LLM returned no choices")
			continue
		}

		c.logger.Debug().
			Str("model", model).
			Int("prompt_tokens", resp.Usage.PromptTokens).
			Int("completion_tokens", resp.Usage.CompletionTokens).
			Msg("LLM call completed")

		return cleanJSONResponse(resp.Choices[0].Message.Content), nil
	}

	if lastErr == nil {
		lastErr = errors.New("no models configured")
	}
	return "", fmt.Errorf("all models failed: %w", lastErr)
}

// cleanJSONResponse убирает markdown-ограждения и текст вокруг JSON-объекта.
func cleanJSONResponse(content string) string {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start >= 0 && end > start {
		content = content[start : end+1]
	}

	return content
}

func validateRoadmap(r *models.Roadmap) error {
	switch {
	case strings.TrimSpace(r.Reasoning) == "":
		return errors.New("missing reasoning")
	case strings.TrimSpace(r.EstimatedTimeline) == "":
		return errors.New("missing estimatedTimeline")
	case strings.TrimSpace(r.SuccessProbability) == "":
		return errors.New("missing successProbability")
	case r.KeyMilestones == nil:
		return errors.New("missing keyMilestones")
	case r.RoadmapBreakdown == nil:
		return errors.New("missing roadmapBreakdown")
	}

	for i, m := range r.KeyMilestones {
		if m.Milestone == "" || m.TargetDate == "" {
			return fmt.Errorf("keyMilestones[%d] is incomplete", i)
		}
	}
	for i, p := range r.RoadmapBreakdown {
		if p.Period == "" || p.Title == "" || p.Tasks == nil {
			return fmt.Errorf("roadmapBreakdown[%d] is incomplete", i)
		}
	}

	return nil
}
