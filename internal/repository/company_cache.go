package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/RubachokBoss/prepai/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

type CompanyCache interface {
	Get(ctx context.Context, name string) (*models.Company, error)
	Set(ctx context.Context, company *models.Company) error
	Delete(ctx context.Context, name string) error
}

type redisCompanyCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisCompanyCache(client *redis.Client, prefix string, ttl time.Duration) CompanyCache {
	return &redisCompanyCache{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

func (c *redisCompanyCache) key(name string) string {
	return c.prefix + name
}

// Get возвращает nil, nil при промахе.
func (c *redisCompanyCache) Get(ctx context.Context, name string) (*models.Company, error) {
	data, err := c.client.Get(ctx, c.key(name)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cached company: %w", err)
	}

	var company models.Company
	if err := json.Unmarshal(data, &company); err != nil {
		return nil, fmt.Errorf("failed to decode cached company: %w", err)
	}

	return &company, nil
}

func (c *redisCompanyCache) Set(ctx context.Context, company *models.Company) error {
	data, err := json.Marshal(company)
	if err != nil {
		return fmt.Errorf("failed to encode company: %w", err)
	}

	return c.client.Set(ctx, c.key(company.Name), data, c.ttl).Err()
}

func (c *redisCompanyCache) Delete(ctx context.Context, name string) error {
	return c.client.Del(ctx, c.key(name)).Err()
}

// cachedCompanyRepository читает агрегаты через кэш и сбрасывает ключ после каждого коммита.
// Ошибки кэша не прерывают запрос, данные берутся из БД.
type cachedCompanyRepository struct {
	CompanyRepository
	cache  CompanyCache
	logger zerolog.Logger
}

func NewCachedCompanyRepository(repo CompanyRepository, cache CompanyCache, logger zerolog.Logger) CompanyRepository {
	return &cachedCompanyRepository{
		CompanyRepository: repo,
		cache:             cache,
		logger:            logger,
	}
}

func (r *cachedCompanyRepository) GetByName(ctx context.Context, name string) (*models.Company, error) {
	cached, err := r.cache.Get(ctx, name)
	if err != nil {
		r.logger.Warn().Err(err).Str("company", name).Msg("Company cache read failed")
	}
	if cached != nil {
		return cached, nil
	}

	company, err := r.CompanyRepository.GetByName(ctx, name)
	if err != nil || company == nil {
		return company, err
	}

	if err := r.cache.Set(ctx, company); err != nil {
		r.logger.Warn().Err(err).Str("company", name).Msg("Company cache write failed")
	}

	return company, nil
}

func (r *cachedCompanyRepository) TransactionalUpsert(ctx context.Context, name string, mutate CompanyMutation) (*models.Company, error) {
	company, err := r.CompanyRepository.TransactionalUpsert(ctx, name, mutate)
	if err != nil {
		return nil, err
	}

	// ключ только удаляется: параллельное чтение может положить в кэш строку, прочитанную до коммита
	if err := r.cache.Delete(ctx, name); err != nil {
		r.logger.Error().Err(err).Str("company", name).Msg("Company cache eviction failed")
	}

	return company, nil
}
