package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/RubachokBoss/prepai/internal/config"
	"github.com/RubachokBoss/prepai/internal/database"
	"github.com/RubachokBoss/prepai/internal/delivery/httpd"
	"github.com/RubachokBoss/prepai/internal/repository"
	"github.com/RubachokBoss/prepai/internal/scheduler"
	"github.com/RubachokBoss/prepai/internal/service"
	"github.com/RubachokBoss/prepai/internal/service/integration"
	"github.com/RubachokBoss/prepai/internal/worker"
	"github.com/RubachokBoss/prepai/internal/worker/queue"
	"github.com/RubachokBoss/prepai/pkg/rabbitmq"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

type App struct {
	server         *http.Server
	logger         zerolog.Logger
	config         *config.Config
	db             *sql.DB
	redisClient    *redis.Client
	rabbitmqClient integration.RabbitMQClient
	consumerConn   *amqp.Connection
	aggregator     service.CompanyAggregator
	refreshWorker  worker.RefreshWorker
	scheduler      *scheduler.Scheduler
}

func New(cfg *config.Config, log zerolog.Logger, db *sql.DB) (*App, error) {
	a := &App{
		logger: log,
		config: cfg,
		db:     db,
	}

	// Внешние клиенты
	llmClient := integration.NewLLMClient(
		cfg.LLM.APIKey,
		cfg.LLM.BaseURL,
		cfg.LLM.Models,
		cfg.LLM.Temperature,
		cfg.LLM.Timeout,
		log.With().Str("component", "llm").Logger(),
	)

	if cfg.RabbitMQ.Enabled {
		client, err := integration.NewRabbitMQClient(
			cfg.RabbitMQ.URL,
			cfg.RabbitMQ.Exchange,
			cfg.RabbitMQ.RoutingKey,
			cfg.RabbitMQ.QueueName,
			log,
		)
		if err != nil {
			// без очереди пересчет после сбоя выполнит только планировщик
			log.Error().Err(err).Msg("Failed to create RabbitMQ client")
		} else {
			a.rabbitmqClient = client
		}
	}

	var logoStorage repository.LogoStorage
	if cfg.Storage.Enabled {
		storage, err := repository.NewMinIOLogoStorage(
			cfg.Storage.Endpoint,
			cfg.Storage.AccessKey,
			cfg.Storage.SecretKey,
			cfg.Storage.Bucket,
			cfg.Storage.Region,
			cfg.Storage.PublicURL,
			cfg.Storage.UseSSL,
			cfg.Storage.ConnectTimeout,
			log,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create logo storage: %w", err)
		}
		logoStorage = storage
	}

	// Репозитории
	experienceRepo := repository.NewExperienceRepository(db, log)
	companyRepo := repository.NewCompanyRepository(db, cfg.Database.MaxTxRetries, log)

	if cfg.Redis.Enabled {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		client, err := database.NewRedisClient(ctx, cfg.Redis.URL)
		cancel()
		if err != nil {
			log.Warn().Err(err).Msg("Redis unavailable, company cache disabled")
		} else {
			a.redisClient = client
			cache := repository.NewRedisCompanyCache(client, cfg.Redis.Prefix, cfg.Redis.TTL)
			companyRepo = repository.NewCachedCompanyRepository(companyRepo, cache, log)
		}
	}

	// Сервисы
	a.aggregator = service.NewCompanyAggregator(experienceRepo, companyRepo, llmClient, log)
	experienceService := service.NewExperienceService(experienceRepo, a.aggregator, a.rabbitmqClient, log)
	companyService := service.NewCompanyService(
		companyRepo,
		experienceRepo,
		logoStorage,
		a.aggregator,
		a.rabbitmqClient,
		cfg.Storage.MaxLogoSize,
		log,
	)
	roadmapService := service.NewRoadmapService(experienceRepo, llmClient, log)

	handler := httpd.NewHandler(
		experienceService,
		companyService,
		roadmapService,
		cfg.Storage.MaxLogoSize,
		log,
	)

	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(httpd.RequestLogger(log))
	router.Use(httpd.Recovery(log))
	router.Use(middleware.Timeout(cfg.Server.RequestTimeout))

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   cfg.CORS.AllowedMethods,
		AllowedHeaders:   cfg.CORS.AllowedHeaders,
		ExposedHeaders:   cfg.CORS.ExposedHeaders,
		AllowCredentials: cfg.CORS.AllowCredentials,
		MaxAge:           cfg.CORS.MaxAge,
	}))

	handler.RegisterRoutes(router)

	a.server = &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return a, nil
}

// StartBackground запускает обработчик очереди пересчета и плановую сверку.
func (a *App) StartBackground(ctx context.Context) error {
	if a.config.RabbitMQ.Enabled && a.rabbitmqClient != nil {
		if err := a.startRefreshWorker(ctx); err != nil {
			return err
		}
	}

	if a.config.Reconcile.Enabled {
		a.scheduler = scheduler.New(
			a.aggregator,
			a.config.Reconcile.Schedule,
			a.config.Reconcile.RunOnStart,
			a.logger.With().Str("component", "scheduler").Logger(),
		)
		if err := a.scheduler.Start(ctx); err != nil {
			return err
		}
	}

	return nil
}

func (a *App) startRefreshWorker(ctx context.Context) error {
	cfg := a.config.RabbitMQ

	conn, err := rabbitmq.NewConnection(cfg.URL)
	if err != nil {
		return err
	}

	channel, err := rabbitmq.NewChannel(conn)
	if err != nil {
		conn.Close()
		return err
	}

	queueName, err := rabbitmq.DeclareTopology(channel, cfg.Exchange, cfg.QueueName, cfg.RoutingKey)
	if err != nil {
		channel.Close()
		conn.Close()
		return err
	}

	workerLog := a.logger.With().Str("component", "refresh_worker").Logger()
	consumer := queue.NewRabbitMQConsumer(
		channel,
		queueName,
		fmt.Sprintf("%s-%s", cfg.ConsumerTag, uuid.New().String()[:8]),
		a.config.Reconcile.MaxWorkers,
		workerLog,
	)
	pool := worker.NewWorkerPool(a.config.Reconcile.MaxWorkers, workerLog)

	a.refreshWorker = worker.NewRefreshWorker(pool, consumer, a.aggregator, workerLog)
	if err := a.refreshWorker.Start(ctx); err != nil {
		conn.Close()
		return err
	}

	a.consumerConn = conn
	return nil
}

func (a *App) Run() error {
	a.logger.Info().Msgf("Starting PrepAI service on %s", a.config.Server.Address)
	if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info().Msg("Shutting down PrepAI service...")

	// Сначала перестаем принимать запросы
	serverErr := a.server.Shutdown(ctx)

	if a.scheduler != nil {
		a.scheduler.Stop()
	}

	if a.refreshWorker != nil {
		if err := a.refreshWorker.Stop(); err != nil {
			a.logger.Error().Err(err).Msg("Failed to stop refresh worker")
		}
	}

	if a.consumerConn != nil {
		if err := a.consumerConn.Close(); err != nil {
			a.logger.Error().Err(err).Msg("Failed to close RabbitMQ consumer connection")
		}
	}

	if a.rabbitmqClient != nil {
		if err := a.rabbitmqClient.Close(); err != nil {
			a.logger.Error().Err(err).Msg("Failed to close RabbitMQ connection")
		}
	}

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Error().Err(err).Msg("Failed to close Redis connection")
		}
	}

	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Error().Err(err).Msg("Failed to close database connection")
		}
	}

	return serverErr
}
