package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/RubachokBoss/prepai/internal/models"
	"github.com/RubachokBoss/prepai/internal/service"
	"github.com/RubachokBoss/prepai/internal/worker/queue"
	"github.com/rs/zerolog"
)

// RefreshWorker пересчитывает агрегаты компаний по событиям company.refresh.
type RefreshWorker interface {
	Start(ctx context.Context) error
	Stop() error
	GetStats() WorkerStats
}

type WorkerStats struct {
	ActiveWorkers  int `json:"active_workers"`
	TotalProcessed int `json:"total_processed"`
	FailedJobs     int `json:"failed_jobs"`
	Dropped        int `json:"dropped"`
	QueueLength    int `json:"queue_length"`
}

type refreshWorker struct {
	workerPool    *WorkerPool
	queueConsumer queue.Consumer
	aggregator    service.CompanyAggregator
	logger        zerolog.Logger
	stats         WorkerStats
	statsMutex    sync.RWMutex
	startTime     time.Time
	done          chan struct{}
}

func NewRefreshWorker(
	workerPool *WorkerPool,
	queueConsumer queue.Consumer,
	aggregator service.CompanyAggregator,
	logger zerolog.Logger,
) RefreshWorker {
	return &refreshWorker{
		workerPool:    workerPool,
		queueConsumer: queueConsumer,
		aggregator:    aggregator,
		logger:        logger,
		done:          make(chan struct{}),
	}
}

func (w *refreshWorker) Start(ctx context.Context) error {
	w.startTime = time.Now()

	if err := w.workerPool.Start(ctx); err != nil {
		return fmt.Errorf("failed to start worker pool: %w", err)
	}

	msgs, err := w.queueConsumer.Consume(ctx)
	if err != nil {
		return fmt.Errorf("failed to start consuming messages: %w", err)
	}

	go w.processMessages(ctx, msgs)

	w.logger.Info().Msg("Refresh worker started")
	return nil
}

func (w *refreshWorker) Stop() error {
	if err := w.queueConsumer.Close(); err != nil {
		w.logger.Error().Err(err).Msg("Failed to close queue consumer")
	}

	select {
	case <-w.done:
	case <-time.After(5 * time.Second):
		w.logger.Warn().Msg("Message loop did not stop in time")
	}

	if err := w.workerPool.Stop(); err != nil {
		w.logger.Error().Err(err).Msg("Failed to stop worker pool")
	}

	stats := w.GetStats()
	w.logger.Info().
		Int("total_processed", stats.TotalProcessed).
		Int("failed_jobs", stats.FailedJobs).
		Dur("uptime", time.Since(w.startTime)).
		Msg("Refresh worker stopped")

	return nil
}

func (w *refreshWorker) processMessages(ctx context.Context, msgs <-chan queue.Message) {
	defer close(w.done)

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				w.logger.Warn().Msg("Message channel closed")
				return
			}

			err := w.workerPool.Submit(func() { w.handle(ctx, msg) })
			if err != nil {
				w.logger.Error().Err(err).Msg("Failed to submit refresh task")
				if nackErr := msg.Nack(false, true); nackErr != nil {
					w.logger.Error().Err(nackErr).Msg("Failed to nack message")
				}
			}
		}
	}
}

func (w *refreshWorker) handle(ctx context.Context, msg queue.Message) {
	err := w.processMessage(ctx, msg)
	if err == nil {
		if ackErr := msg.Ack(false); ackErr != nil {
			w.logger.Error().Err(ackErr).Msg("Failed to ack message")
		}
		w.incr(func(s *WorkerStats) { s.TotalProcessed++ })
		return
	}

	w.logger.Error().Err(err).Bool("redelivered", msg.Redelivered).Msg("Failed to process refresh message")
	w.incr(func(s *WorkerStats) { s.FailedJobs++ })

	// повторная доставка не удалась, дальше компанию подхватит плановый пересчет
	if isPermanentError(err) || msg.Redelivered {
		w.incr(func(s *WorkerStats) { s.Dropped++ })
		if ackErr := msg.Ack(false); ackErr != nil {
			w.logger.Error().Err(ackErr).Msg("Failed to ack message")
		}
		return
	}

	if nackErr := msg.Nack(false, true); nackErr != nil {
		w.logger.Error().Err(nackErr).Msg("Failed to nack message")
	}
}

func (w *refreshWorker) processMessage(ctx context.Context, msg queue.Message) error {
	var event models.CompanyRefreshEvent
	if err := json.Unmarshal(msg.Body, &event); err != nil {
		return permanent(fmt.Errorf("failed to unmarshal event: %w", err))
	}

	if strings.TrimSpace(event.Company) == "" {
		return permanent(errors.New("empty company"))
	}

	w.logger.Info().
		Str("company", event.Company).
		Str("reason", event.Reason).
		Msg("Processing company refresh")

	if _, err := w.aggregator.RefreshCompany(ctx, event.Company); err != nil {
		if errors.Is(err, service.ErrPermissionDenied) ||
			errors.Is(err, service.ErrInvalidData) ||
			errors.Is(err, service.ErrCompanyNotFound) {
			return permanent(err)
		}
		return err
	}

	return nil
}

func (w *refreshWorker) incr(fn func(*WorkerStats)) {
	w.statsMutex.Lock()
	fn(&w.stats)
	w.statsMutex.Unlock()
}

func (w *refreshWorker) GetStats() WorkerStats {
	w.statsMutex.RLock()
	stats := w.stats
	w.statsMutex.RUnlock()

	if queueLength, err := w.queueConsumer.QueueLength(); err != nil {
		w.logger.Debug().Err(err).Msg("Failed to get queue length")
	} else {
		stats.QueueLength = queueLength
	}
	stats.ActiveWorkers = w.workerPool.GetActiveWorkers()

	return stats
}

type permanentError struct {
	err error
}

func (e permanentError) Error() string { return e.err.Error() }
func (e permanentError) Unwrap() error { return e.err }

func permanent(err error) error {
	return permanentError{err: err}
}

func isPermanentError(err error) bool {
	var p permanentError
	return errors.As(err, &p)
}
