package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

var ErrPoolSaturated = errors.New("worker pool queue is full")

type Task func()

type WorkerPool struct {
	tasks         chan Task
	wg            sync.WaitGroup
	activeWorkers atomic.Int32
	maxWorkers    int
	submitTimeout time.Duration
	logger        zerolog.Logger
	mu            sync.RWMutex
	started       bool
	stopped       bool
}

func NewWorkerPool(maxWorkers int, logger zerolog.Logger) *WorkerPool {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	return &WorkerPool{
		tasks:         make(chan Task, maxWorkers*10),
		maxWorkers:    maxWorkers,
		submitTimeout: time.Second,
		logger:        logger,
	}
}

func (wp *WorkerPool) Start(ctx context.Context) error {
	wp.mu.Lock()
	defer wp.mu.Unlock()
	if wp.started {
		return nil
	}
	wp.started = true

	for i := 0; i < wp.maxWorkers; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}

	wp.logger.Info().Int("max_workers", wp.maxWorkers).Msg("Worker pool started")
	return nil
}

// Stop дожидается выполнения уже принятых задач.
func (wp *WorkerPool) Stop() error {
	wp.mu.Lock()
	if wp.stopped {
		wp.mu.Unlock()
		return nil
	}
	wp.stopped = true
	close(wp.tasks)
	wp.mu.Unlock()

	wp.wg.Wait()

	wp.logger.Info().Msg("Worker pool stopped")
	return nil
}

// Submit ставит задачу в очередь, ожидая свободное место не дольше submitTimeout.
func (wp *WorkerPool) Submit(task Task) error {
	wp.mu.RLock()
	defer wp.mu.RUnlock()
	if wp.stopped {
		return errors.New("worker pool is stopped")
	}

	select {
	case wp.tasks <- task:
		return nil
	default:
	}

	wp.logger.Warn().Msg("Worker pool task queue is full")
	select {
	case wp.tasks <- task:
		return nil
	case <-time.After(wp.submitTimeout):
		return ErrPoolSaturated
	}
}

func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()

	wp.logger.Debug().Int("worker_id", id).Msg("Worker started")

	for task := range wp.tasks {
		wp.run(id, task)
	}

	wp.logger.Debug().Int("worker_id", id).Msg("Worker stopped")
}

func (wp *WorkerPool) run(id int, task Task) {
	wp.activeWorkers.Add(1)

	defer func() {
		if r := recover(); r != nil {
			wp.logger.Error().
				Int("worker_id", id).
				Interface("panic", r).
				Msg("Worker recovered from panic")
		}

		wp.activeWorkers.Add(-1)
	}()

	task()
}

func (wp *WorkerPool) GetActiveWorkers() int {
	return int(wp.activeWorkers.Load())
}

func (wp *WorkerPool) GetQueueLength() int {
	return len(wp.tasks)
}
