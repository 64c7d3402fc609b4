package storefront

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"gofalre.io/storefront/models"
)

type SessionEventProcessor interface {
	ProcessSessionEvent(ctx context.Context, event *models.SessionEvent) error
}

// WorkerPool dispatches session events off the NATS callback goroutine so a
// slow handler (a refresh does remote I/O) never blocks the subscription.
type WorkerPool struct {
	tasks     chan func()
	wg        sync.WaitGroup
	logger    *zap.Logger
	processor SessionEventProcessor
}

func NewWorkerPool(size int, processor SessionEventProcessor, logger *zap.Logger) *WorkerPool {
	wp := &WorkerPool{
		tasks:     make(chan func(), 100),
		logger:    logger,
		processor: processor,
	}

	wp.wg.Add(size)
	for i := 0; i < size; i++ {
		go wp.worker()
	}

	return wp
}

func (wp *WorkerPool) worker() {
	defer wp.wg.Done()
	for task := range wp.tasks {
		task()
	}
}

func (wp *WorkerPool) Submit(ctx context.Context, event *models.SessionEvent) {
	wp.tasks <- func() {
		if err := wp.processor.ProcessSessionEvent(ctx, event); err != nil {
			wp.logger.Error("Failed to process session event",
				zap.Error(err),
				zap.String("event_type", string(event.Type)),
				zap.String("event_id", event.ID))
		}
	}
}

// Shutdown stops accepting work and waits for in-flight handlers to finish.
func (wp *WorkerPool) Shutdown() {
	close(wp.tasks)
	wp.wg.Wait()
}
