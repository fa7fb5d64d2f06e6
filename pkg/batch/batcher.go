// Package batch coalesces small writes into periodic batches. The portal
// uses it for audit trail appends, which are fire-and-forget and tolerate a
// short flush delay.
package batch

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Operation is a single deferrable write.
type Operation interface {
	Execute(ctx context.Context) error
}

// Processor applies a batch of operations in one round trip.
type Processor interface {
	ProcessBatch(ctx context.Context, operations []Operation) error
}

// Batcher accumulates operations and flushes them when the batch fills or
// the interval elapses, whichever comes first. Flush errors are logged and
// dropped; callers that need delivery guarantees should write directly.
type Batcher struct {
	batchSize     int
	batchInterval time.Duration
	processor     Processor
	logger        *zap.SugaredLogger

	mu        sync.Mutex
	pending   []Operation
	flushChan chan struct{}
	stopChan  chan struct{}
	stopOnce  sync.Once
}

func NewBatcher(batchSize int, batchInterval time.Duration, processor Processor, logger *zap.SugaredLogger) *Batcher {
	b := &Batcher{
		batchSize:     batchSize,
		batchInterval: batchInterval,
		processor:     processor,
		logger:        logger,
		pending:       make([]Operation, 0, batchSize),
		flushChan:     make(chan struct{}, 1),
		stopChan:      make(chan struct{}),
	}

	go b.run()

	return b
}

// Add queues an operation. The batch is flushed asynchronously once it
// reaches batchSize.
func (b *Batcher) Add(op Operation) {
	b.mu.Lock()
	b.pending = append(b.pending, op)
	shouldFlush := len(b.pending) >= b.batchSize
	b.mu.Unlock()

	if shouldFlush {
		select {
		case b.flushChan <- struct{}{}:
		default:
		}
	}
}

// Flush immediately processes all pending operations.
func (b *Batcher) Flush(ctx context.Context) error {
	b.mu.Lock()
	if len(b.pending) == 0 {
		b.mu.Unlock()
		return nil
	}

	ops := make([]Operation, len(b.pending))
	copy(ops, b.pending)
	b.pending = b.pending[:0]
	b.mu.Unlock()

	return b.processor.ProcessBatch(ctx, ops)
}

func (b *Batcher) run() {
	ticker := time.NewTicker(b.batchInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			b.flush()
		case <-b.flushChan:
			b.flush()
		case <-b.stopChan:
			// Final flush on stop.
			b.flush()
			return
		}
	}
}

func (b *Batcher) flush() {
	if err := b.Flush(context.Background()); err != nil && b.logger != nil {
		b.logger.Warnw("batch flush failed", "error", err)
	}
}

// Stop flushes remaining operations and stops the background loop.
func (b *Batcher) Stop() {
	b.stopOnce.Do(func() {
		close(b.stopChan)
	})
}

// PendingCount returns the number of queued operations.
func (b *Batcher) PendingCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}
