package inmemory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/zeninapp/zenin-ingest/internal/feed"
)

// maxAttempts bounds redelivery of a failed delivery. The pipeline swallows
// its own errors, so a handler error means the invocation was killed; one
// redelivery mirrors the host's behavior after such a kill.
const maxAttempts = 2

// Queue is a channel-backed implementation of feed.Publisher and
// feed.Consumer, safe for concurrent use. It is suitable for a single
// service instance; the dedup guarantee lives in the store, not here.
type Queue struct {
	deliveries chan *feed.Delivery
	closeChan  chan struct{}
	wg         sync.WaitGroup
	mu         sync.RWMutex
	workers    int
	closed     bool
}

// NewQueue creates a queue. bufferSize determines how many deliveries can be
// pending before Publish blocks; workers is the number of concurrent
// consumers (the host normally serializes invocations, so 1 is typical, but
// overlap after restarts must stay correct).
func NewQueue(bufferSize, workers int) *Queue {
	if workers < 1 {
		workers = 1
	}
	return &Queue{
		deliveries: make(chan *feed.Delivery, bufferSize),
		closeChan:  make(chan struct{}),
		workers:    workers,
	}
}

// Publish implements the feed.Publisher interface.
func (q *Queue) Publish(ctx context.Context, d *feed.Delivery) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return fmt.Errorf("Publish: queue is closed")
	}

	if d.DeliveryID == "" {
		d.DeliveryID = uuid.NewString()
	}
	if d.Attempt == 0 {
		d.Attempt = 1
	}
	if d.EnqueuedAt.IsZero() {
		d.EnqueuedAt = time.Now()
	}

	select {
	case q.deliveries <- d:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-q.closeChan:
		return fmt.Errorf("Publish: queue is closed")
	}
}

// Start implements the feed.Consumer interface.
func (q *Queue) Start(ctx context.Context, handler feed.Handler) error {
	q.mu.RLock()
	if q.closed {
		q.mu.RUnlock()
		return fmt.Errorf("Start: queue is closed")
	}
	q.mu.RUnlock()

	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker(ctx, handler)
	}
	return nil
}

func (q *Queue) worker(ctx context.Context, handler feed.Handler) {
	defer q.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-q.closeChan:
			return
		case d := <-q.deliveries:
			if d == nil {
				return
			}
			if err := handler(ctx, d); err != nil && d.Attempt < maxAttempts {
				redelivery := *d
				redelivery.DeliveryID = uuid.NewString()
				redelivery.Attempt++
				// Best effort; a closed queue drops the redelivery.
				_ = q.Publish(ctx, &redelivery)
			}
		}
	}
}

// Stop implements the feed.Consumer interface. It waits for in-flight
// deliveries up to the context deadline.
func (q *Queue) Stop(ctx context.Context) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	close(q.closeChan)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close implements the feed.Publisher interface.
func (q *Queue) Close() error {
	return q.Stop(context.Background())
}

var _ feed.Publisher = (*Queue)(nil)
var _ feed.Consumer = (*Queue)(nil)
