package ledger

import (
	"context"
	"errors"
	"sync"
	"time"

	"organizer/internal/log"
)

var (
	// ErrPublisherClosed is returned for events handed over after Close.
	ErrPublisherClosed = errors.New("event publisher closed")
	// ErrPublishQueueFull is returned when the backlog is at capacity; the event is dropped.
	ErrPublishQueueFull = errors.New("event publish queue full")
)

const (
	defaultQueueSize      = 256
	defaultPublishTimeout = 10 * time.Second
)

type queuedEvent struct {
	ctx context.Context
	ev  Event
}

// AsyncPublisher queues events and hands them to the wrapped publisher from a
// single background goroutine, so a slow or unreachable broker never adds to
// the latency of a write. The queue is bounded: when it is full new events are
// dropped and reported to the caller.
type AsyncPublisher struct {
	next    EventPublisher
	timeout time.Duration
	logger  *log.Logger

	mu     sync.RWMutex
	closed bool
	queue  chan queuedEvent
	done   chan struct{}
}

var _ EventPublisher = (*AsyncPublisher)(nil)

// NewAsyncPublisher starts the delivery goroutine. A non-positive size uses
// the default backlog.
func NewAsyncPublisher(next EventPublisher, size int, logger *log.Logger) *AsyncPublisher {
	if size <= 0 {
		size = defaultQueueSize
	}
	if logger == nil {
		logger = log.Discard()
	}
	p := &AsyncPublisher{
		next:    next,
		timeout: defaultPublishTimeout,
		logger:  logger.WithComponent(log.ComponentLedger),
		queue:   make(chan queuedEvent, size),
		done:    make(chan struct{}),
	}
	go p.run()
	return p
}

// PublishLedgerEvent enqueues ev without blocking. The caller's cancellation
// does not reach the delivery; its values (request logger) do.
func (p *AsyncPublisher) PublishLedgerEvent(ctx context.Context, ev Event) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPublisherClosed
	}
	select {
	case p.queue <- queuedEvent{ctx: context.WithoutCancel(ctx), ev: ev}:
		return nil
	default:
		return ErrPublishQueueFull
	}
}

func (p *AsyncPublisher) run() {
	defer close(p.done)
	for item := range p.queue {
		ctx, cancel := context.WithTimeout(item.ctx, p.timeout)
		if err := p.next.PublishLedgerEvent(ctx, item.ev); err != nil {
			p.logger.ErrorContext(ctx, "Failed to publish ledger event",
				log.FieldEventType, string(item.ev.Type),
				log.FieldTransactionID, item.ev.TransactionID,
				log.FieldError, err)
		}
		cancel()
	}
}

// Close stops accepting events and waits until the backlog is delivered or
// ctx is done.
func (p *AsyncPublisher) Close(ctx context.Context) error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.queue)
	}
	p.mu.Unlock()

	select {
	case <-p.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
