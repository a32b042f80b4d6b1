package events

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

var ErrBusFull = errors.New("event bus full")

const handleTimeout = 10 * time.Second

// LocalBus is an in-process Publisher used when no queue broker is configured.
// Events are queued on a buffered channel and handled by a single consumer goroutine.
type LocalBus struct {
	handler Handler
	ch      chan Event

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

func NewLocalBus(handler Handler, buffer int) *LocalBus {
	if buffer < 1 {
		buffer = 1
	}
	b := &LocalBus{
		handler: handler,
		ch:      make(chan Event, buffer),
		done:    make(chan struct{}),
	}
	go b.consume()
	return b
}

// Publish enqueues e; it fails with ErrBusFull rather than block the caller
func (b *LocalBus) Publish(_ context.Context, e Event) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrBusClosed
	}
	select {
	case b.ch <- e:
		return nil
	default:
		return ErrBusFull
	}
}

// Close stops accepting events and waits for queued ones to be handled. It is safe to call twice.
func (b *LocalBus) Close() {
	b.mu.Lock()
	if !b.closed {
		b.closed = true
		close(b.ch)
	}
	b.mu.Unlock()
	<-b.done
}

func (b *LocalBus) consume() {
	defer close(b.done)
	for e := range b.ch {
		ctx, cancel := context.WithTimeout(context.Background(), handleTimeout)
		if err := b.handler(ctx, e); err != nil {
			slog.Warn("Domain event handler failed", "type", e.Type, "recipient_id", e.RecipientID, "error", err)
		}
		cancel()
	}
}
