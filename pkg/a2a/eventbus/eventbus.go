// Package eventbus carries the events an agent executor produces for one
// request back to the request handler.
package eventbus

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/agent-protocol/prime-agent/pkg/a2a"
)

// Event is one of *a2a.Message, *a2a.Task, *a2a.TaskStatusUpdateEvent or
// *a2a.TaskArtifactUpdateEvent.
type Event = any

var (
	// ErrFinished is returned when publishing after Finished.
	ErrFinished = errors.New("event bus is finished")
	// ErrStopped is returned when the consumer has stopped reading.
	ErrStopped = errors.New("event bus consumer stopped")
)

// ExecutionEventBus is the publishing side handed to an agent executor.
type ExecutionEventBus interface {
	// Publish delivers an event to the consumer.
	Publish(ctx context.Context, event Event) error
	// Finished signals that the executor will publish nothing more.
	// It is safe to call more than once.
	Finished()
}

// InMemory is a channel-backed ExecutionEventBus with a single consumer.
type InMemory struct {
	events   chan Event
	stop     chan struct{}
	stopOnce sync.Once
	mu       sync.RWMutex
	finished bool
}

// NewInMemory creates a bus buffering up to bufferSize events.
func NewInMemory(bufferSize int) *InMemory {
	if bufferSize < 0 {
		bufferSize = 0
	}
	return &InMemory{
		events: make(chan Event, bufferSize),
		stop:   make(chan struct{}),
	}
}

// Publish implements ExecutionEventBus.
func (b *InMemory) Publish(ctx context.Context, event Event) error {
	if err := validate(event); err != nil {
		return err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.finished {
		return ErrFinished
	}

	select {
	case b.events <- event:
		return nil
	case <-b.stop:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Finished implements ExecutionEventBus. It closes the channel returned by Events.
func (b *InMemory) Finished() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.finished {
		b.finished = true
		close(b.events)
	}
}

// Events returns the consumer side. The channel is closed by Finished.
func (b *InMemory) Events() <-chan Event {
	return b.events
}

// Stop tells pending and future publishers that nobody is reading anymore.
func (b *InMemory) Stop() {
	b.stopOnce.Do(func() { close(b.stop) })
}

func validate(event Event) error {
	switch e := event.(type) {
	case *a2a.Message:
		if e == nil {
			return errors.New("nil message event")
		}
	case *a2a.Task:
		if e == nil {
			return errors.New("nil task event")
		}
	case *a2a.TaskStatusUpdateEvent:
		if e == nil {
			return errors.New("nil status update event")
		}
	case *a2a.TaskArtifactUpdateEvent:
		if e == nil {
			return errors.New("nil artifact update event")
		}
	default:
		return fmt.Errorf("unsupported event type %T", event)
	}
	return nil
}
