package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/diagnosis/party-hub/pkg/logger"
)

// LocalEventBus delivers events inside the process. It is used when no NATS
// server is configured. Each delivery runs on its own goroutine; Close waits
// for the ones in flight.
type LocalEventBus struct {
	mu       sync.RWMutex
	handlers map[string][]func(msg *Message)
	queues   map[string]bool
	wg       sync.WaitGroup
	closed   bool
}

func NewLocalEventBus() *LocalEventBus {
	return &LocalEventBus{
		handlers: make(map[string][]func(msg *Message)),
		queues:   make(map[string]bool),
	}
}

func (b *LocalEventBus) Publish(ctx context.Context, subject string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return fmt.Errorf("event bus closed")
	}

	logger.DebugContext(ctx, "Publishing event", "subject", subject, "data", string(payload))

	for _, h := range b.handlers[subject] {
		msg := wrap(subject, payload)
		b.wg.Add(1)
		go func(h func(*Message)) {
			defer b.wg.Done()
			defer func() {
				if r := recover(); r != nil {
					logger.Error("Event handler panic", "subject", subject, "panic", r)
				}
			}()
			h(msg)
		}(h)
	}
	return nil
}

func (b *LocalEventBus) Subscribe(subject string, handler func(msg *Message)) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[subject] = append(b.handlers[subject], handler)
	return nil
}

// QueueSubscribe registers at most one handler per subject and queue, which
// matches NATS delivering each message to one queue member.
func (b *LocalEventBus) QueueSubscribe(subject, queue string, handler func(msg *Message)) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	key := subject + "|" + queue
	if b.queues[key] {
		return nil
	}
	b.queues[key] = true
	b.handlers[subject] = append(b.handlers[subject], handler)
	return nil
}

func (b *LocalEventBus) Close() error {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
	b.wg.Wait()
	return nil
}

// Wait blocks until every delivery published so far has finished.
func (b *LocalEventBus) Wait() {
	b.wg.Wait()
}

// New connects to NATS when url is set and falls back to the local bus.
func New(url string) (EventBus, error) {
	if url == "" {
		logger.Info("NATS_URL not set, using in-process event bus")
		return NewLocalEventBus(), nil
	}
	bus, err := NewNATSEventBus(url)
	if err != nil {
		return nil, err
	}
	logger.Info("Connected to NATS", "url", url)
	return bus, nil
}
