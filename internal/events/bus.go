package events

import (
	"fmt"
	"sync"
	"time"

	"quantum-sensing/internal/logger"
)

const DefaultBufferSize = 256

// Bus delivers events to subscribers from a single worker goroutine, so
// every handler observes events in the order they were published.
type Bus struct {
	subscribers map[Type][]Handler
	mu          sync.RWMutex
	buffer      chan Event
	closeOnce   sync.Once
	closeMu     sync.RWMutex
	closed      bool
	wg          sync.WaitGroup
	logger      logger.Logger
}

func NewBus(bufferSize int, log logger.Logger) *Bus {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	if log == nil {
		log = logger.NoOp{}
	}

	bus := &Bus{
		subscribers: make(map[Type][]Handler),
		buffer:      make(chan Event, bufferSize),
		logger:      log,
	}

	bus.startWorker()
	return bus
}

// Publish queues the event, blocking while the buffer is full.
// Events published after Shutdown are discarded.
func (b *Bus) Publish(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	b.closeMu.RLock()
	defer b.closeMu.RUnlock()
	if b.closed {
		return
	}
	b.buffer <- event
}

func (b *Bus) Subscribe(eventType Type, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

func (b *Bus) Unsubscribe(eventType Type, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	handlers := b.subscribers[eventType]
	for i, h := range handlers {
		if h.ID() == handler.ID() {
			b.subscribers[eventType] = append(handlers[:i:i], handlers[i+1:]...)
			break
		}
	}
}

// Shutdown stops accepting events and waits until queued ones are delivered.
func (b *Bus) Shutdown() {
	b.closeOnce.Do(func() {
		b.closeMu.Lock()
		b.closed = true
		close(b.buffer)
		b.closeMu.Unlock()
	})
	b.wg.Wait()
}

func (b *Bus) startWorker() {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		for event := range b.buffer {
			b.dispatchEvent(event)
		}
	}()
}

func (b *Bus) dispatchEvent(event Event) {
	b.mu.RLock()
	specific := b.subscribers[event.Type]
	wildcard := b.subscribers[All]
	handlers := make([]Handler, 0, len(specific)+len(wildcard))
	handlers = append(handlers, specific...)
	handlers = append(handlers, wildcard...)
	b.mu.RUnlock()

	for _, h := range handlers {
		b.deliver(h, event)
	}
}

func (b *Bus) deliver(h Handler, event Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("EventBus", fmt.Errorf("handler panic: %v", r), map[string]interface{}{
				"handler": h.ID(),
				"event":   string(event.Type),
			})
		}
	}()
	h.Handle(event)
}
