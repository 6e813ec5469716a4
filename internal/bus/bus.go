package bus

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Pipeline topics.
const (
	TopicMessageEnriched   = "message.enriched"
	TopicMessageClassified = "message.classified"
	TopicInquiryReceived   = "inquiry.received"
	TopicInquiryExtracted  = "inquiry.extracted"
)

const defaultHistorySize = 1000

// Event is one envelope delivered through the bus.
type Event struct {
	ID        string
	Topic     string
	Payload   any
	Timestamp time.Time
}

// Handler is a callback invoked for each event on a subscribed topic.
type Handler func(ctx context.Context, event Event)

// Emitter is the narrow publishing capability handed to pipeline steps.
type Emitter interface {
	Emit(ctx context.Context, topic string, payload any)
}

type subscription struct {
	id      string
	handler Handler
}

// Bus is an in-process topic publish/subscribe event bus. Dispatch is
// synchronous and in subscription order; delivery and ordering guarantees
// across processes are out of scope.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[string][]subscription
	history     []Event
	historySize int
	closed      bool
	logger      *zap.Logger
}

// New creates a Bus with a bounded replay history.
func New(historySize int, logger *zap.Logger) *Bus {
	if historySize <= 0 {
		historySize = defaultHistorySize
	}
	return &Bus{
		subscribers: make(map[string][]subscription),
		historySize: historySize,
		logger:      logger,
	}
}

// Subscribe registers a handler for the given topic. Use "*" to receive every
// event. The returned id can be passed to Unsubscribe.
func (b *Bus) Subscribe(topic string, handler Handler) string {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := fmt.Sprintf("%s-%d", topic, len(b.subscribers[topic]))
	b.subscribers[topic] = append(b.subscribers[topic], subscription{id: id, handler: handler})
	return id
}

// Unsubscribe removes a handler by the id returned from Subscribe.
func (b *Bus) Unsubscribe(topic, id string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.subscribers[topic]
	for i, s := range subs {
		if s.id == id {
			b.subscribers[topic] = append(subs[:i], subs[i+1:]...)
			return
		}
	}
}

// Emit publishes a payload to every subscriber of the topic, synchronously and
// in subscription order. A panicking handler is recovered and logged so one
// subscriber cannot take down the dispatch loop.
func (b *Bus) Emit(ctx context.Context, topic string, payload any) {
	event := Event{
		ID:        uuid.New().String(),
		Topic:     topic,
		Payload:   payload,
		Timestamp: time.Now(),
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		b.logger.Warn("Emit on closed bus", zap.String("topic", topic))
		return
	}
	if len(b.history) >= b.historySize {
		b.history = b.history[1:]
	}
	b.history = append(b.history, event)
	b.mu.Unlock()

	b.mu.RLock()
	subs := make([]subscription, 0, len(b.subscribers[topic])+len(b.subscribers["*"]))
	subs = append(subs, b.subscribers[topic]...)
	subs = append(subs, b.subscribers["*"]...)
	b.mu.RUnlock()

	for _, s := range subs {
		b.dispatch(ctx, s, event)
	}
}

// EmitAsync publishes without blocking the caller.
func (b *Bus) EmitAsync(ctx context.Context, topic string, payload any) {
	go b.Emit(ctx, topic, payload)
}

func (b *Bus) dispatch(ctx context.Context, s subscription, event Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Subscriber panic",
				zap.String("topic", event.Topic),
				zap.String("subscriber", s.id),
				zap.Any("panic", r))
		}
	}()
	s.handler(ctx, event)
}

// Replay returns buffered events for a topic ("*" for all) at or after since.
func (b *Bus) Replay(topic string, since time.Time) []Event {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var events []Event
	for _, e := range b.history {
		if e.Timestamp.Before(since) {
			continue
		}
		if topic == "*" || e.Topic == topic {
			events = append(events, e)
		}
	}
	return events
}

// HistoryLen returns the number of events currently buffered for replay.
func (b *Bus) HistoryLen() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.history)
}

// Close stops the bus; later emits are dropped with a warning.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
}
