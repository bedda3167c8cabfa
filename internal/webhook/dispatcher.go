package webhook

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Event is one verified inbound webhook. Immutable once received.
type Event struct {
	ID         string
	Source     string
	Payload    []byte
	ReceivedAt time.Time
}

// Consumer receives verified events for a source it subscribed to.
type Consumer func(Event)

// Dispatcher fans verified events out to in-process consumers. Events
// are published onto a buffered channel and delivered by a dedicated
// goroutine, so HTTP handlers never block on slow consumers.
type Dispatcher struct {
	mutex     sync.RWMutex
	eventCh   chan Event
	consumers map[string][]Consumer
	logger    *slog.Logger
}

func NewDispatcher(bufferSize int, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		eventCh:   make(chan Event, bufferSize),
		consumers: make(map[string][]Consumer),
		logger:    logger,
	}
}

// Subscribe registers a consumer for every event from one source.
func (d *Dispatcher) Subscribe(source string, consumer Consumer) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.consumers[source] = append(d.consumers[source], consumer)
}

// Publish enqueues an event without blocking. It reports false when the
// buffer is full and the event was not accepted.
func (d *Dispatcher) Publish(event Event) bool {
	select {
	case d.eventCh <- event:
		return true
	default:
		return false
	}
}

func (d *Dispatcher) Start(ctx context.Context) {
	go d.run(ctx)
}

func (d *Dispatcher) run(ctx context.Context) {
	d.logger.Info("Webhook dispatcher started")
	defer d.logger.Info("Webhook dispatcher stopped")

	for {
		select {
		case event := <-d.eventCh:
			d.deliver(event)
		case <-ctx.Done():
			// Drain remaining events before shutdown
			d.drain()
			return
		}
	}
}

func (d *Dispatcher) deliver(event Event) {
	d.mutex.RLock()
	consumers := d.consumers[event.Source]
	d.mutex.RUnlock()

	if len(consumers) == 0 {
		d.logger.Debug("No consumers for webhook event",
			slog.String("source", event.Source),
			slog.String("event_id", event.ID))
		return
	}

	for _, consumer := range consumers {
		consumer(event)
	}
}

func (d *Dispatcher) drain() {
	for {
		select {
		case event := <-d.eventCh:
			d.deliver(event)
		default:
			return
		}
	}
}
