package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Sink receives emitted events. Implementations must tolerate concurrent
// calls.
type Sink interface {
	Append(ctx context.Context, event Event) error
}

// Publisher fans audit events out to its sinks. Emission never blocks the
// calling request beyond a buffered channel send: a full buffer drops the
// event with a log line rather than stalling a citizen-facing operation.
type Publisher struct {
	sinks  []Sink
	logger *slog.Logger

	inbox chan Event
	done  chan struct{}
	once  sync.Once
}

// NewPublisher starts a publisher draining into the given sinks.
func NewPublisher(logger *slog.Logger, buffer int, sinks ...Sink) *Publisher {
	if buffer <= 0 {
		buffer = 256
	}
	p := &Publisher{
		sinks:  sinks,
		logger: logger,
		inbox:  make(chan Event, buffer),
		done:   make(chan struct{}),
	}
	go p.drain()
	return p
}

// Emit queues an event for delivery. A zero timestamp is stamped here so
// callers do not have to.
func (p *Publisher) Emit(ctx context.Context, event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	select {
	case p.inbox <- event:
	default:
		p.logger.Warn("audit buffer full, dropping event", "action", event.Action)
	}
}

// Close drains queued events and stops the publisher.
func (p *Publisher) Close() {
	p.once.Do(func() {
		close(p.inbox)
		<-p.done
	})
}

func (p *Publisher) drain() {
	defer close(p.done)
	ctx := context.Background()
	for event := range p.inbox {
		for _, sink := range p.sinks {
			if err := sink.Append(ctx, event); err != nil {
				p.logger.Error("audit sink append failed",
					"action", event.Action,
					"error", err,
				)
			}
		}
	}
}
