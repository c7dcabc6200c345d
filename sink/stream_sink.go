package sink

import (
	"context"
	"roast-battle/domain/event"
	"roast-battle/errors"
	"sync"
)

// StreamSink buffers the events of one stream subscriber.
// The transport handler drains Events and stops when Done is closed.
type StreamSink struct {
	events chan event.Event
	done   chan struct{}
	once   sync.Once
}

func NewStreamSink(bufferSize int) *StreamSink {
	return &StreamSink{
		events: make(chan event.Event, bufferSize),
		done:   make(chan struct{}),
	}
}

// Consume is called by the subscriber registry.
// It never blocks: a full buffer means the client is too slow and gets dropped.
func (s *StreamSink) Consume(ctx context.Context, e event.Event) error {
	select {
	case <-s.done:
		return errors.ErrSubscriberClosed
	default:
	}

	select {
	case s.events <- e:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return errors.ErrSubscriberFull
	}
}

func (s *StreamSink) Events() <-chan event.Event {
	return s.events
}

func (s *StreamSink) Done() <-chan struct{} {
	return s.done
}

// Close is idempotent. The events channel stays open so a late Consume never panics.
func (s *StreamSink) Close() error {
	s.once.Do(func() { close(s.done) })
	return nil
}
