package sink_test

import (
	"context"
	"roast-battle/domain/event"
	"roast-battle/errors"
	"roast-battle/sink"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestStreamSink_Consume(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	s := sink.NewStreamSink(2)

	// Given two events pushed into a buffer of two
	req.NoError(s.Consume(ctx, event.NewHeartbeat("b1", time.Now())))
	req.NoError(s.Consume(ctx, event.NewHeartbeat("b1", time.Now())))

	// When a third one arrives before the client drained anything
	err := s.Consume(ctx, event.NewHeartbeat("b1", time.Now()))

	// Then the subscriber is reported as too slow
	req.ErrorIs(err, errors.ErrSubscriberFull)
	req.Len(s.Events(), 2)

	// And events are delivered in order
	first := <-s.Events()
	req.Equal(event.HeartbeatType, first.Type)
}

func TestStreamSink_Close(t *testing.T) {
	req := require.New(t)
	s := sink.NewStreamSink(4)

	// When the sink is closed twice
	req.NoError(s.Close())
	req.NoError(s.Close())

	// Then Done is closed and further events are refused
	select {
	case <-s.Done():
	default:
		req.Fail("Done should be closed")
	}
	err := s.Consume(context.Background(), event.NewHeartbeat("b1", time.Now()))
	req.ErrorIs(err, errors.ErrSubscriberClosed)
	req.Empty(s.Events())
}
