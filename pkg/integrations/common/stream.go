package common

import (
	"context"
	"io"
	"sync"

	"github.com/actionsum/focusgov/pkg/window"
)

// PullFunc blocks until the transport yields its next event. Returning a
// non-nil error ends the stream; io.EOF marks clean exhaustion.
type PullFunc func() (window.Event, error)

type result struct {
	event window.Event
	err   error
}

// Stream runs a blocking PullFunc on a single reader goroutine and hands each
// event over an unbuffered channel, so callers can wait on a context while
// the transport keeps strict delivery order.
type Stream struct {
	items chan result
	stop  chan struct{}
	once  sync.Once
}

// NewStream starts the reader goroutine.
func NewStream(pull PullFunc) *Stream {
	s := &Stream{
		items: make(chan result),
		stop:  make(chan struct{}),
	}
	go s.run(pull)
	return s
}

func (s *Stream) run(pull PullFunc) {
	defer close(s.items)

	for {
		ev, err := pull()
		select {
		case s.items <- result{event: ev, err: err}:
		case <-s.stop:
			return
		}
		if err != nil {
			return
		}
	}
}

// Next returns the next event, the error that ended the stream, io.EOF once
// the stream is drained, or ctx.Err().
func (s *Stream) Next(ctx context.Context) (window.Event, error) {
	select {
	case <-ctx.Done():
		return window.Event{}, ctx.Err()
	case r, ok := <-s.items:
		if !ok {
			return window.Event{}, io.EOF
		}
		return r.event, r.err
	}
}

// Stop detaches the reader. A reader blocked inside PullFunc only exits once
// the owning transport closes its connection.
func (s *Stream) Stop() {
	s.once.Do(func() { close(s.stop) })
}
