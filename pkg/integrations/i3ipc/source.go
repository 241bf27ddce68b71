package i3ipc

import (
	"context"
	"io"
	"sync"

	"github.com/pkg/errors"
	"go.i3wm.org/i3/v4"
	"go.uber.org/zap"

	"github.com/actionsum/focusgov/pkg/integrations/common"
	"github.com/actionsum/focusgov/pkg/window"
)

const transportName = "i3"

// receiver is the part of *i3.EventReceiver the source uses
type receiver interface {
	Next() bool
	Event() i3.Event
	Close() error
}

// Source implements window.Source over the i3 IPC protocol, which sway
// speaks as well.
type Source struct {
	recv   receiver
	stream *common.Stream
	log    *zap.Logger

	// guards recv.Close, which both the reader and Close reach
	mu       sync.Mutex
	closed   bool
	closeErr error
}

// Open verifies the IPC socket answers, then subscribes to window events.
func Open(logger *zap.Logger) (*Source, error) {
	log := logger.Named(transportName)

	version, err := i3.GetVersion()
	if err != nil {
		return nil, &window.ConnectionError{Transport: transportName, Err: err}
	}
	log.Info("connected to window manager",
		zap.String("version", version.HumanReadable),
		zap.String("config", version.LoadedConfigFileName))

	s := newSource(i3.Subscribe(i3.WindowEventType), log)
	log.Info("subscribed to window events")
	return s, nil
}

func newSource(recv receiver, log *zap.Logger) *Source {
	s := &Source{recv: recv, log: log}
	s.stream = common.NewStream(s.pull)
	return s
}

func (s *Source) Name() string {
	return transportName
}

func (s *Source) Next(ctx context.Context) (window.Event, error) {
	return s.stream.Next(ctx)
}

func (s *Source) Close() error {
	s.stream.Stop()
	return s.closeReceiver()
}

// closeReceiver closes the IPC connection once; later calls return the
// first result.
func (s *Source) closeReceiver() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.closed {
		s.closed = true
		s.closeErr = s.recv.Close()
	}
	return s.closeErr
}

// pull runs on the stream goroutine only.
func (s *Source) pull() (window.Event, error) {
	if !s.recv.Next() {
		s.log.Debug("event receiver stopped")
		if err := s.closeReceiver(); err != nil {
			return window.Event{}, errors.Wrap(err, "i3 event stream failed")
		}
		return window.Event{}, io.EOF
	}
	return toEvent(s.recv.Event()), nil
}

func toEvent(ev i3.Event) window.Event {
	we, ok := ev.(*i3.WindowEvent)
	if !ok {
		return window.Event{Kind: window.KindOther}
	}

	fe := &window.FocusEvent{Change: window.ChangeOther}
	if we.Change == "focus" {
		fe.Change = window.ChangeFocus
	}

	// Containers without a client window (split containers, workspaces)
	// carry no window properties.
	if we.Container.Window != 0 {
		props := we.Container.WindowProperties
		fe.Window = &window.WindowProperties{
			Class:    props.Class,
			Instance: props.Instance,
			Title:    props.Title,
		}
	}

	return window.Event{Kind: window.KindWindow, Focus: fe}
}
