package window

import (
	"context"
	"fmt"
)

// EventKind tags the variant carried by an Event
type EventKind int

const (
	// KindOther is any notification the governor does not act on
	KindOther EventKind = iota
	// KindWindow is a window event; Focus is set
	KindWindow
)

func (k EventKind) String() string {
	switch k {
	case KindWindow:
		return "window"
	default:
		return "other"
	}
}

// ChangeKind is the sub-kind of a window event
type ChangeKind int

const (
	// ChangeOther covers focus loss, title changes, moves and the rest
	ChangeOther ChangeKind = iota
	// ChangeFocus means a window gained input focus
	ChangeFocus
)

func (c ChangeKind) String() string {
	switch c {
	case ChangeFocus:
		return "focus"
	default:
		return "other"
	}
}

// WindowProperties holds the client metadata the window manager reports
type WindowProperties struct {
	Class    string
	Instance string
	Title    string
}

// FocusEvent represents a window focus transition
type FocusEvent struct {
	Change ChangeKind
	Window *WindowProperties // nil when the container has no client window
}

// Class returns the window class and whether one was reported at all.
func (e FocusEvent) Class() (string, bool) {
	if e.Window == nil || e.Window.Class == "" {
		return "", false
	}
	return e.Window.Class, true
}

// Event is one item of a transport's event stream
type Event struct {
	Kind  EventKind
	Focus *FocusEvent
}

// Source is the interface every window-manager transport must satisfy.
// Opening a source connects and subscribes; Next then yields events in
// delivery order.
type Source interface {
	// Next blocks until the next event arrives. It returns io.EOF when the
	// stream is exhausted and ctx.Err() when ctx is cancelled first.
	Next(ctx context.Context) (Event, error)

	// Name returns the transport name ("i3" or "x11")
	Name() string

	// Close releases the connection and unblocks a pending Next
	Close() error
}

// ConnectionError is returned when the window manager cannot be reached
type ConnectionError struct {
	Transport string
	Err       error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("%s: cannot connect to window manager: %v", e.Transport, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}
