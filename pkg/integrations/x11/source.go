package x11

import (
	"context"
	"encoding/binary"
	"io"
	"strings"
	"sync"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/actionsum/focusgov/pkg/integrations/common"
	"github.com/actionsum/focusgov/pkg/window"
)

const transportName = "x11"

var atomNames = []string{
	"_NET_ACTIVE_WINDOW",
	"_NET_WM_NAME",
	"WM_CLASS",
	"UTF8_STRING",
}

// Source implements window.Source on top of EWMH: it watches the root
// window's _NET_ACTIVE_WINDOW property and turns each change into a window
// event.
type Source struct {
	conn   *xgb.Conn
	root   xproto.Window
	atoms  map[string]xproto.Atom
	stream *common.Stream
	log    *zap.Logger
	once   sync.Once
}

// Open connects to the X server named by $DISPLAY and subscribes to
// property changes on the root window.
func Open(logger *zap.Logger) (*Source, error) {
	conn, err := xgb.NewConn()
	if err != nil {
		return nil, &window.ConnectionError{Transport: transportName, Err: err}
	}

	s := &Source{
		conn:  conn,
		root:  xproto.Setup(conn).DefaultScreen(conn).Root,
		atoms: make(map[string]xproto.Atom),
		log:   logger.Named(transportName),
	}

	for _, name := range atomNames {
		reply, err := xproto.InternAtom(conn, false, uint16(len(name)), name).Reply()
		if err != nil {
			conn.Close()
			return nil, errors.Wrapf(err, "failed to intern atom %s", name)
		}
		s.atoms[name] = reply.Atom
	}

	err = xproto.ChangeWindowAttributesChecked(conn, s.root, xproto.CwEventMask,
		[]uint32{xproto.EventMaskPropertyChange}).Check()
	if err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "failed to subscribe to root window property changes")
	}
	s.log.Info("subscribed to _NET_ACTIVE_WINDOW changes", zap.Uint32("root", uint32(s.root)))

	s.stream = common.NewStream(s.pull)
	return s, nil
}

func (s *Source) Name() string {
	return transportName
}

func (s *Source) Next(ctx context.Context) (window.Event, error) {
	return s.stream.Next(ctx)
}

func (s *Source) Close() error {
	s.once.Do(func() {
		s.stream.Stop()
		s.conn.Close()
	})
	return nil
}

// pull runs on the stream goroutine only.
func (s *Source) pull() (window.Event, error) {
	ev, xerr := s.conn.WaitForEvent()
	if ev == nil && xerr == nil {
		return window.Event{}, io.EOF
	}
	if xerr != nil {
		// Protocol errors belong to individual requests (e.g. a window that
		// vanished before we read WM_CLASS), not to the stream.
		s.log.Debug("x11 protocol error", zap.String("error", xerr.Error()))
		return window.Event{Kind: window.KindOther}, nil
	}

	pn, ok := ev.(xproto.PropertyNotifyEvent)
	if !ok || pn.Window != s.root || pn.Atom != s.atoms["_NET_ACTIVE_WINDOW"] {
		return window.Event{Kind: window.KindOther}, nil
	}

	return window.Event{Kind: window.KindWindow, Focus: s.focusEvent()}, nil
}

func (s *Source) focusEvent() *window.FocusEvent {
	active := s.activeWindow()
	if active == 0 {
		return &window.FocusEvent{Change: window.ChangeOther}
	}

	fe := &window.FocusEvent{Change: window.ChangeFocus}
	instance, class := parseWMClass(s.property(active, s.atoms["WM_CLASS"], xproto.AtomString))
	if class != "" || instance != "" {
		fe.Window = &window.WindowProperties{
			Class:    class,
			Instance: instance,
			Title:    s.windowName(active),
		}
	}
	return fe
}

func (s *Source) property(win xproto.Window, atom, atomType xproto.Atom) []byte {
	reply, err := xproto.GetProperty(s.conn, false, win, atom, atomType, 0, 256).Reply()
	if err != nil || reply == nil {
		return nil
	}
	return reply.Value
}

func (s *Source) activeWindow() xproto.Window {
	data := s.property(s.root, s.atoms["_NET_ACTIVE_WINDOW"], xproto.AtomWindow)
	return decodeWindow(data)
}

func (s *Source) windowName(win xproto.Window) string {
	if data := s.property(win, s.atoms["_NET_WM_NAME"], s.atoms["UTF8_STRING"]); len(data) > 0 {
		return strings.TrimRight(string(data), "\x00")
	}
	return strings.TrimRight(string(s.property(win, xproto.AtomWmName, xproto.AtomString)), "\x00")
}

// decodeWindow reads a 32-bit WINDOW property value; 0 means none.
func decodeWindow(data []byte) xproto.Window {
	if len(data) < 4 {
		return 0
	}
	return xproto.Window(binary.LittleEndian.Uint32(data))
}

// parseWMClass splits the raw WM_CLASS value ("instance\0class\0").
func parseWMClass(data []byte) (instance, class string) {
	if len(data) == 0 {
		return "", ""
	}

	parts := strings.Split(strings.TrimRight(string(data), "\x00"), "\x00")
	instance = parts[0]
	if len(parts) >= 2 {
		class = parts[1]
	}
	return instance, class
}
