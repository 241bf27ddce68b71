package detector

import (
	"os"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/actionsum/focusgov/pkg/integrations/i3ipc"
	"github.com/actionsum/focusgov/pkg/integrations/x11"
	"github.com/actionsum/focusgov/pkg/window"
)

const (
	TransportAuto = "auto"
	TransportI3   = "i3"
	TransportX11  = "x11"
)

// Open connects to the window manager through the named transport and
// subscribes to window events. "auto" resolves via DetectTransport.
func Open(kind string, logger *zap.Logger) (window.Source, error) {
	if kind == TransportAuto || kind == "" {
		kind = DetectTransport()
		logger.Info("transport detected", zap.String("transport", kind))
	}

	switch kind {
	case TransportI3:
		src, err := i3ipc.Open(logger)
		if err != nil {
			return nil, err
		}
		return src, nil
	case TransportX11:
		src, err := x11.Open(logger)
		if err != nil {
			return nil, err
		}
		return src, nil
	default:
		return nil, errors.Errorf("unsupported transport %q (no i3/sway socket or X display found)", kind)
	}
}

// DetectTransport picks i3 IPC when an i3 or sway socket is advertised,
// X11 when a display is set, and "unknown" otherwise.
func DetectTransport() string {
	if os.Getenv("I3SOCK") != "" || os.Getenv("SWAYSOCK") != "" {
		return TransportI3
	}

	if os.Getenv("DISPLAY") != "" {
		return TransportX11
	}

	return "unknown"
}
