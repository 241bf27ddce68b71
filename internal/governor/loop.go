package governor

import (
	"context"
	"io"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/actionsum/focusgov/pkg/window"
)

// ErrStreamEnded is returned when the transport's event stream is exhausted
var ErrStreamEnded = errors.New("window event stream ended")

// Handler consumes focus events
type Handler interface {
	OnFocusEvent(ctx context.Context, ev window.FocusEvent) error
}

// Loop pulls events one at a time and hands window events to the handler.
// Each event is handled to completion before the next is requested.
type Loop struct {
	source  window.Source
	handler Handler
	log     *zap.Logger
}

func NewLoop(source window.Source, handler Handler, logger *zap.Logger) *Loop {
	return &Loop{
		source:  source,
		handler: handler,
		log:     logger.Named("loop"),
	}
}

// Run blocks until the stream ends (ErrStreamEnded), the transport fails,
// the handler fails, or ctx is cancelled (ctx.Err()).
func (l *Loop) Run(ctx context.Context) error {
	for {
		ev, err := l.source.Next(ctx)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			if errors.Is(err, io.EOF) {
				return ErrStreamEnded
			}
			return errors.Wrapf(err, "%s event stream failed", l.source.Name())
		}

		if ev.Kind != window.KindWindow || ev.Focus == nil {
			continue
		}

		if err := l.handler.OnFocusEvent(ctx, *ev.Focus); err != nil {
			return err
		}
	}
}
