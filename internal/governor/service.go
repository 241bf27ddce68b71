package governor

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/actionsum/focusgov/pkg/window"
)

// Service runs the event loop and releases the helper once the loop is done,
// however it ended.
type Service struct {
	source   window.Source
	loop     *Loop
	throttle Throttler
	log      *zap.Logger
	running  bool
}

func NewService(source window.Source, reconciler *Reconciler, throttle Throttler, logger *zap.Logger) *Service {
	return &Service{
		source:   source,
		loop:     NewLoop(source, reconciler, logger),
		throttle: throttle,
		log:      logger.Named("governor"),
	}
}

// Run blocks until the loop ends. Cancelling ctx is a clean shutdown and
// returns nil; every other ending is returned as an error.
func (s *Service) Run(ctx context.Context) error {
	if s.running {
		return errors.New("governor is already running")
	}
	s.running = true
	defer func() { s.running = false }()

	s.log.Info("governor started", zap.String("transport", s.source.Name()))

	defer s.throttle.ReleaseThrottling()

	err := s.loop.Run(ctx)
	if errors.Is(err, context.Canceled) {
		s.log.Info("governor stopped")
		return nil
	}
	return err
}
