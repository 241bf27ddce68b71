package governor

import (
	"context"

	"go.uber.org/zap"

	"github.com/actionsum/focusgov/pkg/window"
)

// Finder looks up a process by exact name
type Finder interface {
	Find(ctx context.Context, name string) (int32, bool, error)
}

// Throttler starts and stops the throttling helper
type Throttler interface {
	EnsureThrottling(pid int32) error
	ReleaseThrottling()
}

// Reconciler maps a focus change to the desired throttling state. It holds
// no state of its own; the Throttler owns the helper.
type Reconciler struct {
	targetClass string
	processName string
	finder      Finder
	throttle    Throttler
	log         *zap.Logger
}

func NewReconciler(targetClass, processName string, finder Finder, throttle Throttler, logger *zap.Logger) *Reconciler {
	return &Reconciler{
		targetClass: targetClass,
		processName: processName,
		finder:      finder,
		throttle:    throttle,
		log:         logger.Named("reconciler"),
	}
}

// OnFocusEvent lifts throttling when the target application gains focus and
// throttles the monitored process when anything else does. Only a returned
// *throttle.SpawnError is an error; everything else is handled here.
func (r *Reconciler) OnFocusEvent(ctx context.Context, ev window.FocusEvent) error {
	if ev.Change != window.ChangeFocus {
		return nil
	}

	class, ok := ev.Class()
	if !ok {
		r.log.Debug("focus event without window class, ignoring")
		return nil
	}

	if class == r.targetClass {
		r.log.Debug("target focused", zap.String("class", class))
		r.throttle.ReleaseThrottling()
		return nil
	}

	pid, found, err := r.finder.Find(ctx, r.processName)
	if err != nil {
		r.log.Warn("process lookup failed, leaving throttling as is",
			zap.String("process", r.processName), zap.Error(err))
		return nil
	}

	if !found {
		// Noop unless a helper outlived the process it was throttling.
		r.log.Debug("monitored process not running", zap.String("process", r.processName))
		r.throttle.ReleaseThrottling()
		return nil
	}

	r.log.Debug("other application focused",
		zap.String("class", class), zap.Int32("pid", pid))
	return r.throttle.EnsureThrottling(pid)
}
