package throttle

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Process is a running throttling helper
type Process interface {
	Pid() int

	// Terminate asks the helper to exit (SIGTERM)
	Terminate() error

	// Wait reports whether the helper exited within timeout
	Wait(timeout time.Duration) bool

	// Kill forces the helper down (SIGKILL)
	Kill() error
}

// Launcher starts a throttling helper against a target pid
type Launcher interface {
	Launch(targetPID int32) (Process, error)
}

// Session describes one helper lifetime
type Session struct {
	TargetPID int32
	HelperPID int
	StartedAt time.Time
}

// StopReason says how a session ended
type StopReason string

const (
	StopReleased     StopReason = "released"
	StopSignalFailed StopReason = "signal_failed"
	StopKilled       StopReason = "killed"
)

// Recorder receives session lifecycle notifications. Recording failures are
// logged and never affect throttling.
type Recorder interface {
	SessionStarted(s Session) error
	SessionEnded(s Session, endedAt time.Time, reason StopReason) error
	Anomaly(message string, cause error) error
}

// SpawnError means the helper could not be started. The governor cannot do
// its job without the helper, so callers treat it as fatal.
type SpawnError struct {
	TargetPID int32
	Err       error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("failed to spawn throttling helper for pid %d: %v", e.TargetPID, e.Err)
}

func (e *SpawnError) Unwrap() error {
	return e.Err
}

// exitReporter is implemented by processes that know how they exited
type exitReporter interface {
	ExitErr() error
}

type running struct {
	proc    Process
	session Session
}

// Controller owns the throttling helper. At most one helper exists at a
// time; current is non-nil iff a helper was launched and not yet released.
// Not safe for concurrent use: it is driven from the event loop only.
type Controller struct {
	launcher    Launcher
	stopTimeout time.Duration
	recorder    Recorder
	log         *zap.Logger
	now         func() time.Time

	current *running
}

// NewController creates a controller with no helper running. recorder may
// be nil.
func NewController(launcher Launcher, stopTimeout time.Duration, recorder Recorder, logger *zap.Logger) *Controller {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &Controller{
		launcher:    launcher,
		stopTimeout: stopTimeout,
		recorder:    recorder,
		log:         logger.Named("throttle"),
		now:         time.Now,
	}
}

// Active reports whether a helper is held
func (c *Controller) Active() bool {
	return c.current != nil
}

// EnsureThrottling launches a helper for pid unless one is already held. A
// held helper is kept as is, even when it targets a different pid.
func (c *Controller) EnsureThrottling(pid int32) error {
	if c.current != nil {
		c.log.Debug("helper already running, doing nothing",
			zap.Int32("target_pid", c.current.session.TargetPID),
			zap.Int32("requested_pid", pid),
			zap.Int("helper_pid", c.current.session.HelperPID))
		return nil
	}

	proc, err := c.launcher.Launch(pid)
	if err != nil {
		return &SpawnError{TargetPID: pid, Err: err}
	}

	s := Session{
		TargetPID: pid,
		HelperPID: proc.Pid(),
		StartedAt: c.now(),
	}
	c.current = &running{proc: proc, session: s}

	c.log.Info("throttling started",
		zap.Int32("target_pid", s.TargetPID),
		zap.Int("helper_pid", s.HelperPID))

	if err := c.recorder.SessionStarted(s); err != nil {
		c.log.Warn("failed to record session start", zap.Error(err))
	}
	return nil
}

// ReleaseThrottling stops the held helper, if any: SIGTERM, a bounded wait,
// and SIGKILL if the helper outlives the wait. The handle is cleared whatever
// the outcome.
func (c *Controller) ReleaseThrottling() {
	if c.current == nil {
		return
	}

	r := c.current
	c.current = nil

	fields := []zap.Field{
		zap.Int32("target_pid", r.session.TargetPID),
		zap.Int("helper_pid", r.session.HelperPID),
	}
	reason := StopReleased

	if err := r.proc.Terminate(); err != nil {
		reason = StopSignalFailed
		c.anomaly("failed to signal throttling helper", err, fields)
	}

	if !r.proc.Wait(c.stopTimeout) {
		reason = StopKilled
		c.anomaly("throttling helper did not exit after SIGTERM, killing",
			errors.Errorf("still running after %v", c.stopTimeout), fields)

		if err := r.proc.Kill(); err != nil {
			c.anomaly("failed to kill throttling helper", err, fields)
		}
		if !r.proc.Wait(c.stopTimeout) {
			c.anomaly("throttling helper still running after SIGKILL",
				errors.Errorf("still running after %v", c.stopTimeout), fields)
		}
	}

	if er, ok := r.proc.(exitReporter); ok {
		if err := er.ExitErr(); err != nil {
			fields = append(fields, zap.String("exit_status", err.Error()))
		}
	}

	endedAt := c.now()
	c.log.Info("throttling stopped",
		append(fields,
			zap.String("reason", string(reason)),
			zap.Duration("duration", endedAt.Sub(r.session.StartedAt)))...)

	if err := c.recorder.SessionEnded(r.session, endedAt, reason); err != nil {
		c.log.Warn("failed to record session end", zap.Error(err))
	}
}

func (c *Controller) anomaly(message string, cause error, fields []zap.Field) {
	c.log.Warn(message, append(fields, zap.Error(cause))...)
	if err := c.recorder.Anomaly(message, cause); err != nil {
		c.log.Warn("failed to record anomaly", zap.Error(err))
	}
}

type nopRecorder struct{}

func (nopRecorder) SessionStarted(Session) error                      { return nil }
func (nopRecorder) SessionEnded(Session, time.Time, StopReason) error { return nil }
func (nopRecorder) Anomaly(string, error) error                       { return nil }
