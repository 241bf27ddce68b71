package governor

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/actionsum/focusgov/internal/throttle"
	"github.com/actionsum/focusgov/pkg/window"
)

const (
	targetClass = "roon.exe"
	processName = "Roon.exe"
)

type fakeFinder struct {
	pid     int32
	running bool
	err     error
	calls   int
}

func (f *fakeFinder) Find(ctx context.Context, name string) (int32, bool, error) {
	f.calls++
	if f.err != nil {
		return 0, false, f.err
	}
	if !f.running || name != processName {
		return 0, false, nil
	}
	return f.pid, true, nil
}

type fakeThrottler struct {
	ensured  []int32
	releases int
	err      error
}

func (f *fakeThrottler) EnsureThrottling(pid int32) error {
	f.ensured = append(f.ensured, pid)
	return f.err
}

func (f *fakeThrottler) ReleaseThrottling() {
	f.releases++
}

func focusOn(class string) window.FocusEvent {
	return window.FocusEvent{
		Change: window.ChangeFocus,
		Window: &window.WindowProperties{Class: class, Instance: class},
	}
}

func newTestReconciler(f Finder, th Throttler) *Reconciler {
	return NewReconciler(targetClass, processName, f, th, zap.NewNop())
}

func TestScenarioTargetFocused(t *testing.T) {
	finder := &fakeFinder{pid: 4242, running: true}
	th := &fakeThrottler{}
	r := newTestReconciler(finder, th)

	require.NoError(t, r.OnFocusEvent(context.Background(), focusOn("roon.exe")))

	assert.Equal(t, 1, th.releases)
	assert.Empty(t, th.ensured)
	assert.Equal(t, 0, finder.calls)
}

func TestScenarioOtherFocusedProcessRunning(t *testing.T) {
	finder := &fakeFinder{pid: 4242, running: true}
	th := &fakeThrottler{}
	r := newTestReconciler(finder, th)

	require.NoError(t, r.OnFocusEvent(context.Background(), focusOn("editor.exe")))

	assert.Equal(t, []int32{4242}, th.ensured)
	assert.Equal(t, 1, finder.calls)
}

func TestScenarioOtherFocusedProcessMissing(t *testing.T) {
	finder := &fakeFinder{running: false}
	th := &fakeThrottler{}
	r := newTestReconciler(finder, th)

	require.NoError(t, r.OnFocusEvent(context.Background(), focusOn("editor.exe")))

	assert.Empty(t, th.ensured)
	assert.Equal(t, 1, finder.calls)
}

func TestIgnoredEvents(t *testing.T) {
	tests := []struct {
		name  string
		event window.FocusEvent
	}{
		{
			name:  "Non-focus change on target",
			event: window.FocusEvent{Change: window.ChangeOther, Window: &window.WindowProperties{Class: "roon.exe"}},
		},
		{
			name:  "Non-focus change on other window",
			event: window.FocusEvent{Change: window.ChangeOther, Window: &window.WindowProperties{Class: "editor.exe"}},
		},
		{
			name:  "No window properties",
			event: window.FocusEvent{Change: window.ChangeFocus},
		},
		{
			name:  "Empty class",
			event: window.FocusEvent{Change: window.ChangeFocus, Window: &window.WindowProperties{Title: "Roon"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			finder := &fakeFinder{pid: 4242, running: true}
			th := &fakeThrottler{}
			r := newTestReconciler(finder, th)

			require.NoError(t, r.OnFocusEvent(context.Background(), tt.event))

			assert.Equal(t, 0, finder.calls)
			assert.Empty(t, th.ensured)
			assert.Equal(t, 0, th.releases)
		})
	}
}

func TestClassMatchIsCaseSensitive(t *testing.T) {
	finder := &fakeFinder{pid: 4242, running: true}
	th := &fakeThrottler{}
	r := newTestReconciler(finder, th)

	require.NoError(t, r.OnFocusEvent(context.Background(), focusOn("Roon.exe")))

	assert.Equal(t, 0, th.releases)
	assert.Equal(t, []int32{4242}, th.ensured)
}

func TestLookupErrorLeavesStateAlone(t *testing.T) {
	finder := &fakeFinder{err: errors.New("proc not mounted")}
	th := &fakeThrottler{}
	r := newTestReconciler(finder, th)

	require.NoError(t, r.OnFocusEvent(context.Background(), focusOn("editor.exe")))

	assert.Empty(t, th.ensured)
	assert.Equal(t, 0, th.releases)
}

func TestSpawnErrorPropagates(t *testing.T) {
	spawnErr := &throttle.SpawnError{TargetPID: 4242, Err: errors.New("not found")}
	th := &fakeThrottler{err: spawnErr}
	r := newTestReconciler(&fakeFinder{pid: 4242, running: true}, th)

	err := r.OnFocusEvent(context.Background(), focusOn("editor.exe"))

	var got *throttle.SpawnError
	require.True(t, errors.As(err, &got))
	assert.Same(t, spawnErr, got)
}

// The remaining tests drive a real controller with a fake launcher.

type stubProcess struct {
	pid        int
	exited     bool
	terminates int
}

func (p *stubProcess) Pid() int                { return p.pid }
func (p *stubProcess) Terminate() error        { p.terminates++; p.exited = true; return nil }
func (p *stubProcess) Wait(time.Duration) bool { return p.exited }
func (p *stubProcess) Kill() error             { p.exited = true; return nil }

type stubLauncher struct {
	targets []int32
	procs   []*stubProcess
}

func (l *stubLauncher) Launch(targetPID int32) (throttle.Process, error) {
	p := &stubProcess{pid: 10000 + len(l.procs)}
	l.targets = append(l.targets, targetPID)
	l.procs = append(l.procs, p)
	return p, nil
}

func (l *stubLauncher) live() int {
	n := 0
	for _, p := range l.procs {
		if !p.exited {
			n++
		}
	}
	return n
}

func newRealController(l *stubLauncher) *throttle.Controller {
	return throttle.NewController(l, time.Millisecond, nil, zap.NewNop())
}

func TestScenarioRepeatedOtherFocusSpawnsOnce(t *testing.T) {
	l := &stubLauncher{}
	ctrl := newRealController(l)
	r := newTestReconciler(&fakeFinder{pid: 4242, running: true}, ctrl)
	ctx := context.Background()

	require.NoError(t, r.OnFocusEvent(ctx, focusOn("editor.exe")))
	require.NoError(t, r.OnFocusEvent(ctx, focusOn("editor.exe")))

	assert.Equal(t, []int32{4242}, l.targets)
	assert.True(t, ctrl.Active())
}

func TestProcessDisappearanceDetectedOnNextOtherFocus(t *testing.T) {
	l := &stubLauncher{}
	ctrl := newRealController(l)
	finder := &fakeFinder{pid: 4242, running: true}
	r := newTestReconciler(finder, ctrl)
	ctx := context.Background()

	require.NoError(t, r.OnFocusEvent(ctx, focusOn("editor.exe")))
	require.True(t, ctrl.Active())

	// nothing polls: the helper stays until the next relevant event
	finder.running = false
	assert.True(t, ctrl.Active())

	require.NoError(t, r.OnFocusEvent(ctx, focusOn("browser")))
	assert.False(t, ctrl.Active())
	assert.Equal(t, 1, l.procs[0].terminates)
}

func TestFocusSequencesKeepInvariant(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	classes := []string{"roon.exe", "editor.exe", "browser", ""}

	for run := 0; run < 50; run++ {
		l := &stubLauncher{}
		ctrl := newRealController(l)
		finder := &fakeFinder{pid: 4242}
		r := newTestReconciler(finder, ctrl)
		ctx := context.Background()

		wantActive := false
		for step := 0; step < 40; step++ {
			finder.running = rng.Intn(3) > 0
			class := classes[rng.Intn(len(classes))]
			change := window.ChangeFocus
			if rng.Intn(4) == 0 {
				change = window.ChangeOther
			}

			ev := window.FocusEvent{Change: change}
			if class != "" {
				ev.Window = &window.WindowProperties{Class: class}
			}
			require.NoError(t, r.OnFocusEvent(ctx, ev))

			if change == window.ChangeFocus && class != "" {
				wantActive = class != targetClass && finder.running
			}

			assert.Equal(t, wantActive, ctrl.Active(), "run %d step %d", run, step)
			assert.LessOrEqual(t, l.live(), 1, "run %d step %d", run, step)
			if ctrl.Active() {
				assert.Equal(t, 1, l.live())
			} else {
				assert.Equal(t, 0, l.live())
			}
		}
	}
}
