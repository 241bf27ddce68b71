package daemon

import (
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDaemon(t *testing.T) *Daemon {
	t.Helper()
	return New(filepath.Join(t.TempDir(), "focusgov.pid"))
}

func TestWriteReadRemovePID(t *testing.T) {
	d := newTestDaemon(t)

	pid, err := d.ReadPID()
	require.NoError(t, err)
	assert.Equal(t, 0, pid)

	require.NoError(t, d.WritePID())
	pid, err = d.ReadPID()
	require.NoError(t, err)
	assert.Equal(t, os.Getpid(), pid)

	require.NoError(t, d.RemovePID())
	require.NoError(t, d.RemovePID(), "removing twice is fine")
	_, err = os.Stat(d.PIDFile())
	assert.True(t, os.IsNotExist(err))
}

func TestReadPIDGarbage(t *testing.T) {
	d := newTestDaemon(t)
	require.NoError(t, os.WriteFile(d.PIDFile(), []byte("not-a-pid"), 0644))

	_, err := d.ReadPID()
	assert.Error(t, err)
}

func TestIsRunningSelf(t *testing.T) {
	d := newTestDaemon(t)
	require.NoError(t, d.WritePID())

	running, pid, err := d.IsRunning()
	require.NoError(t, err)
	assert.True(t, running)
	assert.Equal(t, os.Getpid(), pid)
}

func deadPID(t *testing.T) int {
	t.Helper()
	cmd := exec.Command("true")
	require.NoError(t, cmd.Run())
	return cmd.Process.Pid
}

func TestIsRunningStaleFileRemoved(t *testing.T) {
	d := newTestDaemon(t)
	require.NoError(t, os.WriteFile(d.PIDFile(), []byte(strconv.Itoa(deadPID(t))), 0644))

	running, _, err := d.IsRunning()
	require.NoError(t, err)
	assert.False(t, running)

	_, err = os.Stat(d.PIDFile())
	assert.True(t, os.IsNotExist(err))
}

func TestAcquire(t *testing.T) {
	d := newTestDaemon(t)
	require.NoError(t, d.Acquire())
	require.NoError(t, d.Acquire(), "re-acquiring our own file is allowed")

	sleeper := exec.Command("sleep", "30")
	require.NoError(t, sleeper.Start())
	t.Cleanup(func() {
		_ = sleeper.Process.Kill()
		_ = sleeper.Wait()
	})

	other := newTestDaemon(t)
	require.NoError(t, os.WriteFile(other.PIDFile(), []byte(strconv.Itoa(sleeper.Process.Pid)), 0644))
	err := other.Acquire()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already running")
}

func TestStopNotRunning(t *testing.T) {
	d := newTestDaemon(t)
	_, err := d.Stop()
	assert.ErrorIs(t, err, ErrNotRunning)
}

func TestStopSendsSIGTERM(t *testing.T) {
	sleeper := exec.Command("sleep", "30")
	require.NoError(t, sleeper.Start())
	done := make(chan error, 1)
	go func() { done <- sleeper.Wait() }()

	d := newTestDaemon(t)
	require.NoError(t, os.WriteFile(d.PIDFile(), []byte(strconv.Itoa(sleeper.Process.Pid)), 0644))

	pid, err := d.Stop()
	require.NoError(t, err)
	assert.Equal(t, sleeper.Process.Pid, pid)

	select {
	case err := <-done:
		assert.Error(t, err, "sleep exits on SIGTERM")
	case <-time.After(5 * time.Second):
		_ = sleeper.Process.Kill()
		t.Fatal("process did not exit after SIGTERM")
	}
}
