package throttle

import (
	"os"
	"os/exec"
	"strconv"
	"syscall"
	"time"

	"github.com/pkg/errors"
)

// CommandLauncher runs `<tool> -p <pid> -l <limit>`
type CommandLauncher struct {
	tool  string
	limit int
}

func NewCommandLauncher(tool string, limit int) *CommandLauncher {
	return &CommandLauncher{tool: tool, limit: limit}
}

func (l *CommandLauncher) Tool() string {
	return l.tool
}

func (l *CommandLauncher) Limit() int {
	return l.limit
}

// Check reports whether the tool can be found in PATH
func (l *CommandLauncher) Check() error {
	if _, err := exec.LookPath(l.tool); err != nil {
		return errors.Wrapf(err, "throttling tool %s not found", l.tool)
	}
	return nil
}

func (l *CommandLauncher) Launch(targetPID int32) (Process, error) {
	cmd := exec.Command(l.tool,
		"-p", strconv.Itoa(int(targetPID)),
		"-l", strconv.Itoa(l.limit))
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.SysProcAttr = helperSysProcAttr()

	if err := cmd.Start(); err != nil {
		return nil, errors.Wrapf(err, "failed to start %s", l.tool)
	}

	p := &commandProcess{cmd: cmd, done: make(chan struct{})}
	go p.reap()
	return p, nil
}

// commandProcess reaps its child as soon as it exits, so Wait never leaves
// a zombie behind and signals to a reaped child fail with os.ErrProcessDone.
type commandProcess struct {
	cmd  *exec.Cmd
	done chan struct{}
	err  error
}

func (p *commandProcess) reap() {
	p.err = p.cmd.Wait()
	close(p.done)
}

func (p *commandProcess) Pid() int {
	return p.cmd.Process.Pid
}

func (p *commandProcess) Terminate() error {
	return p.cmd.Process.Signal(syscall.SIGTERM)
}

func (p *commandProcess) Kill() error {
	return p.cmd.Process.Kill()
}

// ExitErr returns the helper's exit status once it has been reaped, nil
// while it still runs or when it exited cleanly.
func (p *commandProcess) ExitErr() error {
	select {
	case <-p.done:
		return p.err
	default:
		return nil
	}
}

func (p *commandProcess) Wait(timeout time.Duration) bool {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-p.done:
		return true
	case <-timer.C:
		return false
	}
}
