//go:build linux

package throttle

import "syscall"

// The helper gets SIGTERM if the governor dies without releasing it.
func helperSysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Pdeathsig: syscall.SIGTERM}
}
