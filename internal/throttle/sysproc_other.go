//go:build !linux

package throttle

import "syscall"

func helperSysProcAttr() *syscall.SysProcAttr {
	return nil
}
