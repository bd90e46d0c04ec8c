//go:build !windows

package daemon

import (
	"os/exec"
	"syscall"
)

// killProcess sends a signal to a process
func killProcess(pid int, signal syscall.Signal) error {
	return syscall.Kill(pid, signal)
}

// isProcessAlive checks if a process is still running
func isProcessAlive(pid int) bool {
	return syscall.Kill(pid, 0) == nil
}

// setSysProcAttr sets platform-specific process attributes
func setSysProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setsid: true,
	}
}
