//go:build !windows

package guard

import (
	"syscall"
)

// processAlive probes whether a process with the given PID exists.
// Signal 0 performs the existence check without delivering anything;
// EPERM means the process exists but belongs to someone else.
func processAlive(pid int) bool {
	err := syscall.Kill(pid, 0)
	if err == nil {
		return true
	}
	return err == syscall.EPERM
}

// terminateProcess sends a forced, non-catchable termination signal.
func terminateProcess(pid int) error {
	return syscall.Kill(pid, syscall.SIGKILL)
}
