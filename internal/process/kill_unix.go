//go:build !windows

package process

import "syscall"

// KillProcessGroup kills the browser and its renderer children by sending
// SIGKILL to the process group (negative PID).
func KillProcessGroup(pid int) {
	if pid <= 0 {
		return
	}
	// Best effort; the launcher's own Kill follows.
	_ = syscall.Kill(-pid, syscall.SIGKILL)
}
