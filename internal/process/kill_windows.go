//go:build windows

package process

import (
	"os/exec"
	"strconv"
)

// KillProcessGroup kills the browser and its renderer children with
// taskkill. /F forces, /T kills the tree.
func KillProcessGroup(pid int) {
	if pid <= 0 {
		return
	}
	// Best effort; the launcher's own Kill follows.
	_ = exec.Command("taskkill", "/F", "/T", "/PID", strconv.Itoa(pid)).Run() // #nosec G204 -- pid is an int
}
