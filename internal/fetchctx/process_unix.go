//go:build unix

package fetchctx

import (
	"os/exec"
	"syscall"
)

// killProcessGroup starts the child in its own process group and makes
// cancellation kill the group, so browsers spawned by the child go too.
func killProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		if cmd.Process == nil {
			return nil
		}
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
}
