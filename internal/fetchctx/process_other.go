//go:build !unix

package fetchctx

import "os/exec"

// killProcessGroup keeps exec's default: only the child itself is killed.
func killProcessGroup(cmd *exec.Cmd) {}
