//go:build linux

package transport

import (
	"os/exec"
	"syscall"
)

// setupProcessHandling kills the server when this process dies.
func setupProcessHandling(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Pdeathsig: syscall.SIGKILL,
	}
}
