//go:build !windows

package player

import (
	"os/exec"
	"syscall"
)

// sysProcAttr starts mpv in its own process group so that helper processes
// it spawns (ytdl hooks) are reaped together with it.
func sysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setpgid: true}
}

func killProcess(cmd *exec.Cmd) error {
	if cmd == nil || cmd.Process == nil {
		return nil
	}
	_ = syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	return cmd.Process.Kill()
}
