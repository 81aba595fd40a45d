//go:build windows

package subproc

import (
	"os/exec"
	"sync"

	"golang.org/x/sys/windows"
)

// All children are assigned to a single job object; terminating the job
// tears down the whole tree (cl.exe spawns its own helpers, bash spawns the
// build). The job handle lives for the life of the process.

var (
	jobOnce   sync.Once
	jobHandle windows.Handle
)

func job() windows.Handle {
	jobOnce.Do(func() {
		jobHandle, _ = windows.CreateJobObject(nil, nil)
	})
	return jobHandle
}

func setGroupAttrs(cmd *exec.Cmd) {}

func registerChild(cmd *exec.Cmd) {
	if cmd.Process == nil || job() == 0 {
		return
	}
	h, err := windows.OpenProcess(
		windows.PROCESS_SET_QUOTA|windows.PROCESS_TERMINATE,
		false, uint32(cmd.Process.Pid))
	if err != nil {
		return
	}
	defer windows.CloseHandle(h)
	_ = windows.AssignProcessToJobObject(job(), h)
}

func unregisterChild(cmd *exec.Cmd) {}

// TerminateChildren terminates the job object and with it every spawned
// child that is still running.
func TerminateChildren() {
	if job() != 0 {
		_ = windows.TerminateJobObject(job(), 0)
	}
}
