//go:build windows

package runner

import "os/exec"

// killProcessGroup keeps the default cancellation on Windows; WaitDelay
// still bounds the wait for the output pipes.
func killProcessGroup(cmd *exec.Cmd) {}
