package runner

import (
	"os"
	"os/exec"
)

// Executor runs a resolved program with its argument list, streaming child
// output as it arrives. The returned error carries the child's exit status
// when it ran and failed.
type Executor interface {
	Run(prog string, args []string) error
}

// OSExecutor invokes commands through os/exec with inherited stdio.
type OSExecutor struct{}

func (OSExecutor) Run(prog string, args []string) error {
	cmd := exec.Command(prog, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// exitCode extracts the child's exit code from an Executor error, or -1 when
// the command could not be started at all.
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	if exitErr, ok := err.(*exec.ExitError); ok {
		return exitErr.ExitCode()
	}
	return -1
}
