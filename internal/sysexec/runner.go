// Package sysexec runs shell commands on behalf of the connection
// resolver and reports which system tools are installed. Commands are
// interpreted by the user's shell so pipelines and quoting behave the
// same way they would at a prompt; stderr is discarded.
package sysexec

import (
	"os"
	"os/exec"
	"strings"

	"github.com/paulzwoo/arm/internal/errors"
)

// Runner executes shell commands and probes the search path.
// The connection resolver depends on this interface rather than os/exec
// directly so tests can substitute a fake.
type Runner interface {
	// Call runs a shell command and returns its stdout split into lines.
	// An empty result with a nil error means the command ran but printed
	// nothing. A non-nil error means the command could not run or exited
	// non-zero.
	Call(command string) ([]string, error)

	// IsAvailable reports whether the named executable is on the search path.
	IsAvailable(name string) bool
}

// ShellRunner executes commands via the user's shell ($SHELL, falling
// back to /bin/sh).
type ShellRunner struct{}

// NewShellRunner creates a Runner backed by the local shell.
func NewShellRunner() *ShellRunner {
	return &ShellRunner{}
}

// Call runs the command through the shell and captures stdout.
// Stderr is discarded; a pipeline like "netstat -np | grep ..." exiting
// non-zero because grep matched nothing is treated as an empty result,
// not an error.
func (r *ShellRunner) Call(command string) ([]string, error) {
	shell := os.Getenv("SHELL")
	if shell == "" {
		shell = "/bin/sh"
	}

	cmd := exec.Command(shell, "-c", command)

	out, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			// grep exits 1 when nothing matches; that's "no results",
			// not a broken tool. Anything above 1 is a real failure.
			if exitErr.ExitCode() <= 1 {
				return SplitLines(string(out)), nil
			}
			return nil, errors.WrapWithCode(err, errors.ErrExec,
				"Command exited with an error: "+command,
				"Check that the underlying tool is installed and you have permission to run it.")
		}
		return nil, errors.WrapWithCode(err, errors.ErrExec,
			"Couldn't run the command: "+command,
			"Make sure a shell is available at $SHELL or /bin/sh.")
	}

	return SplitLines(string(out)), nil
}

// IsAvailable reports whether the named executable can be found on PATH.
func (r *ShellRunner) IsAvailable(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

// SplitLines breaks command output into trimmed, non-empty lines.
func SplitLines(output string) []string {
	var lines []string
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}
