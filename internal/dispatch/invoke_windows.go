//go:build windows

package dispatch

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
)

// Runs the artifact at path and exits with its exit code.
//
// Windows has no execve equivalent, so the child runs with inherited
// standard streams and the parent exits immediately after it finishes.
// Only returns on failure to start the child.
func Invoke(path string, args []string) error {
	cmd := exec.Command(path, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.ExitCode())
		}
		return fmt.Errorf("exec %s: %w", path, err)
	}

	os.Exit(0)
	return nil
}
