//go:build !windows

package dispatch

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// Replaces the current process with the artifact at path.
//
// Arguments are forwarded verbatim and the environment is inherited, so
// the artifact's exit code becomes the caller's exit code with no parent
// process left to proxy it. Does not return on success.
func Invoke(path string, args []string) error {
	argv := append([]string{path}, args...)
	if err := unix.Exec(path, argv, os.Environ()); err != nil {
		return fmt.Errorf("exec %s: %w", path, err)
	}
	// Unreachable: unix.Exec only returns on error.
	return nil
}
