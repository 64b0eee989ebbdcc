//go:build !windows

package dispatch

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Reads the host's kernel-name and machine-hardware reports, the same
// values uname -s and uname -m print.
func HostPlatform() (kernel, machine string, err error) {
	var name unix.Utsname
	if err := unix.Uname(&name); err != nil {
		return "", "", fmt.Errorf("reading host platform: %w", err)
	}
	return cString(name.Sysname[:]), cString(name.Machine[:]), nil
}

// Converts a NUL-terminated byte field to a string.
func cString(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}
