//go:build windows

package dispatch

import "runtime"

// Reports the host platform using the tokens the resolution tables
// expect. Windows has no uname; the kernel marker matches what
// Windows-compatible shells report and the machine token is the
// runtime's own architecture, which the table accepts directly.
func HostPlatform() (kernel, machine string, err error) {
	return "Windows_NT", runtime.GOARCH, nil
}
