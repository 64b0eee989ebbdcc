package dispatch

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/JamesPrial/go-plugin-release/internal/target"
)

// Maps lowercased kernel-name reports (uname -s) to canonical GOOS tokens.
//
// The table is exhaustive by intent: a kernel name that is not listed here
// must fail resolution rather than be guessed. Windows entries are prefix
// matches because MSYS and MINGW append version and architecture details
// (e.g., "MINGW64_NT-10.0-19045").
var osTable = map[string]string{
	"darwin": "darwin",
	"linux":  "linux",
}

// Kernel-name prefixes reported by Windows-compatible shells.
var windowsPrefixes = []string{"windows_nt", "mingw", "msys", "cygwin"}

// Maps lowercased machine-hardware reports (uname -m) to canonical GOARCH
// tokens. 32-bit and exotic architectures are deliberately absent.
var archTable = map[string]string{
	"x86_64":  "amd64",
	"amd64":   "amd64",
	"aarch64": "arm64",
	"arm64":   "arm64",
}

// Reported when a host's platform tokens cannot be mapped to a registered
// target. Carries everything the end user needs to self-diagnose: the raw
// tokens and the path pattern that would have been executed.
type ResolutionError struct {
	Kernel   string // Raw kernel-name report.
	Machine  string // Raw machine-hardware report.
	Expected string // Path or pattern the resolver was looking for.
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("no artifact for platform (kernel %q, machine %q): expected %s",
		e.Kernel, e.Machine, e.Expected)
}

// Maps a kernel-name report to a canonical OS token.
//
// Returns false if the kernel name is not in the table. Matching is
// case-insensitive; no fallback or fuzzy matching is attempted.
func NormalizeOS(kernel string) (string, bool) {
	k := strings.ToLower(strings.TrimSpace(kernel))
	if os, ok := osTable[k]; ok {
		return os, true
	}
	for _, prefix := range windowsPrefixes {
		if strings.HasPrefix(k, prefix) {
			return "windows", true
		}
	}
	return "", false
}

// Maps a machine-hardware report to a canonical architecture token.
//
// Returns false if the machine name is not in the table.
func NormalizeArch(machine string) (string, bool) {
	m := strings.ToLower(strings.TrimSpace(machine))
	arch, ok := archTable[m]
	return arch, ok
}

// Resolves a (kernel-name, machine-hardware) pair to a build target.
//
// This is the pure core of the dispatch state machine: detection of either
// token can fail, and failure is terminal — the resolver never substitutes
// a default platform.
func Resolve(kernel, machine string) (target.Target, error) {
	osToken, ok := NormalizeOS(kernel)
	if !ok {
		return target.Target{}, &ResolutionError{
			Kernel:   kernel,
			Machine:  machine,
			Expected: "<name>-<os>-<arch>",
		}
	}

	archToken, ok := NormalizeArch(machine)
	if !ok {
		return target.Target{}, &ResolutionError{
			Kernel:   kernel,
			Machine:  machine,
			Expected: fmt.Sprintf("<name>-%s-<arch>", osToken),
		}
	}

	return target.Target{OS: osToken, Arch: archToken}, nil
}

// Composes the absolute artifact path for a resolved target.
//
// The path is anchored to dir (resolved to an absolute path) so that
// invocation from any working directory finds the artifact next to the
// shim rather than relative to the caller.
func Compose(dir, base string, t target.Target) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving artifact directory %q: %w", dir, err)
	}
	return filepath.Join(abs, t.ArtifactName(base)), nil
}

// Locate runs the full resolution state machine: normalize both platform
// tokens, compose the artifact path, and verify the artifact exists.
//
// A missing artifact is a resolution failure even when both tokens mapped,
// because executing nothing is the only safe outcome.
func Locate(dir, base, kernel, machine string) (string, error) {
	t, err := Resolve(kernel, machine)
	if err != nil {
		return "", err
	}

	path, err := Compose(dir, base, t)
	if err != nil {
		return "", err
	}

	if _, err := os.Stat(path); err != nil {
		return "", &ResolutionError{Kernel: kernel, Machine: machine, Expected: path}
	}

	return path, nil
}
