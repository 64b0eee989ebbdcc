package target

import (
	"fmt"
	"strings"
)

// A single operating-system/architecture pair the pipeline builds for.
//
// Identity is the (OS, Arch) pair. Targets are immutable values; the
// canonical suffix and executable extension are derived, never stored.
type Target struct {
	OS   string // GOOS value (e.g., "linux").
	Arch string // GOARCH value (e.g., "amd64").
}

// Returns the canonical "<os>-<arch>" suffix used in artifact names.
//
// The same convention is encoded in the dispatch shim, so the suffix must
// be deterministic from the pair alone.
func (t Target) Suffix() string {
	return t.OS + "-" + t.Arch
}

// Returns the executable extension for the target: ".exe" for the
// Windows family, empty otherwise.
func (t Target) Ext() string {
	if t.OS == "windows" {
		return ".exe"
	}
	return ""
}

// Returns the artifact filename for a logical binary name, following the
// "<name>-<os>-<arch>[.exe]" convention.
func (t Target) ArtifactName(base string) string {
	return base + "-" + t.Suffix() + t.Ext()
}

// Returns the "os/arch" form used in configuration and logs.
func (t Target) String() string {
	return t.OS + "/" + t.Arch
}

// Parses an "os/arch" pair into a [Target].
func Parse(s string) (Target, error) {
	os, arch, ok := strings.Cut(s, "/")
	if !ok || os == "" || arch == "" {
		return Target{}, fmt.Errorf("invalid target %q: expected \"os/arch\"", s)
	}
	if strings.ContainsRune(arch, '/') {
		return Target{}, fmt.Errorf("invalid target %q: too many separators", s)
	}
	return Target{OS: os, Arch: arch}, nil
}
