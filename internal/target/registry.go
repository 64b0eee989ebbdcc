package target

import "fmt"

// An ordered, duplicate-free collection of build targets.
//
// The registry is data, not logic: extending the build matrix means adding
// an entry, never touching resolver or executor code.
type Registry struct {
	targets []Target
}

// Returns the default build matrix.
//
// Covers the platforms end users actually run plugins on: Intel and ARM
// Linux and macOS, plus 64-bit Windows.
func Default() *Registry {
	r, err := New([]Target{
		{OS: "linux", Arch: "amd64"},
		{OS: "linux", Arch: "arm64"},
		{OS: "darwin", Arch: "amd64"},
		{OS: "darwin", Arch: "arm64"},
		{OS: "windows", Arch: "amd64"},
	})
	if err != nil {
		panic(err) // The default matrix is statically valid.
	}
	return r
}

// Creates a registry from an ordered target list.
//
// Returns an error on empty input or duplicate (OS, Arch) pairs.
func New(targets []Target) (*Registry, error) {
	if len(targets) == 0 {
		return nil, fmt.Errorf("target registry is empty")
	}

	seen := make(map[Target]struct{}, len(targets))
	for _, t := range targets {
		if _, dup := seen[t]; dup {
			return nil, fmt.Errorf("duplicate target %s", t)
		}
		seen[t] = struct{}{}
	}

	return &Registry{targets: append([]Target(nil), targets...)}, nil
}

// ParseList creates a registry from "os/arch" strings, preserving order.
func ParseList(specs []string) (*Registry, error) {
	targets := make([]Target, 0, len(specs))
	for _, s := range specs {
		t, err := Parse(s)
		if err != nil {
			return nil, err
		}
		targets = append(targets, t)
	}
	return New(targets)
}

// Returns the targets in registration order. The returned slice is a copy.
func (r *Registry) Targets() []Target {
	return append([]Target(nil), r.targets...)
}

// Returns the number of registered targets.
func (r *Registry) Len() int {
	return len(r.targets)
}
