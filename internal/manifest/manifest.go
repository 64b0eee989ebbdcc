package manifest

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/JamesPrial/go-plugin-release/internal/target"
)

// Default filename of the release manifest at the project root.
const DefaultFile = "release.yaml"

// Describes one plugin release pipeline: what to build, what to ship
// alongside the binaries, and where to publish.
type Manifest struct {
	// Name is the logical plugin/binary name. Every artifact and the
	// dispatch shim derive their filenames from it. Required.
	Name string `yaml:"name"`

	// Main is the package to compile, relative to the project root.
	// Defaults to ".".
	Main string `yaml:"main"`

	// Targets overrides the default build matrix, as "os/arch" strings.
	Targets []string `yaml:"targets"`

	// Metadata lists files the distribution tree requires for
	// installation (plugin and hook descriptors). Staging fails if any
	// is missing.
	Metadata []string `yaml:"metadata"`

	// Docs lists optional files copied into the tree when present.
	Docs []string `yaml:"docs"`

	// Branch is the history-less distribution branch. Defaults to "dist".
	Branch string `yaml:"branch"`

	// Remote is the git remote publishes go to. Defaults to "origin".
	Remote string `yaml:"remote"`

	// Repository is the "owner/name" GitHub slug. Inferred from the
	// remote URL when empty.
	Repository string `yaml:"repository"`

	// Test is the test gate command, run via the shell against the
	// checked-out tag. Defaults to "go test ./...".
	Test string `yaml:"test"`

	// Parallelism bounds concurrent target builds. Zero means one
	// worker per CPU.
	Parallelism int `yaml:"parallelism"`
}

// Loads and validates a release manifest from a file.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest %s: %w", path, err)
	}

	m.applyDefaults()
	if err := m.validate(); err != nil {
		return nil, fmt.Errorf("manifest %s: %w", path, err)
	}

	return &m, nil
}

func (m *Manifest) applyDefaults() {
	if m.Main == "" {
		m.Main = "."
	}
	if m.Branch == "" {
		m.Branch = "dist"
	}
	if m.Remote == "" {
		m.Remote = "origin"
	}
	if m.Test == "" {
		m.Test = "go test ./..."
	}
}

var nameRe = regexp.MustCompile(`^[a-z0-9][a-z0-9._-]*$`)

func (m *Manifest) validate() error {
	if m.Name == "" {
		return fmt.Errorf("name is required")
	}
	if !nameRe.MatchString(m.Name) {
		return fmt.Errorf("name %q: must be lowercase alphanumeric with ._- separators", m.Name)
	}
	if m.Parallelism < 0 {
		return fmt.Errorf("parallelism must not be negative")
	}
	if _, err := m.Registry(); err != nil {
		return fmt.Errorf("targets: %w", err)
	}
	return nil
}

// Returns the build matrix: the configured target override, or the
// default registry when no targets are declared.
func (m *Manifest) Registry() (*target.Registry, error) {
	if len(m.Targets) == 0 {
		return target.Default(), nil
	}
	return target.ParseList(m.Targets)
}

// Patterns for the remote URL forms git actually produces.
var remoteURLRes = []*regexp.Regexp{
	regexp.MustCompile(`^git@[^:]+:([^/]+/[^/]+?)(?:\.git)?$`),      // git@github.com:owner/name.git
	regexp.MustCompile(`^ssh://git@[^/]+/([^/]+/[^/]+?)(?:\.git)?$`), // ssh://git@github.com/owner/name
	regexp.MustCompile(`^https?://[^/]+/([^/]+/[^/]+?)(?:\.git)?$`),  // https://github.com/owner/name.git
}

// Derives an "owner/name" slug from a git remote URL.
func InferRepository(remoteURL string) (string, error) {
	url := strings.TrimSpace(remoteURL)
	for _, re := range remoteURLRes {
		if match := re.FindStringSubmatch(url); match != nil {
			return match[1], nil
		}
	}
	return "", fmt.Errorf("cannot infer repository slug from remote %q", remoteURL)
}
