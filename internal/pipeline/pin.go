package pipeline

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/JamesPrial/go-plugin-release/internal/paths"
)

// The record a downstream consumer persists to reproduce exactly one
// published snapshot. The tree hash is the content pin; the commit is
// the distribution ref's head at publish time.
type PinningDescriptor struct {
	Repository string `yaml:"repository"` // "owner/name" slug.
	Ref        string `yaml:"ref"`        // Distribution branch name.
	Commit     string `yaml:"commit"`     // Branch head commit hash.
	Tree       string `yaml:"tree"`       // Content hash of the published tree.
}

// Encodes the descriptor as YAML.
func (p PinningDescriptor) Encode() ([]byte, error) {
	data, err := yaml.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encoding pinning descriptor: %w", err)
	}
	return data, nil
}

// Writes the descriptor to a file.
func (p PinningDescriptor) Write(path string) error {
	data, err := p.Encode()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, paths.DefaultFileMode); err != nil {
		return fmt.Errorf("writing pinning descriptor: %w", err)
	}
	return nil
}
