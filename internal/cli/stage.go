package cli

import (
	"context"
	"fmt"

	"github.com/JamesPrial/go-plugin-release/internal/stage"
)

// Represents the 'plugrel stage' command.
type StageCmd struct {
	Input  string `short:"i" default:"dist" help:"Directory holding built artifacts." placeholder:"DIR"`
	Output string `short:"o" default:"dist-tree" help:"Directory to assemble the tree in." placeholder:"DIR"`
}

// Assembles a distribution tree from previously built artifacts.
//
// Re-digests every artifact on disk so the checksum manifest reflects
// the exact bytes being staged, regardless of when they were compiled.
func (c *StageCmd) Run(ctx context.Context) error {
	m, repo, err := loadProject()
	if err != nil {
		return err
	}

	registry, err := m.Registry()
	if err != nil {
		return err
	}

	artifacts, err := collectArtifacts(c.Input, m.Name, registry)
	if err != nil {
		return err
	}

	tree, err := stage.Assemble(stage.Options{
		Dir:       c.Output,
		Source:    repo.Dir(),
		Base:      m.Name,
		Artifacts: artifacts,
		Metadata:  m.Metadata,
		Docs:      m.Docs,
	})
	if err != nil {
		return err
	}

	for _, file := range tree.Files {
		fmt.Println(file)
	}
	return nil
}
