package cli

import (
	"context"
	"fmt"

	"github.com/JamesPrial/go-plugin-release/internal/build"
)

// Represents the 'plugrel build' command.
type BuildCmd struct {
	Output string `short:"o" default:"dist" help:"Output directory for artifacts." placeholder:"DIR"`
}

// Compiles the current checkout for every registered target.
//
// Unlike 'run', no tag is resolved and nothing is published; this is the
// build phase alone, for local verification of the matrix.
func (c *BuildCmd) Run(ctx context.Context) error {
	m, repo, err := loadProject()
	if err != nil {
		return err
	}

	registry, err := m.Registry()
	if err != nil {
		return err
	}

	artifacts, err := build.Run(ctx, build.Options{
		Source:      repo.Dir(),
		Package:     m.Main,
		Output:      c.Output,
		Base:        m.Name,
		Targets:     registry.Targets(),
		Parallelism: m.Parallelism,
	})
	if err != nil {
		return err
	}

	for _, artifact := range artifacts {
		fmt.Printf("%s\t%d\t%s\n", artifact.Name(), artifact.Size, artifact.Digest)
	}
	return nil
}
