package cli

import (
	"context"
	"fmt"
)

// Represents the 'plugrel targets' command.
type TargetsCmd struct{}

// Prints the registered build targets and the artifact names they
// produce.
func (c *TargetsCmd) Run(ctx context.Context) error {
	m, _, err := loadProject()
	if err != nil {
		return err
	}

	registry, err := m.Registry()
	if err != nil {
		return err
	}

	for _, tgt := range registry.Targets() {
		fmt.Printf("%s\t%s\n", tgt, tgt.ArtifactName(m.Name))
	}
	return nil
}
