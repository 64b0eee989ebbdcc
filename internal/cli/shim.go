package cli

import (
	"context"
	"fmt"

	"github.com/JamesPrial/go-plugin-release/internal/dispatch"
)

// Represents the 'plugrel shim' command.
type ShimCmd struct {
	Output string `short:"o" default:"." help:"Directory to write the shim into." placeholder:"DIR"`
}

// Writes the platform dispatch shim for the plugin, for inspection or
// manual tree assembly.
func (c *ShimCmd) Run(ctx context.Context) error {
	m, _, err := loadProject()
	if err != nil {
		return err
	}

	path, err := dispatch.WriteShim(c.Output, m.Name)
	if err != nil {
		return err
	}

	fmt.Println(path)
	return nil
}
