package cli

import (
	"context"
	"fmt"

	"github.com/JamesPrial/go-plugin-release/internal"
)

// Represents the 'plugrel version' command.
type VersionCmd struct{}

// Executes the version command.
func (c *VersionCmd) Run(ctx context.Context) error {
	fmt.Println(internal.VersionString())
	return nil
}
