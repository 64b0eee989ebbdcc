package cli

import (
	"context"

	"github.com/JamesPrial/go-plugin-release/internal/dispatch"
)

// Represents the 'plugrel dispatch' command.
type DispatchCmd struct {
	Tree string   `short:"t" default:"." help:"Distribution tree holding the artifacts." placeholder:"DIR"`
	Args []string `arg:"" optional:"" passthrough:"" help:"Arguments forwarded to the resolved artifact."`
}

// Resolves the host platform to an artifact in the tree and replaces
// this process with it, forwarding all arguments.
//
// The in-process equivalent of the shell shim shipped in the tree; both
// run the same table-driven resolution and both refuse to guess on an
// unmapped platform. Does not return on success.
func (c *DispatchCmd) Run(ctx context.Context) error {
	m, _, err := loadProject()
	if err != nil {
		return err
	}

	kernel, machine, err := dispatch.HostPlatform()
	if err != nil {
		return err
	}

	path, err := dispatch.Locate(c.Tree, m.Name, kernel, machine)
	if err != nil {
		return err
	}

	return dispatch.Invoke(path, c.Args)
}
