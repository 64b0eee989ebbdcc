package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/JamesPrial/go-plugin-release/internal/pipeline"
	"github.com/JamesPrial/go-plugin-release/internal/stage"
)

// Represents the 'plugrel publish' command.
type PublishCmd struct {
	Tree  string `short:"t" default:"dist-tree" help:"Staged distribution tree to publish." placeholder:"DIR"`
	Tag   string `required:"" help:"Release tag the snapshot belongs to." placeholder:"TAG"`
	Notes string `help:"Release notes body." placeholder:"TEXT"`
}

// Publishes an already-staged tree: force-replaces the distribution
// branch, creates the tagged release, and attaches the assets.
//
// Operator escape hatch for re-publishing after a transient failure
// without rebuilding; the tree is trusted as staged.
func (c *PublishCmd) Run(ctx context.Context) error {
	m, repo, err := loadProject()
	if err != nil {
		return err
	}

	if err := resolveRepository(ctx, m, repo); err != nil {
		return err
	}

	message := fmt.Sprintf("%s %s", m.Name, c.Tag)
	snapshot, err := repo.PublishSnapshot(ctx, c.Tree, m.Remote, m.Branch, message)
	if err != nil {
		return err
	}

	pin := pipeline.PinningDescriptor{
		Repository: m.Repository,
		Ref:        m.Branch,
		Commit:     snapshot.Commit,
		Tree:       snapshot.Tree,
	}

	releaser, err := newReleaser(m)
	if err != nil {
		return err
	}
	if releaser != nil {
		release, err := releaser.CreateRelease(ctx, c.Tag, message, c.Notes)
		if err != nil {
			return err
		}

		registry, err := m.Registry()
		if err != nil {
			return err
		}
		artifacts, err := collectArtifacts(c.Tree, m.Name, registry)
		if err != nil {
			return err
		}
		for _, artifact := range artifacts {
			if _, err := releaser.UploadAsset(ctx, release, artifact.Path); err != nil {
				return err
			}
		}
		if _, err := releaser.UploadAsset(ctx, release, filepath.Join(c.Tree, stage.ManifestName)); err != nil {
			return err
		}
	}

	encoded, err := pin.Encode()
	if err != nil {
		return err
	}
	fmt.Print(string(encoded))

	return nil
}
