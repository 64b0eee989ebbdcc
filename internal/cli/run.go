package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/JamesPrial/go-plugin-release/internal/pipeline"
)

// Represents the 'plugrel run' command.
type RunCmd struct {
	Tag       string `help:"Release tag. Defaults to the tag-push trigger ref." placeholder:"TAG"`
	Notes     string `help:"Release notes body." placeholder:"TEXT" xor:"notes"`
	NotesFile string `help:"Read release notes from a file." placeholder:"PATH" xor:"notes"`
}

// Executes the full pipeline: tag resolution, test gate, build matrix,
// staging, and publish. Prints the pinning descriptor on success.
func (c *RunCmd) Run(ctx context.Context) error {
	m, repo, err := loadProject()
	if err != nil {
		return err
	}

	if err := resolveRepository(ctx, m, repo); err != nil {
		return err
	}

	releaser, err := newReleaser(m)
	if err != nil {
		return err
	}

	notes := c.Notes
	if c.NotesFile != "" {
		data, err := os.ReadFile(c.NotesFile)
		if err != nil {
			return fmt.Errorf("reading notes file: %w", err)
		}
		notes = string(data)
	}

	cfg := pipeline.Config{
		Manifest: m,
		Repo:     repo,
		Tag:      c.Tag,
		Notes:    notes,
	}
	if releaser != nil {
		cfg.Releaser = releaser
	}

	result, err := pipeline.Run(ctx, cfg)
	if err != nil {
		return err
	}

	pin, err := result.Pin.Encode()
	if err != nil {
		return err
	}
	fmt.Print(string(pin))

	return nil
}
