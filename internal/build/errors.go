package build

import (
	"errors"
	"fmt"
	"strings"

	"github.com/JamesPrial/go-plugin-release/internal/target"
)

var (
	ErrBuild               = errors.New("build failed")
	ErrFileSystemOperation = errors.New("file system operation failed")
)

// Reports a compilation failure for a single target.
//
// Compilation failures are deterministic, so the executor never retries
// them; the compiler's stderr is carried along for diagnosis.
type TargetError struct {
	Target target.Target // Target whose build failed.
	Output string        // Compiler stderr.
	Err    error         // Underlying process error.
}

func (e *TargetError) Error() string {
	msg := fmt.Sprintf("building %s: %v", e.Target, e.Err)
	if out := strings.TrimSpace(e.Output); out != "" {
		msg += ": " + out
	}
	return msg
}

func (e *TargetError) Unwrap() error {
	return e.Err
}

// Is reports ErrBuild for any target failure so callers can match the
// phase without knowing which target broke.
func (e *TargetError) Is(err error) bool {
	return err == ErrBuild
}
