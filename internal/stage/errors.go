package stage

import (
	"errors"
	"fmt"
)

var ErrStaging = errors.New("staging failed")

// Reports a required metadata file that is absent from the source
// checkout. The distribution tree cannot be self-sufficient without it.
type MissingError struct {
	Path string // Declared path, relative to the source root.
}

func (e *MissingError) Error() string {
	return fmt.Sprintf("required metadata file %q is missing", e.Path)
}

// Is reports ErrStaging so callers can match the phase.
func (e *MissingError) Is(err error) bool {
	return err == ErrStaging
}
