package git

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrGit = errors.New("git operation failed")

	// Reported when the remote refuses a push for authorization reasons
	// (protected branch, missing credentials, insufficient scope).
	// Requires operator remediation; retrying cannot succeed.
	ErrPermissionDenied = errors.New("push rejected: permission denied")
)

// Reports a failed git invocation with the stderr that explains it.
type CommandError struct {
	Args   []string // Git arguments, without the leading -C pair.
	Dir    string   // Repository directory.
	Stderr string   // Trimmed stderr output.
	Err    error    // Underlying process error.
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("git %s in %s: %v", strings.Join(e.Args, " "), e.Dir, e.Err)
	if e.Stderr != "" {
		msg += " (stderr: " + e.Stderr + ")"
	}
	return msg
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// Is reports ErrGit for any command failure.
func (e *CommandError) Is(err error) bool {
	return err == ErrGit
}

// Stderr fragments that indicate an authorization refusal rather than a
// transient transport problem. Git and the major forges phrase these
// differently, so matching is substring-based over lowercased output.
var permissionMarkers = []string{
	"protected branch",
	"permission denied",
	"permission to",
	"authentication failed",
	"could not read username",
	"403",
}

// Classifies a push failure as permanent (permission) or transient.
//
// Permission failures wrap ErrPermissionDenied so callers can suppress
// retries; everything else surfaces unchanged and may be retried.
func classifyPushError(err error) error {
	var cmdErr *CommandError
	if !errors.As(err, &cmdErr) {
		return err
	}

	stderr := strings.ToLower(cmdErr.Stderr)
	for _, marker := range permissionMarkers {
		if strings.Contains(stderr, marker) {
			return fmt.Errorf("%w: %w", ErrPermissionDenied, err)
		}
	}
	return err
}
