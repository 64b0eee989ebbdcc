package pipeline

import "fmt"

// A pipeline phase. Phases advance strictly in order; any phase can
// fail, and failure is terminal for the run.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseTagResolved
	PhaseTestGatePassed
	PhaseBuilt
	PhaseStaged
	PhasePublished
	PhaseDone
)

var phaseNames = map[Phase]string{
	PhaseIdle:           "idle",
	PhaseTagResolved:    "tag-resolved",
	PhaseTestGatePassed: "test-gate-passed",
	PhaseBuilt:          "built",
	PhaseStaged:         "staged",
	PhasePublished:      "published",
	PhaseDone:           "done",
}

func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// Next returns the phase that follows p in the happy path.
func (p Phase) Next() Phase {
	if p >= PhaseDone {
		return PhaseDone
	}
	return p + 1
}

// Reports a run failure, recording which phase broke.
//
// Every phase failure is fatal to the run and leaves previously
// published state untouched: the pipeline has no partial-success mode.
type PhaseError struct {
	Phase Phase // Phase the run was trying to reach.
	Err   error // Underlying cause.
}

func (e *PhaseError) Error() string {
	return fmt.Sprintf("pipeline failed entering %s: %v", e.Phase, e.Err)
}

func (e *PhaseError) Unwrap() error {
	return e.Err
}
