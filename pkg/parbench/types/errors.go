package types

import (
	"errors"
	"fmt"
)

// Error taxonomy. Every failure surfaced by the harness wraps one of these.
var (
	// ErrIOFailure indicates reading or writing a work item failed.
	ErrIOFailure = errors.New("i/o failure")

	// ErrProbeUnavailable indicates an OS resource query failed.
	ErrProbeUnavailable = errors.New("resource probe unavailable")

	// ErrPartition indicates the partitioner was given invalid input or
	// produced an invalid layout. Seeing it at runtime is a defect.
	ErrPartition = errors.New("partition error")
)

// Phase names the harness stage a failure happened in.
type Phase string

// Harness phases.
const (
	PhasePrepare   Phase = "prepare"
	PhaseDispatch  Phase = "dispatch"
	PhaseExecution Phase = "execution"
	PhaseProbing   Phase = "probing"
	PhaseMerge     Phase = "merge"
	PhaseVerify    Phase = "verify"
)

// ProbeError is returned when a resource query that the report depends on
// fails. It unwraps to ErrProbeUnavailable and the underlying cause.
type ProbeError struct {
	// Op is the query that failed (e.g. "memory").
	Op  string
	Err error
}

func (e *ProbeError) Error() string {
	return fmt.Sprintf("probe %s: %v", e.Op, e.Err)
}

// Unwrap returns both the sentinel and the cause.
func (e *ProbeError) Unwrap() []error {
	return []error{ErrProbeUnavailable, e.Err}
}

// PhaseError records which harness phase aborted a run.
type PhaseError struct {
	Phase Phase
	Err   error
}

func (e *PhaseError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Phase, e.Err)
}

func (e *PhaseError) Unwrap() error {
	return e.Err
}

// NewPhaseError wraps err with its phase. A nil err yields nil.
func NewPhaseError(phase Phase, err error) error {
	if err == nil {
		return nil
	}
	var pe *PhaseError
	if errors.As(err, &pe) {
		return err
	}
	return &PhaseError{Phase: phase, Err: err}
}
