package upgrade

import (
	"errors"
	"fmt"
)

// ErrRestartTimeout is returned when the device does not come back within
// Options.MaxPollAttempts polls after the firmware upload.
var ErrRestartTimeout = errors.New("device did not come back after restart")

// PhaseError reports which phase an upgrade failed in. Nothing is rolled
// back; the device is left in whatever state that phase reached.
type PhaseError struct {
	Phase Phase
	Err   error
}

// Error implements the error interface
func (e *PhaseError) Error() string {
	return fmt.Sprintf("upgrade failed while %s: %v", e.Phase, e.Err)
}

// Unwrap returns the underlying error for error chain inspection
func (e *PhaseError) Unwrap() error {
	return e.Err
}

// FailedPhase returns the phase carried by a PhaseError in err's chain.
func FailedPhase(err error) (Phase, bool) {
	var pe *PhaseError
	if errors.As(err, &pe) {
		return pe.Phase, true
	}
	return 0, false
}
