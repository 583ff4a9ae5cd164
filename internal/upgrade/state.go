package upgrade

import "fmt"

// Phase is a step of the upgrade workflow.
//
//	Checking -> UpToDate
//	Checking -> OutOfDate -> DryRun
//	Checking -> OutOfDate -> Executing -> UploadingFirmware
//	         -> AwaitingRestart -> UploadingAssets -> Done
//
// Failed can follow any non-terminal phase.
type Phase int

const (
	PhaseChecking Phase = iota
	PhaseUpToDate
	PhaseOutOfDate
	PhaseDryRun
	PhaseExecuting
	PhaseUploadingFirmware
	PhaseAwaitingRestart
	PhaseUploadingAssets
	PhaseDone
	PhaseFailed
)

// String returns a human-readable name for the phase
func (p Phase) String() string {
	switch p {
	case PhaseChecking:
		return "checking"
	case PhaseUpToDate:
		return "up-to-date"
	case PhaseOutOfDate:
		return "out-of-date"
	case PhaseDryRun:
		return "dry-run"
	case PhaseExecuting:
		return "executing"
	case PhaseUploadingFirmware:
		return "uploading firmware"
	case PhaseAwaitingRestart:
		return "awaiting restart"
	case PhaseUploadingAssets:
		return "uploading web assets"
	case PhaseDone:
		return "done"
	case PhaseFailed:
		return "failed"
	default:
		return fmt.Sprintf("Phase(%d)", p)
	}
}

// Terminal reports whether no further transition can follow p.
func (p Phase) Terminal() bool {
	switch p {
	case PhaseUpToDate, PhaseDryRun, PhaseDone, PhaseFailed:
		return true
	}
	return false
}

// State is the orchestrator's view of one upgrade. A copy is handed to the
// observer on every transition.
type State struct {
	Address        string
	CurrentVersion string
	TargetVersion  string
	Phase          Phase

	// PollAttempt counts restart polls while Phase is PhaseAwaitingRestart.
	PollAttempt int
}
