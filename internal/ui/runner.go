package ui

import (
	"fmt"
	"io"
	"os"
	"time"
)

// RunnerConfig describes a multi-step command for StepRunner.
type RunnerConfig struct {
	Title     string   // Command title (e.g., "Firmware Upgrade")
	Command   string   // Full command (e.g., "bacli upgrade garage --execute")
	Params    []Param  // Parameters to display in header
	StepNames []string // Names for each step, in order
	Output    io.Writer

	// Troubleshooting returns tips for a failure. Nil shows none.
	Troubleshooting func(err error) []string
}

// StepRunner drives the header, progress and result output of a
// multi-step command and hands the operation a callback to report steps.
type StepRunner struct {
	config       RunnerConfig
	header       *Header
	progress     *Progress
	output       io.Writer
	width        int
	successTitle string
}

// Operation is the work a StepRunner wraps. The returned details are shown
// in the success box.
type Operation func(onStep StepCallback) ([]Param, error)

// NewStepRunner creates a runner for a command
func NewStepRunner(config RunnerConfig) *StepRunner {
	if config.Output == nil {
		config.Output = os.Stdout
	}

	width := GetTerminalWidth()

	return &StepRunner{
		config:       config,
		header:       NewHeader(config.Title, config.Command, config.Params).SetWidth(width),
		progress:     NewProgress("", config.StepNames).SetWidth(width),
		output:       config.Output,
		width:        width,
		successTitle: config.Title + " complete",
	}
}

// SetSuccessTitle overrides the success box title, e.g. when the operation
// found nothing to do.
func (r *StepRunner) SetSuccessTitle(title string) {
	r.successTitle = title
}

// Progress exposes the step state, mainly for tests.
func (r *StepRunner) Progress() *Progress {
	return r.progress
}

// Run prints the header, executes the operation and prints the result.
// The operation's error is returned unchanged.
func (r *StepRunner) Run(operation Operation) error {
	start := time.Now()

	_, _ = fmt.Fprintln(r.output, r.header.Render())
	_, _ = fmt.Fprintln(r.output)

	details, err := operation(r.onStep)
	duration := time.Since(start).Round(time.Millisecond)

	_, _ = fmt.Fprintln(r.output)
	if err != nil {
		var tips []string
		if r.config.Troubleshooting != nil {
			tips = r.config.Troubleshooting(err)
		}
		result := NewFailureResult(r.config.Title+" failed", err, tips).SetWidth(r.width)
		_, _ = fmt.Fprintln(r.output, result.Render())
		return err
	}

	result := NewSuccessResult(r.successTitle, details).SetWidth(r.width)
	result.AddDetail("Duration", duration.String())
	_, _ = fmt.Fprintln(r.output, result.Render())
	return nil
}

func (r *StepRunner) onStep(stepNumber int, status StepStatus, message string) {
	if stepNumber < 1 || stepNumber > r.progress.Total() {
		return
	}

	r.progress.UpdateStep(stepNumber, status, message)
	line := r.progress.renderStepLine(r.progress.Steps[stepNumber-1])

	if status.Done() {
		// Clear any running line left behind
		_, _ = fmt.Fprintln(r.output, "\r"+line+"\033[K")
	} else if status == StepRunning {
		// Overwritten when the step finishes
		_, _ = fmt.Fprint(r.output, "\r"+line+"\033[K")
	}
}

// --- Simple helpers for commands that don't need a StepRunner ---

// PrintCommandHeader prints a styled command header
func PrintCommandHeader(w io.Writer, title, command string, params []Param) {
	_, _ = fmt.Fprintln(w, NewHeader(title, command, params).Render())
	_, _ = fmt.Fprintln(w)
}

// PrintSuccess prints a styled success result
func PrintSuccess(w io.Writer, title string, details []Param) {
	_, _ = fmt.Fprintln(w, NewSuccessResult(title, details).Render())
}

// PrintFailure prints a styled failure result
func PrintFailure(w io.Writer, title string, err error, troubleshooting []string) {
	_, _ = fmt.Fprintln(w, NewFailureResult(title, err, troubleshooting).Render())
}

// PrintWarning prints a styled warning result
func PrintWarning(w io.Writer, title string, details []Param) {
	_, _ = fmt.Fprintln(w, NewWarningResult(title, details).Render())
}
