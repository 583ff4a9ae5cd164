// Package ui provides terminal UI components for the bacli CLI.
//
// Most commands run once and exit, so the components here render styled
// output with Lipgloss and return strings rather than running a Bubble Tea
// program. The exception is the watch dashboard, which is a full Bubble Tea
// model that polls a device until the user quits.
//
// # Components
//
//   - Header: command banner with title, invocation and parameters
//   - Progress: progress bar and step list for multi-step commands
//   - Result: success, failure and warning boxes
//   - RenderTable: bordered tables for list and scan output
//   - WatchModel: live device dashboard (see RunWatch)
//
// StepRunner ties Header, Progress and Result together for commands such as
// 'bacli upgrade --execute':
//
//	runner := ui.NewStepRunner(ui.RunnerConfig{
//	    Title:     "Firmware Upgrade",
//	    Command:   "bacli upgrade garage --execute",
//	    Params:    []ui.Param{{Key: "Device", Value: "192.168.1.42"}},
//	    StepNames: []string{"Upload firmware", "Wait for restart", "Upload web assets", "Verify"},
//	})
//
//	err := runner.Run(func(onStep ui.StepCallback) ([]ui.Param, error) {
//	    onStep(1, ui.StepRunning, "")
//	    // ... do work ...
//	    onStep(1, ui.StepComplete, "")
//	    return nil, nil
//	})
//
// # Logging Integration
//
// Logging is controlled by BACLI_LOG_LEVEL or --log-level. When neither is
// set zap is silent, so only the curated UI output reaches the terminal.
package ui
