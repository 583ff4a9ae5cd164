package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/bacli/bacli/internal/bitaxe"
	"github.com/bacli/bacli/internal/ui"
	"github.com/bacli/bacli/internal/upgrade"
	"github.com/bacli/bacli/internal/urls"
	"github.com/bacli/bacli/internal/version"
)

// Upgrade steps as shown by the progress display
const (
	stepCheck = iota + 1
	stepFirmware
	stepRestart
	stepAssets
)

var upgradeStepNames = []string{
	"Check versions",
	"Upload firmware",
	"Wait for restart",
	"Upload web assets",
}

func newUpgradeCmd(flags *globalFlags) *cobra.Command {
	opts := upgrade.DefaultOptions()

	cmd := &cobra.Command{
		Use:   "upgrade <device>",
		Short: "Upgrade the device to the latest ESP-Miner release",
		Long: `Compare the device firmware with the latest ESP-Miner release and upgrade
it when they differ.

Without --execute only the plan is printed. With --execute the firmware is
uploaded, the device is polled until it is back from its restart, and then
the web assets are uploaded.

This is an experimental command. Use the device's web page if you're unsure.`,
		Example: `  # See what would happen
  bacli upgrade garage

  # Upgrade
  bacli upgrade garage --execute

  # Reinstall the current release
  bacli upgrade garage --execute --force`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.MaxPollAttempts < 0 {
				return fmt.Errorf("--max-polls must be 0 or more, got %d", opts.MaxPollAttempts)
			}

			client, err := flags.deviceClient(args[0])
			if err != nil {
				return err
			}

			orch := upgrade.New(client.Address, client, upgrade.NewGitHubReleases(version.UserAgent()), opts)

			if !opts.Execute {
				return runUpgradePlan(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), orch)
			}
			return runUpgrade(cmd.Context(), cmd.OutOrStdout(), cmd.CommandPath()+" "+args[0], orch, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.Force, "force", false, "Upgrade even when the device runs the latest release")
	cmd.Flags().BoolVar(&opts.Execute, "execute", false, "Perform the upgrade instead of printing the plan")
	cmd.Flags().IntVar(&opts.MaxPollAttempts, "max-polls", upgrade.DefaultMaxPollAttempts, "Restart polls before giving up (0 = wait forever)")

	return cmd
}

// runUpgradePlan runs the check phase and prints what --execute would do.
func runUpgradePlan(ctx context.Context, out, errOut io.Writer, orch *upgrade.Orchestrator) error {
	report, err := orch.Run(ctx)
	if err != nil {
		return err
	}

	if report.Phase == upgrade.PhaseUpToDate {
		fmt.Fprintf(errOut, "Device '%s' is up-to-date. Device version: %s\n", report.Address, report.CurrentVersion)
		return nil
	}

	fmt.Fprintf(out, "Device '%s' is out-of-date. Device version: %s, Latest version: %s\n",
		report.Address, report.CurrentVersion, report.TargetVersion)
	fmt.Fprint(errOut, upgradePlan(report.TargetVersion))
	return nil
}

func upgradePlan(tag string) string {
	return fmt.Sprintf(`
This tool will perform the following:

1. Download the most recent (%s) firmware and www bins.
2. Upload the firmware file to /api%s.
3. Upload the www file to /api%s.

Release notes: %s

Note: This is an experimental command. Use the device's web page if you're unsure.

Pass --execute to run the update.
`, tag, bitaxe.PathFirmwareOTA, bitaxe.PathWWWOTA, urls.ReleasePage(tag))
}

// runUpgrade performs the upgrade behind a step progress display.
func runUpgrade(ctx context.Context, out io.Writer, command string, orch *upgrade.Orchestrator, opts upgrade.Options) error {
	runner := ui.NewStepRunner(ui.RunnerConfig{
		Title:   "Firmware Upgrade",
		Command: command,
		Params: []ui.Param{
			{Key: "Device", Value: orch.Address()},
			{Key: "Force", Value: fmt.Sprint(opts.Force)},
		},
		StepNames:       upgradeStepNames,
		Output:          out,
		Troubleshooting: upgradeTroubleshooting,
	})

	return runner.Run(func(onStep ui.StepCallback) ([]ui.Param, error) {
		steps := &upgradeSteps{onStep: onStep, maxPolls: opts.MaxPollAttempts}
		orch.OnStateChange(steps.observe)

		report, err := orch.Run(ctx)
		if err != nil {
			return nil, err
		}

		if report.Phase == upgrade.PhaseUpToDate {
			runner.SetSuccessTitle("Device is up to date")
			return []ui.Param{{Key: "Version", Value: report.CurrentVersion}}, nil
		}

		return []ui.Param{
			{Key: "Previous", Value: report.CurrentVersion},
			{Key: "Installed", Value: report.TargetVersion},
			{Key: "Restart polls", Value: fmt.Sprint(report.PollAttempts)},
		}, nil
	})
}

// upgradeSteps turns orchestrator state changes into progress steps.
type upgradeSteps struct {
	onStep   ui.StepCallback
	maxPolls int
	running  int
}

func (u *upgradeSteps) run(step int, message string) {
	u.running = step
	u.onStep(step, ui.StepRunning, message)
}

func (u *upgradeSteps) finish(step int, message string) {
	u.running = 0
	u.onStep(step, ui.StepComplete, message)
}

func (u *upgradeSteps) observe(s upgrade.State) {
	switch s.Phase {
	case upgrade.PhaseChecking:
		u.run(stepCheck, "")

	case upgrade.PhaseUpToDate:
		u.finish(stepCheck, "already on "+s.CurrentVersion)
		for step := stepFirmware; step <= stepAssets; step++ {
			u.onStep(step, ui.StepSkipped, "")
		}

	case upgrade.PhaseOutOfDate:
		u.finish(stepCheck, s.CurrentVersion+" → "+s.TargetVersion)

	case upgrade.PhaseUploadingFirmware:
		u.run(stepFirmware, upgrade.FirmwareAsset)

	case upgrade.PhaseAwaitingRestart:
		if s.PollAttempt == 0 {
			u.finish(stepFirmware, "")
			u.run(stepRestart, "")
			return
		}
		if u.maxPolls > 0 {
			u.run(stepRestart, fmt.Sprintf("poll %d/%d", s.PollAttempt, u.maxPolls))
		} else {
			u.run(stepRestart, fmt.Sprintf("poll %d", s.PollAttempt))
		}

	case upgrade.PhaseUploadingAssets:
		u.finish(stepRestart, fmt.Sprintf("back after %d polls", s.PollAttempt))
		u.run(stepAssets, upgrade.WWWAsset)

	case upgrade.PhaseDone:
		u.finish(stepAssets, "")

	case upgrade.PhaseFailed:
		if u.running > 0 {
			u.onStep(u.running, ui.StepFailed, "")
			u.running = 0
		}
	}
}

func upgradeTroubleshooting(err error) []string {
	tips := ui.HintLines(bitaxe.TroubleshootingHint(err))

	if errors.Is(err, upgrade.ErrRestartTimeout) {
		tips = append(tips,
			"Open the device web page to check whether it is back",
			"Retry with a larger --max-polls, or --max-polls 0 to wait forever",
		)
	}
	if phase, ok := upgrade.FailedPhase(err); ok && phase >= upgrade.PhaseUploadingFirmware {
		tips = append(tips, "If the device does not boot, reflash it: "+urls.FlashingGuide)
	}
	return tips
}
