package upgrade

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/bacli/bacli/internal/bitaxe"
	"github.com/bacli/bacli/internal/logging"
)

const (
	// DefaultPollInterval is the pause before each restart poll.
	DefaultPollInterval = 5 * time.Second

	// DefaultMaxPollAttempts bounds the restart wait to about five minutes.
	DefaultMaxPollAttempts = 60
)

// Device is the part of the device API an upgrade needs.
// *bitaxe.Client satisfies it.
type Device interface {
	SystemInfo(ctx context.Context) (*bitaxe.SystemInfo, error)
	UploadFirmware(ctx context.Context, image []byte) error
	UploadWWW(ctx context.Context, bundle []byte) error
}

// Releases is a source of published firmware. *GitHubReleases satisfies it.
type Releases interface {
	LatestTag(ctx context.Context) (string, error)
	Download(ctx context.Context, tag, filename string) ([]byte, error)
}

// Options controls an upgrade run.
type Options struct {
	// Force upgrades even when the device already runs the latest tag.
	Force bool

	// Execute performs the upgrade. Without it the run stops at PhaseDryRun.
	Execute bool

	// PollInterval is the pause before every restart poll.
	PollInterval time.Duration

	// MaxPollAttempts bounds the restart wait. Zero polls forever.
	MaxPollAttempts int
}

// DefaultOptions returns a dry run with the default restart bound.
func DefaultOptions() Options {
	return Options{
		PollInterval:    DefaultPollInterval,
		MaxPollAttempts: DefaultMaxPollAttempts,
	}
}

// Observer is called with a copy of the state after every transition.
type Observer func(State)

// Report is the outcome of Run.
type Report struct {
	Address        string
	CurrentVersion string
	TargetVersion  string
	Phase          Phase
	PollAttempts   int
}

// Orchestrator upgrades one device. Steps run strictly in sequence.
type Orchestrator struct {
	device   Device
	releases Releases
	opts     Options
	observer Observer
	sleep    func(ctx context.Context, d time.Duration) error

	state State
}

// New creates an orchestrator for the device at address.
func New(address string, device Device, releases Releases, opts Options) *Orchestrator {
	return &Orchestrator{
		device:   device,
		releases: releases,
		opts:     opts,
		sleep:    sleepContext,
		state:    State{Address: address, Phase: PhaseChecking},
	}
}

// Address returns the address of the device being upgraded.
func (o *Orchestrator) Address() string {
	return o.state.Address
}

// OnStateChange registers fn to receive every state transition.
func (o *Orchestrator) OnStateChange(fn Observer) {
	o.observer = fn
}

// Run executes the workflow. The returned report is never nil; on failure
// its Phase is PhaseFailed and err is a *PhaseError naming the failed phase.
func (o *Orchestrator) Run(ctx context.Context) (*Report, error) {
	o.transition(PhaseChecking)

	info, err := o.device.SystemInfo(ctx)
	if err != nil {
		return o.fail(err)
	}
	o.state.CurrentVersion = info.Version

	tag, err := o.releases.LatestTag(ctx)
	if err != nil {
		return o.fail(fmt.Errorf("failed to look up latest release: %w", err))
	}
	o.state.TargetVersion = tag

	// Plain tag comparison: any difference counts as out of date
	if o.state.CurrentVersion == o.state.TargetVersion && !o.opts.Force {
		o.transition(PhaseUpToDate)
		return o.report(), nil
	}
	o.transition(PhaseOutOfDate)

	if !o.opts.Execute {
		o.transition(PhaseDryRun)
		return o.report(), nil
	}
	o.transition(PhaseExecuting)

	o.transition(PhaseUploadingFirmware)
	if err := o.uploadAsset(ctx, FirmwareAsset, o.device.UploadFirmware); err != nil {
		return o.fail(err)
	}

	// The device reboots into the new image on its own
	o.transition(PhaseAwaitingRestart)
	if err := o.awaitRestart(ctx); err != nil {
		return o.fail(err)
	}

	o.transition(PhaseUploadingAssets)
	if err := o.uploadAsset(ctx, WWWAsset, o.device.UploadWWW); err != nil {
		return o.fail(err)
	}

	o.transition(PhaseDone)
	return o.report(), nil
}

func (o *Orchestrator) uploadAsset(ctx context.Context, filename string, upload func(context.Context, []byte) error) error {
	data, err := o.releases.Download(ctx, o.state.TargetVersion, filename)
	if err != nil {
		return err
	}

	logging.Info("Uploading release asset",
		zap.String("address", o.state.Address),
		zap.String("asset", filename),
		zap.Int("bytes", len(data)),
	)
	return upload(ctx, data)
}

// awaitRestart polls until the device answers again. Transport and server
// errors mean it is still rebooting; an invalid request or undecodable
// response means something other than a reboot is going on.
func (o *Orchestrator) awaitRestart(ctx context.Context) error {
	for attempt := 1; o.opts.MaxPollAttempts == 0 || attempt <= o.opts.MaxPollAttempts; attempt++ {
		if err := o.sleep(ctx, o.opts.PollInterval); err != nil {
			return err
		}

		o.state.PollAttempt = attempt
		o.notify()

		_, err := o.device.SystemInfo(ctx)
		if err == nil {
			logging.Debug("Device is back", zap.String("address", o.state.Address), zap.Int("attempt", attempt))
			return nil
		}

		kind, ok := bitaxe.KindOf(err)
		if !ok {
			return err
		}

		switch kind {
		case bitaxe.KindTransport, bitaxe.KindServer:
			logging.Debug("Device has not restarted, continuing to wait",
				zap.String("address", o.state.Address),
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
		case bitaxe.KindInvalidRequest:
			return fmt.Errorf("device refused the request as invalid: status code %d: %w", bitaxe.StatusCode(err), err)
		case bitaxe.KindDecode:
			return err
		}
	}

	return fmt.Errorf("%w (%d polls, %s apart)", ErrRestartTimeout, o.opts.MaxPollAttempts, o.opts.PollInterval)
}

func (o *Orchestrator) transition(phase Phase) {
	o.state.Phase = phase
	logging.LogPhase(o.state.Address, phase.String(), o.state.CurrentVersion, o.state.TargetVersion)
	o.notify()
}

func (o *Orchestrator) notify() {
	if o.observer != nil {
		o.observer(o.state)
	}
}

func (o *Orchestrator) fail(err error) (*Report, error) {
	failed := o.state.Phase
	o.transition(PhaseFailed)
	return o.report(), &PhaseError{Phase: failed, Err: err}
}

func (o *Orchestrator) report() *Report {
	return &Report{
		Address:        o.state.Address,
		CurrentVersion: o.state.CurrentVersion,
		TargetVersion:  o.state.TargetVersion,
		Phase:          o.state.Phase,
		PollAttempts:   o.state.PollAttempt,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
