// Package upgrade moves a device to the newest published ESP-Miner release.
//
// The workflow is a small state machine (see Phase). It compares the
// device's firmware tag with the latest release tag, stops early when they
// match or when the run is a dry run, and otherwise:
//
//  1. downloads esp-miner.bin and uploads it to /api/system/OTA
//  2. polls /api/system/info until the device is back from its reboot
//  3. downloads www.bin and uploads it to /api/system/OTAWWW
//
// The restart wait is bounded by Options.MaxPollAttempts. Failures come back
// as *PhaseError; nothing is rolled back.
//
// # Usage Example
//
//	client := bitaxe.NewClient(address)
//	opts := upgrade.DefaultOptions()
//	opts.Execute = true
//
//	orch := upgrade.New(address, client, upgrade.NewGitHubReleases(version.UserAgent()), opts)
//	orch.OnStateChange(func(s upgrade.State) { fmt.Println(s.Phase) })
//	report, err := orch.Run(ctx)
package upgrade
