// Bacli manages Bitaxe mining devices on the local network.
//
// It queries device status, changes settings, restarts devices, finds them
// by scanning a subnet or browsing mDNS, and upgrades their firmware from
// the latest ESP-Miner release.
//
// Usage:
//
//	bacli [command] [flags]
//
// Devices can be named by address or by an alias recorded with
// 'bacli alias'. See 'bacli --help' for available commands.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bacli/bacli/internal/bitaxe"
	"github.com/bacli/bacli/internal/config"
	"github.com/bacli/bacli/internal/logging"
	"github.com/bacli/bacli/internal/ui"
	"github.com/bacli/bacli/internal/version"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := newRootCmd().ExecuteContext(ctx)
	if err != nil {
		logging.Error("Command failed", zap.Error(err))
	}
	logging.Sync()

	if err != nil {
		if errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, "Interrupted.")
		} else {
			printError(err)
		}
		os.Exit(1)
	}
}

// printError reports a failed command on stderr. Device errors get a
// troubleshooting box, anything else a plain line.
func printError(err error) {
	hint := bitaxe.TroubleshootingHint(err)
	if hint == "" {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return
	}
	ui.PrintFailure(os.Stderr, bitaxe.ShortErrorMessage(err), err, ui.HintLines(hint))
}

// globalFlags holds the persistent flags shared by every command.
type globalFlags struct {
	configPath string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:   "bacli",
		Short: "Bitaxe device management CLI",
		Long: `A command line tool for managing Bitaxe mining devices.

Query status, change settings, restart devices, discover them on the local
network and upgrade their firmware. Every device argument accepts either an
address or an alias recorded with 'bacli alias'.`,
		Version:       version.Full(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return logging.Initialize(flags.logLevel)
		},
	}

	// Disable automatic completion command generation
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "Config file (default: <config dir>/bacli/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "Log level: debug, info, warn, error (default: $"+logging.LogLevelEnvVar+" or silent)")

	rootCmd.AddCommand(
		newInfoCmd(flags),
		newRestartCmd(flags),
		newUpdateSettingsCmd(flags),
		newListCmd(flags),
		newAliasCmd(flags),
		newScanCmd(flags),
		newDiscoverCmd(flags),
		newUpgradeCmd(flags),
		newWatchCmd(flags),
		newLogsCmd(flags),
		newVersionCmd(),
	)

	return rootCmd
}

// loadStore opens the device store named by --config, or the default one.
func (f *globalFlags) loadStore() (*config.Store, error) {
	path := f.configPath
	if path == "" {
		var err error
		path, err = config.DefaultPath()
		if err != nil {
			return nil, err
		}
	}

	store, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return store, nil
}

// deviceClient resolves ident through the store and returns a client for it.
func (f *globalFlags) deviceClient(ident string) (*bitaxe.Client, error) {
	store, err := f.loadStore()
	if err != nil {
		return nil, err
	}

	address := store.Resolve(ident)
	return bitaxe.NewClient(address, bitaxe.WithUserAgent(version.UserAgent())), nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", version.AppName, version.Full())
		},
	}
}
