package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/bacli/bacli/internal/config"
	"github.com/bacli/bacli/internal/scanner"
	"github.com/bacli/bacli/internal/ui"
	"github.com/bacli/bacli/internal/version"
)

var scanHeaders = []string{"IP", "Alias", "Board Version", "OS Version"}

func newScanCmd(flags *globalFlags) *cobra.Command {
	var (
		base string
		mask string
		save bool
		rate float64
	)

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan a subnet for devices",
		Long: `Probe every address of a subnet for a Bitaxe and list the devices found.

Each address gets one request with a 1 second timeout. Unreachable
addresses are skipped silently. Ranges larger than a /16 are refused.`,
		Example: `  # Scan 192.168.1.0/24
  bacli scan --base 192.168.1.0

  # Scan and remember new devices
  bacli scan --base 10.0.0.0 --mask 255.255.254.0 --save

  # Gentler on busy networks
  bacli scan --base 192.168.1.0 --rate 50`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := flags.loadStore()
			if err != nil {
				return err
			}

			s := scanner.New(
				scanner.WithRate(rate),
				scanner.WithUserAgent(version.UserAgent()),
			)

			ui.PrintCommandHeader(cmd.ErrOrStderr(), "Subnet Scan", cmd.CommandPath(), []ui.Param{
				{Key: "Base", Value: base},
				{Key: "Mask", Value: mask},
			})
			results, err := s.Scan(cmd.Context(), base, mask)
			if err != nil {
				return err
			}

			return reportScan(cmd.OutOrStdout(), store, results, save)
		},
	}

	cmd.Flags().StringVar(&base, "base", "", "Any address inside the subnet to scan")
	cmd.Flags().StringVar(&mask, "mask", "255.255.255.0", "Subnet mask")
	cmd.Flags().BoolVar(&save, "save", false, "Add new devices to the config file")
	cmd.Flags().Float64Var(&rate, "rate", 0, "Max probes started per second (0 = all at once)")
	_ = cmd.MarkFlagRequired("base")

	return cmd
}

func newDiscoverCmd(flags *globalFlags) *cobra.Command {
	var (
		timeout time.Duration
		save    bool
	)

	cmd := &cobra.Command{
		Use:   "discover",
		Short: "Find devices that advertise themselves over mDNS",
		Long: `Browse the local network for HTTP services announced over mDNS and keep
the ones that answer as a Bitaxe. Faster than a subnet scan but only finds
devices whose firmware advertises itself.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := flags.loadStore()
			if err != nil {
				return err
			}

			s := scanner.New(scanner.WithUserAgent(version.UserAgent()))

			ui.PrintCommandHeader(cmd.ErrOrStderr(), "mDNS Discovery", cmd.CommandPath(), []ui.Param{
				{Key: "Service", Value: scanner.ServiceType + "." + scanner.ServiceDomain},
				{Key: "Timeout", Value: timeout.String()},
			})
			results, err := s.DiscoverMDNS(cmd.Context(), timeout)
			if err != nil {
				return fmt.Errorf("discovery failed: %w", err)
			}

			return reportScan(cmd.OutOrStdout(), store, results, save)
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", scanner.DefaultBrowseTimeout, "How long to browse")
	cmd.Flags().BoolVar(&save, "save", false, "Add new devices to the config file")
	return cmd
}

// reportScan prints the found devices and, with save, records the new ones
// in a single write.
func reportScan(w io.Writer, store *config.Store, results []scanner.Result, save bool) error {
	if len(results) == 0 {
		ui.PrintWarning(w, "No devices found", []ui.Param{
			{Key: "Tip", Value: "check the subnet, or use 'bacli info <address>' directly"},
		})
		return nil
	}

	fmt.Fprintln(w, ui.RenderTable(scanHeaders, scanRows(store, results)))

	if !save {
		return nil
	}

	added := 0
	for _, r := range results {
		if store.Upsert(r.Address, nil) {
			added++
		}
	}
	if added == 0 {
		return nil
	}

	if err := store.Save(); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	ui.PrintSuccess(w, "New devices saved", []ui.Param{
		{Key: "Added", Value: fmt.Sprint(added)},
		{Key: "Config", Value: store.Path()},
	})
	return nil
}

func scanRows(store *config.Store, results []scanner.Result) [][]string {
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		rows = append(rows, []string{
			r.Address,
			ui.OrPlaceholder(store.AliasOf(r.Address)),
			r.Info.BoardVersion,
			r.Info.Version,
		})
	}
	return rows
}
